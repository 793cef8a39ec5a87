package gateway

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultKeepAlive         = 30 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds

	// reported when the connect failed before the broker answered
	codeTransportFailure byte = 0xff
)

// PahoTransport dials paho clients with automatic reconnection turned off;
// reconnecting is the gateway's job.
type PahoTransport struct{}

func (PahoTransport) Dial(o Options, cb Callbacks) Session {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", o.Host, o.Port))
	opts.SetClientID(o.ClientID)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		cb.OnConnectionLost(err)
	})

	return &pahoSession{
		client: pahomqtt.NewClient(opts),
		cb:     cb,
	}
}

type pahoSession struct {
	client pahomqtt.Client
	cb     Callbacks
}

func (s *pahoSession) Connect() {
	token := s.client.Connect()
	go func() {
		token.Wait()
		code := byte(0)
		if ct, ok := token.(*pahomqtt.ConnectToken); ok {
			code = ct.ReturnCode()
		}
		if err := token.Error(); err != nil {
			log.Debugf("mqtt connect failed: %s", err)
			if code == 0 {
				code = codeTransportFailure
			}
		}
		s.cb.OnConnect(code)
	}()
}

func (s *pahoSession) Publish(topic string, payload string) {
	s.client.Publish(topic, 0, false, payload)
}

func (s *pahoSession) Disconnect() {
	if s.client.IsConnectionOpen() {
		s.client.Disconnect(defaultDisconnectQuiesce)
	}
}
