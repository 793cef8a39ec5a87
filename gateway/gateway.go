package gateway

import (
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

type Config struct {
	Options
	Topic         string
	RetryInterval time.Duration
}

// Gateway keeps one broker session alive on a best-effort basis. Measurements
// published while the session is down are dropped.
type Gateway struct {
	cfg       Config
	transport Transport
	now       func() time.Time

	// guards connect initiation, the throttle and the session handle
	mu          sync.Mutex
	lastAttempt time.Time
	session     Session

	// generation of the current session; callbacks from older ones are ignored
	generation atomic.Uint64
	state      atomic.Int32
}

func New(cfg Config, transport Transport) *Gateway {
	return &Gateway{
		cfg:       cfg,
		transport: transport,
		now:       time.Now,
	}
}

func (g *Gateway) State() State {
	return State(g.state.Load())
}

func (g *Gateway) Connected() bool {
	return g.State() == Connected
}

// Connect starts a new session unless one was started less than
// RetryInterval ago. It does not wait for the outcome.
func (g *Gateway) Connect() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if !g.lastAttempt.IsZero() && now.Sub(g.lastAttempt) < g.cfg.RetryInterval {
		return
	}
	g.lastAttempt = now

	gen := g.generation.Add(1)
	if g.session != nil {
		g.session.Disconnect()
	}

	g.session = g.transport.Dial(g.cfg.Options, Callbacks{
		OnConnect:        func(code byte) { g.onConnect(gen, code) },
		OnConnectionLost: func(err error) { g.onConnectionLost(gen, err) },
	})
	g.setState(Connecting)
	connectAttempts.Inc()

	log.Infof("connecting to mqtt broker %s:%d", g.cfg.Host, g.cfg.Port)
	g.session.Connect()
}

// Publish sends payload to <topic>/<metric> when connected. Otherwise it
// asks for a reconnect and returns ErrNotConnected.
func (g *Gateway) Publish(metric string, payload string) error {
	if !g.Connected() {
		droppedMessages.Inc()
		g.Connect()
		return ErrNotConnected
	}

	g.mu.Lock()
	session := g.session
	g.mu.Unlock()
	if session == nil {
		droppedMessages.Inc()
		return ErrNotConnected
	}

	session.Publish(g.cfg.Topic+"/"+metric, payload)
	publishedMessages.Inc()
	return nil
}

// Close drops the current session, if any.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation.Add(1)
	if g.session != nil {
		g.session.Disconnect()
		g.session = nil
	}
	g.setState(Disconnected)
}

func (g *Gateway) onConnect(gen uint64, code byte) {
	if gen != g.generation.Load() {
		log.Debugf("ignoring connect result %d of a stale mqtt session", code)
		return
	}
	if code == 0 {
		log.Infof("connected to mqtt broker with return code: %d", code)
		g.setState(Connected)
		return
	}
	log.Errorf("connection to mqtt broker failed with return code: %d", code)
	g.setState(Disconnected)
}

func (g *Gateway) onConnectionLost(gen uint64, err error) {
	if gen != g.generation.Load() {
		return
	}
	log.Errorf("disconnected from mqtt broker: %s", err)
	g.setState(Disconnected)
}

func (g *Gateway) setState(s State) {
	g.state.Store(int32(s))
	connectionState.Set(float64(s))
}
