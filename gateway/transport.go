package gateway

// Options identify one broker session.
type Options struct {
	Host     string
	Port     int
	ClientID string
	Username string
	Password string
}

// Callbacks are invoked from the transport's own goroutines.
type Callbacks struct {
	// code 0 means accepted, anything else is a refused or failed connect
	OnConnect        func(code byte)
	OnConnectionLost func(err error)
}

type Transport interface {
	Dial(opts Options, cb Callbacks) Session
}

// Session is a single client identity. Connect and Publish must not block.
type Session interface {
	Connect()
	Publish(topic string, payload string)
	Disconnect()
}
