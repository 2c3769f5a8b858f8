package domain

// Connection is the singleton active-connection snapshot. After a disconnect
// only Connected is reset; Host and Port keep their last values.
type Connection struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	Connected bool   `json:"connected"`
}

// DefaultConnection returns the initial connection state.
func DefaultConnection() Connection {
	return Connection{
		Host:      "localhost",
		Port:      9090,
		UseTLS:    false,
		Connected: false,
	}
}

// Endpoint returns the connection's target as an Endpoint.
func (c Connection) Endpoint() Endpoint {
	return Endpoint{Host: c.Host, Port: c.Port}
}
