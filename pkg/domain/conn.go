package domain

// ConnStatus is the connection state tracked by a backend connection.
type ConnStatus int

const (
	StatusDisconnected ConnStatus = iota
	StatusConnected
)

func (s ConnStatus) String() string {
	if s == StatusConnected {
		return "connected"
	}
	return "disconnected"
}
