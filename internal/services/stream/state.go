package stream

// Status is the connection lifecycle of the live feed.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
	Reconnecting
	Failed
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return "disconnected"
	}
}

// StatusNames lists every status label, used to reset the state gauge.
var StatusNames = []string{
	Disconnected.String(),
	Connecting.String(),
	Connected.String(),
	Reconnecting.String(),
	Failed.String(),
}

// State is one status signal. Reason is set for Failed and for server-initiated
// disconnects; Attempt counts reconnection attempts while Reconnecting.
type State struct {
	Status  Status
	Reason  string
	Attempt int
}
