package queue

import "github.com/okian/dojo/internal/domain/model"

// Op says what a worker should do with a message.
type Op uint8

const (
	OpFrame Op = iota + 1
	OpSetDefender
	OpSetAttacker
	OpReset
	OpEnd
)

func (o Op) String() string {
	switch o {
	case OpFrame:
		return "frame"
	case OpSetDefender:
		return "set_defender"
	case OpSetAttacker:
		return "set_attacker"
	case OpReset:
		return "reset"
	case OpEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Message is one unit of work for the session owning SessionID.
type Message struct {
	Op        Op
	SessionID string
	// Token identifies the incarnation of the session the message was sent
	// to; a session re-created under the same id gets a new one.
	Token   string
	Frame   model.Frame
	TrackID string

	// Reply, when set, receives the handler's result. It must be buffered.
	Reply chan error
}
