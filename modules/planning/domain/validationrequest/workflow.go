package validationrequest

type State string

const (
	StatePending   State = "pending"
	StateOpen      State = "open"
	StateClosed    State = "closed"
	StateCancelled State = "cancelled"
)

type Event string

const (
	EventMarkAsSent Event = "mark_as_sent"
	EventCancel     Event = "cancel"
	EventClose      Event = "close"
	EventAutoClose  Event = "auto_close"
)

// One transition table shared by every request kind. There are no
// loops: each path is terminal once taken.
var workflow = map[Event]struct {
	from []State
	to   State
}{
	EventMarkAsSent: {from: []State{StatePending}, to: StateOpen},
	EventCancel:     {from: []State{StatePending, StateOpen}, to: StateCancelled},
	EventClose:      {from: []State{StateOpen}, to: StateClosed},
	EventAutoClose:  {from: []State{StateOpen}, to: StateClosed},
}

// Transition resolves the target state for an event, or fails with
// InvalidTransitionError when the current state does not permit it.
func Transition(current State, ev Event) (State, error) {
	rule, ok := workflow[ev]
	if !ok {
		return current, &InvalidTransitionError{Event: ev, From: current}
	}
	for _, from := range rule.from {
		if current == from {
			return rule.to, nil
		}
	}
	return current, &InvalidTransitionError{Event: ev, From: current}
}
