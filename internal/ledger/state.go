package ledger

// State tracks the progress of a mutating ledger operation. Aborted means the
// primary write never landed and the books are clean; Inconsistent means the
// primary write landed but the balance update did not, which only an operator
// can reconcile.
type State string

const (
	StateIdle            State = "idle"
	StateValidating      State = "validating"
	StateWriting         State = "writing"
	StateUpdatingBalance State = "updating_balance"
	StateDone            State = "done"
	StateAborted         State = "aborted"
	StateInconsistent    State = "inconsistent"
)

var transitions = map[State][]State{
	StateIdle:            {StateValidating},
	StateValidating:      {StateWriting},
	StateWriting:         {StateUpdatingBalance, StateAborted},
	StateUpdatingBalance: {StateDone, StateInconsistent},
}

// CanTransition reports whether moving from one state to the next is legal.
// Done, Aborted, and Inconsistent are terminal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// tracker records the path a single operation takes through the state machine.
type tracker struct {
	state State
	path  []State
}

func newTracker() *tracker {
	return &tracker{state: StateIdle, path: []State{StateIdle}}
}

// to advances the tracker. An illegal transition leaves the state unchanged;
// the linear operation flow never produces one.
func (t *tracker) to(next State) State {
	if !CanTransition(t.state, next) {
		return t.state
	}
	t.state = next
	t.path = append(t.path, next)
	return t.state
}

func (t *tracker) current() State {
	return t.state
}

func (t *tracker) pathString() string {
	out := ""
	for i, s := range t.path {
		if i > 0 {
			out += " > "
		}
		out += string(s)
	}
	return out
}
