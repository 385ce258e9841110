package workflow

// State is an invoice lifecycle status
type State string

const (
	StatePending State = "pending"
	StatePaid    State = "paid"
	StateVoid    State = "void"
)

// IsTerminal returns true if no trigger can leave the state
func (s State) IsTerminal() bool {
	return s == StateVoid
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known invoice status
func (s State) IsValid() bool {
	switch s {
	case StatePending, StatePaid, StateVoid:
		return true
	}
	return false
}
