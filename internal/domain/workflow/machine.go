package workflow

// StateMachine tracks an invoice status and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire applies the trigger, moving to the configured target state
	Fire(trigger Trigger) error
}
