package workflow

// Trigger is an event that moves an invoice between statuses
type Trigger string

const (
	TriggerPay  Trigger = "PAY"
	TriggerVoid Trigger = "VOID"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
