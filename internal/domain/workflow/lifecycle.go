package workflow

import "sync"

// invoiceLifecycle is built on first use so it never depends on package
// variable initialization order.
var invoiceLifecycle = sync.OnceValue(newInvoiceLifecycle)

func newInvoiceLifecycle() StateMachineBuilder {
	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerPay, StatePaid).
		Permit(TriggerVoid, StateVoid)
	// paying twice is a no-op
	b.Configure(StatePaid).
		Permit(TriggerPay, StatePaid)
	return b
}

// NewInvoiceMachine returns a machine for the invoice lifecycle positioned at status
func NewInvoiceMachine(status string) (StateMachine, error) {
	return invoiceLifecycle().Build(State(status))
}
