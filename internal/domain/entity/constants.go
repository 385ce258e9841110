package entity

// Invoice status constants
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusVoid    = "void"
)

// Template kind constants
const (
	TemplateSimple   = "simple"
	TemplateDetailed = "detailed"
	TemplateProforma = "proforma"
)

// ValidStatuses lists every invoice status
var ValidStatuses = map[string]bool{
	StatusPending: true,
	StatusPaid:    true,
	StatusVoid:    true,
}

// ValidTemplateKinds lists every document template kind
var ValidTemplateKinds = map[string]bool{
	TemplateSimple:   true,
	TemplateDetailed: true,
	TemplateProforma: true,
}

// DocumentBucket is the blob store bucket holding rendered invoices
const DocumentBucket = "invoices"
