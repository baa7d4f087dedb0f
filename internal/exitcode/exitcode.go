package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	BrokerConnError = 3
	SendError       = 4
	AuditError      = 5
	PartialSuccess  = 6
)
