package produce

// Status classifies the result of one publish attempt.
type Status string

const (
	// StatusDelivered: the backend acknowledged the message.
	StatusDelivered Status = "delivered"
	// StatusRejected: the claim failed pre-publish validation and the
	// backend was never contacted. Not a delivery failure.
	StatusRejected Status = "rejected"
	// StatusTimedOut: the backend did not acknowledge within the send
	// timeout.
	StatusTimedOut Status = "timed_out"
	// StatusSendFailed: the backend reported a delivery error.
	StatusSendFailed Status = "send_failed"
)

// Outcome is the resolved result of a publish attempt. Partition and
// Offset are meaningful only when Status is StatusDelivered; Reason is
// set for rejections, Err for send failures and timeouts.
type Outcome struct {
	Status    Status
	Partition int
	Offset    int64
	Reason    string
	Err       error
}

// Delivered reports whether the message reached the backend.
func (o Outcome) Delivered() bool { return o.Status == StatusDelivered }
