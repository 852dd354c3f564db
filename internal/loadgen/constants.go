package loadgen

import "time"

// Defaults applied to unset Config fields.
const (
	DefaultRatings = 1000
	DefaultWorkers = 8
	DefaultTimeout = 30 * time.Second
)

// Submission outcomes.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

const progressInterval = time.Second
