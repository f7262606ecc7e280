package models

// VerificationStatus is the terminal result of an explorer verification attempt
type VerificationStatus string

const (
	VerificationStatusVerified        VerificationStatus = "verified"
	VerificationStatusAlreadyVerified VerificationStatus = "already_verified"
	VerificationStatusFailed          VerificationStatus = "failed"
	VerificationStatusSkipped         VerificationStatus = "skipped"
)

// VerificationOutcome is the value returned by a verification attempt.
// A failed outcome carries the cause in Err; it is never propagated as a run error.
type VerificationOutcome struct {
	Status  VerificationStatus
	Message string
	URL     string
	GUID    string
	Err     error
}

// Succeeded reports whether the source is published on the explorer
func (o VerificationOutcome) Succeeded() bool {
	return o.Status == VerificationStatusVerified || o.Status == VerificationStatusAlreadyVerified
}

// Detail returns the most specific human-readable description of the outcome
func (o VerificationOutcome) Detail() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Message
}

// Verified builds a successful outcome
func Verified(url, guid string) VerificationOutcome {
	return VerificationOutcome{Status: VerificationStatusVerified, Message: "contract verified", URL: url, GUID: guid}
}

// AlreadyVerified builds an outcome for sources the explorer already knows
func AlreadyVerified(url string) VerificationOutcome {
	return VerificationOutcome{Status: VerificationStatusAlreadyVerified, Message: "contract source already verified", URL: url}
}

// VerificationFailed builds a failed outcome
func VerificationFailed(err error) VerificationOutcome {
	return VerificationOutcome{Status: VerificationStatusFailed, Err: err}
}

// VerificationSkipped builds an outcome for runs that did not attempt verification
func VerificationSkipped(reason string) VerificationOutcome {
	return VerificationOutcome{Status: VerificationStatusSkipped, Message: reason}
}
