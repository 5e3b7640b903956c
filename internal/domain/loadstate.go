package domain

// LoadPhase is the lifecycle state of one item's media resource.
type LoadPhase int

const (
	// PhaseIdle means no resource and no in-flight load
	PhaseIdle LoadPhase = iota
	// PhaseLoading means a load request is in flight
	PhaseLoading
	// PhaseActive means the item holds a loaded resource
	PhaseActive
	// PhaseFailed means the last load attempt failed; terminal once
	// attempts are exhausted
	PhaseFailed
)

func (p LoadPhase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrorKind classifies a load failure for retry purposes.
type ErrorKind int

const (
	// ErrorKindTransient covers resource-busy and momentary I/O failures;
	// retried automatically with backoff
	ErrorKindTransient ErrorKind = iota
	// ErrorKindPermanent covers unsupported content and missing resources
	// that the caller positively classified; retries are skipped
	ErrorKindPermanent
)

func (k ErrorKind) String() string {
	if k == ErrorKindPermanent {
		return "permanent"
	}
	return "transient"
}

// LoadStatus is a read-only view of one item's load state, surfaced to the
// presentation layer for rendering placeholders and failure badges.
type LoadStatus struct {
	Phase    LoadPhase
	Attempts int
	Terminal bool // Failed with attempts exhausted; waits for manual retry
}
