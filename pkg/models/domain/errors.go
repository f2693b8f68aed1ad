package domain

import "errors"

var (
	// ErrInvalidShape signals a hardware shape outside the engine's contract.
	ErrInvalidShape = errors.New("invalid hardware shape")
	// ErrMissingProperty marks a tracked property absent from a cluster's configuration.
	ErrMissingProperty = errors.New("missing spark property")
	// ErrMalformedMemoryUnit marks a memory property with an unrecognized unit suffix.
	ErrMalformedMemoryUnit = errors.New("malformed memory unit")
	// ErrLookupMismatch is returned when no machine type matches a cluster's worker type.
	ErrLookupMismatch = errors.New("machine type lookup returned no match")
	// ErrPartialFailure is returned when at least one cluster of a run could not be evaluated.
	ErrPartialFailure = errors.New("one or more clusters failed evaluation")
)

// ClusterError reports a cluster that was listed but could not be described.
// Cluster holds whatever the listing returned, at least its name. Listing
// continues past it.
type ClusterError struct {
	Cluster Cluster
	Err     error
}

func (e *ClusterError) Error() string {
	return e.Err.Error()
}

func (e *ClusterError) Unwrap() error {
	return e.Err
}
