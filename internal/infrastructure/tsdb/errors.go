package tsdb

import "errors"

// Sentinel errors for registry operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, tsdb.ErrAlreadyAssigned) {
//	    // Metric was registered previously; treat as success.
//	}
var (
	// ErrNotConnected indicates the client is not connected to the registry.
	ErrNotConnected = errors.New("tsdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("tsdb: connection failed")

	// ErrAssignFailed indicates a metric assignment failed.
	ErrAssignFailed = errors.New("tsdb: assign failed")

	// ErrAlreadyAssigned indicates the metric name already has a UID.
	// Callers that only need the name to exist treat this as success.
	ErrAlreadyAssigned = errors.New("tsdb: metric already assigned")

	// ErrInvalidMetric indicates an empty or invalid metric name.
	ErrInvalidMetric = errors.New("tsdb: metric name cannot be empty")
)
