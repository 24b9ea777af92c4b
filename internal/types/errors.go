package types

import "fmt"

// NetworkError indicates a transient connection or timeout failure
// talking to the planet server. Retry policy lives with the caller.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InvalidArtifactError indicates fetched planet content failed sanity
// checks. It is not retried further within the same cycle.
type InvalidArtifactError struct {
	Reason string
	Size   int64
}

func (e *InvalidArtifactError) Error() string {
	return fmt.Sprintf("invalid planet artifact (%d bytes): %s", e.Size, e.Reason)
}

// PermissionError indicates the process lacks rights to write the
// target directory or control the service. Fatal for the cycle and
// actionable by the operator (typically: run with elevated privileges).
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied for %s (try running as administrator/root): %v", e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// ServiceTimeoutError indicates the service did not stop or start
// within the configured bound. Triggers the rollback path.
type ServiceTimeoutError struct {
	Op      string // "stop", "start", "restart"
	Service string
	Err     error
}

func (e *ServiceTimeoutError) Error() string {
	return fmt.Sprintf("service %s: %s did not complete in time: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceTimeoutError) Unwrap() error { return e.Err }

// StateCorruptionError indicates the cached state file was present but
// unreadable. Treated as absence (bootstrap), logged as a warning.
type StateCorruptionError struct {
	Path string
	Err  error
}

func (e *StateCorruptionError) Error() string {
	return fmt.Sprintf("cached state %s unreadable, treating as absent: %v", e.Path, e.Err)
}

func (e *StateCorruptionError) Unwrap() error { return e.Err }
