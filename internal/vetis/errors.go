package vetis

import (
	"errors"
	"fmt"
)

// Error taxonomy of the synchronization engine. Every fatal error surfaced to
// the job dispatcher is one of these kinds; callers distinguish them with
// errors.As / errors.Is.

// TransportError means all connection attempts to a registry endpoint failed.
type TransportError struct {
	Action   string
	Endpoint string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vetis: %s: endpoint %s unreachable after %d attempts: %v",
		e.Action, e.Endpoint, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means the registry answered but refused or failed the
// operation: a non-2xx HTTP status, a rejected application, or a two-phase
// job that never completed within the poll budget.
type ProtocolError struct {
	Action string
	Status string // HTTP status or application status, whichever applies
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("vetis: %s: registry returned %s", e.Action, e.Status)
	}
	return fmt.Sprintf("vetis: %s: registry returned %s: %s", e.Action, e.Status, e.Detail)
}

// MappingError means a response did not have the expected XML shape:
// a required element is missing, a value failed to parse, or a document
// turned out to be of an unrecognized subtype.
type MappingError struct {
	Action string
	Detail string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("vetis: %s: unexpected response shape: %s", e.Action, e.Detail)
}

// ErrNotResolvable marks a head record whose lineage cannot be derived yet
// (missing history or missing document reference). Non-fatal: the workflow
// counts it as deferred and a later pass retries.
var ErrNotResolvable = errors.New("vetis: lineage not resolvable yet")

// ErrAuthMismatch is returned when a ledger record does not belong to the
// organization of the supplied credentials.
var ErrAuthMismatch = errors.New("vetis: record does not belong to the credentials' organization")

func mappingErr(action, format string, args ...any) error {
	return &MappingError{Action: action, Detail: fmt.Sprintf(format, args...)}
}
