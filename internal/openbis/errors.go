package openbis

import (
	"errors"
	"fmt"
)

// ConnectionError indicates the catalog server could not be reached or
// returned a transport-level failure. The operation name and server URL are
// carried for caller-side logging.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed during %s to %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError indicates a missing, invalid, or expired session token.
type AuthError struct {
	Op string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed during %s: session token missing, invalid, or expired", e.Op)
}

// NotFoundError indicates the requested catalog object does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// LinkError reports that a specific parent id could not be linked to a
// dataset. Links are written one parent at a time, so a LinkError always
// identifies exactly one failed parent.
type LinkError struct {
	DatasetID string
	ParentID  string
	Err       error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("linking parent %q to dataset %q failed: %v", e.ParentID, e.DatasetID, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// IsConnection checks if an error is a ConnectionError
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsAuth checks if an error is an AuthError
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsLink checks if an error is a LinkError
func IsLink(err error) bool {
	var le *LinkError
	return errors.As(err, &le)
}
