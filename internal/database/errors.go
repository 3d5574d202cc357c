package database

import (
	"fmt"
	"time"
)

// ConnectTimeoutError means the store file could not be reached within the
// configured budget. Fatal at startup; a process restart retries.
type ConnectTimeoutError struct {
	Path    string
	Timeout time.Duration
}

func (e *ConnectTimeoutError) Error() string {
	return fmt.Sprintf("store %s unreachable within %s", e.Path, e.Timeout)
}

// SchemaInitError means a migration body failed while bringing the schema
// forward. The connection is closed before this is returned, so a handle with
// a partially-applied schema is never handed out.
type SchemaInitError struct {
	Err error
}

func (e *SchemaInitError) Error() string {
	return fmt.Sprintf("schema initialization failed: %v", e.Err)
}

func (e *SchemaInitError) Unwrap() error {
	return e.Err
}
