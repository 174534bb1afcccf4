// Package backend selects and assembles the concrete store
// implementation behind the store ports.
package backend

import (
	"fmt"

	"expensetracker/internal/store/appwrite"
)

// Type names one of the supported store backends.
type Type string

const (
	AppwriteBackend Type = "appwrite"
	SQLiteBackend   Type = "sqlite"
	MemoryBackend   Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid checks whether the backend type is one we support.
func (t Type) IsValid() bool {
	switch t {
	case AppwriteBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{AppwriteBackend, SQLiteBackend, MemoryBackend}
}

// Config carries everything needed to open any backend. Only the
// fields of the selected type are consulted.
type Config struct {
	Type Type

	// SQLite configuration
	SQLiteDBPath string

	// Appwrite configuration
	Appwrite appwrite.Config
}

// Validate checks that the selected backend has the fields it needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %q", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case AppwriteBackend:
		if c.Appwrite.Endpoint == "" || c.Appwrite.ProjectID == "" {
			return fmt.Errorf("Appwrite endpoint and project id are required for appwrite backend")
		}
	case MemoryBackend:
		// Nothing to validate.
	}

	return nil
}
