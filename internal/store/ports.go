// Package store defines the ports to the remote data service holding
// records, sessions and receipt files, together with the error kinds
// its adapters report. The service itself is an opaque dependency; the
// adapters under this package are thin wrappers around it.
package store

import (
	"context"
	"io"

	"expensetracker/internal/core"
)

// Credentials identify an account for session creation.
type Credentials struct {
	Email    string
	Password string
}

// Registration carries the fields needed to create a new account.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// Ports for outbound adapters.
type (
	// RecordStore persists expense records.
	RecordStore interface {
		// CreateRecord stores a record and returns it with its assigned ID.
		CreateRecord(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error)

		// ListRecords returns all records owned by the given user.
		ListRecords(ctx context.Context, ownerID string) ([]core.ExpenseRecord, error)

		// DeleteRecord removes one of the owner's records. A record
		// belonging to someone else is reported as not found.
		DeleteRecord(ctx context.Context, ownerID, id string) error
	}

	// IdentityStore manages accounts and the single live session.
	IdentityStore interface {
		CreateAccount(ctx context.Context, reg Registration) (core.SessionUser, error)

		// CreateSession authenticates and establishes the live session.
		CreateSession(ctx context.Context, creds Credentials) error

		// CurrentUser resolves the identity behind the live session. A
		// KindUnauthorized error means no valid session exists.
		CurrentUser(ctx context.Context) (core.SessionUser, error)

		DeleteSession(ctx context.Context) error
	}

	// FileStore holds receipt images. Every operation is scoped to the
	// owning user; another owner's file is reported as not found.
	FileStore interface {
		// UploadFile stores a file for the owner and returns its
		// assigned reference.
		UploadFile(ctx context.Context, ownerID, name string, data io.Reader) (string, error)

		// FileURL returns a URL from which the stored file can be viewed.
		FileURL(ctx context.Context, ownerID, fileID string) (string, error)

		DeleteFile(ctx context.Context, ownerID, fileID string) error
	}
)

// Store is a backend providing all three ports.
type Store interface {
	RecordStore
	IdentityStore
	FileStore
}
