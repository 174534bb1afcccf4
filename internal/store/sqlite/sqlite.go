// Package sqlite is a self-hosted store backed by a local SQLite file.
// It offers the same ports as the remote backend so the rest of the
// application cannot tell the two apart.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/core"
	"expensetracker/internal/store"

	_ "modernc.org/sqlite"
)

// Store wraps one SQLite database. The live session is process-local
// state, matching the single-session semantics of the remote backend.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	session string // account id of the live session
}

// Open creates the database file if needed, runs migrations and
// returns a ready store.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRecord implements store.RecordStore
func (s *Store) CreateRecord(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	const op = "records.create"
	if err := rec.Validate(); err != nil {
		return core.ExpenseRecord{}, store.NewError(store.KindInvalid, op, err)
	}
	rec.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, amount_cents, category, description, date, owner_id, receipt_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Amount.Cents, rec.Category.String(), rec.Description,
		rec.Date.String(), rec.OwnerID, rec.ReceiptID)
	if err != nil {
		return core.ExpenseRecord{}, store.NewError(store.KindUnavailable, op, err)
	}
	return rec, nil
}

// ListRecords implements store.RecordStore
func (s *Store) ListRecords(ctx context.Context, ownerID string) ([]core.ExpenseRecord, error) {
	const op = "records.list"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount_cents, category, description, date, owner_id, receipt_id
		 FROM records WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, store.NewError(store.KindUnavailable, op, err)
	}
	defer rows.Close()

	out := make([]core.ExpenseRecord, 0)
	for rows.Next() {
		var rec core.ExpenseRecord
		var date string
		if err := rows.Scan(&rec.ID, &rec.Amount.Cents, &rec.Category, &rec.Description,
			&date, &rec.OwnerID, &rec.ReceiptID); err != nil {
			return nil, store.NewError(store.KindUnknown, op, err)
		}
		// A row with a mangled date is kept with the zero date rather
		// than poisoning the whole listing.
		if parsed, err := core.ParseDate(date); err == nil {
			rec.Date = parsed
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewError(store.KindUnavailable, op, err)
	}
	return out, nil
}

// DeleteRecord implements store.RecordStore. The owner scope makes a
// foreign record indistinguishable from a missing one.
func (s *Store) DeleteRecord(ctx context.Context, ownerID, id string) error {
	const op = "records.delete"
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return store.NewError(store.KindUnavailable, op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.Errorf(store.KindNotFound, op, "record %s not found", id)
	}
	return nil
}

// CreateAccount implements store.IdentityStore
func (s *Store) CreateAccount(ctx context.Context, reg store.Registration) (core.SessionUser, error) {
	const op = "account.create"
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if email == "" || reg.Password == "" {
		return core.SessionUser{}, store.Errorf(store.KindInvalid, op, "email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return core.SessionUser{}, store.NewError(store.KindUnknown, op, err)
	}

	user := core.SessionUser{ID: uuid.NewString(), Name: reg.Name, Email: email}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return core.SessionUser{}, store.Errorf(store.KindConflict, op, "account %s already exists", email)
		}
		return core.SessionUser{}, store.NewError(store.KindUnavailable, op, err)
	}
	return user, nil
}

// CreateSession implements store.IdentityStore
func (s *Store) CreateSession(ctx context.Context, creds store.Credentials) error {
	const op = "session.create"
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	var id, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM accounts WHERE email = ?`, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Errorf(store.KindUnauthorized, op, "invalid credentials")
	}
	if err != nil {
		return store.NewError(store.KindUnavailable, op, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)) != nil {
		return store.Errorf(store.KindUnauthorized, op, "invalid credentials")
	}

	s.mu.Lock()
	s.session = id
	s.mu.Unlock()
	return nil
}

// CurrentUser implements store.IdentityStore
func (s *Store) CurrentUser(ctx context.Context) (core.SessionUser, error) {
	const op = "session.get"
	s.mu.Lock()
	id := s.session
	s.mu.Unlock()
	if id == "" {
		return core.SessionUser{}, store.Errorf(store.KindUnauthorized, op, "no live session")
	}

	var user core.SessionUser
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM accounts WHERE id = ?`, id).
		Scan(&user.ID, &user.Name, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SessionUser{}, store.Errorf(store.KindUnauthorized, op, "session account gone")
	}
	if err != nil {
		return core.SessionUser{}, store.NewError(store.KindUnavailable, op, err)
	}
	return user, nil
}

// DeleteSession implements store.IdentityStore
func (s *Store) DeleteSession(_ context.Context) error {
	s.mu.Lock()
	s.session = ""
	s.mu.Unlock()
	return nil
}

// UploadFile implements store.FileStore
func (s *Store) UploadFile(ctx context.Context, ownerID, name string, data io.Reader) (string, error) {
	const op = "files.upload"
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", store.NewError(store.KindInvalid, op, err)
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, owner_id, name, content) VALUES (?, ?, ?, ?)`,
		id, ownerID, name, buf.Bytes())
	if err != nil {
		return "", store.NewError(store.KindUnavailable, op, err)
	}
	return id, nil
}

// FileURL implements store.FileStore. Local files are addressed by an
// application-relative path served by the HTTP layer.
func (s *Store) FileURL(ctx context.Context, ownerID, fileID string) (string, error) {
	const op = "files.url"
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM files WHERE id = ? AND owner_id = ?`, fileID, ownerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.Errorf(store.KindNotFound, op, "file %s not found", fileID)
	}
	if err != nil {
		return "", store.NewError(store.KindUnavailable, op, err)
	}
	return "/api/receipts/" + fileID + "/content", nil
}

// ReadFile returns the stored bytes and name for one of the owner's
// files. The HTTP layer uses it to serve the URLs FileURL hands out.
func (s *Store) ReadFile(ctx context.Context, ownerID, fileID string) (string, []byte, error) {
	const op = "files.read"
	var name string
	var content []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT name, content FROM files WHERE id = ? AND owner_id = ?`, fileID, ownerID).
		Scan(&name, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, store.Errorf(store.KindNotFound, op, "file %s not found", fileID)
	}
	if err != nil {
		return "", nil, store.NewError(store.KindUnavailable, op, err)
	}
	return name, content, nil
}

// DeleteFile implements store.FileStore
func (s *Store) DeleteFile(ctx context.Context, ownerID, fileID string) error {
	const op = "files.delete"
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ? AND owner_id = ?`, fileID, ownerID)
	if err != nil {
		return store.NewError(store.KindUnavailable, op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.Errorf(store.KindNotFound, op, "file %s not found", fileID)
	}
	return nil
}
