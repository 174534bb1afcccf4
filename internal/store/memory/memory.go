// Package memory is an in-process store implementation used for tests
// and self-contained development runs.
package memory

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

type account struct {
	user     core.SessionUser
	password string
}

type file struct {
	ownerID string
	name    string
	data    []byte
}

// Store keeps everything behind one mutex. It mirrors the remote
// service's client-side view: a single live session per process.
type Store struct {
	mu       sync.Mutex
	accounts map[string]account // keyed by email
	records  map[string]core.ExpenseRecord
	order    []string // record IDs in insertion order
	files    map[string]file
	session  string // account email of the live session, empty when logged out
}

func New() *Store {
	return &Store{
		accounts: make(map[string]account),
		records:  make(map[string]core.ExpenseRecord),
		files:    make(map[string]file),
	}
}

// CreateRecord implements store.RecordStore
func (s *Store) CreateRecord(_ context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ExpenseRecord{}, store.NewError(store.KindInvalid, "records.create", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = uuid.NewString()
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec, nil
}

// ListRecords implements store.RecordStore
func (s *Store) ListRecords(_ context.Context, ownerID string) ([]core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ExpenseRecord, 0)
	for _, id := range s.order {
		if rec, ok := s.records[id]; ok && rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// DeleteRecord implements store.RecordStore
func (s *Store) DeleteRecord(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return store.Errorf(store.KindNotFound, "records.delete", "record %s not found", id)
	}
	delete(s.records, id)
	return nil
}

// CreateAccount implements store.IdentityStore
func (s *Store) CreateAccount(_ context.Context, reg store.Registration) (core.SessionUser, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if email == "" || reg.Password == "" {
		return core.SessionUser{}, store.Errorf(store.KindInvalid, "account.create", "email and password are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[email]; ok {
		return core.SessionUser{}, store.Errorf(store.KindConflict, "account.create", "account %s already exists", email)
	}
	user := core.SessionUser{ID: uuid.NewString(), Name: reg.Name, Email: email}
	s.accounts[email] = account{user: user, password: reg.Password}
	return user, nil
}

// CreateSession implements store.IdentityStore
func (s *Store) CreateSession(_ context.Context, creds store.Credentials) error {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[email]
	if !ok || acc.password != creds.Password {
		return store.Errorf(store.KindUnauthorized, "session.create", "invalid credentials")
	}
	s.session = email
	return nil
}

// CurrentUser implements store.IdentityStore
func (s *Store) CurrentUser(_ context.Context) (core.SessionUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == "" {
		return core.SessionUser{}, store.Errorf(store.KindUnauthorized, "session.get", "no live session")
	}
	acc, ok := s.accounts[s.session]
	if !ok {
		return core.SessionUser{}, store.Errorf(store.KindUnauthorized, "session.get", "session account gone")
	}
	return acc.user, nil
}

// DeleteSession implements store.IdentityStore
func (s *Store) DeleteSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = ""
	return nil
}

// UploadFile implements store.FileStore
func (s *Store) UploadFile(_ context.Context, ownerID, name string, data io.Reader) (string, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return "", store.NewError(store.KindInvalid, "files.upload", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.files[id] = file{ownerID: ownerID, name: name, data: content}
	return id, nil
}

// FileURL implements store.FileStore. Files are held in this process,
// so the URL points back at the application's content route.
func (s *Store) FileURL(_ context.Context, ownerID, fileID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[fileID]; !ok || f.ownerID != ownerID {
		return "", store.Errorf(store.KindNotFound, "files.url", "file %s not found", fileID)
	}
	return "/api/receipts/" + fileID + "/content", nil
}

// ReadFile returns the stored bytes and name for one of the owner's
// files.
func (s *Store) ReadFile(_ context.Context, ownerID, fileID string) (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok || f.ownerID != ownerID {
		return "", nil, store.Errorf(store.KindNotFound, "files.read", "file %s not found", fileID)
	}
	return f.name, f.data, nil
}

// DeleteFile implements store.FileStore
func (s *Store) DeleteFile(_ context.Context, ownerID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[fileID]; !ok || f.ownerID != ownerID {
		return store.Errorf(store.KindNotFound, "files.delete", "file %s not found", fileID)
	}
	delete(s.files, fileID)
	return nil
}
