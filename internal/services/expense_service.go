// Package services orchestrates store operations that span more than
// one port.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"expensetracker/internal/core"
	"expensetracker/internal/events"
	"expensetracker/internal/store"
)

// ErrRemoteReceipt reports that the configured backend keeps receipt
// bytes on the remote service, so content must be fetched from the
// file URL instead of through this process.
var ErrRemoteReceipt = errors.New("receipt content is stored remotely")

// fileContentReader is implemented by backends that hold receipt bytes
// locally and can serve them through this process.
type fileContentReader interface {
	ReadFile(ctx context.Context, ownerID, fileID string) (string, []byte, error)
}

// ExpenseService coordinates records, receipt files and change
// events. The events publisher is optional; record operations never
// fail because a notification could not be delivered.
type ExpenseService struct {
	records   store.RecordStore
	files     store.FileStore
	publisher *events.Publisher
}

func NewExpenseService(records store.RecordStore, files store.FileStore, publisher *events.Publisher) *ExpenseService {
	return &ExpenseService{
		records:   records,
		files:     files,
		publisher: publisher,
	}
}

// Create validates and stores a record, then announces it.
func (s *ExpenseService) Create(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ExpenseRecord{}, store.NewError(store.KindInvalid, "records.create", err)
	}

	created, err := s.records.CreateRecord(ctx, rec)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("create record: %w", err)
	}

	if err := s.publishCreated(ctx, created); err != nil {
		slog.ErrorContext(ctx, "failed to publish record event",
			"record_id", created.ID, "error", err)
		// The record is stored; notification delivery is best effort.
	}
	return created, nil
}

// List returns every record owned by the given user.
func (s *ExpenseService) List(ctx context.Context, ownerID string) ([]core.ExpenseRecord, error) {
	records, err := s.records.ListRecords(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Delete removes one of the owner's records and announces the
// removal. Records of other owners are reported as not found.
func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.records.DeleteRecord(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	if err := s.publishDeleted(ctx, id, ownerID); err != nil {
		slog.ErrorContext(ctx, "failed to publish record event",
			"record_id", id, "error", err)
	}
	return nil
}

// UploadReceipt stores a receipt image for the owner and returns its
// reference.
func (s *ExpenseService) UploadReceipt(ctx context.Context, ownerID, name string, data io.Reader) (string, error) {
	id, err := s.files.UploadFile(ctx, ownerID, name, data)
	if err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	return id, nil
}

// ReceiptURL returns a viewable URL for one of the owner's receipts.
func (s *ExpenseService) ReceiptURL(ctx context.Context, ownerID, fileID string) (string, error) {
	url, err := s.files.FileURL(ctx, ownerID, fileID)
	if err != nil {
		return "", fmt.Errorf("receipt url: %w", err)
	}
	return url, nil
}

// ReceiptContent returns the name and bytes of one of the owner's
// receipts when the backend holds them locally, and ErrRemoteReceipt
// when only the remote service can serve them.
func (s *ExpenseService) ReceiptContent(ctx context.Context, ownerID, fileID string) (string, []byte, error) {
	reader, ok := s.files.(fileContentReader)
	if !ok {
		return "", nil, ErrRemoteReceipt
	}
	name, content, err := reader.ReadFile(ctx, ownerID, fileID)
	if err != nil {
		return "", nil, fmt.Errorf("receipt content: %w", err)
	}
	return name, content, nil
}

// DeleteReceipt removes one of the owner's receipts.
func (s *ExpenseService) DeleteReceipt(ctx context.Context, ownerID, fileID string) error {
	if err := s.files.DeleteFile(ctx, ownerID, fileID); err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}

func (s *ExpenseService) publishCreated(ctx context.Context, rec core.ExpenseRecord) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishRecordCreated(ctx, rec.ID, rec.OwnerID)
}

func (s *ExpenseService) publishDeleted(ctx context.Context, id, ownerID string) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishRecordDeleted(ctx, id, ownerID)
}
