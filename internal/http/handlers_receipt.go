package http

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

const maxReceiptBytes = 10 << 20 // 10 MiB per upload

type receiptResponse struct {
	ID string `json:"id"`
}

type receiptURLResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes)
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer file.Close()

	id, err := s.expenses.UploadReceipt(r.Context(), user.ID, header.Filename, file)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "receipt uploaded",
		applog.FieldOperation, applog.OpUpload,
		applog.FieldFileID, id)
	writeJSON(w, http.StatusCreated, receiptResponse{ID: id})
}

func (s *Server) handleReceiptURL(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	id := r.PathValue("id")
	url, err := s.expenses.ReceiptURL(r.Context(), user.ID, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptURLResponse{URL: url})
}

// handleReceiptContent serves receipt bytes held by local backends.
// Backends that only store receipts remotely redirect to the view URL.
func (s *Server) handleReceiptContent(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	id := r.PathValue("id")

	name, content, err := s.expenses.ReceiptContent(r.Context(), user.ID, id)
	if errors.Is(err, services.ErrRemoteReceipt) {
		url, err := s.expenses.ReceiptURL(r.Context(), user.ID, id)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(content)
	}
	w.Header().Set("Content-Type", ctype)
	_, _ = w.Write(content)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	id := r.PathValue("id")
	if err := s.expenses.DeleteReceipt(r.Context(), user.ID, id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "receipt deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldFileID, id)
	w.WriteHeader(http.StatusNoContent)
}
