// Package appwrite talks to a remote Appwrite deployment over its REST
// API. It implements all three store ports: documents for records,
// account sessions for identity and a storage bucket for receipts.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/store"
)

// Config holds the coordinates of one Appwrite project.
type Config struct {
	Endpoint     string // e.g. https://cloud.appwrite.io/v1
	ProjectID    string
	DatabaseID   string
	CollectionID string
	BucketID     string
}

func (c Config) validate() error {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if c.ProjectID == "" {
		missing = append(missing, "project id")
	}
	if c.DatabaseID == "" {
		missing = append(missing, "database id")
	}
	if c.CollectionID == "" {
		missing = append(missing, "collection id")
	}
	if c.BucketID == "" {
		missing = append(missing, "bucket id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("appwrite config missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Client is a thin wrapper around the Appwrite HTTP API. It keeps the
// secret of the one live session and replays it on every request.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	mu     sync.Mutex
	secret string // session secret, empty when logged out
}

// NewClient validates cfg and returns a client. A nil logger falls
// back to the default slog logger.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}, nil
}

func (c *Client) sessionSecret() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secret
}

func (c *Client) setSessionSecret(secret string) {
	c.mu.Lock()
	c.secret = secret
	c.mu.Unlock()
}

// do sends one API request and decodes the JSON response into out when
// out is non-nil. Non-2xx responses become classified store errors.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Endpoint+path, body)
	if err != nil {
		return store.NewError(store.KindUnknown, op, err)
	}
	req.Header.Set("X-Appwrite-Project", c.cfg.ProjectID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if secret := c.sessionSecret(); secret != "" {
		req.Header.Set("X-Appwrite-Session", secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return store.NewError(store.KindUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return store.Errorf(store.KindUnknown, op, "decoding response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return store.NewError(store.KindUnknown, op, err)
		}
		body = bytes.NewReader(raw)
	}
	return c.do(ctx, op, method, path, body, "application/json", out)
}

// apiError maps an Appwrite failure response onto a store error kind.
func (c *Client) apiError(op string, resp *http.Response) error {
	var apiErr struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	var kind store.Kind
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = store.KindUnauthorized
	case http.StatusTooManyRequests:
		kind = store.KindRateLimited
	case http.StatusConflict:
		kind = store.KindConflict
	case http.StatusNotFound:
		kind = store.KindNotFound
	case http.StatusBadRequest:
		kind = store.KindInvalid
	default:
		kind = store.KindUnavailable
	}
	return store.Errorf(kind, op, "appwrite %d: %s", resp.StatusCode, apiErr.Message)
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func queryEqual(attribute string, value string) string {
	q := map[string]any{
		"method":    "equal",
		"attribute": attribute,
		"values":    []string{value},
	}
	raw, _ := json.Marshal(q)
	return string(raw)
}

func escapeFileName(name string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, `\"`).Replace(name)
}

func multipartFile(name string, data io.Reader, fileID string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("fileId", fileID); err != nil {
		return nil, "", err
	}
	part, err := w.CreateFormFile("file", escapeFileName(name))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func pathEscape(s string) string {
	return url.PathEscape(s)
}
