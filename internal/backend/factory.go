package backend

import (
	"fmt"
	"log/slog"

	"expensetracker/internal/store"
	"expensetracker/internal/store/appwrite"
	"expensetracker/internal/store/memory"
	"expensetracker/internal/store/sqlite"
)

// Result is an opened backend plus the hook to release it.
type Result struct {
	Store   store.Store
	Cleanup func() error
}

// Open builds the store named by cfg.Type. The returned cleanup is
// never nil.
func Open(cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		return openSQLite(cfg, logger)
	case AppwriteBackend:
		return openAppwrite(cfg, logger)
	case MemoryBackend:
		logger.Info("initialized memory backend")
		return &Result{Store: memory.New(), Cleanup: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func openSQLite(cfg Config, logger *slog.Logger) (*Result, error) {
	s, err := sqlite.Open(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}
	logger.Info("initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: s, Cleanup: s.Close}, nil
}

func openAppwrite(cfg Config, logger *slog.Logger) (*Result, error) {
	c, err := appwrite.NewClient(cfg.Appwrite, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize appwrite client: %w", err)
	}
	logger.Info("initialized appwrite backend",
		"endpoint", cfg.Appwrite.Endpoint,
		"project", cfg.Appwrite.ProjectID)
	return &Result{Store: c, Cleanup: func() error { return nil }}, nil
}
