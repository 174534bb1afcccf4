// Command register creates an account on the configured backend from
// the command line, for setting up a deployment before first login.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/store"
	"expensetracker/internal/store/appwrite"
)

func main() {
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "account email (required)")
	password := flag.String("password", "", "account password (required)")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: register -email EMAIL -password PASSWORD [-name NAME]")
		os.Exit(2)
	}

	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}

	result, err := backend.Open(backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		Appwrite: appwrite.Config{
			Endpoint:     cfg.AppwriteEndpoint,
			ProjectID:    cfg.AppwriteProjectID,
			DatabaseID:   cfg.AppwriteDatabaseID,
			CollectionID: cfg.AppwriteCollectionID,
			BucketID:     cfg.AppwriteBucketID,
		},
	}, logger.Logger)
	if err != nil {
		logger.Error("failed to open backend", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer result.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := result.Store.CreateAccount(ctx, store.Registration{
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		logger.Error("account creation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	fmt.Printf("created account %s (%s)\n", user.Email, user.ID)
}
