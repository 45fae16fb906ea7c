// File: cmd/diagnostic/store_diagnostic.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/iyunix/go-soliloquy/internal/config"
	"github.com/iyunix/go-soliloquy/internal/services"
	"github.com/iyunix/go-soliloquy/internal/store"
)

func main() {
	dbPath := flag.String("db", "", "database file to audit (defaults to DB_PATH)")
	asJSON := flag.Bool("json", false, "print violations as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	services.InitGlobalLogger(services.LogConfig{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	path := cfg.DBPath
	if *dbPath != "" {
		path = *dbPath
	}
	if _, err := os.Stat(path); err != nil {
		log.Fatal().Err(err).Str("db_path", path).Msg("database file not found")
	}

	st, err := store.Open(path, store.Options{Logger: services.NewLogger("store")})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	var violations []store.Violation
	err = RetryWithBackoff(context.Background(), DefaultRetryConfig(), func(ctx context.Context) error {
		var auditErr error
		violations, auditErr = st.Audit(ctx)
		return auditErr
	})
	if err != nil {
		log.Fatal().Err(err).Msg("audit failed")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(violations); err != nil {
			log.Fatal().Err(err).Msg("encode report")
		}
	} else {
		fmt.Printf("Audited %s\n", path)
		for _, v := range violations {
			fmt.Printf("  [%s] chat=%d message=%d %s\n", v.Kind, v.ChatID, v.MessageID, v.Detail)
		}
		fmt.Printf("%d violation(s) found\n", len(violations))
	}

	if err := st.Close(); err != nil {
		log.Error().Err(err).Msg("close database")
	}
	if len(violations) > 0 {
		os.Exit(1)
	}
}
