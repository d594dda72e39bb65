// cmd/notelink-mcp is the entry point for the Notelink MCP (Model
// Context Protocol) server. It builds the entity index from the vault,
// opens the feedback store, and serves link suggestion tools over
// line-delimited JSON-RPC 2.0 on stdin/stdout.
//
// Startup sequence:
//  1. Load configuration from environment variables.
//  2. Open the feedback store (SQLite by default, Postgres optional)
//     behind a write circuit breaker.
//  3. Create the LinkEngine and load persisted feedback state.
//  4. Scan the vault and build the first index generation.
//  5. Start the vault watcher so edits trigger coalesced rebuilds.
//  6. Serve JSON-RPC 2.0 requests from stdin, writing responses to stdout.
//
// CRITICAL: ALL logging MUST go to stderr. Any bytes written to stdout
// that are not valid JSON-RPC 2.0 response frames will corrupt the
// protocol.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/velvetmonkey/notelink/internal/api/mcp"
	"github.com/velvetmonkey/notelink/internal/config"
	"github.com/velvetmonkey/notelink/internal/engine"
	"github.com/velvetmonkey/notelink/internal/notify"
	"github.com/velvetmonkey/notelink/internal/storage"
	"github.com/velvetmonkey/notelink/internal/storage/postgres"
	"github.com/velvetmonkey/notelink/internal/storage/sqlite"
	"github.com/velvetmonkey/notelink/internal/vault"
)

// openStore opens the configured feedback store backend.
func openStore(cfg *config.Config) (storage.FeedbackStore, error) {
	switch cfg.Storage.StorageEngine {
	case "postgres":
		return postgres.NewFeedbackStore(cfg.Storage.PostgresDSN)
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory %q: %w", cfg.Storage.DataPath, err)
		}
		return sqlite.NewFeedbackStore(filepath.Join(cfg.Storage.DataPath, "notelink.db"))
	}
}

func main() {
	// Redirect the default logger to stderr so that any incidental log
	// calls (e.g. from imported packages) never pollute the stdout
	// JSON-RPC stream.
	log.SetOutput(os.Stderr)
	log.SetPrefix("notelink-mcp: ")
	log.SetFlags(log.LstdFlags)

	// Load configuration from environment variables.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	rawStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open feedback store: %v", err)
	}
	store := storage.NewBreakerStore(rawStore)
	defer store.Close()

	// Set up a root context that is cancelled on SIGINT / SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received shutdown signal")
		cancel()
	}()

	eng, err := engine.New(ctx, cfg, store)
	if err != nil {
		log.Fatalf("failed to create link engine: %v", err)
	}

	// rebuild scans the vault and swaps in a fresh generation. It is
	// shared between startup, the watcher, and the rebuild_index tool.
	rebuild := func(ctx context.Context) (int, error) {
		docs, err := vault.Load(cfg.Vault.Path)
		if err != nil {
			return 0, err
		}
		if err := eng.Rebuild(ctx, docs); err != nil {
			return 0, err
		}
		return len(docs), nil
	}

	// Build the first generation. A missing or empty vault is fatal at
	// startup: the server would have nothing to suggest.
	if _, err := rebuild(ctx); err != nil {
		log.Fatalf("failed to build initial index from %q: %v", cfg.Vault.Path, err)
	}

	// Watch the vault so edits trigger coalesced rebuilds in the
	// background. Rebuild failures keep the previous generation live.
	watcher := notify.NewVaultWatcher(cfg.Vault.Path, cfg.Watcher, func() {
		if _, err := rebuild(ctx); err != nil {
			log.Printf("background rebuild failed: %v", err)
		}
	})
	if err := watcher.Start(); err != nil {
		log.Printf("warning: vault watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	srv := mcp.NewServer(eng,
		mcp.WithConfig(cfg),
		mcp.WithRebuildFunc(rebuild),
	)

	// Wrap the server in a StdioTransport that reads line-delimited
	// JSON-RPC from stdin and writes responses to stdout. All logging
	// inside the transport is directed to stderr.
	transport := mcp.NewStdioTransport(srv, os.Stdin, os.Stdout)

	log.Println("ready, serving JSON-RPC 2.0 on stdin/stdout")

	if err := transport.Serve(ctx); err != nil {
		// A non-nil error here is normal (context cancellation) or
		// indicates a fatal stdin/stdout problem. Either way it is
		// informational only.
		log.Printf("transport stopped: %v", err)
	}
}
