package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"media-gallery/internal/database"
	"media-gallery/internal/pipeline"
	"media-gallery/internal/raster"
)

const (
	// Default database directory path
	defaultDatabaseDir = "/database"
	// Default cache directory path
	defaultCacheDir = "/cache"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	dbPath := filepath.Join(databaseDir, "gallery.db")

	if err := raster.InitVips(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: libvips unavailable: %v\n", err)
	}
	defer raster.ShutdownVips()

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	pipe, err := pipeline.New(db, filepath.Join(cacheDir, "thumbnails"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize pipeline: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "asset":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: regen asset <id>")
			os.Exit(1)
		}
		id, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil || id < 1 {
			fmt.Fprintf(os.Stderr, "Invalid asset id: %s\n", sanitizeArg(os.Args[2]))
			os.Exit(1)
		}
		if !regenAsset(ctx, pipe, id) {
			os.Exit(1)
		}
	case "all":
		if !regenAll(ctx, db, pipe) {
			os.Exit(1)
		}
	case "status":
		showStatus(ctx, db)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeArg(command))
		printUsage()
		os.Exit(1)
	}
}

// sanitizeArg returns a safe representation of a user argument for display.
// It uses an allowlist approach, replacing any character that is not
// alphanumeric, a hyphen, or an underscore with '_'.
func sanitizeArg(arg string) string {
	var b strings.Builder
	b.Grow(len(arg))
	for _, r := range arg {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Media Gallery Derived-Asset Regeneration")
	fmt.Println("")
	fmt.Println("Usage: regen <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  asset <id> - Regenerate metadata, thumbnails, and blur hash for one asset")
	fmt.Println("  all        - Regenerate derived assets for every tracked file")
	fmt.Println("  status     - Show asset counts")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
	fmt.Printf("  CACHE_DIR    - Path to cache directory (default: %s)\n", defaultCacheDir)
}

func regenAsset(ctx context.Context, pipe *pipeline.Pipeline, id int64) bool {
	fmt.Printf("Regenerating asset %d...\n", id)
	if err := pipe.Refresh(ctx, id); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	fmt.Println("Done.")
	return true
}

func regenAll(ctx context.Context, db *database.Database, pipe *pipeline.Pipeline) bool {
	assets, err := db.ListAssets(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list assets: %v\n", err)
		return false
	}

	fmt.Printf("Regenerating %d asset(s)...\n", len(assets))

	failures := 0
	for _, asset := range assets {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return false
		}
		if err := pipe.Refresh(ctx, asset.ID); err != nil {
			fmt.Fprintf(os.Stderr, "  asset %d (%s): %v\n", asset.ID, asset.Filename, err)
			failures++
		}
	}

	if failures > 0 {
		fmt.Printf("Done with %d failure(s).\n", failures)
		return false
	}
	fmt.Println("Done.")
	return true
}

func showStatus(ctx context.Context, db *database.Database) {
	count, err := db.CountAssets(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	assets, err := db.ListAssets(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	withThumbs := 0
	withBlur := 0
	for _, asset := range assets {
		if len(asset.Thumbnails) == len(database.SizeNames) {
			withThumbs++
		}
		if asset.BlurHash != "" {
			withBlur++
		}
	}

	fmt.Printf("Assets:            %d\n", count)
	fmt.Printf("Full thumbnails:   %d\n", withThumbs)
	fmt.Printf("Blur hashes:       %d\n", withBlur)
}
