package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/borellim/bandkit/internal/api"
	"github.com/borellim/bandkit/internal/archive"
	"github.com/borellim/bandkit/internal/config"
	"github.com/borellim/bandkit/internal/ingest"
	"github.com/borellim/bandkit/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to JSON config file (default: bandkit.json if present)")
	listen      = flag.String("listen", "", "Listen address (overrides config)")
	dbPath      = flag.String("db", "", "Path to archive database (overrides config)")
	ingestDir   = flag.String("ingest-dir", "", "Directory to watch for band structure documents (overrides config)")
	enableAdmin = flag.Bool("admin", false, "Enable the admin SQL console and backup endpoint")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	cfg := config.EmptyServerConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadServerConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
	} else if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		cfg, err = config.LoadServerConfig(config.DefaultConfigPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", config.DefaultConfigPath, err)
		}
	}

	// Flags beat the config file.
	if *listen != "" {
		cfg.ListenAddr = listen
	}
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}
	if *ingestDir != "" {
		cfg.IngestDir = ingestDir
	}
	if *enableAdmin {
		cfg.EnableAdmin = enableAdmin
	}

	a, err := archive.Open(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer a.Close()

	if needsMigration, err := a.CheckAndPromptMigrations(); err != nil {
		log.Fatalf("Migration check failed: %v", err)
	} else if needsMigration {
		os.Exit(1)
	}

	server, err := api.NewWebServer(api.WebServerConfig{
		Addr:        cfg.GetListenAddr(),
		Archive:     a,
		EnableAdmin: cfg.GetEnableAdmin(),
		DBPath:      cfg.GetDBPath(),
	})
	if err != nil {
		log.Fatalf("Failed to create web server: %v", err)
	}
	defer server.Close()

	// Create a wait group for the HTTP server and ingest watcher routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the HTTP server routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("web server error: %v", err)
		}
	}()
	log.Printf("bandkit %s serving on %s (database %s)", version.Version, cfg.GetListenAddr(), cfg.GetDBPath())

	// watch the ingest directory for dropped documents when configured
	if dir := cfg.GetIngestDir(); dir != "" {
		watcher := ingest.NewWatcher(dir, a.Nodes(), cfg.GetDefaultUserEmail())
		watcher.Debounce = cfg.GetIngestDebounce()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to watch ingest directory: %v", err)
			}
			log.Print("ingest watcher routine terminated")
		}()
	}

	wg.Wait()
	log.Println("Graceful shutdown complete")
}
