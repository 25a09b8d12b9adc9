// Command domreplay reconstructs captured layout-mutation sessions.
//
// Usage:
//
//	domreplay -input session.jsonl                  # replay to stdout
//	domreplay -input session.jsonl -out page.html   # replay to a file
//	domreplay -input session.jsonl -db replay.db    # replay into the archive
//	domreplay -db replay.db -serve :8480            # serve archived replays
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Microsoft/clarity-tools/export"
	"github.com/Microsoft/clarity-tools/replay/player"
	"github.com/Microsoft/clarity-tools/viewer"
)

func main() {
	configPath := flag.String("config", "", "path to domreplay.yaml config file")
	inputPath := flag.String("input", "", "JSON-lines session file to replay (\"-\" for stdin)")
	outPath := flag.String("out", "", "write the final reconstructed HTML here (default stdout)")
	dbPath := flag.String("db", "", "replay archive database path")
	serveAddr := flag.String("serve", "", "serve the viewer on this address (requires -db)")
	thumbnail := flag.Bool("thumbnail", false, "thumbnail-mode reconstruction")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *inputPath, *outPath, *dbPath, *serveAddr, *thumbnail); err != nil {
		logger.Error("domreplay: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, inputPath, outPath, dbPath, serveAddr string, thumbnail bool) error {
	cfg := &player.Config{}
	if configPath != "" {
		loaded, err := player.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if thumbnail {
		cfg.Thumbnail = true
	}

	if inputPath == "" && serveAddr == "" {
		fmt.Fprintln(os.Stderr, "usage: domreplay -input <file> [-out <file>] [-db <file>] | -db <file> -serve <addr>")
		os.Exit(1)
	}

	p, err := player.New(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	if inputPath != "" {
		if err := replayInput(ctx, logger, p, inputPath, outPath); err != nil {
			return err
		}
	}

	if serveAddr != "" {
		return serve(ctx, logger, p, serveAddr)
	}
	return nil
}

func replayInput(ctx context.Context, logger *slog.Logger, p *player.Player, inputPath, outPath string) error {
	in := os.Stdin
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	if err := p.ReplayStream(ctx, in); err != nil {
		return err
	}
	logger.Info("domreplay: stream replayed", "session_id", p.SessionID())

	if p.Document() == nil {
		return fmt.Errorf("empty stream: nothing reconstructed")
	}
	out, err := export.HTML(p.Document())
	if err != nil {
		return err
	}
	if outPath == "" {
		os.Stdout.Write(out)
		os.Stdout.Write([]byte("\n"))
		return nil
	}
	return os.WriteFile(outPath, out, 0o644)
}

func serve(ctx context.Context, logger *slog.Logger, p *player.Player, addr string) error {
	v := viewer.New(p, logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           v.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("domreplay: viewer listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}
