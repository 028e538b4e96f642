package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/docparse/docparse/constants"
	"github.com/docparse/docparse/internal/common"
	"github.com/docparse/docparse/internal/engine"
	"github.com/docparse/docparse/internal/jobs"
	"github.com/docparse/docparse/internal/parse"
	"github.com/docparse/docparse/internal/storage"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir         = flag.String("dir", "", "directory to parse documents from (required)")
		contentType = flag.String("content-type", "XHTML", "content mode: TEXT | XHTML | XHTML_NO_HEADER")
		extract     = flag.Bool("extract-embedded", false, "extract embedded documents")
		ocrStrategy = flag.String("ocr-strategy", "NO_OCR", "OCR strategy: NO_OCR | OCR_ONLY | OCR_AND_TEXT_EXTRACTION")
		workers     = flag.Int("workers", 4, "concurrent invocations")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	st, err := storage.NewLocalStore(cfg.Storage.Root, logger)
	if err != nil {
		logger.Error("init storage", "error", err)
		os.Exit(1)
	}
	ledger, err := jobs.Open(cfg.Jobs.DBPath, logger)
	if err != nil {
		logger.Error("init job ledger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := ledger.Close(); cerr != nil {
			logger.Error("close job ledger", "error", cerr)
		}
	}()

	eng := engine.NewAutoDetect(engine.Config{
		Tesseract:   cfg.Engine.Tesseract,
		Pdftoppm:    cfg.Engine.Pdftoppm,
		Magick:      cfg.Engine.Magick,
		OCRLanguage: cfg.Engine.OCRLanguage,
		DPI:         cfg.Engine.DPI,
		MaxPages:    cfg.Engine.MaxPages,
	}, logger)
	parser := parse.NewParser(eng, st, nil, logger)

	var inputs []string
	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || isHidden(path) || !constants.AllowedExt(filepath.Ext(path)) {
			return nil
		}
		inputs = append(inputs, path)
		return nil
	})
	if err != nil {
		logger.Error("walk directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("batch start", "dir", *dir, "files", len(inputs), "workers", *workers)

	// Invocations share no mutable state, so they run freely in parallel.
	start := time.Now()
	var failed int
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	results := make(chan bool, len(inputs))
	for _, input := range inputs {
		g.Go(func() error {
			ok := runOne(gctx, parser, ledger, logger, input, parse.Options{
				From:            "file://" + mustAbs(input),
				ExtractEmbedded: *extract,
				ContentType:     parse.ContentType(*contentType),
				OCROptions:      parse.OCROptions{Strategy: parse.OCRStrategy(*ocrStrategy)},
			})
			results <- ok
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	for ok := range results {
		if !ok {
			failed++
		}
	}

	logger.Info("batch done",
		"files", len(inputs),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

func runOne(ctx context.Context, parser *parse.Parser, ledger *jobs.Ledger, logger *slog.Logger, input string, opts parse.Options) bool {
	jobID, err := ledger.Start(ctx, opts.From)
	if err != nil {
		logger.Error("start job", "input", input, "error", err)
		return false
	}

	out, err := parser.Run(ctx, opts)
	if err != nil {
		logger.Error("parse failed", "input", input, "job_id", jobID, "error", err)
		if ferr := ledger.Fail(ctx, jobID, err); ferr != nil {
			logger.Error("record failure", "job_id", jobID, "error", ferr)
		}
		return false
	}

	chars, embedded := 0, 0
	if out.Result != nil {
		chars = utf8.RuneCountInString(out.Result.Content)
		embedded = len(out.Result.Embedded)
	}
	if err := ledger.Finish(ctx, jobID, out.URI, chars, embedded); err != nil {
		logger.Error("record finish", "job_id", jobID, "error", err)
		return false
	}
	logger.Info("parsed", "input", input, "job_id", jobID, "uri", out.URI)
	return true
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 0 && base[0] == '.'
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
