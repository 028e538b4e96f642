package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docparse/docparse/internal/common"
	"github.com/docparse/docparse/internal/engine"
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
		in          = flag.String("in", "", "input file path or file:// URI (required unless -options is given)")
		optionsPath = flag.String("options", "", "path to a JSON options payload (overrides other flags)")
		contentType = flag.String("content-type", "XHTML", "content mode: TEXT | XHTML | XHTML_NO_HEADER")
		extract     = flag.Bool("extract-embedded", false, "extract embedded documents")
		ocrStrategy = flag.String("ocr-strategy", "NO_OCR", "OCR strategy: NO_OCR | OCR_ONLY | OCR_AND_TEXT_EXTRACTION")
		ocrLang     = flag.String("ocr-language", "", "OCR language hint")
		limit       = flag.Int("characters-limit", -1, "maximum output characters, -1 = unlimited")
		store       = flag.Bool("store", false, "persist the record to storage and print only its URI")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var opts parse.Options
	switch {
	case *optionsPath != "":
		raw, err := os.ReadFile(*optionsPath)
		if err != nil {
			printError("Error: read options file: %v\n", err)
			os.Exit(1)
		}
		opts, err = parse.DecodeOptions(raw)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
	case *in != "":
		opts = parse.Options{
			From:            toURI(*in),
			ExtractEmbedded: *extract,
			ContentType:     parse.ContentType(*contentType),
			OCROptions: parse.OCROptions{
				Strategy: parse.OCRStrategy(*ocrStrategy),
				Language: *ocrLang,
			},
			Store:           store,
			CharactersLimit: limit,
		}
	default:
		printError("Error: -in or -options is required\n")
		os.Exit(1)
	}

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
	eng := engine.NewAutoDetect(engineConfig(cfg), logger)
	parser := parse.NewParser(eng, st, nil, logger)

	out, err := parser.Run(context.Background(), opts)
	if err != nil {
		logger.Error("parse failed", "source", opts.From, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}

func engineConfig(cfg *common.Config) engine.Config {
	return engine.Config{
		Tesseract:   cfg.Engine.Tesseract,
		Pdftoppm:    cfg.Engine.Pdftoppm,
		Magick:      cfg.Engine.Magick,
		OCRLanguage: cfg.Engine.OCRLanguage,
		DPI:         cfg.Engine.DPI,
		MaxPages:    cfg.Engine.MaxPages,
	}
}

func toURI(in string) string {
	if filepath.IsAbs(in) {
		return "file://" + in
	}
	if abs, err := filepath.Abs(in); err == nil {
		return "file://" + abs
	}
	return in
}
