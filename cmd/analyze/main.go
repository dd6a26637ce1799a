// Command analyze runs the document analysis pipeline on a local PDF and
// prints the result as JSON. Nothing is stored or uploaded.
//
//	analyze -category certificate -ship imo-9321483 ./iopp.pdf
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"fleetdocs/internal/bootstrap"
	"fleetdocs/internal/config"
	"fleetdocs/internal/domain"
	"fleetdocs/internal/pipeline"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	category := fs.String("category", string(domain.CategoryCertificate), "document category: "+categoryList())
	shipID := fs.String("ship", "", "ship identifier recorded on the result")
	bypass := fs.Bool("bypass-validation", false, "skip extension and magic-byte checks")
	mode := fs.String("mode", "", "chunk processing mode override (sequential|concurrent)")
	withChunks := fs.Bool("chunks", false, "include per-chunk results in the output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: analyze [flags] <file.pdf>")
	}
	path := fs.Arg(0)

	cat, err := domain.ParseCategory(*category)
	if err != nil {
		return err
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *mode != "" {
		cfg.Pipeline.Mode = *mode
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bootstrap.RegisterProviders()
	pipelines, err := bootstrap.NewPipelines(ctx, cfg)
	if err != nil {
		return err
	}
	p, err := pipelines.For(cat)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	res, err := p.Run(ctx, pipeline.Input{
		Bytes:            data,
		FileName:         filepath.Base(path),
		ShipID:           *shipID,
		BypassValidation: *bypass,
	})
	var failed *domain.AllChunksFailedError
	switch {
	case errors.As(err, &failed) && failed.Result != nil:
		res = failed.Result
		log.Printf("WARNING: %v", err)
	case err != nil:
		return err
	}

	if !*withChunks {
		res.Chunks = nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func categoryList() string {
	cats := domain.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
