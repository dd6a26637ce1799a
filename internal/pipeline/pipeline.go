// Package pipeline runs the chunked document analysis for one category:
// validate, split when large, analyse chunks, extract fields, merge and
// normalize.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fleetdocs/internal/analyzer"
	"fleetdocs/internal/domain"
	"fleetdocs/internal/extractor"
	"fleetdocs/internal/merge"
	"fleetdocs/internal/pdfsplit"
	"fleetdocs/internal/port"
)

// Input is one document submitted for analysis.
type Input struct {
	Bytes            []byte
	FileName         string
	ContentType      string
	ShipID           string
	BypassValidation bool
}

// Pipeline analyses documents of a single category.
type Pipeline struct {
	schema    domain.Schema
	splitter  *pdfsplit.Splitter
	analyzer  *analyzer.ChunkAnalyzer
	extractor *extractor.FieldExtractor
	merger    *merge.Merger
	cfg       Config
}

// New creates a pipeline for schema. A nil analyzer or generator leaves the
// pipeline unconfigured and every Run fails with domain.ErrAIConfigMissing.
func New(schema domain.Schema, ocr port.DocumentAnalyzer, gen port.GenerativeBackend, cfg Config) *Pipeline {
	p := &Pipeline{
		schema:   schema,
		splitter: pdfsplit.NewSplitter(),
		merger:   merge.New(cfg.Policy),
		cfg:      cfg,
	}
	if ocr != nil {
		p.analyzer = analyzer.NewChunkAnalyzer(ocr)
	}
	if gen != nil {
		p.extractor = extractor.NewFieldExtractor(gen)
	}
	return p
}

// Schema returns the category schema the pipeline extracts.
func (p *Pipeline) Schema() domain.Schema {
	return p.schema
}

// chunkOutcome is a chunk's analysis plus what extraction made of it.
type chunkOutcome struct {
	merge.Outcome
	unparsed   []string
	extractErr error
}

// Run analyses in. Rejected input returns a *domain.ValidationError. When no
// chunk could be analysed it returns a *domain.AllChunksFailedError carrying
// the partial result.
func (p *Pipeline) Run(ctx context.Context, in Input) (*domain.AnalysisResult, error) {
	if p.analyzer == nil || p.extractor == nil {
		return nil, fmt.Errorf("%w: %s pipeline has no OCR or generative backend", domain.ErrAIConfigMissing, p.schema.Category)
	}
	if err := ValidateDocument(in.Document(), p.cfg.MaxFileBytes, in.BypassValidation); err != nil {
		log.Printf("pipeline.Pipeline.Run: rejected %s: %v", in.FileName, err)
		return nil, err
	}

	pages, err := p.splitter.PageCount(in.Bytes)
	if err != nil {
		log.Printf("pipeline.Pipeline.Run: rejected %s: %v", in.FileName, err)
		return nil, domain.NewValidationError(domain.CodeInvalidDocument, err, "file %q is not a readable PDF", in.FileName)
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = domain.PDFContentType
	}
	res := &domain.AnalysisResult{
		Category:    p.schema.Category,
		ShipID:      in.ShipID,
		FileName:    in.FileName,
		ContentType: contentType,
		FilePayload: base64.StdEncoding.EncodeToString(in.Bytes),
		SplitInfo: domain.SplitInfo{
			TotalPages:    pages,
			MaxChunkLimit: p.cfg.MaxChunks,
		},
	}

	start := time.Now()
	if pages <= p.cfg.SplitThreshold {
		err = p.runSingle(ctx, in, res)
	} else {
		err = p.runSplit(ctx, in, res)
	}
	if err != nil {
		return nil, err
	}
	if res.ProcessingMethod == domain.ProcessingAllChunksFailed {
		log.Printf("pipeline.Pipeline.Run: %s (%s): all %d chunks failed after %s",
			in.FileName, p.schema.Category, res.SplitInfo.ProcessedChunks, time.Since(start).Round(time.Millisecond))
		return nil, &domain.AllChunksFailedError{Result: res}
	}

	log.Printf("pipeline.Pipeline.Run: %s (%s): %s, %d pages, %d/%d fields in %s",
		in.FileName, p.schema.Category, res.ProcessingMethod, pages,
		res.Fields.Filled(), res.Fields.Len(), time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (p *Pipeline) runSingle(ctx context.Context, in Input, res *domain.AnalysisResult) error {
	chunk := domain.PageChunk{
		Sequence: 1,
		Pages:    domain.PageRange{Start: 1, End: res.SplitInfo.TotalPages},
		Bytes:    in.Bytes,
	}
	out := p.processChunk(ctx, chunk, in.FileName, true)

	res.SplitInfo.TotalChunks = 1
	res.SplitInfo.ProcessedChunks = 1
	res.Chunks = []domain.ChunkAnalysisResult{out.Result}

	if !out.Result.Success {
		res.SplitInfo.FailedChunks = 1
		p.markAllFailed(res)
		return nil
	}

	res.SplitInfo.SuccessfulChunks = 1
	res.ProcessingMethod = domain.ProcessingSingleChunk
	res.Summary = out.Result.Summary
	res.Confidence = out.Result.Confidence
	res.Fields = out.Fields
	res.UnparsedDates = out.unparsed
	if out.extractErr != nil {
		res.Notes = append(res.Notes, fmt.Sprintf("field extraction failed: %v", out.extractErr))
	}
	return p.finish(in, res, out.extractErr != nil)
}

func (p *Pipeline) runSplit(ctx context.Context, in Input, res *domain.AnalysisResult) error {
	ranges := pdfsplit.PlanChunks(res.SplitInfo.TotalPages, p.cfg.ChunkSize)
	retained := ranges
	if p.cfg.MaxChunks > 0 && len(ranges) > p.cfg.MaxChunks {
		retained = ranges[:p.cfg.MaxChunks]
		skipped := ranges[p.cfg.MaxChunks:]
		res.SplitInfo.WasLimited = true
		res.SplitInfo.SkippedChunks = len(skipped)
		res.SplitInfo.SkippedPageRanges = append([]domain.PageRange(nil), skipped...)
		res.Notes = append(res.Notes, fmt.Sprintf("document limited to %d chunks; pages %d-%d were not analysed",
			p.cfg.MaxChunks, skipped[0].Start, skipped[len(skipped)-1].End))
	}
	res.SplitInfo.WasSplit = true
	res.SplitInfo.TotalChunks = len(ranges)
	res.SplitInfo.ProcessedChunks = len(retained)

	chunks, err := p.splitter.SplitRanges(in.Bytes, retained)
	if err != nil {
		return domain.NewValidationError(domain.CodeInvalidDocument, err, "file %q could not be split", in.FileName)
	}
	log.Printf("pipeline.Pipeline.runSplit: %s: %d pages, %d chunks, %d retained (%s)",
		in.FileName, res.SplitInfo.TotalPages, len(ranges), len(retained), p.cfg.Mode)

	outcomes := p.processChunks(ctx, chunks, in.FileName)

	mergeInput := merge.Input{
		FileName:      in.FileName,
		TotalPages:    res.SplitInfo.TotalPages,
		SkippedChunks: res.SplitInfo.SkippedChunks,
		Schema:        p.schema,
		Outcomes:      make([]merge.Outcome, len(outcomes)),
	}
	res.Chunks = make([]domain.ChunkAnalysisResult, len(outcomes))
	extractFailed := false
	for i, o := range outcomes {
		mergeInput.Outcomes[i] = o.Outcome
		res.Chunks[i] = o.Result
		if o.extractErr != nil {
			extractFailed = true
			res.Notes = append(res.Notes, fmt.Sprintf("field extraction failed for pages %s: %v", o.Result.Pages, o.extractErr))
		}
	}

	merged, err := p.merger.Merge(mergeInput)
	res.SplitInfo.SuccessfulChunks = merged.Successful
	res.SplitInfo.FailedChunks = merged.Failed
	if errors.Is(err, domain.ErrAllChunksFailed) {
		p.markAllFailed(res)
		return nil
	}
	if err != nil {
		return err
	}
	res.SplitInfo.PartialSuccess = merged.Failed > 0

	res.ProcessingMethod = domain.ProcessingMergedFromChunks
	res.Summary = merged.Summary
	res.Confidence = merged.Confidence
	res.Fields = merged.Fields
	res.FieldProvenance = merged.Provenance
	if merged.Failed > 0 {
		res.Notes = append(res.Notes, fmt.Sprintf("%d of %d chunks failed analysis", merged.Failed, len(outcomes)))
	}

	if !p.cfg.ExtractPerChunk {
		ext, err := p.extractor.Extract(ctx, merged.Summary, p.schema)
		if err != nil {
			extractFailed = true
			res.Notes = append(res.Notes, fmt.Sprintf("field extraction failed: %v", err))
		} else {
			res.Fields = ext.Fields
			res.FieldProvenance = nil
		}
	}
	return p.finish(in, res, extractFailed)
}

// processChunks analyses chunks in the configured mode. Results come back in
// chunk order whatever order they finished in.
func (p *Pipeline) processChunks(ctx context.Context, chunks []domain.PageChunk, fileName string) []chunkOutcome {
	outcomes := make([]chunkOutcome, len(chunks))
	if p.cfg.Mode != ModeConcurrent {
		for i, c := range chunks {
			outcomes[i] = p.processChunk(ctx, c, fileName, p.cfg.ExtractPerChunk)
		}
		return outcomes
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		if i > 0 && p.cfg.Stagger > 0 {
			stagger(ctx, p.cfg.Stagger)
		}
		g.Go(func() error {
			outcomes[i] = p.processChunk(gctx, c, fileName, p.cfg.ExtractPerChunk)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func stagger(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (p *Pipeline) processChunk(ctx context.Context, chunk domain.PageChunk, fileName string, extract bool) chunkOutcome {
	out := chunkOutcome{Outcome: merge.Outcome{Result: p.analyzer.Analyze(ctx, chunk, fileName)}}
	if !out.Result.Success || !extract {
		return out
	}
	ext, err := p.extractor.Extract(ctx, out.Result.Summary, p.schema)
	if err != nil {
		log.Printf("pipeline.Pipeline.processChunk: %s pages %s: %v", fileName, chunk.Pages, err)
		out.extractErr = err
		return out
	}
	out.Fields = ext.Fields
	out.unparsed = ext.UnparsedDates
	return out
}

// finish fills the primary field from the file name when extraction failed
// and runs normalization over the final field map.
func (p *Pipeline) finish(in Input, res *domain.AnalysisResult, extractFailed bool) error {
	if res.Fields == nil {
		res.Fields = p.schema.NewFieldMap()
	}
	if extractFailed && res.Fields.IsBlank(p.schema.PrimaryField) {
		name := PlaceholderName(in.FileName)
		res.Fields.Set(p.schema.PrimaryField, name)
		res.Notes = append(res.Notes, fmt.Sprintf("%s set from file name; review before use", p.schema.PrimaryField))
	}

	unparsed, err := extractor.Normalize(p.schema, res.Fields)
	if err != nil {
		return fmt.Errorf("normalizing %s fields: %w", p.schema.Category, err)
	}
	res.UnparsedDates = unparsed
	return nil
}

func (p *Pipeline) markAllFailed(res *domain.AnalysisResult) {
	res.ProcessingMethod = domain.ProcessingAllChunksFailed
	res.Fields = p.schema.NewFieldMap()
	res.Notes = append(res.Notes, fmt.Sprintf("all %d chunks failed analysis; manual entry required", res.SplitInfo.ProcessedChunks))
}

// PlaceholderName derives a readable name from a file name:
// "Class_Certificate-2024.pdf" becomes "Class Certificate 2024".
func PlaceholderName(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}
