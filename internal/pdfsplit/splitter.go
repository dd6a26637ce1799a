// Package pdfsplit counts and splits PDF documents into page-range chunks.
package pdfsplit

import (
	"bytes"
	"fmt"
	"log"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"fleetdocs/internal/domain"
)

const (
	DefaultSplitThreshold = 15
	DefaultChunkSize      = 12
)

func init() {
	// Keep pdfcpu from creating a config directory under $HOME.
	model.ConfigPath = "disable"
}

// Splitter wraps pdfcpu for in-memory page counting and splitting.
type Splitter struct{}

// NewSplitter creates a Splitter.
func NewSplitter() *Splitter {
	return &Splitter{}
}

func newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount returns the number of pages in doc. Unparseable documents and
// documents without pages fail with domain.ErrInvalidDocument.
func (s *Splitter) PageCount(doc []byte) (n int, err error) {
	if len(doc) == 0 {
		return 0, fmt.Errorf("%w: empty input", domain.ErrInvalidDocument)
	}
	defer recoverInvalid(&err)

	n, err = api.PageCount(bytes.NewReader(doc), newConf())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: document has no pages", domain.ErrInvalidDocument)
	}
	return n, nil
}

// NeedsSplit reports whether doc has more than threshold pages.
func (s *Splitter) NeedsSplit(doc []byte, threshold int) (bool, error) {
	n, err := s.PageCount(doc)
	if err != nil {
		return false, err
	}
	return n > threshold, nil
}

// PlanChunks divides pageCount pages into contiguous ranges of at most
// chunkSize pages. The last range may be shorter.
func PlanChunks(pageCount, chunkSize int) []domain.PageRange {
	if pageCount <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	ranges := make([]domain.PageRange, 0, (pageCount+chunkSize-1)/chunkSize)
	for start := 1; start <= pageCount; start += chunkSize {
		end := min(start+chunkSize-1, pageCount)
		ranges = append(ranges, domain.PageRange{Start: start, End: end})
	}
	return ranges
}

// SplitRanges materializes each range as a standalone PDF. Chunks are
// numbered from 1 in the order of ranges.
func (s *Splitter) SplitRanges(doc []byte, ranges []domain.PageRange) (chunks []domain.PageChunk, err error) {
	defer recoverInvalid(&err)

	chunks = make([]domain.PageChunk, 0, len(ranges))
	for i, r := range ranges {
		var out bytes.Buffer
		if err := api.Trim(bytes.NewReader(doc), &out, []string{r.String()}, newConf()); err != nil {
			return nil, fmt.Errorf("extracting pages %s: %w", r, err)
		}
		chunks = append(chunks, domain.PageChunk{
			Sequence: i + 1,
			Pages:    r,
			Bytes:    out.Bytes(),
		})
	}
	return chunks, nil
}

// Split cuts doc into ceil(pages/chunkSize) chunks covering every page.
func (s *Splitter) Split(doc []byte, chunkSize int) ([]domain.PageChunk, error) {
	n, err := s.PageCount(doc)
	if err != nil {
		return nil, err
	}
	ranges := PlanChunks(n, chunkSize)
	log.Printf("pdfsplit.Splitter.Split: %d pages into %d chunks of up to %d pages", n, len(ranges), chunkSize)
	return s.SplitRanges(doc, ranges)
}

// pdfcpu can panic on malformed input.
func recoverInvalid(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", domain.ErrInvalidDocument, r)
	}
}
