// Package merge combines per-chunk analysis results into one document result.
package merge

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"fleetdocs/internal/domain"
)

// Outcome is one chunk's analysis with the fields extracted from it. Fields
// is nil when extraction was not run or failed for the chunk.
type Outcome struct {
	Result domain.ChunkAnalysisResult
	Fields *domain.FieldMap
}

// Input is everything the merger needs about one document.
type Input struct {
	FileName      string
	TotalPages    int
	SkippedChunks int
	Schema        domain.Schema
	Outcomes      []Outcome
}

// Merged is the combined result of a split document.
type Merged struct {
	Fields     *domain.FieldMap
	Provenance map[string]string
	Summary    string
	Confidence float64
	Successful int
	Failed     int
	// FieldSources counts outcomes that contributed a field map.
	FieldSources int
}

// Merger combines chunk outcomes with a field conflict policy.
type Merger struct {
	policy Policy
}

// New creates a Merger. A nil policy selects FirstNonEmpty.
func New(policy Policy) *Merger {
	if policy == nil {
		policy = FirstNonEmpty{}
	}
	return &Merger{policy: policy}
}

// Merge combines the outcomes. When no chunk succeeded it returns
// domain.ErrAllChunksFailed along with the failure counts.
func (m *Merger) Merge(in Input) (*Merged, error) {
	outcomes := sortedBySequence(in.Outcomes)

	merged := &Merged{}
	var confidenceSum float64
	for _, o := range outcomes {
		if o.Result.Success {
			merged.Successful++
			confidenceSum += o.Result.Confidence
		} else {
			merged.Failed++
		}
	}
	if merged.Successful == 0 {
		return merged, domain.ErrAllChunksFailed
	}
	merged.Confidence = confidenceSum / float64(merged.Successful)

	merged.Fields, merged.Provenance, merged.FieldSources = m.MergeFields(in.Schema, outcomes)
	merged.Summary = MergedSummary(in.FileName, in.TotalPages, in.SkippedChunks, outcomes)

	log.Printf("merge.Merger.Merge: %s: %d succeeded, %d failed, %d skipped, %d/%d fields filled (%s)",
		in.FileName, merged.Successful, merged.Failed, in.SkippedChunks,
		merged.Fields.Filled(), merged.Fields.Len(), m.policy.Name())
	return merged, nil
}

// MergeFields resolves every schema field across successful outcomes.
// Fields nobody filled stay blank.
func (m *Merger) MergeFields(schema domain.Schema, outcomes []Outcome) (*domain.FieldMap, map[string]string, int) {
	outcomes = sortedBySequence(outcomes)
	fields := schema.NewFieldMap()
	provenance := make(map[string]string)

	sources := 0
	for _, o := range outcomes {
		if o.Result.Success && o.Fields != nil {
			sources++
		}
	}

	for _, name := range fields.Names() {
		var candidates []Candidate
		for _, o := range outcomes {
			if !o.Result.Success || o.Fields == nil {
				continue
			}
			if v := o.Fields.Get(name); v != "" {
				candidates = append(candidates, Candidate{
					Value:      v,
					Confidence: o.Result.Confidence,
					Sequence:   o.Result.Sequence,
					Pages:      o.Result.Pages,
				})
			}
		}
		if len(candidates) == 0 {
			continue
		}
		picked := m.policy.Pick(name, candidates)
		fields.Set(name, picked.Value)
		provenance[name] = fmt.Sprintf("chunk %d (pages %s)", picked.Sequence, picked.Pages)
	}
	return fields, provenance, sources
}

// MergedSummary writes a header with the file name, page count and chunk
// counts followed by each successful chunk's summary labelled with its page
// range, in ascending page order.
func MergedSummary(fileName string, totalPages, skipped int, outcomes []Outcome) string {
	outcomes = sortedBySequence(outcomes)
	succeeded, failed := 0, 0
	for _, o := range outcomes {
		if o.Result.Success {
			succeeded++
		} else {
			failed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Document: %s\n", fileName)
	fmt.Fprintf(&b, "Total pages: %d | Chunks: %d succeeded, %d failed, %d skipped\n", totalPages, succeeded, failed, skipped)
	for _, o := range outcomes {
		if !o.Result.Success {
			continue
		}
		fmt.Fprintf(&b, "\n=== Pages %s ===\n%s\n", o.Result.Pages, o.Result.Summary)
	}
	return b.String()
}

func sortedBySequence(outcomes []Outcome) []Outcome {
	out := make([]Outcome, len(outcomes))
	copy(out, outcomes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Sequence < out[j].Result.Sequence
	})
	return out
}
