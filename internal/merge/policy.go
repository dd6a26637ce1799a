package merge

import (
	"fmt"

	"fleetdocs/internal/domain"
)

// Candidate is one chunk's non-empty value for a field.
type Candidate struct {
	Value      string
	Confidence float64
	Sequence   int
	Pages      domain.PageRange
}

// Policy resolves a field when several chunks returned a value. Candidates
// are never empty and always arrive in ascending page order.
type Policy interface {
	Name() string
	Pick(field string, candidates []Candidate) Candidate
}

const (
	PolicyFirstNonEmpty     = "first-non-empty"
	PolicyLongest           = "longest"
	PolicyHighestConfidence = "highest-confidence"
)

// FirstNonEmpty keeps the value from the earliest chunk.
type FirstNonEmpty struct{}

func (FirstNonEmpty) Name() string { return PolicyFirstNonEmpty }

func (FirstNonEmpty) Pick(_ string, candidates []Candidate) Candidate {
	return candidates[0]
}

// Longest keeps the longest value, earliest chunk on ties.
type Longest struct{}

func (Longest) Name() string { return PolicyLongest }

func (Longest) Pick(_ string, candidates []Candidate) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c.Value) > len(best.Value) {
			best = c
		}
	}
	return best
}

// HighestConfidence keeps the value from the chunk the OCR backend was most
// confident about, earliest chunk on ties.
type HighestConfidence struct{}

func (HighestConfidence) Name() string { return PolicyHighestConfidence }

func (HighestConfidence) Pick(_ string, candidates []Candidate) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// PolicyByName returns the named policy. An empty name selects FirstNonEmpty.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", PolicyFirstNonEmpty:
		return FirstNonEmpty{}, nil
	case PolicyLongest:
		return Longest{}, nil
	case PolicyHighestConfidence:
		return HighestConfidence{}, nil
	}
	return nil, fmt.Errorf("unknown merge policy %q", name)
}
