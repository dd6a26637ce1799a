package pipeline

import (
	"fmt"
	"time"

	"fleetdocs/internal/config"
	"fleetdocs/internal/merge"
	"fleetdocs/internal/pdfsplit"
)

// Mode selects how chunks of a split document are analysed.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeConcurrent Mode = "concurrent"
)

const (
	DefaultMaxChunks    = 5
	DefaultMaxFileBytes = 50 << 20
	DefaultStagger      = 2 * time.Second
)

// Config controls a pipeline run. It is built once and shared by every
// category pipeline.
type Config struct {
	SplitThreshold int
	ChunkSize      int
	MaxChunks      int
	MaxFileBytes   int64
	Mode           Mode
	// Stagger is the delay between chunk task starts in concurrent mode.
	Stagger time.Duration
	// ExtractPerChunk runs field extraction on every chunk summary and
	// merges the field maps. When false, fields are extracted once from the
	// merged summary.
	ExtractPerChunk bool
	Policy          merge.Policy
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		SplitThreshold:  pdfsplit.DefaultSplitThreshold,
		ChunkSize:       pdfsplit.DefaultChunkSize,
		MaxChunks:       DefaultMaxChunks,
		MaxFileBytes:    DefaultMaxFileBytes,
		Mode:            ModeSequential,
		Stagger:         DefaultStagger,
		ExtractPerChunk: true,
		Policy:          merge.FirstNonEmpty{},
	}
}

// ConfigFromSettings converts loaded application settings.
func ConfigFromSettings(s *config.PipelineConfig) (Config, error) {
	cfg := DefaultConfig()
	if s == nil {
		return cfg, nil
	}
	policy, err := merge.PolicyByName(s.MergePolicy)
	if err != nil {
		return Config{}, err
	}
	switch Mode(s.Mode) {
	case "":
	case ModeSequential, ModeConcurrent:
		cfg.Mode = Mode(s.Mode)
	default:
		return Config{}, fmt.Errorf("unknown pipeline mode %q", s.Mode)
	}
	if s.SplitThreshold > 0 {
		cfg.SplitThreshold = s.SplitThreshold
	}
	if s.ChunkSize > 0 {
		cfg.ChunkSize = s.ChunkSize
	}
	if s.MaxChunks > 0 {
		cfg.MaxChunks = s.MaxChunks
	}
	if s.MaxFileSizeMB > 0 {
		cfg.MaxFileBytes = s.MaxFileSizeMB << 20
	}
	if s.Stagger >= 0 {
		cfg.Stagger = s.Stagger
	}
	cfg.ExtractPerChunk = s.ExtractPerChunk
	cfg.Policy = policy
	return cfg, nil
}
