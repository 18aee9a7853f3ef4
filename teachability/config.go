package teachability

import (
	"fmt"
	"os"

	"github.com/becomeliminal/teachable-go/memory"
)

// Verbosity levels. They gate diagnostic output only.
const (
	VerbosityBasic    = 0 // nothing
	VerbosityMemory   = 1 // store writes and degraded turns
	VerbosityAnalyzer = 2 // analyzer decisions
	VerbosityListing  = 3 // full memo listings
)

// DefaultDir is where memos live when no directory is configured.
const DefaultDir = "./tmp/teachable_agent_db"

// DefaultRecallThreshold is the minimum cosine similarity recalled by default.
const DefaultRecallThreshold = 0.3

// Config is fixed at construction.
type Config struct {
	// Verbosity is 0..3.
	Verbosity int `yaml:"verbosity"`

	// ResetDB discards every memo in PathToDBDir on construction.
	ResetDB bool `yaml:"reset_db"`

	// PathToDBDir holds the memo database and any index artifacts.
	PathToDBDir string `yaml:"path_to_db_dir"`

	// RecallThreshold is interpreted according to Scale.
	RecallThreshold float64 `yaml:"recall_threshold"`

	// Scale selects similarity (default) or distance thresholds.
	Scale memory.Scale `yaml:"-"`

	// MaxRecall bounds how many memos are prepended. 0 means memory.DefaultMaxRecall.
	MaxRecall int `yaml:"max_recall"`
}

// DefaultConfig returns the configuration used by the CLI when nothing is set.
func DefaultConfig() Config {
	return Config{
		PathToDBDir:     DefaultDir,
		RecallThreshold: DefaultRecallThreshold,
		Scale:           memory.ScaleSimilarity,
		MaxRecall:       memory.DefaultMaxRecall,
	}
}

// Validate checks everything that does not touch the filesystem.
func (c Config) Validate() error {
	if c.Verbosity < VerbosityBasic || c.Verbosity > VerbosityListing {
		return &memory.ConfigurationError{Field: "verbosity", Reason: fmt.Sprintf("%d outside 0..3", c.Verbosity)}
	}
	if err := c.Scale.Validate(c.RecallThreshold); err != nil {
		return err
	}
	if c.MaxRecall < 0 {
		return &memory.ConfigurationError{Field: "max recall", Reason: "must not be negative"}
	}
	if c.PathToDBDir == "" {
		return &memory.ConfigurationError{Field: "path_to_db_dir", Reason: "required"}
	}
	return nil
}

// prepareDir creates dir, wiping it first when reset is set, and checks that
// it is writable.
func prepareDir(dir string, reset bool) error {
	if reset {
		if err := os.RemoveAll(dir); err != nil {
			return &memory.ConfigurationError{Field: "path_to_db_dir", Reason: fmt.Sprintf("reset %s: %v", dir, err)}
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &memory.ConfigurationError{Field: "path_to_db_dir", Reason: err.Error()}
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return &memory.ConfigurationError{Field: "path_to_db_dir", Reason: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
