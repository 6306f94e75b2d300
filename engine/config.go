package engine

import "fmt"

// Defaults used by NewDefaultConfig.
const (
	DefaultBatchSize          = 30
	DefaultRemainderThreshold = 12
)

// Config controls how students are split into batches.
type Config struct {
	// BatchSize is the number of students handed to each mentor.
	BatchSize int
	// RemainderThreshold is the largest trailing chunk that is merged into the
	// previous batch instead of getting its own mentor. Inclusive.
	RemainderThreshold int
	// AllowOverload lets the last mentor take every batch that does not fit
	// the mentor list instead of failing the run.
	AllowOverload bool
}

// NewConfig builds a validated Config.
//
// Parameters:
//   - batchSize: Students per batch, must be positive
//   - remainderThreshold: Merge cutoff, must be in [0, batchSize)
//   - allowOverload: Whether exhausted mentor lists reuse the last mentor
//
// Returns:
//   - Config: The validated configuration
//   - error: ErrInvalidConfiguration wrapped with the offending values
//
// Example:
//
//	cfg, err := engine.NewConfig(30, 12, true)
//	if err != nil {
//	    return err
//	}
func NewConfig(batchSize, remainderThreshold int, allowOverload bool) (Config, error) {
	cfg := Config{
		BatchSize:          batchSize,
		RemainderThreshold: remainderThreshold,
		AllowOverload:      allowOverload,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// NewDefaultConfig returns the standard 30/12 configuration with overload enabled.
func NewDefaultConfig() Config {
	return Config{
		BatchSize:          DefaultBatchSize,
		RemainderThreshold: DefaultRemainderThreshold,
		AllowOverload:      true,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfiguration, c.BatchSize)
	}
	if c.RemainderThreshold < 0 || c.RemainderThreshold >= c.BatchSize {
		return fmt.Errorf("%w: remainder threshold must be in [0, %d), got %d",
			ErrInvalidConfiguration, c.BatchSize, c.RemainderThreshold)
	}

	return nil
}
