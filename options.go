package strpack

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/arloliu/strpack/errs"
	"github.com/arloliu/strpack/internal/clock"
	"github.com/arloliu/strpack/internal/options"
	"github.com/arloliu/strpack/internal/serial"
	"github.com/arloliu/strpack/internal/workers"
)

const (
	// DefaultMaxThreadCount is the default bound on background workers.
	DefaultMaxThreadCount = 2

	// DefaultThreadTTL is the default idle time after which a background
	// worker is torn down.
	DefaultThreadTTL = 5 * time.Second

	// DefaultMaxDecodedSize is the default bound on the bytes one
	// Deserialize call may allocate for byte buffers and decompression.
	DefaultMaxDecodedSize = serial.DefaultMaxDecodedSize
)

// Config is the runtime configuration of a Codec.
type Config struct {
	// MaxThreadCount bounds the number of background workers, at least 1.
	MaxThreadCount int
	// ThreadTTL is the idle time after which a background worker is torn
	// down, at least 0.
	ThreadTTL time.Duration
}

// DefaultConfig returns the configuration of a Codec built without options.
func DefaultConfig() Config {
	return Config{MaxThreadCount: DefaultMaxThreadCount, ThreadTTL: DefaultThreadTTL}
}

func (c Config) validate() error {
	if c.MaxThreadCount < 1 {
		return fmt.Errorf("%w: max thread count %d, must be at least 1", errs.ErrInvalidConfig, c.MaxThreadCount)
	}
	if c.ThreadTTL < 0 {
		return fmt.Errorf("%w: thread TTL %s, must not be negative", errs.ErrInvalidConfig, c.ThreadTTL)
	}

	return nil
}

func (c Config) pool() workers.Config {
	return workers.Config{MaxWorkers: c.MaxThreadCount, TTL: c.ThreadTTL}
}

func configOf(p workers.Config) Config {
	return Config{MaxThreadCount: p.MaxWorkers, ThreadTTL: p.TTL}
}

// codecSettings collects the construction options of a Codec.
type codecSettings struct {
	config     Config
	logger     *slog.Logger
	clock      clock.Clock
	maxDecoded int
}

// Option configures a Codec.
type Option = options.Option[*codecSettings]

// WithMaxThreadCount bounds the number of background workers.
//
// Parameters:
//   - n: Maximum number of workers, at least 1
//
// Returns:
//   - Option: The option; New fails with errs.ErrInvalidConfig when n < 1
func WithMaxThreadCount(n int) Option {
	return options.New(func(s *codecSettings) error {
		if n < 1 {
			return fmt.Errorf("%w: max thread count %d, must be at least 1", errs.ErrInvalidConfig, n)
		}
		s.config.MaxThreadCount = n

		return nil
	})
}

// WithThreadTTL sets how long a background worker may stay idle.
func WithThreadTTL(d time.Duration) Option {
	return options.New(func(s *codecSettings) error {
		if d < 0 {
			return fmt.Errorf("%w: thread TTL %s, must not be negative", errs.ErrInvalidConfig, d)
		}
		s.config.ThreadTTL = d

		return nil
	})
}

// WithMaxDecodedSize bounds the bytes one Deserialize call may allocate for
// byte buffers and for the decompressed form. Input declaring more fails
// with errs.ErrMalformedPayload before anything is allocated.
//
// Parameters:
//   - n: Limit in bytes, at least 1 (default DefaultMaxDecodedSize)
//
// Returns:
//   - Option: The option; New fails with errs.ErrInvalidConfig when n < 1
func WithMaxDecodedSize(n int) Option {
	return options.New(func(s *codecSettings) error {
		if n < 1 {
			return fmt.Errorf("%w: max decoded size %d, must be at least 1", errs.ErrInvalidConfig, n)
		}
		s.maxDecoded = n

		return nil
	})
}

// WithLogger sets the logger for worker lifecycle and compression fallback
// events. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return options.NoError(func(s *codecSettings) {
		if l != nil {
			s.logger = l
		}
	})
}

// WithClock sets the time source used to measure worker idle time.
func WithClock(c clock.Clock) Option {
	return options.NoError(func(s *codecSettings) {
		if c != nil {
			s.clock = c
		}
	})
}

// callSettings collects the per-call options of Serialize and the async
// operations.
type callSettings struct {
	compress   bool
	background bool
}

// CallOption configures a single serialization or deserialization call.
type CallOption = options.Option[*callSettings]

// WithCompression requests the compressed form. It is only returned when it
// is at most 85% of the plain form's length.
func WithCompression() CallOption {
	return options.NoError(func(s *callSettings) {
		s.compress = true
	})
}

// InBackground requests that an async call runs on a background worker. It
// has no effect on the synchronous operations.
func InBackground() CallOption {
	return options.NoError(func(s *callSettings) {
		s.background = true
	})
}

func applyCallOptions(opts []CallOption) callSettings {
	var s callSettings
	// Call options cannot fail.
	_ = options.Apply(&s, opts...)

	return s
}
