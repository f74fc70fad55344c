package capture

import (
	"log/slog"
	"time"
)

// Config tunes a capturer. All configuration is explicit; there are no
// configuration files or environment lookups.
type Config struct {
	// Display selects which output to duplicate (0 is the primary display).
	Display int

	// FrameTimeout bounds each wait for the next frame. There is no
	// unbounded wait anywhere in the pipeline.
	FrameTimeout time.Duration

	// MaxCaptureRetries is how many times a single capture call restarts
	// the acquire sequence after a recoverable session loss before the
	// error is surfaced.
	MaxCaptureRetries int

	// MaxReinitAttempts bounds session recreation within one recovery, so
	// persistent device loss cannot loop forever.
	MaxReinitAttempts int

	// ReinitDelay is the pause between recreation attempts, giving the
	// desktop time to come back after a mode switch.
	ReinitDelay time.Duration

	// QueueSize is the capacity of the asynchronous request queue.
	QueueSize int

	// Encoder writes captured pixels when a destination path is supplied.
	Encoder Encoder

	// Logger receives retry and release diagnostics. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the documented defaults: a 100ms frame timeout,
// 3 capture retries, 3 recreation attempts 200ms apart, a queue of 16.
func DefaultConfig() Config {
	return Config{
		Display:           0,
		FrameTimeout:      100 * time.Millisecond,
		MaxCaptureRetries: 3,
		MaxReinitAttempts: 3,
		ReinitDelay:       200 * time.Millisecond,
		QueueSize:         16,
		Encoder:           PNGEncoder{},
		Logger:            slog.Default(),
	}
}

// Option mutates a Config before the capturer starts.
type Option func(*Config)

// WithDisplay selects the output to duplicate.
func WithDisplay(n int) Option {
	return func(c *Config) { c.Display = n }
}

// WithFrameTimeout sets the per-acquisition timeout.
func WithFrameTimeout(d time.Duration) Option {
	return func(c *Config) { c.FrameTimeout = d }
}

// WithRetryPolicy bounds recovery: captureRetries full-sequence retries per
// call, reinitAttempts session recreations per recovery.
func WithRetryPolicy(captureRetries, reinitAttempts int) Option {
	return func(c *Config) {
		c.MaxCaptureRetries = captureRetries
		c.MaxReinitAttempts = reinitAttempts
	}
}

// WithReinitDelay sets the pause between session recreation attempts.
func WithReinitDelay(d time.Duration) Option {
	return func(c *Config) { c.ReinitDelay = d }
}

// WithQueueSize sets the asynchronous request queue capacity.
func WithQueueSize(n int) Option {
	return func(c *Config) { c.QueueSize = n }
}

// WithEncoder replaces the PNG file-output collaborator.
func WithEncoder(e Encoder) Option {
	return func(c *Config) { c.Encoder = e }
}

// WithLogger routes diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
