// Package capture grabs pixel data from a rectangular region of a display
// with low latency. A Capture blocks the calling goroutine for the duration
// of one frame acquisition; AsyncCapture runs the same pipeline on a
// dedicated worker and hands results back through request handles.
//
// The capture session owns a scarce native resource (an output duplication
// and the compute device behind it). Losing it is routine, not exceptional:
// lock screens, display mode switches and GPU resets all surface as
// recoverable errors, and the facade recreates the session and retries
// within configured bounds before anything reaches the caller.
package capture

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/suutaku/screencapture/internal/native"
)

// Capture is the blocking capturer. It owns exactly one native session,
// which is never shared with another capturer. Safe for concurrent use;
// calls are serialized internally.
type Capture struct {
	cfg Config
	log *slog.Logger

	// newSession recreates the platform session after device loss.
	newSession func(display int) (native.Session, error)

	mu        sync.Mutex
	sess      native.Session
	lastStamp time.Time
	closed    bool
}

// Init creates a capturer for the configured display, eagerly setting up the
// compute device and duplication. Fails with *InitError when no compatible
// device or output is available (headless hosts, detached sessions).
func Init(opts ...Option) (*Capture, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Capture{
		cfg:        cfg,
		log:        cfg.Logger,
		newSession: newNativeSession,
	}
	sess, err := c.newSession(cfg.Display)
	if err != nil {
		return nil, &InitError{Err: err}
	}
	c.sess = sess
	return c, nil
}

// Bounds reports the last-known dimensions of the duplicated display.
func (c *Capture) Bounds() image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return image.Rectangle{}
	}
	return c.sess.Bounds()
}

// Capture grabs one frame and extracts region from it. Recoverable session
// losses are absorbed and retried internally; everything else comes back as
// a typed error. The returned Data is exclusively the caller's.
func (c *Capture) Capture(region Region) (*Data, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captureLocked(region)
}

// CaptureToFile captures like Capture and additionally hands the result to
// the configured encoder. An encoding failure comes back as *EncodeError
// together with the still-valid Data; the capture itself already succeeded.
func (c *Capture) CaptureToFile(region Region, path string) (*Data, error) {
	c.mu.Lock()
	d, err := c.captureLocked(region)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := encodeToFile(c.cfg.Encoder, d, path); err != nil {
		return d, err
	}
	return d, nil
}

// Close releases the native session. Further calls return ErrClosed.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.sess != nil {
		err := c.sess.Close()
		c.sess = nil
		return err
	}
	return nil
}

func (c *Capture) captureLocked(region Region) (*Data, error) {
	if c.closed {
		return nil, ErrClosed
	}

	// A previous call may have lost the session for good; give this call a
	// fresh chance to bring it back before doing anything else.
	if c.sess == nil {
		if err := c.reinit(); err != nil {
			return nil, &InitError{Err: err}
		}
	}

	// Validation against last-known bounds happens before any acquisition.
	// The extractor re-checks against the actual frame, which is the
	// authoritative size once a frame is in hand.
	if err := region.validate(c.sess.Bounds()); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxCaptureRetries; attempt++ {
		d, err := c.captureOnce(region)
		if err == nil {
			return d, nil
		}
		lastErr = err
		if !IsRecoverable(err) {
			return nil, err
		}
		if attempt == c.cfg.MaxCaptureRetries {
			// Out of retries. Drop the dead session so the next call starts
			// with a fresh recreation instead of a doomed acquisition.
			c.sess.Close()
			c.sess = nil
			break
		}
		c.log.Warn("capture: session lost, recreating",
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxCaptureRetries,
			"error", err,
		)
		if rerr := c.reinit(); rerr != nil {
			c.log.Error("capture: session recreation failed", "error", rerr)
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// captureOnce runs one acquire/extract/release cycle. The frame is released
// on every path out of this function; a leaked frame would starve the
// duplication and time out all subsequent acquisitions.
func (c *Capture) captureOnce(region Region) (*Data, error) {
	frame, err := c.sess.AcquireFrame(c.cfg.FrameTimeout)
	if err != nil {
		return nil, classify(err)
	}

	pix, copyErr := frame.Copy(region.rect())
	relErr := c.sess.ReleaseFrame()

	if copyErr != nil {
		return nil, classify(copyErr)
	}
	if relErr != nil {
		return nil, classify(relErr)
	}

	return &Data{
		Width:     region.Width,
		Height:    region.Height,
		Pix:       pix,
		Timestamp: c.stamp(),
		Format:    PixelFormat(frame.Format),
	}, nil
}

// stamp returns the capture completion time, strictly increasing across
// captures even if the clock granularity makes two readings equal.
func (c *Capture) stamp() time.Time {
	now := time.Now()
	if !now.After(c.lastStamp) {
		now = c.lastStamp.Add(time.Nanosecond)
	}
	c.lastStamp = now
	return now
}

// reinit tears the dead session down and recreates it, bounded by
// MaxReinitAttempts so persistent device loss cannot spin forever.
func (c *Capture) reinit() error {
	if c.sess != nil {
		c.sess.Close()
		c.sess = nil
	}

	var err error
	for attempt := 1; attempt <= c.cfg.MaxReinitAttempts; attempt++ {
		var sess native.Session
		sess, err = c.newSession(c.cfg.Display)
		if err == nil {
			c.sess = sess
			return nil
		}
		c.log.Warn("capture: reinit attempt failed",
			"attempt", attempt,
			"max_attempts", c.cfg.MaxReinitAttempts,
			"error", err,
		)
		time.Sleep(c.cfg.ReinitDelay)
	}
	return err
}
