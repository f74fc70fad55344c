package capture

import (
	"context"
	"image"
	"sync"

	"github.com/google/uuid"
)

// Request is one queued asynchronous capture. The result is delivered
// exactly once; Done is closed when it is available.
type Request struct {
	id     uuid.UUID
	region Region
	path   string

	ctx    context.Context
	cancel context.CancelFunc

	done chan struct{}
	data *Data
	err  error
}

// ID identifies the request in diagnostics.
func (r *Request) ID() uuid.UUID { return r.id }

// Done is closed once the result is available.
func (r *Request) Done() <-chan struct{} { return r.done }

// Result blocks until the request completes and returns its outcome.
func (r *Request) Result() (*Data, error) {
	<-r.done
	return r.data, r.err
}

// Cancel cancels the request. A request still waiting in the queue is
// dropped without side effects. A request already inside the blocking
// acquisition cannot be preempted; cancelling it only prevents result
// delivery once the native call returns.
func (r *Request) Cancel() { r.cancel() }

func (r *Request) complete(d *Data, err error) {
	r.data = d
	r.err = err
	close(r.done)
}

// AsyncCapture wraps one Capture and runs it on a dedicated worker, so the
// caller's goroutine never blocks on the native acquisition. Concurrent
// requests are serialized in FIFO order against the single session; request
// N begins only after request N-1 completed and its frame was released.
type AsyncCapture struct {
	c *Capture

	// mu serializes enqueueing against shutdown: a request is either placed
	// in the queue before closed is set (and will be completed by the worker
	// or the drain), or it is rejected with ErrClosed. Without this, a
	// submitter could pass the closed check, lose the CPU across the whole
	// of Close, and then still commit its buffered send into a queue nobody
	// drains anymore.
	mu     sync.Mutex
	queue  chan *Request
	quit   chan struct{}
	wg     sync.WaitGroup
	closed bool
	once   sync.Once
}

// InitAsync creates the underlying capturer and starts the worker.
func InitAsync(opts ...Option) (*AsyncCapture, error) {
	c, err := Init(opts...)
	if err != nil {
		return nil, err
	}
	a := &AsyncCapture{
		c:     c,
		queue: make(chan *Request, c.cfg.QueueSize),
		quit:  make(chan struct{}),
	}
	a.wg.Add(1)
	go a.worker()
	return a, nil
}

// Bounds reports the last-known dimensions of the duplicated display.
func (a *AsyncCapture) Bounds() image.Rectangle { return a.c.Bounds() }

// Capture enqueues a capture of region. ctx cancels the request the same way
// Request.Cancel does; nil means context.Background(). Enqueueing blocks only
// when the queue is full.
func (a *AsyncCapture) Capture(ctx context.Context, region Region) (*Request, error) {
	return a.submit(ctx, region, "")
}

// CaptureToFile enqueues a capture whose result is also handed to the
// encoder, like Capture.CaptureToFile.
func (a *AsyncCapture) CaptureToFile(ctx context.Context, region Region, path string) (*Request, error) {
	return a.submit(ctx, region, path)
}

func (a *AsyncCapture) submit(ctx context.Context, region Region, path string) (*Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rctx, cancel := context.WithCancel(ctx)
	req := &Request{
		id:     uuid.New(),
		region: region,
		path:   path,
		ctx:    rctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		cancel()
		return nil, ErrClosed
	}
	select {
	case a.queue <- req:
		return req, nil
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
}

// Close stops the worker, fails any still-queued requests with ErrClosed and
// releases the underlying session.
func (a *AsyncCapture) Close() error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		close(a.quit)
	})
	a.wg.Wait()
	a.drain()
	return a.c.Close()
}

func (a *AsyncCapture) worker() {
	defer a.wg.Done()
	for {
		select {
		case <-a.quit:
			return
		case req := <-a.queue:
			// quit and queue can be ready at once; shutdown wins.
			select {
			case <-a.quit:
				req.complete(nil, ErrClosed)
				return
			default:
			}
			a.run(req)
		}
	}
}

func (a *AsyncCapture) run(req *Request) {
	// Cancelled while pending: dropped with no side effects, no acquisition.
	if err := req.ctx.Err(); err != nil {
		a.c.log.Debug("capture: request cancelled before start", "request", req.id)
		req.complete(nil, err)
		return
	}

	var d *Data
	var err error
	if req.path != "" {
		d, err = a.c.CaptureToFile(req.region, req.path)
	} else {
		d, err = a.c.Capture(req.region)
	}

	// Cancelled mid-flight: the native call already ran to completion (it is
	// not preemptible); only delivery is suppressed.
	if cerr := req.ctx.Err(); cerr != nil {
		a.c.log.Debug("capture: request cancelled, result dropped", "request", req.id)
		req.complete(nil, cerr)
		return
	}
	req.complete(d, err)
}

func (a *AsyncCapture) drain() {
	for {
		select {
		case req := <-a.queue:
			req.complete(nil, ErrClosed)
		default:
			return
		}
	}
}
