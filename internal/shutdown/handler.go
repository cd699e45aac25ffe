package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler cancels a shared context on SIGINT or SIGTERM and runs
// registered cleanups, most recent first.
type Handler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
	mu       sync.Mutex
	cleanups []func()
	stop     func()
}

// New creates a new shutdown handler
func New() *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		ctx:    ctx,
		cancel: cancel,
		stop:   func() {},
	}
}

// Context is canceled once shutdown starts.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers fn to run on shutdown.
func (h *Handler) AddCleanup(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, fn)
}

// Listen starts shutdown when the process is interrupted.
func (h *Handler) Listen() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	h.stop = func() { signal.Stop(sigChan) }

	go func() {
		select {
		case <-sigChan:
			h.Shutdown()
		case <-h.ctx.Done():
		}
	}()
}

// Shutdown cancels the context and runs the cleanups. Later calls are no-ops.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.cancel()
		h.stop()

		h.mu.Lock()
		fns := h.cleanups
		h.cleanups = nil
		h.mu.Unlock()

		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	})
}
