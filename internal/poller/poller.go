package poller

import (
	"context"
	"sync"
	"time"

	"github.com/haesinais/aisdash/internal/vessel"
	"github.com/haesinais/aisdash/pkg/logger"
)

// FetchFunc retrieves one complete vessel list
type FetchFunc func(ctx context.Context) ([]vessel.Record, error)

// Result is the outcome of one poll cycle. Records is never nil; on
// failure it is empty and Err holds the cause.
type Result struct {
	Records []vessel.Record
	Err     error
	At      time.Time
	Cycle   int64
}

// ResultFunc receives each completed cycle
type ResultFunc func(Result)

// Handle controls a running poller
type Handle struct {
	interval time.Duration
	fetch    FetchFunc
	onResult ResultFunc
	logger   *logger.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu              sync.RWMutex
	lastFetchTime   time.Time
	lastFetchStatus bool
	cycles          int64
}

// Start fetches immediately and then every interval until Stop is called
// or ctx is cancelled. Cycles run on a single goroutine so fetches never
// overlap; ticks that fire during a slow fetch are coalesced.
func Start(ctx context.Context, interval time.Duration, fetch FetchFunc, onResult ResultFunc, loggerObj *logger.Logger) *Handle {
	h := &Handle{
		interval: interval,
		fetch:    fetch,
		onResult: onResult,
		logger:   loggerObj.Named("poller"),
	}
	h.ctx, h.cancel = context.WithCancel(ctx)

	h.logger.Info("Starting vessel poller",
		logger.Duration("fetch_interval", interval),
	)

	h.wg.Add(1)
	go h.fetchLoop()

	return h
}

// Stop stops the poller and waits for the loop to exit. It is safe to call
// more than once. No result is delivered after Stop returns.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info("Stopping vessel poller")
		h.cancel()
	})
	h.wg.Wait()
}

// Done is closed once the poller has been stopped or its context cancelled
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// GetStatus returns the time and success of the last completed cycle
func (h *Handle) GetStatus() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastFetchTime, h.lastFetchStatus
}

// Cycles returns the number of completed cycles
func (h *Handle) Cycles() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cycles
}

// fetchLoop runs the initial cycle and then one cycle per tick
func (h *Handle) fetchLoop() {
	defer h.wg.Done()

	h.runCycle()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.runCycle()
		case <-h.ctx.Done():
			h.logger.Info("Vessel poller stopped")
			return
		}
	}
}

func (h *Handle) runCycle() {
	if h.ctx.Err() != nil {
		return
	}

	records, err := h.fetch(h.ctx)
	if h.ctx.Err() != nil {
		// Stopped while fetching
		return
	}

	if err != nil {
		h.logger.Error("Failed to fetch vessel list", logger.Error(err))
		records = []vessel.Record{}
	} else if records == nil {
		records = []vessel.Record{}
	}

	now := time.Now()
	h.mu.Lock()
	h.cycles++
	h.lastFetchTime = now
	h.lastFetchStatus = err == nil
	cycle := h.cycles
	h.mu.Unlock()

	h.onResult(Result{
		Records: records,
		Err:     err,
		At:      now,
		Cycle:   cycle,
	})
}
