package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haesinais/aisdash/internal/poller"
	"github.com/haesinais/aisdash/internal/vessel"
	"github.com/haesinais/aisdash/pkg/logger"
)

var (
	// ErrNotRunning is returned by intents sent to a Home whose loop has exited
	ErrNotRunning = errors.New("dashboard is not running")
	// ErrAlreadyRunning is returned by a second call to Run
	ErrAlreadyRunning = errors.New("dashboard is already running")
	// ErrVesselNotFound is returned when selecting an MMSI missing from the vessel list
	ErrVesselNotFound = errors.New("vessel not found")
)

// Remote is the part of the remote API the dashboard consumes
type Remote interface {
	FetchVessels(ctx context.Context, source string) ([]vessel.Record, error)
	Predict(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error)
}

// Options configures a Home
type Options struct {
	VesselSource      string
	PollInterval      time.Duration
	RowsPerPage       int
	DefaultCenter     Center
	PredictionEnabled bool
	PredictionShape   string
	PredictionTimeout time.Duration
}

type pollMsg struct {
	res poller.Result
}

type predictionMsg struct {
	res PredictionResult
}

type intentReply struct {
	view ViewState
	err  error
}

type intentMsg struct {
	apply func() error
	reply chan intentReply
}

// Home composes the dashboard view. All state is owned by the goroutine
// running Run; other goroutines talk to it through intents and read
// published ViewState snapshots.
type Home struct {
	remote Remote
	opts   Options
	logger *logger.Logger

	msgs    chan any
	done    chan struct{}
	started atomic.Bool
	poll    atomic.Pointer[poller.Handle]
	view    atomic.Pointer[ViewState]

	subMu      sync.Mutex
	subs       map[int]chan ViewState
	nextSub    int
	subsClosed bool

	// Loop-owned state
	runCtx            context.Context
	deliverPrediction func(PredictionResult)
	list              []vessel.Record
	filtered          []vessel.Record
	page              []vessel.Record
	term              string
	window            PageWindow
	selection         *Selection
	prediction        *PredictionFetcher
	charts            Charts
	loading           bool
	lastPoll          time.Time
	lastPollOK        bool
	version           uint64
}

// NewHome creates a Home. Nothing is fetched until Run is called.
func NewHome(remote Remote, opts Options, loggerObj *logger.Logger) *Home {
	if opts.RowsPerPage <= 0 {
		opts.RowsPerPage = DefaultRowsPerPage
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.PredictionShape == "" {
		opts.PredictionShape = vessel.ShapeRoute
	}

	h := &Home{
		remote:    remote,
		opts:      opts,
		logger:    loggerObj.Named("dashboard"),
		msgs:      make(chan any, 64),
		done:      make(chan struct{}),
		subs:      make(map[int]chan ViewState),
		list:      []vessel.Record{},
		filtered:  []vessel.Record{},
		page:      []vessel.Record{},
		window:    PageWindow{CurrentPage: 1, RowsPerPage: opts.RowsPerPage},
		selection: NewSelection(opts.DefaultCenter),
		loading:   true,
		charts:    BuildCharts(nil, time.Now()),
	}

	var predict PredictFunc
	if remote != nil {
		predict = remote.Predict
	}
	h.prediction = NewPredictionFetcher(predict, opts.PredictionShape, opts.PredictionEnabled, opts.PredictionTimeout, loggerObj)

	initial := h.snapshot()
	h.view.Store(&initial)

	return h
}

// Run starts polling and processes events until ctx is cancelled. The
// poller is stopped before Run returns and prediction results arriving
// afterwards are dropped.
func (h *Home) Run(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(h.done)

	runCtx, cancel := context.WithCancel(ctx)
	h.runCtx = runCtx
	h.deliverPrediction = func(res PredictionResult) {
		select {
		case h.msgs <- predictionMsg{res: res}:
		case <-runCtx.Done():
		}
	}
	deliverPoll := func(res poller.Result) {
		select {
		case h.msgs <- pollMsg{res: res}:
		case <-runCtx.Done():
		}
	}
	fetch := func(ctx context.Context) ([]vessel.Record, error) {
		return h.remote.FetchVessels(ctx, h.opts.VesselSource)
	}

	h.logger.Info("Starting dashboard",
		logger.String("vessel_source", h.opts.VesselSource),
		logger.Int("rows_per_page", h.opts.RowsPerPage),
		logger.Bool("prediction_enabled", h.opts.PredictionEnabled),
	)

	handle := poller.Start(runCtx, h.opts.PollInterval, fetch, deliverPoll, h.logger)
	h.poll.Store(handle)

	defer func() {
		cancel()
		handle.Stop()
		h.prediction.Wait()
		h.closeSubscribers()
		h.logger.Info("Dashboard stopped")
	}()

	for {
		select {
		case <-runCtx.Done():
			return nil
		case m := <-h.msgs:
			h.handle(m)
		}
	}
}

// Done is closed when Run has returned
func (h *Home) Done() <-chan struct{} {
	return h.done
}

func (h *Home) handle(m any) {
	switch msg := m.(type) {
	case pollMsg:
		h.list = msg.res.Records
		h.loading = false
		h.lastPoll = msg.res.At
		h.lastPollOK = msg.res.Err == nil
		h.charts = BuildCharts(h.list, msg.res.At)
		h.refresh()
		h.logger.Debug("Vessel list replaced",
			logger.Int("count", len(h.list)),
			logger.Int64("cycle", msg.res.Cycle),
		)
		h.publish()

	case predictionMsg:
		selected, ok := h.selection.Selected()
		if h.prediction.Commit(msg.res, selected, ok) {
			h.publish()
		}

	case intentMsg:
		err := msg.apply()
		if err == nil {
			h.refresh()
			h.publish()
		}
		msg.reply <- intentReply{view: *h.view.Load(), err: err}
	}
}

// refresh recomputes the filtered list, the page window and the page
// items, then applies auto-select
func (h *Home) refresh() {
	h.filtered = Filter(h.list, h.term)
	h.window = h.window.resize(len(h.filtered))
	h.page, _ = Paginate(h.filtered, h.window.CurrentPage, h.window.RowsPerPage)

	if h.selection.AutoSelect(h.page) {
		h.selectionChanged(h.page[0])
	}
}

func (h *Home) selectionChanged(r vessel.Record) {
	h.logger.Debug("Selection changed", logger.Int64("mmsi", r.MMSI))
	h.prediction.Trigger(h.runCtx, r, h.deliverPrediction)
}

// publish stores a new snapshot and hands it to every subscriber. A
// subscriber that has not read the previous snapshot only sees the latest.
func (h *Home) publish() {
	h.version++
	v := h.snapshot()
	h.view.Store(&v)

	h.subMu.Lock()
	defer h.subMu.Unlock()
	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// View returns the latest snapshot
func (h *Home) View() ViewState {
	return *h.view.Load()
}

// Subscribe returns a channel receiving a snapshot after each state
// change, starting with the current one. The channel is closed by the
// returned cancel func or when Run exits.
func (h *Home) Subscribe() (<-chan ViewState, func()) {
	ch := make(chan ViewState, 1)

	h.subMu.Lock()
	defer h.subMu.Unlock()

	if h.subsClosed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	ch <- *h.view.Load()

	return ch, func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

func (h *Home) closeSubscribers() {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.subsClosed = true
}

// PollStatus returns the time and success of the last poll and the number
// of completed cycles
func (h *Home) PollStatus() (time.Time, bool, int64) {
	handle := h.poll.Load()
	if handle == nil {
		return time.Time{}, false, 0
	}
	last, ok := handle.GetStatus()
	return last, ok, handle.Cycles()
}

// Options returns the effective options
func (h *Home) Options() Options {
	return h.opts
}

// do runs apply on the loop and returns the resulting snapshot
func (h *Home) do(ctx context.Context, apply func() error) (ViewState, error) {
	reply := make(chan intentReply, 1)

	select {
	case h.msgs <- intentMsg{apply: apply, reply: reply}:
	case <-h.done:
		return ViewState{}, ErrNotRunning
	case <-ctx.Done():
		return ViewState{}, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.view, r.err
	case <-h.done:
		return ViewState{}, ErrNotRunning
	case <-ctx.Done():
		return ViewState{}, ctx.Err()
	}
}

// Search sets the search term. A new term resets the table to page 1.
func (h *Home) Search(ctx context.Context, term string) (ViewState, error) {
	return h.do(ctx, func() error {
		if term != h.term {
			h.term = term
			h.window.CurrentPage = 1
		}
		return nil
	})
}

// ChangePage moves one page "prev" or "next". Moves past either end are no-ops.
func (h *Home) ChangePage(ctx context.Context, direction string) (ViewState, error) {
	return h.do(ctx, func() error {
		h.window, _ = ChangePage(h.window, direction)
		return nil
	})
}

// GoToPage jumps to page n. Pages out of range are no-ops.
func (h *Home) GoToPage(ctx context.Context, n int) (ViewState, error) {
	return h.do(ctx, func() error {
		h.window, _ = GoToPage(h.window, n)
		return nil
	})
}

// Select selects the vessel with the given MMSI from the table or the
// map. Selecting the already selected vessel only re-centers the map.
func (h *Home) Select(ctx context.Context, mmsi int64, source string) (ViewState, error) {
	return h.do(ctx, func() error {
		r, ok := h.lookup(mmsi)
		if !ok {
			return ErrVesselNotFound
		}

		var changed bool
		if source == SourceMap {
			changed = h.selection.SelectFromMap(r)
		} else {
			changed = h.selection.SelectFromTable(r)
		}
		if changed {
			h.selectionChanged(r)
		}
		return nil
	})
}

// Vessel returns the record with the given MMSI from the latest snapshot
func (h *Home) Vessel(mmsi int64) (vessel.Record, bool) {
	return h.view.Load().Vessel(mmsi)
}

func (h *Home) lookup(mmsi int64) (vessel.Record, bool) {
	for _, r := range h.list {
		if r.MMSI == mmsi {
			return r, true
		}
	}
	return vessel.Record{}, false
}
