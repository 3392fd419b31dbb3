package query

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Alias1177/TokenTrend/models"
)

const (
	DefaultStaleTime  = 15 * time.Minute
	DefaultGCTime     = time.Hour
	DefaultRetry      = 3
	DefaultRetryDelay = time.Second
)

// Options configures freshness, retention and retry. StaleTime and GCTime
// are independent of each other.
type Options struct {
	// StaleTime is how long fetched data is served without refetching.
	StaleTime time.Duration
	// GCTime is how long an entry with no observers stays in memory.
	GCTime time.Duration
	// Retry is the number of extra attempts after a failed fetch; 0 disables retries.
	Retry      int
	RetryDelay time.Duration
	// Now is the clock used for freshness checks.
	Now func() time.Time
}

// DefaultOptions returns the 15m / 1h / 3 retries policy.
func DefaultOptions() Options {
	return Options{
		StaleTime:  DefaultStaleTime,
		GCTime:     DefaultGCTime,
		Retry:      DefaultRetry,
		RetryDelay: DefaultRetryDelay,
	}
}

type entry struct {
	state     State
	stale     bool
	observers map[*Observer]struct{}
	gcTimer   *time.Timer
	// flight names the singleflight call backing IsFetching
	flight string
}

// Client is the trend query cache. One instance is shared by every consumer
// in the process; it is safe for concurrent use.
type Client struct {
	fetcher models.TrendClient
	opts    Options
	logger  zerolog.Logger

	mu      sync.Mutex
	entries map[Key]*entry
	group   singleflight.Group
	seq     uint64
}

// New creates a query client on top of fetcher. Zero StaleTime, GCTime,
// RetryDelay and Now fall back to defaults; Retry is used as given.
func New(fetcher models.TrendClient, opts Options, logger zerolog.Logger) *Client {
	if opts.StaleTime == 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.GCTime == 0 {
		opts.GCTime = DefaultGCTime
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}

	return &Client{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.With().Str("component", "query_client").Logger(),
		entries: make(map[Key]*entry),
	}
}

// Fetch returns data for pair, waiting for a network round trip only when
// the cached entry is missing, stale or failed. Concurrent callers share a
// single in-flight fetch. If ctx ends first the caller gets the current
// snapshot and ctx.Err(); the fetch itself keeps running and fills the cache.
func (c *Client) Fetch(ctx context.Context, pair string) (State, error) {
	key := trendKey(pair)

	c.mu.Lock()
	e := c.entryLocked(key)
	c.touchLocked(key, e)
	if c.isFreshLocked(e) {
		s := e.state
		c.mu.Unlock()
		return s, nil
	}
	ch := c.startFetchLocked(key, e)
	c.mu.Unlock()

	select {
	case res := <-ch:
		return res.Val.(State), nil
	case <-ctx.Done():
		return c.Peek(pair), ctx.Err()
	}
}

// Query returns the current snapshot without blocking and starts a
// background fetch when the entry is missing, stale or failed.
func (c *Client) Query(pair string) State {
	key := trendKey(pair)

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	c.touchLocked(key, e)
	if !c.isFreshLocked(e) {
		c.startFetchLocked(key, e)
	}
	return e.state
}

// Peek returns the cached snapshot, if any, without side effects.
func (c *Client) Peek(pair string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[trendKey(pair)]; ok {
		return e.state
	}
	return State{Pair: pair}
}

// Invalidate marks the entry for pair stale so the next read refetches it.
func (c *Client) Invalidate(pair string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[trendKey(pair)]; ok {
		e.stale = true
	}
}

// Clear drops every entry and stops their retention timers.
// Open observers are closed.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.gcTimer != nil {
			e.gcTimer.Stop()
		}
		for o := range e.observers {
			o.closeLocked()
		}
		delete(c.entries, key)
	}
}

// Len is the number of entries currently held in memory.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Client) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			state:     State{Pair: key.Pair},
			observers: make(map[*Observer]struct{}),
		}
		c.entries[key] = e
	}
	return e
}

func (c *Client) isFreshLocked(e *entry) bool {
	if e.stale || e.state.Status != StatusSuccess {
		return false
	}
	return c.opts.Now().Sub(e.state.UpdatedAt) < c.opts.StaleTime
}

// touchLocked restarts the retention countdown of an entry nobody observes.
func (c *Client) touchLocked(key Key, e *entry) {
	if len(e.observers) > 0 {
		return
	}
	if e.gcTimer != nil {
		e.gcTimer.Stop()
	}
	e.gcTimer = time.AfterFunc(c.opts.GCTime, func() { c.evict(key, e) })
}

func (c *Client) evict(key Key, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.entries[key]; !ok || cur != e || len(e.observers) > 0 {
		return
	}
	delete(c.entries, key)
	c.logger.Debug().Str("key", key.String()).Msg("Evicted unused entry")
}

// startFetchLocked joins the in-flight fetch for key or starts one. c.mu must
// be held from the freshness check through this call so that a fetch cannot
// settle in between.
// Each fetch runs under its own flight name; a call that has settled but not
// yet left singleflight is never joined.
func (c *Client) startFetchLocked(key Key, e *entry) <-chan singleflight.Result {
	if !e.state.IsFetching {
		c.seq++
		e.flight = key.String() + "#" + strconv.FormatUint(c.seq, 10)
		e.state.IsFetching = true
		c.notifyLocked(e)
	}
	flight := e.flight
	return c.group.DoChan(flight, func() (interface{}, error) {
		series, err := c.fetchWithRetry(key.Pair)
		return c.settle(key, flight, series, err), nil
	})
}

// fetchWithRetry runs detached from any caller's context.
func (c *Client) fetchWithRetry(pair string) (models.TrendSeries, error) {
	c.logger.Debug().Str("pair", pair).Msg("Fetching trend")

	var series models.TrendSeries
	operation := func() error {
		var err error
		series, err = c.fetcher.GetTrend(context.Background(), pair)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryDelay
	b.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		c.logger.Warn().Err(err).Str("pair", pair).Dur("backoff", wait).Msg("Retrying trend fetch")
	}

	if err := backoff.RetryNotify(operation, backoff.WithMaxRetries(b, uint64(c.opts.Retry)), notify); err != nil {
		return nil, err
	}
	return series, nil
}

// settle applies a fetch result to its entry in one step and fans it out.
// Only the flight that set IsFetching clears it.
func (c *Client) settle(key Key, flight string, series models.TrendSeries, err error) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = c.entryLocked(key)
		c.touchLocked(key, e)
	}

	if e.flight == flight {
		e.state.IsFetching = false
	}
	if err != nil {
		e.state.Status = StatusError
		e.state.Err = err
		c.logger.Error().Err(err).Str("pair", key.Pair).Msg("Trend fetch failed")
	} else {
		e.state.Status = StatusSuccess
		e.state.Err = nil
		e.state.Data = series
		e.state.UpdatedAt = c.opts.Now()
		e.stale = false
	}

	c.notifyLocked(e)
	return e.state
}

func (c *Client) notifyLocked(e *entry) {
	for o := range e.observers {
		o.push(e.state)
	}
}
