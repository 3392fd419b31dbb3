package query

// Observer receives every state change of one entry until closed.
// While at least one observer is open the entry is never evicted.
type Observer struct {
	client  *Client
	key     Key
	updates chan State
	closed  bool
}

// Subscribe registers an observer for pair. The current snapshot is
// delivered immediately and a fetch is started if the entry is not fresh.
// Slow readers only ever see the latest state.
func (c *Client) Subscribe(pair string) *Observer {
	key := trendKey(pair)
	o := &Observer{
		client:  c,
		key:     key,
		updates: make(chan State, 1),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	e.observers[o] = struct{}{}
	o.push(e.state)

	if !c.isFreshLocked(e) {
		c.startFetchLocked(key, e)
	}
	return o
}

// Updates is closed when the observer is closed.
func (o *Observer) Updates() <-chan State { return o.updates }

// Close unsubscribes. A fetch already in flight still completes and
// populates the cache for other consumers. Close is idempotent.
func (o *Observer) Close() {
	c := o.client
	c.mu.Lock()
	defer c.mu.Unlock()

	if o.closed {
		return
	}
	o.closeLocked()

	if e, ok := c.entries[o.key]; ok {
		delete(e.observers, o)
		c.touchLocked(o.key, e)
	}
}

func (o *Observer) closeLocked() {
	if o.closed {
		return
	}
	o.closed = true
	close(o.updates)
}

// push replaces any undelivered state with s. Callers hold the client lock,
// so there is a single writer.
func (o *Observer) push(s State) {
	if o.closed {
		return
	}
	select {
	case <-o.updates:
	default:
	}
	o.updates <- s
}
