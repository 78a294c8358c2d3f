package mqtt

import "sync"

// consumptionQueue buffers arrived messages for polling, decoupled from
// the event-driven delivery path. One mutex guards both the enabled flag
// and the buffer; it is never held across a blocking wait because no
// operation here blocks.
type consumptionQueue struct {
	mu      sync.Mutex
	enabled bool
	buf     []Message
	max     int
}

func newConsumptionQueue(max int) *consumptionQueue {
	return &consumptionQueue{max: max}
}

// start enables buffering. Calling it while already enabled is a no-op.
func (q *consumptionQueue) start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = true
}

// stop disables buffering and discards anything queued.
func (q *consumptionQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = false
	q.buf = nil
}

// saving reports whether buffering is enabled.
func (q *consumptionQueue) saving() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled
}

// offer appends an arrived message. It reports false when buffering is
// disabled or the buffer is full; the caller decides whether that is
// worth a warning.
func (q *consumptionQueue) offer(m Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.enabled || len(q.buf) >= q.max {
		return false
	}
	q.buf = append(q.buf, m)
	return true
}

// tryPop removes the oldest buffered message without blocking. The
// second return distinguishes "popped a value" from "nothing queued";
// a disabled queue always reports nothing.
func (q *consumptionQueue) tryPop() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.enabled || len(q.buf) == 0 {
		return nil, false
	}
	m := q.buf[0]
	q.buf = q.buf[1:]
	return m, true
}

// StartSavingMessage enables buffering of arrived messages for polling
// via GetNextMessage. Idempotent: starting an enabled queue succeeds and
// changes nothing. Failures are classified into the trace like any other
// operation.
func (c *Client) StartSavingMessage() bool {
	return c.commonTry("StartSaving", func() {
		c.log().Info("message consumption enabled")
		c.consume.start()
	})
}

// StopSavingMessage disables buffering and discards queued messages.
func (c *Client) StopSavingMessage() bool {
	return c.commonTry("StopSaving", func() {
		c.log().Info("message consumption disabled")
		c.consume.stop()
	})
}

// IsSavingMessage reports whether message consumption is enabled.
func (c *Client) IsSavingMessage() bool {
	return c.consume.saving()
}

// GetNextMessage pops the oldest buffered message payload into out.
//
// It returns true only when a message was produced; out is untouched
// otherwise. The false cases are distinguishable through the trace:
// consumption disabled and queue empty both leave it Ok, an underlying
// failure leaves its classification.
func (c *Client) GetNextMessage(out *[]byte) bool {
	if !c.consume.saving() {
		c.log().Debug("message consumption is disabled")
		c.trace.RecordOk()
		return false
	}

	var (
		msg   Message
		found bool
	)
	ok := c.commonTry("PopMessage", func() {
		msg, found = c.consume.tryPop()
	})
	if !ok || !found {
		return false
	}
	*out = msg.Payload()
	return true
}
