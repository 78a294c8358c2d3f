package mqtt

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// OpKind identifies which facade operation issued a token.
type OpKind int

// Facade operations that produce waitable tokens.
const (
	OpConnect OpKind = iota
	OpDisconnect
	OpSubscribe
	OpUnsubscribe
	OpPublish
)

// String returns the operation name for logging.
func (k OpKind) String() string {
	switch k {
	case OpConnect:
		return "Connect"
	case OpDisconnect:
		return "Disconnect"
	case OpSubscribe:
		return "Subscribe"
	case OpUnsubscribe:
		return "Unsubscribe"
	case OpPublish:
		return "Publish"
	default:
		return "Unknown"
	}
}

// Token is the opaque, waitable handle for one issued operation. It wraps
// the underlying client's token and remembers which operation produced
// it, which dispatch uses to synthesize the Disconnected event for local
// disconnects.
//
// Waiting relies entirely on the underlying token's own synchronization
// with the network goroutine; the facade adds none of its own. A timed
// wait that elapses does not cancel the operation.
type Token struct {
	op    OpKind
	inner pahomqtt.Token
}

// Op returns the operation that issued this token.
func (t *Token) Op() OpKind {
	return t.op
}

// Wait blocks until the operation completes and reports whether it
// completed without error.
func (t *Token) Wait() bool {
	t.inner.Wait()
	return t.inner.Error() == nil
}

// WaitFor blocks until the operation completes or d elapses. A zero d
// waits indefinitely. It reports whether the operation completed in time
// without error; the operation itself is never cancelled.
func (t *Token) WaitFor(d time.Duration) bool {
	if d == 0 {
		return t.Wait()
	}
	if !t.inner.WaitTimeout(d) {
		return false
	}
	return t.inner.Error() == nil
}

// Done returns a channel closed when the operation completes.
func (t *Token) Done() <-chan struct{} {
	return t.inner.Done()
}

// Err returns the operation's error, or nil if it succeeded or is still
// in flight.
func (t *Token) Err() error {
	return t.inner.Error()
}

// syntheticToken adapts an operation without a native token (paho's
// Disconnect) to the pahomqtt.Token contract so the facade can hand out
// a uniform handle and run its action watcher over it.
type syntheticToken struct {
	mu   sync.Mutex
	err  error
	done chan struct{}
}

func newSyntheticToken() *syntheticToken {
	return &syntheticToken{done: make(chan struct{})}
}

// complete marks the token finished. It must be called exactly once.
func (t *syntheticToken) complete(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

func (t *syntheticToken) Wait() bool {
	<-t.done
	return true
}

func (t *syntheticToken) WaitTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

func (t *syntheticToken) Done() <-chan struct{} {
	return t.done
}

func (t *syntheticToken) Error() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
