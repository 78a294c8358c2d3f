package mqtt

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eclipse/paho.mqtt.golang/packets"
)

// OutcomeKind classifies the result of the most recent fallible operation.
type OutcomeKind int

// Outcome kinds, in increasing order of ignorance about the failure.
const (
	// OutcomeOk means the operation was issued without error.
	OutcomeOk OutcomeKind = iota

	// OutcomeProtocolError means the underlying client reported a typed
	// protocol failure carrying an MQTT reason code.
	OutcomeProtocolError

	// OutcomeGenericError means an ordinary runtime fault occurred that
	// is not specific to the protocol.
	OutcomeGenericError

	// OutcomeUnknownError means a fault occurred that could not be
	// classified at all, typically a non-error panic value.
	OutcomeUnknownError
)

// String returns the outcome kind name for logging.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOk:
		return "Ok"
	case OutcomeProtocolError:
		return "ProtocolError"
	case OutcomeGenericError:
		return "GenericError"
	case OutcomeUnknownError:
		return "UnknownError"
	default:
		return "Unknown"
	}
}

// Outcome is one recorded operation result. Code is only meaningful for
// OutcomeProtocolError; Message may be empty for OutcomeUnknownError.
type Outcome struct {
	Kind    OutcomeKind
	Code    int
	Message string
}

// IsOk reports whether this outcome records a success.
func (o Outcome) IsOk() bool {
	return o.Kind == OutcomeOk
}

// Trace captures the outcome of the most recent fallible operation so
// callers who must not receive errors across the facade boundary can
// inspect the detail after a boolean-returning call failed.
//
// Every operation replaces the trace wholesale; it never accumulates.
// Operations record from whatever goroutine they run on, so its state
// is guarded internally.
type Trace struct {
	mu  sync.Mutex
	cur Outcome
}

// NewTrace returns a Trace recording Ok.
func NewTrace() *Trace {
	return &Trace{}
}

// RecordOk overwrites the trace with a success.
func (t *Trace) RecordOk() {
	t.record(Outcome{Kind: OutcomeOk})
}

// RecordProtocolError overwrites the trace with a typed protocol failure.
func (t *Trace) RecordProtocolError(code int, message string) {
	t.record(Outcome{Kind: OutcomeProtocolError, Code: code, Message: message})
}

// RecordGenericError overwrites the trace with a generic runtime failure.
func (t *Trace) RecordGenericError(message string) {
	t.record(Outcome{Kind: OutcomeGenericError, Message: message})
}

// RecordUnknown overwrites the trace with an unclassifiable failure.
// The message may be empty when nothing is known about the fault.
func (t *Trace) RecordUnknown(message string) {
	t.record(Outcome{Kind: OutcomeUnknownError, Message: message})
}

// IsOk reports whether the most recent operation succeeded.
func (t *Trace) IsOk() bool {
	return t.Last().IsOk()
}

// Last returns the most recently recorded outcome.
func (t *Trace) Last() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur
}

func (t *Trace) record(o Outcome) {
	t.mu.Lock()
	t.cur = o
	t.mu.Unlock()
}

// ProtocolError is a typed error carrying an MQTT reason code. The facade
// raises it internally for protocol-level validation failures (for
// example an out-of-range QoS) and recognises it during classification.
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mqtt: protocol error %d: %s", e.Code, e.Message)
}

// classify converts a failure raised by the underlying client into an
// Outcome. Typed protocol errors keep their reason code; CONNACK refusals
// from the paho packets layer are mapped back to their numeric code;
// everything else that is an error becomes generic. Callers handle
// non-error panic values separately (they become OutcomeUnknownError).
func classify(err error) Outcome {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return Outcome{Kind: OutcomeProtocolError, Code: pe.Code, Message: pe.Message}
	}

	for code, connErr := range packets.ConnErrors {
		if connErr != nil && errors.Is(err, connErr) {
			return Outcome{Kind: OutcomeProtocolError, Code: int(code), Message: err.Error()}
		}
	}

	return Outcome{Kind: OutcomeGenericError, Message: err.Error()}
}
