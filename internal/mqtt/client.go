package mqtt

import (
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/duyld15/mqttcore/internal/infrastructure/config"
)

// backend is the subset of the paho client the facade drives. The real
// client satisfies it directly; tests substitute a scripted double.
type backend interface {
	Connect() pahomqtt.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token
	Unsubscribe(topics ...string) pahomqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	IsConnected() bool
}

// Logger is the logging surface the facade needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopLogger discards everything. It is the default until SetLogger.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// EventHandler is the externally registered callback that receives every
// dispatched event. It runs synchronously on the network goroutine, so
// it must not block for long: a slow handler stalls further callback
// delivery, including connection-loss notifications.
type EventHandler func(event CallbackEvent, info Payload)

// EventSink receives one observation per dispatched event. The InfluxDB
// telemetry writer implements it; writes must be non-blocking.
type EventSink interface {
	RecordEvent(event string, payloadBytes int)
}

// Client is the facade over the asynchronous MQTT client. It normalizes
// the library's callbacks into handleEvent dispatches, converts every
// operation failure into the outcome trace instead of an error return,
// and owns the message consumption queue.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Dispatch runs on whatever goroutine the underlying client delivers
//     its callback on; the external handler runs inline there.
type Client struct {
	client  backend
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	trace *Trace

	// handler is the at-most-one external event handler. Replacement is
	// not synchronized against an in-flight dispatch; a dispatch that
	// already loaded the old handler completes with it.
	handler   EventHandler
	handlerMu sync.RWMutex

	// sink observes dispatches for telemetry (optional, set via SetEventSink).
	sink   EventSink
	sinkMu sync.RWMutex

	// logger for dispatch and operation logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex

	consume *consumptionQueue

	quiesce time.Duration
}

// New creates a facade for the given configuration. The underlying
// client is created immediately but nothing touches the network until
// Connect.
//
// Connection behaviour defaults (when the config came from
// config.Default): keep-alive 60s, clean session, automatic reconnect,
// 10s connect timeout.
func New(cfg config.MQTTConfig) *Client {
	c := newFacade(cfg)
	c.client = pahomqtt.NewClient(c.options)
	return c
}

// newFacade builds everything except the backend so tests can inject one.
func newFacade(cfg config.MQTTConfig) *Client {
	bufSize := cfg.Consume.BufferSize
	if bufSize <= 0 {
		bufSize = defaultConsumeBuffer
	}

	c := &Client{
		options: buildClientOptions(cfg),
		cfg:     cfg,
		trace:   NewTrace(),
		logger:  nopLogger{},
		consume: newConsumptionQueue(bufSize),
		quiesce: defaultDisconnectQuiesce,
	}

	// Translate the library's connection callbacks 1:1 into dispatches.
	c.options.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleEvent(EventConnected, TextPayload(""))
	})
	c.options.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleEvent(EventConnectionLost, TextPayload(err.Error()))
	})
	c.options.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		c.handleEvent(EventConnectionUpdate, EmptyPayload())
	})
	c.options.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.handleEvent(EventMessageArrived, MessagePayload(msg))
	})

	return c
}

// SetEventHandler registers the external event handler, replacing any
// previous one.
func (c *Client) SetEventHandler(handler EventHandler) {
	c.handlerMu.Lock()
	c.handler = handler
	c.handlerMu.Unlock()
}

// UnsetEventHandler removes the external event handler.
func (c *Client) UnsetEventHandler() {
	c.SetEventHandler(nil)
}

// getHandler returns the current external handler (may be nil).
func (c *Client) getHandler() EventHandler {
	c.handlerMu.RLock()
	defer c.handlerMu.RUnlock()
	return c.handler
}

// SetLogger sets the logger used for internal dispatch and operation
// logging. The default discards everything.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		logger = nopLogger{}
	}
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// SetEventSink registers a telemetry sink observing every dispatch.
func (c *Client) SetEventSink(sink EventSink) {
	c.sinkMu.Lock()
	c.sink = sink
	c.sinkMu.Unlock()
}

// getSink returns the current telemetry sink (may be nil).
func (c *Client) getSink() EventSink {
	c.sinkMu.RLock()
	defer c.sinkMu.RUnlock()
	return c.sink
}

// Trace returns the outcome trace for the most recent fallible
// operation. The trace is replaced wholesale on every call; inspect it
// after a false return to learn why.
func (c *Client) Trace() *Trace {
	return c.trace
}

// Connected reports whether the underlying client currently holds a
// broker connection.
func (c *Client) Connected() bool {
	return c.client.IsConnected()
}

// ConnectToken starts a connection attempt and returns its operation
// handle without blocking.
func (c *Client) ConnectToken() (*Token, bool) {
	var tok *Token
	ok := c.commonTry("Connect", func() {
		c.log().Info("connecting to broker", "host", c.cfg.Broker.Host, "port", c.cfg.Broker.Port)
		tok = c.watch(OpConnect, c.client.Connect())
	})
	if !ok {
		return nil, false
	}
	return tok, true
}

// Connect starts a connection attempt and, when wait is true, blocks
// until it completes or waitFor elapses (zero waits indefinitely).
// The return value reflects whether the attempt was issued; the token's
// own error, surfaced through ActionFailure, reflects how it ended.
func (c *Client) Connect(wait bool, waitFor time.Duration) bool {
	tok, ok := c.ConnectToken()
	if ok && wait {
		makeWait(tok, waitFor)
	}
	return ok
}

// DisconnectToken starts a disconnect and returns its operation handle
// without blocking. The underlying client is given a quiesce period to
// settle in-flight work; completion is reported through the handle and
// an ActionSuccess dispatch, which in turn synthesizes the Disconnected
// event.
func (c *Client) DisconnectToken() (*Token, bool) {
	var tok *Token
	ok := c.commonTry("Disconnect", func() {
		c.log().Info("disconnecting from broker")
		st := newSyntheticToken()
		quiesce := uint(c.quiesce / time.Millisecond)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					st.complete(recoveredError(r))
					return
				}
				st.complete(nil)
			}()
			c.client.Disconnect(quiesce)
		}()
		tok = c.watch(OpDisconnect, st)
	})
	if !ok {
		return nil, false
	}
	return tok, true
}

// Disconnect starts a disconnect and optionally waits like Connect.
func (c *Client) Disconnect(wait bool, waitFor time.Duration) bool {
	tok, ok := c.DisconnectToken()
	if ok && wait {
		makeWait(tok, waitFor)
	}
	return ok
}

// SubscribeToken subscribes to a topic and returns the operation handle
// without blocking. QoS must be 0, 1 or 2; anything else fails the call
// with a protocol error in the trace, never a silent downgrade.
func (c *Client) SubscribeToken(topic string, qos byte) (*Token, bool) {
	if qos > maxQoS {
		msg := fmt.Sprintf("subscribe to %q: QoS %d not in {0, 1, 2}", topic, qos)
		c.log().Warn("rejecting subscribe", "topic", topic, "qos", qos)
		c.trace.RecordProtocolError(ReasonQoSNotSupported, msg)
		return nil, false
	}

	var tok *Token
	ok := c.commonTry("Subscribe", func() {
		c.log().Info("subscribing", "topic", topic, "qos", qos)
		tok = c.watch(OpSubscribe, c.client.Subscribe(topic, qos, c.onMessage))
	})
	if !ok {
		return nil, false
	}
	return tok, true
}

// Subscribe subscribes to a topic and optionally waits like Connect.
func (c *Client) Subscribe(topic string, qos byte, wait bool, waitFor time.Duration) bool {
	tok, ok := c.SubscribeToken(topic, qos)
	if ok && wait {
		makeWait(tok, waitFor)
	}
	return ok
}

// UnsubscribeToken removes a subscription and returns the operation
// handle without blocking.
func (c *Client) UnsubscribeToken(topic string) (*Token, bool) {
	var tok *Token
	ok := c.commonTry("Unsubscribe", func() {
		c.log().Info("unsubscribing", "topic", topic)
		tok = c.watch(OpUnsubscribe, c.client.Unsubscribe(topic))
	})
	if !ok {
		return nil, false
	}
	return tok, true
}

// Unsubscribe removes a subscription and optionally waits like Connect.
func (c *Client) Unsubscribe(topic string, wait bool, waitFor time.Duration) bool {
	tok, ok := c.UnsubscribeToken(topic)
	if ok && wait {
		makeWait(tok, waitFor)
	}
	return ok
}

// PublishToken publishes a payload and returns the operation handle
// without blocking. Messages are published unretained.
func (c *Client) PublishToken(topic string, payload []byte, qos byte) (*Token, bool) {
	var tok *Token
	ok := c.commonTry("Publish", func() {
		c.log().Info("publishing", "topic", topic, "qos", qos, "bytes", len(payload))
		tok = c.watch(OpPublish, c.client.Publish(topic, qos, false, payload))
	})
	if !ok {
		return nil, false
	}
	return tok, true
}

// Publish publishes a payload and optionally waits like Connect.
func (c *Client) Publish(topic string, payload []byte, qos byte, wait bool, waitFor time.Duration) bool {
	tok, ok := c.PublishToken(topic, payload, qos)
	if ok && wait {
		makeWait(tok, waitFor)
	}
	return ok
}

// onMessage is the subscription callback translating arrivals into
// dispatches. Paho invokes it on its own router goroutine.
func (c *Client) onMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	c.handleEvent(EventMessageArrived, MessagePayload(msg))
}

// commonTry runs one operation body, converting any panic escaping it
// into an outcome classification: typed protocol failures keep their
// reason code, plain errors become generic, anything else becomes
// unknown with the operation name. On a clean return the trace records
// Ok. Nothing ever propagates past this point.
func (c *Client) commonTry(op string, fn func()) (ok bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if err, isErr := r.(error); isErr {
			c.log().Error("operation failed", "op", op, "error", err)
			c.trace.record(classify(err))
		} else {
			c.log().Error("operation failed", "op", op, "panic", r)
			c.trace.RecordUnknown(fmt.Sprintf("unknown failure from %q", op))
		}
		ok = false
	}()

	fn()
	c.trace.RecordOk()
	return true
}

// watch hands out the facade token for an issued operation and dispatches
// ActionSuccess or ActionFailure when it completes. Paho reports
// completion through the token rather than success/failure listeners, so
// one watcher goroutine per operation stands in for the listener pair.
// Publish completions additionally dispatch DeliveryComplete first.
func (c *Client) watch(op OpKind, inner pahomqtt.Token) *Token {
	tok := &Token{op: op, inner: inner}
	go func() {
		<-inner.Done()
		if inner.Error() != nil {
			c.handleEvent(EventActionFailure, TokenPayload(tok))
			return
		}
		if op == OpPublish {
			c.handleEvent(EventDeliveryComplete, DeliveryPayload(tok))
		}
		c.handleEvent(EventActionSuccess, TokenPayload(tok))
	}()
	return tok
}

// makeWait blocks on a token: a positive waitFor bounds the wait, zero
// means indefinite. The result is deliberately dropped; completion
// status travels through the action events and the token itself.
func makeWait(tok *Token, waitFor time.Duration) {
	if waitFor > 0 {
		tok.WaitFor(waitFor)
	} else {
		tok.Wait()
	}
}

// recoveredError normalizes a recovered panic value to an error.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

func (c *Client) log() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
