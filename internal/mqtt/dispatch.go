package mqtt

// handleEvent is the single dispatch point every underlying callback and
// action watcher funnels through. It performs fixed internal bookkeeping
// per event kind, then unconditionally forwards the pair to the external
// handler when one is registered.
//
// Ordering is whatever the underlying client delivers: dispatches run
// inline on the delivering goroutine and the facade adds no queueing.
// A payload whose variant does not match the event is a logic error; it
// is logged loudly and dispatch carries on, it never panics outward.
func (c *Client) handleEvent(event CallbackEvent, info Payload) {
	log := c.log()
	log.Debug("dispatching callback event", "event", event.String())

	switch event {
	case EventConnected:
		cause, err := info.AsText()
		switch {
		case err != nil:
			c.payloadMismatch(event, err)
		case cause != "":
			log.Info("connected to broker", "cause", cause)
		default:
			log.Info("connected to broker")
		}

	case EventDisconnected:
		d, err := info.AsDisconnect()
		if err != nil {
			c.payloadMismatch(event, err)
			break
		}
		log.Info("disconnected from broker",
			"reason_code", d.ReasonCode,
			"reason", reasonString(d),
		)

	case EventConnectionLost:
		cause, err := info.AsText()
		if err != nil {
			c.payloadMismatch(event, err)
			break
		}
		log.Warn("connection lost", "cause", cause)

	case EventConnectionUpdate:
		// Nothing to veto: the update is always accepted.
		log.Info("connection update accepted")

	case EventMessageArrived:
		msg, err := info.AsMessage()
		if err != nil {
			c.payloadMismatch(event, err)
			break
		}
		log.Info("message arrived",
			"topic", msg.Topic(),
			"bytes", len(msg.Payload()),
			"retained", msg.Retained(),
		)
		if !c.consume.offer(msg) && c.consume.saving() {
			log.Warn("consumption buffer full, dropping message", "topic", msg.Topic())
		}

	case EventDeliveryComplete:
		tok, err := info.AsDeliveryToken()
		if err != nil {
			c.payloadMismatch(event, err)
			break
		}
		log.Debug("delivery complete", "op", tok.Op().String())

	case EventActionSuccess:
		tok, err := info.AsToken()
		if err != nil {
			c.payloadMismatch(event, err)
			break
		}
		log.Info("action succeeded", "op", tok.Op().String())
		// A completed disconnect never produces a library callback, so
		// the Disconnected event is synthesized here with a reason that
		// marks it as locally requested.
		if tok.Op() == OpDisconnect {
			c.handleEvent(EventDisconnected, DisconnectPayload(DisconnectInfo{
				Properties: []Property{
					{Key: "ReasonString", Value: "disconnect requested by local client"},
				},
				ReasonCode: ReasonNormalDisconnection,
			}))
		}

	case EventActionFailure:
		tok, err := info.AsToken()
		if err != nil {
			c.payloadMismatch(event, err)
			break
		}
		log.Warn("action failed", "op", tok.Op().String(), "error", tok.Err())
	}

	if sink := c.getSink(); sink != nil {
		sink.RecordEvent(event.String(), payloadBytes(info))
	}

	if handler := c.getHandler(); handler != nil {
		handler(event, info)
	}
}

// payloadMismatch records a wrong-variant payload observed during
// dispatch. This indicates a bug at the callback site, not a runtime
// condition a caller could recover from.
func (c *Client) payloadMismatch(event CallbackEvent, err error) {
	c.log().Error("payload kind mismatch during dispatch",
		"event", event.String(),
		"error", err,
	)
}

// reasonString extracts the human-readable reason from disconnect data,
// if the broker attached one.
func reasonString(d DisconnectInfo) string {
	for _, p := range d.Properties {
		if p.Key == "ReasonString" {
			return p.Value
		}
	}
	return ""
}

// payloadBytes is the size observation attached to telemetry: the
// message payload length for arrivals, zero for everything else.
func payloadBytes(info Payload) int {
	if info.Kind() != KindMessage {
		return 0
	}
	msg, err := info.AsMessage()
	if err != nil {
		return 0
	}
	return len(msg.Payload())
}
