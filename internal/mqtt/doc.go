// Package mqtt is a facade over the asynchronous paho MQTT client.
//
// This package manages:
//   - Normalizing the library's callback signatures into one
//     event-dispatch surface (CallbackEvent + Payload)
//   - Capturing operation outcomes into a Trace value so no failure
//     crosses the public surface as an error or panic
//   - A polling consumption queue for arrived messages, independent of
//     the network goroutine
//
// # Operation pattern
//
// Every fallible operation exists in two forms. The token form issues
// the call, overwrites the trace, and hands back the waitable handle:
//
//	tok, ok := client.SubscribeToken("sensors/#", 1)
//
// The blocking form delegates to the token form and then waits, bounded
// by waitFor (zero meaning indefinitely):
//
//	ok := client.Subscribe("sensors/#", 1, true, 5*time.Second)
//
// Both return false without raising anything when the call could not be
// issued; the trace holds the classified reason. A timed-out wait does
// not cancel the operation, because issued operations cannot be cancelled.
//
// # Dispatch
//
// Completion and connection callbacks are funnelled through a single
// internal dispatch that logs, feeds the consumption queue and the
// telemetry sink, and forwards every (event, payload) pair to the
// externally registered handler. The handler runs inline on the network
// goroutine and must not block for long.
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT)
//	client.SetLogger(logger)
//	client.SetEventHandler(func(ev mqtt.CallbackEvent, info mqtt.Payload) {
//	    if ev == mqtt.EventConnected {
//	        // react to connection
//	    }
//	})
//	if !client.Connect(true, 0) {
//	    log.Fatal(client.Trace().Last().Message)
//	}
package mqtt
