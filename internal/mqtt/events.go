package mqtt

// CallbackEvent identifies which underlying client callback produced a
// dispatch. It is carried alongside a Payload on every handleEvent call
// and forwarded unchanged to the external event handler.
type CallbackEvent int

// Callback event kinds, one per underlying client callback plus the two
// action-listener outcomes.
const (
	// EventConnected fires when the connection to the broker is established,
	// both on initial connect and on every automatic reconnect.
	EventConnected CallbackEvent = iota

	// EventDisconnected fires when the client disconnects from the broker.
	// A local Disconnect call synthesizes this event with a normal
	// disconnection reason; the payload carries DisconnectInfo.
	EventDisconnected

	// EventConnectionLost fires when the connection drops unexpectedly.
	EventConnectionLost

	// EventConnectionUpdate fires when the underlying client re-evaluates
	// its connection (reconnect attempt). The update is always accepted.
	EventConnectionUpdate

	// EventMessageArrived fires for every message received on a
	// subscribed topic.
	EventMessageArrived

	// EventDeliveryComplete fires when an outbound publish has been
	// acknowledged according to its QoS.
	EventDeliveryComplete

	// EventActionSuccess fires when an issued operation's token completes
	// without error.
	EventActionSuccess

	// EventActionFailure fires when an issued operation's token completes
	// with an error.
	EventActionFailure
)

// String returns the event name for logging.
func (e CallbackEvent) String() string {
	switch e {
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventConnectionLost:
		return "CONNECTION_LOST"
	case EventConnectionUpdate:
		return "CONNECTION_UPDATE"
	case EventMessageArrived:
		return "MESSAGE_ARRIVED"
	case EventDeliveryComplete:
		return "DELIVERY_COMPLETE"
	case EventActionSuccess:
		return "ACTION_SUCCESS"
	case EventActionFailure:
		return "ACTION_FAILURE"
	default:
		return "UNKNOWN"
	}
}
