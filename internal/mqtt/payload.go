package mqtt

import "fmt"

// PayloadKind identifies which variant a Payload currently holds.
type PayloadKind int

// Payload variants. Exactly one is live per Payload value.
const (
	// KindEmpty holds no value.
	KindEmpty PayloadKind = iota

	// KindText holds a plain string (connect/connection-lost cause).
	KindText

	// KindToken holds the operation handle of a completed action.
	KindToken

	// KindMessage holds an arrived message.
	KindMessage

	// KindDeliveryToken holds the operation handle of a completed publish.
	KindDeliveryToken

	// KindDisconnect holds structured disconnect data.
	KindDisconnect
)

// String returns the kind name for logging and error messages.
func (k PayloadKind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindText:
		return "Text"
	case KindToken:
		return "Token"
	case KindMessage:
		return "Message"
	case KindDeliveryToken:
		return "DeliveryToken"
	case KindDisconnect:
		return "Disconnect"
	default:
		return "Unknown"
	}
}

// WrongVariantError reports an accessor call against a Payload holding a
// different variant. It is a contract violation by the caller, surfaced
// as a typed error rather than a panic so dispatch never unwinds.
type WrongVariantError struct {
	Got  PayloadKind
	Want PayloadKind
}

func (e *WrongVariantError) Error() string {
	return fmt.Sprintf("mqtt: payload holds %s, not %s", e.Got, e.Want)
}

// Message is the arrived-message handle carried by a KindMessage payload.
// The paho message type satisfies it, as does any test double.
type Message interface {
	Topic() string
	Payload() []byte
	Retained() bool
}

// Property is one key-value pair of structured disconnect data.
// Order is preserved as received from the broker.
type Property struct {
	Key   string
	Value string
}

// DisconnectInfo carries the broker's (or the facade's own, for local
// disconnects) structured disconnect data.
type DisconnectInfo struct {
	Properties []Property
	ReasonCode int
}

// clone returns a deep copy; the properties slice is never shared.
func (d DisconnectInfo) clone() DisconnectInfo {
	out := DisconnectInfo{ReasonCode: d.ReasonCode}
	if d.Properties != nil {
		out.Properties = make([]Property, len(d.Properties))
		copy(out.Properties, d.Properties)
	}
	return out
}

// Payload is a closed tagged union carrying one callback datum through
// dispatch. It is a value type: construct it with one of the XxxPayload
// functions, query the live variant with Kind, and read it back with the
// matching As accessor. Reading a mismatched variant returns a
// *WrongVariantError, never a zero value.
//
// Lifetime: a Payload is built at the callback site, passed by value into
// dispatch, and dropped when the handler returns. Clone exists for
// handlers that need to retain one past dispatch.
type Payload struct {
	kind       PayloadKind
	text       string
	token      *Token
	message    Message
	disconnect DisconnectInfo
}

// EmptyPayload returns a Payload holding no value.
func EmptyPayload() Payload {
	return Payload{kind: KindEmpty}
}

// TextPayload returns a Payload holding a string.
func TextPayload(s string) Payload {
	return Payload{kind: KindText, text: s}
}

// TokenPayload returns a Payload holding an operation handle.
func TokenPayload(t *Token) Payload {
	return Payload{kind: KindToken, token: t}
}

// MessagePayload returns a Payload holding an arrived message.
func MessagePayload(m Message) Payload {
	return Payload{kind: KindMessage, message: m}
}

// DeliveryPayload returns a Payload holding a completed publish handle.
func DeliveryPayload(t *Token) Payload {
	return Payload{kind: KindDeliveryToken, token: t}
}

// DisconnectPayload returns a Payload holding disconnect data.
func DisconnectPayload(d DisconnectInfo) Payload {
	return Payload{kind: KindDisconnect, disconnect: d}
}

// Kind returns the live variant.
func (p Payload) Kind() PayloadKind {
	return p.kind
}

// AsText returns the held string.
func (p Payload) AsText() (string, error) {
	if p.kind != KindText {
		return "", &WrongVariantError{Got: p.kind, Want: KindText}
	}
	return p.text, nil
}

// AsToken returns the held operation handle.
func (p Payload) AsToken() (*Token, error) {
	if p.kind != KindToken {
		return nil, &WrongVariantError{Got: p.kind, Want: KindToken}
	}
	return p.token, nil
}

// AsMessage returns the held arrived message.
func (p Payload) AsMessage() (Message, error) {
	if p.kind != KindMessage {
		return nil, &WrongVariantError{Got: p.kind, Want: KindMessage}
	}
	return p.message, nil
}

// AsDeliveryToken returns the held publish handle.
func (p Payload) AsDeliveryToken() (*Token, error) {
	if p.kind != KindDeliveryToken {
		return nil, &WrongVariantError{Got: p.kind, Want: KindDeliveryToken}
	}
	return p.token, nil
}

// AsDisconnect returns the held disconnect data.
func (p Payload) AsDisconnect() (DisconnectInfo, error) {
	if p.kind != KindDisconnect {
		return DisconnectInfo{}, &WrongVariantError{Got: p.kind, Want: KindDisconnect}
	}
	return p.disconnect, nil
}

// Clone returns a copy that stays valid independently of the original.
// Text and disconnect data are duplicated; token and message handles are
// shared, keeping their referent alive through either copy.
func (p Payload) Clone() Payload {
	out := p
	if p.kind == KindDisconnect {
		out.disconnect = p.disconnect.clone()
	}
	return out
}
