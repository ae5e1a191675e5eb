package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire form of an inbound message: an action tag plus the
// action's payload fields, flattened into one JSON object.
type Envelope struct {
	Action string `json:"action"`
}

// DecodeMessage parses a raw JSON envelope into a typed message. Unknown
// actions are rejected; the union is closed.
func DecodeMessage(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed message envelope: %w", err)
	}

	switch env.Action {
	case ActionPing:
		return Ping{}, nil
	case ActionSignIn:
		return SignIn{}, nil
	case ActionSignOut:
		return SignOut{}, nil
	case ActionGetAuthState:
		return GetAuthState{}, nil
	case ActionProcessText:
		var m ProcessText
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Action, err)
		}
		return m, nil
	case ActionProcessMediaItem:
		var m ProcessMediaItem
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Action, err)
		}
		return m, nil
	case ActionGetResultForTab:
		var m GetResultForTab
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Action, err)
		}
		return m, nil
	case "":
		return nil, fmt.Errorf("message envelope has no action")
	default:
		return nil, fmt.Errorf("unknown action %q", env.Action)
	}
}

// EncodeMessage serializes a typed message back to its wire envelope.
func EncodeMessage(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return tagObject(payload, "action", m.Action())
}

// EncodeEvent serializes an event with its type tag for the event stream.
func EncodeEvent(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return tagObject(payload, "type", e.Type())
}

// tagObject injects a string field into a marshaled JSON object.
func tagObject(obj []byte, key, value string) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	tag, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	fields[key] = tag
	return json.Marshal(fields)
}
