package ws

import "encoding/json"

// ClientMsg is a message received from a websocket client.
// Type: subscribe | unsubscribe | ping. An empty eventId on subscribe means
// every alert regardless of game.
type ClientMsg struct {
	Type    string `json:"type"`
	EventID string `json:"eventId"`
}

// Update is pushed to subscribed clients when an alert fires.
type Update struct {
	Type    string          `json:"type"`
	EventID string          `json:"eventId"`
	Payload json.RawMessage `json:"payload"`
}
