package protocol

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeTransform is pushed to subscribers for every transform written to OBS
	TypeTransform MessageType = "transform"

	// TypeStatus carries an animator status snapshot; a client may send it
	// with no payload to request one
	TypeStatus MessageType = "status"

	// TypePause is sent by a client to pause or resume the animation
	TypePause MessageType = "pause"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// TransformPayload is the payload for TypeTransform
type TransformPayload struct {
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	Rotation  float64 `json:"rotation"`
	ScaleX    float64 `json:"scale_x"`
	ScaleY    float64 `json:"scale_y"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// PausePayload is the payload for TypePause
type PausePayload struct {
	Paused bool `json:"paused"`
}
