// Package obs implements the subset of the obs-websocket v5 protocol needed
// to read and write a scene item's transform.
package obs

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// OpCode identifies the kind of message on the wire
type OpCode int

const (
	OpHello           OpCode = 0
	OpIdentify        OpCode = 1
	OpIdentified      OpCode = 2
	OpEvent           OpCode = 5
	OpRequest         OpCode = 6
	OpRequestResponse OpCode = 7
)

// RPCVersion is the protocol revision requested during Identify
const RPCVersion = 1

// Subprotocol is the websocket subprotocol for JSON encoding
const Subprotocol = "obswebsocket.json"

// Request status codes used by this client
const (
	StatusSuccess          = 100
	StatusResourceNotFound = 600
)

// CloseAuthenticationFailed is the close code sent when Identify is rejected
const CloseAuthenticationFailed = 4009

// Message is the envelope for every frame
type Message struct {
	Op OpCode          `json:"op"`
	D  json.RawMessage `json:"d"`
}

// Hello is sent by the server immediately after connecting
type Hello struct {
	OBSWebSocketVersion string         `json:"obsWebSocketVersion"`
	RPCVersion          int            `json:"rpcVersion"`
	Authentication      *Authentication `json:"authentication,omitempty"`
}

// Authentication carries the challenge when the server requires a password
type Authentication struct {
	Challenge string `json:"challenge"`
	Salt      string `json:"salt"`
}

// Identify answers Hello
type Identify struct {
	RPCVersion         int    `json:"rpcVersion"`
	Authentication     string `json:"authentication,omitempty"`
	EventSubscriptions int    `json:"eventSubscriptions"`
}

// Identified confirms the session
type Identified struct {
	NegotiatedRPCVersion int `json:"negotiatedRpcVersion"`
}

// Request is a single request frame
type Request struct {
	RequestType string      `json:"requestType"`
	RequestID   string      `json:"requestId"`
	RequestData interface{} `json:"requestData,omitempty"`
}

// RequestResponse answers a Request with the same RequestID
type RequestResponse struct {
	RequestType   string          `json:"requestType"`
	RequestID     string          `json:"requestId"`
	RequestStatus RequestStatus   `json:"requestStatus"`
	ResponseData  json.RawMessage `json:"responseData,omitempty"`
}

// RequestStatus reports the outcome of a request
type RequestStatus struct {
	Result  bool   `json:"result"`
	Code    int    `json:"code"`
	Comment string `json:"comment,omitempty"`
}

// SceneItemTransform is the wire form of a scene item's transform.
// Only the fields this client writes are listed.
type SceneItemTransform struct {
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
	Rotation  float64 `json:"rotation"`
	ScaleX    float64 `json:"scaleX"`
	ScaleY    float64 `json:"scaleY"`
}

// Scene is an entry of GetSceneList
type Scene struct {
	Name  string `json:"sceneName"`
	Index int    `json:"sceneIndex"`
}

// SceneItem is an entry of GetSceneItemList
type SceneItem struct {
	ID         int    `json:"sceneItemId"`
	SourceName string `json:"sourceName"`
	Index      int    `json:"sceneItemIndex"`
}

// AuthResponse computes the Identify authentication string:
// base64(sha256(base64(sha256(password + salt)) + challenge))
func AuthResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	auth := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(auth[:])
}

func encode(op OpCode, d interface{}) (Message, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return Message{}, err
	}
	return Message{Op: op, D: raw}, nil
}
