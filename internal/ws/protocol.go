package ws

import (
	"encoding/json"

	"github.com/scrollguide/guide/internal/engine"
)

type MessageType string

// Client to server.
const (
	MsgLayout     MessageType = "layout"
	MsgScroll     MessageType = "scroll"
	MsgVisibility MessageType = "visibility"
	MsgInteract   MessageType = "interact"
)

// Server to client.
const (
	MsgHello       MessageType = "hello"
	MsgState       MessageType = "state"
	MsgInteraction MessageType = "interaction"
	MsgError       MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// inbound defers payload decoding until the type is known.
type inbound struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type SectionInfo struct {
	ID      string `json:"id"`
	Gesture string `json:"gesture"`
	Title   string `json:"title,omitempty"`
}

type HelloPayload struct {
	Instance string        `json:"instance"`
	Sections []SectionInfo `json:"sections"`
}

type RectPayload struct {
	ID     string  `json:"id"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

type ViewportPayload struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// LayoutPayload carries element geometry in document coordinates. The first
// layout on a connection mounts the guide.
type LayoutPayload struct {
	Sections []RectPayload   `json:"sections"`
	Viewport ViewportPayload `json:"viewport"`
}

// VisibilityPayload is reported by hosts running their own intersection
// observer instead of sending geometry.
type VisibilityPayload struct {
	SectionID string `json:"sectionId"`
	Visible   bool   `json:"visible"`
}

type StatePayload struct {
	Seq             int     `json:"seq"`
	Gesture         string  `json:"gesture"`
	Message         string  `json:"message"`
	ActiveSectionID *string `json:"activeSectionId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type InstanceInfo struct {
	ID string `json:"id"`
	StatePayload
}

func statePayload(seq int, st engine.State) StatePayload {
	p := StatePayload{
		Seq:     seq,
		Gesture: string(st.Gesture),
		Message: st.Message,
	}
	if st.ActiveSectionID != "" {
		id := st.ActiveSectionID
		p.ActiveSectionID = &id
	}
	return p
}
