package telephony

import (
	"encoding/json"

	"reminderapi/internal/model"
)

// Media stream event names.
const (
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"
	EventClear = "clear"
)

// MediaMessage is one JSON frame on a Twilio media stream, in either direction.
type MediaMessage struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *StreamStart  `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
}

// StreamStart is the body of the "start" event.
type StreamStart struct {
	StreamSID        string                 `json:"streamSid"`
	CallSID          string                 `json:"callSid,omitempty"`
	CustomParameters model.StreamParameters `json:"customParameters"`
}

// MediaPayload carries base64 encoded mu-law audio.
type MediaPayload struct {
	Payload string `json:"payload"`
}

// OutboundMedia encodes audio to play into the call.
func OutboundMedia(streamSID, payload string) []byte {
	b, _ := json.Marshal(MediaMessage{Event: EventMedia, StreamSID: streamSID, Media: &MediaPayload{Payload: payload}})
	return b
}

// OutboundClear encodes a request to drop audio already buffered for playback.
func OutboundClear(streamSID string) []byte {
	b, _ := json.Marshal(MediaMessage{Event: EventClear, StreamSID: streamSID})
	return b
}
