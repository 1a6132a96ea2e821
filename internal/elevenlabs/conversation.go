package elevenlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fasthttp/websocket"
)

// Conversation websocket message types.
const (
	TypeInitiationMetadata   = "conversation_initiation_metadata"
	TypeInitiationClientData = "conversation_initiation_client_data"
	TypeAudio                = "audio"
	TypeInterruption         = "interruption"
	TypePing                 = "ping"
	TypePong                 = "pong"
	TypeError                = "error"
	TypeConversationStarted  = "conversation_started"
)

// Conn is a message-oriented websocket connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ConversationDialer opens conversation websockets.
type ConversationDialer interface {
	Dial(ctx context.Context, signedURL string) (Conn, error)
}

type wsDialer struct {
	dialer *websocket.Dialer
}

// NewConversationDialer returns a dialer with the given handshake timeout.
func NewConversationDialer(handshakeTimeout time.Duration) ConversationDialer {
	return &wsDialer{dialer: &websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: handshakeTimeout,
	}}
}

func (d *wsDialer) Dial(ctx context.Context, signedURL string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, signedURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial conversation: %w", err)
	}
	return conn, nil
}

// AgentMessage is one frame received from the agent.
type AgentMessage struct {
	Type               string              `json:"type"`
	InitiationMetadata *InitiationMetadata `json:"conversation_initiation_metadata_event,omitempty"`
	AudioEvent         *AudioEvent         `json:"audio_event,omitempty"`
	PingEvent          *PingEvent          `json:"ping_event,omitempty"`
}

// InitiationMetadata is sent first on every conversation.
type InitiationMetadata struct {
	ConversationID string `json:"conversation_id"`
}

// AudioEvent carries agent speech as base64 audio.
type AudioEvent struct {
	AudioBase64 string `json:"audio_base_64"`
}

// PingEvent asks for a pong echoing EventID.
type PingEvent struct {
	EventID json.RawMessage `json:"event_id"`
}

// HasEventID reports whether the ping carries a usable event id.
func (p *PingEvent) HasEventID() bool {
	if p == nil {
		return false
	}
	_, ok := rawString(p.EventID)
	return ok
}

// ClientInitiationData overrides the agent prompt and greeting for one conversation.
type ClientInitiationData struct {
	Type                       string         `json:"type"`
	ConversationConfigOverride ConfigOverride `json:"conversation_config_override"`
}

// ConfigOverride is the conversation_config_override body.
type ConfigOverride struct {
	Agent AgentOverride `json:"agent"`
}

// AgentOverride holds the per-call agent settings.
type AgentOverride struct {
	Prompt       PromptOverride `json:"prompt"`
	FirstMessage string         `json:"first_message"`
}

// PromptOverride wraps the system prompt.
type PromptOverride struct {
	Prompt string `json:"prompt"`
}

// NewClientInitiationData builds the initial config frame.
func NewClientInitiationData(prompt, firstMessage string) ClientInitiationData {
	return ClientInitiationData{
		Type: TypeInitiationClientData,
		ConversationConfigOverride: ConfigOverride{
			Agent: AgentOverride{
				Prompt:       PromptOverride{Prompt: prompt},
				FirstMessage: firstMessage,
			},
		},
	}
}

// UserAudioChunk forwards caller audio to the agent.
type UserAudioChunk struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}

// Pong answers a ping.
type Pong struct {
	Type    string          `json:"type"`
	EventID json.RawMessage `json:"event_id"`
}

// KeepalivePing is the client-initiated keepalive frame.
type KeepalivePing struct {
	Type string `json:"type"`
}
