package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"reminderapi/internal/elevenlabs"
	"reminderapi/internal/model"
	"reminderapi/internal/telephony"
)

const defaultKeepalive = 30 * time.Second

// MessageConn is a message-oriented websocket connection.
type MessageConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// lockedConn serializes writes; a websocket allows one concurrent writer.
type lockedConn struct {
	mu   sync.Mutex
	conn MessageConn
}

func (c *lockedConn) writeText(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *lockedConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.writeText(b)
}

// mediaBridge relays one telephony media stream to one agent conversation.
type mediaBridge struct {
	svc    *reminderService
	log    *slog.Logger
	caller *lockedConn
	agent  *lockedConn

	streamSID      string
	params         model.StreamParameters
	conversationID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ServeMediaStream runs until the caller stops the stream, either side fails
// or ctx is cancelled. Cancelling ctx closes both connections.
func (s *reminderService) ServeMediaStream(ctx context.Context, conn MessageConn) error {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	b := &mediaBridge{
		svc:    s,
		log:    s.log.With("component", "stream"),
		caller: &lockedConn{conn: conn},
		ctx:    ctx,
		cancel: cancel,
	}
	s.metrics.ActiveStreams.Inc()
	defer s.metrics.ActiveStreams.Dec()
	defer b.close()

	// Unblocks the read loop below on shutdown; the deferred close then ends
	// the agent conversation.
	log := b.log
	stopWatch := context.AfterFunc(parent, func() {
		cancel()
		if err := conn.Close(); err != nil {
			log.Debug("close media stream", "error", err)
		}
	})
	defer stopWatch()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read media stream: %w", err)
		}
		done, err := b.handleCaller(data)
		if err != nil || done {
			return err
		}
	}
}

func (b *mediaBridge) handleCaller(data []byte) (bool, error) {
	var msg telephony.MediaMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		b.log.Error("decode media message", "error", err)
		return false, nil
	}

	switch msg.Event {
	case telephony.EventStart:
		if b.agent != nil {
			b.log.Warn("duplicate start event", "stream_sid", b.streamSID)
			return false, nil
		}
		if msg.Start == nil || !msg.Start.CustomParameters.Complete() {
			return true, fmt.Errorf("%w: incomplete stream parameters", ErrStreamNotStarted)
		}
		b.streamSID = msg.Start.StreamSID
		b.params = msg.Start.CustomParameters
		b.log = b.log.With("stream_sid", b.streamSID, "agent_id", b.params.AgentID)
		b.log.Info("stream started", "call_sid", msg.Start.CallSID)
		if err := b.start(); err != nil {
			return true, err
		}
	case telephony.EventMedia:
		if b.agent == nil || msg.Media == nil {
			return false, nil
		}
		b.forwardAudio(msg.Media.Payload)
	case telephony.EventStop:
		b.log.Info("stream stopped")
		return true, nil
	}
	return false, nil
}

func (b *mediaBridge) key() model.CallKey {
	return model.CallKey{AgentID: b.params.AgentID, CallDate: b.svc.today(), CallingTo: b.params.CallingTo}
}

// start opens the agent conversation, links it to the call record and
// starts relaying agent frames.
func (b *mediaBridge) start() error {
	signedURL, err := b.svc.agents.SignedURL(b.ctx, b.params.AgentID)
	if err != nil {
		return b.fail(err)
	}
	conn, err := b.svc.conversations.Dial(b.ctx, signedURL)
	if err != nil {
		return b.fail(err)
	}
	b.agent = &lockedConn{conn: conn}
	// Unblocks the metadata read if the bridge is cancelled during setup.
	context.AfterFunc(b.ctx, func() { _ = conn.Close() })

	_, first, err := conn.ReadMessage()
	if err != nil {
		return b.fail(fmt.Errorf("read initiation metadata: %w", err))
	}
	var meta elevenlabs.AgentMessage
	if err := json.Unmarshal(first, &meta); err != nil {
		return b.fail(fmt.Errorf("decode initiation metadata: %w", err))
	}
	if meta.Type == elevenlabs.TypeInitiationMetadata && meta.InitiationMetadata != nil {
		b.conversationID = meta.InitiationMetadata.ConversationID
		if err := b.svc.repo.SetConversationID(b.ctx, b.key(), b.conversationID); err != nil {
			return b.fail(fmt.Errorf("link conversation: %w", err))
		}
		b.log = b.log.With("conversation_id", b.conversationID)
	}

	if err := b.agent.writeJSON(elevenlabs.NewClientInitiationData(b.params.Prompt, b.params.FirstMessage)); err != nil {
		return b.fail(fmt.Errorf("send initial config: %w", err))
	}

	b.wg.Add(2)
	go b.relayAgent()
	go b.keepalive()
	return nil
}

// fail marks the call failed and wraps cause.
func (b *mediaBridge) fail(cause error) error {
	if err := b.svc.repo.UpdateStage(context.WithoutCancel(b.ctx), b.key(), model.StageCallFailed); err != nil {
		b.log.Error("mark call failed", "error", err)
	}
	return fmt.Errorf("agent setup: %w", cause)
}

func (b *mediaBridge) forwardAudio(payload string) {
	audio, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		b.log.Error("invalid media payload", "error", err)
		return
	}
	chunk := elevenlabs.UserAudioChunk{UserAudioChunk: base64.StdEncoding.EncodeToString(audio)}
	if err := b.agent.writeJSON(chunk); err != nil {
		b.log.Error("forward caller audio", "error", err)
	}
}

func (b *mediaBridge) relayAgent() {
	defer b.wg.Done()
	for {
		_, data, err := b.agent.conn.ReadMessage()
		if err != nil {
			if b.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				b.log.Error("read agent conversation", "error", err)
			}
			return
		}
		b.handleAgent(data)
	}
}

func (b *mediaBridge) handleAgent(data []byte) {
	var msg elevenlabs.AgentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		b.log.Error("decode agent message", "error", err)
		return
	}

	var err error
	switch msg.Type {
	case elevenlabs.TypeAudio:
		if msg.AudioEvent == nil || msg.AudioEvent.AudioBase64 == "" {
			b.log.Error("agent audio without payload")
			return
		}
		err = b.caller.writeText(telephony.OutboundMedia(b.streamSID, msg.AudioEvent.AudioBase64))
	case elevenlabs.TypeInterruption:
		err = b.caller.writeText(telephony.OutboundClear(b.streamSID))
	case elevenlabs.TypePing:
		if msg.PingEvent.HasEventID() {
			err = b.agent.writeJSON(elevenlabs.Pong{Type: elevenlabs.TypePong, EventID: msg.PingEvent.EventID})
		}
	case elevenlabs.TypeError:
		b.log.Error("agent reported error", "message", string(data))
	case elevenlabs.TypeConversationStarted:
		b.log.Info("conversation started")
	default:
		b.log.Debug("unhandled agent message", "type", msg.Type)
	}
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		b.log.Error("relay agent message", "type", msg.Type, "error", err)
	}
}

func (b *mediaBridge) keepalive() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.svc.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			if err := b.agent.writeJSON(elevenlabs.KeepalivePing{Type: elevenlabs.TypePing}); err != nil {
				b.log.Warn("keepalive ping", "error", err)
				return
			}
		}
	}
}

func (b *mediaBridge) close() {
	b.cancel()
	if b.agent != nil {
		if err := b.agent.conn.Close(); err != nil {
			b.log.Debug("close agent conversation", "error", err)
		}
	}
	b.wg.Wait()
}
