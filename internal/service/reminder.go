package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"reminderapi/internal/config"
	"reminderapi/internal/elevenlabs"
	"reminderapi/internal/metrics"
	"reminderapi/internal/model"
	"reminderapi/internal/repository"
	"reminderapi/internal/storage"
	"reminderapi/internal/telephony"
)

var (
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrAgentRequired    = errors.New("agent id is required")
	ErrHostRequired     = errors.New("public host is required")
	ErrArchiveDisabled  = errors.New("report archive is not configured")
	ErrStreamNotStarted = errors.New("media stream not started")
)

// Paths the telephony provider calls back on.
const (
	TwiMLPath          = "/outbound-call-twiml"
	StatusCallbackPath = "/elevenlabs/callback/outbound-call-status"
	MediaStreamPath    = "/outbound-media-stream"
)

// ReminderService defines the reminder call use cases.
type ReminderService interface {
	// CreateCall records the call and asks the telephony provider to dial it.
	// host is the public host the provider calls back on.
	CreateCall(ctx context.Context, req model.CallRequest, host string) error

	// HandleCallStatus applies a telephony status callback. Only terminal
	// statuses change the stored stage.
	HandleCallStatus(ctx context.Context, to, status, agentID string) error

	// Records returns an agent's calls for one day.
	Records(ctx context.Context, agentID, date string) ([]model.CallRecord, error)

	// RecordByConversation returns the call linked to an agent conversation.
	RecordByConversation(ctx context.Context, conversationID string) (*model.CallRecord, error)

	// Report renders an agent's calls for one day as CSV and archives it when
	// an archive is configured.
	Report(ctx context.Context, agentID, date string) (*Report, error)

	// ReportLink archives a fresh report and returns a time-limited download link.
	ReportLink(ctx context.Context, agentID, date string) (string, error)

	// SyncRecent merges agent conversation analysis into recently created records.
	SyncRecent(ctx context.Context) ([]model.CallRecord, error)

	// Agents lists the agents available on the conversational AI platform.
	Agents(ctx context.Context) (json.RawMessage, error)

	// ServeMediaStream bridges one telephony media stream to an agent conversation
	// until the stream stops.
	ServeMediaStream(ctx context.Context, conn MessageConn) error
}

// Deps are the collaborators of the reminder service. Store may be nil.
type Deps struct {
	Repo          repository.CallRepository
	Store         storage.Storage
	Dialer        telephony.Dialer
	Agents        elevenlabs.Client
	Conversations elevenlabs.ConversationDialer
	Metrics       *metrics.Metrics
	Log           *slog.Logger
	Config        config.CallConfig
	Now           func() time.Time
}

// reminderService is a concrete implementation of ReminderService.
type reminderService struct {
	repo          repository.CallRepository
	store         storage.Storage
	dialer        telephony.Dialer
	agents        elevenlabs.Client
	conversations elevenlabs.ConversationDialer
	metrics       *metrics.Metrics
	log           *slog.Logger
	cfg           config.CallConfig
	keepalive     time.Duration
	now           func() time.Time
}

// NewReminderService constructs a new ReminderService.
func NewReminderService(d Deps) ReminderService {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	keepalive := d.Config.KeepaliveInterval()
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}
	return &reminderService{
		repo:          d.Repo,
		store:         d.Store,
		dialer:        d.Dialer,
		agents:        d.Agents,
		conversations: d.Conversations,
		metrics:       d.Metrics,
		log:           d.Log,
		cfg:           d.Config,
		keepalive:     keepalive,
		now:           now,
	}
}

func (s *reminderService) today() string {
	return s.now().UTC().Format(model.DateLayout)
}

// EnrichPrompt appends the reminder subject to the agent prompt for medicine
// and vital sign reminders.
func EnrichPrompt(req model.CallRequest) string {
	switch req.EventType {
	case model.EventMedicine:
		return req.Prompt + ". Calling For: " + req.EventType + ", Medicine name: " + req.EventName
	case model.EventVital:
		return req.Prompt + ". Calling For: " + req.EventType + ", Vital name: " + req.EventName
	default:
		return req.Prompt
	}
}

func (s *reminderService) CreateCall(ctx context.Context, req model.CallRequest, host string) error {
	if host == "" {
		return ErrHostRequired
	}
	log := s.log.With("component", "twilio", "agent_id", req.AgentID)

	req.CallingTo = "+" + strings.TrimPrefix(req.CallingTo, "+")
	req.Prompt = EnrichPrompt(req)

	now := s.now().UTC()
	rec := &model.CallRecord{
		ID:        uuid.NewString(),
		AgentID:   req.AgentID,
		CallDate:  now.Format(model.DateLayout),
		CallingTo: req.CallingTo,
		Stage:     model.StageCallInitiated,
		Prompt:    req.Prompt,
		Time:      req.Time,
		CreatedAt: now,
	}
	if _, err := s.repo.Create(ctx, rec); err != nil {
		s.metrics.CallsCreated.WithLabelValues("error").Inc()
		return fmt.Errorf("create call record: %w", err)
	}

	callbackQuery := url.Values{"agent_id": []string{req.AgentID}}
	call := telephony.OutboundCall{
		To:                req.CallingTo,
		From:              req.PhoneNumber,
		TwiMLURL:          "https://" + host + TwiMLPath + "?" + req.Values().Encode(),
		StatusCallbackURL: "https://" + host + StatusCallbackPath + "?" + callbackQuery.Encode(),
	}
	sid, err := s.dialer.Dial(ctx, call)
	if err != nil {
		s.metrics.CallsCreated.WithLabelValues("error").Inc()
		if uerr := s.repo.UpdateStage(ctx, rec.Key(), model.StageCallFailed); uerr != nil {
			log.Error("mark call failed", "calling_to", req.CallingTo, "error", uerr)
		}
		return fmt.Errorf("dial: %w", err)
	}

	s.metrics.CallsCreated.WithLabelValues("ok").Inc()
	log.Info("call created", "call_sid", sid, "calling_to", req.CallingTo, "time", req.Time)
	return nil
}

func (s *reminderService) HandleCallStatus(ctx context.Context, to, status, agentID string) error {
	s.metrics.CallStatus.WithLabelValues(status).Inc()
	if !telephony.TerminalStatuses[status] || to == "" {
		return nil
	}
	if agentID == "" {
		return ErrAgentRequired
	}
	key := model.CallKey{AgentID: agentID, CallDate: s.today(), CallingTo: to}
	if err := s.repo.UpdateStage(ctx, key, status); err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	s.log.Info("call ended without conversation", "component", "twilio", "calling_to", to, "status", status, "agent_id", agentID)
	return nil
}

func validateDate(date string) error {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func (s *reminderService) Records(ctx context.Context, agentID, date string) ([]model.CallRecord, error) {
	if agentID == "" {
		return nil, ErrAgentRequired
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	return s.repo.ListByDate(ctx, agentID, date)
}

func (s *reminderService) RecordByConversation(ctx context.Context, conversationID string) (*model.CallRecord, error) {
	if conversationID == "" {
		return nil, repository.ErrNotFound
	}
	return s.repo.FindByConversationID(ctx, conversationID)
}

func (s *reminderService) SyncRecent(ctx context.Context) ([]model.CallRecord, error) {
	log := s.log.With("component", "sync")
	end := s.now().UTC()
	start := end.Add(-s.cfg.SyncLookback())

	records, err := s.repo.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list recent calls: %w", err)
	}

	var g errgroup.Group
	if s.cfg.SyncConcurrency > 0 {
		g.SetLimit(s.cfg.SyncConcurrency)
	}
	for _, rec := range records {
		if rec.ConversationID == "" {
			continue
		}
		convID := rec.ConversationID
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			analysis, err := s.agents.ConversationAnalysis(ctx, convID)
			if err != nil {
				s.metrics.AnalysisSynced.WithLabelValues("error").Inc()
				log.Error("fetch conversation analysis", "conversation_id", convID, "error", err)
				return nil
			}
			if len(analysis) == 0 {
				s.metrics.AnalysisSynced.WithLabelValues("empty").Inc()
				return nil
			}
			if err := s.repo.MergeAnalysis(ctx, convID, analysis); err != nil {
				s.metrics.AnalysisSynced.WithLabelValues("error").Inc()
				log.Error("merge conversation analysis", "conversation_id", convID, "error", err)
				return nil
			}
			s.metrics.AnalysisSynced.WithLabelValues("ok").Inc()
			return nil
		})
	}
	_ = g.Wait()

	log.Info("recent records synced", "records", len(records), "window_start", start, "window_end", end)
	return records, nil
}

func (s *reminderService) Agents(ctx context.Context) (json.RawMessage, error) {
	return s.agents.ListAgents(ctx)
}
