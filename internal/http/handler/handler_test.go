package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"reminderapi/internal/logger"
	"reminderapi/internal/model"
	"reminderapi/internal/repository"
	"reminderapi/internal/service"
	serviceMocks "reminderapi/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// inlineRunner runs background work before the response is written.
type inlineRunner struct {
	names []string
}

func (r *inlineRunner) Go(name string, fn func(ctx context.Context) error) {
	r.names = append(r.names, name)
	_ = fn(context.Background())
}

// deferredRunner holds background work until run is called, after the
// request that queued it has completed.
type deferredRunner struct {
	fns []func(ctx context.Context) error
}

func (r *deferredRunner) Go(_ string, fn func(ctx context.Context) error) {
	r.fns = append(r.fns, fn)
}

func (r *deferredRunner) run() {
	for _, fn := range r.fns {
		_ = fn(context.Background())
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateCall(t *testing.T) {
	body := `{"first_message":"Hello Ana","time":"09:00","event_type":"Medicine","event_name":"Metformin",` +
		`"calling_to":"15551234567","phone_number":"+15550000000","agent_id":"agent-1","prompt":"be kind"}`

	t.Run("accepted", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReminderService)
		runner := &inlineRunner{}
		app := fiber.New()
		app.Post("/calls", CreateCall(mockSvc, runner, NewValidator(), "reminders.example.com"))

		mockSvc.On("CreateCall", mock.Anything, mock.MatchedBy(func(r model.CallRequest) bool {
			return r.AgentID == "agent-1" && r.CallingTo == "15551234567" && r.EventName == "Metformin"
		}), "reminders.example.com").Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Reminder task created successfully"}`, readBody(t, resp))
		assert.Equal(t, []string{"create_call"}, runner.names)
		mockSvc.AssertExpectations(t)
	})

	t.Run("falls back to request host", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReminderService)
		app := fiber.New()
		app.Post("/calls", CreateCall(mockSvc, &inlineRunner{}, NewValidator(), ""))

		mockSvc.On("CreateCall", mock.Anything, mock.Anything, "api.example.org").Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "http://api.example.org/calls", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("request host outlives the request", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReminderService)
		runner := &deferredRunner{}
		app := fiber.New()
		app.Post("/calls", CreateCall(mockSvc, runner, NewValidator(), ""))

		var hosts []string
		mockSvc.On("CreateCall", mock.Anything, mock.Anything, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { hosts = append(hosts, args.String(2)) }).
			Return(nil)

		for _, host := range []string{"first-host.example.com", "zzzzzz-host.example.org"} {
			req := httptest.NewRequest(http.MethodPost, "http://"+host+"/calls", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusCreated, resp.StatusCode)
		}

		runner.run()
		assert.Equal(t, []string{"first-host.example.com", "zzzzzz-host.example.org"}, hosts)
	})

	t.Run("missing fields", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReminderService)
		app := fiber.New()
		app.Post("/calls", CreateCall(mockSvc, &inlineRunner{}, NewValidator(), "reminders.example.com"))

		req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader(`{"agent_id":"agent-1"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Contains(t, res.Error.Message, "first_message")
		assert.NotContains(t, res.Error.Message, "agent_id")
		mockSvc.AssertNotCalled(t, "CreateCall", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		app := fiber.New()
		app.Post("/calls", CreateCall(new(serviceMocks.MockReminderService), &inlineRunner{}, NewValidator(), ""))

		req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListRecords(t *testing.T) {
	mockSvc := new(serviceMocks.MockReminderService)
	app := fiber.New()
	app.Get("/aicalling/records/:country_code/:agent_id/:date", ListRecords(mockSvc, logger.Discard()))

	t.Run("success", func(t *testing.T) {
		recs := []model.CallRecord{{ID: "1", AgentID: "agent-1", CallDate: "2024-05-01", CallingTo: "+15551234567", Stage: "busy"}}
		mockSvc.On("Records", mock.Anything, "agent-1", "2024-05-01").Return(recs, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/records/us/agent-1/2024-05-01", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var got []model.CallRecord
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Len(t, got, 1)
		assert.Equal(t, "busy", got[0].Stage)
	})

	t.Run("empty day", func(t *testing.T) {
		mockSvc.On("Records", mock.Anything, "agent-1", "2024-05-02").Return(nil, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/records/us/agent-1/2024-05-02", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `[]`, readBody(t, resp))
	})

	t.Run("invalid date", func(t *testing.T) {
		mockSvc.On("Records", mock.Anything, "agent-1", "May-1").Return(nil, service.ErrInvalidDate).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/records/us/agent-1/May-1", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_DATE", res.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Records", mock.Anything, "agent-1", "2024-05-03").Return(nil, errors.New("db down")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/records/us/agent-1/2024-05-03", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetConversationRecord(t *testing.T) {
	mockSvc := new(serviceMocks.MockReminderService)
	app := fiber.New()
	app.Get("/aicalling/conversations/:conversation_id", GetConversationRecord(mockSvc, logger.Discard()))

	t.Run("found", func(t *testing.T) {
		rec := &model.CallRecord{ID: "1", ConversationID: "conv-1", Analysis: map[string]string{"medicine_taken": "success"}}
		mockSvc.On("RecordByConversation", mock.Anything, "conv-1").Return(rec, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/conversations/conv-1", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var got model.CallRecord
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, "success", got.Analysis["medicine_taken"])
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("RecordByConversation", mock.Anything, "nope").Return(nil, repository.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/conversations/nope", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})
}

func TestDownloadReport(t *testing.T) {
	mockSvc := new(serviceMocks.MockReminderService)
	app := fiber.New()
	app.Get("/aicalling/reports/:agent_id/:date", DownloadReport(mockSvc, logger.Discard()))

	report := &service.Report{Filename: "ai_calls_2024-05-01_20240501_093000.csv", Content: []byte("Date,Time\n")}
	mockSvc.On("Report", mock.Anything, "agent-1", "2024-05-01").Return(report, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/reports/agent-1/2024-05-01", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ai_calls_2024-05-01_20240501_093000.csv"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "Date,Time\n", readBody(t, resp))
}

func TestReportLink(t *testing.T) {
	mockSvc := new(serviceMocks.MockReminderService)
	app := fiber.New()
	app.Get("/aicalling/reports/:agent_id/:date/link", ReportLink(mockSvc, logger.Discard()))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("ReportLink", mock.Anything, "agent-1", "2024-05-01").Return("https://minio.local/signed", nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/reports/agent-1/2024-05-01/link", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"success":true,"url":"https://minio.local/signed"}`, readBody(t, resp))
	})

	t.Run("archive disabled", func(t *testing.T) {
		mockSvc.On("ReportLink", mock.Anything, "agent-1", "2024-05-02").Return("", service.ErrArchiveDisabled).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/reports/agent-1/2024-05-02/link", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestCallStatusCallback(t *testing.T) {
	mockSvc := new(serviceMocks.MockReminderService)
	app := fiber.New()
	app.Post("/elevenlabs/callback/outbound-call-status", CallStatusCallback(mockSvc, logger.Discard()))

	post := func(agentID string, form url.Values) *http.Response {
		target := "/elevenlabs/callback/outbound-call-status"
		if agentID != "" {
			target += "?agent_id=" + agentID
		}
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := app.Test(req)
		return resp
	}
	form := url.Values{"To": {"+15551234567"}, "CallStatus": {"busy"}, "ToCountry": {"US"}}

	t.Run("ok", func(t *testing.T) {
		mockSvc.On("HandleCallStatus", mock.Anything, "+15551234567", "busy", "agent-1").Return(nil).Once()

		resp := post("agent-1", form)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OK", readBody(t, resp))
	})

	t.Run("processing error is acknowledged", func(t *testing.T) {
		mockSvc.On("HandleCallStatus", mock.Anything, "+15551234567", "busy", "").Return(service.ErrAgentRequired).Once()

		resp := post("", form)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Error processed", readBody(t, resp))
	})

	t.Run("missing parameters", func(t *testing.T) {
		resp := post("agent-1", url.Values{"To": {"+15551234567"}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Missing required parameters", readBody(t, resp))
	})

	mockSvc.AssertExpectations(t)
}

func TestUpdateRecentRecords(t *testing.T) {
	mockSvc := new(serviceMocks.MockReminderService)
	runner := &inlineRunner{}
	app := fiber.New()
	app.Post("/update-recent-records", UpdateRecentRecords(mockSvc, runner))

	mockSvc.On("SyncRecent", mock.Anything).Return([]model.CallRecord{}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/update-recent-records", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"message":"Update process initiated"}`, readBody(t, resp))
	assert.Equal(t, []string{"sync_recent"}, runner.names)
	mockSvc.AssertExpectations(t)
}

func TestOutboundCallTwiML(t *testing.T) {
	q := url.Values{
		"first_message": {"Hello Ana"},
		"time":          {"09:00"},
		"calling_to":    {"+15551234567"},
		"prompt":        {"be kind & brief"},
		"phone_number":  {"+15550000000"},
		"agent_id":      {"agent-1"},
	}

	t.Run("configured host", func(t *testing.T) {
		app := fiber.New()
		app.Post("/outbound-call-twiml", OutboundCallTwiML("reminders.example.com", logger.Discard()))

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/outbound-call-twiml?"+q.Encode(), nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/xml")
		body := readBody(t, resp)
		assert.Contains(t, body, `<Stream url="wss://reminders.example.com/outbound-media-stream">`)
		assert.Contains(t, body, `name="prompt"`)
		assert.Contains(t, body, `value="be kind &amp; brief"`)
	})

	t.Run("request host without port", func(t *testing.T) {
		app := fiber.New()
		app.Post("/outbound-call-twiml", OutboundCallTwiML("", logger.Discard()))

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "http://api.example.org:8000/outbound-call-twiml?"+q.Encode(), nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `wss://api.example.org/outbound-media-stream`)
	})

	t.Run("missing parameter", func(t *testing.T) {
		app := fiber.New()
		app.Post("/outbound-call-twiml", OutboundCallTwiML("reminders.example.com", logger.Discard()))

		partial := url.Values{"agent_id": {"agent-1"}}
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/outbound-call-twiml?"+partial.Encode(), nil))

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestListAgents(t *testing.T) {
	mockSvc := new(serviceMocks.MockReminderService)
	app := fiber.New()
	app.Get("/aicalling/agents", ListAgents(mockSvc, logger.Discard()))

	mockSvc.On("Agents", mock.Anything).Return(json.RawMessage(`{"agents":[{"agent_id":"a1"}]}`), nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/aicalling/agents", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"agents":{"agents":[{"agent_id":"a1"}]}}`, readBody(t, resp))
}

func TestRegisterRoutes(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "reminder_probe_total", Help: "probe"}))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, db, new(serviceMocks.MockReminderService), &inlineRunner{}, RouteConfig{
		Log:      logger.Discard(),
		Gatherer: reg,
	})

	t.Run("metrics", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "reminder_probe_total")
	})

	t.Run("media stream requires upgrade", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/outbound-media-stream", nil))
		assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UPGRADE_REQUIRED", res.Error.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", bytes.NewReader(nil)))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
