package model

import (
	"net/url"
	"time"
)

// Call stages stored on a CallRecord. Terminal telephony statuses (busy,
// no-answer, failed, canceled) are stored verbatim.
const (
	StageCallInitiated = "call_initiated"
	StageCallFailed    = "call_failed"
)

// Reminder event types that enrich the agent prompt.
const (
	EventMedicine = "Medicine"
	EventVital    = "Vital"
)

// DateLayout is the calendar day format used in record keys and URLs.
const DateLayout = "2006-01-02"

// CallRequest is the payload accepted by POST /calls.
type CallRequest struct {
	FirstMessage string `json:"first_message" validate:"required"`
	Time         string `json:"time" validate:"required"`
	EventType    string `json:"event_type" validate:"required"`
	EventName    string `json:"event_name" validate:"required"`
	CallingTo    string `json:"calling_to" validate:"required"`
	PhoneNumber  string `json:"phone_number" validate:"required"`
	AgentID      string `json:"agent_id" validate:"required"`
	Prompt       string `json:"prompt" validate:"required"`
}

// Values encodes every field as query parameters, keyed by JSON name.
func (r CallRequest) Values() url.Values {
	v := url.Values{}
	v.Set("first_message", r.FirstMessage)
	v.Set("time", r.Time)
	v.Set("event_type", r.EventType)
	v.Set("event_name", r.EventName)
	v.Set("calling_to", r.CallingTo)
	v.Set("phone_number", r.PhoneNumber)
	v.Set("agent_id", r.AgentID)
	v.Set("prompt", r.Prompt)
	return v
}

// CallKey identifies one reminder call: a number dialed by an agent on a day.
type CallKey struct {
	AgentID   string
	CallDate  string
	CallingTo string
}

// CallRecord is the persisted state of one reminder call.
type CallRecord struct {
	ID             string            `json:"id"`
	AgentID        string            `json:"agent_id"`
	CallDate       string            `json:"call_date"`
	CallingTo      string            `json:"calling_to"`
	Stage          string            `json:"stage"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Prompt         string            `json:"prompt"`
	Time           string            `json:"time"`
	Analysis       map[string]string `json:"analysis"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Key returns the identity key of the record.
func (r CallRecord) Key() CallKey {
	return CallKey{AgentID: r.AgentID, CallDate: r.CallDate, CallingTo: r.CallingTo}
}

// StreamParameters are carried from the TwiML document into the media stream
// "start" message as custom parameters.
type StreamParameters struct {
	FirstMessage string `json:"first_message"`
	Time         string `json:"time"`
	CallingTo    string `json:"calling_to"`
	Prompt       string `json:"prompt"`
	PhoneNumber  string `json:"phone_number"`
	AgentID      string `json:"agent_id"`
}

// Complete reports whether every parameter is present.
func (p StreamParameters) Complete() bool {
	return p.FirstMessage != "" && p.Time != "" && p.CallingTo != "" &&
		p.Prompt != "" && p.PhoneNumber != "" && p.AgentID != ""
}
