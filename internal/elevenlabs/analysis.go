package elevenlabs

import (
	"bytes"
	"encoding/json"
	"strings"
)

// VitalKeys are the data collection fields copied into the call analysis.
var VitalKeys = []string{
	"Diastolic blood pressure",
	"blood glucose level",
	"Systolic blood pressure",
}

// ConversationDetails is the part of GET /v1/convai/conversations/{id} we read.
type ConversationDetails struct {
	ConversationID string    `json:"conversation_id"`
	Status         string    `json:"status"`
	Analysis       *Analysis `json:"analysis"`
}

// Analysis is the post-call evaluation produced by the agent.
type Analysis struct {
	EvaluationCriteriaResults map[string]CriteriaResult `json:"evaluation_criteria_results"`
	DataCollectionResults     map[string]DataResult     `json:"data_collection_results"`
	CallSuccessful            string                    `json:"call_successful"`
}

// CriteriaResult is one evaluation criterion outcome.
type CriteriaResult struct {
	Result json.RawMessage `json:"result"`
}

// DataResult is one collected data point.
type DataResult struct {
	Value json.RawMessage `json:"value"`
}

// ExtractAnalysis flattens the analysis into the string map stored on a call
// record: every criterion by name, the vital readings that have a value
// (snake_cased), and call_successful. A conversation without analysis yields
// an empty map.
func ExtractAnalysis(d ConversationDetails) map[string]string {
	out := map[string]string{}
	if d.Analysis == nil {
		return out
	}
	for name, res := range d.Analysis.EvaluationCriteriaResults {
		if v, ok := rawString(res.Result); ok {
			out[name] = v
		}
	}
	for _, key := range VitalKeys {
		res, ok := d.Analysis.DataCollectionResults[key]
		if !ok {
			continue
		}
		if v, ok := rawString(res.Value); ok {
			out[SnakeCase(key)] = v
		}
	}
	if d.Analysis.CallSuccessful != "" {
		out["call_successful"] = d.Analysis.CallSuccessful
	}
	return out
}

// SnakeCase lowercases s and replaces spaces with underscores.
func SnakeCase(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

// rawString renders a JSON scalar as text. Strings are unquoted, other values
// keep their JSON form; null and absent values report false.
func rawString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(raw), true
}
