package telephony

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"

	"reminderapi/internal/model"
)

// streamParameters lists the custom parameters in the order they are sent.
func streamParameters(p model.StreamParameters) []twiml.Element {
	fields := []struct{ name, value string }{
		{"first_message", p.FirstMessage},
		{"time", p.Time},
		{"calling_to", p.CallingTo},
		{"prompt", p.Prompt},
		{"phone_number", p.PhoneNumber},
		{"agent_id", p.AgentID},
	}
	elems := make([]twiml.Element, 0, len(fields))
	for _, f := range fields {
		elems = append(elems, &twiml.VoiceParameter{Name: f.name, Value: f.value})
	}
	return elems
}

// BuildStreamTwiML renders the TwiML that connects an answered call to the
// media stream websocket at streamURL, carrying p as custom parameters.
func BuildStreamTwiML(streamURL string, p model.StreamParameters) ([]byte, error) {
	doc, err := twiml.Voice([]twiml.Element{
		&twiml.VoiceConnect{
			InnerElements: []twiml.Element{
				&twiml.VoiceStream{
					Url:           streamURL,
					InnerElements: streamParameters(p),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render twiml: %w", err)
	}
	return []byte(doc), nil
}
