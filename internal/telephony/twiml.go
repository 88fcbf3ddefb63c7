package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"net/http"
	"strings"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlRecord struct {
	XMLName xml.Name `xml:"Record"`

	Action    string `xml:"action,attr"`
	Method    string `xml:"method,attr"`
	MaxLength int    `xml:"maxLength,attr"`

	Transcribe         bool   `xml:"transcribe,attr"`
	TranscribeCallback string `xml:"transcribeCallback,attr,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlReject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

// DefaultGreeting is spoken when the agent has no configured greeting.
const DefaultGreeting = "Hello, thank you for calling. Please leave a message after the tone."

// VoiceResponseConfig carries the callback endpoints the provider should hit
// after recording, and recording limits.
type VoiceResponseConfig struct {
	// RecordingCallbackURL receives the recording once the caller hangs up.
	RecordingCallbackURL string
	// TranscriptionCallbackURL receives the transcript text.
	TranscriptionCallbackURL string
	// MaxRecordingSeconds bounds the caller's message. Defaults to 120.
	MaxRecordingSeconds int
	// Voice optionally selects the provider TTS voice for Say.
	Voice string
}

// VoiceResponse renders the scripted answer for the first live event of a
// call: speak the agent's greeting, then record the caller with transcription
// enabled. Pure function of its inputs; no side effects.
func VoiceResponse(greeting string, cfg VoiceResponseConfig) (string, error) {
	if strings.TrimSpace(cfg.RecordingCallbackURL) == "" {
		return "", errors.New("telephony: recording callback url required")
	}
	if strings.TrimSpace(greeting) == "" {
		greeting = DefaultGreeting
	}
	maxLen := cfg.MaxRecordingSeconds
	if maxLen <= 0 {
		maxLen = 120
	}

	var r twimlResponse
	r.Verbs = append(r.Verbs,
		twimlSay{Voice: cfg.Voice, Text: greeting},
		twimlRecord{
			Action:             cfg.RecordingCallbackURL,
			Method:             http.MethodPost,
			MaxLength:          maxLen,
			Transcribe:         true,
			TranscribeCallback: cfg.TranscriptionCallbackURL,
		},
	)
	return renderTwiML(r)
}

// HangupResponse acknowledges a callback and ends the call.
func HangupResponse() (string, error) {
	return renderTwiML(twimlResponse{Verbs: []any{twimlHangup{}}})
}

// RejectResponse refuses the call, used when the per-agent call cap is hit.
func RejectResponse() (string, error) {
	return renderTwiML(twimlResponse{Verbs: []any{twimlReject{Reason: "busy"}}})
}

func renderTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
