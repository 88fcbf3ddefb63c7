package telephony

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"callagent-platform/internal/calls"
)

// StatusCallbackForm captures the subset of Twilio voice webhook fields we
// consume. Twilio sends application/x-www-form-urlencoded by default.
// Ref: https://www.twilio.com/docs/voice/twiml
//
// Keep it minimal and provider-adapter-only. Lifecycle decisions are not made
// here.

type StatusCallbackForm struct {
	CallSid    string
	AccountSid string
	From       string
	To         string
	CallStatus string

	// Optional fields on completion / recording / transcription callbacks.
	RecordingURL      string
	RecordingSid      string
	CallDuration      int
	TranscriptionText string
}

var ErrMissingCallSid = errors.New("telephony: CallSid is required")

// ParseStatusCallback decodes a Twilio status/recording/transcription
// callback. A missing CallSid is a hard failure: there is nothing to key the
// call record on.
func ParseStatusCallback(r *http.Request) (StatusCallbackForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallbackForm{}, err
	}
	f := StatusCallbackForm{
		CallSid:           strings.TrimSpace(r.PostFormValue("CallSid")),
		AccountSid:        r.PostFormValue("AccountSid"),
		From:              normalizePhone(r.PostFormValue("From")),
		To:                normalizePhone(r.PostFormValue("To")),
		CallStatus:        strings.ToLower(strings.TrimSpace(r.PostFormValue("CallStatus"))),
		RecordingURL:      strings.TrimSpace(r.PostFormValue("RecordingUrl")),
		RecordingSid:      r.PostFormValue("RecordingSid"),
		TranscriptionText: r.PostFormValue("TranscriptionText"),
	}
	if v := strings.TrimSpace(r.PostFormValue("CallDuration")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.CallDuration = n
		}
	}
	if f.CallSid == "" {
		return StatusCallbackForm{}, ErrMissingCallSid
	}
	return f, nil
}

// normalizePhone strips number formatting so dialed numbers hit the
// exact-match agent resolver: "+1 (555) 000-1111" and "+15550001111" are the
// same number. Twilio sends E.164, but carriers and SIP trunks are sloppier.
// Non-numeric caller IDs ("anonymous", "restricted", SIP URIs) pass through
// untouched.
func normalizePhone(s string) string {
	s = strings.TrimSpace(s)

	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, s)

	digits := strings.TrimPrefix(stripped, "+")
	if digits == "" {
		return s
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return s
		}
	}
	return stripped
}

// EventClass buckets the provider's status vocabulary.
type EventClass int

const (
	// EventLive: the call is ringing or answered.
	EventLive EventClass = iota
	// EventTerminal: the call ended, one way or another.
	EventTerminal
	// EventUnknown: a status we do not recognize; acknowledged with no
	// mutation for forward compatibility with new vendor statuses.
	EventUnknown
)

// MapCallStatus translates the vendor status vocabulary into the internal
// lifecycle status. busy and no-answer collapse into failed.
func MapCallStatus(vendor string) (calls.CallStatus, EventClass) {
	switch vendor {
	case "ringing", "queued", "initiated":
		return calls.CallStatusInitiated, EventLive
	case "in-progress", "answered":
		return calls.CallStatusInProgress, EventLive
	case "completed":
		return calls.CallStatusCompleted, EventTerminal
	case "failed", "busy", "no-answer", "canceled":
		return calls.CallStatusFailed, EventTerminal
	default:
		return "", EventUnknown
	}
}
