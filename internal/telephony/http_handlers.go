package telephony

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"callagent-platform/internal/calls"
	"callagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ResolvedAgent is the slice of agent configuration the webhook path needs.
// The full agent model lives in internal/agents; resolution is injected to
// keep this package free of persistence assumptions.
type ResolvedAgent struct {
	ID              string
	GreetingMessage string
	Voice           string
}

// ErrNoAgent is returned by resolvers when no agent owns the dialed number.
// It maps to a 404 so the provider can distinguish "bad number" from "our
// system broke".
var ErrNoAgent = errors.New("telephony: no agent found")

type AgentResolverFunc func(ctx context.Context, toNumber string) (ResolvedAgent, error)

// TranscriptSinkFunc receives the transcript text of a completed recording.
// Downstream lead extraction lives behind it.
type TranscriptSinkFunc func(ctx context.Context, callID, transcript string) error

// WebhookConfig carries the provider-facing settings for webhook handling.
type WebhookConfig struct {
	// AuthToken enables X-Twilio-Signature validation when non-empty.
	AuthToken string
	// PublicBaseURL is the externally visible base URL of this service,
	// used both for signature validation and for callback URLs in TwiML.
	PublicBaseURL string

	RecordingCallbackPath     string
	TranscriptionCallbackPath string
	MaxRecordingSeconds       int
}

func (c WebhookConfig) withDefaults() WebhookConfig {
	out := c
	if out.RecordingCallbackPath == "" {
		out.RecordingCallbackPath = "/webhooks/twilio/recording"
	}
	if out.TranscriptionCallbackPath == "" {
		out.TranscriptionCallbackPath = "/webhooks/twilio/transcription"
	}
	if out.MaxRecordingSeconds <= 0 {
		out.MaxRecordingSeconds = 120
	}
	return out
}

func (c WebhookConfig) callbackURL(path string) string {
	return strings.TrimRight(c.PublicBaseURL, "/") + path
}

// WebhookHandler converts provider webhooks into lifecycle transitions,
// delegates to the tracker, and writes TwiML.
//
// No business logic here beyond dispatch on the status vocabulary.
type WebhookHandler struct {
	Tracker      *calls.Tracker
	ResolveAgent AgentResolverFunc
	Transcripts  TranscriptSinkFunc

	Config WebhookConfig

	Now func() time.Time
}

func (h WebhookHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// authenticate parses the form and checks the provider signature when
// configured. Returns false after writing the response on failure.
func (h WebhookHandler) authenticate(c *gin.Context) bool {
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return false
	}
	if h.Config.AuthToken == "" {
		return true
	}
	if !ValidateSignature(c.Request, h.Config.AuthToken, h.Config.PublicBaseURL) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return false
	}
	return true
}

// HandleVoiceWebhook processes call status events. The first live event for a
// call answers with a Say+Record document; everything else acknowledges.
func (h WebhookHandler) HandleVoiceWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Tracker == nil || h.ResolveAgent == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook handler not configured"})
		return
	}
	if !h.authenticate(c) {
		return
	}

	form, err := ParseStatusCallback(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid is required"})
		return
	}

	status, class := MapCallStatus(form.CallStatus)
	ctx := c.Request.Context()

	switch class {
	case EventLive:
		agent, err := h.ResolveAgent(ctx, form.To)
		if err != nil {
			if errors.Is(err, ErrNoAgent) {
				log.Warn("no agent for dialed number", "to", form.To)
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no agent found"})
				return
			}
			log.Error("agent resolution failed", "to", form.To, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		out, err := h.Tracker.HandleLive(ctx, calls.LiveUpsert{
			CallID:     form.CallSid,
			AgentID:    agent.ID,
			FromNumber: form.From,
			ToNumber:   form.To,
			Status:     status,
			OccurredAt: h.now(),
		})
		if err != nil {
			log.Error("live event failed", "call_sid", form.CallSid, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		switch {
		case out.Rejected:
			h.writeTwiML(c, log, RejectResponse)
		case out.First:
			cfg := h.Config.withDefaults()
			twiml, err := VoiceResponse(agent.GreetingMessage, VoiceResponseConfig{
				RecordingCallbackURL:     cfg.callbackURL(cfg.RecordingCallbackPath),
				TranscriptionCallbackURL: cfg.callbackURL(cfg.TranscriptionCallbackPath),
				MaxRecordingSeconds:      cfg.MaxRecordingSeconds,
				Voice:                    agent.Voice,
			})
			if err != nil {
				log.Error("twiml render failed", "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.Header("Content-Type", "application/xml")
			c.String(http.StatusOK, twiml)
		default:
			c.String(http.StatusOK, "")
		}

	case EventTerminal:
		_, _, err := h.Tracker.HandleTerminal(ctx, calls.Finalize{
			CallID:          form.CallSid,
			Status:          status,
			RecordingURL:    form.RecordingURL,
			DurationSeconds: form.CallDuration,
			OccurredAt:      h.now(),
		})
		if err != nil {
			log.Error("terminal event failed", "call_sid", form.CallSid, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.String(http.StatusOK, "")

	default:
		// Unknown vendor status: acknowledge, mutate nothing.
		log.Debug("ignoring unknown call status", "status", form.CallStatus)
		c.String(http.StatusOK, "")
	}
}

// HandleRecordingWebhook is the Record verb's action callback. It attaches
// the recording URL and hangs up.
func (h WebhookHandler) HandleRecordingWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Tracker == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook handler not configured"})
		return
	}
	if !h.authenticate(c) {
		return
	}

	form, err := ParseStatusCallback(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid is required"})
		return
	}

	if form.RecordingURL != "" {
		found, err := h.Tracker.AttachRecording(c.Request.Context(), form.CallSid, form.RecordingURL)
		if err != nil {
			log.Error("attach recording failed", "call_sid", form.CallSid, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !found {
			log.Warn("recording for unknown call", "call_sid", form.CallSid)
		}
	}

	h.writeTwiML(c, log, HangupResponse)
}

// HandleTranscriptionWebhook receives the transcript and hands it to the
// lead-extraction sink.
func (h WebhookHandler) HandleTranscriptionWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	if !h.authenticate(c) {
		return
	}

	form, err := ParseStatusCallback(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid is required"})
		return
	}

	if form.TranscriptionText == "" || h.Transcripts == nil {
		c.String(http.StatusOK, "")
		return
	}

	if err := h.Transcripts(c.Request.Context(), form.CallSid, form.TranscriptionText); err != nil {
		log.Error("transcript processing failed", "call_sid", form.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, "")
}

func (h WebhookHandler) writeTwiML(c *gin.Context, log *slog.Logger, render func() (string, error)) {
	twiml, err := render()
	if err != nil {
		log.Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
