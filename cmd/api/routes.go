package main

import (
	"context"
	"errors"
	"time"

	"callagent-platform/internal/agents"
	"callagent-platform/internal/auth"
	"callagent-platform/internal/httpapi"
	"callagent-platform/internal/rbac"
	"callagent-platform/internal/telephony"
	"callagent-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// transcriptSink feeds transcription callbacks into lead extraction. When no
// extractor is configured the sink stays nil and the webhook handler
// acknowledges transcripts without processing them.
func transcriptSink(deps appDeps) telephony.TranscriptSinkFunc {
	if deps.leads == nil || !deps.leads.ExtractionEnabled() {
		return nil
	}
	return func(ctx context.Context, callID, transcript string) error {
		_, err := deps.leads.ProcessTranscript(ctx, callID, transcript)
		return err
	}
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps appDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if deps.db != nil {
			if err := utils.HealthCheck(c.Request.Context(), deps.db, 2*time.Second); err != nil {
				c.JSON(503, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public, signature-checked when an auth token is set).
	{
		wh := telephony.WebhookHandler{
			Tracker: deps.tracker,
			ResolveAgent: func(ctx context.Context, toNumber string) (telephony.ResolvedAgent, error) {
				a, err := deps.agents.Resolve(ctx, toNumber)
				if err != nil {
					if errors.Is(err, agents.ErrNotFound) {
						return telephony.ResolvedAgent{}, telephony.ErrNoAgent
					}
					return telephony.ResolvedAgent{}, err
				}
				return telephony.ResolvedAgent{
					ID:              a.ID,
					GreetingMessage: a.GreetingMessage,
					Voice:           a.VoiceID,
				}, nil
			},
			Transcripts: transcriptSink(deps),
			Config: telephony.WebhookConfig{
				AuthToken:           deps.cfg.Twilio.AuthToken,
				PublicBaseURL:       deps.cfg.App.PublicBaseURL,
				MaxRecordingSeconds: deps.cfg.Calls.MaxRecordingSeconds,
			},
		}
		r.POST("/webhooks/twilio/voice", wh.HandleVoiceWebhook)
		r.POST("/webhooks/twilio/recording", wh.HandleRecordingWebhook)
		r.POST("/webhooks/twilio/transcription", wh.HandleTranscriptionWebhook)
	}

	h := httpapi.Handlers{
		Auth:      deps.authManager,
		Agents:    deps.agents,
		Tracker:   deps.tracker,
		CallStore: deps.callStore,
		Leads:     deps.leads,
		Reporting: deps.reporting,
		Audit:     deps.audit,
	}

	// AUTH routes (token issuance). Login must stay outside the bearer-token
	// group or no client could ever get its first token.
	// NOTE: Login is a placeholder; real credential validation is not implemented.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(deps.authManager))
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "role": role})
		})

		// AGENT routes
		agentGroup := v1.Group("/agents")
		agentGroup.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAdmin))
		{
			agentGroup.POST("", h.CreateAgent)
			agentGroup.GET("", h.ListAgents)
			agentGroup.GET("/:agent_id", h.GetAgent)
			agentGroup.PUT("/:agent_id", h.UpdateAgent)
			agentGroup.DELETE("/:agent_id", h.DeleteAgent)
		}

		// CALL routes
		callGroup := v1.Group("/calls")
		callGroup.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAdmin, rbac.RoleSupport))
		{
			callGroup.GET("", h.ListCalls)
			callGroup.GET("/:call_id", h.GetCall)
		}

		// LEAD routes
		leadGroup := v1.Group("/leads")
		leadGroup.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAdmin))
		{
			leadGroup.GET("", h.ListLeads)
		}

		// REPORT routes
		reportGroup := v1.Group("/reports")
		reportGroup.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAdmin))
		{
			reportGroup.GET("/calls-summary", h.CallsSummary)
			reportGroup.GET("/lead-metrics", h.LeadMetrics)
		}
	}
}
