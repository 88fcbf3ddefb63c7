package httpapi

import (
	"errors"
	"net/http"
	"time"

	"callagent-platform/internal/agents"
	"callagent-platform/internal/audit"
	"callagent-platform/internal/auth"
	"callagent-platform/internal/calls"
	"callagent-platform/internal/leads"
	"callagent-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Agents    *agents.Service
	Tracker   *calls.Tracker
	CallStore calls.Store
	Leads     *leads.Service
	Reporting *reporting.Service
	Audit     *audit.Service
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Agents ---

type agentRequest struct {
	Name                string `json:"name"`
	GreetingMessage     string `json:"greeting_message"`
	AssignedPhoneNumber string `json:"assigned_phone_number"`
	VoiceID             string `json:"voice_id"`
	SystemPrompt        string `json:"system_prompt"`
	TavusPersonaID      string `json:"tavus_persona_id"`
	TavusReplicaID      string `json:"tavus_replica_id"`
	Status              string `json:"status"`
}

func (h Handlers) CreateAgent(c *gin.Context) {
	if h.Agents == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agents not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	a, err := h.Agents.Create(c.Request.Context(), agents.CreateAgentInput{
		OwningUserID:        userID,
		Name:                req.Name,
		GreetingMessage:     req.GreetingMessage,
		AssignedPhoneNumber: req.AssignedPhoneNumber,
		VoiceID:             req.VoiceID,
		SystemPrompt:        req.SystemPrompt,
		TavusPersonaID:      req.TavusPersonaID,
		TavusReplicaID:      req.TavusReplicaID,
	})
	if err != nil {
		if errors.Is(err, agents.ErrInvalidAgent) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent create failed"})
		return
	}
	h.auditAdmin(c, "agent created", a.ID)
	c.JSON(http.StatusCreated, a)
}

func (h Handlers) ListAgents(c *gin.Context) {
	if h.Agents == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agents not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	out, err := h.Agents.List(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": out})
}

func (h Handlers) GetAgent(c *gin.Context) {
	if h.Agents == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agents not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	a, err := h.Agents.Get(c.Request.Context(), userID, c.Param("agent_id"))
	if err != nil {
		if errors.Is(err, agents.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent lookup failed"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) UpdateAgent(c *gin.Context) {
	if h.Agents == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agents not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	a, err := h.Agents.Update(c.Request.Context(), agents.UpdateAgentInput{
		OwningUserID:        userID,
		ID:                  c.Param("agent_id"),
		Name:                req.Name,
		GreetingMessage:     req.GreetingMessage,
		AssignedPhoneNumber: req.AssignedPhoneNumber,
		VoiceID:             req.VoiceID,
		SystemPrompt:        req.SystemPrompt,
		TavusPersonaID:      req.TavusPersonaID,
		TavusReplicaID:      req.TavusReplicaID,
		Status:              agents.AgentStatus(req.Status),
	})
	if err != nil {
		switch {
		case errors.Is(err, agents.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		case errors.Is(err, agents.ErrInvalidAgent):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent update failed"})
		}
		return
	}
	h.auditAdmin(c, "agent updated", a.ID)
	c.JSON(http.StatusOK, a)
}

func (h Handlers) DeleteAgent(c *gin.Context) {
	if h.Agents == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agents not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	agentID := c.Param("agent_id")
	if err := h.Agents.Delete(c.Request.Context(), userID, agentID); err != nil {
		if errors.Is(err, agents.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent delete failed"})
		return
	}
	h.auditAdmin(c, "agent deleted", agentID)
	c.Status(http.StatusNoContent)
}

// --- Calls ---

// requireOwnedAgent resolves agentID within the authenticated user's scope.
// Foreign and unknown agents are indistinguishable: both are a 404. Writes the
// response and returns false on failure.
func (h Handlers) requireOwnedAgent(c *gin.Context, agentID string) bool {
	if h.Agents == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agents not configured"})
		return false
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return false
	}
	if _, err := h.Agents.Get(c.Request.Context(), userID, agentID); err != nil {
		if errors.Is(err, agents.ErrNotFound) || errors.Is(err, agents.ErrInvalidAgent) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return false
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent lookup failed"})
		return false
	}
	return true
}

func (h Handlers) GetCall(c *gin.Context) {
	if h.Tracker == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	rec, err := h.Tracker.Get(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	if !h.requireOwnedAgent(c, rec.AgentID) {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h Handlers) ListCalls(c *gin.Context) {
	if h.CallStore == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	agentID := c.Query("agent_id")
	if agentID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_id required"})
		return
	}
	if !h.requireOwnedAgent(c, agentID) {
		return
	}
	from, to, err := parseRange(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, err := h.CallStore.ListByAgent(c.Request.Context(), agentID, from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

// --- Leads ---

func (h Handlers) ListLeads(c *gin.Context) {
	if h.Leads == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "leads not configured"})
		return
	}
	agentID := c.Query("agent_id")
	if agentID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_id required"})
		return
	}
	if !h.requireOwnedAgent(c, agentID) {
		return
	}
	rows, err := h.Leads.ListByAgent(c.Request.Context(), agentID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lead list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": rows})
}

// --- Reports ---

func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	agentID := c.Query("agent_id")
	if agentID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_id required"})
		return
	}
	if !h.requireOwnedAgent(c, agentID) {
		return
	}
	from, to, err := parseRange(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.Reporting.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		AgentID: agentID,
		Range:   reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) LeadMetrics(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	agentID := c.Query("agent_id")
	if agentID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_id required"})
		return
	}
	if !h.requireOwnedAgent(c, agentID) {
		return
	}
	from, to, err := parseRange(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.Reporting.LeadMetrics(c.Request.Context(), reporting.LeadMetricsRequest{
		AgentID: agentID,
		Range:   reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// parseRange reads from/to query params (RFC 3339). Default: last 24h.
func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour)
	to := now

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC 3339")
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC 3339")
		}
		to = t
	}
	return from, to, nil
}

func (h Handlers) auditAdmin(c *gin.Context, message, agentID string) {
	if h.Audit == nil {
		return
	}
	userID, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	_ = h.Audit.LogAdminAction(c.Request.Context(), userID, role, c.ClientIP(), message, agentID, "")
}
