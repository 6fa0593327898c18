package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/procureflow/internal/auth"
	"github.com/nurpe/procureflow/internal/http/middleware"
	"github.com/nurpe/procureflow/internal/model"
	"github.com/nurpe/procureflow/internal/service"
)

type Handler struct {
	procurement *service.ProcurementService
	issuer      *auth.Issuer
	log         zerolog.Logger
}

func NewHandler(procurement *service.ProcurementService, issuer *auth.Issuer, log zerolog.Logger) *Handler {
	return &Handler{procurement: procurement, issuer: issuer, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc, devMode bool) {
	if devMode {
		router.POST("/auth/impersonate", h.impersonate)
	}

	protected := router.Group("/")
	protected.Use(authMiddleware)
	if devMode {
		protected.POST("/debug/seed-samples", h.seedSamples)
	}
	protected.GET("/requirements", h.listRequirements)
	protected.POST("/requirements", h.createRequirement)
	protected.POST("/requirements/:id/client-action", h.clientAction)
	protected.POST("/requirements/:id/po", h.submitPO)
	protected.POST("/requirements/export", h.exportRequirements)
	protected.POST("/estimates", h.submitEstimate)
	protected.GET("/pos", h.listPOs)
	protected.POST("/pos/:id/review", h.reviewPO)
	protected.GET("/pos/:id/document", h.poDocument)
}

type impersonateRequest struct {
	Role string `json:"role" binding:"required"`
}

// impersonate issues a signed token for one of the fixed demo identities.
// Registered in development only; real deployments authenticate upstream.
func (h *Handler) impersonate(c *gin.Context) {
	var req impersonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, ok := model.ParseRole(strings.TrimSpace(req.Role))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	principal, _ := model.DemoPrincipal(role)

	token, expiresAt, err := h.issuer.Issue(principal)
	if err != nil {
		h.log.Error().Err(err).Msg("issue token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   expiresAt,
		"user":         principal,
	})
}

func (h *Handler) seedSamples(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.procurement.SeedSamples(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listRequirements(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	reqs, err := h.procurement.ListRequirements(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// createRequirement accepts the multipart form the UI sends: type, optional
// subtype, details as a JSON-encoded string.
func (h *Handler) createRequirement(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	reqType := strings.TrimSpace(c.PostForm("type"))
	if reqType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type is required"})
		return
	}

	var details map[string]any
	if raw := c.PostForm("details"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &details); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "details must be a JSON object"})
			return
		}
	}

	created, err := h.procurement.CreateRequirement(c.Request.Context(), service.CreateRequirementInput{
		Type:      reqType,
		Subtype:   strings.TrimSpace(c.PostForm("subtype")),
		Details:   details,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type clientActionRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h *Handler) clientAction(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requirement id"})
		return
	}

	var req clientActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.procurement.ClientAction(c.Request.Context(), service.ClientActionInput{
		RequirementID: id,
		Action:        req.Action,
		Principal:     principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) submitPO(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requirement id"})
		return
	}

	po, err := h.procurement.SubmitPO(c.Request.Context(), service.SubmitPOInput{
		RequirementID: id,
		PONumber:      c.PostForm("po_number"),
		Principal:     principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

type submitEstimateRequest struct {
	RequirementID string `json:"requirement_id" binding:"required"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency" binding:"required"`
	Breakdown     struct {
		Items []model.BreakdownItem `json:"items"`
	} `json:"breakdown"`
	Notes string `json:"notes"`
}

func (h *Handler) submitEstimate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req submitEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requirementID, err := uuid.Parse(strings.TrimSpace(req.RequirementID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requirement_id"})
		return
	}

	est, err := h.procurement.SubmitEstimate(c.Request.Context(), service.SubmitEstimateInput{
		RequirementID: requirementID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Breakdown:     req.Breakdown.Items,
		Notes:         req.Notes,
		Principal:     principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, est)
}

func (h *Handler) listPOs(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	if status := c.Query("status"); status != "" && status != string(model.POStatusPendingVerification) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only pending_verification listing is supported"})
		return
	}

	pos, err := h.procurement.ListPendingPOs(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

type reviewPORequest struct {
	Decision string `json:"decision" binding:"required"`
}

func (h *Handler) reviewPO(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid po id"})
		return
	}

	var req reviewPORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	po, err := h.procurement.ReviewPO(c.Request.Context(), service.ReviewPOInput{
		POID:      id,
		Decision:  req.Decision,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *Handler) exportRequirements(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.procurement.ExportRequirements(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) poDocument(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid po id"})
		return
	}

	result, err := h.procurement.GeneratePODocument(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrDuplicateEstimate),
		errors.Is(err, service.ErrDuplicatePONumber):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
