package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Deps
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps, logger Logger) *Handlers {
	return &Handlers{
		deps:   deps,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ListSubmissionsRequest represents query parameters for listing submissions
type ListSubmissionsRequest struct {
	Status      string `form:"status"`
	VehicleType string `form:"vehicle_type"`
	OwnerEmail  string `form:"owner_email"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

// TransitionRequest is the body of POST /submissions/:id/transitions
type TransitionRequest struct {
	Target string `json:"target" binding:"required"`
	Reason string `json:"reason"`
}

// ReasonRequest is the optional body of the convenience transition endpoints
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// AllowedTransitionsResponse lists the legal targets from the current status
type AllowedTransitionsResponse struct {
	SubmissionID string   `json:"submission_id"`
	Status       string   `json:"status"`
	Allowed      []string `json:"allowed"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if h.deps.Ready != nil && !h.deps.Ready() {
		status, code = "starting", http.StatusServiceUnavailable
	}

	c.JSON(code, Response{
		Success: code == http.StatusOK,
		Data: HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateSubmission handles POST /api/submissions
func (h *Handlers) CreateSubmission(c *gin.Context) {
	var fields entity.SubmissionFields
	if err := bindOptionalJSON(c, &fields); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sub, err := h.deps.Submissions.Create(c.Request.Context(), fields, actorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: sub})
}

// ListSubmissions handles GET /api/submissions
func (h *Handlers) ListSubmissions(c *gin.Context) {
	var req ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	var status workflow.State
	if req.Status != "" {
		parsed, err := workflow.ParseState(req.Status)
		if err != nil {
			h.writeError(c, err)
			return
		}
		status = parsed
	}

	subs, err := h.deps.Submissions.List(c.Request.Context(), entity.SubmissionFilter{
		Status:      status,
		VehicleType: entity.VehicleType(req.VehicleType),
		OwnerEmail:  req.OwnerEmail,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if subs == nil {
		subs = []*entity.Submission{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: subs})
}

// GetSubmission handles GET /api/submissions/:id
func (h *Handlers) GetSubmission(c *gin.Context) {
	sub, err := h.deps.Submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: sub})
}

// UpdateSubmission handles PATCH /api/submissions/:id
func (h *Handlers) UpdateSubmission(c *gin.Context) {
	var patch entity.SubmissionFields
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if patch.IsEmpty() {
		badRequest(c, "no fields to update")
		return
	}

	sub, err := h.deps.Submissions.Update(c.Request.Context(), c.Param("id"), patch, actorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: sub})
}

// DeleteSubmission handles DELETE /api/submissions/:id
func (h *Handlers) DeleteSubmission(c *gin.Context) {
	if err := h.deps.Submissions.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadAttachment handles POST /api/submissions/:id/attachments (multipart field "file")
func (h *Handlers) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "cannot read uploaded file")
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		badRequest(c, "cannot read uploaded file")
		return
	}

	att, err := h.deps.Submissions.AddAttachment(c.Request.Context(), c.Param("id"), entity.AttachmentUpload{
		Content:  buf.Bytes(),
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Kind:     c.PostForm("kind"),
	}, actorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: att})
}

// ListAttachments handles GET /api/submissions/:id/attachments
func (h *Handlers) ListAttachments(c *gin.Context) {
	atts, err := h.deps.Submissions.ListAttachments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if atts == nil {
		atts = []*entity.Attachment{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: atts})
}

// History handles GET /api/submissions/:id/history
func (h *Handlers) History(c *gin.Context) {
	entries, err := h.deps.Submissions.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if entries == nil {
		entries = []*entity.AuditEntry{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// AllowedTransitions handles GET /api/submissions/:id/transitions
func (h *Handlers) AllowedTransitions(c *gin.Context) {
	sub, err := h.deps.Submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	targets := h.deps.Engine.AllowedTransitions(sub.Status)
	allowed := make([]string, len(targets))
	for i, s := range targets {
		allowed[i] = s.String()
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: AllowedTransitionsResponse{
		SubmissionID: sub.ID,
		Status:       sub.Status.String(),
		Allowed:      allowed,
	}})
}

// Transition handles POST /api/submissions/:id/transitions
func (h *Handlers) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "target is required")
		return
	}

	target, err := workflow.ParseState(req.Target)
	if err != nil {
		h.writeError(c, err)
		return
	}

	sub, err := h.deps.Engine.Transition(c.Request.Context(), c.Param("id"), target, actorFrom(c), req.Reason)
	h.respondTransition(c, sub, err)
}

// Submit handles POST /api/submissions/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	sub, err := h.deps.Engine.SubmitForReview(c.Request.Context(), c.Param("id"), actorFrom(c))
	h.respondTransition(c, sub, err)
}

// Approve handles POST /api/submissions/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	h.withReason(c, h.deps.Engine.Approve)
}

// Reject handles POST /api/submissions/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	h.withReason(c, h.deps.Engine.Reject)
}

// MarkIncomplete handles POST /api/submissions/:id/incomplete
func (h *Handlers) MarkIncomplete(c *gin.Context) {
	h.withReason(c, h.deps.Engine.MarkIncomplete)
}

// Complete handles POST /api/submissions/:id/complete
func (h *Handlers) Complete(c *gin.Context) {
	h.withReason(c, h.deps.Engine.Complete)
}

type reasonedTransition func(ctx context.Context, submissionID string, actor entity.Actor, reason string) (*entity.Submission, error)

func (h *Handlers) withReason(c *gin.Context, op reasonedTransition) {
	var req ReasonRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sub, err := op(c.Request.Context(), c.Param("id"), actorFrom(c), req.Reason)
	h.respondTransition(c, sub, err)
}

func (h *Handlers) respondTransition(c *gin.Context, sub *entity.Submission, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: sub})
}

// ExportSubmissions handles GET /api/reports/submissions.xlsx
func (h *Handlers) ExportSubmissions(c *gin.Context) {
	filter := entity.SubmissionFilter{
		Status:      workflow.State(c.Query("status")),
		VehicleType: entity.VehicleType(c.Query("vehicle_type")),
	}

	var buf bytes.Buffer
	rows, err := h.deps.Reports.ExportSubmissions(c.Request.Context(), filter, actorFrom(c), &buf)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="submissions.xlsx"`)
	c.Header("X-Report-Rows", fmt.Sprintf("%d", rows))
	c.Data(http.StatusOK, h.deps.Reports.ContentType(), buf.Bytes())
}

// bindOptionalJSON decodes the body when one is present
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
