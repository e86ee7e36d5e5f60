package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// VisitHandler serves visit scheduling
type VisitHandler struct {
	BaseHandler
	repo schedule.VisitRepository
}

// NewVisitHandler creates a new VisitHandler
func NewVisitHandler(repo schedule.VisitRepository) *VisitHandler {
	return &VisitHandler{repo: repo}
}

// PatchVisitRequest is the PATCH /visits/:id body: a status change,
// changed fields, or both.
type PatchVisitRequest struct {
	Status *schedule.Status `json:"status"`
	schedule.VisitPatch
}

// List handles GET /visits with an optional ?status=N filter
func (h *VisitHandler) List(c *gin.Context) {
	status, err := schedule.ParseStatus(c.Query("status"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	visits, err := h.repo.FindAll(c.Request.Context(), status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, visits)
}

// Create handles POST /visits
func (h *VisitHandler) Create(c *gin.Context) {
	var req schedule.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleError(c, err)
		return
	}

	visit, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Info("visit created", zap.String("visit_id", visit.ID))
	h.Created(c, visit)
}

// Patch handles PATCH /visits/:id. Completed visits accept no changes.
func (h *VisitHandler) Patch(c *gin.Context) {
	var req PatchVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Status == nil && req.VisitPatch.IsEmpty() {
		h.BadRequest(c, "Nothing to update")
		return
	}
	if req.Status != nil && !req.Status.IsValid() {
		h.BadRequest(c, "Unknown visit status")
		return
	}
	if !req.VisitPatch.IsEmpty() {
		if err := req.VisitPatch.Validate(); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	current, err := h.repo.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if current.IsCompleted() {
		if req.VisitPatch.IsEmpty() && *req.Status == schedule.StatusCompleted {
			h.OK(c, current)
			return
		}
		h.HandleError(c, shared.NewDomainError("INVALID_STATE", "Completed visits cannot be changed"))
		return
	}

	visit := current
	if !req.VisitPatch.IsEmpty() {
		if visit, err = h.repo.Update(ctx, id, req.VisitPatch); err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.Status != nil && *req.Status != visit.Status {
		if visit, err = h.repo.SetStatus(ctx, id, *req.Status); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	logger.GetGinLogger(c).Info("visit updated",
		zap.String("visit_id", visit.ID),
		zap.Stringer("status", visit.Status),
	)
	h.OK(c, visit)
}

// Delete handles DELETE /visits/:id
func (h *VisitHandler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Info("visit deleted", zap.String("visit_id", c.Param("id")))
	h.NoContent(c)
}
