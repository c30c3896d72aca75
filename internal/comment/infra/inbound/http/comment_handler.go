package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/blogolab/internal/comment/application"
	"github.com/davicafu/blogolab/internal/comment/domain"
	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
)

// CommentHandler encapsula los endpoints HTTP relacionados con Comment
type CommentHandler struct {
	service *application.CommentService
}

// NewCommentHandler crea un nuevo CommentHandler
func NewCommentHandler(service *application.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// ---------------- Handlers ----------------

// AddComment endpoint POST /comments
func (h *CommentHandler) AddComment(c *gin.Context) {
	var req struct {
		PostID     string `json:"post_id" binding:"required,uuid"`
		AuthorName string `json:"author_name" binding:"required"`
		Body       string `json:"body" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post_id"})
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), postID, req.AuthorName, req.Body)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidComment) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// GetComment endpoint GET /comments/:id
func (h *CommentHandler) GetComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	comment, err := h.service.GetComment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, comment)
}

// ApproveComment endpoint POST /comments/:id/approve
func (h *CommentHandler) ApproveComment(c *gin.Context) {
	h.moderate(c, func(ctx *gin.Context, id uuid.UUID) (*domain.Comment, error) {
		return h.service.ApproveComment(ctx.Request.Context(), id)
	})
}

// RejectComment endpoint POST /comments/:id/reject
func (h *CommentHandler) RejectComment(c *gin.Context) {
	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	// el body es opcional
	_ = c.ShouldBindJSON(&req)

	h.moderate(c, func(ctx *gin.Context, id uuid.UUID) (*domain.Comment, error) {
		return h.service.RejectComment(ctx.Request.Context(), id, req.Reason)
	})
}

// DeleteComment endpoint DELETE /comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), id); err != nil {
		writeModerationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListByPost endpoint GET /comments?post_id=...&approved=true
func (h *CommentHandler) ListByPost(c *gin.Context) {
	postID, err := uuid.Parse(c.Query("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post_id"})
		return
	}

	onlyApproved := c.Query("approved") == "true"

	comments, err := h.service.ListByPost(c.Request.Context(), postID, onlyApproved)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, comments)
}

// moderate factoriza el patrón parse-id → mutar → responder.
func (h *CommentHandler) moderate(c *gin.Context, fn func(*gin.Context, uuid.UUID) (*domain.Comment, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	comment, err := fn(c, id)
	if err != nil {
		writeModerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func writeModerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
	case errors.Is(err, domain.ErrCommentAlreadyModerated):
		c.JSON(http.StatusConflict, gin.H{"error": "comment already moderated"})
	case errors.Is(err, sharedDomain.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "comment was modified concurrently, retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
