package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/blogolab/internal/post/application"
	"github.com/davicafu/blogolab/internal/post/domain"
	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
)

// PostHandler encapsula los endpoints HTTP relacionados con Post
type PostHandler struct {
	service *application.PostService
}

// NewPostHandler crea un nuevo PostHandler
func NewPostHandler(service *application.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// ---------------- Handlers ----------------

// CreatePost endpoint POST /posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req struct {
		Title    string `json:"title" binding:"required"`
		Body     string `json:"body" binding:"required"`
		AuthorID string `json:"author_id" binding:"required,uuid"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authorID, err := uuid.Parse(req.AuthorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author_id"})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), req.Title, req.Body, authorID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPost) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, post)
}

// GetPost endpoint GET /posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, post)
}

// UpdatePost endpoint PUT /posts/:id
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req struct {
		Title string `json:"title,omitempty"`
		Body  string `json:"body,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), id, req.Title, req.Body)
	if err != nil {
		writeMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// PublishPost endpoint POST /posts/:id/publish
func (h *PostHandler) PublishPost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	post, err := h.service.PublishPost(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPostAlreadyPublished) {
			c.JSON(http.StatusConflict, gin.H{"error": "post already published"})
			return
		}
		writeMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost endpoint DELETE /posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), id); err != nil {
		writeMutationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListPosts endpoint GET /posts
func (h *PostHandler) ListPosts(c *gin.Context) {
	filter := domain.PostFilter{
		Pagination: domain.Pagination{Limit: 50},
		Sort:       domain.Sort{Field: "created_at", Desc: true},
	}

	if author := c.Query("author_id"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author_id"})
			return
		}
		filter.AuthorID = &authorID
	}
	if status := c.Query("status"); status != "" {
		s := domain.Status(status)
		filter.Status = &s
	}
	if title := c.Query("title"); title != "" {
		filter.Title = &title
	}

	posts, err := h.service.ListPosts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// writeMutationError traduce los errores típicos de una mutación.
func writeMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, sharedDomain.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "post was modified concurrently, retry"})
	case errors.Is(err, domain.ErrInvalidPost):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
