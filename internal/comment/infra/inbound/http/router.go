package http

import "github.com/gin-gonic/gin"

func RegisterCommentRoutes(r *gin.Engine, handler *CommentHandler) {
	comments := r.Group("/comments")
	{
		comments.POST("/", handler.AddComment)
		comments.GET("/", handler.ListByPost)
		comments.GET("/:id", handler.GetComment)
		comments.POST("/:id/approve", handler.ApproveComment)
		comments.POST("/:id/reject", handler.RejectComment)
		comments.DELETE("/:id", handler.DeleteComment)
	}
}
