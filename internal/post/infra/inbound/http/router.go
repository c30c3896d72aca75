package http

import "github.com/gin-gonic/gin"

func RegisterPostRoutes(r *gin.Engine, handler *PostHandler) {
	posts := r.Group("/posts")
	{
		posts.POST("/", handler.CreatePost)
		posts.GET("/:id", handler.GetPost)
		posts.GET("/", handler.ListPosts)
		posts.PUT("/:id", handler.UpdatePost)
		posts.POST("/:id/publish", handler.PublishPost)
		posts.DELETE("/:id", handler.DeletePost)
	}
}
