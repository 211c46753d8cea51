package handler

import (
	"net/http"

	"dashboard_api/internal/middleware"
	"dashboard_api/internal/model"
	"dashboard_api/internal/service"

	"github.com/gin-gonic/gin"
)

// PostHandler handles post, like and comment requests
type PostHandler struct {
	service service.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(s service.PostService) *PostHandler {
	return &PostHandler{service: s}
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	authorID, err := parseAuthorQuery(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	var posts []model.Post
	if authorID != nil {
		posts, err = h.service.ListByAuthor(c.Request.Context(), a, *authorID)
	} else {
		posts, err = h.service.List(c.Request.Context(), a)
	}
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) ListMyPosts(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	posts, err := h.service.ListMine(c.Request.Context(), a)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	post, err := h.service.Get(c.Request.Context(), a, id)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req model.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.service.Create(c.Request.Context(), a, req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "post": post})
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.service.Update(c.Request.Context(), a, id, req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully", "post": post})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), a, id); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *PostHandler) ToggleLike(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.ToggleLike(c.Request.Context(), a, id)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	msg := "Post unliked"
	if res.Liked {
		msg = "Post liked"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "liked": res.Liked, "likes": res.Likes})
}

func (h *PostHandler) AddComment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.AddCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.service.AddComment(c.Request.Context(), a, id, req.Content)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Comment added successfully", "post": post})
}

// RegisterPostRoutes registers post routes. Every route requires
// authentication; authoring routes additionally require editorMW.
func (h *PostHandler) RegisterPostRoutes(rg *gin.RouterGroup, authMW, editorMW gin.HandlerFunc) {
	posts := rg.Group("/posts")
	posts.Use(authMW)
	{
		posts.GET("", h.ListPosts)
		posts.GET("/editor/my-posts", editorMW, h.ListMyPosts)
		posts.GET("/:id", h.GetPost)
		posts.POST("", editorMW, h.CreatePost)
		posts.PUT("/:id", editorMW, h.UpdatePost)    // Service layer handles ownership
		posts.DELETE("/:id", editorMW, h.DeletePost) // Service layer handles ownership
		posts.POST("/:id/like", h.ToggleLike)
		posts.POST("/:id/comment", h.AddComment)
	}
}
