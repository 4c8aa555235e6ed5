package http

import (
	"net/http"

	"content-planner/pkg/logger"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
	"content-planner/services/planner/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postUseCase usecase.PostUseCase
	logger      *logger.Logger
}

func NewPostHandler(postUseCase usecase.PostUseCase, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postUseCase: postUseCase,
		logger:      logger,
	}
}

// ListPosts godoc
// @Summary      List posts
// @Description  List posts matching every given filter. Repeat a parameter to match any of several values.
// @Tags         posts
// @Produce      json
// @Param        status      query  []string  false  "Post status"  collectionFormat(multi)  Enums(draft, scheduled, published, archived)
// @Param        channelId   query  []string  false  "Channel ID"   collectionFormat(multi)
// @Param        campaignId  query  []string  false  "Campaign ID"  collectionFormat(multi)
// @Param        search      query  string    false  "Case-insensitive text in title or content"
// @Success      200  {array}   entity.Post
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	filters, ok := bindPostFilters(c)
	if !ok {
		return
	}

	posts, err := h.postUseCase.ListPosts(c.Request.Context(), filters)
	if err != nil {
		writeError(c, h.logger, "list posts", err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost godoc
// @Summary      Get post by ID
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postUseCase.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get post", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost godoc
// @Summary      Create a post
// @Description  Status defaults to draft. Any id in the body is ignored.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        post  body      entity.CreatePostInput  true  "Post"
// @Success      201   {object}  entity.Post
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  map[string]string
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input entity.CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	post, err := h.postUseCase.CreatePost(c.Request.Context(), input)
	if err != nil {
		writeError(c, h.logger, "create post", err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// UpdatePost godoc
// @Summary      Update a post
// @Description  Merges the given fields into the post. null clears campaignId and publishDate.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Post ID"
// @Param        post  body      entity.PostPatch  true  "Fields to change"
// @Success      200   {object}  entity.Post
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var patch entity.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeBindError(c, err)
		return
	}

	post, err := h.postUseCase.UpdatePost(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, h.logger, "update post", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary      Delete a post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  MessageResponse
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.postUseCase.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete post", err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Post deleted successfully"})
}

// GetSummary godoc
// @Summary      Post statistics
// @Description  Counts by status, upcoming posts and channel usage over the filtered posts.
// @Tags         posts
// @Produce      json
// @Param        status      query  []string  false  "Post status"  collectionFormat(multi)
// @Param        channelId   query  []string  false  "Channel ID"   collectionFormat(multi)
// @Param        campaignId  query  []string  false  "Campaign ID"  collectionFormat(multi)
// @Param        search      query  string    false  "Text search"
// @Success      200  {object}  query.Summary
// @Failure      500  {object}  map[string]string
// @Router       /posts/summary [get]
func (h *PostHandler) GetSummary(c *gin.Context) {
	filters, ok := bindPostFilters(c)
	if !ok {
		return
	}

	summary, err := h.postUseCase.Summary(c.Request.Context(), filters)
	if err != nil {
		writeError(c, h.logger, "summarize posts", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetCalendar godoc
// @Summary      Posts grouped by day
// @Description  Groups the filtered posts by the UTC day of their publish date, or creation date when unscheduled.
// @Tags         posts
// @Produce      json
// @Param        status      query  []string  false  "Post status"  collectionFormat(multi)
// @Param        channelId   query  []string  false  "Channel ID"   collectionFormat(multi)
// @Param        campaignId  query  []string  false  "Campaign ID"  collectionFormat(multi)
// @Param        search      query  string    false  "Text search"
// @Success      200  {array}   query.DateGroup
// @Failure      500  {object}  map[string]string
// @Router       /posts/calendar [get]
func (h *PostHandler) GetCalendar(c *gin.Context) {
	filters, ok := bindPostFilters(c)
	if !ok {
		return
	}

	groups, err := h.postUseCase.Calendar(c.Request.Context(), filters)
	if err != nil {
		writeError(c, h.logger, "group posts", err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

func bindPostFilters(c *gin.Context) (query.PostFilters, bool) {
	var filters query.PostFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		writeBindError(c, err)
		return filters, false
	}
	return filters, true
}
