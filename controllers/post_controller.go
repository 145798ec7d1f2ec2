package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ripple-social/ripple/middleware"
	"github.com/ripple-social/ripple/services"
	"github.com/ripple-social/ripple/utils"
)

// PostController exposes the post lifecycle over HTTP. All domain rules
// live in the service; handlers bind, delegate and translate errors.
type PostController struct {
	posts *services.PostService
}

func NewPostController(db *gorm.DB) *PostController {
	return &PostController{posts: services.NewPostService(db)}
}

// Create stores a post, a draft or a scheduled post.
func (p *PostController) Create(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)

	var input services.CreatePostInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	view, err := p.posts.Create(userID, input)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, view)
}

func (p *PostController) Get(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	view, err := p.posts.GetByID(postID, middleware.CurrentUserID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, view)
}

func (p *PostController) ListByUser(ctx *gin.Context) {
	targetID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid user id")
		return
	}

	list, err := p.posts.ListByUser(
		targetID,
		middleware.CurrentUserID(ctx),
		boolQuery(ctx, "include_drafts"),
		intQuery(ctx, "limit", 20),
		intQuery(ctx, "offset", 0),
	)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

func (p *PostController) Update(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	var input services.UpdatePostInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	view, err := p.posts.Update(postID, middleware.CurrentUserID(ctx), input)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, view)
}

func (p *PostController) Delete(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	deleted, err := p.posts.Delete(postID, middleware.CurrentUserID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": deleted})
}

// ToggleReaction adds, switches or removes a like or dislike.
func (p *PostController) ToggleReaction(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	result, err := p.posts.ToggleReaction(postID, middleware.CurrentUserID(ctx), req.Type)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

func (p *PostController) ToggleRepost(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	result, err := p.posts.ToggleRepost(postID, middleware.CurrentUserID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

func (p *PostController) Search(ctx *gin.Context) {
	list, err := p.posts.Search(
		ctx.Query("q"),
		middleware.CurrentUserID(ctx),
		intQuery(ctx, "limit", 20),
		intQuery(ctx, "offset", 0),
	)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

func (p *PostController) Trending(ctx *gin.Context) {
	result, err := p.posts.Trending(
		ctx.Query("window"),
		intQuery(ctx, "limit", 10),
		middleware.CurrentUserID(ctx),
	)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

func (p *PostController) Analytics(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid post id")
		return
	}

	analytics, err := p.posts.Analytics(postID, middleware.CurrentUserID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, analytics)
}
