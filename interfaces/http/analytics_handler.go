package http

import (
	"net/http"
	"strconv"

	"crosspost/usecase"

	"github.com/gin-gonic/gin"
)

type IAnalyticsHandler interface {
	Summary(ctx *gin.Context)
	Comments(ctx *gin.Context)
	DeleteRemote(ctx *gin.Context)
}

type AnalyticsHandler struct {
	analyticsUsecase usecase.IAnalyticsUsecase
}

func NewAnalyticsHandler(analyticsUsecase usecase.IAnalyticsUsecase) IAnalyticsHandler {
	return &AnalyticsHandler{analyticsUsecase: analyticsUsecase}
}

// Summary handles GET /api/analytics; refresh=1 skips the cache
func (h *AnalyticsHandler) Summary(ctx *gin.Context) {
	refresh, _ := strconv.ParseBool(ctx.DefaultQuery("refresh", "false"))
	summary, err := h.analyticsUsecase.Summary(ctx.Request.Context(), userID(ctx), refresh)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, summary)
}

// Comments handles GET /api/publications/:publicationId/comments
func (h *AnalyticsHandler) Comments(ctx *gin.Context) {
	id, ok := idParam(ctx, "publicationId")
	if !ok {
		return
	}
	comments, err := h.analyticsUsecase.Comments(ctx.Request.Context(), userID(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, comments)
}

// DeleteRemote handles DELETE /api/publications/:publicationId/remote
func (h *AnalyticsHandler) DeleteRemote(ctx *gin.Context) {
	id, ok := idParam(ctx, "publicationId")
	if !ok {
		return
	}
	if err := h.analyticsUsecase.DeleteRemote(ctx.Request.Context(), userID(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, gin.H{"publication_id": id, "deleted": true})
}
