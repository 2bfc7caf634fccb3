package http

import (
	"errors"
	"io"
	"net/http"

	"crosspost/domain/dto"
	"crosspost/usecase"

	"github.com/gin-gonic/gin"
)

type IContentHandler interface {
	Create(ctx *gin.Context)
	Get(ctx *gin.Context)
	Update(ctx *gin.Context)
	Publish(ctx *gin.Context)
	ProcessScheduled(ctx *gin.Context)
}

type ContentHandler struct {
	contentUsecase usecase.IContentUsecase
	publishUsecase usecase.IPublishUsecase
}

func NewContentHandler(contentUsecase usecase.IContentUsecase, publishUsecase usecase.IPublishUsecase) IContentHandler {
	return &ContentHandler{contentUsecase: contentUsecase, publishUsecase: publishUsecase}
}

// Create handles POST /api/contents
func (h *ContentHandler) Create(ctx *gin.Context) {
	var req dto.CreateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidInput(ctx, err)
		return
	}
	res, err := h.contentUsecase.Create(ctx.Request.Context(), userID(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, res)
}

// Get handles GET /api/contents/:contentId
func (h *ContentHandler) Get(ctx *gin.Context) {
	id, ok := idParam(ctx, "contentId")
	if !ok {
		return
	}
	res, err := h.contentUsecase.Get(ctx.Request.Context(), userID(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, res)
}

// Update handles PATCH /api/contents/:contentId
func (h *ContentHandler) Update(ctx *gin.Context) {
	id, ok := idParam(ctx, "contentId")
	if !ok {
		return
	}
	var req dto.UpdateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidInput(ctx, err)
		return
	}
	res, err := h.contentUsecase.Update(ctx.Request.Context(), userID(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, res)
}

// Publish handles POST /api/contents/:contentId/publish; an empty body publishes every selected platform
func (h *ContentHandler) Publish(ctx *gin.Context) {
	id, ok := idParam(ctx, "contentId")
	if !ok {
		return
	}
	var req dto.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		invalidInput(ctx, err)
		return
	}
	summary, err := h.publishUsecase.Publish(ctx.Request.Context(), userID(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, summary)
}

// ProcessScheduled handles POST /api/publish/process-scheduled
func (h *ContentHandler) ProcessScheduled(ctx *gin.Context) {
	res, err := h.publishUsecase.ProcessScheduled(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, res)
}
