package http

import (
	"errors"
	"net/http"

	"crosspost/domain/model"
	"crosspost/usecase"

	"github.com/gin-gonic/gin"
)

type IAccountHandler interface {
	BeginConnect(ctx *gin.Context)
	Callback(ctx *gin.Context)
	List(ctx *gin.Context)
	SetDefault(ctx *gin.Context)
	Disconnect(ctx *gin.Context)
}

type AccountHandler struct {
	accountUsecase usecase.IAccountUsecase
}

func NewAccountHandler(accountUsecase usecase.IAccountUsecase) IAccountHandler {
	return &AccountHandler{accountUsecase: accountUsecase}
}

func providerParam(ctx *gin.Context) (model.Provider, bool) {
	p, err := model.ParseProvider(ctx.Param("provider"))
	if err != nil {
		invalidInput(ctx, err)
		return "", false
	}
	return p, true
}

// BeginConnect handles GET /api/auth/:provider
func (h *AccountHandler) BeginConnect(ctx *gin.Context) {
	provider, ok := providerParam(ctx)
	if !ok {
		return
	}
	res, err := h.accountUsecase.BeginConnect(ctx.Request.Context(), userID(ctx), provider)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, res)
}

// Callback handles GET /auth/:provider/callback; the state identifies the user
func (h *AccountHandler) Callback(ctx *gin.Context) {
	provider, ok := providerParam(ctx)
	if !ok {
		return
	}
	if denied := ctx.Query("error"); denied != "" {
		reason := ctx.Query("error_description")
		if reason == "" {
			reason = denied
		}
		invalidInput(ctx, errors.New("authorization denied: "+reason))
		return
	}
	res, err := h.accountUsecase.CompleteConnect(ctx.Request.Context(), provider, ctx.Query("state"), ctx.Query("code"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, res)
}

// List handles GET /api/accounts
func (h *AccountHandler) List(ctx *gin.Context) {
	accounts, err := h.accountUsecase.List(ctx.Request.Context(), userID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, accounts)
}

// SetDefault handles PUT /api/accounts/:accountId/default
func (h *AccountHandler) SetDefault(ctx *gin.Context) {
	id, ok := idParam(ctx, "accountId")
	if !ok {
		return
	}
	if err := h.accountUsecase.SetDefault(ctx.Request.Context(), userID(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, gin.H{"account_id": id, "is_default": true})
}

// Disconnect handles DELETE /api/accounts/:accountId
func (h *AccountHandler) Disconnect(ctx *gin.Context) {
	id, ok := idParam(ctx, "accountId")
	if !ok {
		return
	}
	if err := h.accountUsecase.Disconnect(ctx.Request.Context(), userID(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, gin.H{"account_id": id, "disconnected": true})
}
