package http

import (
	"errors"
	"net/http"
	"strconv"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/infrastructure/logger"
	"crosspost/interfaces/middleware"
	"crosspost/usecase"

	"github.com/gin-gonic/gin"
)

const codeInvalidInput = "invalid_input"

// statusOf maps an error code to the HTTP status returned to clients
func statusOf(code string) int {
	switch code {
	case codeInvalidInput, "invalid_state":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "no_account_connected", "reconnect_required", "publish_in_progress":
		return http.StatusConflict
	case "unsupported_media_type":
		return http.StatusUnprocessableEntity
	case "unsupported_operation":
		return http.StatusNotImplemented
	case "platform_api_error":
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorCode(err error) string {
	if errors.Is(err, usecase.ErrInvalidInput) {
		return codeInvalidInput
	}
	return model.ErrorCode(err)
}

func respond(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, dto.Res{
		ResponseCode:    strconv.Itoa(status),
		ResponseMessage: http.StatusText(status),
		Data:            data,
	})
}

func respondError(ctx *gin.Context, err error) {
	code := errorCode(err)
	status := statusOf(code)
	entry := logger.GetLogger().WithFields(map[string]interface{}{
		"path":       ctx.FullPath(),
		"user_id":    ctx.GetString(middleware.UserIDKey),
		"error_code": code,
		"error":      err.Error(),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}
	ctx.JSON(status, dto.Res{
		ResponseCode:    strconv.Itoa(status),
		ResponseMessage: err.Error(),
		ErrorCode:       code,
	})
}

func invalidInput(ctx *gin.Context, err error) {
	respondError(ctx, errors.Join(usecase.ErrInvalidInput, err))
}

func userID(ctx *gin.Context) string {
	return ctx.GetString(middleware.UserIDKey)
}

func idParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		invalidInput(ctx, errors.New(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
