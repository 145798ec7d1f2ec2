package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ripple-social/ripple/services"
	"github.com/ripple-social/ripple/utils"
)

// writeServiceError maps service sentinel errors onto the HTTP envelope.
func writeServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "resource not found")
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40300, "operation not permitted")
	case errors.Is(err, services.ErrSelfAction):
		utils.Error(ctx, http.StatusBadRequest, 40020, "cannot perform this action on yourself")
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40900, "resource already exists")
	case errors.Is(err, services.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
	case errors.Is(err, services.ErrUpstream):
		utils.Error(ctx, http.StatusInternalServerError, 50020, "upstream provider error")
	default:
		utils.Sugar.Errorw("unhandled service error", "path", ctx.FullPath(), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal error")
	}
}

func uintParam(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func intQuery(ctx *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func boolQuery(ctx *gin.Context, name string) bool {
	raw := strings.TrimSpace(ctx.Query(name))
	return raw == "1" || strings.EqualFold(raw, "true")
}
