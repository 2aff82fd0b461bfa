package http

import (
	"errors"
	"net/http"

	"pixel-place/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HandleServiceError 把服务层错误映射为 HTTP 状态码
func HandleServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrOutOfBounds) || errors.Is(err, service.ErrInvalidColor) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	} else if errors.Is(err, service.ErrHistoryUnavailable) {
		ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
	} else if errors.Is(err, service.ErrStorageFailure) {
		logrus.WithError(err).Error("Storage failure while serving request")
		ErrorResponse(c, http.StatusServiceUnavailable, "tile storage is unavailable, please retry")
	} else {
		// Log the internal error for debugging
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
