package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/invoice-tracker/internal/async"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

// httpStatus maps application errors through their gRPC code.
func httpStatus(err error) int {
	if errors.Is(err, async.ErrQueueClosed) {
		return http.StatusServiceUnavailable
	}
	switch status.Code(common.ToStatus(err)) {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abort(c *gin.Context, err error) {
	code := httpStatus(err)
	log := common.Logger(c.Request.Context(), s.logger)
	if code >= 500 {
		log.Error("http.request.failed", "path", c.FullPath(), "error", err)
	} else {
		log.Warn("http.request.rejected", "path", c.FullPath(), "status", code, "error", err)
	}
	body := gin.H{"error": err.Error()}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body["code"] = appErr.Code
	}
	c.AbortWithStatusJSON(code, body)
}
