package server

import (
	"net/http"

	"github.com/ButyrinIA/blog/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	ErrBadRequestCode = "BAD_REQUEST"
	ErrInternalCode   = "INTERNAL_ERROR"
)

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type errorResponse struct {
	Error ErrorInfo `json:"error"`
}

func respondBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: ErrorInfo{
		Code:    ErrBadRequestCode,
		Message: "invalid request body",
		Details: err.Error(),
	}})
}

// respondInternalError логирует причину, клиенту уходит только общее сообщение.
func respondInternalError(c *gin.Context, msg string, err error) {
	logger.FromContext(c.Request.Context()).Error(msg, "error", err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: ErrorInfo{
		Code:    ErrInternalCode,
		Message: "internal server error",
	}})
}
