package utils

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
	"github.com/rs/zerolog/log"
)

type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	ErrorCode string      `json:"error_code,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, errCode int, format string, args ...interface{}) {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}

	e := utils.NewError(errCode, message)
	c.JSON(utils.GetHTTPStatusCode(errCode), Response{
		Code:      errCode,
		Message:   message,
		ErrorCode: utils.ErrorCode(e),
	})
}

// HandleError maps a service error to the response envelope. Typed errors
// keep their code and message; anything else becomes a generic internal
// error so details never leak to clients.
func HandleError(c *gin.Context, err error) {
	var appErr *utils.Error
	if errors.As(err, &appErr) {
		c.JSON(utils.GetHTTPStatusCode(appErr.Code), Response{
			Code:      appErr.Code,
			Message:   appErr.Message,
			ErrorCode: utils.ErrorCode(appErr),
		})
		return
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
	c.JSON(utils.GetHTTPStatusCode(utils.ErrCodeInternalError), Response{
		Code:      utils.ErrCodeInternalError,
		Message:   "internal server error",
		ErrorCode: "INTERNAL_ERROR",
	})
}
