package apperrors

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnold-commerce/backend/logger"
)

// envelope is the wire shape for every response.
type envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

// OK writes a success envelope.
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{OK: true, Data: data})
}

// Fail writes an error envelope. Internal errors are logged with their cause
// and the cause is stripped from the response.
func Fail(c *gin.Context, err error) {
	appErr := From(err)
	if appErr.Kind == KindInternal {
		logger.Error(c, "internal error", appErr.Err,
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}
	c.AbortWithStatusJSON(HTTPStatus(appErr.Kind), envelope{OK: false, Error: appErr})
}
