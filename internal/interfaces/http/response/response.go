package response

import (
	"github.com/gin-gonic/gin"
	domainerrors "payment-hub.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Internal errors are never leaked verbatim;
// the correlation id travels in the X-Request-ID header set upstream.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if e, ok := err.(*domainerrors.AppError); ok {
		appErr = e
	} else {
		appErr = domainerrors.InternalError(err)
	}

	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if uetr := c.GetString("uetr"); uetr != "" {
		body["uetr"] = uetr
	}
	if ref := c.GetString("transaction_reference"); ref != "" {
		body["transactionReference"] = ref
	}
	c.JSON(appErr.Status, body)
}

// ErrorWithStatus sends an error response with a specific status and message
func ErrorWithStatus(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
