package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": data})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "kind": apperr.KindValidation, "error": msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "kind": "unauthorized", "error": msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"ok": false, "kind": apperr.KindForbidden, "error": msg})
}

// Error maps a service error to its HTTP status using the apperr kind.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.JSON(statusFor(kind), gin.H{"ok": false, "kind": kind, "error": messageFor(kind, err)})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindUnavailable, apperr.KindInvalidTransition, apperr.KindInsufficientPoints:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPayment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Processor failures surface a generic message; detail stays in server logs.
func messageFor(kind apperr.Kind, err error) string {
	if kind == apperr.KindPayment {
		return "payment could not be processed"
	}
	if kind == apperr.KindInternal {
		return "internal error"
	}
	return err.Error()
}
