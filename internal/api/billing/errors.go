package billing

import (
	"net/http"

	"profile-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var kindStatus = map[billing.Kind]int{
	billing.KindValidation:      http.StatusBadRequest,
	billing.KindUnauthenticated: http.StatusUnauthorized,
	billing.KindAuthorization:   http.StatusForbidden,
	billing.KindConflict:        http.StatusConflict,
	billing.KindExternal:        http.StatusBadGateway,
	billing.KindInternal:        http.StatusInternalServerError,
}

// writeError renders a domain error as {"error", "code"}. Unclassified errors become 500.
func writeError(c *gin.Context, err error) {
	be, ok := billing.AsError(err)
	if !ok {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unclassified billing error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "code": billing.CodeInternal})
		return
	}

	status, ok := kindStatus[be.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", be.Code).Msg("billing request failed")
	}
	c.JSON(status, gin.H{"error": be.Msg, "code": be.Code})
}
