package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type ErrorEnvelope struct {
	Errors apperr.List `json:"errors"`
}

// RespondError normalizes err and writes it as {"errors":[...]}. 5xx causes are
// logged but never sent to the client.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	list := apperr.Normalize(err)
	if len(list) == 0 {
		list = apperr.List{apperr.Internal(nil)}
	}
	status := list.Status()
	if log != nil {
		fields := append([]interface{}{"method", c.Request.Method, "route", c.FullPath(), "status", status},
			ctxutil.LogFields(c.Request.Context())...)
		if status >= http.StatusInternalServerError {
			log.Error("request failed", append(fields, "error", err)...)
		} else {
			log.Debug("request rejected", append(fields, "error", list.Error())...)
		}
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Errors: list})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
