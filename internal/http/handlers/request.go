package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/services"
)

// bind decodes a JSON or form body into dst.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBind(dst); err != nil {
		return apperr.BadRequest("Malformed request body").WithCause(err)
	}
	return nil
}

// bindOptional is bind for endpoints whose body may be empty.
func bindOptional(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 && c.Request.Header.Get("Transfer-Encoding") == "" {
		return nil
	}
	return bind(c, dst)
}

// pathID parses the :id route parameter. Malformed ids read as missing rows.
func pathID(c *gin.Context, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound(notFound)
	}
	return id, nil
}

// optionalID parses an id sent as a plain string so form bodies work too.
func optionalID(field, raw string) (*uuid.UUID, *apperr.Error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation(field, "Must be a valid id")
	}
	return &id, nil
}

// optionalUUID is optionalID for PATCH fields, where an absent key and a
// cleared one differ.
func optionalUUID(field string, raw services.OptionalString) (services.OptionalUUID, *apperr.Error) {
	if !raw.Set {
		return services.OptionalUUID{}, nil
	}
	id, err := optionalID(field, raw.String())
	if err != nil {
		return services.OptionalUUID{}, err
	}
	return services.OptionalUUID{Set: true, Value: id}, nil
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func clientInfo(c *gin.Context) services.ClientInfo {
	return services.ClientInfo{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	}
}
