package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"allinbee/internal/auth"
	"allinbee/pkg/middleware"
	"allinbee/pkg/utils"
)

// caller returns the identity set by the JWT middleware, or the anonymous
// identity on public routes.
func caller(c *gin.Context) auth.Identity {
	identity, _ := middleware.IdentityFrom(c)
	return identity
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
		}
		utils.HandleServiceError(c, utils.ValidationError("invalid fields: "+strings.Join(fields, ", ")))
		return
	}
	utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}
