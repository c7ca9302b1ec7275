package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arnold-commerce/backend/apperrors"
)

// bindJSON binds the request body, writing a VALIDATION envelope on failure.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		apperrors.Fail(c, apperrors.New(apperrors.KindValidation, "", "invalid request body").Wrap(err))
		return false
	}
	return true
}

// pathUUID parses a uuid path parameter, writing a VALIDATION envelope on
// failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apperrors.Fail(c, apperrors.New(apperrors.KindValidation, "", "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
