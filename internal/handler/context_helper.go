package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/akshay-km/studyvault-api/internal/middleware"
	"github.com/akshay-km/studyvault-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func userInfoFromClaims(claims *models.JWTClaims) models.UserInfo {
	return models.UserInfo{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}
}
