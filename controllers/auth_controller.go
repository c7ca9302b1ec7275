package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/middleware"
	"github.com/arnold-commerce/backend/services"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// AuthController translates HTTP requests into credential-store calls.
type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register creates a new customer account.
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ac.auth.Register(c, req.Email, req.Password)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusCreated, user)
}

// Login verifies credentials and returns a session token.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := ac.auth.Login(c, req.Email, req.Password)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, session)
}

// Logout revokes the caller's session token.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.auth.Revoke(c, middleware.TokenFrom(c)); err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (ac *AuthController) Me(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)

	user, err := ac.auth.Profile(c, identity.UserID)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, user)
}

// ChangePassword rotates the caller's credential hash.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	identity, _ := middleware.IdentityFrom(c)

	if err := ac.auth.ChangePassword(c, identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, gin.H{"message": "password updated"})
}

// DeleteAccount removes the caller's account and revokes the session.
func (ac *AuthController) DeleteAccount(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)

	if err := ac.auth.DeleteAccount(c, identity.UserID, middleware.TokenFrom(c)); err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, gin.H{"message": "account deleted"})
}
