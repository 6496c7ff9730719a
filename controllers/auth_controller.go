package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixpointrepo/marcom-backend/middleware"
	"github.com/pixpointrepo/marcom-backend/models"
	"github.com/pixpointrepo/marcom-backend/utils"
)

const tokenDuration = 24 * time.Hour

// AuthController issues the role-bearing tokens consumed by the admin
// gate. Operator accounts are provisioned out of band; there is no
// self-service registration.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies operator credentials and returns a signed JWT embedding
// the account role.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		utils.BadRequest(ctx, "username and password are required")
		return
	}

	var user models.AdminUser
	if err := a.db.First(&user, "username = ?", req.Username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusUnauthorized, "invalid credentials")
			return
		}
		utils.Fail(ctx, "failed to load account", err)
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Message(ctx, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenDuration)
	if err != nil {
		utils.Fail(ctx, "failed to issue token", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// Me returns the identity decoded from the presented token.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, _ := ctx.Get(middleware.ContextUserIDKey)
	username, _ := ctx.Get(middleware.ContextUsernameKey)
	role, _ := ctx.Get(middleware.ContextRoleKey)
	ctx.JSON(http.StatusOK, gin.H{
		"id":       userID,
		"username": username,
		"role":     role,
	})
}
