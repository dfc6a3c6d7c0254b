package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/errs"
	"storefront-service/models"
	"storefront-service/store"
	"storefront-service/utils"
)

const tokenTTL = 72 * time.Hour

type AuthController struct {
	Users     *store.UserStore
	JWTSecret string
}

func (ctl *AuthController) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := ctl.Users.Create(c.Request.Context(), req.Name, req.Email, string(hash))
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
			return
		}
		respondError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, ctl.JWTSecret, tokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"isAdmin": user.IsAdmin,
		"token":   token,
	})
}

func (ctl *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ctl.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		// Same response for unknown email and bad password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := utils.GenerateToken(user.ID, ctl.JWTSecret, tokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"isAdmin": user.IsAdmin,
		"token":   token,
	})
}

// Profile returns the authenticated user attached by the auth middleware.
func (ctl *AuthController) Profile(c *gin.Context) {
	value, ok := c.Get("user")
	user, _ := value.(*models.User)
	if !ok || user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}
