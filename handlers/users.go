package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"gamegscore/db"
	"gamegscore/models"
	"gamegscore/monitoring"
	"gamegscore/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// the dashboard's one-click test user
const (
	defaultUserName  = "Test Player"
	defaultUserEmail = "player@gamegscore.local"
)

// CreateUser - POST /api/create-user, the body is optional
func CreateUser(c *gin.Context) {
	var input models.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	if input.Name == "" {
		input.Name = defaultUserName
	}
	if input.Email == "" {
		input.Email = defaultUserEmail
	}
	input.Email = strings.ToLower(input.Email)

	conn := db.DB.WithContext(c.Request.Context())

	// Check if email already exists
	var existing models.User
	if err := conn.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.LogError("user lookup failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := models.User{Name: input.Name, Email: input.Email}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
		user.PasswordHash = string(hash)
	}

	if err := conn.Create(&user).Error; err != nil {
		utils.LogError("create user failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	monitoring.UsersCreated.Inc()

	resp := models.AuthResponse{Message: "User created successfully!", UserID: user.ID}
	if Tokens != nil {
		token, err := Tokens.Sign(user.ID)
		if err != nil {
			utils.LogError("sign token failed", map[string]interface{}{"user_id": user.ID, "error": err.Error()})
		} else {
			resp.Token = token
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Login - POST /api/login
func Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	var user models.User
	err := db.DB.WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(input.Email)).
		First(&user).Error
	if err != nil || user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		monitoring.AuthenticationAttempts.WithLabelValues("failure").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if Tokens == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication is not configured"})
		return
	}
	token, err := Tokens.Sign(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}
	monitoring.AuthenticationAttempts.WithLabelValues("success").Inc()

	c.JSON(http.StatusOK, models.AuthResponse{Message: "Login successful", UserID: user.ID, Token: token})
}
