package devapi

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

const maxPhotoBytes = 5 << 20

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a registration request. Role is accepted but
// always stored as USER.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,len=10,numeric"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// UpdateUserRequest is a partial user update
type UpdateUserRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=2"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Phone        *string `json:"phone" binding:"omitempty,len=10,numeric"`
	ProfilePhoto *string `json:"profilePhoto"`
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	var user User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
		return
	}

	token, err := s.tokens.Generate(&user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("User logged in")
	c.JSON(http.StatusOK, AuthResponse{User: &user, Token: token})
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	email := strings.ToLower(req.Email)
	var count int64
	if err := s.db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
		return
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
		return
	}

	// Clients cannot self-elevate
	user := &User{
		Name:         req.Name,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         RoleUser,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
		return
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	c.JSON(http.StatusCreated, AuthResponse{User: user, Token: token})
}

func (s *Server) getProfile(c *gin.Context) {
	session, _ := GetSession(c)
	c.JSON(http.StatusOK, session.User)
}

func (s *Server) updateUser(c *gin.Context) {
	session, _ := GetSession(c)
	id := c.Param("id")

	if id != session.User.ID && !session.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(*req.Email)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.ProfilePhoto != nil {
		updates["profile_photo"] = *req.ProfilePhoto
	}

	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to update user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
		if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
			s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to reload user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) uploadPhoto(c *gin.Context) {
	session, _ := GetSession(c)

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if file.Size > maxPhotoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size must be less than 5MB"})
		return
	}

	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create upload directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	name := ulid.Make().String() + strings.ToLower(filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(s.config.UploadDir, name)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save uploaded photo")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	url := fmt.Sprintf("/uploads/%s", name)
	if err := s.db.Model(session.User).Update("profile_photo", url).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to store photo URL")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profilePhoto": url})
}

func (s *Server) listUsers(c *gin.Context) {
	var users []User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) deleteUser(c *gin.Context) {
	session, _ := GetSession(c)
	id := c.Param("id")

	if id == session.User.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete yourself"})
		return
	}

	result := s.db.Where("id = ?", id).Delete(&User{})
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Str("user_id", id).Msg("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	s.logger.Info().Str("user_id", id).Msg("User deleted")
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
