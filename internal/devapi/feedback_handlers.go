package devapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// FeedbackRequest is the body for submitting a testimonial
type FeedbackRequest struct {
	Name         string `json:"name"`
	ProfilePhoto string `json:"profilePhoto"`
	Feedback     string `json:"feedback" binding:"required"`
	Rating       int    `json:"rating" binding:"min=1,max=5"`
}

func (s *Server) listApprovedFeedbacks(c *gin.Context) {
	var feedbacks []Feedback
	if err := s.db.Where("approved = ?", true).Order("created_at DESC").Find(&feedbacks).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list feedbacks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feedbacks"})
		return
	}
	c.JSON(http.StatusOK, feedbacks)
}

func (s *Server) createFeedback(c *gin.Context) {
	session, _ := GetSession(c)

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text := strings.TrimSpace(req.Feedback)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Feedback is required"})
		return
	}

	name := req.Name
	if name == "" {
		name = session.User.Name
	}

	feedback := &Feedback{
		UserID:       session.User.ID,
		Name:         name,
		ProfilePhoto: req.ProfilePhoto,
		Feedback:     text,
		Rating:       req.Rating,
		Approved:     false, // awaits moderation
	}
	if err := s.db.Create(feedback).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit feedback"})
		return
	}

	c.JSON(http.StatusCreated, feedback)
}
