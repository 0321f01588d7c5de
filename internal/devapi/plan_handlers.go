package devapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PlanRequest is the body for creating or replacing a plan
type PlanRequest struct {
	Provider string  `json:"provider" binding:"required"`
	PlanName string  `json:"planName" binding:"required"`
	Price    float64 `json:"price" binding:"gt=0"`
	Data     string  `json:"data" binding:"required"`
	Validity string  `json:"validity" binding:"required"`
	AddOns   string  `json:"addOns"`
}

func (s *Server) listPlans(c *gin.Context) {
	var plans []Plan
	if err := s.db.Order("provider ASC, price ASC").Find(&plans).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list plans")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list plans"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (s *Server) createPlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := &Plan{
		Provider: req.Provider,
		PlanName: req.PlanName,
		Price:    req.Price,
		Data:     req.Data,
		Validity: req.Validity,
		AddOns:   req.AddOns,
	}
	if err := s.db.Create(plan).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
		return
	}

	s.logger.Info().Str("plan_id", plan.ID).Str("provider", plan.Provider).Msg("Plan created")
	c.JSON(http.StatusCreated, plan)
}

func (s *Server) updatePlan(c *gin.Context) {
	id := c.Param("id")

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var plan Plan
	if err := s.db.Where("id = ?", id).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		s.logger.Error().Err(err).Str("plan_id", id).Msg("Failed to load plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	plan.Provider = req.Provider
	plan.PlanName = req.PlanName
	plan.Price = req.Price
	plan.Data = req.Data
	plan.Validity = req.Validity
	plan.AddOns = req.AddOns

	if err := s.db.Save(&plan).Error; err != nil {
		s.logger.Error().Err(err).Str("plan_id", id).Msg("Failed to update plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (s *Server) deletePlan(c *gin.Context) {
	id := c.Param("id")

	result := s.db.Where("id = ?", id).Delete(&Plan{})
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Str("plan_id", id).Msg("Failed to delete plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete plan"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}

	s.logger.Info().Str("plan_id", id).Msg("Plan deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}
