package devapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionRequest is the body for appending a transaction
type TransactionRequest struct {
	UserID        string  `json:"userId"`
	MobileNumber  string  `json:"mobileNumber" binding:"required,len=10,numeric"`
	Provider      string  `json:"provider" binding:"required"`
	PlanID        string  `json:"planId" binding:"required"`
	Amount        float64 `json:"amount" binding:"gt=0"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
}

// TransactionResponse is a transaction with its plan and user populated.
// A reference whose record is gone is rendered as its bare id.
type TransactionResponse struct {
	Transaction
	User interface{} `json:"userId"`
	Plan interface{} `json:"planId"`
}

func newTransactionResponse(t Transaction) TransactionResponse {
	resp := TransactionResponse{Transaction: t, User: t.UserID, Plan: t.PlanID}
	if t.User != nil {
		resp.User = t.User
	}
	if t.Plan != nil {
		resp.Plan = t.Plan
	}
	return resp
}

func newTransactionResponses(txs []Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i, t := range txs {
		out[i] = newTransactionResponse(t)
	}
	return out
}

func (s *Server) listTransactions(c *gin.Context) {
	var txs []Transaction
	if err := s.db.Preload("User").Preload("Plan").Order("created_at DESC").Find(&txs).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, newTransactionResponses(txs))
}

func (s *Server) listUserTransactions(c *gin.Context) {
	session, _ := GetSession(c)
	id := c.Param("id")

	if id != session.User.ID && !session.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only view your own transactions"})
		return
	}

	var txs []Transaction
	if err := s.db.Preload("Plan").Where("user_id = ?", id).Order("created_at DESC").Find(&txs).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to list user transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, newTransactionResponses(txs))
}

func (s *Server) createTransaction(c *gin.Context) {
	session, _ := GetSession(c)

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Ordinary users always recharge on their own account
	userID := session.User.ID
	if session.IsAdmin() && req.UserID != "" {
		userID = req.UserID
	}

	var plan Plan
	if err := s.db.Where("id = ?", req.PlanID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Plan not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	status := strings.ToUpper(req.Status)
	if status == "" {
		status = "SUCCESS"
	}
	method := req.PaymentMethod
	if method == "" {
		method = "UPI"
	}

	tx := &Transaction{
		UserID:        userID,
		MobileNumber:  req.MobileNumber,
		Provider:      req.Provider,
		PlanID:        plan.ID,
		Amount:        req.Amount,
		PaymentMethod: method,
		Status:        status,
	}
	if err := s.db.Create(tx).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create transaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}
	tx.Plan = &plan

	s.logger.Info().Str("transaction_id", tx.ID).Str("user_id", userID).Float64("amount", tx.Amount).Msg("Transaction created")
	c.JSON(http.StatusCreated, newTransactionResponse(*tx))
}
