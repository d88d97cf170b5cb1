package api

import (
	"errors"                     // Error matching
	"net/http"                   // HTTP status codes
	"strconv"                    // String conversion
	"ton_topup/internal/account" // Account service for cache invalidation
	"ton_topup/internal/domain"  // Importing domain models
	"ton_topup/internal/payment" // Payment lifecycle

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CreatePaymentRequest represents a top-up request
type CreatePaymentRequest struct {
	UserID int64  `json:"user_id" binding:"required,gt=0"` // Paying user
	Amount int64  `json:"amount" binding:"required,gt=0"`  // Whole TON
	Method string `json:"method"`                          // Credit method, defaults to ton-ton
}

// CreatePaymentResponse tells the client where to send the transfer
type CreatePaymentResponse struct {
	PaymentID uint   `json:"payment_id"` // Payment ID
	Memo      string `json:"memo"`       // Transfer comment
	Amount    int64  `json:"amount"`     // Whole TON
	Wallet    string `json:"wallet"`     // Receiving address
	TonURL    string `json:"ton_url"`    // ton://transfer link
}

// ConfirmPaymentRequest carries the memo seen on chain
type ConfirmPaymentRequest struct {
	Memo string `json:"memo" binding:"required"` // Transfer comment
}

// CreatePaymentHandler creates a pending payment and returns the transfer details
func CreatePaymentHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePaymentRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and amount required"})
			return
		}
		if req.Method == "" {
			req.Method = string(domain.MethodTon) // Default method
		}
		// Only TON transfers can be matched by memo
		if req.Method != string(domain.MethodTon) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only ton-ton method supported"})
			return
		}
		created, err := svc.CreatePayment(c.Request.Context(), req.UserID, req.Amount)
		if err != nil {
			respondError(c, err, "Failed to create payment")
			return
		}
		// Return transfer details
		c.JSON(http.StatusOK, CreatePaymentResponse{
			PaymentID: created.Payment.ID,
			Memo:      created.Transfer.Memo,
			Amount:    created.Transfer.Amount,
			Wallet:    created.Transfer.WalletAddress,
			TonURL:    created.Transfer.URI,
		})
	}
}

// CheckPaymentHandler returns the status of a payment by ID
func CheckPaymentHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Query("payment_id"), 10, 64) // Parse payment ID
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_id required"})
			return
		}
		p, err := svc.GetPayment(c.Request.Context(), uint(id))
		if err != nil {
			respondError(c, err, "Failed to load payment")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"payment_id": p.ID,     // Payment ID
			"status":     p.Status, // pending or completed
			"amount":     p.Amount, // Whole TON
			"memo":       p.Memo,   // Transfer comment
		})
	}
}

// ConfirmPaymentHandler credits the payment matching the memo, once
func ConfirmPaymentHandler(svc *payment.Service, acct *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConfirmPaymentRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "memo required"})
			return
		}
		conf, err := svc.ConfirmPayment(c.Request.Context(), req.Memo)
		if err != nil {
			respondError(c, err, "Failed to confirm payment")
			return
		}
		// Balance changed, drop cached profile and history
		if conf.Status == payment.StatusCompleted {
			acct.Invalidate(c.Request.Context(), conf.Payment.UserID)
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  conf.Status,         // completed or already_completed
			"user_id": conf.Payment.UserID, // Credited user
		})
	}
}

// respondError maps service errors to HTTP statuses
func respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, payment.ErrValidation), errors.Is(err, account.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
	case errors.Is(err, account.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		// Log the error with context
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(), // Route
			"error": err.Error(),  // Error message
		}).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
