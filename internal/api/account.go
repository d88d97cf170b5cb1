package api

import (
	"net/http"                   // HTTP status codes
	"strconv"                    // String conversion
	"ton_topup/internal/account" // Account service

	"github.com/gin-gonic/gin" // Gin web framework
)

// GetUserHandler returns the user's profile and balances
func GetUserHandler(acct *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := queryUserID(c) // Parse user ID
		if !ok {
			return
		}
		u, err := acct.GetProfile(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "Failed to load user")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id":        u.ID,            // Telegram user ID
			"username":       u.Username,      // Telegram username
			"first_name":     u.FirstName,     // First name
			"last_name":      u.LastName,      // Last name
			"avatar_url":     u.AvatarURL,     // Avatar
			"telegram_stars": u.TelegramStars, // Points balance
			"ton_balance":    u.TonBalance,    // TON balance
		})
	}
}

// GetOperationsHandler returns the user's operations, newest first
func GetOperationsHandler(acct *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := queryUserID(c) // Parse user ID
		if !ok {
			return
		}
		limit := 0 // Service default
		// If limit exists in query
		if l := c.Query("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 {
				limit = v // Set limit if valid
			}
		}
		ops, err := acct.ListHistory(c.Request.Context(), userID, limit)
		if err != nil {
			respondError(c, err, "Failed to load operations")
			return
		}
		c.JSON(http.StatusOK, gin.H{"operations": ops})
	}
}

// queryUserID reads a positive user_id query parameter or writes a 400
func queryUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return 0, false
	}
	return userID, true
}
