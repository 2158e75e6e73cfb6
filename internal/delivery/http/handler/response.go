package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges requests that return no resource
type SuccessResponse struct {
	Message string `json:"message"`
}

// currentUserID reads the id stored by the auth middleware and answers 401
// when it is missing.
func currentUserID(c *gin.Context) (int, bool) {
	v, exists := c.Get("user_id")
	userID, ok := v.(int)
	if !exists || !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized",
		})
		return 0, false
	}
	return userID, true
}
