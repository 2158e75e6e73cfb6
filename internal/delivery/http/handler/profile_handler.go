package handler

import (
	"errors"
	"net/http"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/usecase/profile"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUseCase *profile.ProfileUseCase
}

func NewProfileHandler(profileUseCase *profile.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: profileUseCase,
	}
}

// GetMyProfile handles GET /profile/me
// @Summary Get my profile
// @Description Get current user's matching profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.Profile
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /profile/me [get]
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	p, err := h.profileUseCase.GetMyProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "profile not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to get profile",
		})
		return
	}

	c.JSON(http.StatusOK, p)
}

// UpdateMatchingProfile handles PUT /profile/me/matching
// @Summary Update my matching profile
// @Description Partially update matching fields, contest preferences and consents
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body profile.UpdateMatchingRequest true "Matching profile update"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /profile/me/matching [put]
func (h *ProfileHandler) UpdateMatchingProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req profile.UpdateMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
		return
	}

	updated, err := h.profileUseCase.UpdateMatchingProfile(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, domain.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GetProfileCompletion handles GET /matching/profile-completion
// @Summary Matching profile completion
// @Description Completion percentage and the empty fields that would improve matching
// @Tags matching
// @Security BearerAuth
// @Produce json
// @Success 200 {object} profile.CompletionResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /matching/profile-completion [get]
func (h *ProfileHandler) GetProfileCompletion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	completion, err := h.profileUseCase.ProfileCompletion(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "profile not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to get profile completion",
		})
		return
	}

	c.JSON(http.StatusOK, completion)
}
