package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gdugdh24/teamup-backend/internal/domain"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/logging"
	"github.com/gdugdh24/teamup-backend/internal/usecase/matching"
	"github.com/gin-gonic/gin"
)

type MatchingHandler struct {
	matchingUseCase *matching.MatchingUseCase
}

func NewMatchingHandler(matchingUseCase *matching.MatchingUseCase) *MatchingHandler {
	return &MatchingHandler{
		matchingUseCase: matchingUseCase,
	}
}

// RecommendationsQuery are the query parameters of GET /matching/recommendations
type RecommendationsQuery struct {
	ContestID *int   `form:"contestId" binding:"omitempty,min=1"`
	TwoWay    bool   `form:"twoWay"`
	Limit     *int   `form:"limit" binding:"omitempty,min=1,max=10"`
	Exclude   string `form:"exclude"`
}

// GetRecommendations handles GET /matching/recommendations
// @Summary Get teammate recommendations
// @Description Ordered, diversity-aware teammate recommendations for the current user
// @Tags matching
// @Security BearerAuth
// @Produce json
// @Param contestId query int false "Contest scope"
// @Param twoWay query bool false "Require mutual interest"
// @Param limit query int false "1..10, default 5"
// @Param exclude query string false "Comma separated user ids to skip"
// @Success 200 {object} matching.RecommendResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /matching/recommendations [get]
func (h *MatchingHandler) GetRecommendations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var q RecommendationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid query parameters",
		})
		return
	}

	exclude, err := parseIDList(q.Exclude)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "exclude must be a comma separated list of user ids",
		})
		return
	}

	if q.ContestID != nil && !h.contestExists(c, *q.ContestID) {
		return
	}

	limit := 0
	if q.Limit != nil {
		limit = *q.Limit
	}

	result, err := h.matchingUseCase.Recommend(c.Request.Context(), matching.RecommendRequest{
		RequesterID: userID,
		ContestID:   q.ContestID,
		TwoWay:      q.TwoWay,
		Limit:       limit,
		ExcludeIDs:  exclude,
	})
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Int("user_id", userID).Msg("recommendations failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to get recommendations",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetScore handles GET /matching/score/:candidateId
// @Summary Score one candidate
// @Description Pairwise compatibility between the current user and a candidate
// @Tags matching
// @Security BearerAuth
// @Produce json
// @Param candidateId path int true "Candidate user ID"
// @Param contestId query int false "Contest scope"
// @Success 200 {object} matching.ScoreResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /matching/score/{candidateId} [get]
func (h *MatchingHandler) GetScore(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	candidateID, err := strconv.Atoi(c.Param("candidateId"))
	if err != nil || candidateID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid candidate id",
		})
		return
	}

	var contestID *int
	if raw := c.Query("contestId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "invalid contest id",
			})
			return
		}
		if !h.contestExists(c, id) {
			return
		}
		contestID = &id
	}

	result, err := h.matchingUseCase.Score(c.Request.Context(), userID, candidateID, contestID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot score yourself"})
		case errors.Is(err, domain.ErrMatchingConsentRequired):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "enable matching in your profile first"})
		case errors.Is(err, domain.ErrProfileNotFound), errors.Is(err, domain.ErrCandidateNotEligible):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "candidate not found"})
		default:
			logging.Ctx(c.Request.Context()).Error().Err(err).Int("candidate_id", candidateID).Msg("scoring failed")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to score candidate"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Refresh handles POST /matching/refresh
// @Summary Refresh recommendations
// @Description Drop cached recommendations of the current user; the next request recomputes
// @Tags matching
// @Security BearerAuth
// @Produce json
// @Success 202 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /matching/refresh [post]
func (h *MatchingHandler) Refresh(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.matchingUseCase.Refresh(c.Request.Context(), userID); err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Int("user_id", userID).Msg("refresh failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to refresh recommendations",
		})
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{
		Message: "recommendations cache invalidated",
	})
}

// contestExists answers 400 for unknown contests and 500 for lookup failures.
func (h *MatchingHandler) contestExists(c *gin.Context, contestID int) bool {
	_, err := h.matchingUseCase.ResolveContest(c.Request.Context(), contestID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrContestNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "contest not found"})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Int("contest_id", contestID).Msg("contest lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to resolve contest"})
	}
	return false
}

func parseIDList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id <= 0 {
			return nil, domain.ErrInvalidInput
		}
		ids = append(ids, id)
	}
	return ids, nil
}
