package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"survey-rewards-backend/internal/common/middleware"
	"survey-rewards-backend/internal/features/survey/models"
	"survey-rewards-backend/internal/features/survey/service"
)

type SurveyHandler struct {
	service service.SurveyService
}

func NewSurveyHandler(service service.SurveyService) *SurveyHandler {
	return &SurveyHandler{service: service}
}

// RegisterRoutes wires the survey endpoints. Listing accepts an optional
// wallet identity header and filters to the eligible subset when present;
// reading a single survey requires the header so the eligibility flag is
// always meaningful. Mutations require a session token and an activated
// account.
func (h *SurveyHandler) RegisterRoutes(router *gin.RouterGroup, auth, active, identity, identityOptional gin.HandlerFunc) {
	surveys := router.Group("/surveys")
	{
		surveys.GET("", identityOptional, h.list)
		surveys.GET("/mine", auth, h.mine)
		surveys.GET("/:id", identity, h.getByID)
		surveys.POST("", auth, active, h.create)
		surveys.PUT("/:id", auth, active, h.update)
		surveys.DELETE("/:id", auth, active, h.delete)
		surveys.POST("/:id/response", auth, active, h.submitResponse)
	}
}

// @Summary List open surveys
// @Description Returns all open surveys, or only the eligible ones when a wallet identity header is sent
// @Tags surveys
// @Produce json
// @Param X-Casper-Public-Key header string false "Wallet public key"
// @Success 200 {array} models.SurveyResponse
// @Router /surveys [get]
func (h *SurveyHandler) list(c *gin.Context) {
	surveys, err := h.service.List(c.Request.Context(), middleware.Viewer(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list surveys"})
		return
	}
	c.JSON(http.StatusOK, surveys)
}

// @Summary Get a survey
// @Tags surveys
// @Produce json
// @Param id path string true "Survey ID"
// @Param X-Casper-Public-Key header string true "Wallet public key"
// @Success 200 {object} models.SurveyResponse
// @Router /surveys/{id} [get]
func (h *SurveyHandler) getByID(c *gin.Context) {
	survey, err := h.service.GetByID(c.Request.Context(), c.Param("id"), middleware.Viewer(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get survey"})
		return
	}
	c.JSON(http.StatusOK, survey)
}

// @Summary Surveys created by the current user
// @Tags surveys
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.SurveyResponse
// @Router /surveys/mine [get]
func (h *SurveyHandler) mine(c *gin.Context) {
	surveys, err := h.service.GetByCreator(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list surveys"})
		return
	}
	c.JSON(http.StatusOK, surveys)
}

// @Summary Create a survey
// @Tags surveys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param survey body models.SurveyCreate true "Survey"
// @Success 201 {object} models.SurveyResponse
// @Router /surveys [post]
func (h *SurveyHandler) create(c *gin.Context) {
	var input models.SurveyCreate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	survey, err := h.service.Create(c.Request.Context(), middleware.UserID(c), &input)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create survey"})
		return
	}
	c.JSON(http.StatusCreated, survey)
}

// @Summary Update a survey
// @Description Only the creator can update, and only while the survey has no responses
// @Tags surveys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param survey body models.SurveyUpdate true "Fields to change"
// @Success 200 {object} models.SurveyResponse
// @Router /surveys/{id} [put]
func (h *SurveyHandler) update(c *gin.Context) {
	var input models.SurveyUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	survey, err := h.service.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the creator can update a survey"})
		case errors.Is(err, service.ErrSurveyLocked):
			c.JSON(http.StatusConflict, gin.H{"error": "survey already has responses or has ended"})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update survey"})
		}
		return
	}
	c.JSON(http.StatusOK, survey)
}

// @Summary Delete a survey
// @Tags surveys
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Success 204
// @Router /surveys/{id} [delete]
func (h *SurveyHandler) delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the creator can delete a survey"})
		case errors.Is(err, service.ErrSurveyLocked):
			c.JSON(http.StatusConflict, gin.H{"error": "survey already has responses"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete survey"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Submit a response
// @Description One answer text per question, in question order; one response per user per survey
// @Tags surveys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Survey ID"
// @Param response body models.ResponseSubmit true "Answers"
// @Success 201 {object} models.Response
// @Router /surveys/{id}/response [post]
func (h *SurveyHandler) submitResponse(c *gin.Context) {
	var input models.ResponseSubmit
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.service.SubmitResponse(c.Request.Context(), c.Param("id"), middleware.UserID(c), input.Answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		case errors.Is(err, service.ErrDuplicateResponse):
			c.JSON(http.StatusConflict, gin.H{"error": "user has already responded to this survey"})
		case errors.Is(err, service.ErrOwnSurvey):
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot respond to your own survey"})
		case errors.Is(err, service.ErrSurveyEnded):
			c.JSON(http.StatusGone, gin.H{"error": "survey has ended"})
		case errors.Is(err, service.ErrSurveyFull):
			c.JSON(http.StatusGone, gin.H{"error": "survey is full"})
		case errors.Is(err, service.ErrAnswerCountMismatch):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "expected one answer per question"})
		case errors.Is(err, service.ErrAnswerNotFound):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "answer does not match any option"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit response"})
		}
		return
	}
	c.JSON(http.StatusCreated, response)
}
