package api

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/service"
	"alcyxob/gym-tracker/internal/tracker"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TrackerHandler serves the caller's workout tracker. Every request is one
// event on the caller's workspace and answers with the resulting snapshot.
type TrackerHandler struct {
	trackerService service.TrackerService
}

func NewTrackerHandler(trackerService service.TrackerService) *TrackerHandler {
	return &TrackerHandler{trackerService: trackerService}
}

// --- DTOs ---

type DayPatchRequest struct {
	Name *string    `json:"name"`
	Date *time.Time `json:"date"`
}

type SeriesPatchRequest struct {
	Name   *string            `json:"name"`
	Rounds *int               `json:"rounds"`
	Icon   *domain.SeriesIcon `json:"icon"`
}

type ExercisePatchRequest struct {
	Name      *string  `json:"name"`
	VideoURL  *string  `json:"videoUrl"`
	Bilateral *bool    `json:"bilateral"`
	Reps      *int     `json:"reps"`
	Duration  *int     `json:"duration"`
	Load      *float64 `json:"load"`
	Rating    *int     `json:"rating"`
}

type AddExerciseRequest struct {
	TemplateID string `json:"templateId"`
}

type RatingRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// SnapshotResponse is the tracker state after an event. CreatedID names the
// entity an add event created.
type SnapshotResponse struct {
	service.Snapshot
	CreatedID string `json:"createdId,omitempty"`
}

// --- Handler Methods ---

// Get returns the current tracker state.
// @Router /tracker [get]
func (h *TrackerHandler) Get(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SnapshotResponse{Snapshot: ws.Snapshot()})
}

// @Router /tracker/days [post]
func (h *TrackerHandler) AddDay(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, id, err := ws.AddDay(c.Request.Context())
	h.respond(c, http.StatusCreated, snap, id, err)
}

// @Router /tracker/days/{dayId} [patch]
func (h *TrackerHandler) UpdateDay(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req DayPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	snap, err := ws.UpdateDay(c.Request.Context(), c.Param("dayId"), tracker.DayPatch{
		Name: req.Name,
		Date: req.Date,
	})
	h.respond(c, http.StatusOK, snap, "", err)
}

// DeleteDay removes the day with all of its series and exercises.
// @Router /tracker/days/{dayId} [delete]
func (h *TrackerHandler) DeleteDay(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, err := ws.DeleteDay(c.Request.Context(), c.Param("dayId"))
	h.respond(c, http.StatusOK, snap, "", err)
}

// @Router /tracker/days/{dayId}/series [post]
func (h *TrackerHandler) AddSeries(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, id, err := ws.AddSeries(c.Request.Context(), c.Param("dayId"))
	h.respond(c, http.StatusCreated, snap, id, err)
}

// @Router /tracker/series/{seriesId} [patch]
func (h *TrackerHandler) UpdateSeries(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req SeriesPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	snap, err := ws.UpdateSeries(c.Request.Context(), c.Param("seriesId"), tracker.SeriesPatch{
		Name:   req.Name,
		Rounds: req.Rounds,
		Icon:   req.Icon,
	})
	h.respond(c, http.StatusOK, snap, "", err)
}

// DeleteSeries removes the series and its exercises from the day.
// @Router /tracker/days/{dayId}/series/{seriesId} [delete]
func (h *TrackerHandler) DeleteSeries(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, err := ws.DeleteSeries(c.Request.Context(), c.Param("seriesId"), c.Param("dayId"))
	h.respond(c, http.StatusOK, snap, "", err)
}

// @Router /tracker/series/{seriesId}/reset [post]
func (h *TrackerHandler) ResetSeries(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, err := ws.ResetSeries(c.Request.Context(), c.Param("seriesId"))
	h.respond(c, http.StatusOK, snap, "", err)
}

// AddExercise adds an exercise from scratch, or a copy of a catalog
// template when templateId is given.
// @Router /tracker/series/{seriesId}/exercises [post]
func (h *TrackerHandler) AddExercise(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req AddExerciseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}
	snap, id, err := ws.AddExercise(c.Request.Context(), c.Param("seriesId"), req.TemplateID)
	h.respond(c, http.StatusCreated, snap, id, err)
}

// @Router /tracker/exercises/{exerciseId} [patch]
func (h *TrackerHandler) UpdateExercise(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req ExercisePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	snap, err := ws.UpdateExercise(c.Request.Context(), c.Param("exerciseId"), tracker.ExercisePatch{
		Name:      req.Name,
		VideoURL:  req.VideoURL,
		Bilateral: req.Bilateral,
		Reps:      req.Reps,
		Duration:  req.Duration,
		Load:      req.Load,
		Rating:    req.Rating,
	})
	h.respond(c, http.StatusOK, snap, "", err)
}

// @Router /tracker/series/{seriesId}/exercises/{exerciseId} [delete]
func (h *TrackerHandler) DeleteExercise(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, err := ws.DeleteExercise(c.Request.Context(), c.Param("exerciseId"), c.Param("seriesId"))
	h.respond(c, http.StatusOK, snap, "", err)
}

// RecordRound marks one more round of an exercise as done.
// @Router /tracker/exercises/{exerciseId}/rounds [post]
func (h *TrackerHandler) RecordRound(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, err := ws.RecordRound(c.Request.Context(), c.Param("exerciseId"))
	h.respond(c, http.StatusOK, snap, "", err)
}

// @Router /tracker/exercises/{exerciseId}/rating [post]
func (h *TrackerHandler) RateExercise(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	snap, err := ws.RateExercise(c.Request.Context(), c.Param("exerciseId"), req.Rating)
	h.respond(c, http.StatusOK, snap, "", err)
}

// @Router /tracker/nav/days/{dayId} [post]
func (h *TrackerHandler) OpenDay(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, err := ws.OpenDay(c.Param("dayId"))
	h.respond(c, http.StatusOK, snap, "", err)
}

// @Router /tracker/nav/series/{seriesId} [post]
func (h *TrackerHandler) OpenSeries(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, err := ws.OpenSeries(c.Param("seriesId"))
	h.respond(c, http.StatusOK, snap, "", err)
}

// @Router /tracker/nav/back [post]
func (h *TrackerHandler) Back(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	snap, err := ws.Back()
	h.respond(c, http.StatusOK, snap, "", err)
}

func (h *TrackerHandler) workspace(c *gin.Context) (*service.Workspace, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	ws, err := h.trackerService.Workspace(c.Request.Context(), userID)
	switch {
	case err == nil:
		return ws, true
	case errors.Is(err, service.ErrWorkspaceClosed):
		abortWithError(c, http.StatusConflict, "Session ended, please retry")
	default:
		logrus.WithError(err).WithField("user", userID.Hex()).Warn("tracker workspace not available")
		abortWithError(c, http.StatusServiceUnavailable, "Tracker storage is unavailable, please retry")
	}
	return nil, false
}

func (h *TrackerHandler) respond(c *gin.Context, code int, snap service.Snapshot, createdID string, err error) {
	if err == nil {
		c.JSON(code, SnapshotResponse{Snapshot: snap, CreatedID: createdID})
		return
	}
	switch {
	case errors.Is(err, service.ErrDayNotFound),
		errors.Is(err, service.ErrSeriesNotFound),
		errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, service.ErrTemplateNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidRating):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWorkspaceClosed):
		abortWithError(c, http.StatusConflict, "Session ended, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusGatewayTimeout, "Catalog is not available yet")
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("tracker request failed")
		abortWithError(c, http.StatusInternalServerError, "Failed to save your workout, please retry")
	}
}
