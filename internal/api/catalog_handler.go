package api

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CatalogHandler serves the shared exercise catalog.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- DTOs ---

// TemplateRequest defines the expected JSON for creating or replacing a template.
type TemplateRequest struct {
	Name         string            `json:"name" binding:"required"`
	Description  string            `json:"description"`
	MuscleGroup  string            `json:"muscleGroup"`
	Equipment    []string          `json:"equipment"`
	Difficulty   domain.Difficulty `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Instructions []string          `json:"instructions"`
	VideoURL     string            `json:"videoUrl" binding:"omitempty,url"`
	ImageURL     string            `json:"imageUrl" binding:"omitempty,url"`
}

func (r TemplateRequest) input() service.TemplateInput {
	return service.TemplateInput{
		Name:         r.Name,
		Description:  r.Description,
		MuscleGroup:  r.MuscleGroup,
		Equipment:    r.Equipment,
		Difficulty:   r.Difficulty,
		Instructions: r.Instructions,
		VideoURL:     r.VideoURL,
		ImageURL:     r.ImageURL,
	}
}

// MediaUploadRequest asks for a presigned upload of a template video or image.
type MediaUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// TemplateResponse is the DTO for returning catalog entries.
type TemplateResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	MuscleGroup  string            `json:"muscleGroup,omitempty"`
	Equipment    []string          `json:"equipment"`
	Difficulty   domain.Difficulty `json:"difficulty,omitempty"`
	Instructions []string          `json:"instructions"`
	VideoURL     string            `json:"videoUrl,omitempty"`
	ImageURL     string            `json:"imageUrl,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// MapTemplateToResponse converts a domain.ExerciseTemplate to its DTO.
func MapTemplateToResponse(t *domain.ExerciseTemplate) TemplateResponse {
	if t == nil {
		return TemplateResponse{}
	}
	resp := TemplateResponse{
		ID:           t.ID.Hex(),
		Name:         t.Name,
		Description:  t.Description,
		MuscleGroup:  t.MuscleGroup,
		Equipment:    t.Equipment,
		Difficulty:   t.Difficulty,
		Instructions: t.Instructions,
		VideoURL:     t.VideoURL,
		ImageURL:     t.ImageURL,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if resp.Equipment == nil {
		resp.Equipment = []string{}
	}
	if resp.Instructions == nil {
		resp.Instructions = []string{}
	}
	return resp
}

// MapTemplatesToResponse converts a slice of templates; never nil.
func MapTemplatesToResponse(templates []domain.ExerciseTemplate) []TemplateResponse {
	responses := make([]TemplateResponse, len(templates))
	for i := range templates {
		responses[i] = MapTemplateToResponse(&templates[i])
	}
	return responses
}

// --- Handler Methods ---

// List returns the catalog, optionally filtered by muscleGroup and difficulty.
// @Router /catalog [get]
func (h *CatalogHandler) List(c *gin.Context) {
	filter := repository.CatalogFilter{
		MuscleGroup: c.Query("muscleGroup"),
		Difficulty:  domain.Difficulty(c.Query("difficulty")),
	}
	templates, err := h.catalogService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err, "Failed to retrieve catalog.")
		return
	}
	c.JSON(http.StatusOK, MapTemplatesToResponse(templates))
}

// Get returns one catalog entry.
// @Router /catalog/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	tmpl, err := h.catalogService.GetTemplate(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "Failed to retrieve exercise template.")
		return
	}
	c.JSON(http.StatusOK, MapTemplateToResponse(tmpl))
}

// Create adds a template to the catalog (admin).
// @Router /admin/catalog [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	tmpl, err := h.catalogService.CreateTemplate(c.Request.Context(), req.input())
	if err != nil {
		h.handleError(c, err, "Failed to create exercise template.")
		return
	}
	c.JSON(http.StatusCreated, MapTemplateToResponse(tmpl))
}

// Update replaces the editable fields of a template (admin).
// @Router /admin/catalog/{id} [put]
func (h *CatalogHandler) Update(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	tmpl, err := h.catalogService.UpdateTemplate(c.Request.Context(), id, req.input())
	if err != nil {
		h.handleError(c, err, "Failed to update exercise template.")
		return
	}
	c.JSON(http.StatusOK, MapTemplateToResponse(tmpl))
}

// Delete removes a template (admin). Exercises cloned from it are kept.
// @Router /admin/catalog/{id} [delete]
func (h *CatalogHandler) Delete(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteTemplate(c.Request.Context(), id); err != nil {
		h.handleError(c, err, "Failed to delete exercise template.")
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestMediaUpload returns a presigned URL for uploading a template video or image (admin).
// @Router /admin/catalog/{id}/media [post]
func (h *CatalogHandler) RequestMediaUpload(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req MediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	upload, err := h.catalogService.RequestMediaUpload(c.Request.Context(), id, req.FileName, req.ContentType)
	if err != nil {
		h.handleError(c, err, "Failed to prepare upload.")
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (h *CatalogHandler) handleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMediaNotAvailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("catalog request failed")
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
