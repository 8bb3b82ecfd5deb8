package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/storage"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTemplateNotFound  = errors.New("exercise template not found")
	ErrValidationFailed  = errors.New("exercise template validation failed")
	ErrMediaNotAvailable = errors.New("media storage is not configured")
)

// TemplateInput carries the editable fields of a catalog template.
type TemplateInput struct {
	Name         string
	Description  string
	MuscleGroup  string
	Equipment    []string
	Difficulty   domain.Difficulty
	Instructions []string
	VideoURL     string
	ImageURL     string
}

// MediaUpload is a presigned upload target for a template video or image.
type MediaUpload struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type CatalogService interface {
	// GetAll returns the whole catalog. Workspaces call it once on mount.
	GetAll(ctx context.Context) ([]domain.ExerciseTemplate, error)
	List(ctx context.Context, filter repository.CatalogFilter) ([]domain.ExerciseTemplate, error)
	GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error)
	CreateTemplate(ctx context.Context, in TemplateInput) (*domain.ExerciseTemplate, error)
	UpdateTemplate(ctx context.Context, id primitive.ObjectID, in TemplateInput) (*domain.ExerciseTemplate, error)
	DeleteTemplate(ctx context.Context, id primitive.ObjectID) error
	RequestMediaUpload(ctx context.Context, id primitive.ObjectID, fileName, contentType string) (*MediaUpload, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	media       storage.MediaStorage // nil when no bucket is configured
}

// NewCatalogService creates the catalog service. media may be nil.
func NewCatalogService(catalogRepo repository.CatalogRepository, media storage.MediaStorage) CatalogService {
	return &catalogService{
		catalogRepo: catalogRepo,
		media:       media,
	}
}

func (s *catalogService) GetAll(ctx context.Context) ([]domain.ExerciseTemplate, error) {
	return s.catalogRepo.List(ctx, repository.CatalogFilter{})
}

func (s *catalogService) List(ctx context.Context, filter repository.CatalogFilter) ([]domain.ExerciseTemplate, error) {
	if filter.Difficulty != "" && !validDifficulty(filter.Difficulty) {
		return nil, ErrValidationFailed
	}
	return s.catalogRepo.List(ctx, filter)
}

func (s *catalogService) GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error) {
	tmpl, err := s.catalogRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return tmpl, nil
}

func (s *catalogService) CreateTemplate(ctx context.Context, in TemplateInput) (*domain.ExerciseTemplate, error) {
	if err := validateTemplate(in); err != nil {
		return nil, err
	}
	tmpl := &domain.ExerciseTemplate{}
	applyTemplateInput(tmpl, in)

	id, err := s.catalogRepo.Create(ctx, tmpl)
	if err != nil {
		return nil, err
	}
	return s.GetTemplate(ctx, id)
}

func (s *catalogService) UpdateTemplate(ctx context.Context, id primitive.ObjectID, in TemplateInput) (*domain.ExerciseTemplate, error) {
	if err := validateTemplate(in); err != nil {
		return nil, err
	}
	existing, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	applyTemplateInput(existing, in)

	if err := s.catalogRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return existing, nil
}

func (s *catalogService) DeleteTemplate(ctx context.Context, id primitive.ObjectID) error {
	err := s.catalogRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTemplateNotFound
	}
	return err
}

// RequestMediaUpload presigns an upload for a template's video or image.
// The client stores the returned object key in the template afterwards.
func (s *catalogService) RequestMediaUpload(ctx context.Context, id primitive.ObjectID, fileName, contentType string) (*MediaUpload, error) {
	if s.media == nil {
		return nil, ErrMediaNotAvailable
	}
	if fileName == "" || !(strings.HasPrefix(contentType, "video/") || strings.HasPrefix(contentType, "image/")) {
		return nil, ErrValidationFailed
	}
	if _, err := s.GetTemplate(ctx, id); err != nil {
		return nil, err
	}
	url, key, err := s.media.PresignUpload(ctx, id.Hex(), fileName, contentType)
	if err != nil {
		return nil, err
	}
	return &MediaUpload{UploadURL: url, ObjectKey: key}, nil
}

func validateTemplate(in TemplateInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrValidationFailed
	}
	if in.Difficulty != "" && !validDifficulty(in.Difficulty) {
		return ErrValidationFailed
	}
	return nil
}

func validDifficulty(d domain.Difficulty) bool {
	switch d {
	case domain.DifficultyBeginner, domain.DifficultyIntermediate, domain.DifficultyAdvanced:
		return true
	}
	return false
}

func applyTemplateInput(tmpl *domain.ExerciseTemplate, in TemplateInput) {
	tmpl.Name = strings.TrimSpace(in.Name)
	tmpl.Description = in.Description
	tmpl.MuscleGroup = in.MuscleGroup
	tmpl.Equipment = in.Equipment
	tmpl.Difficulty = in.Difficulty
	tmpl.Instructions = in.Instructions
	tmpl.VideoURL = in.VideoURL
	tmpl.ImageURL = in.ImageURL
}
