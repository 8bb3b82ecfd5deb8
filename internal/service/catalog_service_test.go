package service_test

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/service"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMedia struct {
	uploads []string
}

func (m *fakeMedia) PresignUpload(_ context.Context, templateID, fileName, _ string) (string, string, error) {
	key := "catalog/" + templateID + "/" + fileName
	m.uploads = append(m.uploads, key)
	return "https://bucket.example.com/" + key + "?sig", key, nil
}

func (m *fakeMedia) PresignDownload(_ context.Context, objectKey string) (string, error) {
	return "https://bucket.example.com/" + objectKey, nil
}

func TestCatalogService_CRUD(t *testing.T) {
	ctx := context.Background()
	catalog := service.NewCatalogService(newFakeCatalogRepo(), nil)

	created, err := catalog.CreateTemplate(ctx, service.TemplateInput{
		Name:        "  Squat ",
		MuscleGroup: "Legs",
		Difficulty:  domain.DifficultyBeginner,
		VideoURL:    "https://example.com/squat",
	})
	require.NoError(t, err)
	assert.Equal(t, "Squat", created.Name)

	updated, err := catalog.UpdateTemplate(ctx, created.ID, service.TemplateInput{
		Name:       "Back Squat",
		Difficulty: domain.DifficultyIntermediate,
	})
	require.NoError(t, err)
	assert.Equal(t, "Back Squat", updated.Name)
	assert.Empty(t, updated.VideoURL)

	all, err := catalog.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, catalog.DeleteTemplate(ctx, created.ID))
	assert.ErrorIs(t, catalog.DeleteTemplate(ctx, created.ID), service.ErrTemplateNotFound)
	_, err = catalog.GetTemplate(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)
}

func TestCatalogService_Validation(t *testing.T) {
	ctx := context.Background()
	catalog := service.NewCatalogService(newFakeCatalogRepo(), nil)

	_, err := catalog.CreateTemplate(ctx, service.TemplateInput{Name: " "})
	assert.ErrorIs(t, err, service.ErrValidationFailed)
	_, err = catalog.CreateTemplate(ctx, service.TemplateInput{Name: "Row", Difficulty: "expert"})
	assert.ErrorIs(t, err, service.ErrValidationFailed)
	_, err = catalog.List(ctx, repository.CatalogFilter{Difficulty: "expert"})
	assert.ErrorIs(t, err, service.ErrValidationFailed)
	_, err = catalog.UpdateTemplate(ctx, primitive.NewObjectID(), service.TemplateInput{Name: "Row"})
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)
}

func TestCatalogService_ListFilters(t *testing.T) {
	repo := newFakeCatalogRepo(
		domain.ExerciseTemplate{ID: primitive.NewObjectID(), Name: "Squat", MuscleGroup: "Legs", Difficulty: domain.DifficultyBeginner},
		domain.ExerciseTemplate{ID: primitive.NewObjectID(), Name: "Deadlift", MuscleGroup: "Back", Difficulty: domain.DifficultyAdvanced},
		domain.ExerciseTemplate{ID: primitive.NewObjectID(), Name: "Lunge", MuscleGroup: "Legs", Difficulty: domain.DifficultyIntermediate},
	)
	catalog := service.NewCatalogService(repo, nil)

	legs, err := catalog.List(context.Background(), repository.CatalogFilter{MuscleGroup: "Legs"})
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, "Lunge", legs[0].Name)

	advanced, err := catalog.List(context.Background(), repository.CatalogFilter{Difficulty: domain.DifficultyAdvanced})
	require.NoError(t, err)
	require.Len(t, advanced, 1)
	assert.Equal(t, "Deadlift", advanced[0].Name)
}

func TestCatalogService_RequestMediaUpload(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCatalogRepo()

	_, err := service.NewCatalogService(repo, nil).RequestMediaUpload(ctx, primitive.NewObjectID(), "a.mp4", "video/mp4")
	assert.ErrorIs(t, err, service.ErrMediaNotAvailable)

	media := &fakeMedia{}
	catalog := service.NewCatalogService(repo, media)
	tmpl, err := catalog.CreateTemplate(ctx, service.TemplateInput{Name: "Squat"})
	require.NoError(t, err)

	_, err = catalog.RequestMediaUpload(ctx, tmpl.ID, "notes.txt", "text/plain")
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	upload, err := catalog.RequestMediaUpload(ctx, tmpl.ID, "squat.mp4", "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "catalog/"+tmpl.ID.Hex()+"/squat.mp4", upload.ObjectKey)
	assert.Contains(t, upload.UploadURL, upload.ObjectKey)

	_, err = catalog.RequestMediaUpload(ctx, primitive.NewObjectID(), "squat.mp4", "video/mp4")
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)
}

func TestCatalogService_ListError(t *testing.T) {
	repo := newFakeCatalogRepo()
	repo.listErr = errors.New("server selection timeout")

	_, err := service.NewCatalogService(repo, nil).GetAll(context.Background())
	assert.EqualError(t, err, "server selection timeout")
}
