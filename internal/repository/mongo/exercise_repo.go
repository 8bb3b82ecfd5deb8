package mongo

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exerciseCollectionName = "exercises"

// mongoCatalogRepository implements repository.CatalogRepository
type mongoCatalogRepository struct {
	collection *mongo.Collection
}

// NewMongoCatalogRepository creates the exercise catalog repository backed by MongoDB.
func NewMongoCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &mongoCatalogRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new exercise template into the catalog.
func (r *mongoCatalogRepository) Create(ctx context.Context, tmpl *domain.ExerciseTemplate) (primitive.ObjectID, error) {
	if tmpl.Name == "" {
		return primitive.NilObjectID, errors.New("exercise name is required")
	}

	tmpl.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, tmpl)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an exercise template by its ID.
func (r *mongoCatalogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error) {
	var tmpl domain.ExerciseTemplate
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tmpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tmpl, nil
}

// List returns the catalog sorted by name, optionally narrowed by muscle
// group and difficulty.
func (r *mongoCatalogRepository) List(ctx context.Context, f repository.CatalogFilter) ([]domain.ExerciseTemplate, error) {
	filter := bson.M{}
	if f.MuscleGroup != "" {
		filter["muscleGroup"] = f.MuscleGroup
	}
	if f.Difficulty != "" {
		filter["difficulty"] = f.Difficulty
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []domain.ExerciseTemplate{}
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

// Update modifies an existing template and refreshes UpdatedAt.
func (r *mongoCatalogRepository) Update(ctx context.Context, tmpl *domain.ExerciseTemplate) error {
	if tmpl.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	if tmpl.Name == "" {
		return errors.New("exercise name cannot be empty")
	}

	tmpl.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":         tmpl.Name,
			"description":  tmpl.Description,
			"muscleGroup":  tmpl.MuscleGroup,
			"equipment":    tmpl.Equipment,
			"difficulty":   tmpl.Difficulty,
			"instructions": tmpl.Instructions,
			"videoUrl":     tmpl.VideoURL,
			"imageUrl":     tmpl.ImageURL,
			"updatedAt":    tmpl.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": tmpl.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a template from the catalog. Exercises already cloned into
// series are independent copies and stay untouched.
func (r *mongoCatalogRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "muscleGroup", Value: 1}, {Key: "difficulty", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("exercise_text_search"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logrus.WithError(err).WithField("collection", collection.Name()).Warn("failed to create indexes")
	}
}
