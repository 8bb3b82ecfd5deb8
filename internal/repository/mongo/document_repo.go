package mongo

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const documentCollectionName = "tracker_documents"

// documentRecord is the stored form of one slot.
type documentRecord struct {
	Key       string          `bson:"_id"`
	Document  domain.Document `bson:"document"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

// mongoDocumentRepository implements repository.DocumentRepository with one
// MongoDB document per slot key.
type mongoDocumentRepository struct {
	collection *mongo.Collection
}

// NewMongoDocumentRepository creates a tracker document repository.
func NewMongoDocumentRepository(db *mongo.Database) repository.DocumentRepository {
	return &mongoDocumentRepository{
		collection: db.Collection(documentCollectionName),
	}
}

// Get reads the slot. An empty slot is repository.ErrNotFound, a record that
// does not decode wraps repository.ErrCorrupt.
func (r *mongoDocumentRepository) Get(ctx context.Context, key string) (*domain.Document, error) {
	res := r.collection.FindOne(ctx, bson.M{"_id": key})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var rec documentRecord
	if err := res.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", repository.ErrCorrupt, key, err)
	}
	return &rec.Document, nil
}

// Put replaces the slot in a single upserting write.
func (r *mongoDocumentRepository) Put(ctx context.Context, key string, doc *domain.Document) error {
	if key == "" {
		return errors.New("document key is required")
	}
	rec := documentRecord{
		Key:       key,
		Document:  *doc,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, rec, options.Replace().SetUpsert(true))
	return err
}
