package storage

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const documentPrefix = "documents"

// ObjectAPI is the part of *s3.Client the document repository needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3DocumentRepository stores each tracker slot as one JSON object.
type s3DocumentRepository struct {
	client     ObjectAPI
	bucketName string
}

// NewS3DocumentRepository creates a repository.DocumentRepository on top of a bucket.
func NewS3DocumentRepository(client ObjectAPI, bucketName string) repository.DocumentRepository {
	return &s3DocumentRepository{
		client:     client,
		bucketName: bucketName,
	}
}

func objectKey(key string) string {
	return path.Join(documentPrefix, key+".json")
}

// Get downloads and decodes the slot. A missing object is repository.ErrNotFound,
// an undecodable one wraps repository.ErrCorrupt.
func (r *s3DocumentRepository) Get(ctx context.Context, key string) (*domain.Document, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, repository.ErrNotFound
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", repository.ErrCorrupt, objectKey(key), err)
	}
	return &doc, nil
}

// Put uploads the whole document. A single PutObject replaces the object atomically.
func (r *s3DocumentRepository) Put(ctx context.Context, key string, doc *domain.Document) error {
	if key == "" {
		return errors.New("document key is required")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucketName),
		Key:         aws.String(objectKey(key)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	return err
}
