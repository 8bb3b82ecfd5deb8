package storage

import (
	"context"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultPresignedURLExpiry is the lifetime of upload and download URLs.
const DefaultPresignedURLExpiry = 15 * time.Minute

const mediaPrefix = "catalog"

// MediaStorage hands out presigned URLs for catalog videos and images, so
// clients upload directly to the bucket.
type MediaStorage interface {
	// PresignUpload returns a PUT URL and the object key it writes to.
	PresignUpload(ctx context.Context, templateID, fileName, contentType string) (url, objectKey string, err error)
	// PresignDownload returns a GET URL for a stored object.
	PresignDownload(ctx context.Context, objectKey string) (string, error)
}

type s3MediaStorage struct {
	presignClient *s3.PresignClient
	bucketName    string
	expires       time.Duration
}

// NewS3MediaStorage creates a MediaStorage over the client's bucket.
func NewS3MediaStorage(client *s3.Client, bucketName string) MediaStorage {
	return &s3MediaStorage{
		presignClient: s3.NewPresignClient(client),
		bucketName:    bucketName,
		expires:       DefaultPresignedURLExpiry,
	}
}

// MediaObjectKey builds catalog/<templateID>/<uuid><ext>.
func MediaObjectKey(templateID, fileName string) string {
	return path.Join(mediaPrefix, templateID, uuid.NewString()+path.Ext(fileName))
}

func (s *s3MediaStorage) PresignUpload(ctx context.Context, templateID, fileName, contentType string) (string, string, error) {
	key := MediaObjectKey(templateID, fileName)
	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
		// The client must send the same Content-Type header on upload.
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("failed to presign upload")
		return "", "", err
	}
	return req.URL, key, nil
}

func (s *s3MediaStorage) PresignDownload(ctx context.Context, objectKey string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		logrus.WithError(err).WithField("key", objectKey).Error("failed to presign download")
		return "", err
	}
	return req.URL, nil
}
