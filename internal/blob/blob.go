package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/voyagery/voyagery-api/internal/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bucketName = "documents"

// Store holds uploaded file contents. Metadata lives in Postgres; the store only knows ids.
type Store interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// Disabled stands in for the store when no Mongo URI is configured. Every call fails with a
// validation error so clients see why their upload was refused.
type Disabled struct{}

func errDisabled() error {
	return apperrors.Validation("uploads are disabled")
}

func (Disabled) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", errDisabled()
}

func (Disabled) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errDisabled()
}

func (Disabled) Delete(context.Context, string) error {
	return errDisabled()
}

type GridFSStore struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

// Connect opens a Mongo client and the documents bucket of database.
func Connect(ctx context.Context, uri, database string) (*GridFSStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	bucket, err := gridfs.NewBucket(client.Database(database), options.GridFSBucket().SetName(bucketName))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to open gridfs bucket: %w", err)
	}

	return &GridFSStore{client: client, bucket: bucket}, nil
}

func (s *GridFSStore) Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	id, err := s.bucket.UploadFromStream(filename, r, opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}
	return id.Hex(), nil
}

func (s *GridFSStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("file not found")
	}

	stream, err := s.bucket.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, apperrors.NotFound("file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return stream, nil
}

func (s *GridFSStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.NotFound("file not found")
	}

	err = s.bucket.Delete(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return apperrors.NotFound("file not found")
	}
	return err
}

func (s *GridFSStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *GridFSStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
