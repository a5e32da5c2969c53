package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"vinylfm/config"
	"vinylfm/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBlobStore keeps assets in an object-store bucket instead of the
// local filesystem. Object names mirror the filesystem layout
// (vinyl-<id>/<filename>), so reference paths are identical across drivers.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
}

// NewMinioBlobStore connects to MinIO and ensures the bucket exists.
func NewMinioBlobStore(cfg *config.Config) (*MinioBlobStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("creating bucket: %w", err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioBlobStore{client: client, bucket: cfg.MinioBucket}, nil
}

// Store uploads the payload as one object, overwriting any previous object
// under the same name.
func (s *MinioBlobStore) Store(ctx context.Context, ownerID string, kind AssetKind, trackIndex int, originalFilename string, payload io.Reader) (string, error) {
	if err := validateUpload(ownerID, payload); err != nil {
		return "", err
	}

	dir := OwnerDir(ownerID)
	name := AssetFilename(kind, trackIndex, originalFilename)
	objectName, err := objectNameFor([]string{dir, name})
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentTypeFor(name),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	logger.Debug("stored asset",
		logger.String("owner", ownerID),
		logger.String("object", objectName),
		logger.Int("bytes", len(data)),
	)
	return ReferencePath(dir, name), nil
}

// Read fetches the whole object into memory.
func (s *MinioBlobStore) Read(ctx context.Context, segments []string) ([]byte, string, error) {
	objectName, err := objectNameFor(segments)
	if err != nil {
		return nil, "", err
	}

	object, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("reading asset: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		// GetObject defers most failures to the first read
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("reading asset: %w", err)
	}
	return data, ContentTypeFor(objectName), nil
}

// objectNameFor applies the same containment rule as the filesystem
// resolver: the cleaned relative object name must not climb out of the
// bucket namespace.
func objectNameFor(segments []string) (string, error) {
	joined := path.Clean(strings.Join(segments, "/"))
	if joined == "" || joined == "." || path.IsAbs(joined) ||
		joined == ".." || strings.HasPrefix(joined, "../") {
		return "", ErrPathTraversal
	}
	return joined, nil
}
