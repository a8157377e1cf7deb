package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const defaultUploadTTL = 15 * time.Minute

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	UploadTTL time.Duration
}

// PhotoStorage hands out presigned PUT URLs for listing photos in a MinIO
// or S3 compatible bucket.
type PhotoStorage struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
	logger *logger.Logger
}

func NewPhotoStorage(ctx context.Context, opts Options, log *logger.Logger) (*PhotoStorage, error) {
	log = log.Named("PhotoStorage")
	log.Info("Initializing S3 photo storage",
		zap.String("endpoint", opts.Endpoint),
		zap.String("bucket", opts.Bucket),
		zap.Bool("use_ssl", opts.UseSSL))

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", opts.Endpoint, err)
	}

	if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, opts.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", opts.Bucket, err, existsErr)
		}
		log.Info("Bucket already exists", zap.String("bucket", opts.Bucket))
	}

	ttl := opts.UploadTTL
	if ttl <= 0 {
		ttl = defaultUploadTTL
	}
	return &PhotoStorage{client: client, bucket: opts.Bucket, ttl: ttl, logger: log}, nil
}

// ObjectKey returns photos/<listingID>/<uuid><ext> for a supported image type.
func ObjectKey(listingID, contentType string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	return fmt.Sprintf("photos/%s/%s%s", listingID, uuid.New().String(), ext), nil
}

func (s *PhotoStorage) PresignPhotoUpload(ctx context.Context, listingID, contentType string) (*usecase.PhotoUpload, error) {
	objectKey, err := ObjectKey(listingID, contentType)
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.ttl)
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectKey, s.ttl)
	if err != nil {
		s.logger.Error("PresignedPutObject failed", zap.String("key", objectKey), zap.Error(err))
		return nil, fmt.Errorf("presign upload for %s: %w", objectKey, err)
	}

	photoURL := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
	s.logger.Debug("Presigned photo upload", zap.String("listing_id", listingID), zap.String("key", objectKey))
	return &usecase.PhotoUpload{
		UploadURL: u.String(),
		PhotoURL:  photoURL,
		ExpiresAt: expires,
	}, nil
}
