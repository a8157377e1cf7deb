package usecase

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type PhotoUsecase struct {
	storage PhotoStorage
	repo    domain.ListingRepository
	logger  *logger.Logger
}

func NewPhotoUsecase(storage PhotoStorage, repo domain.ListingRepository, log *logger.Logger) *PhotoUsecase {
	return &PhotoUsecase{storage: storage, repo: repo, logger: log.Named("PhotoUsecase")}
}

// CreateUploadURL hands the owner a presigned URL for one more photo. The
// client uploads directly to object storage and then adds PhotoURL to the
// listing with an edit.
func (uc *PhotoUsecase) CreateUploadURL(ctx context.Context, actor Actor, listingID, contentType string) (*PhotoUpload, error) {
	if !allowedPhotoTypes[contentType] {
		return nil, fmt.Errorf("%w: unsupported photo content type %q", domain.ErrInvalidInput, contentType)
	}
	listing, err := uc.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if len(listing.Photos) >= domain.MaxPhotos {
		return nil, fmt.Errorf("%w: listing already has %d photos", domain.ErrInvalidInput, domain.MaxPhotos)
	}
	if uc.storage == nil {
		return nil, fmt.Errorf("photo storage is not configured")
	}

	upload, err := uc.storage.PresignPhotoUpload(ctx, listingID, contentType)
	if err != nil {
		uc.logger.Error("Failed to presign photo upload", zap.Error(err), zap.String("listing_id", listingID))
		return nil, fmt.Errorf("presign photo upload: %w", err)
	}
	return upload, nil
}
