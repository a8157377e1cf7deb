package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UserRepository reads seller records owned by the identity side of the system.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
		logger:     log.Named("UserRepository"),
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.Seller, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, id)
	}
	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Info("User not found", zap.String("user_id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to find user", zap.Error(err), zap.String("user_id", id))
		return nil, fmt.Errorf("%w: db findone failed: %v", domain.ErrRepository, err)
	}
	return doc.toDomain(), nil
}
