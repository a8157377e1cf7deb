package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const listingCollectionName = "listings"

// ListingRepository implements domain.Store on MongoDB.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

var _ domain.Store = (*ListingRepository)(nil)

// NewListingRepository ensures the feed and sweep indexes exist. Index
// failures are logged, not fatal: the indexes may be managed out of band.
func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	collection := db.Collection(listingCollectionName)
	log = log.Named("ListingRepository")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "area", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "featured", Value: 1}, {Key: "status", Value: 1}, {Key: "featured_until", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: "text"}}, Options: options.Index().SetName("title_text")},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for listings collection", zap.Error(err))
	} else {
		log.Info("Ensured indexes for listings collection")
	}

	return &ListingRepository{collection: collection, logger: log}
}

// objectID parses a listing id. A malformed id cannot exist in the
// collection, so it reports ErrNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: listing %q", domain.ErrNotFound, id)
	}
	return oid, nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert listing", zap.Error(err), zap.String("seller_id", listing.SellerID))
		return fmt.Errorf("%w: db insert failed: %v", domain.ErrRepository, err)
	}
	listing.ID = doc.ID.Hex()
	r.logger.Debug("Listing created", zap.String("listing_id", listing.ID))
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to find listing", zap.Error(err), zap.String("listing_id", id))
		return nil, fmt.Errorf("%w: db findone failed: %v", domain.ErrRepository, err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) UpdateFields(ctx context.Context, id string, in domain.ListingInput, now time.Time) (*domain.Listing, error) {
	photos := in.Photos
	if photos == nil {
		photos = []string{}
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"title":       in.Title,
		"description": in.Description,
		"story":       in.Story,
		"price":       in.Price,
		"category":    in.Category,
		"area":        in.Area,
		"condition":   in.Condition,
		"photos":      photos,
		"updated_at":  now,
	}})
}

func (r *ListingRepository) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, now time.Time) (*domain.Listing, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"status": status, "updated_at": now}})
}

func (r *ListingRepository) findOneAndUpdate(ctx context.Context, id string, update any) (*domain.Listing, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to update listing", zap.Error(err), zap.String("listing_id", id))
		return nil, fmt.Errorf("%w: db update failed: %v", domain.ErrRepository, err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) IncrementView(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"view_count": 1}})
	if err != nil {
		return fmt.Errorf("%w: db update failed: %v", domain.ErrRepository, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) FindBySeller(ctx context.Context, sellerID string, status domain.ListingStatus) ([]*domain.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"seller_id": sellerID, "status": status}, opts)
}

func (r *ListingRepository) CountActiveBySeller(ctx context.Context, sellerID string) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"seller_id": sellerID, "status": domain.StatusActive})
	if err != nil {
		return 0, fmt.Errorf("%w: db count failed: %v", domain.ErrRepository, err)
	}
	return n, nil
}

func (r *ListingRepository) FindActive(ctx context.Context, q domain.CandidateQuery) ([]*domain.Listing, error) {
	if q.Limit <= 0 {
		return []*domain.Listing{}, nil
	}
	filter := bson.M{"status": domain.StatusActive}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Area != "" {
		filter["area"] = q.Area
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(q.Limit))
	return r.find(ctx, filter, opts)
}

// SearchActive runs a $text query on titles and keeps the engine's relevance order.
func (r *ListingRepository) SearchActive(ctx context.Context, q domain.SearchQuery) ([]*domain.Listing, error) {
	if q.Limit <= 0 {
		return []*domain.Listing{}, nil
	}
	filter := bson.M{
		"$text":  bson.M{"$search": q.Text},
		"status": domain.StatusActive,
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Area != "" {
		filter["area"] = q.Area
	}
	score := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}}).
		SetLimit(int64(q.Limit))
	return r.find(ctx, filter, opts)
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to query listings", zap.Error(err))
		return nil, fmt.Errorf("%w: db find failed: %v", domain.ErrRepository, err)
	}
	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: db cursor decode failed: %v", domain.ErrRepository, err)
	}
	return toDomainListings(docs), nil
}

// ApplyBoost is one FindOneAndUpdate with a pipeline update, so the expiry
// extension is computed from the stored value inside the write. The filter
// excludes documents that already carry paymentID.
func (r *ListingRepository) ApplyBoost(ctx context.Context, id, paymentID string, d time.Duration, now time.Time) (*domain.Listing, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid}
	set := bson.D{
		{Key: "featured", Value: true},
		{Key: "featured_until", Value: bson.D{{Key: "$add", Value: bson.A{
			bson.D{{Key: "$max", Value: bson.A{
				now,
				bson.D{{Key: "$ifNull", Value: bson.A{"$featured_until", now}}},
			}}},
			d.Milliseconds(),
		}}}},
		{Key: "updated_at", Value: now},
	}
	if paymentID != "" {
		filter["applied_boosts"] = bson.M{"$ne": paymentID}
		set = append(set, bson.E{Key: "applied_boosts", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$applied_boosts", bson.A{}}}},
			bson.A{paymentID},
		}}}})
	}
	update := mongo.Pipeline{{{Key: "$set", Value: set}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDocument
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		r.logger.Error("Failed to apply boost", zap.Error(err), zap.String("listing_id", id))
		return nil, fmt.Errorf("%w: db boost update failed: %v", domain.ErrRepository, err)
	}

	// Nothing matched: either the listing is missing or the payment was already applied.
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("%w: db count failed: %v", domain.ErrRepository, err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrBoostAlreadyApplied
}

// expiredFilter matches featured listings whose stamp is at or before now,
// or missing altogether.
func expiredFilter(now time.Time) bson.M {
	return bson.M{
		"featured": true,
		"$or": bson.A{
			bson.M{"featured_until": bson.M{"$lte": now}},
			bson.M{"featured_until": nil},
		},
	}
}

func (r *ListingRepository) FindExpiredBoosts(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	return r.find(ctx, expiredFilter(now), options.Find())
}

// ClearExpiredBoost repeats the expiry condition in the update filter, so a
// boost renewed after the sweep read it is left untouched.
func (r *ListingRepository) ClearExpiredBoost(ctx context.Context, id string, now time.Time) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	filter := expiredFilter(now)
	filter["_id"] = oid
	update := bson.M{
		"$set":   bson.M{"featured": false},
		"$unset": bson.M{"featured_until": ""},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("%w: db clear boost failed: %v", domain.ErrRepository, err)
	}
	return res.ModifiedCount == 1, nil
}
