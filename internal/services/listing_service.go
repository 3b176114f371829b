package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/akkash/bizsearch-backend/internal/config"
	"github.com/akkash/bizsearch-backend/internal/models"
)

const (
	businessesCollection = "businesses"
	franchisesCollection = "franchises"
)

// ListingQuery carries the validated filter/sort/pagination parameters of a
// catalogue listing request. Handlers are responsible for sanitizing and
// whitelisting the raw query string before building one.
type ListingQuery struct {
	Page               int
	Limit              int
	Industry           string
	City               string
	State              string
	Location           string
	Search             string
	VerificationStatus string
	MinPrice           float64
	MaxPrice           float64
	MinInvestment      float64
	MaxInvestment      float64
	SortBy             string
	SortOrder          string // "asc" or "desc"
}

// Skip returns the document offset for the query's page.
func (q ListingQuery) Skip() int64 {
	return int64((q.Page - 1) * q.Limit)
}

// SearchResult groups cross-catalogue search hits.
type SearchResult struct {
	Businesses []models.Business `json:"businesses"`
	Franchises []models.Franchise `json:"franchises"`
}

// IListingService defines catalogue reads over both listing types.
type IListingService interface {
	ListBusinesses(ctx context.Context, q ListingQuery) ([]models.Business, int64, error)
	GetBusiness(ctx context.Context, idOrSlug string) (*models.Business, error)
	ListFranchises(ctx context.Context, q ListingQuery) ([]models.Franchise, int64, error)
	GetFranchise(ctx context.Context, idOrSlug string) (*models.Franchise, error)
	SearchAll(ctx context.Context, term string, limit int) (*SearchResult, error)
	GetListingRefs(ctx context.Context, listingType models.ListingType, ids []string) ([]models.ListingRef, error)
}

// listingService implements IListingService.
type listingService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewListingService creates a new ListingService.
func NewListingService(database *mongo.Database, cfg *config.Config) IListingService {
	return &listingService{db: database, cfg: cfg}
}

// containsRegex builds a case-insensitive substring match.
func containsRegex(term string) bson.M {
	return bson.M{"$regex": primitive.Regex{Pattern: term, Options: "i"}}
}

func (q ListingQuery) sort() bson.D {
	order := -1
	if q.SortOrder == "asc" {
		order = 1
	}
	field := q.SortBy
	if field == "" {
		field = "created_at"
	}
	return bson.D{{Key: field, Value: order}}
}

// ListBusinesses returns one page of active businesses matching the query,
// plus the total match count for the pagination envelope.
func (s *listingService) ListBusinesses(ctx context.Context, q ListingQuery) ([]models.Business, int64, error) {
	filter := bson.M{"status": models.ListingStatusActive}
	if q.Industry != "" {
		filter["industry"] = q.Industry
	}
	if q.City != "" {
		filter["city"] = containsRegex(q.City)
	}
	if q.State != "" {
		filter["state"] = containsRegex(q.State)
	}
	var orClauses []bson.M
	if q.Location != "" {
		orClauses = append(orClauses, bson.M{"$or": []bson.M{
			{"city": containsRegex(q.Location)},
			{"state": containsRegex(q.Location)},
		}})
	}
	if q.MinPrice > 0 {
		filter["price"] = bson.M{"$gte": q.MinPrice}
	}
	if q.MaxPrice > 0 {
		if existing, ok := filter["price"].(bson.M); ok {
			existing["$lte"] = q.MaxPrice
		} else {
			filter["price"] = bson.M{"$lte": q.MaxPrice}
		}
	}
	if q.VerificationStatus != "" {
		filter["verification_status"] = q.VerificationStatus
	}
	if q.Search != "" {
		orClauses = append(orClauses, bson.M{"$or": []bson.M{
			{"name": containsRegex(q.Search)},
			{"description": containsRegex(q.Search)},
		}})
	}
	switch len(orClauses) {
	case 1:
		filter["$or"] = orClauses[0]["$or"]
	default:
		if len(orClauses) > 1 {
			filter["$and"] = orClauses
		}
	}

	coll := s.db.Collection(businessesCollection)
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting businesses: %w", err)
	}

	opts := options.Find().SetSort(q.sort()).SetSkip(q.Skip()).SetLimit(int64(q.Limit))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing businesses: %w", err)
	}
	defer cursor.Close(ctx)

	businesses := []models.Business{}
	if err := cursor.All(ctx, &businesses); err != nil {
		return nil, 0, fmt.Errorf("error decoding businesses: %w", err)
	}
	return businesses, total, nil
}

// GetBusiness looks an active business up by UUID or slug.
func (s *listingService) GetBusiness(ctx context.Context, idOrSlug string) (*models.Business, error) {
	var business models.Business
	err := s.db.Collection(businessesCollection).
		FindOne(ctx, idOrSlugFilter(idOrSlug)).
		Decode(&business)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding business %s: %w", idOrSlug, err)
	}
	return &business, nil
}

// ListFranchises returns one page of active franchises matching the query.
func (s *listingService) ListFranchises(ctx context.Context, q ListingQuery) ([]models.Franchise, int64, error) {
	filter := bson.M{"status": models.ListingStatusActive}
	if q.Industry != "" {
		filter["industry"] = q.Industry
	}
	if q.MinInvestment > 0 {
		filter["total_investment_min"] = bson.M{"$gte": q.MinInvestment}
	}
	if q.MaxInvestment > 0 {
		filter["total_investment_max"] = bson.M{"$lte": q.MaxInvestment}
	}
	if q.VerificationStatus != "" {
		filter["verification_status"] = q.VerificationStatus
	}
	if q.Search != "" {
		filter["$or"] = []bson.M{
			{"brand_name": containsRegex(q.Search)},
			{"description": containsRegex(q.Search)},
		}
	}

	coll := s.db.Collection(franchisesCollection)
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting franchises: %w", err)
	}

	opts := options.Find().SetSort(q.sort()).SetSkip(q.Skip()).SetLimit(int64(q.Limit))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing franchises: %w", err)
	}
	defer cursor.Close(ctx)

	franchises := []models.Franchise{}
	if err := cursor.All(ctx, &franchises); err != nil {
		return nil, 0, fmt.Errorf("error decoding franchises: %w", err)
	}
	return franchises, total, nil
}

// GetFranchise looks an active franchise up by UUID or slug.
func (s *listingService) GetFranchise(ctx context.Context, idOrSlug string) (*models.Franchise, error) {
	var franchise models.Franchise
	err := s.db.Collection(franchisesCollection).
		FindOne(ctx, idOrSlugFilter(idOrSlug)).
		Decode(&franchise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding franchise %s: %w", idOrSlug, err)
	}
	return &franchise, nil
}

// idOrSlugFilter matches on _id when the identifier parses as a UUID,
// otherwise on slug. Inactive listings never match.
func idOrSlugFilter(idOrSlug string) bson.M {
	filter := bson.M{"status": models.ListingStatusActive}
	if isUUID(idOrSlug) {
		filter["_id"] = idOrSlug
	} else {
		filter["slug"] = idOrSlug
	}
	return filter
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
			if !isHex {
				return false
			}
		}
	}
	return true
}

// SearchAll runs a cross-catalogue substring search over both listing types.
func (s *listingService) SearchAll(ctx context.Context, term string, limit int) (*SearchResult, error) {
	result := &SearchResult{Businesses: []models.Business{}, Franchises: []models.Franchise{}}

	bizFilter := bson.M{
		"status": models.ListingStatusActive,
		"$or": []bson.M{
			{"name": containsRegex(term)},
			{"description": containsRegex(term)},
			{"industry": containsRegex(term)},
		},
	}
	cursor, err := s.db.Collection(businessesCollection).
		Find(ctx, bizFilter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("error searching businesses: %w", err)
	}
	if err := cursor.All(ctx, &result.Businesses); err != nil {
		return nil, fmt.Errorf("error decoding business search hits: %w", err)
	}

	franFilter := bson.M{
		"status": models.ListingStatusActive,
		"$or": []bson.M{
			{"brand_name": containsRegex(term)},
			{"description": containsRegex(term)},
			{"industry": containsRegex(term)},
		},
	}
	cursor, err = s.db.Collection(franchisesCollection).
		Find(ctx, franFilter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("error searching franchises: %w", err)
	}
	if err := cursor.All(ctx, &result.Franchises); err != nil {
		return nil, fmt.Errorf("error decoding franchise search hits: %w", err)
	}

	return result, nil
}

// GetListingRefs resolves listing ids of one type to name+owner projections.
// IDs that match no listing are silently absent from the result.
func (s *listingService) GetListingRefs(ctx context.Context, listingType models.ListingType, ids []string) ([]models.ListingRef, error) {
	if len(ids) == 0 {
		return []models.ListingRef{}, nil
	}

	collName := businessesCollection
	nameField := "name"
	if listingType == models.ListingTypeFranchise {
		collName = franchisesCollection
		nameField = "brand_name"
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1, nameField: 1, "owner_id": 1})
	cursor, err := s.db.Collection(collName).Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error resolving %s listings: %w", listingType, err)
	}
	defer cursor.Close(ctx)

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding listing refs: %w", err)
	}

	refs := make([]models.ListingRef, 0, len(rows))
	for _, row := range rows {
		ref := models.ListingRef{}
		if id, ok := row["_id"].(string); ok {
			ref.ID = id
		}
		if name, ok := row[nameField].(string); ok {
			ref.Name = name
		}
		if owner, ok := row["owner_id"].(string); ok {
			ref.OwnerID = owner
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
