package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akkash/bizsearch-backend/internal/models"
)

const profilesCollection = "profiles"

// IProfileService defines profile reads and completeness scoring.
type IProfileService interface {
	GetProfile(ctx context.Context, profileID string) (*models.Profile, error)
	Completeness(profile *models.Profile) CompletenessResult
}

// profileService implements IProfileService.
type profileService struct {
	db *mongo.Database
}

// NewProfileService creates a new ProfileService.
func NewProfileService(database *mongo.Database) IProfileService {
	return &profileService{db: database}
}

// GetProfile loads one profile by id.
func (s *profileService) GetProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.Collection(profilesCollection).FindOne(ctx, bson.M{"_id": profileID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding profile %s: %w", profileID, err)
	}
	return &profile, nil
}

// Completeness scores a profile against its role's field set.
func (s *profileService) Completeness(profile *models.Profile) CompletenessResult {
	return CalculateProfileCompleteness(profile)
}
