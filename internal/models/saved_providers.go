package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SavedProvidersColName = "saved_providers"

type SavedProvider struct {
	ProviderID string    `bson:"provider_id" json:"provider_id"`
	AddedAt    time.Time `bson:"added_at" json:"added_at"`
}

// SavedProviders is one document per customer keyed by provider id.
type SavedProviders struct {
	ID         primitive.ObjectID       `bson:"_id,omitempty" json:"id"`
	CustomerID string                   `bson:"customer_id" json:"customer_id"`
	Providers  map[string]SavedProvider `bson:"providers" json:"providers"`
	CreatedAt  time.Time                `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt  time.Time                `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

type SavedProviderRepo interface {
	SaveProvider(ctx context.Context, customerID, providerID string) (*SavedProviders, error)
	UnsaveProvider(ctx context.Context, customerID, providerID string) error
	GetSavedProviders(ctx context.Context, customerID string) (*SavedProviders, error)
}

func (mdb *MongodbRepo) SaveProvider(ctx context.Context, customerID, providerID string) (*SavedProviders, error) {
	col, err := mdb.GetCollection(ctx, SavedProvidersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	now := time.Now().UTC()
	filter := bson.M{"customer_id": customerID}

	update := bson.M{
		"$set": bson.M{
			"updated_at": now,
			fmt.Sprintf("providers.%s", providerID): SavedProvider{
				ProviderID: providerID,
				AddedAt:    now,
			},
		},
		"$setOnInsert": bson.M{
			"customer_id": customerID,
			"created_at":  now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result SavedProviders
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("error saving provider: %w", err)
	}
	return &result, nil
}

func (mdb *MongodbRepo) UnsaveProvider(ctx context.Context, customerID, providerID string) error {
	col, err := mdb.GetCollection(ctx, SavedProvidersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"customer_id": customerID}
	update := bson.M{
		"$unset": bson.M{
			fmt.Sprintf("providers.%s", providerID): "",
		},
		"$set": bson.M{
			"updated_at": time.Now().UTC(),
		},
	}

	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error removing saved provider: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no saved providers for %s: %w", customerID, ErrNotFound)
	}
	return nil
}

// GetSavedProviders returns an empty set when the customer never saved one.
func (mdb *MongodbRepo) GetSavedProviders(ctx context.Context, customerID string) (*SavedProviders, error) {
	col, err := mdb.GetCollection(ctx, SavedProvidersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var saved SavedProviders
	err = col.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&saved)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &SavedProviders{CustomerID: customerID, Providers: map[string]SavedProvider{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding saved providers: %w", err)
	}
	if saved.Providers == nil {
		saved.Providers = map[string]SavedProvider{}
	}
	return &saved, nil
}
