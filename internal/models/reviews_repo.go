package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ReviewColName = "job_reviews"

type ReviewsRepo interface {
	EnsureReviewIndexes(ctx context.Context) error
	CreateReview(ctx context.Context, review *JobReview) (*JobReview, error)
	GetReviewsByProvider(ctx context.Context, providerID string) ([]*JobReview, error)
	GetProviderRating(ctx context.Context, providerID string) (RatingSummary, error)
}

// EnsureReviewIndexes makes job_id unique so a job can be reviewed once.
func (mdb *MongodbRepo) EnsureReviewIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, ReviewColName)
	if err != nil {
		return err
	}
	_, err = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "job_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) CreateReview(ctx context.Context, review *JobReview) (*JobReview, error) {
	col, err := mdb.GetCollection(ctx, ReviewColName)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	existing, err := col.CountDocuments(ctx, bson.M{"job_id": review.JobID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("job %s already reviewed: %w", review.JobID, ErrConflict)
	}

	review.BeforeCreate()
	if _, err := col.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("job %s already reviewed: %w", review.JobID, ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert review into database: %w", err)
	}
	return review, nil
}

func (mdb *MongodbRepo) GetReviewsByProvider(ctx context.Context, providerID string) ([]*JobReview, error) {
	col, err := mdb.GetCollection(ctx, ReviewColName)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, bson.M{"provider_id": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []*JobReview{}
	for cursor.Next(ctx) {
		var review JobReview
		if err := cursor.Decode(&review); err != nil {
			return nil, fmt.Errorf("error decoding review: %w", err)
		}
		reviews = append(reviews, &review)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return reviews, nil
}

func (mdb *MongodbRepo) GetProviderRating(ctx context.Context, providerID string) (RatingSummary, error) {
	col, err := mdb.GetCollection(ctx, ReviewColName)
	if err != nil {
		return RatingSummary{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"provider_id": providerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var summary RatingSummary
	if cursor.Next(ctx) {
		if err := cursor.Decode(&summary); err != nil {
			return RatingSummary{}, fmt.Errorf("failed to decode rating summary: %w", err)
		}
	}
	return summary, cursor.Err()
}
