package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobReview is a customer's rating of a completed job. One per job.
type JobReview struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobID      string             `bson:"job_id" json:"job_id"`
	CustomerID string             `bson:"customer_id" json:"customer_id"`
	ProviderID string             `bson:"provider_id" json:"provider_id"`
	Rating     int                `bson:"rating" json:"rating"`
	Comment    string             `bson:"comment" json:"comment"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

func (r *JobReview) BeforeCreate() {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

type ReviewForm struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

var reviewMessages = map[string]string{
	"Rating":  "Rating must be between 1 and 5",
	"Comment": "Comment must be at most 1000 characters",
}

func (f *ReviewForm) Validate() error {
	f.Comment = strings.TrimSpace(f.Comment)
	if err := Validate.Struct(f); err != nil {
		return FormError(err, reviewMessages)
	}
	return nil
}

type RatingSummary struct {
	Average float64 `bson:"average" json:"average"`
	Count   int64   `bson:"count" json:"count"`
}
