package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"progress-service/internal/models"
)

type ProgressRepository struct {
	Col *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{Col: db.Collection("unit_progress")}
}

// Get returns nil without error when the learner has never touched the unit.
func (r *ProgressRepository) Get(ctx context.Context, userID, unitID string) (*models.UnitProgress, error) {
	var p models.UnitProgress
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID, "unit_id": unitID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureStarted upserts the record in in_progress state. Existing records
// come back untouched, so status can never move backwards through this path.
func (r *ProgressRepository) EnsureStarted(ctx context.Context, userID, unitID string, unitType models.UnitType, totalExercises int, now time.Time) (*models.UnitProgress, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":                 primitive.NewObjectID().Hex(),
			"user_id":             userID,
			"unit_id":             unitID,
			"unit_type":           unitType,
			"status":              models.StatusInProgress,
			"exercises_completed": 0,
			"total_exercises":     totalExercises,
			"time_spent_seconds":  0,
			"started_at":          now,
		},
	}
	var p models.UnitProgress
	err := r.Col.FindOneAndUpdate(ctx, bson.M{"user_id": userID, "unit_id": unitID}, update, opts).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordExercise counts one answered exercise. The filter caps the counter at
// the unit's total and freezes it once the unit completes, so duplicate or
// replayed submissions cannot inflate it.
func (r *ProgressRepository) RecordExercise(ctx context.Context, userID, unitID string, timeSpentSeconds int) error {
	_, err := r.Col.UpdateOne(ctx,
		bson.M{
			"user_id": userID,
			"unit_id": unitID,
			"status":  bson.M{"$ne": models.StatusCompleted},
			"$expr":   bson.M{"$lt": bson.A{"$exercises_completed", "$total_exercises"}},
		},
		bson.M{"$inc": bson.M{
			"exercises_completed": 1,
			"time_spent_seconds":  timeSpentSeconds,
		}},
	)
	return err
}

// MarkCompleted performs the guarded terminal transition. The status filter
// makes it atomic: under racing completion calls exactly one sees a modified
// document and that caller owns the completion bonus.
func (r *ProgressRepository) MarkCompleted(ctx context.Context, userID, unitID string, score float64, passed bool, now time.Time) (bool, error) {
	set := bson.M{
		"status":       models.StatusCompleted,
		"completed_at": now,
	}
	if score > 0 || passed {
		set["score"] = score
		set["passed"] = passed
	}
	res, err := r.Col.UpdateOne(ctx,
		bson.M{
			"user_id": userID,
			"unit_id": unitID,
			"status":  bson.M{"$ne": models.StatusCompleted},
		},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]models.UnitProgress, error) {
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var records []models.UnitProgress
	for cur.Next(ctx) {
		var p models.UnitProgress
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, cur.Err()
}
