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

var (
	ErrNotFound = errors.New("document not found")
	// ErrVersionConflict means the learner state changed between read and
	// write; the caller re-reads and re-applies its reducers.
	ErrVersionConflict = errors.New("learner state was modified concurrently")
)

type LearnerRepository struct {
	Col *mongo.Collection
}

func NewLearnerRepository(db *mongo.Database) *LearnerRepository {
	return &LearnerRepository{Col: db.Collection("learners")}
}

// FindOrCreate returns the learner's state, inserting the default record on
// first contact: full hearts, zero XP, zero streak.
func (r *LearnerRepository) FindOrCreate(ctx context.Context, userID string, maxHearts int, now time.Time) (*models.LearnerState, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID().Hex(),
			"user_id":    userID,
			"xp":         0,
			"hearts":     maxHearts,
			"streak":     0,
			"version":    0,
			"created_at": now,
			"updated_at": now,
		},
	}
	var st models.LearnerState
	err := r.Col.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&st)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *LearnerRepository) FindByUser(ctx context.Context, userID string) (*models.LearnerState, error) {
	var st models.LearnerState
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveVersioned persists the reducer-owned fields (hearts, regeneration
// anchor, streak, activity timestamp) only if nobody else bumped the version
// since the state was read. XP and the awarded-milestone set are owned by
// their additive updates and are never written through this path, so a save
// racing an $inc can never write a stale xp back.
func (r *LearnerRepository) SaveVersioned(ctx context.Context, st *models.LearnerState, now time.Time) error {
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"_id": st.ID, "version": st.Version},
		bson.M{
			"$set": bson.M{
				"hearts":              st.Hearts,
				"last_heart_regen_at": st.LastHeartRegenAt,
				"streak":              st.Streak,
				"last_activity_at":    st.LastActivityAt,
				"updated_at":          now,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	st.Version++
	st.UpdatedAt = now
	return nil
}

// AddXP is additive and unconditional: XP only ever grows.
func (r *LearnerRepository) AddXP(ctx context.Context, userID string, amount int, now time.Time) error {
	if amount <= 0 {
		return nil
	}
	_, err := r.Col.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$inc": bson.M{"xp": amount},
		"$set": bson.M{"updated_at": now},
	})
	return err
}

// AwardMilestone grants a streak milestone bonus at most once per learner per
// threshold: the filter excludes already-awarded milestones, so a concurrent
// duplicate sees zero modified documents and grants nothing.
func (r *LearnerRepository) AwardMilestone(ctx context.Context, userID string, milestone, bonusXP int, now time.Time) (bool, error) {
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"user_id": userID, "milestones_awarded": bson.M{"$ne": milestone}},
		bson.M{
			"$addToSet": bson.M{"milestones_awarded": milestone},
			"$inc":      bson.M{"xp": bonusXP},
			"$set":      bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ResetAllHearts is the fleet-wide daily sweep for the daily_reset policy.
func (r *LearnerRepository) ResetAllHearts(ctx context.Context, maxHearts int, now time.Time) (int64, error) {
	res, err := r.Col.UpdateMany(ctx,
		bson.M{"hearts": bson.M{"$lt": maxHearts}},
		bson.M{
			"$set":   bson.M{"hearts": maxHearts, "updated_at": now},
			"$unset": bson.M{"last_heart_regen_at": ""},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
