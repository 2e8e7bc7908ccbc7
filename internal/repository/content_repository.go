package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"progress-service/internal/models"
)

// ContentRepository reads Topic/Exercise/Quiz documents. The content
// collections are owned by the content service; this engine never writes
// them.
type ContentRepository struct {
	Units     *mongo.Collection
	Exercises *mongo.Collection
	Quizzes   *mongo.Collection
}

func NewContentRepository(db *mongo.Database) *ContentRepository {
	return &ContentRepository{
		Units:     db.Collection("units"),
		Exercises: db.Collection("exercises"),
		Quizzes:   db.Collection("quizzes"),
	}
}

func (r *ContentRepository) FindUnit(ctx context.Context, id string) (*models.Unit, error) {
	var unit models.Unit
	err := r.Units.FindOne(ctx, bson.M{"_id": id}).Decode(&unit)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("unit %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *ContentRepository) FindExercise(ctx context.Context, id string) (*models.Exercise, error) {
	var ex models.Exercise
	err := r.Exercises.FindOne(ctx, bson.M{"_id": id}).Decode(&ex)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

// FindExercisesByIDs returns the exercises in the order the ids were given,
// the order the quiz presents them. Any missing id fails the whole lookup.
func (r *ContentRepository) FindExercisesByIDs(ctx context.Context, ids []string) ([]*models.Exercise, error) {
	cur, err := r.Exercises.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	byID := make(map[string]*models.Exercise, len(ids))
	for cur.Next(ctx) {
		var ex models.Exercise
		if err := cur.Decode(&ex); err != nil {
			return nil, err
		}
		byID[ex.ID] = &ex
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	ordered := make([]*models.Exercise, 0, len(ids))
	for _, id := range ids {
		ex, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
		}
		ordered = append(ordered, ex)
	}
	return ordered, nil
}

func (r *ContentRepository) FindQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.Quizzes.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}
