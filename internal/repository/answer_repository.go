package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"progress-service/internal/models"
)

// AnswerRepository stores the per-submission audit trail.
type AnswerRepository struct {
	Col *mongo.Collection
}

func NewAnswerRepository(db *mongo.Database) *AnswerRepository {
	return &AnswerRepository{Col: db.Collection("answers")}
}

func (r *AnswerRepository) Create(ctx context.Context, answer *models.AnswerRecord) error {
	if answer.ID == "" {
		answer.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.Col.InsertOne(ctx, answer)
	return err
}

func (r *AnswerRepository) FindBySession(ctx context.Context, sessionToken string) ([]models.AnswerRecord, error) {
	return r.find(ctx, bson.M{"session_token": sessionToken})
}

func (r *AnswerRepository) FindByUserUnit(ctx context.Context, userID, unitID string) ([]models.AnswerRecord, error) {
	return r.find(ctx, bson.M{"user_id": userID, "unit_id": unitID})
}

func (r *AnswerRepository) find(ctx context.Context, filter bson.M) ([]models.AnswerRecord, error) {
	cur, err := r.Col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var answers []models.AnswerRecord
	for cur.Next(ctx) {
		var a models.AnswerRecord
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, cur.Err()
}
