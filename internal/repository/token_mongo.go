package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/storefront-admin/internal/docstore"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type refreshTokenDocument struct {
	TokenHash string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// MongoTokenRepository stores refresh token hashes. Expired documents are also
// reaped by the TTL index on expiresAt.
type MongoTokenRepository struct {
	tokens *mongo.Collection
}

func NewMongoTokenRepository(db *mongo.Database) *MongoTokenRepository {
	return &MongoTokenRepository{tokens: db.Collection(docstore.RefreshTokensCollection)}
}

func (r *MongoTokenRepository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := r.tokens.InsertOne(ctx, refreshTokenDocument{
		TokenHash: tokenHash,
		UserID:    userID.String(),
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	})
	return err
}

func (r *MongoTokenRepository) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	filter := bson.D{
		{Key: "_id", Value: tokenHash},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: time.Now().UTC()}}},
	}

	var doc refreshTokenDocument
	if err := r.tokens.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id on refresh token: %w", err)
	}
	return userID, nil
}

func (r *MongoTokenRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := r.tokens.DeleteOne(ctx, bson.D{{Key: "_id", Value: tokenHash}})
	return err
}

func (r *MongoTokenRepository) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.tokens.DeleteMany(ctx, bson.D{{Key: "userId", Value: userID.String()}})
	return err
}

func (r *MongoTokenRepository) CleanupExpired(ctx context.Context) error {
	_, err := r.tokens.DeleteMany(ctx, bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lt", Value: time.Now().UTC()}}}})
	return err
}
