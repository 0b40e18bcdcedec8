package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection         = "users"
	RefreshTokensCollection = "refresh_tokens"
)

// Store wraps a connected Mongo client and the application database.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.PrimaryPreferred()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Store{Client: client, DB: client.Database(database)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

// Admin returns the admin database used for server-level commands.
func (s *Store) Admin() *mongo.Database {
	return s.Client.Database("admin")
}

var indexes = map[string][]mongo.IndexModel{
	UsersCollection: {
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "authProvider", Value: 1}, {Key: "providerId", Value: 1}},
			Options: options.Index().
				SetName("provider_link_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "providerId", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
	},
	RefreshTokensCollection: {
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("user_id"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
		},
	},
}

// Migrate creates the unique and TTL indexes the repositories rely on.
func Migrate(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{UsersCollection, RefreshTokensCollection} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes[name]); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
