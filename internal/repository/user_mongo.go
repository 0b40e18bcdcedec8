package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dimitrije/storefront-admin/internal/docstore"
	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDocument struct {
	ID            string    `bson:"_id"`
	Email         string    `bson:"email"`
	FirstName     string    `bson:"firstName"`
	LastName      string    `bson:"lastName"`
	AvatarURL     *string   `bson:"avatar,omitempty"`
	Provider      string    `bson:"authProvider"`
	ProviderID    *string   `bson:"providerId,omitempty"`
	EmailVerified bool      `bson:"emailVerified"`
	PasswordHash  *string   `bson:"password,omitempty"`
	Role          string    `bson:"role"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func (d *userDocument) toModel() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &models.User{
		ID:            id,
		Email:         d.Email,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		AvatarURL:     d.AvatarURL,
		Provider:      d.Provider,
		ProviderID:    d.ProviderID,
		EmailVerified: d.EmailVerified,
		PasswordHash:  d.PasswordHash,
		Role:          d.Role,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

type MongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{users: db.Collection(docstore.UsersCollection)}
}

// FindByProviderOrEmail runs one $or query and applies the linkage-first
// precedence in process, since Mongo returns $or matches in natural order.
func (r *MongoUserRepository) FindByProviderOrEmail(ctx context.Context, provider, providerID, email string) (*models.User, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "authProvider", Value: provider}, {Key: "providerId", Value: providerID}},
		bson.D{{Key: "email", Value: strings.ToLower(email)}},
	}}}

	cursor, err := r.users.Find(ctx, filter, options.Find().SetLimit(2))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}

	for i := range docs {
		if docs[i].Provider == provider && docs[i].ProviderID != nil && *docs[i].ProviderID == providerID {
			return docs[i].toModel()
		}
	}
	return docs[0].toModel()
}

func (r *MongoUserRepository) Create(ctx context.Context, u NewUser) (*models.User, error) {
	now := time.Now().UTC()
	doc := userDocument{
		ID:            uuid.NewString(),
		Email:         strings.ToLower(u.Email),
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		AvatarURL:     u.AvatarURL,
		Provider:      u.Provider,
		ProviderID:    u.ProviderID,
		EmailVerified: u.EmailVerified,
		PasswordHash:  u.PasswordHash,
		Role:          u.Role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to create user %s: %w", u.Email, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return doc.toModel()
}

// LinkProvider uses a pipeline update so an existing avatar is kept, the
// same way the Postgres repository coalesces it.
func (r *MongoUserRepository) LinkProvider(ctx context.Context, id uuid.UUID, link ProviderLink) (*models.User, error) {
	set := bson.D{
		{Key: "authProvider", Value: link.Provider},
		{Key: "providerId", Value: link.ProviderID},
		{Key: "emailVerified", Value: true},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
	if link.AvatarURL != nil {
		set = append(set, bson.E{Key: "avatar", Value: bson.D{
			{Key: "$ifNull", Value: bson.A{"$avatar", *link.AvatarURL}},
		}})
	}

	user, err := r.findOneAndUpdate(ctx, id, mongo.Pipeline{{{Key: "$set", Value: set}}})
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to link %s account: %w", link.Provider, ErrDuplicate)
	}
	return user, err
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}})
}

func (r *MongoUserRepository) UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "firstName", Value: firstName},
		{Key: "lastName", Value: lastName},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}})
}

func (r *MongoUserRepository) SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "role", Value: role},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}})
}

func (r *MongoUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for i := range docs {
		user, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toModel()
}

func (r *MongoUserRepository) findOneAndUpdate(ctx context.Context, id uuid.UUID, update any) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id.String()}}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toModel()
}
