package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// documentCounter is the part of *mongo.Collection the registry calls.
type documentCounter interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...options.Lister[options.CountOptions]) (int64, error)
}

// UserRegistry answers identity lookups against the app's users collection,
// matching the email field exactly.
type UserRegistry struct {
	users documentCounter
}

func NewUserRegistry(db *mongo.Database, collection string) *UserRegistry {
	return &UserRegistry{users: db.Collection(collection)}
}

func (r *UserRegistry) Exists(ctx context.Context, email string) (bool, error) {
	n, err := r.users.CountDocuments(ctx, bson.D{{Key: "email", Value: email}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

// EnsureEmailIndex creates the unique email index lookups rely on.
func EnsureEmailIndex(ctx context.Context, db *mongo.Database, collection string) error {
	_, err := db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}
