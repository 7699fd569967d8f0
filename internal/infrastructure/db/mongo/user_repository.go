package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/ports"
)

const userCollection = "console_users"

// UserRepository is the Mongo-backed UserDirectory used by the simulated
// auth backend.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(userCollection)}
}

type userDoc struct {
	ID          string   `bson:"_id"`
	Name        string   `bson:"name"`
	Email       string   `bson:"email"`
	SecretHash  string   `bson:"secret_hash"`
	Role        string   `bson:"role"`
	Permissions []string `bson:"permissions,omitempty"`
	Verified    bool     `bson:"verified"`
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*ports.DirectoryUser, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromDoc(doc), nil
}

func (r *UserRepository) Create(ctx context.Context, user *ports.DirectoryUser) (*ports.DirectoryUser, error) {
	// email uniqueness is enforced here rather than via an index so duplicate
	// detection yields the domain sentinel even on a fresh database
	if _, err := r.FindByEmail(ctx, user.Email); err == nil {
		return nil, domain.ErrUserExists
	} else if err != domain.ErrUserNotFound {
		return nil, err
	}

	if _, err := r.coll.InsertOne(ctx, toDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	clone := *user
	return &clone, nil
}

func (r *UserRepository) SetVerified(ctx context.Context, email string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"verified": true}})
	if err != nil {
		return fmt.Errorf("set verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateSecret(ctx context.Context, email, secretHash string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"secret_hash": secretHash}})
	if err != nil {
		return fmt.Errorf("update secret: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func toDoc(u *ports.DirectoryUser) userDoc {
	perms := make([]string, len(u.Permissions))
	for i, p := range u.Permissions {
		perms[i] = string(p)
	}
	return userDoc{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		SecretHash:  u.SecretHash,
		Role:        string(u.Role),
		Permissions: perms,
		Verified:    u.Verified,
	}
}

func fromDoc(doc userDoc) *ports.DirectoryUser {
	perms := make([]domain.Permission, len(doc.Permissions))
	for i, p := range doc.Permissions {
		perms[i] = domain.Permission(p)
	}
	return &ports.DirectoryUser{
		ID:          doc.ID,
		Name:        doc.Name,
		Email:       doc.Email,
		SecretHash:  doc.SecretHash,
		Role:        domain.Role(doc.Role),
		Permissions: perms,
		Verified:    doc.Verified,
	}
}
