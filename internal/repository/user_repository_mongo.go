package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository keys user documents by normalized email.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{collection: db.Collection("users")}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	stampUser(user, time.Now())
	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *mongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"passwordHash": user.PasswordHash,
		"firstName":    user.FirstName,
		"lastName":     user.LastName,
		"mobileNumber": user.MobileNumber,
		"role":         user.Role,
		"updatedAt":    user.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if user.Location != nil {
		set["location"] = user.Location
	} else {
		update["$unset"] = bson.M{"location": ""}
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.Email}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": domain.NormalizeEmail(email)})
}

func (r *mongoUserRepository) FindByEmailOrMobile(ctx context.Context, term string) (*domain.User, error) {
	term = strings.TrimSpace(term)
	return r.findOne(ctx, bson.M{"$or": []bson.M{
		{"_id": strings.ToLower(term)},
		{"mobileNumber": term},
	}})
}

func (r *mongoUserRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := bson.M{}
	if filter.Role != nil {
		query["role"] = *filter.Role
	}
	if filter.HasLocation {
		query["location"] = bson.M{"$exists": true, "$ne": nil}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := []domain.User{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
