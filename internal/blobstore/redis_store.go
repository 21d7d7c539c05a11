package blobstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "photo:"
	fieldContentType = "content_type"
	fieldData        = "data"
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore keeps photos as Redis hashes under photo:<key>.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Put(ctx context.Context, blob Blob) (string, error) {
	key := newKey()
	err := s.client.HSet(ctx, keyPrefix+key,
		fieldContentType, blob.ContentType,
		fieldData, blob.Data,
	).Err()
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (Blob, error) {
	values, err := s.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return Blob{}, err
	}
	data, ok := values[fieldData]
	if !ok {
		return Blob{}, ErrNotFound
	}
	return Blob{ContentType: values[fieldContentType], Data: []byte(data)}, nil
}
