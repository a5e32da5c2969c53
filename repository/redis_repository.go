package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vinylfm/config"
	"vinylfm/logger"
	"vinylfm/model"

	"github.com/redis/go-redis/v9"
)

// libraryKey is the single key under which the whole document lives.
const libraryKey = "vinylfm:library"

// redisLibraryRepository stores the document as one JSON value under one
// key. GET and SET only, full replacement each time, so the consistency
// model is identical to the file driver: last write wins.
type redisLibraryRepository struct {
	client *redis.Client
}

// NewRedisLibraryRepository connects to Redis and verifies the connection.
func NewRedisLibraryRepository(cfg *config.Config) (LibraryRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisLibraryRepository{client: client}, nil
}

func (r *redisLibraryRepository) Load(ctx context.Context) (*model.Library, bool, error) {
	data, err := r.client.Get(ctx, libraryKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.EmptyLibrary(), false, nil
		}
		return model.EmptyLibrary(), false, fmt.Errorf("loading library: %w", err)
	}

	lib := model.EmptyLibrary()
	if err := json.Unmarshal(data, lib); err != nil {
		logger.Warn("stored library unparsable, treating as empty", logger.ErrorField(err))
		return model.EmptyLibrary(), false, nil
	}
	if lib.Vinyls == nil {
		lib.Vinyls = []model.Vinyl{}
	}
	if lib.Tracks == nil {
		lib.Tracks = []model.Track{}
	}
	return lib, true, nil
}

func (r *redisLibraryRepository) Save(ctx context.Context, lib *model.Library) error {
	data, err := json.Marshal(lib)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := r.client.Set(ctx, libraryKey, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *redisLibraryRepository) Close() error {
	return r.client.Close()
}
