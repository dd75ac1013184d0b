package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type IRedis interface {
	SetPrediction(ctx context.Context, key string, payload string, expiration time.Duration) error
	GetPrediction(ctx context.Context, key string) (string, bool, error)
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func (r *redisClient) SetPrediction(ctx context.Context, key string, payload string, expiration time.Duration) error {
	logrus.Debug(fmt.Sprintf("Caching prediction for key %s with expiration %v", key, expiration))
	err := r.client.Set(ctx, key, payload, expiration).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error caching prediction for key %s: %v", key, err))
		return err
	}
	return nil
}

func (r *redisClient) GetPrediction(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Prediction cache miss for key %s", key))
		return "", false, nil
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error reading prediction cache for key %s: %v", key, err))
		return "", false, err
	}
	logrus.Debug(fmt.Sprintf("Prediction cache hit for key %s", key))
	return val, true, nil
}
