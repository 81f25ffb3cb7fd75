package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultPoolSize = 50
	appName         = "messagely-api"
)

const (
	collectionAccounts = "accounts"
	collectionMessages = "messages"
	collectionCounters = "counters"
)

// Config captures the settings required to establish a MongoDB connection.
type Config struct {
	URI         string
	Database    string
	Timeout     time.Duration
	MaxPoolSize uint64
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	poolSize := cfg.MaxPoolSize
	if poolSize == 0 {
		poolSize = defaultPoolSize
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetMaxPoolSize(poolSize).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes the mailbox queries rely on. Username
// uniqueness comes from accounts._id.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "from_username", Value: 1}, {Key: "sent_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "to_username", Value: 1}, {Key: "sent_at", Value: 1}, {Key: "_id", Value: 1}}},
	}

	if _, err := db.Collection(collectionMessages).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("ensure message indexes: %w", err)
	}
	return nil
}
