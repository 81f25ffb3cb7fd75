package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

const messageSequence = "messages"

// MessageRepository implements ports.MessageRepository using MongoDB. Ids
// come from an atomically incremented counter document; parties are joined
// from the accounts collection with $lookup.
type MessageRepository struct {
	messages *mongo.Collection
	accounts *mongo.Collection
	counters *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{
		messages: db.Collection(collectionMessages),
		accounts: db.Collection(collectionAccounts),
		counters: db.Collection(collectionCounters),
	}
}

type messageDocument struct {
	ID           int64      `bson:"_id"`
	FromUsername string     `bson:"from_username"`
	ToUsername   string     `bson:"to_username"`
	Body         string     `bson:"body"`
	SentAt       time.Time  `bson:"sent_at"`
	ReadAt       *time.Time `bson:"read_at"`

	FromUser accountDocument `bson:"from_user,omitempty"`
	ToUser   accountDocument `bson:"to_user,omitempty"`
}

func (d messageDocument) toDomain() *domain.Message {
	m := &domain.Message{
		ID:     d.ID,
		From:   d.FromUser.toSummary(),
		To:     d.ToUser.toSummary(),
		Body:   d.Body,
		SentAt: d.SentAt.UTC(),
	}
	if d.ReadAt != nil {
		readAt := d.ReadAt.UTC()
		m.ReadAt = &readAt
	}
	return m
}

type counterDocument struct {
	Seq int64 `bson:"seq"`
}

// Insert checks both parties exist, since MongoDB has no foreign keys.
// Accounts are never deleted, so the check cannot go stale.
func (r *MessageRepository) Insert(ctx context.Context, msg ports.NewMessage) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.requireAccount(ctx, msg.FromUsername, domain.ErrInvalidSender); err != nil {
		return nil, err
	}
	if err := r.requireAccount(ctx, msg.ToUsername, domain.ErrInvalidRecipient); err != nil {
		return nil, err
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := bson.M{
		"_id":           id,
		"from_username": msg.FromUsername,
		"to_username":   msg.ToUsername,
		"body":          msg.Body,
		"sent_at":       msg.SentAt,
		"read_at":       nil,
	}
	if _, err := r.messages.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return r.FindByID(ctx, id)
}

func (r *MessageRepository) requireAccount(ctx context.Context, username string, missing error) error {
	n, err := r.accounts.CountDocuments(ctx, bson.M{"_id": username}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

func (r *MessageRepository) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counterDocument
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": messageSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next message id: %w", err)
	}
	return c.Seq, nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	msgs, err := r.aggregate(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, domain.ErrNotFound
	}
	return msgs[0], nil
}

// MarkRead only matches documents whose read_at is still null, so the first
// read wins.
func (r *MessageRepository) MarkRead(ctx context.Context, id int64, at time.Time) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.messages.UpdateOne(ctx,
		bson.M{"_id": id, "read_at": nil},
		bson.M{"$set": bson.M{"read_at": at}},
	)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *MessageRepository) ListSentBy(ctx context.Context, username string) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.aggregate(ctx, bson.M{"from_username": username})
}

func (r *MessageRepository) ListReceivedBy(ctx context.Context, username string) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.aggregate(ctx, bson.M{"to_username": username})
}

func (r *MessageRepository) aggregate(ctx context.Context, match bson.M) ([]*domain.Message, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "sent_at", Value: 1}, {Key: "_id", Value: 1}}}},
	}
	pipeline = append(pipeline, partyStages("from_username", "from_user")...)
	pipeline = append(pipeline, partyStages("to_username", "to_user")...)
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{
		"from_user.password_hash": 0,
		"to_user.password_hash":   0,
	}}})

	cur, err := r.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]*domain.Message, 0)
	for cur.Next(ctx) {
		var doc messageDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return out, nil
}

// partyStages joins one party's account onto the message as field as.
func partyStages(localField, as string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionAccounts,
			"localField":   localField,
			"foreignField": "_id",
			"as":           as,
		}}},
		{{Key: "$unwind", Value: "$" + as}},
	}
}
