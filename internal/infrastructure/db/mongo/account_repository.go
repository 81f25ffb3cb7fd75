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
)

// AccountRepository implements ports.AccountRepository using MongoDB. The
// username is the document _id, so the primary index enforces uniqueness.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(collectionAccounts)}
}

type accountDocument struct {
	Username     string    `bson:"_id"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	FirstName    string    `bson:"first_name"`
	LastName     string    `bson:"last_name"`
	Phone        string    `bson:"phone"`
	JoinedAt     time.Time `bson:"joined_at,omitempty"`
	LastLoginAt  time.Time `bson:"last_login_at,omitempty"`
}

func (d accountDocument) toDomain() *domain.Account {
	return &domain.Account{
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Phone:        d.Phone,
		JoinedAt:     d.JoinedAt.UTC(),
		LastLoginAt:  d.LastLoginAt.UTC(),
	}
}

func (d accountDocument) toSummary() domain.AccountSummary {
	return domain.AccountSummary{
		Username:  d.Username,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Phone:     d.Phone,
	}
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := accountDocument{
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		Phone:        account.Phone,
		JoinedAt:     account.JoinedAt,
		LastLoginAt:  account.LastLoginAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// TouchLogin uses $max so concurrent or skewed writers never move
// last_login_at backwards.
func (r *AccountRepository) TouchLogin(ctx context.Context, username string, at time.Time) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"last_login_at": 1})

	var doc accountDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": username},
		bson.M{"$max": bson.M{"last_login_at": at}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("touch login: %w", err)
	}
	return doc.LastLoginAt.UTC(), nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.AccountSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]domain.AccountSummary, 0)
	for cur.Next(ctx) {
		var doc accountDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		out = append(out, doc.toSummary())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}
