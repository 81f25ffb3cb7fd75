package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

const messagesNS = "messagely.messages"

func messageDoc(id int64, sentAt time.Time, readAt any) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "from_username", Value: "alice"},
		{Key: "to_username", Value: "bob"},
		{Key: "body", Value: "hi bob"},
		{Key: "sent_at", Value: sentAt},
		{Key: "read_at", Value: readAt},
		{Key: "from_user", Value: bson.D{{Key: "_id", Value: "alice"}, {Key: "first_name", Value: "Alice"}}},
		{Key: "to_user", Value: bson.D{{Key: "_id", Value: "bob"}, {Key: "first_name", Value: "Bob"}}},
	}
}

func TestMessageRepository_FindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	sent := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("expands both parties", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch, messageDoc(7, sent, nil)))

		msg, err := repo.FindByID(context.Background(), 7)
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if msg.ID != 7 || msg.Body != "hi bob" {
			t.Errorf("unexpected message: %+v", msg)
		}
		if msg.From.Username != "alice" || msg.From.FirstName != "Alice" {
			t.Errorf("unexpected sender: %+v", msg.From)
		}
		if msg.To.Username != "bob" || msg.To.FirstName != "Bob" {
			t.Errorf("unexpected recipient: %+v", msg.To)
		}
		if msg.IsRead() {
			t.Error("expected unread message")
		}
	})

	mt.Run("read message", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		readAt := sent.Add(time.Minute)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch, messageDoc(7, sent, readAt)))

		msg, err := repo.FindByID(context.Background(), 7)
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if msg.ReadAt == nil || !msg.ReadAt.Equal(readAt) {
			t.Errorf("read_at: want %v, got %v", readAt, msg.ReadAt)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), 99)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMessageRepository_MarkRead(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	sent := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("sets read_at on first read", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		readAt := sent.Add(time.Minute)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch, messageDoc(7, sent, readAt)),
		)

		msg, err := repo.MarkRead(context.Background(), 7, readAt)
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if msg.ReadAt == nil || !msg.ReadAt.Equal(readAt) {
			t.Errorf("read_at: want %v, got %v", readAt, msg.ReadAt)
		}
	})

	mt.Run("keeps the first read_at", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		first := sent.Add(time.Minute)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch, messageDoc(7, sent, first)),
		)

		msg, err := repo.MarkRead(context.Background(), 7, sent.Add(time.Hour))
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if msg.ReadAt == nil || !msg.ReadAt.Equal(first) {
			t.Errorf("read_at: want %v, got %v", first, msg.ReadAt)
		}
	})

	mt.Run("missing message", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch),
		)

		_, err := repo.MarkRead(context.Background(), 99, sent)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("update error", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "bad filter",
		}))

		if _, err := repo.MarkRead(context.Background(), 7, sent); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestMessageRepository_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	sent := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := ports.NewMessage{FromUsername: "alice", ToUsername: "bob", Body: "hi bob", SentAt: sent}

	mt.Run("unknown sender", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, accountsNS, mtest.FirstBatch))

		_, err := repo.Insert(context.Background(), in)
		if !errors.Is(err, domain.ErrInvalidSender) {
			t.Fatalf("expected ErrInvalidSender, got %v", err)
		}
	})

	mt.Run("unknown recipient", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, accountsNS, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
			mtest.CreateCursorResponse(0, accountsNS, mtest.FirstBatch),
		)

		_, err := repo.Insert(context.Background(), in)
		if !errors.Is(err, domain.ErrInvalidRecipient) {
			t.Fatalf("expected ErrInvalidRecipient, got %v", err)
		}
	})

	mt.Run("assigns counter id", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, accountsNS, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
			mtest.CreateCursorResponse(0, accountsNS, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
			bson.D{
				{Key: "ok", Value: 1},
				{Key: "value", Value: bson.D{{Key: "_id", Value: "messages"}, {Key: "seq", Value: int64(3)}}},
			},
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch, messageDoc(3, sent, nil)),
		)

		msg, err := repo.Insert(context.Background(), in)
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if msg.ID != 3 || msg.From.Username != "alice" || msg.To.Username != "bob" {
			t.Errorf("unexpected message: %+v", msg)
		}
	})
}

func TestMessageRepository_ListReceivedBy_Empty(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty mailbox", func(mt *mtest.T) {
		repo := NewMessageRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch))

		got, err := repo.ListReceivedBy(context.Background(), "carol")
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})
}
