package messaging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

func setupMessagingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  product_id TEXT,
  sender_id TEXT NOT NULL,
  recipient_id TEXT NOT NULL,
  body TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)

	t.Cleanup(func() {
		_ = db.Exec("DELETE FROM messages").Error
	})

	return db
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(setupMessagingTestDB(t)))
	require.NoError(t, err)
	return svc
}

func TestSendAndConversation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()

	first, err := svc.Send(ctx, alice, SendMessageRequest{RecipientID: bob, Body: "Is the driver still available?"})
	require.NoError(t, err)
	assert.Equal(t, alice, first.SenderID)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.Send(ctx, bob, SendMessageRequest{RecipientID: alice, Body: "Yes, happy to post it."})
	require.NoError(t, err)

	thread, err := svc.Conversation(ctx, alice, bob)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "Is the driver still available?", thread[0].Body)

	// The thread reads the same from either side.
	mirrored, err := svc.Conversation(ctx, bob, alice)
	require.NoError(t, err)
	assert.Len(t, mirrored, 2)
}

func TestSendValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sender := uuid.New()

	cases := []struct {
		name string
		req  SendMessageRequest
	}{
		{"empty body", SendMessageRequest{RecipientID: uuid.New(), Body: "   "}},
		{"too long", SendMessageRequest{RecipientID: uuid.New(), Body: strings.Repeat("x", 2001)}},
		{"self message", SendMessageRequest{RecipientID: sender, Body: "hello me"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Send(ctx, sender, tc.req)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestInboxAndMarkRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()

	sent, err := svc.Send(ctx, alice, SendMessageRequest{RecipientID: bob, Body: "Offer: 200"})
	require.NoError(t, err)

	inbox, err := svc.Inbox(ctx, bob)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Nil(t, inbox[0].ReadAt)

	// Only the recipient can mark it read.
	err = svc.MarkRead(ctx, alice, sent.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	require.NoError(t, svc.MarkRead(ctx, bob, sent.ID))

	inbox, err = svc.Inbox(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, inbox[0].ReadAt)

	// Marking twice reports not found, the row is no longer unread.
	err = svc.MarkRead(ctx, bob, sent.ID)
	require.Error(t, err)
}
