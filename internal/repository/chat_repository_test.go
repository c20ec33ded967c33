package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
)

func chatColumns() []string {
	return []string{"id", "sender_id", "receiver_id", "content", "kind", "attachment_url", "attachment_name", "attachment_size", "is_read", "created_at"}
}

func TestChatRepositoryHistoryIsSymmetric(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChatRepository(db)

	now := time.Now()
	historyQuery := regexp.QuoteMeta(`WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)`)

	mock.ExpectQuery(historyQuery).
		WithArgs("a", "b").
		WillReturnRows(sqlmock.NewRows(chatColumns()).
			AddRow("m1", "a", "b", "halo", "text", nil, nil, nil, true, now).
			AddRow("m2", "b", "a", "siap", "text", nil, nil, nil, false, now.Add(time.Second)))

	forward, err := repo.History(context.Background(), "a", "b")
	require.NoError(t, err)

	mock.ExpectQuery(historyQuery).
		WithArgs("b", "a").
		WillReturnRows(sqlmock.NewRows(chatColumns()).
			AddRow("m1", "a", "b", "halo", "text", nil, nil, nil, true, now).
			AddRow("m2", "b", "a", "siap", "text", nil, nil, nil, false, now.Add(time.Second)))

	backward, err := repo.History(context.Background(), "b", "a")
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChatRepository(db)

	now := time.Now()
	url := "/uploads/abc.jpg"
	mock.ExpectQuery(regexp.QuoteMeta(`FROM direct_messages WHERE id = $1`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(chatColumns()).
			AddRow("m1", "a", "b", "foto", "image", url, "foto.jpg", int64(2048), false, now))

	message, err := repo.FindByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", message.ID)
	require.NotNil(t, message.AttachmentURL)
	assert.Equal(t, url, *message.AttachmentURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChatRepository(db)

	mock.ExpectExec("INSERT INTO direct_messages").
		WithArgs(sqlmock.AnyArg(), "a", "b", "halo", "text", nil, nil, nil, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	message := &models.DirectMessage{SenderID: "a", ReceiverID: "b", Content: "halo", Kind: models.MessageKindText}
	require.NoError(t, repo.Create(context.Background(), message))
	assert.NotEmpty(t, message.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepositoryMarkReadFrom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChatRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE direct_messages SET is_read = TRUE WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE")).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.MarkReadFrom(context.Background(), "a", "b"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepositoryConversations(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChatRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"peer_id", "peer_name", "peer_role", "unread_count", "last_content", "last_time", "last_is_sent_by_me"}).
		AddRow("b", "Pak Ketua", "KETUA", 2, "siap", now, false)
	mock.ExpectQuery("SELECT c.peer_id, c.peer_name, c.peer_role, COALESCE").
		WithArgs("a").
		WillReturnRows(rows)

	conversations, err := repo.Conversations(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "b", conversations[0].PeerID)
	assert.Equal(t, 2, conversations[0].UnreadCount)
	assert.False(t, conversations[0].LastIsSentByMe)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepositoryCountUnreadFor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChatRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM direct_messages WHERE receiver_id = $1 AND is_read = FALSE")).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	total, err := repo.CountUnreadFor(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
