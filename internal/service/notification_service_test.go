package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
)

type stubLetterSource struct {
	pending []models.Letter
	count   int
}

func (s *stubLetterSource) ListByStatus(ctx context.Context, status models.LetterStatus, limit int) ([]models.Letter, error) {
	return s.pending, nil
}

func (s *stubLetterSource) CountByStatus(ctx context.Context, status models.LetterStatus) (int, error) {
	return s.count, nil
}

type stubReportSource struct {
	pending []models.FinancialReport
	count   int
}

func (s *stubReportSource) ListByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]models.FinancialReport, error) {
	return s.pending, nil
}

func (s *stubReportSource) CountByStatus(ctx context.Context, status models.ReportStatus) (int, error) {
	return s.count, nil
}

type stubContactSource struct {
	unread        []models.ContactMessage
	count         int
	markAllCalled bool
}

func (s *stubContactSource) ListUnread(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	return s.unread, nil
}

func (s *stubContactSource) CountUnread(ctx context.Context) (int, error) {
	return s.count, nil
}

func (s *stubContactSource) MarkAllRead(ctx context.Context) error {
	s.markAllCalled = true
	return nil
}

type stubChatSource struct {
	unread int
	calls  int
}

func (s *stubChatSource) CountUnreadFor(ctx context.Context, actorID string) (int, error) {
	s.calls++
	return s.unread, nil
}

type stubFeedCache struct {
	store   map[string][]byte
	deleted []string
}

func (s *stubFeedCache) Get(ctx context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubFeedCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubFeedCache) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.store, key)
	return nil
}

func notificationFixture() (*stubLetterSource, *stubReportSource, *stubContactSource, *stubChatSource) {
	base := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	letters := &stubLetterSource{
		pending: []models.Letter{{ID: "l1", Nomor: "003/PSHT/III/2025", Perihal: "Undangan latihan", Status: models.LetterStatusMenungguValidasi, CreatedAt: base.Add(2 * time.Hour)}},
		count:   4,
	}
	reports := &stubReportSource{
		pending: []models.FinancialReport{{ID: "r1", Periode: "Februari 2025", Status: models.ReportStatusDiajukan, CreatedAt: base.Add(time.Hour)}},
		count:   2,
	}
	contacts := &stubContactSource{
		unread: []models.ContactMessage{{ID: "c1", Name: "Budi", Subject: "Pendaftaran", CreatedAt: base.Add(3 * time.Hour)}},
		count:  5,
	}
	chats := &stubChatSource{unread: 3}
	return letters, reports, contacts, chats
}

type stubCacheObserver struct {
	hits   int
	misses int
}

func (s *stubCacheObserver) RecordCacheOperation(hit bool) {
	if hit {
		s.hits++
	} else {
		s.misses++
	}
}

func newNotificationService(letters *stubLetterSource, reports *stubReportSource, contacts *stubContactSource, chats *stubChatSource, cache feedCache) *NotificationService {
	return NewNotificationService(letters, reports, contacts, chats, cache, nil, newTestRunner(), nil, time.Minute)
}

func TestAggregateBadgeTotalsPerRole(t *testing.T) {
	cases := []struct {
		role  models.UserRole
		total int
	}{
		{models.RoleMasterAdmin, 5 + 3 + 4 + 2},
		{models.RoleKetua, 5 + 3 + 4 + 2},
		{models.RoleSekretaris, 5 + 3 + 4},
		{models.RoleBendahara, 5 + 3 + 2},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			letters, reports, contacts, chats := notificationFixture()
			svc := newNotificationService(letters, reports, contacts, chats, nil)

			feed, err := svc.Aggregate(context.Background(), &models.JWTClaims{UserID: "u1", Role: tc.role})

			require.NoError(t, err)
			assert.Equal(t, tc.total, feed.Counts.Total)
			assert.Equal(t, 5, feed.Counts.UnreadContacts)
			assert.Equal(t, 3, feed.Counts.UnreadChats)
			assert.Equal(t, 4, feed.Counts.PendingLetters)
			assert.Equal(t, 2, feed.Counts.PendingReports)
		})
	}
}

func TestAggregateFiltersItemsNotCounts(t *testing.T) {
	letters, reports, contacts, chats := notificationFixture()
	svc := newNotificationService(letters, reports, contacts, chats, nil)

	feed, err := svc.Aggregate(context.Background(), &models.JWTClaims{UserID: "u1", Role: models.RoleBendahara})

	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, models.NotificationTypeReport, feed.Items[0].Type)
	// Counts stay complete even though the item list is filtered.
	assert.Equal(t, 5, feed.Counts.UnreadContacts)
	assert.Equal(t, 4, feed.Counts.PendingLetters)

	letters2, reports2, contacts2, chats2 := notificationFixture()
	svc = newNotificationService(letters2, reports2, contacts2, chats2, nil)
	feed, err = svc.Aggregate(context.Background(), &models.JWTClaims{UserID: "u1", Role: models.RoleSekretaris})

	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	for _, item := range feed.Items {
		assert.NotEqual(t, models.NotificationTypeReport, item.Type)
	}
}

func TestAggregateOrdersItemsByTimeDescending(t *testing.T) {
	letters, reports, contacts, chats := notificationFixture()
	svc := newNotificationService(letters, reports, contacts, chats, nil)

	feed, err := svc.Aggregate(context.Background(), &models.JWTClaims{UserID: "u1", Role: models.RoleMasterAdmin})

	require.NoError(t, err)
	require.Len(t, feed.Items, 3)
	assert.Equal(t, models.NotificationTypeContact, feed.Items[0].Type)
	assert.Equal(t, models.NotificationTypeLetter, feed.Items[1].Type)
	assert.Equal(t, models.NotificationTypeReport, feed.Items[2].Type)
	for i := 1; i < len(feed.Items); i++ {
		assert.False(t, feed.Items[i].Time.After(feed.Items[i-1].Time))
	}
}

func TestAggregateAnonymousBadgeExcludesPendingCounts(t *testing.T) {
	letters, reports, contacts, chats := notificationFixture()
	svc := newNotificationService(letters, reports, contacts, chats, nil)

	feed, err := svc.Aggregate(context.Background(), nil)

	require.NoError(t, err)
	assert.Len(t, feed.Items, 3)
	assert.Equal(t, 5, feed.Counts.Total)
	assert.Equal(t, 0, feed.Counts.UnreadChats)
	assert.Equal(t, 4, feed.Counts.PendingLetters)
	assert.Equal(t, 2, feed.Counts.PendingReports)
	assert.Equal(t, 0, chats.calls)
}

func TestAggregateAnonymousFeedIsCached(t *testing.T) {
	letters, reports, contacts, chats := notificationFixture()
	cache := &stubFeedCache{}
	svc := newNotificationService(letters, reports, contacts, chats, cache)

	first, err := svc.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	require.Contains(t, cache.store, "notifications:anonymous")

	// A changed source no longer affects the cached feed.
	contacts.count = 99
	second, err := svc.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, first.Counts, second.Counts)
}

func TestAggregateRecordsCacheHitsAndMisses(t *testing.T) {
	letters, reports, contacts, chats := notificationFixture()
	cache := &stubFeedCache{}
	observer := &stubCacheObserver{}
	svc := NewNotificationService(letters, reports, contacts, chats, cache, observer, newTestRunner(), nil, time.Minute)

	_, err := svc.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, observer.hits)
	assert.Equal(t, 1, observer.misses)

	_, err = svc.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, observer.hits)
	assert.Equal(t, 1, observer.misses)

	// Actor-scoped calls bypass the cache and record nothing.
	_, err = svc.Aggregate(context.Background(), &models.JWTClaims{UserID: "u1", Role: models.RoleKetua})
	require.NoError(t, err)
	assert.Equal(t, 1, observer.hits)
	assert.Equal(t, 1, observer.misses)
}

func TestMarkAllReadRequiresMasterAdmin(t *testing.T) {
	letters, reports, contacts, chats := notificationFixture()
	cache := &stubFeedCache{store: map[string][]byte{"notifications:anonymous": []byte("{}")}}
	svc := newNotificationService(letters, reports, contacts, chats, cache)

	err := svc.MarkAllRead(context.Background(), &models.JWTClaims{UserID: "u1", Role: models.RoleSekretaris})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.False(t, contacts.markAllCalled)

	require.NoError(t, svc.MarkAllRead(context.Background(), &models.JWTClaims{UserID: "u1", Role: models.RoleMasterAdmin}))
	assert.True(t, contacts.markAllCalled)
	assert.Contains(t, cache.deleted, "notifications:anonymous")
}
