package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/padepokan-dev/silat-admin-api/internal/authz"
	"github.com/padepokan-dev/silat-admin-api/internal/models"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
	"github.com/padepokan-dev/silat-admin-api/pkg/resilience"
)

const (
	notificationSourceCap = 20
	anonymousFeedCacheKey = "notifications:anonymous"
)

type notificationLetterSource interface {
	ListByStatus(ctx context.Context, status models.LetterStatus, limit int) ([]models.Letter, error)
	CountByStatus(ctx context.Context, status models.LetterStatus) (int, error)
}

type notificationReportSource interface {
	ListByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]models.FinancialReport, error)
	CountByStatus(ctx context.Context, status models.ReportStatus) (int, error)
}

type notificationContactSource interface {
	ListUnread(ctx context.Context, limit int) ([]models.ContactMessage, error)
	CountUnread(ctx context.Context) (int, error)
	MarkAllRead(ctx context.Context) error
}

type notificationChatSource interface {
	CountUnreadFor(ctx context.Context, actorID string) (int, error)
}

type feedCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool)
}

// NotificationService merges pending records from the contact inbox, the
// letter queue and the report queue into one role-filtered feed.
type NotificationService struct {
	letters  notificationLetterSource
	reports  notificationReportSource
	contacts notificationContactSource
	chats    notificationChatSource
	cache    feedCache
	metrics  cacheObserver
	runner   *resilience.Runner
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewNotificationService constructs the aggregator. metrics may be nil.
func NewNotificationService(letters notificationLetterSource, reports notificationReportSource, contacts notificationContactSource, chats notificationChatSource, cache feedCache, metrics cacheObserver, runner *resilience.Runner, logger *zap.Logger, cacheTTL time.Duration) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	return &NotificationService{
		letters:  letters,
		reports:  reports,
		contacts: contacts,
		chats:    chats,
		cache:    cache,
		metrics:  metrics,
		runner:   runner,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// Aggregate builds the feed for the given actor. A nil claims value is the
// anonymous call: every item type is returned, and the badge total counts
// only unread inbox and chat messages. Anonymous feeds are cached briefly
// since they are identical for every caller.
func (s *NotificationService) Aggregate(ctx context.Context, claims *models.JWTClaims) (*models.NotificationFeed, error) {
	if claims == nil && s.cache != nil {
		var cached models.NotificationFeed
		if err := s.cache.Get(ctx, anonymousFeedCacheKey, &cached); err == nil {
			s.observeCache(true)
			return &cached, nil
		}
		s.observeCache(false)
	}

	var (
		contactItems []models.ContactMessage
		letterItems  []models.Letter
		reportItems  []models.FinancialReport
		counts       models.NotificationCounts
	)

	if err := s.runner.Do(ctx, "notification.aggregate", func(ctx context.Context) error {
		var err error
		if contactItems, err = s.contacts.ListUnread(ctx, notificationSourceCap); err != nil {
			return err
		}
		if letterItems, err = s.letters.ListByStatus(ctx, models.LetterStatusMenungguValidasi, notificationSourceCap); err != nil {
			return err
		}
		if reportItems, err = s.reports.ListByStatus(ctx, models.ReportStatusDiajukan, notificationSourceCap); err != nil {
			return err
		}
		if counts.UnreadContacts, err = s.contacts.CountUnread(ctx); err != nil {
			return err
		}
		if counts.PendingLetters, err = s.letters.CountByStatus(ctx, models.LetterStatusMenungguValidasi); err != nil {
			return err
		}
		if counts.PendingReports, err = s.reports.CountByStatus(ctx, models.ReportStatusDiajukan); err != nil {
			return err
		}
		if claims != nil {
			if counts.UnreadChats, err = s.chats.CountUnreadFor(ctx, claims.UserID); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	items := make([]models.NotificationItem, 0, len(contactItems)+len(letterItems)+len(reportItems))
	showContacts, showLetters, showReports := itemVisibility(claims)
	if showContacts {
		for _, m := range contactItems {
			items = append(items, models.NotificationItem{
				ID:          m.ID,
				Type:        models.NotificationTypeContact,
				Title:       fmt.Sprintf("Pesan dari %s", m.Name),
				Description: m.Subject,
				Time:        m.CreatedAt,
				Link:        fmt.Sprintf("/admin/contact/%s", m.ID),
			})
		}
	}
	if showLetters {
		for _, l := range letterItems {
			items = append(items, models.NotificationItem{
				ID:          l.ID,
				Type:        models.NotificationTypeLetter,
				Title:       fmt.Sprintf("Surat menunggu validasi: %s", l.Perihal),
				Description: l.Nomor,
				Time:        l.CreatedAt,
				Link:        fmt.Sprintf("/admin/letters/%s", l.ID),
			})
		}
	}
	if showReports {
		for _, r := range reportItems {
			items = append(items, models.NotificationItem{
				ID:          r.ID,
				Type:        models.NotificationTypeReport,
				Title:       fmt.Sprintf("LPJ diajukan: %s", r.Periode),
				Description: r.Keterangan,
				Time:        r.CreatedAt,
				Link:        fmt.Sprintf("/admin/reports/%s", r.ID),
			})
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Time.After(items[j].Time) })

	counts.Total = badgeTotal(claims, counts)
	feed := &models.NotificationFeed{Counts: counts, Items: items}

	if claims == nil && s.cache != nil {
		if err := s.cache.Set(ctx, anonymousFeedCacheKey, feed, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache anonymous notification feed", zap.Error(err))
		}
	}

	return feed, nil
}

// MarkAllRead flips every unread contact message to read. Pending letters,
// pending reports and chat read state are untouched.
func (s *NotificationService) MarkAllRead(ctx context.Context, claims *models.JWTClaims) error {
	if err := authz.Require(claims.Role, authz.ActionContactManage); err != nil {
		return err
	}
	if err := s.runner.Do(ctx, "notification.mark_all_read", func(ctx context.Context) error {
		return s.contacts.MarkAllRead(ctx)
	}); err != nil {
		return err
	}
	s.invalidateAnonymousFeed(ctx)
	return nil
}

func (s *NotificationService) observeCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit)
	}
}

func (s *NotificationService) invalidateAnonymousFeed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, anonymousFeedCacheKey); err != nil && err != appErrors.ErrCacheMiss {
		s.logger.Warn("failed to invalidate anonymous notification feed", zap.Error(err))
	}
}

// itemVisibility decides which item types the actor's feed carries. Counts
// are never filtered, only the item list.
func itemVisibility(claims *models.JWTClaims) (contacts, letters, reports bool) {
	if claims == nil {
		return true, true, true
	}
	switch claims.Role {
	case models.RoleSekretaris:
		return true, true, false
	case models.RoleBendahara:
		return false, false, true
	default:
		return true, true, true
	}
}

// badgeTotal computes the scalar badge. Roles that cannot act on a record
// kind do not see its pending count in the total; anonymous callers count
// only unread inbox and chat messages.
func badgeTotal(claims *models.JWTClaims, c models.NotificationCounts) int {
	total := c.UnreadContacts + c.UnreadChats
	if claims == nil {
		return total
	}
	switch claims.Role {
	case models.RoleSekretaris:
		return total + c.PendingLetters
	case models.RoleBendahara:
		return total + c.PendingReports
	default:
		return total + c.PendingLetters + c.PendingReports
	}
}
