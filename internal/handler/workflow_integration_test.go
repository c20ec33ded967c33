package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/padepokan-dev/silat-admin-api/internal/authz"
	internalmiddleware "github.com/padepokan-dev/silat-admin-api/internal/middleware"
	"github.com/padepokan-dev/silat-admin-api/internal/models"
	"github.com/padepokan-dev/silat-admin-api/internal/service"
	"github.com/padepokan-dev/silat-admin-api/pkg/database"
	"github.com/padepokan-dev/silat-admin-api/pkg/resilience"
)

type letterRepoStub struct {
	letters   map[string]*models.Letter
	yearCount int
}

func (s *letterRepoStub) List(ctx context.Context, filter models.LetterFilter) ([]models.Letter, int, error) {
	var out []models.Letter
	for _, l := range s.letters {
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (s *letterRepoStub) CountInYear(ctx context.Context, year int) (int, error) {
	return s.yearCount, nil
}

func (s *letterRepoStub) FindByID(ctx context.Context, id string) (*models.Letter, error) {
	letter, ok := s.letters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *letter
	return &clone, nil
}

func (s *letterRepoStub) Create(ctx context.Context, letter *models.Letter) error {
	letter.ID = "letter-1"
	if s.letters == nil {
		s.letters = map[string]*models.Letter{}
	}
	s.letters[letter.ID] = letter
	return nil
}

func (s *letterRepoStub) Update(ctx context.Context, letter *models.Letter) error {
	s.letters[letter.ID] = letter
	return nil
}

func (s *letterRepoStub) UpdateStatus(ctx context.Context, id string, status models.LetterStatus) error {
	s.letters[id].Status = status
	return nil
}

func (s *letterRepoStub) UpdateStatusCAS(ctx context.Context, id string, from, to models.LetterStatus) (bool, error) {
	if s.letters[id].Status != from {
		return false, nil
	}
	s.letters[id].Status = to
	return true, nil
}

func (s *letterRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.letters, id)
	return nil
}

type contactRepoStub struct {
	messages map[string]*models.ContactMessage
}

func (s *contactRepoStub) List(ctx context.Context, filter models.ContactFilter) ([]models.ContactMessage, int, error) {
	var out []models.ContactMessage
	for _, m := range s.messages {
		out = append(out, *m)
	}
	return out, len(out), nil
}

func (s *contactRepoStub) FindByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	m, ok := s.messages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *m
	return &clone, nil
}

func (s *contactRepoStub) Create(ctx context.Context, message *models.ContactMessage) error {
	message.ID = "contact-1"
	if s.messages == nil {
		s.messages = map[string]*models.ContactMessage{}
	}
	s.messages[message.ID] = message
	return nil
}

func (s *contactRepoStub) MarkRead(ctx context.Context, id string) error {
	s.messages[id].IsRead = true
	return nil
}

func (s *contactRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.messages, id)
	return nil
}

type letterSourceStub struct{}

func (letterSourceStub) ListByStatus(ctx context.Context, status models.LetterStatus, limit int) ([]models.Letter, error) {
	return []models.Letter{{ID: "l1", Perihal: "Undangan", Status: status, CreatedAt: time.Now()}}, nil
}

func (letterSourceStub) CountByStatus(ctx context.Context, status models.LetterStatus) (int, error) {
	return 1, nil
}

type reportSourceStub struct{}

func (reportSourceStub) ListByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]models.FinancialReport, error) {
	return nil, nil
}

func (reportSourceStub) CountByStatus(ctx context.Context, status models.ReportStatus) (int, error) {
	return 0, nil
}

type contactSourceStub struct{}

func (contactSourceStub) ListUnread(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	return nil, nil
}

func (contactSourceStub) CountUnread(ctx context.Context) (int, error) {
	return 2, nil
}

func (contactSourceStub) MarkAllRead(ctx context.Context) error {
	return nil
}

type chatSourceStub struct{}

func (chatSourceStub) CountUnreadFor(ctx context.Context, actorID string) (int, error) {
	return 0, nil
}

func buildWorkflowRouter(letterRepo *letterRepoStub, contactRepo *contactRepoStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	runner := resilience.NewRunner(resilience.Config{
		Timeout:     time.Second,
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
	}, database.IsPermanent, nil, nil)

	letterSvc := service.NewLetterService(letterRepo, runner, nil, nil, "PSHT", false)
	contactSvc := service.NewContactService(contactRepo, runner, nil, nil)
	notificationSvc := service.NewNotificationService(letterSourceStub{}, reportSourceStub{}, contactSourceStub{}, chatSourceStub{}, nil, nil, runner, nil, time.Minute)

	letterHandler := NewLetterHandler(letterSvc)
	contactHandler := NewContactHandler(contactSvc)
	notificationHandler := NewNotificationHandler(notificationSvc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: "test-user",
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	router.POST("/contact", contactHandler.Submit)
	router.GET("/notifications", notificationHandler.Feed)
	router.POST("/notifications/read-all", internalmiddleware.RequireAction(authz.ActionContactManage), notificationHandler.MarkAllRead)
	router.POST("/letters", letterHandler.Create)
	router.PATCH("/letters/:id/status", letterHandler.UpdateStatus)
	router.GET("/contact", internalmiddleware.RequireRoles(models.RoleMasterAdmin), contactHandler.List)

	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWorkflowRoutesIntegration(t *testing.T) {
	letterRepo := &letterRepoStub{}
	contactRepo := &contactRepoStub{}
	router := buildWorkflowRouter(letterRepo, contactRepo)

	t.Run("public contact submission", func(t *testing.T) {
		payload := `{"name":"Budi","email":"budi@example.com","subject":"Tanya jadwal","body":"Kapan latihan?"}`
		req, _ := http.NewRequest(http.MethodPost, "/contact", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("letter create as secretary", func(t *testing.T) {
		payload := `{"jenis_surat":"UNDANGAN","perihal":"Latihan gabungan","tujuan":"Seluruh anggota","tanggal_surat":"2025-03-10T00:00:00Z"}`
		req, _ := http.NewRequest(http.MethodPost, "/letters", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleSekretaris))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Contains(t, resp.Body.String(), `"status":"MENUNGGU_VALIDASI"`)
	})

	t.Run("letter create forbidden for member", func(t *testing.T) {
		payload := `{"jenis_surat":"UNDANGAN","perihal":"X","tujuan":"Y","tanggal_surat":"2025-03-10T00:00:00Z"}`
		req, _ := http.NewRequest(http.MethodPost, "/letters", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAnggota))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("letter approval by ketua", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPatch, "/letters/letter-1/status", bytes.NewBufferString(`{"status":"VALIDASI"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleKetua))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"status":"VALIDASI"`)
	})

	t.Run("letter approval forbidden for secretary", func(t *testing.T) {
		letterRepo.letters["letter-1"].Status = models.LetterStatusMenungguValidasi
		req, _ := http.NewRequest(http.MethodPatch, "/letters/letter-1/status", bytes.NewBufferString(`{"status":"VALIDASI"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleSekretaris))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("anonymous notification feed", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Data models.NotificationFeed `json:"data"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Equal(t, 2, body.Data.Counts.Total)
		require.Equal(t, 1, body.Data.Counts.PendingLetters)
	})

	t.Run("mark all read requires master admin", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/notifications/read-all", nil)
		req.Header.Set("X-Test-Role", string(models.RoleKetua))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)

		req, _ = http.NewRequest(http.MethodPost, "/notifications/read-all", nil)
		req.Header.Set("X-Test-Role", string(models.RoleMasterAdmin))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("contact inbox requires master admin", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/contact", nil)
		req.Header.Set("X-Test-Role", string(models.RoleBendahara))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)

		req, _ = http.NewRequest(http.MethodGet, "/contact", nil)
		req.Header.Set("X-Test-Role", string(models.RoleMasterAdmin))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("unauthenticated mark all read rejected", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/notifications/read-all", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
