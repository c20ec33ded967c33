package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
)

// LetterRepository handles persistence for outgoing letters.
//
// The letters table carries a UNIQUE (nomor) index so that serialized
// creations are strictly increasing within a year and a concurrent
// duplicate surfaces as a unique violation instead of a silent collision.
type LetterRepository struct {
	db *sqlx.DB
}

// NewLetterRepository instantiates a letter repository.
func NewLetterRepository(db *sqlx.DB) *LetterRepository {
	return &LetterRepository{db: db}
}

// List returns letters matching the provided filters.
func (r *LetterRepository) List(ctx context.Context, filter models.LetterFilter) ([]models.Letter, int, error) {
	base := "FROM letters WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Jenis != "" {
		conditions = append(conditions, fmt.Sprintf("jenis_surat = $%d", len(args)+1))
		args = append(args, filter.Jenis)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(perihal ILIKE $%d OR tujuan ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, nomor, jenis_surat, perihal, tujuan, isi, tanggal_surat, status, created_by, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)

	var letters []models.Letter
	if err := r.db.SelectContext(ctx, &letters, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list letters: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count letters: %w", err)
	}

	return letters, total, nil
}

// ListByStatus returns the most recent letters in the given status, capped
// at limit. Used by the notification aggregator.
func (r *LetterRepository) ListByStatus(ctx context.Context, status models.LetterStatus, limit int) ([]models.Letter, error) {
	query := fmt.Sprintf("SELECT id, nomor, jenis_surat, perihal, tujuan, isi, tanggal_surat, status, created_by, created_at, updated_at FROM letters WHERE status = $1 ORDER BY created_at DESC LIMIT %d", limit)
	var letters []models.Letter
	if err := r.db.SelectContext(ctx, &letters, query, status); err != nil {
		return nil, fmt.Errorf("list letters by status: %w", err)
	}
	return letters, nil
}

// CountByStatus returns the total number of letters in the given status.
func (r *LetterRepository) CountByStatus(ctx context.Context, status models.LetterStatus) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM letters WHERE status = $1", status); err != nil {
		return 0, fmt.Errorf("count letters by status: %w", err)
	}
	return total, nil
}

// CountInYear returns the number of letters created within the given
// calendar year. Feeds sequence-number assignment.
func (r *LetterRepository) CountInYear(ctx context.Context, year int) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM letters WHERE EXTRACT(YEAR FROM created_at) = $1", year); err != nil {
		return 0, fmt.Errorf("count letters in year: %w", err)
	}
	return total, nil
}

// FindByID loads a letter by identifier.
func (r *LetterRepository) FindByID(ctx context.Context, id string) (*models.Letter, error) {
	const query = `SELECT id, nomor, jenis_surat, perihal, tujuan, isi, tanggal_surat, status, created_by, created_at, updated_at FROM letters WHERE id = $1`
	var letter models.Letter
	if err := r.db.GetContext(ctx, &letter, query, id); err != nil {
		return nil, err
	}
	return &letter, nil
}

// Create inserts a new letter.
func (r *LetterRepository) Create(ctx context.Context, letter *models.Letter) error {
	if letter.ID == "" {
		letter.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if letter.CreatedAt.IsZero() {
		letter.CreatedAt = now
	}
	letter.UpdatedAt = now
	const query = `INSERT INTO letters (id, nomor, jenis_surat, perihal, tujuan, isi, tanggal_surat, status, created_by, created_at, updated_at)
VALUES (:id, :nomor, :jenis_surat, :perihal, :tujuan, :isi, :tanggal_surat, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, letter); err != nil {
		return fmt.Errorf("create letter: %w", err)
	}
	return nil
}

// Update modifies the content fields of an existing letter.
func (r *LetterRepository) Update(ctx context.Context, letter *models.Letter) error {
	letter.UpdatedAt = time.Now().UTC()
	const query = `UPDATE letters SET jenis_surat = :jenis_surat, perihal = :perihal, tujuan = :tujuan, isi = :isi,
tanggal_surat = :tanggal_surat, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, letter); err != nil {
		return fmt.Errorf("update letter: %w", err)
	}
	return nil
}

// UpdateStatus sets the letter status unconditionally (last writer wins).
func (r *LetterRepository) UpdateStatus(ctx context.Context, id string, status models.LetterStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE letters SET status = $1, updated_at = $2 WHERE id = $3", status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update letter status: %w", err)
	}
	return nil
}

// UpdateStatusCAS sets the letter status only when the stored status still
// matches from. Returns false when the precondition failed.
func (r *LetterRepository) UpdateStatusCAS(ctx context.Context, id string, from, to models.LetterStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE letters SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4", to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("update letter status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update letter status: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a letter.
func (r *LetterRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM letters WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete letter: %w", err)
	}
	return nil
}
