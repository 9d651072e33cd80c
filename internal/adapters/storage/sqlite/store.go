package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

const timeLayout = time.RFC3339Nano

// Store implements domain.StorageGateway on a single SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the database at path and applies the schema.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; transactions queue instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// WithClock overrides the timestamp source (tests).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) initialize() error {
	interventions := `
	CREATE TABLE IF NOT EXISTS interventions (
		phone TEXT NOT NULL,
		reference TEXT NOT NULL,
		type TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (phone, reference)
	);
	CREATE INDEX IF NOT EXISTS idx_interventions_date ON interventions(phone, status, date);
	`

	comments := `
	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phone TEXT NOT NULL,
		reference TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_comments_ref ON comments(phone, reference);
	`

	images := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phone TEXT NOT NULL,
		reference TEXT NOT NULL,
		key TEXT NOT NULL,
		uploaded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_images_ref ON images(phone, reference);
	`

	for _, table := range []string{interventions, comments, images} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// insertTx writes the record unless an active one holds the reference.
// A soft-deleted record is replaced along with its comments and images.
func (s *Store) insertTx(ctx context.Context, tx *sql.Tx, phone string, item domain.InterventionItem, date string, now time.Time) error {
	ts := now.Format(timeLayout)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO interventions (phone, reference, type, date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'active', ?, ?)
		ON CONFLICT (phone, reference) DO UPDATE SET
			type = excluded.type,
			date = excluded.date,
			status = 'active',
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
		WHERE interventions.status = 'deleted'`,
		phone, item.Reference, item.Type, date, ts, ts)
	if err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}

	for _, table := range []string{"comments", "images"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE phone = ? AND reference = ?`, phone, item.Reference); err != nil {
			return fmt.Errorf("sqlite clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) Create(ctx context.Context, phone string, item domain.InterventionItem, date string) (*domain.Intervention, error) {
	now := s.now().UTC()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.insertTx(ctx, tx, phone, item, date, now)
	})
	if err != nil {
		return nil, err
	}
	return &domain.Intervention{
		Phone:     phone,
		Reference: item.Reference,
		Type:      item.Type,
		Date:      date,
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CreateMany commits each item on its own so one failure does not roll
// back the others.
func (s *Store) CreateMany(
	ctx context.Context,
	phone string,
	items []domain.InterventionItem,
	date string,
) ([]domain.InterventionItem, []domain.BulkItemError, error) {
	var (
		created []domain.InterventionItem
		errs    []domain.BulkItemError
	)
	for _, item := range items {
		if _, err := s.Create(ctx, phone, item, date); err != nil {
			if ctx.Err() != nil {
				return created, errs, ctx.Err()
			}
			errs = append(errs, domain.BulkItemError{Reference: item.Reference, Error: err.Error()})
			continue
		}
		created = append(created, item)
	}
	return created, errs, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(timeLayout, v)
	return t
}

// load reads one record with its comments and images, whatever its status.
func load(ctx context.Context, q queryer, phone, reference string) (*domain.Intervention, error) {
	var (
		rec                  = &domain.Intervention{Phone: phone, Reference: reference}
		status               string
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT type, date, status, created_at, updated_at
		FROM interventions WHERE phone = ? AND reference = ?`,
		phone, reference,
	).Scan(&rec.Type, &rec.Date, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	rec.Status = domain.Status(status)
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)

	if rec.Comments, err = loadComments(ctx, q, phone, reference); err != nil {
		return nil, err
	}
	if rec.Images, err = loadImages(ctx, q, phone, reference); err != nil {
		return nil, err
	}
	return rec, nil
}

func loadComments(ctx context.Context, q queryer, phone, reference string) ([]domain.Comment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT text, created_at FROM comments
		WHERE phone = ? AND reference = ? ORDER BY id`, phone, reference)
	if err != nil {
		return nil, fmt.Errorf("sqlite comments: %w", err)
	}
	defer rows.Close()

	var out []domain.Comment
	for rows.Next() {
		var c domain.Comment
		var at string
		if err := rows.Scan(&c.Text, &at); err != nil {
			return nil, fmt.Errorf("sqlite comments scan: %w", err)
		}
		c.CreatedAt = parseTime(at)
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadImages(ctx context.Context, q queryer, phone, reference string) ([]domain.ImageRef, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT key, uploaded_at FROM images
		WHERE phone = ? AND reference = ? ORDER BY id`, phone, reference)
	if err != nil {
		return nil, fmt.Errorf("sqlite images: %w", err)
	}
	defer rows.Close()

	var out []domain.ImageRef
	for rows.Next() {
		var img domain.ImageRef
		var at string
		if err := rows.Scan(&img.Key, &at); err != nil {
			return nil, fmt.Errorf("sqlite images scan: %w", err)
		}
		img.UploadedAt = parseTime(at)
		out = append(out, img)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, phone, reference string) (*domain.Intervention, error) {
	rec, err := load(ctx, s.db, phone, reference)
	if err != nil {
		return nil, err
	}
	if !rec.Active() {
		return nil, domain.ErrDeleted
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context, phone string, q domain.ListQuery) ([]*domain.Intervention, error) {
	query := `SELECT reference FROM interventions WHERE phone = ? AND status = 'active'`
	args := []any{phone}
	switch {
	case q.Exact != "":
		query += ` AND date = ?`
		args = append(args, q.Exact)
	case q.Since != "":
		query += ` AND date >= ?`
		args = append(args, q.Since)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite list scan: %w", err)
		}
		refs = append(refs, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}

	out := make([]*domain.Intervention, 0, len(refs))
	for _, ref := range refs {
		rec, err := load(ctx, s.db, phone, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// requireActive fails with ErrNotFound or ErrDeleted inside tx.
func requireActive(ctx context.Context, tx *sql.Tx, phone, reference string) error {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM interventions WHERE phone = ? AND reference = ?`,
		phone, reference,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlite lookup: %w", err)
	}
	if status != string(domain.StatusActive) {
		return domain.ErrDeleted
	}
	return nil
}

func (s *Store) Update(ctx context.Context, phone, reference string, fields domain.UpdateFields) error {
	now := s.now().UTC().Format(timeLayout)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireActive(ctx, tx, phone, reference); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE interventions
			SET type = COALESCE(?, type), date = COALESCE(?, date), updated_at = ?
			WHERE phone = ? AND reference = ?`,
			fields.Type, fields.Date, now, phone, reference)
		if err != nil {
			return fmt.Errorf("sqlite update: %w", err)
		}
		return nil
	})
}

func (s *Store) SoftDelete(ctx context.Context, phone, reference string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE interventions SET status = 'deleted', updated_at = ?
		WHERE phone = ? AND reference = ?`,
		s.now().UTC().Format(timeLayout), phone, reference)
	if err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// appendChild inserts one comment or image row and bumps updated_at.
func (s *Store) appendChild(ctx context.Context, phone, reference, insert, value string) error {
	now := s.now().UTC().Format(timeLayout)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireActive(ctx, tx, phone, reference); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert, phone, reference, value, now); err != nil {
			return fmt.Errorf("sqlite append: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE interventions SET updated_at = ? WHERE phone = ? AND reference = ?`,
			now, phone, reference)
		if err != nil {
			return fmt.Errorf("sqlite touch: %w", err)
		}
		return nil
	})
}

func (s *Store) AppendComment(ctx context.Context, phone, reference, text string) error {
	return s.appendChild(ctx, phone, reference,
		`INSERT INTO comments (phone, reference, text, created_at) VALUES (?, ?, ?, ?)`, text)
}

func (s *Store) AppendImageRef(ctx context.Context, phone, reference, key string) error {
	return s.appendChild(ctx, phone, reference,
		`INSERT INTO images (phone, reference, key, uploaded_at) VALUES (?, ?, ?, ?)`, key)
}

func (s *Store) ListImageRefs(ctx context.Context, phone, reference string) ([]domain.ImageRef, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM interventions WHERE phone = ? AND reference = ?`, phone, reference,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite lookup: %w", err)
	}
	return loadImages(ctx, s.db, phone, reference)
}
