package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mrashed98/blueprint-cms/internal/storage/postgres"
)

// ErrDuplicateSlug is returned by repositories when slugEn is taken.
var ErrDuplicateSlug = errors.New("slug already in use")

// Repository stores content documents together with their sections. Update
// persists the whole aggregate atomically: sections missing from c.Sections
// are deleted. Lookups return nil, nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, c *Content) error
	GetByID(ctx context.Context, id uuid.UUID) (*Content, error)
	GetBySlug(ctx context.Context, slug string) (*Content, error)
	List(ctx context.Context, filter ListFilter) ([]*Content, error)
	Update(ctx context.Context, c *Content) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	CountSectionsByBlueprint(ctx context.Context, blueprintID uuid.UUID) (int, error)
}

type PostgresRepository struct {
	db *postgres.Client
}

func NewPostgresRepository(db *postgres.Client) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const slugConstraint = "contents_slug_en_key"

const contentColumns = `id, type, template, title_en, title_ar, slug_en, slug_ar, description_en,
	description_ar, status, featured, published_at, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, c *Content) error {
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO contents (id, type, template, title_en, title_ar, slug_en, slug_ar,
				description_en, description_ar, status, featured, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at, updated_at`

		err := tx.QueryRowContext(ctx, query,
			c.ID, c.Type, nullString(c.Template), c.TitleEn, nullString(c.TitleAr), c.SlugEn,
			nullString(c.SlugAr), nullString(c.DescriptionEn), nullString(c.DescriptionAr),
			c.Status, c.Featured, c.PublishedAt,
		).Scan(&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return err
		}
		return upsertSections(ctx, tx, c)
	})
	return mapWriteError(err)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE slug_en = $1`
	return r.getOne(ctx, query, slug)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*Content, error) {
	c, err := scanContent(r.db.DB.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sections, err := r.listSections(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Sections = sections
	return c, nil
}

func (r *PostgresRepository) listSections(ctx context.Context, contentID uuid.UUID) ([]*Section, error) {
	query := `
		SELECT id, content_id, blueprint_id, "order", visible, data_en, data_ar
		FROM content_sections
		WHERE content_id = $1
		ORDER BY "order" ASC`

	rows, err := r.db.DB.QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := []*Section{}
	for rows.Next() {
		s := &Section{}
		var dataEn, dataAr []byte
		if err := rows.Scan(&s.ID, &s.ContentID, &s.BlueprintID, &s.Order, &s.Visible, &dataEn, &dataAr); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(dataEn, &s.DataEn); err != nil {
			return nil, fmt.Errorf("decode dataEn of section %s: %w", s.ID, err)
		}
		if err := json.Unmarshal(dataAr, &s.DataAr); err != nil {
			return nil, fmt.Errorf("decode dataAr of section %s: %w", s.ID, err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Content, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + contentColumns + ` FROM contents`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, c *Content) error {
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE contents
			SET type = $2, template = $3, title_en = $4, title_ar = $5, slug_en = $6, slug_ar = $7,
				description_en = $8, description_ar = $9, status = $10, featured = $11,
				published_at = $12, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1
			RETURNING updated_at`

		err := tx.QueryRowContext(ctx, query,
			c.ID, c.Type, nullString(c.Template), c.TitleEn, nullString(c.TitleAr), c.SlugEn,
			nullString(c.SlugAr), nullString(c.DescriptionEn), nullString(c.DescriptionAr),
			c.Status, c.Featured, c.PublishedAt,
		).Scan(&c.UpdatedAt)
		if err != nil {
			return err
		}

		keep := make([]string, 0, len(c.Sections))
		for _, s := range c.Sections {
			keep = append(keep, s.ID.String())
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM content_sections WHERE content_id = $1 AND NOT (id = ANY($2::uuid[]))`,
			c.ID, pq.Array(keep))
		if err != nil {
			return err
		}
		return upsertSections(ctx, tx, c)
	})
	return mapWriteError(err)
}

// upsertSections writes every section of c. The (content_id, order) unique
// constraint is deferred, so swaps are checked at commit.
func upsertSections(ctx context.Context, tx *sql.Tx, c *Content) error {
	query := `
		INSERT INTO content_sections (id, content_id, blueprint_id, "order", visible, data_en, data_ar)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET "order" = EXCLUDED."order", visible = EXCLUDED.visible, data_en = EXCLUDED.data_en,
			data_ar = EXCLUDED.data_ar, updated_at = CURRENT_TIMESTAMP
		WHERE content_sections.content_id = EXCLUDED.content_id`

	for _, s := range c.Sections {
		dataEn, err := marshalData(s.DataEn)
		if err != nil {
			return err
		}
		dataAr, err := marshalData(s.DataAr)
		if err != nil {
			return err
		}
		s.ContentID = c.ID
		if _, err := tx.ExecContext(ctx, query,
			s.ID, c.ID, s.BlueprintID, s.Order, s.Visible, dataEn, dataAr,
		); err != nil {
			return fmt.Errorf("save section %s: %w", s.ID, err)
		}
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM contents WHERE id = $1`
	_, err := r.db.DB.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM contents WHERE slug_en = $1 AND id <> $2)`
	var exists bool
	err := r.db.DB.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) CountSectionsByBlueprint(ctx context.Context, blueprintID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM content_sections WHERE blueprint_id = $1`
	var n int
	err := r.db.DB.QueryRowContext(ctx, query, blueprintID).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContent(row scanner) (*Content, error) {
	c := &Content{}
	var template, titleAr, slugAr, descEn, descAr sql.NullString
	var publishedAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.Type, &template, &c.TitleEn, &titleAr, &c.SlugEn, &slugAr, &descEn, &descAr,
		&c.Status, &c.Featured, &publishedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Template = template.String
	c.TitleAr = titleAr.String
	c.SlugAr = slugAr.String
	c.DescriptionEn = descEn.String
	c.DescriptionAr = descAr.String
	if publishedAt.Valid {
		t := publishedAt.Time
		c.PublishedAt = &t
	}
	return c, nil
}

func marshalData(data map[string]interface{}) ([]byte, error) {
	if data == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(data)
}

func mapWriteError(err error) error {
	if postgres.IsUniqueViolation(err) && postgres.ViolatedConstraint(err) == slugConstraint {
		return ErrDuplicateSlug
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
