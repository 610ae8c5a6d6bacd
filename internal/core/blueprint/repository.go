package blueprint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mrashed98/blueprint-cms/internal/storage/postgres"
)

// ErrDuplicateName is returned by repositories when the unique name
// constraint fails.
var ErrDuplicateName = errors.New("blueprint name already taken")

// Repository stores blueprints. Lookups return nil, nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, bp *Blueprint) error
	GetByID(ctx context.Context, id uuid.UUID) (*Blueprint, error)
	GetByName(ctx context.Context, name string) (*Blueprint, error)
	List(ctx context.Context, filter ListFilter) ([]*Blueprint, error)
	Update(ctx context.Context, bp *Blueprint) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type PostgresRepository struct {
	db *postgres.Client
}

func NewPostgresRepository(db *postgres.Client) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const blueprintColumns = `id, name, display_name, description, blueprint_type, category, icon,
	allow_multiple, is_system, fields, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, bp *Blueprint) error {
	fields, err := json.Marshal(bp.Fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO blueprints (id, name, display_name, description, blueprint_type, category, icon,
			allow_multiple, is_system, fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err = r.db.DB.QueryRowContext(ctx, query,
		bp.ID, bp.Name, bp.DisplayName, nullString(bp.Description), bp.BlueprintType,
		nullString(bp.Category), nullString(bp.Icon), bp.AllowMultiple, bp.IsSystem, fields,
	).Scan(&bp.CreatedAt, &bp.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Blueprint, error) {
	query := `SELECT ` + blueprintColumns + ` FROM blueprints WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Blueprint, error) {
	query := `SELECT ` + blueprintColumns + ` FROM blueprints WHERE name = $1`
	return r.getOne(ctx, query, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*Blueprint, error) {
	bp, err := scanBlueprint(r.db.DB.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bp, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Blueprint, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("blueprint_type = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `SELECT ` + blueprintColumns + ` FROM blueprints`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY is_system DESC, display_name ASC`

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blueprints []*Blueprint
	for rows.Next() {
		bp, err := scanBlueprint(rows)
		if err != nil {
			return nil, err
		}
		blueprints = append(blueprints, bp)
	}

	return blueprints, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, bp *Blueprint) error {
	fields, err := json.Marshal(bp.Fields)
	if err != nil {
		return err
	}

	query := `
		UPDATE blueprints
		SET display_name = $2, description = $3, blueprint_type = $4, category = $5, icon = $6,
			allow_multiple = $7, is_system = $8, fields = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	return r.db.DB.QueryRowContext(ctx, query,
		bp.ID, bp.DisplayName, nullString(bp.Description), bp.BlueprintType, nullString(bp.Category),
		nullString(bp.Icon), bp.AllowMultiple, bp.IsSystem, fields,
	).Scan(&bp.UpdatedAt)
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM blueprints WHERE id = $1`
	_, err := r.db.DB.ExecContext(ctx, query, id)
	if postgres.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	return err
}

func (r *PostgresRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM blueprints WHERE name = $1)`
	var exists bool
	err := r.db.DB.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBlueprint(row scanner) (*Blueprint, error) {
	bp := &Blueprint{}
	var fields []byte
	var description, category, icon sql.NullString

	err := row.Scan(
		&bp.ID, &bp.Name, &bp.DisplayName, &description, &bp.BlueprintType, &category, &icon,
		&bp.AllowMultiple, &bp.IsSystem, &fields, &bp.CreatedAt, &bp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	bp.Description = description.String
	bp.Category = category.String
	bp.Icon = icon.String
	if err := json.Unmarshal(fields, &bp.Fields); err != nil {
		return nil, fmt.Errorf("decode fields of blueprint %s: %w", bp.ID, err)
	}
	return bp, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
