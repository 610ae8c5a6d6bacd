package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrashed98/blueprint-cms/internal/storage/postgres"
)

var ErrDuplicateEmail = errors.New("email already registered")

type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role Role) error
}

type PostgresRepository struct {
	db *postgres.Client
}

func NewPostgresRepository(db *postgres.Client) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, name, role, status, created_at`

func (r *PostgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.db.DB.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.Status,
	).Scan(&user.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.DB.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.DB.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) UpdateUserRole(ctx context.Context, id uuid.UUID, role Role) error {
	query := `UPDATE users SET role = $2 WHERE id = $1`
	_, err := r.db.DB.ExecContext(ctx, query, id, role)
	return err
}

func scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.Status, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
}

// NewMemoryRepository constructs an in-memory user store.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) CreateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := m.byEmail[key]; ok {
		return ErrDuplicateEmail
	}
	user.CreatedAt = time.Now().UTC()
	cp := *user
	m.byID[user.ID] = &cp
	m.byEmail[key] = user.ID
	return nil
}

func (m *memoryRepository) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memoryRepository) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (m *memoryRepository) UpdateUserRole(_ context.Context, id uuid.UUID, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.byID[id]; ok {
		user.Role = role
	}
	return nil
}
