package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrashed98/blueprint-cms/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user with this email already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

type Service struct {
	repo   Repository
	config *config.JWTConfig
	logger *zap.Logger
	now    func() time.Time
}

type ServiceOption func(*Service)

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNow overrides the clock used for token timestamps.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, cfg *config.JWTConfig, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, config: cfg, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type JWTClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}

// Register creates an operator account. An empty role defaults to editor.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = RoleEditor
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         role,
		Status:       "active",
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", string(role)))

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != "active" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// EnsureAdmin registers email as an admin, or promotes the existing account.
func (s *Service) EnsureAdmin(ctx context.Context, req *RegisterRequest) (*User, error) {
	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Role != RoleAdmin {
			if err := s.repo.UpdateUserRole(ctx, existing.ID, RoleAdmin); err != nil {
				return nil, fmt.Errorf("promote user: %w", err)
			}
			existing.Role = RoleAdmin
		}
		return existing, nil
	}

	adminReq := *req
	adminReq.Role = RoleAdmin
	resp, err := s.Register(ctx, &adminReq)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (s *Service) generateToken(user *User) (string, error) {
	now := s.now()
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.ExpirationDuration())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrUnauthorized
}
