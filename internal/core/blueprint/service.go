package blueprint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrashed98/blueprint-cms/internal/core/validation"
)

var (
	ErrNotFound        = errors.New("blueprint not found")
	ErrAlreadyExists   = errors.New("blueprint already exists")
	ErrSystemBlueprint = errors.New("system blueprints cannot be modified")
	ErrInUse           = errors.New("blueprint is used by content sections")
)

// UsageCounter reports how many sections reference a blueprint.
type UsageCounter interface {
	CountSectionsByBlueprint(ctx context.Context, blueprintID uuid.UUID) (int, error)
}

type Service struct {
	repo   Repository
	usage  UsageCounter
	cache  *Cache
	logger *zap.Logger
}

type ServiceOption func(*Service)

func WithCache(cache *Cache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the blueprint service. usage may be nil, in which case
// deletes are not checked against existing sections.
func NewService(repo Repository, usage UsageCounter, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, usage: usage, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, req *CreateBlueprintRequest) (*Blueprint, error) {
	allowMultiple := true
	if req.AllowMultiple != nil {
		allowMultiple = *req.AllowMultiple
	}
	bp := &Blueprint{
		ID:            uuid.New(),
		Name:          req.Name,
		DisplayName:   strings.TrimSpace(req.DisplayName),
		Description:   req.Description,
		BlueprintType: req.BlueprintType,
		Category:      req.Category,
		Icon:          req.Icon,
		AllowMultiple: allowMultiple,
		Fields:        cloneFields(req.Fields),
	}
	if bp.BlueprintType == "" {
		bp.BlueprintType = TypeComponent
	}
	AssignFieldIDs(bp.Fields)

	if err := ValidateBlueprint(bp); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, bp.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	if err := s.repo.Create(ctx, bp); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return nil, ErrAlreadyExists
		}
		s.logger.Error("create blueprint failed", zap.String("name", bp.Name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("blueprint created", zap.String("id", bp.ID.String()), zap.String("name", bp.Name))
	return bp, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Blueprint, error) {
	load := func(ctx context.Context) (*Blueprint, error) {
		return s.repo.GetByID(ctx, id)
	}

	var (
		bp  *Blueprint
		err error
	)
	if s.cache != nil {
		bp, err = s.cache.GetOrLoad(ctx, id, load)
	} else {
		bp, err = load(ctx)
	}
	if err != nil {
		return nil, err
	}
	if bp == nil {
		return nil, ErrNotFound
	}
	return bp, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*Blueprint, error) {
	bp, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if bp == nil {
		return nil, ErrNotFound
	}
	return bp, nil
}

// GetMany resolves a set of ids, failing with ErrNotFound on the first one
// that does not exist.
func (s *Service) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Blueprint, error) {
	out := make(map[uuid.UUID]*Blueprint, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		bp, err := s.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("blueprint %s: %w", id, err)
		}
		out[id] = bp
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListBlueprintsResponse, error) {
	blueprints, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if blueprints == nil {
		blueprints = []*Blueprint{}
	}

	return &ListBlueprintsResponse{
		Blueprints: blueprints,
		Total:      len(blueprints),
	}, nil
}

// Update replaces metadata and the field list as one unit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateBlueprintRequest) (*Blueprint, error) {
	bp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bp == nil {
		return nil, ErrNotFound
	}
	if bp.IsSystem {
		return nil, ErrSystemBlueprint
	}
	if req.Name != "" && req.Name != bp.Name {
		return nil, validation.New("name", "cannot be changed after creation")
	}

	bp.DisplayName = strings.TrimSpace(req.DisplayName)
	bp.Description = req.Description
	if req.BlueprintType != "" {
		bp.BlueprintType = req.BlueprintType
	}
	bp.Category = req.Category
	bp.Icon = req.Icon
	if req.AllowMultiple != nil {
		bp.AllowMultiple = *req.AllowMultiple
	}
	bp.Fields = cloneFields(req.Fields)
	AssignFieldIDs(bp.Fields)

	if err := ValidateBlueprint(bp); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, bp); err != nil {
		s.logger.Error("update blueprint failed", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	s.invalidate(id)

	s.logger.Info("blueprint updated", zap.String("id", id.String()), zap.Int("fields", len(bp.Fields)))
	return bp, nil
}

// Delete removes a user blueprint that no section references.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	bp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bp == nil {
		return ErrNotFound
	}
	if bp.IsSystem {
		return ErrSystemBlueprint
	}
	if s.usage != nil {
		n, err := s.usage.CountSectionsByBlueprint(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w (%d sections)", ErrInUse, n)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete blueprint failed", zap.String("id", id.String()), zap.Error(err))
		return err
	}
	s.invalidate(id)

	s.logger.Info("blueprint deleted", zap.String("id", id.String()), zap.String("name", bp.Name))
	return nil
}

// SeedSystem creates or refreshes a built-in blueprint, matched by name.
// It reports whether a new record was created.
func (s *Service) SeedSystem(ctx context.Context, def *Blueprint) (bool, error) {
	bp := def.Clone()
	bp.IsSystem = true
	if bp.BlueprintType == "" {
		bp.BlueprintType = TypeComponent
	}

	existing, err := s.repo.GetByName(ctx, bp.Name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		bp.ID = existing.ID
		keepFieldIDs(existing.Fields, bp.Fields)
	} else if bp.ID == uuid.Nil {
		bp.ID = uuid.New()
	}
	AssignFieldIDs(bp.Fields)

	if err := ValidateBlueprint(bp); err != nil {
		return false, fmt.Errorf("system blueprint %s: %w", bp.Name, err)
	}

	if existing != nil {
		if err := s.repo.Update(ctx, bp); err != nil {
			return false, err
		}
		s.invalidate(bp.ID)
		return false, nil
	}
	if err := s.repo.Create(ctx, bp); err != nil {
		return false, err
	}
	s.logger.Info("system blueprint seeded", zap.String("name", bp.Name))
	return true, nil
}

func (s *Service) invalidate(id uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(id)
	}
}

// AssignFieldIDs gives every field without an id a fresh one, recursively.
func AssignFieldIDs(fields []FieldDefinition) {
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = uuid.NewString()
		}
		AssignFieldIDs(fields[i].SubFields)
	}
}

// keepFieldIDs copies ids from previously stored fields with the same name so
// reseeding does not churn identifiers.
func keepFieldIDs(old, fresh []FieldDefinition) {
	byName := make(map[string]FieldDefinition, len(old))
	for _, f := range old {
		byName[f.Name] = f
	}
	for i := range fresh {
		prev, ok := byName[fresh[i].Name]
		if !ok {
			continue
		}
		if fresh[i].ID == "" {
			fresh[i].ID = prev.ID
		}
		keepFieldIDs(prev.SubFields, fresh[i].SubFields)
	}
}
