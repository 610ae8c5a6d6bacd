package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
	"github.com/mrashed98/blueprint-cms/internal/core/template"
	"github.com/mrashed98/blueprint-cms/internal/core/validation"
)

var (
	ErrNotFound               = errors.New("content not found")
	ErrBlueprintNotFound      = errors.New("blueprint not found")
	ErrSingleSectionBlueprint = errors.New("blueprint allows only one section per content")
	ErrSectionNotFound        = errors.New("section not found")
	ErrSlugExists             = errors.New("slug already in use")
)

// BlueprintSource resolves the blueprint a section is bound to, by id or,
// for templates, by name.
type BlueprintSource interface {
	Get(ctx context.Context, id uuid.UUID) (*blueprint.Blueprint, error)
	GetByName(ctx context.Context, name string) (*blueprint.Blueprint, error)
}

type Service struct {
	repo       Repository
	blueprints BlueprintSource
	templates  *template.Catalogue
	validator  *validation.Validator
	clock      Clock
	logger     *zap.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTemplates enables creating documents from catalogue templates.
func WithTemplates(templates *template.Catalogue) ServiceOption {
	return func(s *Service) {
		s.templates = templates
	}
}

func NewService(repo Repository, blueprints BlueprintSource, opts ...ServiceOption) *Service {
	s := &Service{
		repo:       repo,
		blueprints: blueprints,
		validator:  validation.NewValidator(),
		clock:      RealClock{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a draft. A template contributes its sections first, then
// each id in req.BlueprintIDs becomes a section, in order. Sections are
// prefilled with the blueprint's default values, overridden by the
// template's copy.
func (s *Service) Create(ctx context.Context, req *CreateContentRequest) (*Content, error) {
	var (
		tmpl        template.Template
		useTmpl     bool
		contentType = req.Type
	)
	if id := strings.TrimSpace(req.Template); id != "" {
		var ok bool
		if tmpl, ok = s.templates.Get(id); !ok {
			return nil, validation.New("template", fmt.Sprintf("unknown template %q", id))
		}
		useTmpl = true
		if contentType == "" {
			contentType = Type(tmpl.Type)
		}
		if string(contentType) != tmpl.Type {
			return nil, validation.New("template", fmt.Sprintf("template %s is for %s content", tmpl.ID, tmpl.Type))
		}
	}

	c := &Content{
		ID:            uuid.New(),
		Type:          contentType,
		Template:      strings.TrimSpace(req.Template),
		TitleEn:       strings.TrimSpace(req.TitleEn),
		TitleAr:       strings.TrimSpace(req.TitleAr),
		SlugAr:        strings.TrimSpace(req.SlugAr),
		DescriptionEn: req.DescriptionEn,
		DescriptionAr: req.DescriptionAr,
		Status:        StatusDraft,
		Featured:      req.Featured,
		Sections:      []*Section{},
	}
	if c.Type == "" {
		c.Type = TypePage
	}
	source := req.SlugEn
	if strings.TrimSpace(source) == "" {
		source = c.TitleEn
	}
	c.SlugEn = normalizeSlug(source)

	if err := validateMetadata(c); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, c.SlugEn, c.ID); err != nil {
		return nil, err
	}

	if useTmpl {
		if err := s.applyTemplate(ctx, c, tmpl); err != nil {
			return nil, err
		}
	}
	for _, bpID := range req.BlueprintIDs {
		bp, err := s.blueprint(ctx, bpID)
		if err != nil {
			return nil, err
		}
		if err := checkMultiplicity(c, bp); err != nil {
			return nil, err
		}
		c.Sections = append(c.Sections, newSection(c.ID, bp, len(c.Sections)))
	}
	if useTmpl {
		if err := s.validatePayloads(ctx, c); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			return nil, ErrSlugExists
		}
		s.logger.Error("create content failed", zap.String("slug", c.SlugEn), zap.Error(err))
		return nil, err
	}

	s.logger.Info("content created", zap.String("id", c.ID.String()), zap.String("slug", c.SlugEn),
		zap.Int("sections", len(c.Sections)))
	if err := s.resolve(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// applyTemplate appends the template's sections to c. Blueprints the
// template names but the store lacks are skipped.
func (s *Service) applyTemplate(ctx context.Context, c *Content, tmpl template.Template) error {
	for _, ts := range tmpl.Sections {
		bp, err := s.blueprints.GetByName(ctx, ts.Blueprint)
		if errors.Is(err, blueprint.ErrNotFound) {
			s.logger.Warn("template blueprint missing", zap.String("template", tmpl.ID),
				zap.String("blueprint", ts.Blueprint))
			continue
		}
		if err != nil {
			return err
		}
		if err := checkMultiplicity(c, bp); err != nil {
			return err
		}
		section := newSection(c.ID, bp, len(c.Sections))
		for k, v := range ts.DataEn {
			section.DataEn[k] = v
		}
		for k, v := range ts.DataAr {
			section.DataAr[k] = v
		}
		c.Sections = append(c.Sections, section)
	}
	return nil
}

// Get loads a document with its ordered sections and their blueprints.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Content, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if err := s.resolve(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetPublishedBySlug only returns documents whose status is PUBLISHED.
func (s *Service) GetPublishedBySlug(ctx context.Context, slugEn string) (*Content, error) {
	c, err := s.repo.GetBySlug(ctx, slugEn)
	if err != nil {
		return nil, err
	}
	if c == nil || c.Status != StatusPublished {
		return nil, ErrNotFound
	}
	if err := s.resolve(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListContentResponse, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Content{}
	}
	return &ListContentResponse{Content: items, Total: len(items)}, nil
}

// Update saves metadata and, when req.Sections is non-nil, the complete
// section list in one step. Sections left out of the list are deleted.
// Section payloads are validated against their blueprints here; required
// fields are only enforced on visible sections of published documents.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateContentRequest) (*Content, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	c := existing.Clone()
	if req.Template != nil {
		c.Template = strings.TrimSpace(*req.Template)
	}
	c.TitleEn = strings.TrimSpace(req.TitleEn)
	c.TitleAr = strings.TrimSpace(req.TitleAr)
	c.SlugEn = normalizeSlug(req.SlugEn)
	c.SlugAr = strings.TrimSpace(req.SlugAr)
	c.DescriptionEn = req.DescriptionEn
	c.DescriptionAr = req.DescriptionAr
	c.Featured = req.Featured
	if req.Status != "" {
		c.Status = req.Status
	}

	if err := validateMetadata(c); err != nil {
		return nil, err
	}
	if req.Sections != nil {
		sections, err := applySections(existing, req.Sections)
		if err != nil {
			return nil, err
		}
		c.Sections = sections
	}
	stampPublished(c, s.clock.Now())

	if err := s.validatePayloads(ctx, c); err != nil {
		return nil, err
	}
	if c.SlugEn != existing.SlugEn {
		if err := s.ensureSlugFree(ctx, c.SlugEn, c.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			return nil, ErrSlugExists
		}
		s.logger.Error("save content failed", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("content saved", zap.String("id", id.String()), zap.String("status", string(c.Status)),
		zap.Int("sections", len(c.Sections)))
	if err := s.resolve(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddSection appends a section bound to blueprintID.
func (s *Service) AddSection(ctx context.Context, contentID, blueprintID uuid.UUID) (*Section, error) {
	c, err := s.repo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	bp, err := s.blueprint(ctx, blueprintID)
	if err != nil {
		return nil, err
	}
	if err := checkMultiplicity(c, bp); err != nil {
		return nil, err
	}

	section := newSection(c.ID, bp, len(c.Sections))
	c.Sections = append(c.Sections, section)
	Renumber(c.Sections)

	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("add section failed", zap.String("content_id", contentID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("section added", zap.String("content_id", contentID.String()),
		zap.String("blueprint", bp.Name), zap.Int("order", section.Order))
	section.Blueprint = bp.Summary()
	return section, nil
}

// DuplicateSection inserts a copy of a section directly after it.
func (s *Service) DuplicateSection(ctx context.Context, contentID, sectionID uuid.UUID) (*Section, error) {
	c, err := s.repo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	source, idx := c.SectionByID(sectionID)
	if source == nil {
		return nil, ErrSectionNotFound
	}
	bp, err := s.blueprint(ctx, source.BlueprintID)
	if err != nil {
		return nil, err
	}
	if !bp.AllowMultiple {
		return nil, ErrSingleSectionBlueprint
	}

	dup := source.Clone()
	dup.ID = uuid.New()
	c.Sections = InsertAt(c.Sections, idx+1, dup)

	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("duplicate section failed", zap.String("content_id", contentID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("section duplicated", zap.String("content_id", contentID.String()),
		zap.String("source", sectionID.String()), zap.Int("order", dup.Order))
	dup.Blueprint = bp.Summary()
	return dup, nil
}

// Delete removes a document and all of its sections.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete content failed", zap.String("id", id.String()), zap.Error(err))
		return err
	}
	s.logger.Info("content deleted", zap.String("id", id.String()), zap.Int("sections", len(c.Sections)))
	return nil
}

// CountSectionsByBlueprint lets the blueprint service refuse deleting
// blueprints that are still in use.
func (s *Service) CountSectionsByBlueprint(ctx context.Context, blueprintID uuid.UUID) (int, error) {
	return s.repo.CountSectionsByBlueprint(ctx, blueprintID)
}

func (s *Service) blueprint(ctx context.Context, id uuid.UUID) (*blueprint.Blueprint, error) {
	bp, err := s.blueprints.Get(ctx, id)
	if errors.Is(err, blueprint.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBlueprintNotFound, id)
	}
	return bp, err
}

// resolve attaches each section's blueprint summary.
func (s *Service) resolve(ctx context.Context, c *Content) error {
	for _, section := range c.Sections {
		bp, err := s.blueprints.Get(ctx, section.BlueprintID)
		if errors.Is(err, blueprint.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		section.Blueprint = bp.Summary()
	}
	return nil
}

func (s *Service) ensureSlugFree(ctx context.Context, slugEn string, id uuid.UUID) error {
	taken, err := s.repo.SlugExists(ctx, slugEn, id)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugExists
	}
	return nil
}

func (s *Service) validatePayloads(ctx context.Context, c *Content) error {
	out := &validation.ValidationErrors{}
	for i, section := range c.Sections {
		bp, err := s.blueprint(ctx, section.BlueprintID)
		if err != nil {
			return err
		}
		strict := c.Status == StatusPublished && section.Visible
		prefix := fmt.Sprintf("sections.%d", i)

		if err := s.validator.Validate(section.DataEn, blueprint.Schema(bp, strict)); err != nil {
			if !validation.IsValidationError(err) {
				return err
			}
			out.Merge(prefix+".dataEn", err)
		}
		if err := s.validator.Validate(section.DataAr, blueprint.Schema(bp, false)); err != nil {
			if !validation.IsValidationError(err) {
				return err
			}
			out.Merge(prefix+".dataAr", err)
		}
	}
	return out.OrNil()
}

// applySections rebuilds the section list from a save request. Ids must
// belong to existing and orders must be exactly 0..n-1.
func applySections(existing *Content, inputs []SectionInput) ([]*Section, error) {
	out := &validation.ValidationErrors{}
	seen := make(map[uuid.UUID]bool, len(inputs))
	orders := make([]int, 0, len(inputs))
	sections := make([]*Section, 0, len(inputs))

	for i, in := range inputs {
		current, _ := existing.SectionByID(in.ID)
		switch {
		case current == nil:
			out.Add(fmt.Sprintf("sections.%d.id", i), fmt.Sprintf("unknown section %s", in.ID))
			continue
		case seen[in.ID]:
			out.Add(fmt.Sprintf("sections.%d.id", i), fmt.Sprintf("section %s listed twice", in.ID))
			continue
		}
		seen[in.ID] = true

		s := current.Clone()
		s.Blueprint = nil
		s.Order = in.Order
		if in.Visible != nil {
			s.Visible = *in.Visible
		}
		s.DataEn = in.DataEn
		s.DataAr = in.DataAr
		if s.DataEn == nil {
			s.DataEn = map[string]interface{}{}
		}
		if s.DataAr == nil {
			s.DataAr = map[string]interface{}{}
		}
		orders = append(orders, in.Order)
		sections = append(sections, s)
	}
	if err := out.OrNil(); err != nil {
		return nil, err
	}
	if err := ValidateOrder(orders); err != nil {
		return nil, err
	}
	SortByOrder(sections)
	return sections, nil
}

func checkMultiplicity(c *Content, bp *blueprint.Blueprint) error {
	if bp.AllowMultiple {
		return nil
	}
	for _, section := range c.Sections {
		if section.BlueprintID == bp.ID {
			return fmt.Errorf("%w: %s", ErrSingleSectionBlueprint, bp.Name)
		}
	}
	return nil
}

func newSection(contentID uuid.UUID, bp *blueprint.Blueprint, order int) *Section {
	return &Section{
		ID:          uuid.New(),
		ContentID:   contentID,
		BlueprintID: bp.ID,
		Order:       order,
		Visible:     true,
		DataEn:      bp.Defaults(locale.EN),
		DataAr:      bp.Defaults(locale.AR),
	}
}

func normalizeSlug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	normalized, err := slug.Normalize(value)
	if err != nil {
		return ""
	}
	return normalized
}

func validateMetadata(c *Content) error {
	return validation.FromOzzo(ozzo.ValidateStruct(c,
		ozzo.Field(&c.TitleEn, ozzo.Required),
		ozzo.Field(&c.SlugEn, ozzo.Required.Error("cannot be derived; provide an English slug")),
		ozzo.Field(&c.Type, ozzo.In(TypePage, TypeBlog, TypeProject, TypeService, TypeLanding)),
		ozzo.Field(&c.Status, ozzo.Required, ozzo.In(StatusDraft, StatusPublished, StatusArchived)),
	))
}
