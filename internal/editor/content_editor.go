package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/content"
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
	"github.com/mrashed98/blueprint-cms/internal/core/validation"
)

// ContentAPI is the part of the API client the content editor needs.
type ContentAPI interface {
	GetContent(ctx context.Context, id uuid.UUID) (*content.Content, error)
	UpdateContent(ctx context.Context, id uuid.UUID, req *content.UpdateContentRequest) (*content.Content, error)
}

// ContentEditor is one editing session over a content document and its
// sections. Section order is kept contiguous after every structural edit.
type ContentEditor struct {
	api    ContentAPI
	clock  content.Clock
	logger *zap.Logger

	doc *content.Content
}

type ContentEditorOption func(*ContentEditor)

func WithClock(clock content.Clock) ContentEditorOption {
	return func(e *ContentEditor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithLogger(logger *zap.Logger) ContentEditorOption {
	return func(e *ContentEditor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewContentEditor(api ContentAPI, opts ...ContentEditorOption) *ContentEditor {
	e := &ContentEditor{api: api, clock: content.RealClock{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the document with its sections and their blueprints,
// replacing any unsaved edits.
func (e *ContentEditor) Load(ctx context.Context, id uuid.UUID) error {
	c, err := e.api.GetContent(ctx, id)
	if err != nil {
		return persistenceError(err)
	}
	if c.Sections == nil {
		c.Sections = []*content.Section{}
	}
	e.doc = c
	return nil
}

// Content returns a copy of the working document, or nil before Load.
func (e *ContentEditor) Content() *content.Content {
	return e.doc.Clone()
}

// SetMetadata replaces the document's titles, slugs, descriptions and
// featured flag. Status only changes through TogglePublish.
func (e *ContentEditor) SetMetadata(m content.Content) error {
	if e.doc == nil {
		return ErrNotLoaded
	}
	e.doc.TitleEn = m.TitleEn
	e.doc.TitleAr = m.TitleAr
	e.doc.SlugEn = m.SlugEn
	e.doc.SlugAr = m.SlugAr
	e.doc.DescriptionEn = m.DescriptionEn
	e.doc.DescriptionAr = m.DescriptionAr
	e.doc.Featured = m.Featured
	return nil
}

// SetFieldValue stores value under field in the loc slot of the section.
// Fields the blueprint declares as shared are written to every slot, each
// holding its own copy.
func (e *ContentEditor) SetFieldValue(sectionID uuid.UUID, field string, value interface{}, loc locale.Locale) error {
	s, err := e.section(sectionID)
	if err != nil {
		return err
	}
	if s.Blueprint != nil {
		for _, f := range s.Blueprint.Fields {
			if f.Name == field && !f.Bilingual {
				for _, l := range locale.All() {
					s.SetValue(l, field, blueprint.CloneValue(value))
				}
				return nil
			}
		}
	}
	s.SetValue(loc, field, value)
	return nil
}

// FieldControl resolves the input for field of a section. Fields of an
// unregistered type, and all fields of a section whose blueprint is gone,
// fall back to the text control with Unknown set on the former.
func (e *ContentEditor) FieldControl(sectionID uuid.UUID, field string) (fieldtype.Info, error) {
	s, err := e.section(sectionID)
	if err != nil {
		return fieldtype.Info{}, err
	}
	if s.Blueprint == nil {
		return fieldtype.Resolve(fieldtype.Text), nil
	}
	for _, f := range s.Blueprint.Fields {
		if f.Name == field {
			return fieldtype.Resolve(f.Type), nil
		}
	}
	return fieldtype.Info{}, fmt.Errorf("%w: field %q", ErrNotFound, field)
}

// UnknownFieldTypes maps section ids to the fields of their blueprint whose
// type is not registered. Sections without such fields are left out.
func (e *ContentEditor) UnknownFieldTypes() map[uuid.UUID][]string {
	out := map[uuid.UUID][]string{}
	if e.doc == nil {
		return out
	}
	for _, s := range e.doc.Sections {
		if s.Blueprint == nil {
			continue
		}
		if names := blueprint.UnknownFieldTypes(&blueprint.Blueprint{Fields: s.Blueprint.Fields}); len(names) > 0 {
			out[s.ID] = names
		}
	}
	return out
}

// MoveSectionUp reports false when i is first or out of range.
func (e *ContentEditor) MoveSectionUp(i int) bool {
	if e.doc == nil {
		return false
	}
	return content.MoveUp(e.doc.Sections, i)
}

// MoveSectionDown reports false when i is last or out of range.
func (e *ContentEditor) MoveSectionDown(i int) bool {
	if e.doc == nil {
		return false
	}
	return content.MoveDown(e.doc.Sections, i)
}

// ToggleSectionVisibility flips visible; order and payload stay as they are.
func (e *ContentEditor) ToggleSectionVisibility(sectionID uuid.UUID) error {
	s, err := e.section(sectionID)
	if err != nil {
		return err
	}
	s.Visible = !s.Visible
	return nil
}

// DeleteSection removes a section once confirmed and renumbers the rest.
func (e *ContentEditor) DeleteSection(sectionID uuid.UUID, confirmed bool) error {
	if _, err := e.section(sectionID); err != nil {
		return err
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	_, i := e.doc.SectionByID(sectionID)
	e.doc.Sections = content.RemoveAt(e.doc.Sections, i)
	return nil
}

// TogglePublish flips DRAFT and PUBLISHED and saves right away. If the save
// fails the status and publish date go back to what they were.
func (e *ContentEditor) TogglePublish(ctx context.Context) error {
	if e.doc == nil {
		return ErrNotLoaded
	}
	status, publishedAt := e.doc.Status, e.doc.PublishedAt
	if !content.TogglePublish(e.doc, e.clock.Now()) {
		return ErrNotPublishable
	}
	if err := e.Save(ctx); err != nil {
		e.doc.Status, e.doc.PublishedAt = status, publishedAt
		return err
	}
	return nil
}

// Save sends metadata and the complete ordered section list in one request
// and then reloads the document. On failure the edits are kept so the save
// can be retried.
func (e *ContentEditor) Save(ctx context.Context) error {
	if e.doc == nil {
		return ErrNotLoaded
	}
	if strings.TrimSpace(e.doc.TitleEn) == "" {
		return validation.New("titleEn", "cannot be blank")
	}

	id := e.doc.ID
	if _, err := e.api.UpdateContent(ctx, id, saveRequest(e.doc)); err != nil {
		e.logger.Warn("content save failed", zap.String("id", id.String()), zap.Error(err))
		return persistenceError(err)
	}
	if err := e.Load(ctx, id); err != nil {
		e.logger.Warn("content reload failed", zap.String("id", id.String()), zap.Error(err))
		return err
	}
	return nil
}

func (e *ContentEditor) section(id uuid.UUID) (*content.Section, error) {
	if e.doc == nil {
		return nil, ErrNotLoaded
	}
	s, _ := e.doc.SectionByID(id)
	if s == nil {
		return nil, content.ErrSectionNotFound
	}
	return s, nil
}

func saveRequest(c *content.Content) *content.UpdateContentRequest {
	req := &content.UpdateContentRequest{
		TitleEn:       c.TitleEn,
		TitleAr:       c.TitleAr,
		SlugEn:        c.SlugEn,
		SlugAr:        c.SlugAr,
		DescriptionEn: c.DescriptionEn,
		DescriptionAr: c.DescriptionAr,
		Status:        c.Status,
		Featured:      c.Featured,
		Sections:      make([]content.SectionInput, 0, len(c.Sections)),
	}
	for _, s := range c.Sections {
		visible := s.Visible
		req.Sections = append(req.Sections, content.SectionInput{
			ID:      s.ID,
			Order:   s.Order,
			Visible: &visible,
			DataEn:  s.DataEn,
			DataAr:  s.DataAr,
		})
	}
	return req
}
