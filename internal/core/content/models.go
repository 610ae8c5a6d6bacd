package content

import (
	"time"

	"github.com/google/uuid"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
)

type Type string

const (
	TypePage    Type = "PAGE"
	TypeBlog    Type = "BLOG"
	TypeProject Type = "PROJECT"
	TypeService Type = "SERVICE"
	TypeLanding Type = "LANDING"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

// Content is one addressable bilingual document. It owns its sections.
type Content struct {
	ID            uuid.UUID  `json:"id"`
	Type          Type       `json:"type"`
	Template      string     `json:"template,omitempty"`
	TitleEn       string     `json:"titleEn"`
	TitleAr       string     `json:"titleAr"`
	SlugEn        string     `json:"slugEn"`
	SlugAr        string     `json:"slugAr"`
	DescriptionEn string     `json:"descriptionEn"`
	DescriptionAr string     `json:"descriptionAr"`
	Status        Status     `json:"status"`
	Featured      bool       `json:"featured"`
	PublishedAt   *time.Time `json:"publishedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Sections      []*Section `json:"sections"`
}

// Section binds one blueprint to one position of a content document.
// Keys of DataEn/DataAr are the blueprint's field names.
type Section struct {
	ID          uuid.UUID              `json:"id"`
	ContentID   uuid.UUID              `json:"contentId"`
	BlueprintID uuid.UUID              `json:"blueprintId"`
	Order       int                    `json:"order"`
	Visible     bool                   `json:"visible"`
	DataEn      map[string]interface{} `json:"dataEn"`
	DataAr      map[string]interface{} `json:"dataAr"`
	Blueprint   *blueprint.Summary     `json:"blueprint,omitempty"`
}

func (c *Content) Title(loc locale.Locale) string {
	return pick(loc, c.TitleEn, c.TitleAr)
}

func (c *Content) Slug(loc locale.Locale) string {
	return pick(loc, c.SlugEn, c.SlugAr)
}

func (c *Content) Description(loc locale.Locale) string {
	return pick(loc, c.DescriptionEn, c.DescriptionAr)
}

func pick(loc locale.Locale, en, ar string) string {
	if loc == locale.AR && ar != "" {
		return ar
	}
	return en
}

// SectionByID returns the section and its index, or -1.
func (c *Content) SectionByID(id uuid.UUID) (*Section, int) {
	for i, s := range c.Sections {
		if s.ID == id {
			return s, i
		}
	}
	return nil, -1
}

// Data returns the payload slot for loc, creating it when missing.
func (s *Section) Data(loc locale.Locale) map[string]interface{} {
	if loc == locale.AR {
		if s.DataAr == nil {
			s.DataAr = map[string]interface{}{}
		}
		return s.DataAr
	}
	if s.DataEn == nil {
		s.DataEn = map[string]interface{}{}
	}
	return s.DataEn
}

func (s *Section) SetValue(loc locale.Locale, field string, value interface{}) {
	s.Data(loc)[field] = value
}

func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	out := *c
	if c.PublishedAt != nil {
		t := *c.PublishedAt
		out.PublishedAt = &t
	}
	if c.Sections != nil {
		out.Sections = make([]*Section, len(c.Sections))
		for i, s := range c.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	return &out
}

func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	out := *s
	out.DataEn = cloneData(s.DataEn)
	out.DataAr = cloneData(s.DataAr)
	return &out
}

func cloneData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = blueprint.CloneValue(v)
	}
	return out
}

type CreateContentRequest struct {
	Type          Type        `json:"type"`
	Template      string      `json:"template"`
	TitleEn       string      `json:"titleEn"`
	TitleAr       string      `json:"titleAr"`
	SlugEn        string      `json:"slugEn"`
	SlugAr        string      `json:"slugAr"`
	DescriptionEn string      `json:"descriptionEn"`
	DescriptionAr string      `json:"descriptionAr"`
	Featured      bool        `json:"featured"`
	BlueprintIDs  []uuid.UUID `json:"blueprintIds"`
}

// UpdateContentRequest is the save body: metadata plus the complete ordered
// section list. A nil Sections leaves the stored sections untouched.
type UpdateContentRequest struct {
	Template      *string        `json:"template,omitempty"`
	TitleEn       string         `json:"titleEn"`
	TitleAr       string         `json:"titleAr"`
	SlugEn        string         `json:"slugEn"`
	SlugAr        string         `json:"slugAr"`
	DescriptionEn string         `json:"descriptionEn"`
	DescriptionAr string         `json:"descriptionAr"`
	Status        Status         `json:"status"`
	Featured      bool           `json:"featured"`
	Sections      []SectionInput `json:"sections"`
}

type SectionInput struct {
	ID      uuid.UUID              `json:"id"`
	Order   int                    `json:"order"`
	Visible *bool                  `json:"visible"`
	DataEn  map[string]interface{} `json:"dataEn"`
	DataAr  map[string]interface{} `json:"dataAr"`
}

type AddSectionRequest struct {
	BlueprintID uuid.UUID `json:"blueprintId" binding:"required"`
}

type ListFilter struct {
	Type   Type
	Status Status
}

type ListContentResponse struct {
	Content []*Content `json:"content"`
	Total   int        `json:"total"`
}
