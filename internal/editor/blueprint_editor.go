package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
)

// BlueprintAPI is the part of the API client the blueprint editor needs.
type BlueprintAPI interface {
	GetBlueprint(ctx context.Context, id uuid.UUID) (*blueprint.Blueprint, error)
	CreateBlueprint(ctx context.Context, req *blueprint.CreateBlueprintRequest) (*blueprint.Blueprint, error)
	UpdateBlueprint(ctx context.Context, id uuid.UUID, req *blueprint.UpdateBlueprintRequest) (*blueprint.Blueprint, error)
}

var placeholderLabel = locale.Localized{EN: "New Field", AR: "حقل جديد"}

// Metadata is the editable part of a blueprint besides its fields.
type Metadata struct {
	Name          string
	DisplayName   string
	Description   string
	BlueprintType blueprint.Type
	Category      string
	Icon          string
	AllowMultiple bool
}

// FieldPatch holds the changes UpdateField merges into a field. Nil members
// are left as they are.
type FieldPatch struct {
	Name         *string
	Label        *locale.Localized
	Type         *fieldtype.Kind
	Bilingual    *bool
	Required     *bool
	Validation   *blueprint.Rules
	HelpText     *locale.Localized
	DefaultValue interface{}
	Options      []blueprint.Option
	SubFields    []blueprint.FieldDefinition
}

// BlueprintEditor is one create or edit session over a blueprint.
type BlueprintEditor struct {
	api BlueprintAPI

	id       uuid.UUID
	isSystem bool
	meta     Metadata
	fields   []blueprint.FieldDefinition

	// editing is the index of the focused field, -1 for none.
	editing     int
	nameTouched bool
}

// NewBlueprintEditor starts a session for a new blueprint.
func NewBlueprintEditor(api BlueprintAPI) *BlueprintEditor {
	return &BlueprintEditor{
		api:     api,
		meta:    Metadata{BlueprintType: blueprint.TypeComponent, AllowMultiple: true},
		fields:  []blueprint.FieldDefinition{},
		editing: -1,
	}
}

// LoadBlueprintEditor starts a session over a stored blueprint.
func LoadBlueprintEditor(ctx context.Context, api BlueprintAPI, id uuid.UUID) (*BlueprintEditor, error) {
	bp, err := api.GetBlueprint(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	e := &BlueprintEditor{api: api, editing: -1}
	e.reset(bp)
	return e, nil
}

func (e *BlueprintEditor) reset(bp *blueprint.Blueprint) {
	bp = bp.Clone()
	e.id = bp.ID
	e.isSystem = bp.IsSystem
	e.meta = Metadata{
		Name:          bp.Name,
		DisplayName:   bp.DisplayName,
		Description:   bp.Description,
		BlueprintType: bp.BlueprintType,
		Category:      bp.Category,
		Icon:          bp.Icon,
		AllowMultiple: bp.AllowMultiple,
	}
	e.fields = bp.Fields
	if e.fields == nil {
		e.fields = []blueprint.FieldDefinition{}
	}
	e.nameTouched = true
	e.editing = -1
}

// ID is uuid.Nil until a new blueprint has been saved.
func (e *BlueprintEditor) ID() uuid.UUID { return e.id }

func (e *BlueprintEditor) IsSystem() bool { return e.isSystem }

func (e *BlueprintEditor) Metadata() Metadata { return e.meta }

// Fields returns a copy of the current field list.
func (e *BlueprintEditor) Fields() []blueprint.FieldDefinition {
	return e.blueprint().Clone().Fields
}

// UnknownFieldTypes lists the dotted names of fields whose type is not
// registered. Such a blueprint can be viewed but Save fails until each of
// them is given a known type.
func (e *BlueprintEditor) UnknownFieldTypes() []string {
	return blueprint.UnknownFieldTypes(e.blueprint())
}

// FieldControl resolves the input kind for field i. Unknown types come back
// as the text control with Unknown set.
func (e *BlueprintEditor) FieldControl(i int) (fieldtype.Info, error) {
	if !e.inRange(i) {
		return fieldtype.Info{}, ErrOutOfRange
	}
	return fieldtype.Resolve(e.fields[i].Type), nil
}

// Editing returns the focused field index, or -1.
func (e *BlueprintEditor) Editing() int { return e.editing }

// Focus moves edit focus to field i; -1 clears it.
func (e *BlueprintEditor) Focus(i int) error {
	if i != -1 && !e.inRange(i) {
		return ErrOutOfRange
	}
	e.editing = i
	return nil
}

// SetDisplayName also derives the technical name until the name is edited
// directly or the blueprint has been saved.
func (e *BlueprintEditor) SetDisplayName(displayName string) error {
	if e.isSystem {
		return ErrForbidden
	}
	e.meta.DisplayName = displayName
	if !e.nameTouched {
		e.meta.Name = blueprint.NameFromDisplayName(displayName)
	}
	return nil
}

func (e *BlueprintEditor) SetName(name string) error {
	if e.isSystem {
		return ErrForbidden
	}
	e.meta.Name = strings.TrimSpace(name)
	e.nameTouched = true
	return nil
}

// SetMetadata replaces description, type, category, icon and multiplicity.
// Name and display name have their own setters.
func (e *BlueprintEditor) SetMetadata(m Metadata) error {
	if e.isSystem {
		return ErrForbidden
	}
	e.meta.Description = m.Description
	e.meta.BlueprintType = m.BlueprintType
	e.meta.Category = m.Category
	e.meta.Icon = m.Icon
	e.meta.AllowMultiple = m.AllowMultiple
	return nil
}

// AddField appends a shared field of kind with a placeholder label and
// focuses it. It returns the new index.
func (e *BlueprintEditor) AddField(kind fieldtype.Kind) (int, error) {
	if e.isSystem {
		return -1, ErrForbidden
	}
	f := blueprint.FieldDefinition{
		ID:    uuid.NewString(),
		Name:  e.freeName(len(e.fields) + 1),
		Label: placeholderLabel,
		Type:  kind,
	}
	e.fields = append(e.fields, f)
	e.editing = len(e.fields) - 1
	return e.editing, nil
}

// freeName returns "field<n>", bumping n past names already taken.
func (e *BlueprintEditor) freeName(n int) string {
	taken := make(map[string]bool, len(e.fields))
	for _, f := range e.fields {
		taken[f.Name] = true
	}
	for {
		name := fmt.Sprintf("field%d", n)
		if !taken[name] {
			return name
		}
		n++
	}
}

func (e *BlueprintEditor) RemoveField(i int) error {
	if e.isSystem {
		return ErrForbidden
	}
	if !e.inRange(i) {
		return ErrOutOfRange
	}
	e.fields = append(e.fields[:i], e.fields[i+1:]...)
	switch {
	case e.editing == i:
		e.editing = -1
	case e.editing > i:
		e.editing--
	}
	return nil
}

// MoveField swaps field i with its neighbour. It reports false at the ends
// of the list, where nothing moves.
func (e *BlueprintEditor) MoveField(i int, dir Direction) (bool, error) {
	if e.isSystem {
		return false, ErrForbidden
	}
	if !e.inRange(i) {
		return false, ErrOutOfRange
	}
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if !e.inRange(j) {
		return false, nil
	}
	e.fields[i], e.fields[j] = e.fields[j], e.fields[i]
	switch e.editing {
	case i:
		e.editing = j
	case j:
		e.editing = i
	}
	return true, nil
}

// UpdateField merges p into field i. Names lose all whitespace; uniqueness
// is only checked by Validate.
func (e *BlueprintEditor) UpdateField(i int, p FieldPatch) error {
	if e.isSystem {
		return ErrForbidden
	}
	if !e.inRange(i) {
		return ErrOutOfRange
	}
	f := &e.fields[i]
	if p.Name != nil {
		f.Name = blueprint.SanitizeFieldName(*p.Name)
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Type != nil {
		f.Type = *p.Type
		if !fieldtype.SupportsBilingual(f.Type) {
			f.Bilingual = false
		}
	}
	if p.Bilingual != nil {
		f.Bilingual = *p.Bilingual && fieldtype.SupportsBilingual(f.Type)
	}
	if p.Required != nil {
		f.Required = *p.Required
	}
	if p.Validation != nil {
		r := *p.Validation
		f.Validation = &r
	}
	if p.HelpText != nil {
		h := *p.HelpText
		f.HelpText = &h
	}
	if p.DefaultValue != nil {
		f.DefaultValue = p.DefaultValue
	}
	if p.Options != nil {
		f.Options = append([]blueprint.Option(nil), p.Options...)
	}
	if p.SubFields != nil {
		f.SubFields = (&blueprint.Blueprint{Fields: p.SubFields}).Clone().Fields
		blueprint.AssignFieldIDs(f.SubFields)
	}
	return nil
}

// Validate runs the same checks the server applies on save.
func (e *BlueprintEditor) Validate() error {
	return blueprint.ValidateBlueprint(e.blueprint())
}

// Save validates locally, then creates or replaces the blueprint in one
// request. On success the session reflects what the server stored.
func (e *BlueprintEditor) Save(ctx context.Context) (*blueprint.Blueprint, error) {
	if e.isSystem {
		return nil, ErrForbidden
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	bp := e.blueprint()
	allowMultiple := bp.AllowMultiple
	var (
		saved *blueprint.Blueprint
		err   error
	)
	if e.id == uuid.Nil {
		saved, err = e.api.CreateBlueprint(ctx, &blueprint.CreateBlueprintRequest{
			Name:          bp.Name,
			DisplayName:   bp.DisplayName,
			Description:   bp.Description,
			BlueprintType: bp.BlueprintType,
			Category:      bp.Category,
			Icon:          bp.Icon,
			AllowMultiple: &allowMultiple,
			Fields:        bp.Fields,
		})
	} else {
		saved, err = e.api.UpdateBlueprint(ctx, e.id, &blueprint.UpdateBlueprintRequest{
			Name:          bp.Name,
			DisplayName:   bp.DisplayName,
			Description:   bp.Description,
			BlueprintType: bp.BlueprintType,
			Category:      bp.Category,
			Icon:          bp.Icon,
			AllowMultiple: &allowMultiple,
			Fields:        bp.Fields,
		})
	}
	if err != nil {
		return nil, persistenceError(err)
	}

	editing := e.editing
	e.reset(saved)
	if e.inRange(editing) {
		e.editing = editing
	}
	return saved, nil
}

func (e *BlueprintEditor) blueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		ID:            e.id,
		Name:          e.meta.Name,
		DisplayName:   strings.TrimSpace(e.meta.DisplayName),
		Description:   e.meta.Description,
		BlueprintType: e.meta.BlueprintType,
		Category:      e.meta.Category,
		Icon:          e.meta.Icon,
		AllowMultiple: e.meta.AllowMultiple,
		IsSystem:      e.isSystem,
		Fields:        e.fields,
	}
}

func (e *BlueprintEditor) inRange(i int) bool {
	return i >= 0 && i < len(e.fields)
}
