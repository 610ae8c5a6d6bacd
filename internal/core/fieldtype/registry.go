// Package fieldtype is the registry of input kinds a blueprint field can
// declare. Kind keys are persisted inside stored blueprints: add new kinds,
// never rename or remove existing ones.
package fieldtype

type Kind string

const (
	Text         Kind = "text"
	Textarea     Kind = "textarea"
	RichText     Kind = "rich_text"
	Number       Kind = "number"
	Boolean      Kind = "boolean"
	Select       Kind = "select"
	Date         Kind = "date"
	DateTime     Kind = "datetime"
	Color        Kind = "color"
	URL          Kind = "url"
	Email        Kind = "email"
	Image        Kind = "image"
	Gallery      Kind = "gallery"
	File         Kind = "file"
	Video        Kind = "video"
	Asset        Kind = "asset"
	Repeater     Kind = "repeater"
	Group        Kind = "group"
	Relationship Kind = "relationship"
	JSON         Kind = "json"
)

type Category string

const (
	CategoryBasic    Category = "Basic"
	CategoryMedia    Category = "Media"
	CategoryAdvanced Category = "Advanced"
)

// Info describes how an editor renders and stores one kind.
type Info struct {
	Kind      Kind     `json:"kind"`
	Label     string   `json:"label"`
	Icon      string   `json:"icon"`
	Category  Category `json:"category"`
	Bilingual bool     `json:"bilingual"`
	Composite bool     `json:"composite"`
	Unknown   bool     `json:"unknown,omitempty"`
}

var registry = []Info{
	{Kind: Text, Label: "Text", Icon: "type", Category: CategoryBasic, Bilingual: true},
	{Kind: Textarea, Label: "Text Area", Icon: "align-left", Category: CategoryBasic, Bilingual: true},
	{Kind: RichText, Label: "Rich Text", Icon: "edit-3", Category: CategoryBasic, Bilingual: true},
	{Kind: Number, Label: "Number", Icon: "hash", Category: CategoryBasic},
	{Kind: Boolean, Label: "Boolean", Icon: "check-square", Category: CategoryBasic},
	{Kind: Select, Label: "Select", Icon: "chevron-down", Category: CategoryBasic},
	{Kind: Date, Label: "Date", Icon: "calendar", Category: CategoryBasic},
	{Kind: DateTime, Label: "Date Time", Icon: "clock", Category: CategoryBasic},
	{Kind: Color, Label: "Color", Icon: "droplet", Category: CategoryBasic},
	{Kind: URL, Label: "URL", Icon: "link", Category: CategoryBasic, Bilingual: true},
	{Kind: Email, Label: "Email", Icon: "mail", Category: CategoryBasic},
	{Kind: Image, Label: "Image", Icon: "image", Category: CategoryMedia, Bilingual: true},
	{Kind: Gallery, Label: "Gallery", Icon: "grid", Category: CategoryMedia},
	{Kind: File, Label: "File", Icon: "paperclip", Category: CategoryMedia, Bilingual: true},
	{Kind: Video, Label: "Video", Icon: "film", Category: CategoryMedia, Bilingual: true},
	{Kind: Asset, Label: "Asset", Icon: "package", Category: CategoryMedia},
	{Kind: Repeater, Label: "Repeater", Icon: "repeat", Category: CategoryAdvanced, Bilingual: true, Composite: true},
	{Kind: Group, Label: "Group", Icon: "box", Category: CategoryAdvanced, Bilingual: true, Composite: true},
	{Kind: Relationship, Label: "Relationship", Icon: "share-2", Category: CategoryAdvanced},
	{Kind: JSON, Label: "JSON", Icon: "code", Category: CategoryAdvanced, Bilingual: true},
}

var byKind = func() map[Kind]Info {
	m := make(map[Kind]Info, len(registry))
	for _, info := range registry {
		m[info.Kind] = info
	}
	return m
}()

// Lookup returns the registered info for kind.
func Lookup(kind Kind) (Info, bool) {
	info, ok := byKind[kind]
	return info, ok
}

// Resolve always returns something an editor can render. Unknown kinds fall
// back to the plain text control and are marked Unknown so the caller can
// flag the blueprint instead of losing the stored value.
func Resolve(kind Kind) Info {
	if info, ok := byKind[kind]; ok {
		return info
	}
	fallback := byKind[Text]
	fallback.Kind = kind
	fallback.Label = string(kind)
	fallback.Unknown = true
	return fallback
}

func IsKnown(kind Kind) bool {
	_, ok := byKind[kind]
	return ok
}

func SupportsBilingual(kind Kind) bool {
	return byKind[kind].Bilingual
}

func IsComposite(kind Kind) bool {
	return byKind[kind].Composite
}

// All returns the registry in display order.
func All() []Info {
	out := make([]Info, len(registry))
	copy(out, registry)
	return out
}

// ByCategory groups the registry for pickers, keeping display order inside
// each category.
func ByCategory() map[Category][]Info {
	out := make(map[Category][]Info)
	for _, info := range registry {
		out[info.Category] = append(out[info.Category], info)
	}
	return out
}
