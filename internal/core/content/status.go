package content

import "time"

// TogglePublish flips DRAFT and PUBLISHED. Publishing stamps PublishedAt once;
// going back to draft keeps it. ARCHIVED content is left alone and false is
// returned.
func TogglePublish(c *Content, now time.Time) bool {
	switch c.Status {
	case StatusPublished:
		c.Status = StatusDraft
	case StatusArchived:
		return false
	default:
		c.Status = StatusPublished
		stampPublished(c, now)
	}
	return true
}

func stampPublished(c *Content, now time.Time) {
	if c.Status == StatusPublished && c.PublishedAt == nil {
		t := now.UTC()
		c.PublishedAt = &t
	}
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
