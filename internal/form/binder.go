package form

import (
	"fmt"
	"strings"
	"time"

	"favehub/internal/docstore"
	"favehub/internal/domain/event"
)

// DateTimeLayout is the wall-clock shape of a datetime-local input value.
const DateTimeLayout = "2006-01-02T15:04"

// Fields are the editable field values exactly as the form presents them.
// IsPrivate carries the raw checkbox value: any non-empty value means
// checked, absence means unchecked.
type Fields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DateTime    string `json:"datetime"`
	Category    string `json:"category"`
	IsPrivate   string `json:"isPrivate"`
}

// FromEvent reflects a record into editable field values. The absolute
// datetime becomes a wall-clock string in the given location, independent
// of the offset's sign.
func FromEvent(e event.Event, loc *time.Location) Fields {
	checked := ""
	if e.IsPrivate {
		checked = "on"
	}

	return Fields{
		Name:        e.Name,
		Description: e.Description,
		DateTime:    e.StartAt.In(loc).Format(DateTimeLayout),
		Category:    string(e.Category),
		IsPrivate:   checked,
	}
}

// DateTimeValue normalizes a stored datetime field that may arrive as a
// raw time value or as the store's timestamp wrapper. Both shapes produce
// the same wall-clock string.
func DateTimeValue(v any, loc *time.Location) (string, error) {
	t, ok := docstore.AsTime(v)
	if !ok {
		return "", fmt.Errorf("form: unsupported datetime value %T", v)
	}

	return t.In(loc).Format(DateTimeLayout), nil
}

// ToRequest maps field values back to the editable field set: names are
// trimmed, a blank category defaults to Other, the checkbox value coerces
// to a boolean and the wall-clock string parses back into an absolute
// instant in the given location.
func (f Fields) ToRequest(loc *time.Location) (event.UpdateEventRequest, error) {
	t, err := time.ParseInLocation(DateTimeLayout, f.DateTime, loc)
	if err != nil {
		return event.UpdateEventRequest{}, fmt.Errorf("form: invalid datetime %q: %w", f.DateTime, err)
	}

	return event.UpdateEventRequest{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		StartAt:     t.UTC(),
		Category:    string(event.ParseCategory(f.Category)),
		IsPrivate:   f.IsPrivate != "",
	}, nil
}
