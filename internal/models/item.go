package models

import (
	"errors"
	"fmt"
)

// ContentType discriminates the item variants placed on the board.
type ContentType string

const (
	// ContentTypeNote is a sticky note.
	ContentTypeNote ContentType = "note"
	// ContentTypePhoto is a photo card referencing stored media.
	ContentTypePhoto ContentType = "photo"
	// ContentTypeText is free text without a card background.
	ContentTypeText ContentType = "text"
	// ContentTypeEvent is a multi-day event bar.
	ContentTypeEvent ContentType = "event"
	// ContentTypeGroup owns a nested list of items.
	ContentTypeGroup ContentType = "group"
)

// ContentTypes lists every supported content type in palette order.
var ContentTypes = []ContentType{
	ContentTypeNote,
	ContentTypePhoto,
	ContentTypeText,
	ContentTypeEvent,
	ContentTypeGroup,
}

// Valid reports whether the content type is known.
func (c ContentType) Valid() bool {
	for _, known := range ContentTypes {
		if c == known {
			return true
		}
	}
	return false
}

// EventSpan describes the extent of an event bar within one month.
type EventSpan struct {
	StartDay int `json:"start_day"`
	SpanDays int `json:"span_days"`
	Month    int `json:"month"`
	Year     int `json:"year"`
}

// EndDay returns the last covered day of month.
func (s EventSpan) EndDay() int {
	return s.StartDay + s.SpanDays - 1
}

// Item is a single piece of content placed in a container.
type Item struct {
	ID                string      `json:"id"`
	ContentType       ContentType `json:"content_type"`
	Content           string      `json:"content"`
	X                 float64     `json:"x"`
	Y                 float64     `json:"y"`
	Order             int         `json:"order"`
	Color             string      `json:"color,omitempty"`
	AssignedPersonIDs []string    `json:"assigned_person_ids,omitempty"`
	SoftDeleted       bool        `json:"soft_deleted,omitempty"`
	Editable          bool        `json:"editable,omitempty"`

	// Span is set only for event items.
	Span *EventSpan `json:"span,omitempty"`
	// Children is set only for group items and never holds another group.
	Children []Item `json:"children,omitempty"`
}

// IsEvent reports whether the item is an event bar.
func (i *Item) IsEvent() bool { return i.ContentType == ContentTypeEvent }

// IsGroup reports whether the item owns children.
func (i *Item) IsGroup() bool { return i.ContentType == ContentTypeGroup }

// CenterPercent is the offset used for an item placed without one.
const CenterPercent = 50.0

// HasPosition reports whether the offset was explicitly set. 0/0 means centre.
func (i *Item) HasPosition() bool {
	return i.X != 0 || i.Y != 0
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	out := i
	if i.AssignedPersonIDs != nil {
		out.AssignedPersonIDs = append([]string(nil), i.AssignedPersonIDs...)
	}
	if i.Span != nil {
		span := *i.Span
		out.Span = &span
	}
	if i.Children != nil {
		out.Children = CloneItems(i.Children)
	}
	return out
}

// CloneItems deep copies a slice of items.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for idx := range items {
		out[idx] = items[idx].Clone()
	}
	return out
}

// HasPerson reports whether the person is assigned to the item.
func (i *Item) HasPerson(personID string) bool {
	for _, id := range i.AssignedPersonIDs {
		if id == personID {
			return true
		}
	}
	return false
}

// AssignPerson appends the person id keeping the set ordered and unique.
func (i *Item) AssignPerson(personID string) bool {
	if personID == "" || i.HasPerson(personID) {
		return false
	}
	i.AssignedPersonIDs = append(i.AssignedPersonIDs, personID)
	return true
}

// UnassignPerson removes the person id if present.
func (i *Item) UnassignPerson(personID string) bool {
	for idx, id := range i.AssignedPersonIDs {
		if id == personID {
			i.AssignedPersonIDs = append(i.AssignedPersonIDs[:idx], i.AssignedPersonIDs[idx+1:]...)
			return true
		}
	}
	return false
}

// Validate checks structural constraints of a single item.
func (i *Item) Validate() error {
	if !i.ContentType.Valid() {
		return fmt.Errorf("unknown content type %q", i.ContentType)
	}
	if i.X < 0 || i.X > 100 || i.Y < 0 || i.Y > 100 {
		return errors.New("offset must be within 0-100")
	}
	if i.IsEvent() {
		if i.Span == nil {
			return errors.New("event requires a span")
		}
		if i.Span.SpanDays < 1 {
			return errors.New("span_days must be at least 1")
		}
		if i.Span.StartDay < 1 {
			return errors.New("start_day must be at least 1")
		}
		if i.Span.Month < 1 || i.Span.Month > 12 {
			return errors.New("month must be within 1-12")
		}
	} else if i.Span != nil {
		return errors.New("only events carry a span")
	}
	if !i.IsGroup() && len(i.Children) > 0 {
		return errors.New("only groups carry children")
	}
	for idx := range i.Children {
		if i.Children[idx].IsGroup() {
			return errors.New("groups cannot be nested")
		}
	}
	return nil
}

// NewNote constructs a sticky note.
func NewNote(id, content, color string) Item {
	return Item{ID: id, ContentType: ContentTypeNote, Content: content, Color: color}
}

// NewPhotoCard constructs a photo card pointing at stored media.
func NewPhotoCard(id, mediaRef string) Item {
	return Item{ID: id, ContentType: ContentTypePhoto, Content: mediaRef}
}

// NewText constructs a free text item.
func NewText(id, content string) Item {
	return Item{ID: id, ContentType: ContentTypeText, Content: content}
}

// NewGroup constructs an empty group.
func NewGroup(id, title string) Item {
	return Item{ID: id, ContentType: ContentTypeGroup, Content: title, Children: []Item{}}
}

// NewEvent constructs an event bar. spanDays must be at least 1.
func NewEvent(id, title string, startDay, spanDays, month, year int) (Item, error) {
	item := Item{
		ID:          id,
		ContentType: ContentTypeEvent,
		Content:     title,
		Span:        &EventSpan{StartDay: startDay, SpanDays: spanDays, Month: month, Year: year},
	}
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	return item, nil
}
