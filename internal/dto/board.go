package dto

import (
	"github.com/noah-isme/planboard-api/internal/board"
	"github.com/noah-isme/planboard-api/internal/models"
)

// BoardResponse is the full optimistic board of a calendar.
type BoardResponse struct {
	Board   *board.Board              `json:"board"`
	Palette []models.Item             `json:"palette"`
	Status  []models.CollectionStatus `json:"status"`
}

// MutationResponse wraps the outcome of one logical action together with the
// pending counters it left behind.
type MutationResponse struct {
	Result  interface{}               `json:"result,omitempty"`
	Pending map[models.Collection]int `json:"pending_changes"`
}

// CreateItemRequest creates an item directly inside a container. Events ignore
// ContainerID and are placed by their span.
type CreateItemRequest struct {
	ContainerID string             `json:"container_id"`
	ContentType models.ContentType `json:"content_type" validate:"required,oneof=note photo text event group"`
	Content     string             `json:"content" validate:"max=4000"`
	Color       string             `json:"color" validate:"omitempty,max=32"`
	X           float64            `json:"x" validate:"min=0,max=100"`
	Y           float64            `json:"y" validate:"min=0,max=100"`
	StartDay    int                `json:"start_day" validate:"omitempty,min=1,max=31"`
	SpanDays    int                `json:"span_days" validate:"omitempty,min=1"`
	Month       int                `json:"month" validate:"omitempty,min=1,max=12"`
	Year        int                `json:"year" validate:"omitempty,min=1970,max=9999"`
}

// Item builds the model item. The id is assigned by the board.
func (r CreateItemRequest) Item() models.Item {
	item := models.Item{ContentType: r.ContentType, Content: r.Content, Color: r.Color, X: r.X, Y: r.Y}
	switch r.ContentType {
	case models.ContentTypeEvent:
		span := r.SpanDays
		if span < 1 {
			span = 1
		}
		item.Span = &models.EventSpan{StartDay: r.StartDay, SpanDays: span, Month: r.Month, Year: r.Year}
	case models.ContentTypeGroup:
		item.Children = []models.Item{}
	}
	return item
}

// UpdateItemRequest patches item content. Omitted fields stay as they are.
type UpdateItemRequest struct {
	Content *string `json:"content" validate:"omitempty,max=4000"`
	Color   *string `json:"color" validate:"omitempty,max=32"`
}

// StartDragRequest opens a drag gesture.
type StartDragRequest struct {
	ItemID            string          `json:"item_id" validate:"required"`
	Kind              models.DragKind `json:"kind" validate:"omitempty,oneof=item person"`
	SourceContainerID string          `json:"source_container_id"`
}

// DragOverRequest is one pointer sample of an open gesture.
type DragOverRequest struct {
	Pointer       models.Point           `json:"pointer"`
	PointerRect   models.Rect            `json:"pointer_rect"`
	Candidates    []models.DropCandidate `json:"candidates"`
	Action        models.DragAction      `json:"action" validate:"omitempty,oneof=move resize assign"`
	OverDay       int                    `json:"over_day" validate:"min=0,max=31"`
	IsStartHandle bool                   `json:"is_start_handle"`
	IsEndHandle   bool                   `json:"is_end_handle"`
}

// ResolveRequest converts the sample into the resolver input.
func (r DragOverRequest) ResolveRequest() board.ResolveRequest {
	return board.ResolveRequest{Pointer: r.Pointer, PointerRect: r.PointerRect, Candidates: r.Candidates}
}

// Intent returns the partial intent carried by the sample.
func (r DragOverRequest) Intent() models.DragIntent {
	return models.DragIntent{Action: r.Action, OverDay: r.OverDay, IsStartHandle: r.IsStartHandle, IsEndHandle: r.IsEndHandle}
}

// DragEndRequest finishes a gesture. An empty target falls back to the last
// hovered one.
type DragEndRequest struct {
	TargetContainerID string            `json:"target_container_id"`
	TargetItemID      string            `json:"target_item_id"`
	Action            models.DragAction `json:"action" validate:"omitempty,oneof=move resize assign"`
	PointerOffset     models.Point      `json:"pointer_offset"`
	OverDay           int               `json:"over_day" validate:"min=0,max=31"`
	IsStartHandle     bool              `json:"is_start_handle"`
	IsEndHandle       bool              `json:"is_end_handle"`
}

// Intent converts the request into a terminal drag intent.
func (r DragEndRequest) Intent() models.DragIntent {
	return models.DragIntent{
		TargetContainerID: r.TargetContainerID,
		TargetItemID:      r.TargetItemID,
		Action:            r.Action,
		PointerOffset:     r.PointerOffset,
		OverDay:           r.OverDay,
		IsStartHandle:     r.IsStartHandle,
		IsEndHandle:       r.IsEndHandle,
	}
}

// DropRequest is a complete terminal intent applied without an open gesture.
type DropRequest struct {
	ItemID            string            `json:"item_id" validate:"required"`
	Kind              models.DragKind   `json:"kind" validate:"omitempty,oneof=item person"`
	SourceContainerID string            `json:"source_container_id"`
	TargetContainerID string            `json:"target_container_id"`
	TargetItemID      string            `json:"target_item_id"`
	Action            models.DragAction `json:"action" validate:"omitempty,oneof=move resize assign"`
	PointerOffset     models.Point      `json:"pointer_offset"`
	OverDay           int               `json:"over_day" validate:"min=0,max=31"`
	IsStartHandle     bool              `json:"is_start_handle"`
	IsEndHandle       bool              `json:"is_end_handle"`
}

// Intent converts the request into a drag intent.
func (r DropRequest) Intent() models.DragIntent {
	kind := r.Kind
	if kind == "" {
		kind = models.DragKindItem
	}
	return models.DragIntent{
		ItemID:            r.ItemID,
		Kind:              kind,
		SourceContainerID: r.SourceContainerID,
		TargetContainerID: r.TargetContainerID,
		TargetItemID:      r.TargetItemID,
		Action:            r.Action,
		PointerOffset:     r.PointerOffset,
		OverDay:           r.OverDay,
		IsStartHandle:     r.IsStartHandle,
		IsEndHandle:       r.IsEndHandle,
	}
}

// CreatePersonRequest registers a person.
type CreatePersonRequest struct {
	Name  string `json:"name" validate:"required,max=80"`
	Color string `json:"color" validate:"omitempty,max=32"`
}

// AssignPersonRequest tags a person on an item.
type AssignPersonRequest struct {
	PersonID string `json:"person_id" validate:"required"`
}

// CreateTemplateRequest registers an empty weekly template.
type CreateTemplateRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// ApplyTemplateRequest merges a template into an ISO week. Recurrence is an
// optional RRULE (e.g. FREQ=WEEKLY;COUNT=4) starting at that week.
type ApplyTemplateRequest struct {
	Year       int    `json:"year" validate:"required,min=1970,max=9999"`
	Week       int    `json:"week" validate:"required,min=1,max=53"`
	Recurrence string `json:"recurrence" validate:"omitempty,max=256"`
}

// ApplyTemplateResponse reports how many items were merged.
type ApplyTemplateResponse struct {
	ScheduleKey  string   `json:"schedule_key"`
	ScheduleKeys []string `json:"schedule_keys,omitempty"`
	Added        int      `json:"added"`
}

// SyncResponse lists the result of every collection pass.
type SyncResponse struct {
	Results []models.SyncResult       `json:"results"`
	Status  []models.CollectionStatus `json:"status"`
}

// ExportMonthRequest selects the month and format of a board export.
type ExportMonthRequest struct {
	Year   int    `form:"year" validate:"required,min=1970,max=9999"`
	Month  int    `form:"month" validate:"required,min=1,max=12"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf ics"`
}
