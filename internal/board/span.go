package board

import (
	"fmt"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// SpanRequest is a move or resize of an event bar onto the day under the pointer.
type SpanRequest struct {
	OverDay       int
	Action        models.DragAction
	IsStartHandle bool
	IsEndHandle   bool
}

// ClampSpan truncates a span so it never runs past the end of its month and never
// drops below one day.
func ClampSpan(span *models.EventSpan) {
	days := DaysInMonth(span.Month, span.Year)
	if span.StartDay < 1 {
		span.StartDay = 1
	}
	if span.StartDay > days {
		span.StartDay = days
	}
	if overflow := span.EndDay() - days; overflow > 0 {
		span.SpanDays -= overflow
	}
	if span.SpanDays < 1 {
		span.SpanDays = 1
	}
}

// ResolveSpan applies a move or resize to the span in place and reports whether it
// changed. Out-of-range handle drags are ignored rather than inverting the bar.
func ResolveSpan(span *models.EventSpan, req SpanRequest) bool {
	before := *span
	days := DaysInMonth(span.Month, span.Year)
	over := req.OverDay
	if over < 1 {
		over = 1
	}
	if over > days {
		over = days
	}

	switch req.Action {
	case models.DragActionMove:
		if over == span.StartDay {
			return false
		}
		span.StartDay = over
		if overflow := span.EndDay() - days; overflow > 0 {
			span.SpanDays -= overflow
		}
		if span.SpanDays < 1 {
			span.SpanDays = 1
		}
	case models.DragActionResize:
		switch {
		case req.IsStartHandle && !req.IsEndHandle:
			if over > span.StartDay+span.SpanDays {
				return false
			}
			grown := span.SpanDays + (span.StartDay - over)
			if grown < 1 {
				// handle landed just past the right edge: collapse onto the last day
				span.StartDay = span.EndDay()
				span.SpanDays = 1
			} else {
				span.StartDay = over
				span.SpanDays = grown
			}
		case req.IsEndHandle && !req.IsStartHandle:
			if over < span.StartDay {
				return false
			}
			span.SpanDays = over - span.StartDay + 1
		case req.IsStartHandle && req.IsEndHandle:
			if over > span.StartDay {
				span.SpanDays = over - span.StartDay + 1
			} else {
				span.SpanDays += span.StartDay - over
				span.StartDay = over
			}
		default:
			return false
		}
		ClampSpan(span)
	default:
		return false
	}
	return *span != before
}

// SpanResult reports the outcome of an event move or resize.
type SpanResult struct {
	Item    models.Item `json:"item"`
	Changed bool        `json:"changed"`
	Touched []EntityRef `json:"touched"`
}

// ResizeEvent moves or resizes an event bar and raises it above its siblings.
func (b *Board) ResizeEvent(itemID string, req SpanRequest) (*SpanResult, error) {
	loc, ok := b.locate(itemID)
	if !ok || loc.item().SoftDeleted {
		return nil, itemNotFound(itemID)
	}
	event := loc.item()
	if !event.IsEvent() || event.Span == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, fmt.Sprintf("item %s is not an event", itemID))
	}

	changed := ResolveSpan(event.Span, req)
	if BringToFront(*loc.list, itemID) {
		changed = true
	}
	current, _, err := b.Locate(itemID)
	if err != nil {
		return nil, err
	}
	result := &SpanResult{Item: current, Changed: changed}
	if changed {
		// raising one bar renumbers its siblings too
		for i := range *loc.list {
			result.Touched = append(result.Touched, EntityRef{Type: models.EntityTypeEvent, Key: (*loc.list)[i].ID})
		}
	}
	return result, nil
}
