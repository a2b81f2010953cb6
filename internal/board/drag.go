package board

import (
	"fmt"
	"time"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// Outcome is the combined result of applying a drag intent.
type Outcome struct {
	Move     *MoveResult `json:"move,omitempty"`
	Span     *SpanResult `json:"span,omitempty"`
	Assigned bool        `json:"assigned,omitempty"`
	Changed  bool        `json:"changed"`
	Touched  []EntityRef `json:"touched"`
}

// Apply dispatches a terminal drag intent to the placement engine, the span resolver
// or the person tagger.
func Apply(b *Board, intent models.DragIntent) (*Outcome, error) {
	if intent.Kind == models.DragKindPerson || intent.Action == models.DragActionAssign {
		if intent.TargetItemID == "" {
			return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, "person tags must be dropped on an item")
		}
		assigned, owner, err := b.AssignPerson(intent.TargetItemID, intent.ItemID)
		if err != nil {
			return nil, err
		}
		out := &Outcome{Assigned: assigned, Changed: assigned}
		if assigned {
			out.Touched = []EntityRef{owner}
		}
		return out, nil
	}

	if !IsPaletteEntry(intent.ItemID) {
		if item, _, err := b.Locate(intent.ItemID); err == nil && item.IsEvent() {
			return applySpan(b, intent, item)
		}
	}

	if intent.TargetContainerID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, "drop has no target container")
	}
	move, err := b.MoveItem(MoveRequest{
		ItemID:            intent.ItemID,
		SourceContainerID: intent.SourceContainerID,
		TargetContainerID: intent.TargetContainerID,
		Offset:            intent.PointerOffset,
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Move: move, Changed: true, Touched: move.Touched}, nil
}

func applySpan(b *Board, intent models.DragIntent, event models.Item) (*Outcome, error) {
	overDay := intent.OverDay
	if overDay == 0 && intent.TargetContainerID != "" {
		ref, err := models.ParseContainerID(intent.TargetContainerID)
		if err != nil || ref.Kind != models.ContainerKindDay {
			return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, "event bars can only be dropped on day cells")
		}
		if ref.Month != event.Span.Month || ref.Year != event.Span.Year {
			return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, "event bars cannot leave their month")
		}
		overDay = ref.Day
	}
	if overDay == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, "drop has no target day")
	}
	action := intent.Action
	if action == "" {
		action = models.DragActionMove
	}
	span, err := b.ResizeEvent(intent.ItemID, SpanRequest{
		OverDay:       overDay,
		Action:        action,
		IsStartHandle: intent.IsStartHandle,
		IsEndHandle:   intent.IsEndHandle,
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Span: span, Changed: span.Changed, Touched: span.Touched}, nil
}

// Drag tracks one gesture from start to end or cancel.
type Drag struct {
	ID                string          `json:"id"`
	ItemID            string          `json:"item_id"`
	Kind              models.DragKind `json:"kind"`
	SourceContainerID string          `json:"source_container_id"`
	StartedAt         time.Time       `json:"started_at"`

	resolver Resolver
}

// Preview is the hypothetical outcome shown while hovering.
type Preview struct {
	Target  *Resolution `json:"target,omitempty"`
	Outcome *Outcome    `json:"outcome,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// StartDrag validates the dragged item and opens a gesture.
func (b *Board) StartDrag(id string, kind models.DragKind, itemID, sourceContainerID string) (*Drag, error) {
	if kind == "" {
		kind = models.DragKindItem
	}
	switch {
	case kind == models.DragKindPerson:
		if _, ok := b.Person(itemID); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("person %s not found", itemID))
		}
	case IsPaletteEntry(itemID):
		sourceContainerID = models.PaletteContainerID
	default:
		item, containerID, err := b.Locate(itemID)
		if err != nil || item.SoftDeleted {
			return nil, itemNotFound(itemID)
		}
		if sourceContainerID != "" && sourceContainerID != containerID {
			return nil, appErrors.Clone(appErrors.ErrItemNotFound, fmt.Sprintf("item %s not found in %s", itemID, sourceContainerID))
		}
		sourceContainerID = containerID
	}
	return &Drag{ID: id, ItemID: itemID, Kind: kind, SourceContainerID: sourceContainerID, StartedAt: time.Now().UTC()}, nil
}

// Over resolves the hovered target and computes the outcome on a copy of the board.
// The live board is never touched.
func (d *Drag) Over(b *Board, req ResolveRequest, intent models.DragIntent) *Preview {
	req.Kind = d.Kind
	req.ItemID = d.ItemID
	res, ok := d.resolver.Resolve(req)
	if !ok {
		return &Preview{}
	}
	preview := &Preview{Target: &res}
	outcome, err := Apply(b.Clone(), d.intent(intent, res))
	if err != nil {
		preview.Error = appErrors.FromError(err).Message
		return preview
	}
	preview.Outcome = outcome
	return preview
}

// End applies the terminal intent to the board. Missing targets fall back to the last
// resolved hover target.
func (d *Drag) End(b *Board, intent models.DragIntent) (*Outcome, error) {
	defer d.resolver.Reset()
	var res Resolution
	if last, ok := d.resolver.Last(); ok {
		res = last
	}
	return Apply(b, d.intent(intent, res))
}

func (d *Drag) intent(intent models.DragIntent, res Resolution) models.DragIntent {
	intent.ItemID = d.ItemID
	intent.Kind = d.Kind
	intent.SourceContainerID = d.SourceContainerID
	if d.Kind == models.DragKindPerson {
		intent.Action = models.DragActionAssign
		if intent.TargetItemID == "" {
			intent.TargetItemID = res.OverItemID
		}
		return intent
	}
	if intent.TargetContainerID == "" {
		intent.TargetContainerID = res.ContainerID
	}
	return intent
}
