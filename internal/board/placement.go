package board

import (
	"fmt"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// MoveRequest describes a drop of an item onto a container.
type MoveRequest struct {
	ItemID string
	// SourceContainerID may be empty, in which case the item is looked up everywhere.
	SourceContainerID string
	TargetContainerID string
	Offset            models.Point
}

// MoveResult reports the outcome of a placement so the caller can persist the touched rows.
type MoveResult struct {
	Item              models.Item `json:"item"`
	SourceContainerID string      `json:"source_container_id"`
	TargetContainerID string      `json:"target_container_id"`
	SourceSoftDeleted bool        `json:"source_soft_deleted"`
	TargetCreated     bool        `json:"target_created"`
	Touched           []EntityRef `json:"touched"`
}

type touchSet []EntityRef

func (t *touchSet) add(ref EntityRef) {
	for _, existing := range *t {
		if existing == ref {
			return
		}
	}
	*t = append(*t, ref)
}

// MoveItem moves an item between containers. Palette entries are instantiated as new
// entities; every other item is removed from its source, which is renumbered, and
// appended to the target at the front layer.
func (b *Board) MoveItem(req MoveRequest) (*MoveResult, error) {
	targetRef, err := models.ParseContainerID(req.TargetContainerID)
	if err != nil {
		return nil, appErrors.Cause(appErrors.ErrContainerNotFound, err, "unknown target container")
	}

	if req.SourceContainerID == models.PaletteContainerID || (req.SourceContainerID == "" && IsPaletteEntry(req.ItemID)) {
		return b.placeFromPalette(req, targetRef)
	}

	loc, ok := b.locate(req.ItemID)
	if !ok {
		return nil, itemNotFound(req.ItemID)
	}
	if req.SourceContainerID != "" && loc.ref.ID() != req.SourceContainerID {
		return nil, appErrors.Clone(appErrors.ErrItemNotFound, fmt.Sprintf("item %s not found in %s", req.ItemID, req.SourceContainerID))
	}
	moving := loc.item()
	if moving.IsEvent() {
		return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, "event bars are moved with the span resolver")
	}
	if moving.SoftDeleted {
		return nil, itemNotFound(req.ItemID)
	}
	if err := b.checkTarget(targetRef, moving); err != nil {
		return nil, err
	}

	result := &MoveResult{SourceContainerID: loc.ref.ID(), TargetContainerID: targetRef.ID()}
	var touched touchSet

	item := moving.Clone()
	item.Editable = false
	list := *loc.list
	*loc.list = append(list[:loc.index], list[loc.index+1:]...)
	RenumberAll(*loc.list)
	touched.add(loc.owner)
	if loc.ref.Kind == models.ContainerKindDay {
		cell := b.Days[loc.ref.ID()]
		if liveCount(cell.Items) == 0 {
			cell.SoftDeleted = true
			result.SourceSoftDeleted = true
		}
	}

	placed, owner, created, err := b.appendToTarget(targetRef, item, req.Offset)
	if err != nil {
		// checkTarget vetted the destination, so this is a broken invariant
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to place item")
	}
	touched.add(owner)
	if targetRef.Kind == models.ContainerKindDay && result.SourceContainerID == result.TargetContainerID {
		result.SourceSoftDeleted = false
	}
	result.Item = placed
	result.TargetCreated = created
	result.Touched = touched
	return result, nil
}

func (b *Board) placeFromPalette(req MoveRequest, targetRef models.ContainerRef) (*MoveResult, error) {
	item, err := b.instantiate(req.ItemID)
	if err != nil {
		return nil, err
	}
	result := &MoveResult{SourceContainerID: models.PaletteContainerID, TargetContainerID: targetRef.ID()}

	if item.IsEvent() {
		if targetRef.Kind != models.ContainerKindDay {
			return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, "events can only be dropped on day cells")
		}
		if targetRef.Day > DaysInMonth(targetRef.Month, targetRef.Year) {
			return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, "day outside of month")
		}
		item.Span = &models.EventSpan{StartDay: targetRef.Day, SpanDays: 1, Month: targetRef.Month, Year: targetRef.Year}
		list := b.eventList(targetRef.Month, targetRef.Year)
		item.Order = frontOrder(list.Items)
		list.Items = append(list.Items, item)
		BringToFront(list.Items, item.ID)
		result.Item = list.Items[len(list.Items)-1].Clone()
		result.TargetContainerID = list.Key()
		result.Touched = []EntityRef{{Type: models.EntityTypeEvent, Key: item.ID}}
		return result, nil
	}

	if err := b.checkTarget(targetRef, &item); err != nil {
		return nil, err
	}
	placed, owner, created, err := b.appendToTarget(targetRef, item, req.Offset)
	if err != nil {
		return nil, err
	}
	result.Item = placed
	result.TargetCreated = created
	result.Touched = []EntityRef{owner}
	return result, nil
}

// checkTarget validates the destination without mutating the board.
func (b *Board) checkTarget(ref models.ContainerRef, item *models.Item) error {
	switch ref.Kind {
	case models.ContainerKindDay:
		if ref.Day > DaysInMonth(ref.Month, ref.Year) {
			return appErrors.Clone(appErrors.ErrInvalidPlacement, "day outside of month")
		}
	case models.ContainerKindScheduleSection:
	case models.ContainerKindTemplateSection:
		tmpl, ok := b.Templates[ref.OwnerID]
		if !ok || tmpl.SoftDeleted {
			return appErrors.Clone(appErrors.ErrContainerNotFound, fmt.Sprintf("template %s not found", ref.OwnerID))
		}
	case models.ContainerKindGroup:
		if item.IsGroup() {
			return appErrors.Clone(appErrors.ErrInvalidPlacement, "groups cannot be nested")
		}
		loc, ok := b.locate(ref.OwnerID)
		if !ok || !loc.item().IsGroup() || loc.item().SoftDeleted {
			return appErrors.Clone(appErrors.ErrContainerNotFound, fmt.Sprintf("group %s not found", ref.OwnerID))
		}
	default:
		return appErrors.Clone(appErrors.ErrInvalidPlacement, fmt.Sprintf("%s is not a drop target", ref.Kind))
	}
	if item.IsEvent() {
		return appErrors.Clone(appErrors.ErrInvalidPlacement, "events live in the event list")
	}
	return nil
}

func (b *Board) appendToTarget(ref models.ContainerRef, item models.Item, offset models.Point) (models.Item, EntityRef, bool, error) {
	list, owner, created, err := b.target(ref)
	if err != nil {
		return models.Item{}, EntityRef{}, false, err
	}
	item.X, item.Y = offset.X, offset.Y
	if item.HasPosition() {
		item.X, item.Y = clampPercent(item.X), clampPercent(item.Y)
	} else {
		item.X, item.Y = models.CenterPercent, models.CenterPercent
	}
	item.Order = frontOrder(*list)
	*list = append(*list, item)
	BringToFront(*list, item.ID)
	return (*list)[len(*list)-1].Clone(), owner, created, nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// AddItem creates an item directly in a container at the front layer. Events are routed
// to the event list of their span's month and truncated to the month end.
func (b *Board) AddItem(containerID string, item models.Item) (*MoveResult, error) {
	if item.ID == "" {
		item.ID = b.newID()
	}
	if _, _, err := b.Locate(item.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("item %s already exists", item.ID))
	}
	if item.IsGroup() && item.Children == nil {
		item.Children = []models.Item{}
	}
	if err := item.Validate(); err != nil {
		return nil, appErrors.Cause(appErrors.ErrValidation, err, err.Error())
	}

	if item.IsEvent() {
		span := *item.Span
		ClampSpan(&span)
		item.Span = &span
		list := b.eventList(span.Month, span.Year)
		item.Order = frontOrder(list.Items)
		list.Items = append(list.Items, item)
		BringToFront(list.Items, item.ID)
		return &MoveResult{
			Item:              list.Items[len(list.Items)-1].Clone(),
			TargetContainerID: list.Key(),
			Touched:           []EntityRef{{Type: models.EntityTypeEvent, Key: item.ID}},
		}, nil
	}

	ref, err := models.ParseContainerID(containerID)
	if err != nil {
		return nil, appErrors.Cause(appErrors.ErrContainerNotFound, err, "unknown container")
	}
	if err := b.checkTarget(ref, &item); err != nil {
		return nil, err
	}
	placed, owner, created, err := b.appendToTarget(ref, item, models.Point{X: item.X, Y: item.Y})
	if err != nil {
		return nil, err
	}
	return &MoveResult{Item: placed, TargetContainerID: ref.ID(), TargetCreated: created, Touched: []EntityRef{owner}}, nil
}

// ItemPatch carries editable fields. Nil fields are left untouched.
type ItemPatch struct {
	Content *string
	Color   *string
}

// EditItem updates the content or colour of an item.
func (b *Board) EditItem(itemID string, patch ItemPatch) (models.Item, EntityRef, error) {
	loc, ok := b.locate(itemID)
	if !ok || loc.item().SoftDeleted {
		return models.Item{}, EntityRef{}, itemNotFound(itemID)
	}
	item := loc.item()
	if patch.Content != nil {
		item.Content = *patch.Content
	}
	if patch.Color != nil {
		item.Color = *patch.Color
	}
	return item.Clone(), loc.owner, nil
}

// DeleteItem soft-deletes an item and renumbers the remaining live items. A day cell
// left without live items is soft-deleted as well.
func (b *Board) DeleteItem(itemID string) (EntityRef, error) {
	loc, ok := b.locate(itemID)
	if !ok || loc.item().SoftDeleted {
		return EntityRef{}, itemNotFound(itemID)
	}
	loc.item().SoftDeleted = true
	loc.item().Editable = false
	RenumberAll(*loc.list)
	if loc.ref.Kind == models.ContainerKindDay {
		cell := b.Days[loc.ref.ID()]
		if liveCount(cell.Items) == 0 {
			cell.SoftDeleted = true
		}
	}
	return loc.owner, nil
}

// SelectItem raises an item to the front of its container and marks it editable. It
// reports whether the stacking order changed.
func (b *Board) SelectItem(itemID string) (bool, EntityRef, error) {
	loc, ok := b.locate(itemID)
	if !ok || loc.item().SoftDeleted {
		return false, EntityRef{}, itemNotFound(itemID)
	}
	list := *loc.list
	for i := range list {
		list[i].Editable = list[i].ID == itemID
	}
	return BringToFront(list, itemID), loc.owner, nil
}
