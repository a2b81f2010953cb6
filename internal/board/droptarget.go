package board

import (
	"math"

	"github.com/noah-isme/planboard-api/internal/models"
)

// ResolveRequest is the collision input of one pointer sample.
type ResolveRequest struct {
	Kind        models.DragKind
	ItemID      string
	Pointer     models.Point
	PointerRect models.Rect
	Candidates  []models.DropCandidate
}

// Resolution is the authoritative destination picked for a drop.
type Resolution struct {
	ContainerID string               `json:"container_id"`
	Kind        models.ContainerKind `json:"kind"`
	// OverItemID is the child slot inside a populated group, or the item a person tag lands on.
	OverItemID string `json:"over_item_id,omitempty"`
	// Fallback is set when the last known target was reused.
	Fallback bool `json:"fallback,omitempty"`
}

// Resolver picks drop targets for one drag gesture and remembers the last valid one.
type Resolver struct {
	last *Resolution
}

// Reset forgets the last valid target. Call it when a gesture ends.
func (r *Resolver) Reset() { r.last = nil }

// Last returns the last valid target, if any.
func (r *Resolver) Last() (Resolution, bool) {
	if r.last == nil {
		return Resolution{}, false
	}
	return *r.last, true
}

// Resolve applies the collision policy: palette and selected-group overlays win
// outright, then pointer containment, then rectangle overlap. Populated groups are
// resolved down to their closest child. When nothing matches the previous target
// is reused so transient reflows do not drop the gesture.
func (r *Resolver) Resolve(req ResolveRequest) (Resolution, bool) {
	var (
		res   Resolution
		found bool
	)
	if req.Kind == models.DragKindPerson {
		res, found = resolvePerson(req)
	} else {
		res, found = resolveItem(req)
	}
	if found {
		r.last = &res
		return res, true
	}
	if r.last != nil {
		fallback := *r.last
		fallback.Fallback = true
		return fallback, true
	}
	return Resolution{}, false
}

func resolveItem(req ResolveRequest) (Resolution, bool) {
	var priority, rest []models.DropCandidate
	for _, c := range req.Candidates {
		if isSelf(c, req.ItemID) || !isContainer(c) {
			continue
		}
		if c.Kind == models.ContainerKindPalette || (c.Kind == models.ContainerKindGroup && c.Selected) {
			priority = append(priority, c)
			continue
		}
		rest = append(rest, c)
	}

	if winner, ok := overlapWinner(priority, req); ok {
		return finish(winner, req), true
	}
	if winner, ok := pointerWithin(rest, req.Pointer); ok {
		return finish(winner, req), true
	}
	if winner, ok := rectIntersection(rest, req.PointerRect); ok {
		return finish(winner, req), true
	}
	return Resolution{}, false
}

// people tags attach to items directly, so groups are looked through.
func resolvePerson(req ResolveRequest) (Resolution, bool) {
	var targets []models.DropCandidate
	var collect func([]models.DropCandidate)
	collect = func(list []models.DropCandidate) {
		for _, c := range list {
			if c.Kind == models.ContainerKindGroup {
				collect(c.Children)
				continue
			}
			if c.ItemID != "" {
				targets = append(targets, c)
			}
			collect(c.Children)
		}
	}
	collect(req.Candidates)

	winner, ok := pointerWithin(targets, req.Pointer)
	if !ok {
		winner, ok = rectIntersection(targets, req.PointerRect)
	}
	if !ok {
		return Resolution{}, false
	}
	return Resolution{ContainerID: winner.ID, Kind: winner.Kind, OverItemID: winner.ItemID}, true
}

func finish(winner models.DropCandidate, req ResolveRequest) Resolution {
	res := Resolution{ContainerID: winner.ID, Kind: winner.Kind}
	if winner.Kind != models.ContainerKindGroup {
		return res
	}
	var children []models.DropCandidate
	for _, child := range winner.Children {
		if !isSelf(child, req.ItemID) {
			children = append(children, child)
		}
	}
	if child, ok := closestCenter(children, req.Pointer); ok {
		res.OverItemID = child.ItemID
		if res.OverItemID == "" {
			res.OverItemID = child.ID
		}
	}
	return res
}

func isSelf(c models.DropCandidate, itemID string) bool {
	if itemID == "" {
		return false
	}
	return c.ItemID == itemID || c.ID == itemID || c.ID == models.GroupContainerID(itemID)
}

func isContainer(c models.DropCandidate) bool {
	switch c.Kind {
	case models.ContainerKindDay, models.ContainerKindScheduleSection, models.ContainerKindTemplateSection,
		models.ContainerKindGroup, models.ContainerKindPalette:
		return true
	default:
		return false
	}
}

func overlapWinner(list []models.DropCandidate, req ResolveRequest) (models.DropCandidate, bool) {
	if winner, ok := pointerWithin(list, req.Pointer); ok {
		return winner, true
	}
	return rectIntersection(list, req.PointerRect)
}

// pointerWithin returns the smallest candidate containing the pointer.
func pointerWithin(list []models.DropCandidate, p models.Point) (models.DropCandidate, bool) {
	var best models.DropCandidate
	found := false
	for _, c := range list {
		if !c.Rect.Contains(p) {
			continue
		}
		if !found || c.Rect.Area() < best.Rect.Area() {
			best = c
			found = true
		}
	}
	return best, found
}

// rectIntersection returns the candidate with the highest intersection ratio.
func rectIntersection(list []models.DropCandidate, rect models.Rect) (models.DropCandidate, bool) {
	var best models.DropCandidate
	bestRatio := 0.0
	for _, c := range list {
		inter := c.Rect.Intersection(rect)
		if inter <= 0 {
			continue
		}
		ratio := inter / (c.Rect.Area() + rect.Area() - inter)
		if ratio > bestRatio {
			best = c
			bestRatio = ratio
		}
	}
	return best, bestRatio > 0
}

func closestCenter(list []models.DropCandidate, p models.Point) (models.DropCandidate, bool) {
	var best models.DropCandidate
	bestDist := math.Inf(1)
	for _, c := range list {
		center := c.Rect.Center()
		dist := math.Hypot(center.X-p.X, center.Y-p.Y)
		if dist < bestDist {
			best = c
			bestDist = dist
		}
	}
	return best, !math.IsInf(bestDist, 1)
}
