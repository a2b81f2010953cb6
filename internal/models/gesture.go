package models

// DragAction is the gesture performed on an item.
type DragAction string

const (
	DragActionMove   DragAction = "move"
	DragActionResize DragAction = "resize"
	// DragActionAssign attaches a person tag to an item or event.
	DragActionAssign DragAction = "assign"
)

// DragPhase is the lifecycle stage of a drag gesture.
type DragPhase string

const (
	DragPhaseStart  DragPhase = "start"
	DragPhaseOver   DragPhase = "over"
	DragPhaseEnd    DragPhase = "end"
	DragPhaseCancel DragPhase = "cancel"
)

// DragKind distinguishes item drags from person-tag drags.
type DragKind string

const (
	DragKindItem   DragKind = "item"
	DragKindPerson DragKind = "person"
)

// Point is a position, either in screen pixels or 0-100 percentages.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Area returns the rectangle area.
func (r Rect) Area() float64 { return r.Width * r.Height }

// Center returns the centre point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Intersection returns the overlapping area of two rectangles.
func (r Rect) Intersection(o Rect) float64 {
	left := max(r.X, o.X)
	right := min(r.Right(), o.Right())
	top := max(r.Y, o.Y)
	bottom := min(r.Bottom(), o.Bottom())
	if right <= left || bottom <= top {
		return 0
	}
	return (right - left) * (bottom - top)
}

// Intersects reports whether the rectangles overlap.
func (r Rect) Intersects(o Rect) bool { return r.Intersection(o) > 0 }

// DropCandidate is a droppable region reported by the gesture layer.
type DropCandidate struct {
	ID   string        `json:"id"`
	Kind ContainerKind `json:"kind"`
	Rect Rect          `json:"rect"`
	// ItemID is set when the candidate is an item or event rather than a container.
	ItemID   string          `json:"item_id,omitempty"`
	Selected bool            `json:"selected,omitempty"`
	Children []DropCandidate `json:"children,omitempty"`
}

// DragIntent is emitted by the gesture layer on drag end.
type DragIntent struct {
	ItemID              string        `json:"item_id"`
	Kind                DragKind      `json:"kind"`
	SourceContainerID   string        `json:"source_container_id"`
	SourceContainerType ContainerKind `json:"source_container_type"`
	TargetContainerID   string        `json:"target_container_id"`
	// TargetItemID is the item a person tag is dropped on.
	TargetItemID  string     `json:"target_item_id,omitempty"`
	Action        DragAction `json:"action"`
	PointerOffset Point      `json:"pointer_offset"`
	// OverDay, IsStartHandle and IsEndHandle drive event bar move/resize.
	OverDay       int  `json:"over_day,omitempty"`
	IsStartHandle bool `json:"is_start_handle,omitempty"`
	IsEndHandle   bool `json:"is_end_handle,omitempty"`
}
