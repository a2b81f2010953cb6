// Package board holds the placement, layering and reconciliation engine of the
// planning board. Everything here is synchronous and operates on an explicit
// Board snapshot owned by the caller.
package board

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// IDFunc generates fresh entity ids.
type IDFunc func() string

// NewID returns a random UUID string.
func NewID() string { return uuid.NewString() }

// EventList is the layered list of event bars of one month.
type EventList struct {
	Month int           `json:"month"`
	Year  int           `json:"year"`
	Items []models.Item `json:"items"`
}

// Key returns the container id of the list.
func (l *EventList) Key() string { return models.EventListID(l.Month, l.Year) }

// EntityRef points at the top-level persisted entity owning a container.
type EntityRef struct {
	Type models.EntityType `json:"type"`
	Key  string            `json:"key"`
}

// Collection returns the collection the entity belongs to.
func (r EntityRef) Collection() models.Collection {
	switch r.Type {
	case models.EntityTypeDay, models.EntityTypeEvent:
		return models.CollectionCalendar
	case models.EntityTypePeople:
		return models.CollectionPeople
	case models.EntityTypeSchedule:
		return models.CollectionSchedule
	case models.EntityTypeTemplate:
		return models.CollectionTemplate
	default:
		return ""
	}
}

// Board is the in-memory snapshot of one calendar session.
type Board struct {
	CalendarID string                      `json:"calendar_id"`
	Days       map[string]*models.DayCell  `json:"days"`
	Events     map[string]*EventList       `json:"events"`
	Schedules  map[string]*models.Schedule `json:"schedules"`
	Templates  map[string]*models.Template `json:"templates"`
	People     []models.Person             `json:"people"`

	newID IDFunc
}

// New returns an empty board. A nil idFunc falls back to NewID.
func New(calendarID string, idFunc IDFunc) *Board {
	if idFunc == nil {
		idFunc = NewID
	}
	return &Board{
		CalendarID: calendarID,
		Days:       make(map[string]*models.DayCell),
		Events:     make(map[string]*EventList),
		Schedules:  make(map[string]*models.Schedule),
		Templates:  make(map[string]*models.Template),
		People:     []models.Person{},
		newID:      idFunc,
	}
}

// Clone deep copies the board so previews never touch the live snapshot.
func (b *Board) Clone() *Board {
	out := New(b.CalendarID, b.newID)
	for k, v := range b.Days {
		out.Days[k] = v.Clone()
	}
	for k, v := range b.Events {
		out.Events[k] = &EventList{Month: v.Month, Year: v.Year, Items: models.CloneItems(v.Items)}
	}
	for k, v := range b.Schedules {
		out.Schedules[k] = v.Clone()
	}
	for k, v := range b.Templates {
		out.Templates[k] = v.Clone()
	}
	out.People = append([]models.Person{}, b.People...)
	return out
}

// NextID exposes the board's id generator.
func (b *Board) NextID() string { return b.newID() }

// DaysInMonth returns the number of days of a month (1-12).
func DaysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// location is where an item currently lives.
type location struct {
	ref   models.ContainerRef
	owner EntityRef
	list  *[]models.Item
	index int
}

func (l *location) item() *models.Item { return &(*l.list)[l.index] }

// Locate returns a copy of the item and the id of its container.
func (b *Board) Locate(itemID string) (models.Item, string, error) {
	loc, ok := b.locate(itemID)
	if !ok {
		return models.Item{}, "", itemNotFound(itemID)
	}
	return loc.item().Clone(), loc.ref.ID(), nil
}

func itemNotFound(itemID string) error {
	return appErrors.Clone(appErrors.ErrItemNotFound, fmt.Sprintf("item %s not found", itemID))
}

func (b *Board) locate(itemID string) (*location, bool) {
	if itemID == "" {
		return nil, false
	}
	for _, key := range sortedKeys(b.Days) {
		cell := b.Days[key]
		owner := EntityRef{Type: models.EntityTypeDay, Key: key}
		ref := models.ContainerRef{Kind: models.ContainerKindDay, Day: cell.Day, Month: cell.Month, Year: cell.Year}
		if loc, ok := scan(&cell.Items, ref, owner, itemID); ok {
			return loc, true
		}
	}
	for _, key := range sortedKeys(b.Events) {
		list := b.Events[key]
		for i := range list.Items {
			if list.Items[i].ID == itemID {
				return &location{
					ref:   models.ContainerRef{Kind: models.ContainerKindEvents, Month: list.Month, Year: list.Year},
					owner: EntityRef{Type: models.EntityTypeEvent, Key: itemID},
					list:  &list.Items,
					index: i,
				}, true
			}
		}
	}
	for _, key := range sortedKeys(b.Schedules) {
		sched := b.Schedules[key]
		owner := EntityRef{Type: models.EntityTypeSchedule, Key: key}
		for d := range sched.Days {
			day := &sched.Days[d]
			for _, name := range models.SectionNames {
				ref := models.ContainerRef{Kind: models.ContainerKindScheduleSection, Year: sched.Year, Week: sched.Week, DayOfWeek: day.DayOfWeek, Section: name}
				if loc, ok := scan(&day.Section(name).Items, ref, owner, itemID); ok {
					return loc, true
				}
			}
		}
	}
	for _, key := range sortedKeys(b.Templates) {
		tmpl := b.Templates[key]
		owner := EntityRef{Type: models.EntityTypeTemplate, Key: key}
		for d := range tmpl.Days {
			day := &tmpl.Days[d]
			for _, name := range models.SectionNames {
				ref := models.ContainerRef{Kind: models.ContainerKindTemplateSection, OwnerID: tmpl.ID, DayOfWeek: day.DayOfWeek, Section: name}
				if loc, ok := scan(&day.Section(name).Items, ref, owner, itemID); ok {
					return loc, true
				}
			}
		}
	}
	return nil, false
}

func scan(list *[]models.Item, ref models.ContainerRef, owner EntityRef, itemID string) (*location, bool) {
	items := *list
	for i := range items {
		if items[i].ID == itemID {
			return &location{ref: ref, owner: owner, list: list, index: i}, true
		}
		if items[i].IsGroup() {
			groupRef := models.ContainerRef{Kind: models.ContainerKindGroup, OwnerID: items[i].ID}
			for c := range items[i].Children {
				if items[i].Children[c].ID == itemID {
					return &location{ref: groupRef, owner: owner, list: &items[i].Children, index: c}, true
				}
			}
		}
	}
	return nil, false
}

// target resolves a destination container, materialising days and schedules on demand.
func (b *Board) target(ref models.ContainerRef) (*[]models.Item, EntityRef, bool, error) {
	switch ref.Kind {
	case models.ContainerKindDay:
		if ref.Day > DaysInMonth(ref.Month, ref.Year) {
			return nil, EntityRef{}, false, appErrors.Clone(appErrors.ErrInvalidPlacement, "day outside of month")
		}
		key := ref.ID()
		cell, ok := b.Days[key]
		created := false
		if !ok {
			cell = &models.DayCell{ID: b.newID(), Day: ref.Day, Month: ref.Month, Year: ref.Year, Items: []models.Item{}}
			b.Days[key] = cell
			created = true
		}
		cell.SoftDeleted = false
		return &cell.Items, EntityRef{Type: models.EntityTypeDay, Key: key}, created, nil
	case models.ContainerKindScheduleSection:
		sched, created := b.ensureSchedule(ref.Year, ref.Week)
		day, dayCreated := ensureDay(&sched.Days, ref.DayOfWeek)
		sched.SoftDeleted = false
		day.SoftDeleted = false
		return &day.Section(ref.Section).Items, EntityRef{Type: models.EntityTypeSchedule, Key: sched.Key()}, created || dayCreated, nil
	case models.ContainerKindTemplateSection:
		tmpl, ok := b.Templates[ref.OwnerID]
		if !ok || tmpl.SoftDeleted {
			return nil, EntityRef{}, false, appErrors.Clone(appErrors.ErrContainerNotFound, fmt.Sprintf("template %s not found", ref.OwnerID))
		}
		day, created := ensureDay(&tmpl.Days, ref.DayOfWeek)
		day.SoftDeleted = false
		return &day.Section(ref.Section).Items, EntityRef{Type: models.EntityTypeTemplate, Key: tmpl.ID}, created, nil
	case models.ContainerKindGroup:
		loc, ok := b.locate(ref.OwnerID)
		if !ok || !loc.item().IsGroup() || loc.item().SoftDeleted {
			return nil, EntityRef{}, false, appErrors.Clone(appErrors.ErrContainerNotFound, fmt.Sprintf("group %s not found", ref.OwnerID))
		}
		group := loc.item()
		if group.Children == nil {
			group.Children = []models.Item{}
		}
		return &group.Children, loc.owner, false, nil
	default:
		return nil, EntityRef{}, false, appErrors.Clone(appErrors.ErrInvalidPlacement, fmt.Sprintf("%s is not a drop target", ref.Kind))
	}
}

func (b *Board) ensureSchedule(year, week int) (*models.Schedule, bool) {
	key := models.ScheduleKey(year, week)
	if sched, ok := b.Schedules[key]; ok {
		return sched, false
	}
	sched := &models.Schedule{ID: b.newID(), Year: year, Week: week, Days: []models.ScheduleDay{}}
	b.Schedules[key] = sched
	return sched, true
}

func ensureDay(days *[]models.ScheduleDay, dayOfWeek int) (*models.ScheduleDay, bool) {
	for i := range *days {
		if (*days)[i].DayOfWeek == dayOfWeek {
			return &(*days)[i], false
		}
	}
	*days = append(*days, models.NewScheduleDay(dayOfWeek))
	sort.SliceStable(*days, func(i, j int) bool { return (*days)[i].DayOfWeek < (*days)[j].DayOfWeek })
	for i := range *days {
		if (*days)[i].DayOfWeek == dayOfWeek {
			return &(*days)[i], true
		}
	}
	return nil, false
}

// eventList returns the month's event list, creating it when absent.
func (b *Board) eventList(month, year int) *EventList {
	key := models.EventListID(month, year)
	list, ok := b.Events[key]
	if !ok {
		list = &EventList{Month: month, Year: year, Items: []models.Item{}}
		b.Events[key] = list
	}
	return list
}

// Person returns the live person with the id.
func (b *Board) Person(personID string) (*models.Person, bool) {
	for i := range b.People {
		if b.People[i].ID == personID && !b.People[i].SoftDeleted {
			return &b.People[i], true
		}
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
