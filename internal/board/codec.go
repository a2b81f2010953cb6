package board

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/noah-isme/planboard-api/internal/models"
)

// Encode serialises the top-level entities of a collection. Soft-deleted items nested
// inside a container are dropped from its payload; soft-deleted top-level entities are
// returned flagged so the sync pass deletes them upstream. Selection flags are cleared.
func (b *Board) Encode(collection models.Collection) ([]models.Entity, error) {
	var out []models.Entity
	add := func(id string, typ models.EntityType, softDeleted bool, payload interface{}) error {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", typ, id, err)
		}
		out = append(out, models.Entity{ID: id, CalendarID: b.CalendarID, Type: typ, Payload: raw, SoftDeleted: softDeleted})
		return nil
	}

	switch collection {
	case models.CollectionCalendar:
		for _, key := range sortedKeys(b.Days) {
			cell := b.Days[key].Clone()
			cell.Items = liveItems(cell.Items)
			if err := add(cell.ID, models.EntityTypeDay, cell.SoftDeleted, cell); err != nil {
				return nil, err
			}
		}
		for _, key := range sortedKeys(b.Events) {
			for _, event := range b.Events[key].Items {
				event.Editable = false
				if err := add(event.ID, models.EntityTypeEvent, event.SoftDeleted, event); err != nil {
					return nil, err
				}
			}
		}
	case models.CollectionPeople:
		for _, person := range b.People {
			if err := add(person.ID, models.EntityTypePeople, person.SoftDeleted, person); err != nil {
				return nil, err
			}
		}
	case models.CollectionSchedule:
		for _, key := range sortedKeys(b.Schedules) {
			sched := b.Schedules[key].Clone()
			sched.Days = liveDays(sched.Days)
			if err := add(sched.ID, models.EntityTypeSchedule, sched.SoftDeleted, sched); err != nil {
				return nil, err
			}
		}
	case models.CollectionTemplate:
		for _, key := range sortedKeys(b.Templates) {
			tmpl := b.Templates[key].Clone()
			tmpl.Days = liveDays(tmpl.Days)
			if err := add(tmpl.ID, models.EntityTypeTemplate, tmpl.SoftDeleted, tmpl); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	return out, nil
}

// Replace swaps a collection's local state for the canonical entities returned by
// persistence.
func (b *Board) Replace(collection models.Collection, entities []models.Entity) error {
	switch collection {
	case models.CollectionCalendar:
		days := make(map[string]*models.DayCell)
		events := make(map[string]*EventList)
		for _, entity := range entities {
			switch entity.Type {
			case models.EntityTypeDay:
				var cell models.DayCell
				if err := json.Unmarshal(entity.Payload, &cell); err != nil {
					return fmt.Errorf("decode day %s: %w", entity.ID, err)
				}
				cell.ID = entity.ID
				if cell.Items == nil {
					cell.Items = []models.Item{}
				}
				RenumberAll(cell.Items)
				days[cell.Key()] = &cell
			case models.EntityTypeEvent:
				var event models.Item
				if err := json.Unmarshal(entity.Payload, &event); err != nil {
					return fmt.Errorf("decode event %s: %w", entity.ID, err)
				}
				event.ID = entity.ID
				if event.Span == nil {
					return fmt.Errorf("decode event %s: missing span", entity.ID)
				}
				key := models.EventListID(event.Span.Month, event.Span.Year)
				list, ok := events[key]
				if !ok {
					list = &EventList{Month: event.Span.Month, Year: event.Span.Year, Items: []models.Item{}}
					events[key] = list
				}
				list.Items = append(list.Items, event)
			}
		}
		for _, list := range events {
			RenumberAll(list.Items)
		}
		b.Days = days
		b.Events = events
	case models.CollectionPeople:
		people := make([]models.Person, 0, len(entities))
		for _, entity := range entities {
			var person models.Person
			if err := json.Unmarshal(entity.Payload, &person); err != nil {
				return fmt.Errorf("decode person %s: %w", entity.ID, err)
			}
			person.ID = entity.ID
			people = append(people, person)
		}
		sort.SliceStable(people, func(i, j int) bool { return people[i].Name < people[j].Name })
		b.People = people
	case models.CollectionSchedule:
		schedules := make(map[string]*models.Schedule)
		for _, entity := range entities {
			var sched models.Schedule
			if err := json.Unmarshal(entity.Payload, &sched); err != nil {
				return fmt.Errorf("decode schedule %s: %w", entity.ID, err)
			}
			sched.ID = entity.ID
			normalizeDays(sched.Days)
			schedules[sched.Key()] = &sched
		}
		b.Schedules = schedules
	case models.CollectionTemplate:
		templates := make(map[string]*models.Template)
		for _, entity := range entities {
			var tmpl models.Template
			if err := json.Unmarshal(entity.Payload, &tmpl); err != nil {
				return fmt.Errorf("decode template %s: %w", entity.ID, err)
			}
			tmpl.ID = entity.ID
			normalizeDays(tmpl.Days)
			templates[tmpl.ID] = &tmpl
		}
		b.Templates = templates
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}
	return nil
}

func liveItems(items []models.Item) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		if item.SoftDeleted {
			continue
		}
		// selection is client state and is never persisted
		item.Editable = false
		if item.Children != nil {
			item.Children = liveItems(item.Children)
		}
		out = append(out, item)
	}
	RenumberAll(out)
	return out
}

func liveDays(days []models.ScheduleDay) []models.ScheduleDay {
	out := make([]models.ScheduleDay, 0, len(days))
	for _, day := range days {
		if day.SoftDeleted {
			continue
		}
		for _, name := range models.SectionNames {
			section := day.Section(name)
			section.Items = liveItems(section.Items)
		}
		out = append(out, day)
	}
	return out
}

func normalizeDays(days []models.ScheduleDay) {
	for d := range days {
		for _, name := range models.SectionNames {
			section := days[d].Section(name)
			section.Name = name
			if section.Items == nil {
				section.Items = []models.Item{}
			}
			RenumberAll(section.Items)
		}
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].DayOfWeek < days[j].DayOfWeek })
}
