package board

import (
	"fmt"
	"strings"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// AddPerson registers a person that can be tagged on items.
func (b *Board) AddPerson(name, color string) (models.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Person{}, appErrors.Clone(appErrors.ErrValidation, "person name is required")
	}
	person := models.Person{ID: b.newID(), Name: name, Color: color}
	b.People = append(b.People, person)
	return person, nil
}

// RemovePerson soft-deletes a person and strips their tag from every item.
func (b *Board) RemovePerson(personID string) ([]EntityRef, error) {
	person, ok := b.Person(personID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("person %s not found", personID))
	}
	person.SoftDeleted = true
	touched := touchSet{{Type: models.EntityTypePeople, Key: personID}}
	b.walk(func(owner EntityRef, item *models.Item) {
		if item.UnassignPerson(personID) {
			touched.add(owner)
		}
	})
	return touched, nil
}

// AssignPerson tags a person on an item or event.
func (b *Board) AssignPerson(itemID, personID string) (bool, EntityRef, error) {
	if _, ok := b.Person(personID); !ok {
		return false, EntityRef{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("person %s not found", personID))
	}
	loc, ok := b.locate(itemID)
	if !ok || loc.item().SoftDeleted {
		return false, EntityRef{}, itemNotFound(itemID)
	}
	if loc.item().IsGroup() {
		return false, EntityRef{}, appErrors.Clone(appErrors.ErrInvalidPlacement, "people are tagged on items, not groups")
	}
	return loc.item().AssignPerson(personID), loc.owner, nil
}

// UnassignPerson removes a person tag from an item.
func (b *Board) UnassignPerson(itemID, personID string) (bool, EntityRef, error) {
	loc, ok := b.locate(itemID)
	if !ok || loc.item().SoftDeleted {
		return false, EntityRef{}, itemNotFound(itemID)
	}
	return loc.item().UnassignPerson(personID), loc.owner, nil
}

// walk visits every item (including group children) with its owning entity.
func (b *Board) walk(fn func(owner EntityRef, item *models.Item)) {
	visit := func(owner EntityRef, items []models.Item) {
		for i := range items {
			fn(owner, &items[i])
			for c := range items[i].Children {
				fn(owner, &items[i].Children[c])
			}
		}
	}
	for key, cell := range b.Days {
		visit(EntityRef{Type: models.EntityTypeDay, Key: key}, cell.Items)
	}
	for _, list := range b.Events {
		for i := range list.Items {
			fn(EntityRef{Type: models.EntityTypeEvent, Key: list.Items[i].ID}, &list.Items[i])
		}
	}
	for key, sched := range b.Schedules {
		owner := EntityRef{Type: models.EntityTypeSchedule, Key: key}
		for d := range sched.Days {
			for _, name := range models.SectionNames {
				visit(owner, sched.Days[d].Section(name).Items)
			}
		}
	}
	for key, tmpl := range b.Templates {
		owner := EntityRef{Type: models.EntityTypeTemplate, Key: key}
		for d := range tmpl.Days {
			for _, name := range models.SectionNames {
				visit(owner, tmpl.Days[d].Section(name).Items)
			}
		}
	}
}
