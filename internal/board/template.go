package board

import (
	"fmt"
	"strings"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// cloneWithNewIDs copies an item (and its group children) giving every copy a fresh id.
func cloneWithNewIDs(item models.Item, newID IDFunc) models.Item {
	out := item.Clone()
	out.ID = newID()
	out.Editable = false
	for i := range out.Children {
		out.Children[i].ID = newID()
		out.Children[i].Editable = false
	}
	return out
}

// MergeTemplate appends a clone of every live template item to the matching day and
// section of the schedule. Existing schedule items are never removed or overwritten.
// It returns the number of top-level items added.
func MergeTemplate(days []models.ScheduleDay, target *models.Schedule, newID IDFunc) int {
	added := 0
	for d := range days {
		src := &days[d]
		if src.SoftDeleted {
			continue
		}
		dst, _ := ensureDay(&target.Days, src.DayOfWeek)
		dst.SoftDeleted = false
		for _, name := range models.SectionNames {
			from := src.Section(name)
			to := dst.Section(name)
			base := frontOrder(to.Items)
			for _, idx := range liveIndexes(from.Items) {
				clone := cloneWithNewIDs(from.Items[idx], newID)
				clone.Order = base + from.Items[idx].Order
				to.Items = append(to.Items, clone)
				added++
			}
			RenumberAll(to.Items)
		}
	}
	return added
}

// ApplyTemplate merges a template into the schedule of the given ISO week, creating the
// schedule when it does not exist yet.
func (b *Board) ApplyTemplate(templateID string, year, week int) (int, EntityRef, error) {
	tmpl, ok := b.Templates[templateID]
	if !ok || tmpl.SoftDeleted {
		return 0, EntityRef{}, appErrors.Clone(appErrors.ErrContainerNotFound, fmt.Sprintf("template %s not found", templateID))
	}
	if week < 1 || week > 53 {
		return 0, EntityRef{}, appErrors.Clone(appErrors.ErrValidation, "week must be within 1-53")
	}
	sched, _ := b.ensureSchedule(year, week)
	sched.SoftDeleted = false
	added := MergeTemplate(tmpl.Days, sched, b.newID)
	return added, EntityRef{Type: models.EntityTypeSchedule, Key: sched.Key()}, nil
}

// CreateTemplate registers an empty template.
func (b *Board) CreateTemplate(name string) (*models.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "template name is required")
	}
	tmpl := &models.Template{ID: b.newID(), Name: name, Days: []models.ScheduleDay{}}
	b.Templates[tmpl.ID] = tmpl
	return tmpl.Clone(), nil
}
