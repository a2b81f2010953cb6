package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ContainerKind classifies anything able to hold an ordered item list.
type ContainerKind string

const (
	ContainerKindDay             ContainerKind = "day"
	ContainerKindScheduleSection ContainerKind = "schedule"
	ContainerKindTemplateSection ContainerKind = "template"
	ContainerKindGroup           ContainerKind = "group"
	ContainerKindPalette         ContainerKind = "palette"
	ContainerKindEvents          ContainerKind = "events"
)

// SectionName is one of the three parts of a schedule day.
type SectionName string

const (
	SectionMorning   SectionName = "morning"
	SectionAfternoon SectionName = "afternoon"
	SectionEvening   SectionName = "evening"
)

// SectionNames lists sections in display order.
var SectionNames = []SectionName{SectionMorning, SectionAfternoon, SectionEvening}

// Valid reports whether the section name is known.
func (s SectionName) Valid() bool {
	return s == SectionMorning || s == SectionAfternoon || s == SectionEvening
}

// PaletteContainerID addresses the creation palette.
const PaletteContainerID = "palette"

// ContainerRef is the parsed form of a container id.
type ContainerRef struct {
	Kind ContainerKind
	// Day, Month and Year address a day cell or an event list (Day unused).
	Day   int
	Month int
	Year  int
	// Week and DayOfWeek address a schedule section (Year shared with above).
	Week      int
	DayOfWeek int
	Section   SectionName
	// OwnerID is the template id or the group item id.
	OwnerID string
}

// ID renders the canonical container id.
func (r ContainerRef) ID() string {
	switch r.Kind {
	case ContainerKindDay:
		return DayCellID(r.Day, r.Month, r.Year)
	case ContainerKindScheduleSection:
		return ScheduleSectionID(r.Year, r.Week, r.DayOfWeek, r.Section)
	case ContainerKindTemplateSection:
		return TemplateSectionID(r.OwnerID, r.DayOfWeek, r.Section)
	case ContainerKindGroup:
		return GroupContainerID(r.OwnerID)
	case ContainerKindEvents:
		return EventListID(r.Month, r.Year)
	case ContainerKindPalette:
		return PaletteContainerID
	default:
		return ""
	}
}

// DayCellID renders the id of the day cell for a calendar date.
func DayCellID(day, month, year int) string {
	return fmt.Sprintf("day:%04d-%02d-%02d", year, month, day)
}

// EventListID renders the id of the event list for a month.
func EventListID(month, year int) string {
	return fmt.Sprintf("events:%04d-%02d", year, month)
}

// ScheduleSectionID renders the id of a section inside a weekly schedule.
func ScheduleSectionID(year, week, dayOfWeek int, section SectionName) string {
	return fmt.Sprintf("schedule:%04d-W%02d:%d:%s", year, week, dayOfWeek, section)
}

// TemplateSectionID renders the id of a section inside a template.
func TemplateSectionID(templateID string, dayOfWeek int, section SectionName) string {
	return fmt.Sprintf("template:%s:%d:%s", templateID, dayOfWeek, section)
}

// GroupContainerID renders the id of a group's child list.
func GroupContainerID(groupItemID string) string {
	return "group:" + groupItemID
}

// ParseContainerID classifies and validates a container id.
func ParseContainerID(id string) (ContainerRef, error) {
	if id == PaletteContainerID {
		return ContainerRef{Kind: ContainerKindPalette}, nil
	}
	kind, rest, ok := strings.Cut(id, ":")
	if !ok || rest == "" {
		return ContainerRef{}, fmt.Errorf("malformed container id %q", id)
	}
	switch ContainerKind(kind) {
	case ContainerKindDay:
		year, month, day, err := parseDate(rest)
		if err != nil {
			return ContainerRef{}, fmt.Errorf("container %q: %w", id, err)
		}
		return ContainerRef{Kind: ContainerKindDay, Day: day, Month: month, Year: year}, nil
	case ContainerKindEvents:
		parts := strings.Split(rest, "-")
		if len(parts) != 2 {
			return ContainerRef{}, fmt.Errorf("container %q: expected YYYY-MM", id)
		}
		year, err1 := strconv.Atoi(parts[0])
		month, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			return ContainerRef{}, fmt.Errorf("container %q: invalid month", id)
		}
		return ContainerRef{Kind: ContainerKindEvents, Month: month, Year: year}, nil
	case ContainerKindScheduleSection:
		parts := strings.Split(rest, ":")
		if len(parts) != 3 {
			return ContainerRef{}, fmt.Errorf("container %q: expected YYYY-Www:D:section", id)
		}
		yearStr, weekStr, found := strings.Cut(parts[0], "-W")
		if !found {
			return ContainerRef{}, fmt.Errorf("container %q: expected ISO week", id)
		}
		year, err1 := strconv.Atoi(yearStr)
		week, err2 := strconv.Atoi(weekStr)
		if err1 != nil || err2 != nil || week < 1 || week > 53 {
			return ContainerRef{}, fmt.Errorf("container %q: invalid week", id)
		}
		dow, section, err := parseDaySection(parts[1], parts[2])
		if err != nil {
			return ContainerRef{}, fmt.Errorf("container %q: %w", id, err)
		}
		return ContainerRef{Kind: ContainerKindScheduleSection, Year: year, Week: week, DayOfWeek: dow, Section: section}, nil
	case ContainerKindTemplateSection:
		parts := strings.Split(rest, ":")
		if len(parts) != 3 || parts[0] == "" {
			return ContainerRef{}, fmt.Errorf("container %q: expected id:D:section", id)
		}
		dow, section, err := parseDaySection(parts[1], parts[2])
		if err != nil {
			return ContainerRef{}, fmt.Errorf("container %q: %w", id, err)
		}
		return ContainerRef{Kind: ContainerKindTemplateSection, OwnerID: parts[0], DayOfWeek: dow, Section: section}, nil
	case ContainerKindGroup:
		return ContainerRef{Kind: ContainerKindGroup, OwnerID: rest}, nil
	default:
		return ContainerRef{}, fmt.Errorf("unknown container kind %q", kind)
	}
}

func parseDate(raw string) (year, month, day int, err error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected YYYY-MM-DD")
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year: %w", err)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month %q", parts[1])
	}
	day, err = strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("invalid day %q", parts[2])
	}
	return year, month, day, nil
}

func parseDaySection(dowRaw, sectionRaw string) (int, SectionName, error) {
	dow, err := strconv.Atoi(dowRaw)
	if err != nil || dow < 1 || dow > 7 {
		return 0, "", fmt.Errorf("invalid day of week %q", dowRaw)
	}
	section := SectionName(sectionRaw)
	if !section.Valid() {
		return 0, "", fmt.Errorf("invalid section %q", sectionRaw)
	}
	return dow, section, nil
}

// DayCell is one cell of the month grid.
type DayCell struct {
	ID          string `json:"id"`
	Day         int    `json:"day"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Items       []Item `json:"items"`
	SoftDeleted bool   `json:"soft_deleted,omitempty"`
}

// Key returns the container id of the cell.
func (d *DayCell) Key() string { return DayCellID(d.Day, d.Month, d.Year) }

// Clone deep copies the cell.
func (d *DayCell) Clone() *DayCell {
	out := *d
	out.Items = CloneItems(d.Items)
	return &out
}

// Section is one of morning/afternoon/evening within a schedule day.
type Section struct {
	Name  SectionName `json:"name"`
	Items []Item      `json:"items"`
}

// ScheduleDay holds the three sections of one day of the week.
type ScheduleDay struct {
	DayOfWeek   int     `json:"day_of_week"`
	Morning     Section `json:"morning"`
	Afternoon   Section `json:"afternoon"`
	Evening     Section `json:"evening"`
	SoftDeleted bool    `json:"soft_deleted,omitempty"`
}

// NewScheduleDay returns an empty day entry.
func NewScheduleDay(dayOfWeek int) ScheduleDay {
	return ScheduleDay{
		DayOfWeek: dayOfWeek,
		Morning:   Section{Name: SectionMorning, Items: []Item{}},
		Afternoon: Section{Name: SectionAfternoon, Items: []Item{}},
		Evening:   Section{Name: SectionEvening, Items: []Item{}},
	}
}

// Section returns the named section or nil.
func (d *ScheduleDay) Section(name SectionName) *Section {
	switch name {
	case SectionMorning:
		return &d.Morning
	case SectionAfternoon:
		return &d.Afternoon
	case SectionEvening:
		return &d.Evening
	default:
		return nil
	}
}

// Empty reports whether all three sections are empty.
func (d *ScheduleDay) Empty() bool {
	return len(d.Morning.Items) == 0 && len(d.Afternoon.Items) == 0 && len(d.Evening.Items) == 0
}

// Clone deep copies the day entry.
func (d ScheduleDay) Clone() ScheduleDay {
	out := d
	out.Morning.Items = CloneItems(d.Morning.Items)
	out.Afternoon.Items = CloneItems(d.Afternoon.Items)
	out.Evening.Items = CloneItems(d.Evening.Items)
	return out
}

func cloneDays(days []ScheduleDay) []ScheduleDay {
	if days == nil {
		return nil
	}
	out := make([]ScheduleDay, len(days))
	for i := range days {
		out[i] = days[i].Clone()
	}
	return out
}

func findDay(days []ScheduleDay, dayOfWeek int) *ScheduleDay {
	for i := range days {
		if days[i].DayOfWeek == dayOfWeek {
			return &days[i]
		}
	}
	return nil
}

// Schedule is a live weekly schedule keyed by ISO year and week.
type Schedule struct {
	ID          string        `json:"id"`
	Year        int           `json:"year"`
	Week        int           `json:"week"`
	Days        []ScheduleDay `json:"days"`
	SoftDeleted bool          `json:"soft_deleted,omitempty"`
}

// Key identifies the schedule inside a board.
func (s *Schedule) Key() string { return ScheduleKey(s.Year, s.Week) }

// Day returns the day entry or nil.
func (s *Schedule) Day(dayOfWeek int) *ScheduleDay { return findDay(s.Days, dayOfWeek) }

// Clone deep copies the schedule.
func (s *Schedule) Clone() *Schedule {
	out := *s
	out.Days = cloneDays(s.Days)
	return &out
}

// ScheduleKey renders the board key of a schedule.
func ScheduleKey(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Template is a reusable, undated weekly layout.
type Template struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Days        []ScheduleDay `json:"days"`
	SoftDeleted bool          `json:"soft_deleted,omitempty"`
}

// Day returns the day entry or nil.
func (t *Template) Day(dayOfWeek int) *ScheduleDay { return findDay(t.Days, dayOfWeek) }

// Clone deep copies the template.
func (t *Template) Clone() *Template {
	out := *t
	out.Days = cloneDays(t.Days)
	return &out
}

// Person can be tagged on items and events.
type Person struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	SoftDeleted bool   `json:"soft_deleted,omitempty"`
}
