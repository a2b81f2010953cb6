package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/planboard-api/internal/board"
	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
	"github.com/noah-isme/planboard-api/pkg/export"
)

const (
	exportFormatCSV = "csv"
	exportFormatPDF = "pdf"
	exportFormatICS = "ics"
)

var monthExportHeaders = []string{"date", "kind", "content_type", "content", "color", "people"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, events []export.CalendarEvent) ([]byte, error)
}

// ExportResult is a rendered export ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the live items of a month as a table, or its events as
// an iCalendar feed.
type ExportService struct {
	sessions  *SessionStore
	validator *validator.Validate
	csv       csvRenderer
	pdf       pdfRenderer
	ics       icsRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the
// default CSV and PDF exporters.
func NewExportService(sessions *SessionStore, validate *validator.Validate, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{sessions: sessions, validator: validate, csv: csv, pdf: pdf, ics: export.NewICSExporter(), logger: logger}
}

// ExportMonth renders the optimistic state of a month, pending changes included.
func (s *ExportService) ExportMonth(ctx context.Context, calendarID string, req dto.ExportMonthRequest) (*ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	sess, err := s.sessions.get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	dataset, events := monthSnapshot(sess, req.Month, req.Year)

	format := req.Format
	if format == "" {
		format = exportFormatCSV
	}
	filename := fmt.Sprintf("planboard-%04d-%02d.%s", req.Year, req.Month, format)

	title := fmt.Sprintf("%s %d", time.Month(req.Month), req.Year)
	var (
		body        []byte
		contentType string
	)
	switch format {
	case exportFormatPDF:
		body, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	case exportFormatICS:
		body, err = s.ics.Render(title, events)
		contentType = "text/calendar"
	default:
		body, err = s.csv.Render(dataset)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("month exported",
		zap.String("calendar_id", calendarID),
		zap.String("format", format),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &ExportResult{Filename: filename, ContentType: contentType, Body: body}, nil
}

// monthDataset lists the month's events by start day, then every day cell's
// live items in stacking order. Group children follow their group.
func monthSnapshot(sess *boardSession, month, year int) (export.Dataset, []export.CalendarEvent) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return monthDataset(sess.board, month, year), monthEvents(sess.board, month, year)
}

func monthDataset(b *board.Board, month, year int) export.Dataset {
	data := export.Dataset{Headers: monthExportHeaders}
	row := func(date, kind string, item models.Item) map[string]string {
		return map[string]string{
			"date":         date,
			"kind":         kind,
			"content_type": string(item.ContentType),
			"content":      item.Content,
			"color":        item.Color,
			"people":       peopleNames(b, item),
		}
	}

	for _, event := range sortedEvents(b, month, year) {
		date := isoDate(year, month, event.Span.StartDay)
		if event.Span.SpanDays > 1 {
			date += "/" + isoDate(year, month, event.Span.EndDay())
		}
		data.Rows = append(data.Rows, row(date, "event", event))
	}

	for day := 1; day <= board.DaysInMonth(month, year); day++ {
		cell, ok := b.Days[models.DayCellID(day, month, year)]
		if !ok || cell.SoftDeleted {
			continue
		}
		date := isoDate(year, month, day)
		for _, item := range liveSorted(cell.Items) {
			data.Rows = append(data.Rows, row(date, "item", item))
			for _, child := range liveSorted(item.Children) {
				data.Rows = append(data.Rows, row(date, "grouped", child))
			}
		}
	}
	return data
}

// monthEvents converts the month's live event bars into all-day calendar entries.
func monthEvents(b *board.Board, month, year int) []export.CalendarEvent {
	events := sortedEvents(b, month, year)
	out := make([]export.CalendarEvent, 0, len(events))
	for _, event := range events {
		start := time.Date(year, time.Month(month), event.Span.StartDay, 0, 0, 0, 0, time.UTC)
		out = append(out, export.CalendarEvent{
			UID:         event.ID + "@planboard",
			Summary:     event.Content,
			Description: peopleNames(b, event),
			Start:       start,
			End:         start.AddDate(0, 0, event.Span.SpanDays-1),
		})
	}
	return out
}

func sortedEvents(b *board.Board, month, year int) []models.Item {
	list, ok := b.Events[models.EventListID(month, year)]
	if !ok {
		return nil
	}
	events := make([]models.Item, 0, len(list.Items))
	for _, item := range liveSorted(list.Items) {
		if item.Span != nil {
			events = append(events, item)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Span.StartDay < events[j].Span.StartDay })
	return events
}

func peopleNames(b *board.Board, item models.Item) string {
	names := make([]string, 0, len(item.AssignedPersonIDs))
	for _, id := range item.AssignedPersonIDs {
		if p, ok := b.Person(id); ok {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}

func liveSorted(items []models.Item) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		if !item.SoftDeleted {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func isoDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
