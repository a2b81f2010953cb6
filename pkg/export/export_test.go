package export

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = Dataset{
	Headers: []string{"date", "content"},
	Rows: []map[string]string{
		{"date": "2024-05-03", "content": "groceries, milk"},
		{"date": "2024-05-04"},
	},
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sample)
	require.NoError(t, err)
	assert.Equal(t, "date,content\n2024-05-03,\"groceries, milk\"\n2024-05-04,\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sample, "May 2024")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidthsFillThePage(t *testing.T) {
	records, err := sample.Records()
	require.NoError(t, err)
	widths := columnWidths(sample.Headers, records)
	require.Len(t, widths, 2)
	assert.InDelta(t, pdfPageWidth, widths[0]+widths[1], 0.001)
	assert.Greater(t, widths[1], widths[0])
}

func TestICSExporterRender(t *testing.T) {
	exporter := NewICSExporter()
	exporter.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	out, err := exporter.Render("Family", []CalendarEvent{{
		UID:         "ev-1@planboard",
		Summary:     "trip",
		Description: "Ana",
		Start:       time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(bytes.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "trip", events[0].GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "20240502", events[0].GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20240505", events[0].GetProperty(ical.ComponentPropertyDtEnd).Value)
}

func TestICSExporterRejectsInvertedEvent(t *testing.T) {
	_, err := NewICSExporter().Render("", []CalendarEvent{{
		UID:   "x",
		Start: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	}})
	assert.Error(t, err)
}
