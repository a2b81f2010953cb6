package board

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/models"
)

func TestEncodeCalendarFlagsSoftDeletedEntities(t *testing.T) {
	b := newTestBoard()
	_, err := b.AddItem("", mustEvent(t, "e1", 3, 2, 5, 2024))
	require.NoError(t, err)
	_, err = b.DeleteItem("n1")
	require.NoError(t, err)
	_, err = b.DeleteItem("n2")
	require.NoError(t, err)
	_, err = b.DeleteItem("n3")
	require.NoError(t, err)

	entities, err := b.Encode(models.CollectionCalendar)
	require.NoError(t, err)
	require.Len(t, entities, 3)

	byID := map[string]models.Entity{}
	for _, e := range entities {
		assert.Equal(t, "cal-1", e.CalendarID)
		byID[e.ID] = e
	}
	assert.True(t, byID["cell-3"].SoftDeleted)
	assert.False(t, byID["cell-4"].SoftDeleted)
	assert.Equal(t, models.EntityTypeEvent, byID["e1"].Type)

	var cell models.DayCell
	require.NoError(t, json.Unmarshal(byID["cell-4"].Payload, &cell))
	require.Len(t, cell.Items, 1, "soft-deleted items are stripped from the payload")
	assert.Equal(t, "g1", cell.Items[0].ID)
	assert.Equal(t, 0, cell.Items[0].Order)
}

func TestEncodeLeavesSelectionOutOfPayloads(t *testing.T) {
	b := newTestBoard()
	_, _, err := b.SelectItem("n1")
	require.NoError(t, err)

	view, err := json.Marshal(b.Days[models.DayCellID(3, 5, 2024)])
	require.NoError(t, err)
	assert.Contains(t, string(view), `"editable":true`)

	entities, err := b.Encode(models.CollectionCalendar)
	require.NoError(t, err)
	for _, e := range entities {
		assert.NotContains(t, string(e.Payload), `"editable"`, e.ID)
	}
	assert.True(t, b.Days[models.DayCellID(3, 5, 2024)].Items[0].Editable, "encoding leaves the board untouched")
}

func TestReplaceRoundTrip(t *testing.T) {
	src := newTestBoard()
	_, err := src.AddItem("", mustEvent(t, "e1", 3, 2, 5, 2024))
	require.NoError(t, err)
	_, err = src.AddPerson("Ana", "#f00")
	require.NoError(t, err)
	tmpl, err := src.CreateTemplate("Week")
	require.NoError(t, err)
	_, err = src.AddItem(models.TemplateSectionID(tmpl.ID, 2, models.SectionEvening), models.NewNote("t1", "Dinner", ""))
	require.NoError(t, err)
	_, _, err = src.ApplyTemplate(tmpl.ID, 2024, 10)
	require.NoError(t, err)

	dst := New("cal-1", sequentialIDs())
	for _, collection := range models.Collections {
		entities, err := src.Encode(collection)
		require.NoError(t, err)
		require.NoError(t, dst.Replace(collection, entities))
	}

	assert.Equal(t, src.Days, dst.Days)
	assert.Equal(t, src.Events, dst.Events)
	assert.Equal(t, src.Schedules, dst.Schedules)
	assert.Equal(t, src.Templates, dst.Templates)
	assert.Equal(t, src.People, dst.People)
}

func TestReplaceRejectsEventWithoutSpan(t *testing.T) {
	b := New("cal-1", nil)
	err := b.Replace(models.CollectionCalendar, []models.Entity{
		{ID: "e1", Type: models.EntityTypeEvent, Payload: []byte(`{"content_type":"event"}`)},
	})
	assert.Error(t, err)
}

func TestReplaceCompactsOrders(t *testing.T) {
	b := New("cal-1", nil)
	payload := `{"day":1,"month":5,"year":2024,"items":[{"id":"a","content_type":"note","order":9},{"id":"b","content_type":"note","order":4}]}`
	require.NoError(t, b.Replace(models.CollectionCalendar, []models.Entity{
		{ID: "cell", Type: models.EntityTypeDay, Payload: []byte(payload)},
	}))

	cell := b.Days[models.DayCellID(1, 5, 2024)]
	require.NotNil(t, cell)
	assert.Equal(t, "cell", cell.ID)
	assert.Equal(t, 1, orderOf(cell.Items, "a"))
	assert.Equal(t, 0, orderOf(cell.Items, "b"))
}
