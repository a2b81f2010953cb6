package board

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

func sequentialIDs() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestBoard() *Board {
	b := New("cal-1", sequentialIDs())
	b.Days[models.DayCellID(3, 5, 2024)] = &models.DayCell{
		ID: "cell-3", Day: 3, Month: 5, Year: 2024,
		Items: []models.Item{
			{ID: "n1", ContentType: models.ContentTypeNote, Order: 0},
			{ID: "n2", ContentType: models.ContentTypeNote, Order: 1},
		},
	}
	b.Days[models.DayCellID(4, 5, 2024)] = &models.DayCell{
		ID: "cell-4", Day: 4, Month: 5, Year: 2024,
		Items: []models.Item{
			{ID: "n3", ContentType: models.ContentTypeNote, Order: 0},
			{ID: "g1", ContentType: models.ContentTypeGroup, Order: 1, Children: []models.Item{
				{ID: "c1", ContentType: models.ContentTypeText, Order: 0},
			}},
		},
	}
	return b
}

func TestMoveItemBetweenDayCells(t *testing.T) {
	b := newTestBoard()

	res, err := b.MoveItem(MoveRequest{
		ItemID:            "n1",
		SourceContainerID: models.DayCellID(3, 5, 2024),
		TargetContainerID: models.DayCellID(4, 5, 2024),
		Offset:            models.Point{X: 25, Y: 75},
	})
	require.NoError(t, err)

	source := b.Days[models.DayCellID(3, 5, 2024)]
	target := b.Days[models.DayCellID(4, 5, 2024)]
	require.Len(t, source.Items, 1)
	assert.Equal(t, "n2", source.Items[0].ID)
	assert.Equal(t, 0, source.Items[0].Order)
	assert.False(t, source.SoftDeleted)

	require.Len(t, target.Items, 3)
	assert.Equal(t, 2, orderOf(target.Items, "n1"))
	assertDense(t, target.Items)
	assert.Equal(t, 25.0, res.Item.X)
	assert.Equal(t, 75.0, res.Item.Y)
	assert.Equal(t, "n1", res.Item.ID)
	assert.ElementsMatch(t, []EntityRef{
		{Type: models.EntityTypeDay, Key: models.DayCellID(3, 5, 2024)},
		{Type: models.EntityTypeDay, Key: models.DayCellID(4, 5, 2024)},
	}, res.Touched)
}

func TestMoveItemSoftDeletesEmptiedDayCell(t *testing.T) {
	b := newTestBoard()
	_, err := b.MoveItem(MoveRequest{ItemID: "n1", TargetContainerID: models.DayCellID(10, 5, 2024)})
	require.NoError(t, err)
	res, err := b.MoveItem(MoveRequest{ItemID: "n2", TargetContainerID: models.DayCellID(10, 5, 2024)})
	require.NoError(t, err)

	assert.True(t, res.SourceSoftDeleted)
	assert.True(t, b.Days[models.DayCellID(3, 5, 2024)].SoftDeleted)
	created := b.Days[models.DayCellID(10, 5, 2024)]
	require.NotNil(t, created)
	assert.Len(t, created.Items, 2)
	assertDense(t, created.Items)
}

func TestMoveItemCreatesMissingScheduleSection(t *testing.T) {
	b := newTestBoard()
	target := models.ScheduleSectionID(2024, 19, 2, models.SectionEvening)

	res, err := b.MoveItem(MoveRequest{ItemID: "n3", TargetContainerID: target})
	require.NoError(t, err)
	assert.True(t, res.TargetCreated)

	sched := b.Schedules[models.ScheduleKey(2024, 19)]
	require.NotNil(t, sched)
	day := sched.Day(2)
	require.NotNil(t, day)
	require.Len(t, day.Evening.Items, 1)
	assert.Equal(t, "n3", day.Evening.Items[0].ID)
}

func TestMoveItemOutOfScheduleDoesNotSoftDeleteDay(t *testing.T) {
	b := newTestBoard()
	section := models.ScheduleSectionID(2024, 19, 2, models.SectionMorning)
	_, err := b.MoveItem(MoveRequest{ItemID: "n3", TargetContainerID: section})
	require.NoError(t, err)

	_, err = b.MoveItem(MoveRequest{ItemID: "n3", TargetContainerID: models.DayCellID(3, 5, 2024)})
	require.NoError(t, err)

	sched := b.Schedules[models.ScheduleKey(2024, 19)]
	require.NotNil(t, sched.Day(2))
	assert.False(t, sched.Day(2).SoftDeleted)
	assert.False(t, sched.SoftDeleted)
}

func TestMoveItemFromPaletteClonesWithNewID(t *testing.T) {
	b := newTestBoard()
	before := Palette()

	first, err := b.MoveItem(MoveRequest{ItemID: PaletteEntryID(models.ContentTypeNote), SourceContainerID: models.PaletteContainerID, TargetContainerID: models.DayCellID(3, 5, 2024)})
	require.NoError(t, err)
	second, err := b.MoveItem(MoveRequest{ItemID: PaletteEntryID(models.ContentTypeNote), SourceContainerID: models.PaletteContainerID, TargetContainerID: models.DayCellID(3, 5, 2024)})
	require.NoError(t, err)

	assert.NotEqual(t, first.Item.ID, second.Item.ID)
	assert.NotEqual(t, PaletteEntryID(models.ContentTypeNote), first.Item.ID)
	assert.Equal(t, before, Palette())
	assert.Len(t, b.Days[models.DayCellID(3, 5, 2024)].Items, 4)
	assert.Equal(t, 3, orderOf(b.Days[models.DayCellID(3, 5, 2024)].Items, second.Item.ID))
}

func TestMoveEventPrototypeCreatesSingleDayEvent(t *testing.T) {
	b := newTestBoard()

	res, err := b.MoveItem(MoveRequest{ItemID: PaletteEntryID(models.ContentTypeEvent), TargetContainerID: models.DayCellID(12, 5, 2024)})
	require.NoError(t, err)

	require.NotNil(t, res.Item.Span)
	assert.Equal(t, models.EventSpan{StartDay: 12, SpanDays: 1, Month: 5, Year: 2024}, *res.Item.Span)
	assert.Equal(t, models.EventListID(5, 2024), res.TargetContainerID)
	_, ok := b.Days[models.DayCellID(12, 5, 2024)]
	assert.False(t, ok, "events do not materialise day cells")
}

func TestMoveItemIntoGroup(t *testing.T) {
	b := newTestBoard()

	res, err := b.MoveItem(MoveRequest{ItemID: "n1", TargetContainerID: models.GroupContainerID("g1")})
	require.NoError(t, err)

	group := b.Days[models.DayCellID(4, 5, 2024)].Items[1]
	require.Len(t, group.Children, 2)
	assert.Equal(t, 1, orderOf(group.Children, "n1"))
	assert.Contains(t, res.Touched, EntityRef{Type: models.EntityTypeDay, Key: models.DayCellID(4, 5, 2024)})
}

func TestMoveGroupIntoGroupIsRejected(t *testing.T) {
	b := newTestBoard()
	b.Days[models.DayCellID(3, 5, 2024)].Items = append(b.Days[models.DayCellID(3, 5, 2024)].Items,
		models.Item{ID: "g2", ContentType: models.ContentTypeGroup, Order: 2})
	snapshot := b.Clone()

	_, err := b.MoveItem(MoveRequest{ItemID: "g2", TargetContainerID: models.GroupContainerID("g1")})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidPlacement)
	assert.Equal(t, snapshot.Days, b.Days)
}

func TestMoveItemUnknownIDFailsFast(t *testing.T) {
	b := newTestBoard()
	_, err := b.MoveItem(MoveRequest{ItemID: "missing", TargetContainerID: models.DayCellID(3, 5, 2024)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrItemNotFound.Code, appErrors.FromError(err).Code)
}

func TestMoveItemInvalidTargetLeavesSourceUntouched(t *testing.T) {
	b := newTestBoard()
	snapshot := b.Clone()

	_, err := b.MoveItem(MoveRequest{ItemID: "n1", TargetContainerID: models.TemplateSectionID("nope", 1, models.SectionMorning)})
	require.Error(t, err)
	assert.Equal(t, snapshot.Days, b.Days)
}

func TestMoveItemClampsOffset(t *testing.T) {
	b := newTestBoard()
	res, err := b.MoveItem(MoveRequest{ItemID: "n1", TargetContainerID: models.DayCellID(4, 5, 2024), Offset: models.Point{X: -5, Y: 140}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Item.X)
	assert.Equal(t, 100.0, res.Item.Y)
}

func TestMoveItemWithoutOffsetLandsInCentre(t *testing.T) {
	b := newTestBoard()
	res, err := b.MoveItem(MoveRequest{ItemID: "n1", TargetContainerID: models.DayCellID(4, 5, 2024)})
	require.NoError(t, err)
	assert.Equal(t, models.CenterPercent, res.Item.X)
	assert.Equal(t, models.CenterPercent, res.Item.Y)

	res, err = b.AddItem(models.DayCellID(5, 5, 2024), models.NewNote("", "placed", ""))
	require.NoError(t, err)
	assert.Equal(t, models.CenterPercent, res.Item.X)

	res, err = b.MoveItem(MoveRequest{ItemID: "n2", TargetContainerID: models.DayCellID(4, 5, 2024), Offset: models.Point{X: 0, Y: 10}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Item.X)
	assert.Equal(t, 10.0, res.Item.Y)
}

func TestDeleteItemRenumbersAndSoftDeletesCell(t *testing.T) {
	b := newTestBoard()

	_, err := b.DeleteItem("n1")
	require.NoError(t, err)
	cell := b.Days[models.DayCellID(3, 5, 2024)]
	assert.False(t, cell.SoftDeleted)
	assert.Equal(t, 0, orderOf(cell.Items, "n2"))

	_, err = b.DeleteItem("n2")
	require.NoError(t, err)
	assert.True(t, cell.SoftDeleted)

	_, err = b.DeleteItem("n2")
	assert.ErrorIs(t, err, appErrors.ErrItemNotFound)
}

func TestSelectItemMarksEditable(t *testing.T) {
	b := newTestBoard()

	changed, owner, err := b.SelectItem("n1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.EntityTypeDay, owner.Type)
	cell := b.Days[models.DayCellID(3, 5, 2024)]
	assert.True(t, cell.Items[0].Editable)
	assert.False(t, cell.Items[1].Editable)
	assert.Equal(t, 1, orderOf(cell.Items, "n1"))

	changed, _, err = b.SelectItem("n1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestAddItemRoutesEventsToEventList(t *testing.T) {
	b := newTestBoard()
	event, err := models.NewEvent("", "Trip", 28, 10, 2, 2023)
	require.NoError(t, err)

	res, err := b.AddItem("", event)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Item.Span.SpanDays, "february 2023 has 28 days")
	assert.Equal(t, models.EventListID(2, 2023), res.TargetContainerID)
}
