package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

func TestRemovePersonStripsTags(t *testing.T) {
	b := newTestBoard()
	_, err := b.AddItem("", mustEvent(t, "e1", 1, 2, 5, 2024))
	require.NoError(t, err)
	person, err := b.AddPerson("Kai", "")
	require.NoError(t, err)

	for _, id := range []string{"n1", "c1", "e1"} {
		assigned, _, err := b.AssignPerson(id, person.ID)
		require.NoError(t, err)
		assert.True(t, assigned)
	}
	assigned, _, err := b.AssignPerson("n1", person.ID)
	require.NoError(t, err)
	assert.False(t, assigned, "tags are a set")

	touched, err := b.RemovePerson(person.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []EntityRef{
		{Type: models.EntityTypePeople, Key: person.ID},
		{Type: models.EntityTypeDay, Key: models.DayCellID(3, 5, 2024)},
		{Type: models.EntityTypeDay, Key: models.DayCellID(4, 5, 2024)},
		{Type: models.EntityTypeEvent, Key: "e1"},
	}, touched)

	for _, id := range []string{"n1", "c1", "e1"} {
		item, _, err := b.Locate(id)
		require.NoError(t, err)
		assert.Empty(t, item.AssignedPersonIDs)
	}
	_, ok := b.Person(person.ID)
	assert.False(t, ok)
}

func TestAssignPersonRejectsGroups(t *testing.T) {
	b := newTestBoard()
	person, err := b.AddPerson("Kai", "")
	require.NoError(t, err)

	_, _, err = b.AssignPerson("g1", person.ID)
	assert.ErrorIs(t, err, appErrors.ErrInvalidPlacement)

	_, _, err = b.AssignPerson("n1", "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUnassignPerson(t *testing.T) {
	b := newTestBoard()
	person, err := b.AddPerson("Kai", "")
	require.NoError(t, err)
	_, _, err = b.AssignPerson("n2", person.ID)
	require.NoError(t, err)

	removed, owner, err := b.UnassignPerson("n2", person.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, models.DayCellID(3, 5, 2024), owner.Key)

	removed, _, err = b.UnassignPerson("n2", person.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
