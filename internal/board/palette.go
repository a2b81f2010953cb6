package board

import (
	"fmt"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// PaletteEntryID returns the id of the palette prototype for a content type.
func PaletteEntryID(contentType models.ContentType) string {
	return "palette-" + string(contentType)
}

var palette = []models.Item{
	{ID: PaletteEntryID(models.ContentTypeNote), ContentType: models.ContentTypeNote, Content: "", Color: "#fff59d"},
	{ID: PaletteEntryID(models.ContentTypePhoto), ContentType: models.ContentTypePhoto},
	{ID: PaletteEntryID(models.ContentTypeText), ContentType: models.ContentTypeText, Content: "Text"},
	{ID: PaletteEntryID(models.ContentTypeEvent), ContentType: models.ContentTypeEvent, Content: "New event", Color: "#90caf9"},
	{ID: PaletteEntryID(models.ContentTypeGroup), ContentType: models.ContentTypeGroup, Content: "Group"},
}

// Palette returns copies of the prototype items. Prototypes themselves are never mutated.
func Palette() []models.Item {
	return models.CloneItems(palette)
}

func paletteEntry(id string) (models.Item, bool) {
	for i := range palette {
		if palette[i].ID == id {
			return palette[i].Clone(), true
		}
	}
	return models.Item{}, false
}

// IsPaletteEntry reports whether the id names a palette prototype.
func IsPaletteEntry(id string) bool {
	_, ok := paletteEntry(id)
	return ok
}

// instantiate produces a brand new entity from a prototype.
func (b *Board) instantiate(prototypeID string) (models.Item, error) {
	proto, ok := paletteEntry(prototypeID)
	if !ok {
		return models.Item{}, appErrors.Clone(appErrors.ErrItemNotFound, fmt.Sprintf("palette entry %s not found", prototypeID))
	}
	proto.ID = b.newID()
	if proto.IsGroup() {
		proto.Children = []models.Item{}
	}
	return proto, nil
}
