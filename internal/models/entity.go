package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// EntityType is the persistence discriminant of a stored board entity.
type EntityType string

const (
	EntityTypeDay      EntityType = "day"
	EntityTypeEvent    EntityType = "event"
	EntityTypeSchedule EntityType = "schedule"
	EntityTypeTemplate EntityType = "template"
	EntityTypePeople   EntityType = "people"
)

// Entity is the stored form of a top-level board object.
type Entity struct {
	ID          string         `db:"id" json:"id"`
	CalendarID  string         `db:"calendar_id" json:"calendar_id"`
	Type        EntityType     `db:"type" json:"type"`
	Payload     types.JSONText `db:"payload" json:"payload"`
	SoftDeleted bool           `db:"-" json:"soft_deleted,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Collection groups entity types sharing one pending-change counter.
type Collection string

const (
	CollectionCalendar Collection = "calendar"
	CollectionPeople   Collection = "people"
	CollectionSchedule Collection = "schedule"
	CollectionTemplate Collection = "template"
)

// Collections lists every collection in sync order.
var Collections = []Collection{CollectionCalendar, CollectionPeople, CollectionSchedule, CollectionTemplate}

// Valid reports whether the collection is known.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// EntityTypes returns the entity types stored under the collection.
func (c Collection) EntityTypes() []EntityType {
	switch c {
	case CollectionCalendar:
		return []EntityType{EntityTypeDay, EntityTypeEvent}
	case CollectionPeople:
		return []EntityType{EntityTypePeople}
	case CollectionSchedule:
		return []EntityType{EntityTypeSchedule}
	case CollectionTemplate:
		return []EntityType{EntityTypeTemplate}
	default:
		return nil
	}
}

// SyncState is the reconciliation state of a collection.
type SyncState string

const (
	SyncStateClean   SyncState = "clean"
	SyncStateDirty   SyncState = "dirty"
	SyncStateSyncing SyncState = "syncing"
)

// CollectionStatus reports pending changes for one collection.
type CollectionStatus struct {
	Collection     Collection `json:"collection"`
	State          SyncState  `json:"state"`
	PendingChanges int        `json:"pending_changes"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
}

// SyncResult summarises one sync pass.
type SyncResult struct {
	Collection Collection `json:"collection"`
	Upserted   int        `json:"upserted"`
	Deleted    int        `json:"deleted"`
	Coalesced  bool       `json:"coalesced"`
	Replaced   bool       `json:"replaced"`
	Pending    int        `json:"pending_changes"`
}
