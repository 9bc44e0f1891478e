package models

import (
	"time"

	"github.com/google/uuid"
)

// Collection kinds
const (
	CollectionAlbums   = "albums"
	CollectionArtist   = "artist"
	CollectionPlaylist = "playlist"
)

// Group is a named, ordered run of records (one album or one playlist)
type Group struct {
	Name    string          `bson:"name" json:"name"`
	Records []FeatureRecord `bson:"records" json:"records"`
}

// Collection is an ordered mapping from group name to the records fetched
// for that group. Groups keep first-insertion order and records are only
// ever appended.
type Collection struct {
	ID            string    `bson:"_id" json:"id"`
	SchemaVersion int       `bson:"schema_version" json:"schema_version"`
	Kind          string    `bson:"kind" json:"kind"`
	Groups        []Group   `bson:"groups" json:"groups"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// NewCollection creates an empty collection with a fresh id
func NewCollection(kind string) *Collection {
	return &Collection{
		ID:            uuid.NewString(),
		SchemaVersion: CurrentSchemaVersion,
		Kind:          kind,
		Groups:        make([]Group, 0),
		CreatedAt:     time.Now().UTC(),
	}
}

// Append adds records to the named group, creating the group on first use.
func (c *Collection) Append(group string, records ...FeatureRecord) {
	for i := range c.Groups {
		if c.Groups[i].Name == group {
			c.Groups[i].Records = append(c.Groups[i].Records, records...)
			return
		}
	}
	c.Groups = append(c.Groups, Group{Name: group, Records: append([]FeatureRecord(nil), records...)})
}

// Names returns group names in insertion order
func (c *Collection) Names() []string {
	names := make([]string, len(c.Groups))
	for i, g := range c.Groups {
		names[i] = g.Name
	}
	return names
}

// Records returns the records of one group, or nil when absent
func (c *Collection) Records(group string) []FeatureRecord {
	for _, g := range c.Groups {
		if g.Name == group {
			return g.Records
		}
	}
	return nil
}

// Len counts records across all groups
func (c *Collection) Len() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Records)
	}
	return n
}

// Merge appends every group of other, preserving its order.
func (c *Collection) Merge(other *Collection) {
	if other == nil {
		return
	}
	for _, g := range other.Groups {
		c.Append(g.Name, g.Records...)
	}
}

// CollectionSummary describes a stored collection without its records
type CollectionSummary struct {
	ID        string    `bson:"_id" json:"id"`
	Kind      string    `bson:"kind" json:"kind"`
	Groups    []string  `bson:"groups" json:"groups"`
	Records   int       `bson:"records" json:"records"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Summary returns the collection's summary
func (c *Collection) Summary() CollectionSummary {
	return CollectionSummary{
		ID:        c.ID,
		Kind:      c.Kind,
		Groups:    c.Names(),
		Records:   c.Len(),
		CreatedAt: c.CreatedAt,
	}
}

// AllRecords returns every record in group order
func (c *Collection) AllRecords() []FeatureRecord {
	records := make([]FeatureRecord, 0, c.Len())
	for _, g := range c.Groups {
		records = append(records, g.Records...)
	}
	return records
}
