package tableio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/nessiecatalog/content"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Iceberg table format v2 metadata, reduced to what the catalog writes and reads.
// See: https://iceberg.apache.org/spec/

type (
	// TableMetadata is the top-level Iceberg table metadata (format-version 2).
	TableMetadata struct {
		FormatVersion    int                `json:"format-version"`
		TableUUID        string             `json:"table-uuid"`
		Location         string             `json:"location"`
		LastSeqNumber    int64              `json:"last-sequence-number"`
		LastUpdatedMS    int64              `json:"last-updated-ms"`
		LastColumnID     int                `json:"last-column-id"`
		Schemas          []Schema           `json:"schemas"`
		CurrentSchemaID  int                `json:"current-schema-id"`
		PartitionSpecs   []PartitionSpec    `json:"partition-specs"`
		DefaultSpecID    int                `json:"default-spec-id"`
		LastPartitionID  int                `json:"last-partition-id"`
		CurrentSnapshot  int64              `json:"current-snapshot-id"`
		Snapshots        []Snapshot         `json:"snapshots"`
		SnapshotLog      []SnapshotLogEntry `json:"snapshot-log"`
		MetadataLog      []MetadataLogEntry `json:"metadata-log"`
		SortOrders       []SortOrder        `json:"sort-orders"`
		DefaultSortOrder int                `json:"default-sort-order-id"`
		Properties       map[string]string  `json:"properties,omitempty"`
	}
	// Schema defines the columns of a table.
	Schema struct {
		Type     string  `json:"type"`
		SchemaID int     `json:"schema-id"`
		Fields   []Field `json:"fields"`
	}
	// Field is a single column.
	Field struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		Required bool   `json:"required"`
		Doc      string `json:"doc,omitempty"`
	}
	// PartitionSpec defines how data is partitioned.
	PartitionSpec struct {
		SpecID int              `json:"spec-id"`
		Fields []PartitionField `json:"fields"`
	}
	// PartitionField maps a source column to a partition transform.
	PartitionField struct {
		SourceID  int    `json:"source-id"`
		FieldID   int    `json:"field-id"`
		Name      string `json:"name"`
		Transform string `json:"transform"`
	}
	// SortOrder defines how data is sorted within files.
	SortOrder struct {
		OrderID int         `json:"order-id"`
		Fields  []SortField `json:"fields"`
	}
	// SortField is a single sort column.
	SortField struct {
		SourceID  int    `json:"source-id"`
		Transform string `json:"transform"`
		Direction string `json:"direction"`
		NullOrder string `json:"null-order"`
	}
	// Snapshot records a point-in-time view of the table.
	Snapshot struct {
		SnapshotID       int64             `json:"snapshot-id"`
		ParentSnapshotID *int64            `json:"parent-snapshot-id,omitempty"`
		SequenceNumber   int64             `json:"sequence-number"`
		TimestampMS      int64             `json:"timestamp-ms"`
		ManifestList     string            `json:"manifest-list"`
		Summary          map[string]string `json:"summary"`
		SchemaID         int               `json:"schema-id"`
	}
	// SnapshotLogEntry records when a snapshot was made current.
	SnapshotLogEntry struct {
		TimestampMS int64 `json:"timestamp-ms"`
		SnapshotID  int64 `json:"snapshot-id"`
	}
	// MetadataLogEntry records a previous metadata file.
	MetadataLogEntry struct {
		TimestampMS  int64  `json:"timestamp-ms"`
		MetadataFile string `json:"metadata-file"`
	}
)

// NoSnapshot value of CurrentSnapshot for a table without data
const NoSnapshot int64 = -1

// NewTableMetadata creates initial table metadata. A nil spec or sort order
// yields the unpartitioned spec and the unsorted order.
func NewTableMetadata(location string, schema Schema, spec *PartitionSpec, order *SortOrder, properties map[string]string, now time.Time) *TableMetadata {
	if spec == nil {
		spec = &PartitionSpec{SpecID: 0, Fields: []PartitionField{}}
	}
	if order == nil {
		order = &SortOrder{OrderID: 0, Fields: []SortField{}}
	}
	if schema.Type == "" {
		schema.Type = "struct"
	}
	if properties == nil {
		properties = map[string]string{}
	}
	return &TableMetadata{
		FormatVersion:    2,
		TableUUID:        uuid.New().String(),
		Location:         location,
		LastUpdatedMS:    now.UnixMilli(),
		LastColumnID:     lastFieldID(schema),
		Schemas:          []Schema{schema},
		CurrentSchemaID:  schema.SchemaID,
		PartitionSpecs:   []PartitionSpec{*spec},
		DefaultSpecID:    spec.SpecID,
		LastPartitionID:  lastPartFieldID(spec),
		CurrentSnapshot:  NoSnapshot,
		Snapshots:        []Snapshot{},
		SnapshotLog:      []SnapshotLogEntry{},
		MetadataLog:      []MetadataLogEntry{},
		SortOrders:       []SortOrder{*order},
		DefaultSortOrder: order.OrderID,
		Properties:       properties,
	}
}

// SnapshotID current snapshot, nil if the table has none
func (m *TableMetadata) SnapshotID() *int64 {
	if m.CurrentSnapshot == NoSnapshot {
		return nil
	}
	return content.Int64Ptr(m.CurrentSnapshot)
}

// Content table pointer describing this metadata stored at location. A table
// without snapshots carries NoSnapshot, the store requires the field.
func (m *TableMetadata) Content(location string) *content.IcebergTable {
	return &content.IcebergTable{
		MetadataLocation: location,
		SnapshotID:       content.Int64Ptr(m.CurrentSnapshot),
		SchemaID:         content.IntPtr(m.CurrentSchemaID),
		SpecID:           content.IntPtr(m.DefaultSpecID),
		SortOrderID:      content.IntPtr(m.DefaultSortOrder),
	}
}

// MarshalMetadata serializes table metadata to JSON.
func MarshalMetadata(meta *TableMetadata) ([]byte, error) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	return data, nil
}

// UnmarshalMetadata deserializes table metadata from JSON.
func UnmarshalMetadata(data []byte) (*TableMetadata, error) {
	var meta TableMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrap(err, "unmarshal metadata")
	}
	if meta.FormatVersion == 0 {
		return nil, errors.New("unmarshal metadata: missing format-version")
	}
	return &meta, nil
}

// TableLocation default location of a table below the warehouse root
func TableLocation(warehouse string, ident content.Key) string {
	return strings.TrimSuffix(warehouse, "/") + "/" + strings.Join(ident.Elements, "/")
}

// MetadataLocation location of the given metadata version below a table location
func MetadataLocation(tableLocation string, version int) string {
	return fmt.Sprintf("%s/metadata/%05d-%s.metadata.json", strings.TrimSuffix(tableLocation, "/"), version, uuid.New().String())
}

// TableLocationOf recovers the table location from one of its metadata file locations
func TableLocationOf(metadataLocation string) string {
	if i := strings.LastIndex(metadataLocation, "/metadata/"); i > 0 {
		return metadataLocation[:i]
	}
	return metadataLocation
}

// MetadataVersion parses the version prefix of a metadata file name, -1 if
// the name does not carry one
func MetadataVersion(metadataLocation string) int {
	name := metadataLocation[strings.LastIndex(metadataLocation, "/")+1:]
	prefix, _, ok := strings.Cut(name, "-")
	if !ok {
		return -1
	}
	v, err := strconv.Atoi(prefix)
	if err != nil || v < 0 {
		return -1
	}
	return v
}

// lastFieldID returns the highest field ID in the schema.
func lastFieldID(schema Schema) int {
	maxID := 0
	for _, f := range schema.Fields {
		if f.ID > maxID {
			maxID = f.ID
		}
	}
	return maxID
}

// lastPartFieldID returns the highest partition field ID in the spec.
func lastPartFieldID(spec *PartitionSpec) int {
	maxID := 999 // Iceberg reserves 1000+ for partition fields
	for _, f := range spec.Fields {
		if f.FieldID > maxID {
			maxID = f.FieldID
		}
	}
	return maxID
}
