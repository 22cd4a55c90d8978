// contains data structures exchanged with the versioned store
package content

import (
	"bytes"

	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	// KeySeparator separator for flattened content keys
	KeySeparator = "."
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Type content type discriminant
type Type string

const (
	// TypeNamespace explicit namespace marker
	TypeNamespace Type = "NAMESPACE"
	// TypeIcebergTable iceberg table pointer
	TypeIcebergTable Type = "ICEBERG_TABLE"
	// TypeIcebergView iceberg view pointer
	TypeIcebergView Type = "ICEBERG_VIEW"
	// TypeDeltaLakeTable delta lake table pointer
	TypeDeltaLakeTable Type = "DELTA_LAKE_TABLE"
	// TypeUDF user defined function
	TypeUDF Type = "UDF"
)

// Content typed payload attached to a key at a point in history
type Content interface {
	Type() Type
	ContentID() string
}

type (
	// Namespace explicit namespace marker
	Namespace struct {
		ID         string            `json:"id,omitempty"`
		Elements   []string          `json:"elements"`
		Properties map[string]string `json:"properties,omitempty"`
	}
	// IcebergTable points to the current metadata file of an iceberg table
	IcebergTable struct {
		ID               string `json:"id,omitempty"`
		MetadataLocation string `json:"metadataLocation"`
		SnapshotID       *int64 `json:"snapshotId,omitempty"`
		SchemaID         *int   `json:"schemaId,omitempty"`
		SpecID           *int   `json:"specId,omitempty"`
		SortOrderID      *int   `json:"sortOrderId,omitempty"`
	}
	// IcebergView points to the current metadata file of an iceberg view
	IcebergView struct {
		ID               string `json:"id,omitempty"`
		MetadataLocation string `json:"metadataLocation"`
		VersionID        *int64 `json:"versionId,omitempty"`
		SchemaID         *int   `json:"schemaId,omitempty"`
	}
	// DeltaLakeTable delta lake table
	DeltaLakeTable struct {
		ID                        string   `json:"id,omitempty"`
		MetadataLocationHistory   []string `json:"metadataLocationHistory"`
		CheckpointLocationHistory []string `json:"checkpointLocationHistory"`
		LastCheckpoint            string   `json:"lastCheckpoint,omitempty"`
	}
	// Unknown any content type this package does not understand. The raw
	// payload is kept so it can be written back unchanged.
	Unknown struct {
		Kind Type
		ID   string
		Raw  []byte
	}
)

func (c *Namespace) Type() Type {
	return TypeNamespace
}

func (c *Namespace) ContentID() string {
	return c.ID
}

func (c *IcebergTable) Type() Type {
	return TypeIcebergTable
}

func (c *IcebergTable) ContentID() string {
	return c.ID
}

func (c *IcebergView) Type() Type {
	return TypeIcebergView
}

func (c *IcebergView) ContentID() string {
	return c.ID
}

func (c *DeltaLakeTable) Type() Type {
	return TypeDeltaLakeTable
}

func (c *DeltaLakeTable) ContentID() string {
	return c.ID
}

func (c *Unknown) Type() Type {
	return c.Kind
}

func (c *Unknown) ContentID() string {
	return c.ID
}

// NewNamespace namespace marker for the given key
func NewNamespace(key Key, properties map[string]string) *Namespace {
	return &Namespace{
		Elements:   append([]string(nil), key.Elements...),
		Properties: properties,
	}
}

// IntPtr helper for the optional table identifiers
func IntPtr(v int) *int {
	return &v
}

// Int64Ptr helper for the optional snapshot identifier
func Int64Ptr(v int64) *int64 {
	return &v
}

// ------------------------------------------------------------------------------------------------
// ~ Encoding
// ------------------------------------------------------------------------------------------------

// MarshalContent encodes c with its type discriminant
func MarshalContent(c Content) ([]byte, error) {
	if c == nil {
		return nil, catalogerr.NewValidationError("content", "must not be nil")
	}
	if u, ok := c.(*Unknown); ok {
		if len(u.Raw) == 0 {
			return json.Marshal(map[string]string{"type": string(u.Kind)})
		}
		return u.Raw, nil
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s content", c.Type())
	}
	fields := map[string]jsoniter.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s content", c.Type())
	}
	typ, _ := json.Marshal(string(c.Type()))
	fields["type"] = typ
	return json.Marshal(fields)
}

// UnmarshalContent decodes a content payload. Unknown discriminants decode to
// *Unknown instead of failing.
func UnmarshalContent(data []byte) (Content, error) {
	var head struct {
		Type Type   `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(err, "failed to read content type")
	}
	var c Content
	switch head.Type {
	case "":
		return nil, errors.New("content without type")
	case TypeNamespace:
		c = &Namespace{}
	case TypeIcebergTable:
		c = &IcebergTable{}
	case TypeIcebergView:
		c = &IcebergView{}
	case TypeDeltaLakeTable:
		c = &DeltaLakeTable{}
	default:
		return &Unknown{
			Kind: head.Type,
			ID:   head.ID,
			Raw:  bytes.Clone(data),
		}, nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal %s content", head.Type)
	}
	return c, nil
}

// WithID returns a copy of c carrying the given content id. The store requires
// the id of the existing content when a key is overwritten.
func WithID(c Content, id string) Content {
	switch v := c.(type) {
	case *Namespace:
		cp := *v
		cp.ID = id
		return &cp
	case *IcebergTable:
		cp := *v
		cp.ID = id
		return &cp
	case *IcebergView:
		cp := *v
		cp.ID = id
		return &cp
	case *DeltaLakeTable:
		cp := *v
		cp.ID = id
		return &cp
	default:
		return c
	}
}

// Wire wraps a Content so it can be embedded into other json structures
type Wire struct {
	Content Content
}

func (w Wire) MarshalJSON() ([]byte, error) {
	return MarshalContent(w.Content)
}

func (w *Wire) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		w.Content = nil
		return nil
	}
	c, err := UnmarshalContent(data)
	if err != nil {
		return err
	}
	w.Content = c
	return nil
}
