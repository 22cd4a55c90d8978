package tableio_test

import (
	"testing"
	"time"

	"github.com/foomo/nessiecatalog/pkg/tableio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableMetadata(t *testing.T) {
	now := time.UnixMilli(1718000000000)
	spec := &tableio.PartitionSpec{
		SpecID: 0,
		Fields: []tableio.PartitionField{{SourceID: 1, FieldID: 1000, Name: "id_bucket", Transform: "bucket[16]"}},
	}
	meta := tableio.NewTableMetadata("s3://w/a/t", testSchema(), spec, nil, nil, now)

	assert.Equal(t, 2, meta.FormatVersion)
	assert.NotEmpty(t, meta.TableUUID)
	assert.Equal(t, "struct", meta.Schemas[0].Type)
	assert.Equal(t, 2, meta.LastColumnID)
	assert.Equal(t, 1000, meta.LastPartitionID)
	assert.Equal(t, now.UnixMilli(), meta.LastUpdatedMS)
	assert.Nil(t, meta.SnapshotID())
	assert.NotNil(t, meta.Properties)

	unpartitioned := tableio.NewTableMetadata("s3://w/a/t", testSchema(), nil, nil, nil, now)
	assert.Equal(t, 999, unpartitioned.LastPartitionID)
	assert.NotEqual(t, meta.TableUUID, unpartitioned.TableUUID)
}

func TestTableMetadataContent(t *testing.T) {
	meta := tableio.NewTableMetadata("s3://w/a/t", testSchema(), nil, nil, nil, time.Now())
	meta.CurrentSnapshot = 7
	c := meta.Content("s3://w/a/t/metadata/00000-x.metadata.json")
	assert.Equal(t, "s3://w/a/t/metadata/00000-x.metadata.json", c.MetadataLocation)
	require.NotNil(t, c.SnapshotID)
	assert.Equal(t, int64(7), *c.SnapshotID)
	assert.Equal(t, 0, *c.SchemaID)
}

func TestUnmarshalMetadata(t *testing.T) {
	_, err := tableio.UnmarshalMetadata([]byte(`{"location":"x"}`))
	assert.Error(t, err)
	_, err = tableio.UnmarshalMetadata([]byte(`{`))
	assert.Error(t, err)

	data, err := tableio.MarshalMetadata(tableio.NewTableMetadata("s3://w/t", testSchema(), nil, nil, nil, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"format-version": 2`)
	assert.Contains(t, string(data), `"current-snapshot-id": -1`)
}

func TestMetadataLocationHelpers(t *testing.T) {
	loc := tableio.MetadataLocation("s3://w/a/t", 12)
	assert.Equal(t, 12, tableio.MetadataVersion(loc))
	assert.Equal(t, "s3://w/a/t", tableio.TableLocationOf(loc))
	assert.Equal(t, -1, tableio.MetadataVersion("s3://w/a/t/metadata/v1.metadata.json"))
	assert.Equal(t, -1, tableio.MetadataVersion("s3://w/a/t/metadata/x-1.metadata.json"))
	assert.Equal(t, "s3://w/a/t/other.json", tableio.TableLocationOf("s3://w/a/t/other.json"))
}
