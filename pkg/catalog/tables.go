package catalog

import (
	"context"
	"maps"
	"slices"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/namespace"
	"github.com/foomo/nessiecatalog/pkg/tableio"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	opCreateTable   = "create_table"
	opRegisterTable = "register_table"
	opUpdateTable   = "update_table"
	opDropTable     = "drop_table"
	opRenameTable   = "rename_table"
)

// ListTables returns the tables directly inside ns
func (c *Nessie) ListTables(ctx context.Context, ns content.Key) ([]TableIdent, error) {
	ns, err := validKey(ns)
	if err != nil {
		return nil, err
	}
	entries, err := c.entries(ctx, c.branch)
	if err != nil {
		return nil, err
	}
	if !namespace.Exists(entries, ns) {
		return nil, errors.Wrapf(catalogerr.ErrNotFound, "namespace %s", ns)
	}
	keys := namespace.Tables(entries, ns)
	ret := make([]TableIdent, 0, len(keys))
	for _, key := range keys {
		ret = append(ret, TableIdent{Namespace: ns, Name: key.Name()})
	}
	return ret, nil
}

// CreateTable writes the initial metadata file and commits the table pointer.
// The returned table references the committed metadata location.
func (c *Nessie) CreateTable(ctx context.Context, ns content.Key, creation TableCreation) (*Table, error) {
	ident, err := NewTableIdent(ns, creation.Name)
	if err != nil {
		return nil, err
	}
	key, _ := ident.Key()

	location := creation.Location
	if location == "" {
		if c.warehouse == "" {
			return nil, catalogerr.NewValidationError("location", "no location given and no warehouse configured")
		}
		location = tableio.TableLocation(c.warehouse, key)
	}

	head, err := c.head(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.entries(ctx, head.Spec())
	if err != nil {
		return nil, err
	}
	if err := c.checkCreatable(entries, ident, key); err != nil {
		return nil, err
	}

	metadataLocation := tableio.MetadataLocation(location, 0)
	meta := tableio.NewTableMetadata(location, creation.Schema, creation.PartitionSpec, creation.SortOrder, maps.Clone(creation.Properties), c.clock())
	if c.fileIO != nil {
		if err := c.fileIO.WriteMetadata(ctx, metadataLocation, meta); err != nil {
			return nil, errors.Wrapf(err, "failed to write metadata of table %s", ident)
		}
	}

	table := meta.Content(metadataLocation)
	resp, err := c.commit(ctx, opCreateTable, head, "create table "+ident.String(), content.Put(key, table))
	if err != nil {
		return nil, err
	}
	table.ID = resp.ContentID(key)
	return &Table{Ident: ident, MetadataLocation: metadataLocation, Content: table, Metadata: meta}, nil
}

// RegisterTable commits a pointer to an existing metadata file
func (c *Nessie) RegisterTable(ctx context.Context, ident TableIdent, metadataLocation string) (*Table, error) {
	key, err := ident.Key()
	if err != nil {
		return nil, err
	}
	if metadataLocation == "" {
		return nil, catalogerr.NewValidationError("metadataLocation", "must not be empty")
	}

	table := &content.IcebergTable{MetadataLocation: metadataLocation}
	var meta *tableio.TableMetadata
	if c.fileIO != nil {
		if meta, err = c.fileIO.ReadMetadata(ctx, metadataLocation); err != nil {
			return nil, errors.Wrapf(err, "failed to read metadata of table %s", ident)
		}
		table = meta.Content(metadataLocation)
	}

	head, err := c.head(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.entries(ctx, head.Spec())
	if err != nil {
		return nil, err
	}
	if err := c.checkCreatable(entries, ident, key); err != nil {
		return nil, err
	}

	resp, err := c.commit(ctx, opRegisterTable, head, "register table "+ident.String(), content.Put(key, table))
	if err != nil {
		return nil, err
	}
	table.ID = resp.ContentID(key)
	return &Table{Ident: ident, MetadataLocation: metadataLocation, Content: table, Metadata: meta}, nil
}

// LoadTable resolves the table pointer and reads its metadata when a FileIO
// is configured
func (c *Nessie) LoadTable(ctx context.Context, ident TableIdent) (*Table, error) {
	key, err := ident.Key()
	if err != nil {
		return nil, err
	}
	table, err := c.table(ctx, c.branch, ident, key)
	if err != nil {
		return nil, err
	}
	ret := &Table{Ident: ident, MetadataLocation: table.MetadataLocation, Content: table}
	if c.fileIO != nil {
		if ret.Metadata, err = c.fileIO.ReadMetadata(ctx, table.MetadataLocation); err != nil {
			return nil, errors.Wrapf(err, "failed to read metadata of table %s", ident)
		}
	}
	return ret, nil
}

func (c *Nessie) TableExists(ctx context.Context, ident TableIdent) (bool, error) {
	key, err := ident.Key()
	if err != nil {
		return false, err
	}
	entries, err := c.entries(ctx, c.branch)
	if err != nil {
		return false, err
	}
	e, ok := namespace.Find(entries, key)
	return ok && namespace.IsTable(e.Type), nil
}

// DropTable deletes the table pointer. With purge the files below the table
// location are removed once the commit succeeded.
func (c *Nessie) DropTable(ctx context.Context, ident TableIdent, purge bool) error {
	key, err := ident.Key()
	if err != nil {
		return err
	}
	head, err := c.head(ctx)
	if err != nil {
		return err
	}
	table, err := c.table(ctx, head.Spec(), ident, key)
	if err != nil {
		return err
	}
	if _, err := c.commit(ctx, opDropTable, head, "drop table "+ident.String(), content.Delete(key)); err != nil {
		return err
	}
	if !purge {
		return nil
	}
	if c.fileIO == nil {
		c.l.Warn("purge requested without file io", zap.String("table", ident.String()))
		return nil
	}
	location := tableio.TableLocationOf(table.MetadataLocation)
	if err := c.fileIO.Purge(ctx, location); err != nil {
		return errors.Wrapf(err, "table %s dropped, failed to purge %s", ident, location)
	}
	return nil
}

// RenameTable moves the table pointer in a single commit, so readers never
// observe both or neither key
func (c *Nessie) RenameTable(ctx context.Context, src, dst TableIdent) error {
	srcKey, err := src.Key()
	if err != nil {
		return err
	}
	dstKey, err := dst.Key()
	if err != nil {
		return err
	}
	head, err := c.head(ctx)
	if err != nil {
		return err
	}

	var (
		table   *content.IcebergTable
		entries []content.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		table, err = c.table(gctx, head.Spec(), src, srcKey)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = c.entries(gctx, head.Spec())
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if e, ok := namespace.Find(entries, dstKey); ok {
		return errors.Wrapf(catalogerr.ErrAlreadyExists, "table %s: key holds %s content", dst, e.Type)
	}
	if !namespace.Exists(entries, dst.Namespace) {
		return errors.Wrapf(catalogerr.ErrNotFound, "namespace %s", dst.Namespace)
	}

	_, err = c.commit(ctx, opRenameTable, head, "rename table "+src.String()+" to "+dst.String(),
		content.Delete(srcKey),
		content.Put(dstKey, table),
	)
	return err
}

// UpdateTable moves the metadata pointer of a table if it still points to
// commit.Requirement
func (c *Nessie) UpdateTable(ctx context.Context, commit TableCommit) (*Table, error) {
	key, err := commit.Ident.Key()
	if err != nil {
		return nil, err
	}
	if commit.Metadata == nil && commit.MetadataLocation == "" {
		return nil, catalogerr.NewValidationError("metadata", "either metadata or a metadata location is required")
	}
	head, err := c.head(ctx)
	if err != nil {
		return nil, err
	}
	current, err := c.table(ctx, head.Spec(), commit.Ident, key)
	if err != nil {
		return nil, err
	}
	if commit.Requirement != "" && current.MetadataLocation != commit.Requirement {
		return nil, &catalogerr.ConcurrentModificationError{
			Op:       opUpdateTable,
			Ref:      c.branch,
			Expected: commit.Requirement,
			Err:      errors.Errorf("table %s points to %s", commit.Ident, current.MetadataLocation),
		}
	}

	location := commit.MetadataLocation
	meta := commit.Metadata
	if location == "" {
		if c.fileIO == nil {
			return nil, catalogerr.NewValidationError("metadata", "writing metadata requires a file io")
		}
		cp := *meta
		cp.MetadataLog = slices.Clone(meta.MetadataLog)
		meta = &cp

		version := tableio.MetadataVersion(current.MetadataLocation) + 1
		if version < 1 {
			version = 1
		}
		tableLocation := meta.Location
		if tableLocation == "" {
			tableLocation = tableio.TableLocationOf(current.MetadataLocation)
		}
		location = tableio.MetadataLocation(tableLocation, version)
		meta.LastUpdatedMS = c.clock().UnixMilli()
		meta.MetadataLog = append(meta.MetadataLog, tableio.MetadataLogEntry{
			TimestampMS:  meta.LastUpdatedMS,
			MetadataFile: current.MetadataLocation,
		})
		if err := c.fileIO.WriteMetadata(ctx, location, meta); err != nil {
			return nil, errors.Wrapf(err, "failed to write metadata of table %s", commit.Ident)
		}
	}

	var table *content.IcebergTable
	if meta != nil {
		table = meta.Content(location)
	} else {
		cp := *current
		cp.MetadataLocation = location
		table = &cp
	}
	table.ID = current.ID

	if _, err := c.commit(ctx, opUpdateTable, head, "update table "+commit.Ident.String(), content.Put(key, table)); err != nil {
		return nil, err
	}
	return &Table{Ident: commit.Ident, MetadataLocation: location, Content: table, Metadata: meta}, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Nessie) checkCreatable(entries []content.Entry, ident TableIdent, key content.Key) error {
	if !namespace.Exists(entries, ident.Namespace) {
		return errors.Wrapf(catalogerr.ErrNotFound, "namespace %s", ident.Namespace)
	}
	if e, ok := namespace.Find(entries, key); ok {
		return errors.Wrapf(catalogerr.ErrAlreadyExists, "table %s: key holds %s content", ident, e.Type)
	}
	return nil
}
