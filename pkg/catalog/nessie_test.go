package catalog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalog"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/nessie"
	"github.com/foomo/nessiecatalog/pkg/nessie/nessietest"
	"github.com/foomo/nessiecatalog/pkg/tableio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocloud.dev/blob/memblob"
	"golang.org/x/sync/errgroup"
)

const warehouse = "mem://warehouse"

var now = time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)

type fixture struct {
	srv     *nessietest.Server
	client  *nessie.Client
	fileIO  *tableio.StorageFileIO
	catalog *catalog.Nessie
}

func newFixture(t *testing.T, opts ...catalog.Option) *fixture {
	t.Helper()
	l := zaptest.NewLogger(t)
	srv := nessietest.New(t, nessietest.WithPageSize(3))
	client, err := nessie.New(l, srv.URL(), nessie.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	fileIO := tableio.NewStorageFileIO(l, warehouse, tableio.NewBlobStorageFromBucket(memblob.OpenBucket(nil), ""))
	t.Cleanup(func() {
		_ = fileIO.Close()
	})
	opts = append([]catalog.Option{
		catalog.WithWarehouse(warehouse),
		catalog.WithFileIO(fileIO),
		catalog.WithAuthor("tester"),
		catalog.WithClock(func() time.Time { return now }),
	}, opts...)
	return &fixture{
		srv:     srv,
		client:  client,
		fileIO:  fileIO,
		catalog: catalog.NewNessie(l, client, opts...),
	}
}

func key(elements ...string) content.Key {
	return content.MustKey(elements...)
}

func ident(t *testing.T, s string) catalog.TableIdent {
	t.Helper()
	id, err := catalog.ParseTableIdent(s)
	require.NoError(t, err)
	return id
}

func creation(name string) catalog.TableCreation {
	return catalog.TableCreation{
		Name: name,
		Schema: tableio.Schema{
			SchemaID: 0,
			Fields: []tableio.Field{
				{ID: 1, Name: "id", Type: "long", Required: true},
				{ID: 2, Name: "data", Type: "string"},
			},
		},
		Properties: map[string]string{"format-version": "2"},
	}
}

func strs(keys []content.Key) []string {
	ret := make([]string, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, k.String())
	}
	return ret
}

func TestScenarioImplicitNamespaces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h0 := f.srv.Seed("main", content.Put(key("a", "b", "mytable"), &content.IcebergTable{MetadataLocation: warehouse + "/a/b/mytable/metadata/00000-x.metadata.json"}))
	require.Equal(t, h0, f.srv.Head("main"))

	namespaces, err := f.catalog.ListNamespaces(ctx, content.Key{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.b"}, strs(namespaces))

	ns, err := f.catalog.GetNamespace(ctx, key("a", "b"))
	require.NoError(t, err)
	assert.False(t, ns.Explicit)
	assert.Empty(t, ns.Properties)

	_, err = f.catalog.GetNamespace(ctx, key("a", "b", "c"))
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)

	_, err = f.catalog.GetNamespace(ctx, key("a", "b", "mytable"))
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)
}

func TestCreateNamespaceThenList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.catalog.CreateNamespace(ctx, key("a"), map[string]string{"owner": "data"})
	require.NoError(t, err)
	assert.Equal(t, "data", created.Properties["owner"])

	_, err = f.catalog.CreateTable(ctx, key("a"), creation("t"))
	require.NoError(t, err)

	namespaces, err := f.catalog.ListNamespaces(ctx, content.Key{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, strs(namespaces), "explicit and implied namespace listed once")

	ns, err := f.catalog.GetNamespace(ctx, key("a"))
	require.NoError(t, err)
	assert.True(t, ns.Explicit)
	assert.Equal(t, map[string]string{"owner": "data"}, ns.Properties)

	exists, err := f.catalog.NamespaceExists(ctx, key("a"))
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.catalog.NamespaceExists(ctx, key("b"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateNamespaceTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)
	require.Equal(t, 1, f.srv.Commits("main"))

	_, err = f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalogerr.ErrAlreadyExists)
	assert.Equal(t, 1, f.srv.Commits("main"), "no second commit")

	log, err := f.client.CommitLog(ctx, "main", 0)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "tester", log[0].CommitMeta.Author)
	assert.True(t, log[0].CommitMeta.AuthorTime.Equal(now))
	assert.Equal(t, "iceberg", log[0].CommitMeta.Properties[catalog.PropertyApplicationType])
	assert.Equal(t, "create_namespace", log[0].CommitMeta.Properties[catalog.PropertyOperation])
}

func TestCreateNamespaceImpliedByTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.srv.Seed("main", content.Put(key("a", "t"), &content.IcebergTable{MetadataLocation: "x"}))

	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	assert.ErrorIs(t, err, catalogerr.ErrAlreadyExists)
}

func TestListNamespacesWithParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, ns := range []content.Key{key("a"), key("a", "b"), key("a", "b", "c"), key("ab")} {
		_, err := f.catalog.CreateNamespace(ctx, ns, nil)
		require.NoError(t, err)
	}

	children, err := f.catalog.ListNamespaces(ctx, key("a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b", "a.b.c"}, strs(children))

	all, err := f.catalog.ListNamespaces(ctx, content.Key{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestUpdateNamespaceReplacesProperties(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.UpdateNamespace(ctx, key("a"), map[string]string{"x": "1"})
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)

	_, err = f.catalog.CreateNamespace(ctx, key("a"), map[string]string{"x": "1", "y": "2"})
	require.NoError(t, err)

	_, err = f.catalog.UpdateNamespace(ctx, key("a"), map[string]string{"z": "3"})
	require.NoError(t, err)

	ns, err := f.catalog.GetNamespace(ctx, key("a"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"z": "3"}, ns.Properties)
}

func TestUpdateImplicitNamespace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.srv.Seed("main", content.Put(key("a", "t"), &content.IcebergTable{MetadataLocation: "x"}))

	_, err := f.catalog.UpdateNamespace(ctx, key("a"), map[string]string{"owner": "y"})
	require.NoError(t, err)

	ns, err := f.catalog.GetNamespace(ctx, key("a"))
	require.NoError(t, err)
	assert.True(t, ns.Explicit)
	assert.Equal(t, "y", ns.Properties["owner"])
}

func TestDropNamespace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.catalog.DropNamespace(ctx, key("a"), false)
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)

	_, err = f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)
	require.NoError(t, f.catalog.DropNamespace(ctx, key("a"), false))

	exists, err := f.catalog.NamespaceExists(ctx, key("a"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDropNamespaceNotEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)
	_, err = f.catalog.CreateNamespace(ctx, key("a", "b"), nil)
	require.NoError(t, err)
	_, err = f.catalog.CreateTable(ctx, key("a"), creation("t1"))
	require.NoError(t, err)
	_, err = f.catalog.CreateTable(ctx, key("a", "b"), creation("t2"))
	require.NoError(t, err)
	_, err = f.catalog.CreateNamespace(ctx, key("other"), nil)
	require.NoError(t, err)
	commits := f.srv.Commits("main")

	err = f.catalog.DropNamespace(ctx, key("a"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalogerr.ErrNotEmpty)
	assert.Equal(t, commits, f.srv.Commits("main"))

	require.NoError(t, f.catalog.DropNamespace(ctx, key("a"), true))
	assert.Equal(t, commits+1, f.srv.Commits("main"), "cascade is a single commit")

	namespaces, err := f.catalog.ListNamespaces(ctx, content.Key{})
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, strs(namespaces))

	entries, err := f.client.ListEntries(ctx, "main")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "other", entries[0].Name.String())
}

func TestDropImplicitNamespaceCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.srv.Seed("main", content.Put(key("a", "b", "t"), &content.IcebergTable{MetadataLocation: "x"}))

	assert.ErrorIs(t, f.catalog.DropNamespace(ctx, key("a"), false), catalogerr.ErrNotEmpty)
	require.NoError(t, f.catalog.DropNamespace(ctx, key("a", "b"), true))

	exists, err := f.catalog.NamespaceExists(ctx, key("a"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInvalidKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.CreateNamespace(ctx, content.Key{Elements: []string{"a.b"}}, nil)
	assert.ErrorIs(t, err, catalogerr.ErrValidation)
	_, err = f.catalog.CreateNamespace(ctx, content.Key{}, nil)
	assert.ErrorIs(t, err, catalogerr.ErrValidation)
	_, err = f.catalog.CreateTable(ctx, key("a"), creation("bad.name"))
	assert.ErrorIs(t, err, catalogerr.ErrValidation)
	assert.Equal(t, 0, f.srv.Commits("main"))
}

func TestCreateTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.CreateTable(ctx, key("a"), creation("t"))
	assert.ErrorIs(t, err, catalogerr.ErrNotFound, "namespace missing")

	_, err = f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)

	table, err := f.catalog.CreateTable(ctx, key("a"), creation("t"))
	require.NoError(t, err)
	assert.Contains(t, table.MetadataLocation, warehouse+"/a/t/metadata/00000-")
	assert.NotEmpty(t, table.Content.ID)
	assert.Equal(t, tableio.NoSnapshot, *table.Content.SnapshotID)
	assert.Equal(t, 0, *table.Content.SchemaID)

	loaded, err := f.catalog.LoadTable(ctx, ident(t, "a.t"))
	require.NoError(t, err)
	assert.Equal(t, table.MetadataLocation, loaded.MetadataLocation)
	require.NotNil(t, loaded.Metadata)
	assert.Equal(t, table.Metadata.TableUUID, loaded.Metadata.TableUUID)
	assert.Equal(t, warehouse+"/a/t", loaded.Metadata.Location)

	_, err = f.catalog.CreateTable(ctx, key("a"), creation("t"))
	assert.ErrorIs(t, err, catalogerr.ErrAlreadyExists)

	tables, err := f.catalog.ListTables(ctx, key("a"))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "a.t", tables[0].String())

	_, err = f.catalog.ListTables(ctx, key("missing"))
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)
}

func TestCreateTableWithoutWarehouse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, catalog.WithWarehouse(""))
	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)

	_, err = f.catalog.CreateTable(ctx, key("a"), creation("t"))
	assert.ErrorIs(t, err, catalogerr.ErrValidation)

	c := creation("t")
	c.Location = warehouse + "/custom/t"
	table, err := f.catalog.CreateTable(ctx, key("a"), c)
	require.NoError(t, err)
	assert.Contains(t, table.MetadataLocation, warehouse+"/custom/t/metadata/")
}

func TestConcurrentCreateTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)

	// hold back both commits until both callers resolved the same head
	var wg sync.WaitGroup
	wg.Add(2)
	f.srv.OnCommit(func(string) {
		wg.Done()
		wg.Wait()
	})

	results := make([]error, 2)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			_, results[i] = f.catalog.CreateTable(ctx, key("a"), creation("t"))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, catalogerr.ErrConcurrentModification)
		assert.ErrorIs(t, err, catalogerr.ErrConflict)
		assert.False(t, catalogerr.Retryable(err))
	}
	assert.Equal(t, 1, succeeded)

	tables, err := f.catalog.ListTables(ctx, key("a"))
	require.NoError(t, err)
	assert.Len(t, tables, 1)
}

func TestConcurrentModificationNotRetried(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var once sync.Once
	f.srv.OnCommit(func(branch string) {
		once.Do(func() {
			f.srv.Seed(branch, content.Put(key("other"), content.NewNamespace(key("other"), nil)))
		})
	})

	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.Error(t, err)
	var cmErr *catalogerr.ConcurrentModificationError
	require.ErrorAs(t, err, &cmErr)
	assert.Equal(t, "main", cmErr.Ref)
	assert.Equal(t, catalogerr.ErrConcurrentModification, catalogerr.Kind(err))
	assert.Equal(t, 1, f.srv.Commits("main"), "only the concurrent commit landed")
}

func TestRenameTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)
	_, err = f.catalog.CreateNamespace(ctx, key("b"), nil)
	require.NoError(t, err)
	created, err := f.catalog.CreateTable(ctx, key("a"), creation("t"))
	require.NoError(t, err)
	commits := f.srv.Commits("main")

	require.NoError(t, f.catalog.RenameTable(ctx, ident(t, "a.t"), ident(t, "b.u")))
	assert.Equal(t, commits+1, f.srv.Commits("main"), "rename is a single commit")

	exists, err := f.catalog.TableExists(ctx, ident(t, "a.t"))
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = f.catalog.TableExists(ctx, ident(t, "b.u"))
	require.NoError(t, err)
	assert.True(t, exists)

	renamed, err := f.catalog.LoadTable(ctx, ident(t, "b.u"))
	require.NoError(t, err)
	assert.Equal(t, created.MetadataLocation, renamed.MetadataLocation)
	assert.Equal(t, created.Content.ID, renamed.Content.ID)
	assert.Equal(t, created.Content.SchemaID, renamed.Content.SchemaID)

	log, err := f.client.CommitLog(ctx, "main", 1)
	require.NoError(t, err)
	require.Len(t, log, 1)
	require.Len(t, log[0].Operations, 2)
	assert.Equal(t, content.OperationTypeDelete, log[0].Operations[0].Type)
	assert.Equal(t, content.OperationTypePut, log[0].Operations[1].Type)
}

func TestRenameTableErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)
	_, err = f.catalog.CreateTable(ctx, key("a"), creation("t"))
	require.NoError(t, err)
	_, err = f.catalog.CreateTable(ctx, key("a"), creation("u"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.catalog.RenameTable(ctx, ident(t, "a.missing"), ident(t, "a.x")), catalogerr.ErrNotFound)
	assert.ErrorIs(t, f.catalog.RenameTable(ctx, ident(t, "a.t"), ident(t, "a.u")), catalogerr.ErrAlreadyExists)
	assert.ErrorIs(t, f.catalog.RenameTable(ctx, ident(t, "a.t"), ident(t, "nope.t")), catalogerr.ErrNotFound)
	assert.ErrorIs(t, f.catalog.RenameTable(ctx, ident(t, "a"+"."+"t"), catalog.TableIdent{Namespace: key("a"), Name: "x.y"}), catalogerr.ErrValidation)
}

func TestDropTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)
	table, err := f.catalog.CreateTable(ctx, key("a"), creation("t"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.catalog.DropTable(ctx, ident(t, "a.missing"), false), catalogerr.ErrNotFound)
	assert.ErrorIs(t, f.catalog.DropTable(ctx, ident(t, "a.t.x"), false), catalogerr.ErrNotFound)

	require.NoError(t, f.catalog.DropTable(ctx, ident(t, "a.t"), false))
	exists, err := f.catalog.TableExists(ctx, ident(t, "a.t"))
	require.NoError(t, err)
	assert.False(t, exists)

	// metadata survives a drop without purge
	_, err = f.fileIO.ReadMetadata(ctx, table.MetadataLocation)
	require.NoError(t, err)

	_, err = f.catalog.LoadTable(ctx, ident(t, "a.t"))
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)
}

func TestDropTablePurge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)
	table, err := f.catalog.CreateTable(ctx, key("a"), creation("t"))
	require.NoError(t, err)

	require.NoError(t, f.catalog.DropTable(ctx, ident(t, "a.t"), true))
	_, err = f.fileIO.ReadMetadata(ctx, table.MetadataLocation)
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)
}

func TestLoadTableNotATable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.catalog.CreateNamespace(ctx, key("a", "b"), nil)
	require.NoError(t, err)
	f.srv.Seed("main", content.Put(key("a", "v"), &content.IcebergView{MetadataLocation: "x"}))

	_, err = f.catalog.LoadTable(ctx, ident(t, "a.b"))
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)
	_, err = f.catalog.LoadTable(ctx, ident(t, "a.v"))
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)
	exists, err := f.catalog.TableExists(ctx, ident(t, "a.v"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegisterTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)

	meta := tableio.NewTableMetadata(warehouse+"/ext/t", creation("t").Schema, nil, nil, nil, now)
	meta.CurrentSnapshot = 42
	location := tableio.MetadataLocation(warehouse+"/ext/t", 3)
	require.NoError(t, f.fileIO.WriteMetadata(ctx, location, meta))

	table, err := f.catalog.RegisterTable(ctx, ident(t, "a.t"), location)
	require.NoError(t, err)
	require.NotNil(t, table.Content.SnapshotID)
	assert.Equal(t, int64(42), *table.Content.SnapshotID)

	_, err = f.catalog.RegisterTable(ctx, ident(t, "a.t"), location)
	assert.ErrorIs(t, err, catalogerr.ErrAlreadyExists)

	_, err = f.catalog.RegisterTable(ctx, ident(t, "a.u"), warehouse+"/ext/u/metadata/00000-x.metadata.json")
	assert.ErrorIs(t, err, catalogerr.ErrNotFound)
}

func TestUpdateTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.NoError(t, err)
	created, err := f.catalog.CreateTable(ctx, key("a"), creation("t"))
	require.NoError(t, err)

	next := *created.Metadata
	next.CurrentSnapshot = 7
	updated, err := f.catalog.UpdateTable(ctx, catalog.TableCommit{
		Ident:       ident(t, "a.t"),
		Requirement: created.MetadataLocation,
		Metadata:    &next,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tableio.MetadataVersion(updated.MetadataLocation))
	assert.Equal(t, created.Content.ID, updated.Content.ID)
	require.Len(t, updated.Metadata.MetadataLog, 1)
	assert.Equal(t, created.MetadataLocation, updated.Metadata.MetadataLog[0].MetadataFile)
	assert.Empty(t, next.MetadataLog, "input is not modified")

	loaded, err := f.catalog.LoadTable(ctx, ident(t, "a.t"))
	require.NoError(t, err)
	assert.Equal(t, updated.MetadataLocation, loaded.MetadataLocation)
	assert.Equal(t, int64(7), *loaded.Content.SnapshotID)

	// stale requirement
	_, err = f.catalog.UpdateTable(ctx, catalog.TableCommit{
		Ident:       ident(t, "a.t"),
		Requirement: created.MetadataLocation,
		Metadata:    &next,
	})
	assert.ErrorIs(t, err, catalogerr.ErrConcurrentModification)

	_, err = f.catalog.UpdateTable(ctx, catalog.TableCommit{Ident: ident(t, "a.t")})
	assert.ErrorIs(t, err, catalogerr.ErrValidation)
}

func TestCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.catalog.CreateNamespace(ctx, key("a"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.srv.Commits("main"))
}

func TestTableIdent(t *testing.T) {
	id, err := catalog.ParseTableIdent("a.b.t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, id.Namespace.Elements)
	assert.Equal(t, "t", id.Name)
	assert.Equal(t, "a.b.t", id.String())

	_, err = catalog.ParseTableIdent("t")
	assert.ErrorIs(t, err, catalogerr.ErrValidation)

	_, err = catalog.NewTableIdent(content.Key{}, "t")
	assert.ErrorIs(t, err, catalogerr.ErrValidation)
}
