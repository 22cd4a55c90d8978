package namespace_test

import (
	"testing"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(typ content.Type, elements ...string) content.Entry {
	return content.Entry{Name: content.MustKey(elements...), Type: typ}
}

func keys(ks []content.Key) []string {
	ret := make([]string, 0, len(ks))
	for _, k := range ks {
		ret = append(ret, k.String())
	}
	return ret
}

func TestInfer(t *testing.T) {
	entries := []content.Entry{
		entry(content.TypeIcebergTable, "a", "b", "mytable"),
	}
	assert.Equal(t, []string{"a", "a.b"}, keys(namespace.Infer(entries)))
}

func TestInferDeduplicates(t *testing.T) {
	entries := []content.Entry{
		entry(content.TypeNamespace, "a"),
		entry(content.TypeIcebergTable, "a", "t1"),
		entry(content.TypeIcebergTable, "a", "t2"),
		entry(content.TypeNamespace, "x", "y"),
		entry(content.TypeIcebergTable, "top"),
	}
	assert.Equal(t, []string{"a", "x", "x.y"}, keys(namespace.Infer(entries)))
}

func TestInferPrefixProperty(t *testing.T) {
	entries := []content.Entry{
		entry(content.TypeIcebergTable, "a", "b", "c", "t"),
		entry(content.TypeIcebergView, "a", "v"),
		entry(content.TypeIcebergTable, "z", "t"),
		entry(content.Type("OTHER"), "q", "r", "s"),
	}
	for _, ns := range namespace.Infer(entries) {
		require.GreaterOrEqual(t, ns.Len(), 1)
		found := false
		for _, e := range entries {
			if ns.IsStrictPrefixOf(e.Name) {
				found = true
			}
		}
		assert.True(t, found, "namespace %s is not a prefix of any entry", ns)
	}
}

func TestExists(t *testing.T) {
	entries := []content.Entry{
		entry(content.TypeIcebergTable, "a", "b", "mytable"),
		entry(content.TypeNamespace, "explicit"),
		entry(content.TypeIcebergTable, "lonely"),
	}
	assert.True(t, namespace.Exists(entries, content.MustKey("a")))
	assert.True(t, namespace.Exists(entries, content.MustKey("a", "b")))
	assert.False(t, namespace.Exists(entries, content.MustKey("a", "b", "c")))
	assert.False(t, namespace.Exists(entries, content.MustKey("a", "b", "mytable")), "a table is not a namespace")
	assert.True(t, namespace.Exists(entries, content.MustKey("explicit")))
	assert.False(t, namespace.Exists(entries, content.MustKey("lonely")))
	assert.False(t, namespace.Exists(entries, content.Key{}))
}

func TestExplicit(t *testing.T) {
	entries := []content.Entry{
		entry(content.TypeIcebergTable, "a", "t"),
		{Name: content.MustKey("b"), Type: content.TypeNamespace, ContentID: "n-1"},
	}
	_, ok := namespace.Explicit(entries, content.MustKey("a"))
	assert.False(t, ok)
	e, ok := namespace.Explicit(entries, content.MustKey("b"))
	require.True(t, ok)
	assert.Equal(t, "n-1", e.ContentID)
}

func TestChildren(t *testing.T) {
	all := []content.Key{
		content.MustKey("a"),
		content.MustKey("a", "b"),
		content.MustKey("a", "b", "c"),
		content.MustKey("ab"),
	}
	assert.Equal(t, []string{"a.b", "a.b.c"}, keys(namespace.Children(all, content.MustKey("a"))))
	assert.Equal(t, []string{"a.b.c"}, keys(namespace.Children(all, content.MustKey("a", "b"))))
	assert.Empty(t, namespace.Children(all, content.MustKey("x")))
	assert.Len(t, namespace.Children(all, content.Key{}), 4)
}

func TestWithinAndTables(t *testing.T) {
	entries := []content.Entry{
		entry(content.TypeNamespace, "a"),
		entry(content.TypeIcebergTable, "a", "t1"),
		entry(content.TypeIcebergTable, "a", "b", "t2"),
		entry(content.TypeIcebergView, "a", "v"),
		entry(content.TypeIcebergTable, "ab", "t3"),
	}
	within := namespace.Within(entries, content.MustKey("a"))
	assert.Len(t, within, 3)

	assert.Equal(t, []string{"a.t1"}, keys(namespace.Tables(entries, content.MustKey("a"))))
	assert.Equal(t, []string{"a.b.t2"}, keys(namespace.Tables(entries, content.MustKey("a", "b"))))

	e, ok := namespace.Find(entries, content.MustKey("a", "v"))
	require.True(t, ok)
	assert.Equal(t, content.TypeIcebergView, e.Type)
	_, ok = namespace.Find(entries, content.MustKey("a", "missing"))
	assert.False(t, ok)
}
