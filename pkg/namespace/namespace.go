// Package namespace derives the namespace hierarchy from a flat key listing.
// The versioned store only knows keys: a namespace exists either explicitly as
// its own marker entry or implicitly as the prefix of a nested key.
package namespace

import (
	"slices"

	"github.com/foomo/nessiecatalog/content"
)

// Infer returns every namespace implied by entries, de-duplicated by segment
// equality and sorted. Explicit markers are included as well as every proper
// prefix of every key.
func Infer(entries []content.Entry) []content.Key {
	seen := map[string]content.Key{}
	add := func(elements []string) {
		k := content.Key{Elements: slices.Clone(elements)}
		seen[k.String()] = k
	}
	for _, entry := range entries {
		elements := entry.Name.Elements
		if entry.Type == content.TypeNamespace && len(elements) > 0 {
			add(elements)
		}
		for i := 1; i < len(elements); i++ {
			add(elements[:i])
		}
	}
	return sorted(seen)
}

// Exists reports whether ns is a strict prefix of an entry key or is stored as
// an explicit namespace marker.
func Exists(entries []content.Entry, ns content.Key) bool {
	if ns.IsEmpty() {
		return false
	}
	for _, entry := range entries {
		if ns.IsStrictPrefixOf(entry.Name) {
			return true
		}
		if entry.Type == content.TypeNamespace && ns.Equal(entry.Name) {
			return true
		}
	}
	return false
}

// Explicit returns the marker entry for ns, if one is stored
func Explicit(entries []content.Entry, ns content.Key) (content.Entry, bool) {
	for _, entry := range entries {
		if entry.Type == content.TypeNamespace && ns.Equal(entry.Name) {
			return entry, true
		}
	}
	return content.Entry{}, false
}

// Children filters namespaces to the ones nested below parent, direct and
// transitive. An empty parent returns all namespaces.
func Children(namespaces []content.Key, parent content.Key) []content.Key {
	if parent.IsEmpty() {
		return namespaces
	}
	var ret []content.Key
	for _, ns := range namespaces {
		if parent.IsStrictPrefixOf(ns) {
			ret = append(ret, ns)
		}
	}
	return ret
}

// Within returns all entries whose key is nested below ns
func Within(entries []content.Entry, ns content.Key) []content.Entry {
	var ret []content.Entry
	for _, entry := range entries {
		if ns.IsStrictPrefixOf(entry.Name) {
			ret = append(ret, entry)
		}
	}
	return ret
}

// Tables returns the keys of tables directly inside ns, sorted
func Tables(entries []content.Entry, ns content.Key) []content.Key {
	seen := map[string]content.Key{}
	for _, entry := range entries {
		if !IsTable(entry.Type) || entry.Name.Len() != ns.Len()+1 || !entry.Name.HasPrefix(ns) {
			continue
		}
		seen[entry.Name.String()] = entry.Name
	}
	return sorted(seen)
}

// Find returns the entry stored at key
func Find(entries []content.Entry, key content.Key) (content.Entry, bool) {
	for _, entry := range entries {
		if entry.Name.Equal(key) {
			return entry, true
		}
	}
	return content.Entry{}, false
}

// IsTable reports whether typ denotes a table like object
func IsTable(typ content.Type) bool {
	return typ == content.TypeIcebergTable
}

func sorted(m map[string]content.Key) []content.Key {
	ret := make([]content.Key, 0, len(m))
	for _, k := range m {
		ret = append(ret, k)
	}
	slices.SortFunc(ret, func(a, b content.Key) int {
		return a.Compare(b)
	})
	return ret
}
