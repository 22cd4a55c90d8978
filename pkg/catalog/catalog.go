package catalog

import (
	"context"
	"strings"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/tableio"
)

// Catalog is the table catalog capability set exposed to query engines
type Catalog interface {
	ListNamespaces(ctx context.Context, parent content.Key) ([]content.Key, error)
	CreateNamespace(ctx context.Context, ns content.Key, properties map[string]string) (*Namespace, error)
	GetNamespace(ctx context.Context, ns content.Key) (*Namespace, error)
	NamespaceExists(ctx context.Context, ns content.Key) (bool, error)
	// UpdateNamespace replaces all properties, it does not merge
	UpdateNamespace(ctx context.Context, ns content.Key, properties map[string]string) (*Namespace, error)
	DropNamespace(ctx context.Context, ns content.Key, cascade bool) error

	ListTables(ctx context.Context, ns content.Key) ([]TableIdent, error)
	CreateTable(ctx context.Context, ns content.Key, creation TableCreation) (*Table, error)
	LoadTable(ctx context.Context, ident TableIdent) (*Table, error)
	TableExists(ctx context.Context, ident TableIdent) (bool, error)
	// DropTable removes the table from the catalog, purge also deletes its files
	DropTable(ctx context.Context, ident TableIdent, purge bool) error
	RenameTable(ctx context.Context, src, dst TableIdent) error
	RegisterTable(ctx context.Context, ident TableIdent, metadataLocation string) (*Table, error)
	UpdateTable(ctx context.Context, commit TableCommit) (*Table, error)
}

type (
	// Namespace with the properties stored on its marker. Namespaces that only
	// exist as the prefix of a table key have no properties.
	Namespace struct {
		Ident      content.Key
		Properties map[string]string
		Explicit   bool
	}
	// TableIdent namespace and name of a table
	TableIdent struct {
		Namespace content.Key
		Name      string
	}
	// TableCreation describes a new table. Location overrides the default
	// location below the warehouse, nil PartitionSpec and SortOrder create an
	// unpartitioned, unsorted table.
	TableCreation struct {
		Name          string
		Location      string
		Schema        tableio.Schema
		PartitionSpec *tableio.PartitionSpec
		SortOrder     *tableio.SortOrder
		Properties    map[string]string
	}
	// Table a resolved table. Metadata is nil if no FileIO is configured.
	Table struct {
		Ident            TableIdent
		MetadataLocation string
		Content          *content.IcebergTable
		Metadata         *tableio.TableMetadata
	}
	// TableCommit moves the metadata pointer of a table. Requirement is the
	// metadata location the caller based its change on; an empty Requirement
	// skips the check. Either Metadata is written to a new location, or an
	// already written MetadataLocation is committed as is.
	TableCommit struct {
		Ident            TableIdent
		Requirement      string
		Metadata         *tableio.TableMetadata
		MetadataLocation string
	}
)

// NewTableIdent validates the namespace and name
func NewTableIdent(ns content.Key, name string) (TableIdent, error) {
	ident := TableIdent{Namespace: ns, Name: name}
	if _, err := ident.Key(); err != nil {
		return TableIdent{}, err
	}
	return ident, nil
}

// ParseTableIdent splits a flattened table key, the last element is the name
func ParseTableIdent(s string) (TableIdent, error) {
	key, err := content.ParseKey(s)
	if err != nil {
		return TableIdent{}, err
	}
	ns, ok := key.Parent()
	if !ok {
		return TableIdent{}, catalogerr.NewValidationError("table", "%q has no namespace", s)
	}
	return TableIdent{Namespace: ns, Name: key.Name()}, nil
}

// Key content key of the table
func (t TableIdent) Key() (content.Key, error) {
	ns, err := validKey(t.Namespace)
	if err != nil {
		return content.Key{}, err
	}
	return ns.Child(t.Name)
}

func (t TableIdent) String() string {
	if t.Namespace.IsEmpty() {
		return t.Name
	}
	return strings.Join(append(append([]string{}, t.Namespace.Elements...), t.Name), content.KeySeparator)
}

// validKey revalidates keys built without NewKey
func validKey(k content.Key) (content.Key, error) {
	return content.NewKey(k.Elements...)
}
