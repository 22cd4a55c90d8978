package handler

import (
	"github.com/foomo/nessiecatalog/pkg/catalog"
	"github.com/foomo/nessiecatalog/pkg/tableio"
)

type (
	NamespaceRequest struct {
		Namespace  []string          `json:"namespace"`
		Properties map[string]string `json:"properties,omitempty"`
	}
	NamespaceResponse struct {
		Namespace  []string          `json:"namespace"`
		Properties map[string]string `json:"properties"`
	}
	ListNamespacesResponse struct {
		Namespaces [][]string `json:"namespaces"`
	}
	UpdatePropertiesRequest struct {
		Properties map[string]string `json:"properties"`
	}
	TableIdentifier struct {
		Namespace []string `json:"namespace"`
		Name      string   `json:"name"`
	}
	ListTablesResponse struct {
		Identifiers []TableIdentifier `json:"identifiers"`
	}
	CreateTableRequest struct {
		Name          string                 `json:"name"`
		Location      string                 `json:"location,omitempty"`
		Schema        tableio.Schema         `json:"schema"`
		PartitionSpec *tableio.PartitionSpec `json:"partition-spec,omitempty"`
		WriteOrder    *tableio.SortOrder     `json:"write-order,omitempty"`
		Properties    map[string]string      `json:"properties,omitempty"`
	}
	RegisterTableRequest struct {
		Name             string `json:"name"`
		MetadataLocation string `json:"metadata-location"`
	}
	CommitTableRequest struct {
		Requirement      string                 `json:"requirement,omitempty"`
		Metadata         *tableio.TableMetadata `json:"metadata,omitempty"`
		MetadataLocation string                 `json:"metadata-location,omitempty"`
	}
	LoadTableResponse struct {
		MetadataLocation string                 `json:"metadata-location"`
		Metadata         *tableio.TableMetadata `json:"metadata,omitempty"`
		ContentID        string                 `json:"content-id,omitempty"`
	}
	RenameTableRequest struct {
		Source      TableIdentifier `json:"source"`
		Destination TableIdentifier `json:"destination"`
	}
	ErrorResponse struct {
		Error ErrorModel `json:"error"`
	}
	ErrorModel struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	}
)

func newNamespaceResponse(ns *catalog.Namespace) NamespaceResponse {
	props := ns.Properties
	if props == nil {
		props = map[string]string{}
	}
	return NamespaceResponse{Namespace: ns.Ident.Elements, Properties: props}
}

func newTableIdentifier(ident catalog.TableIdent) TableIdentifier {
	return TableIdentifier{Namespace: ident.Namespace.Elements, Name: ident.Name}
}

func newLoadTableResponse(table *catalog.Table) LoadTableResponse {
	ret := LoadTableResponse{
		MetadataLocation: table.MetadataLocation,
		Metadata:         table.Metadata,
	}
	if table.Content != nil {
		ret.ContentID = table.Content.ID
	}
	return ret
}
