package handler

// Route type
type Route string

const (
	// RouteListNamespaces list namespaces, optionally below a parent
	RouteListNamespaces Route = "listNamespaces"
	// RouteCreateNamespace create a namespace marker
	RouteCreateNamespace Route = "createNamespace"
	// RouteLoadNamespace namespace with its properties
	RouteLoadNamespace Route = "loadNamespace"
	// RouteNamespaceExists existence check without body
	RouteNamespaceExists Route = "namespaceExists"
	// RouteDropNamespace drop a namespace, cascading on request
	RouteDropNamespace Route = "dropNamespace"
	// RouteUpdateProperties replace the namespace properties
	RouteUpdateProperties Route = "updateProperties"
	// RouteListTables tables of a namespace
	RouteListTables Route = "listTables"
	// RouteCreateTable create a table
	RouteCreateTable Route = "createTable"
	// RouteRegisterTable register an existing metadata file
	RouteRegisterTable Route = "registerTable"
	// RouteLoadTable table with its metadata
	RouteLoadTable Route = "loadTable"
	// RouteTableExists existence check without body
	RouteTableExists Route = "tableExists"
	// RouteUpdateTable move the metadata pointer
	RouteUpdateTable Route = "updateTable"
	// RouteDropTable drop a table, purging on request
	RouteDropTable Route = "dropTable"
	// RouteRenameTable atomic rename
	RouteRenameTable Route = "renameTable"
)
