package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalog"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/metrics"
	httputils "github.com/foomo/keel/utils/net/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	HTTP struct {
		l       *zap.Logger
		path    string
		catalog catalog.Catalog
		router  chi.Router
	}
	HTTPOption func(*HTTP)
	// handlerFunc returns the status and reply of a route. A nil reply writes
	// no body.
	handlerFunc func(r *http.Request) (int, any, error)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns the catalog http api
func NewHTTP(l *zap.Logger, cat catalog.Catalog, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:       l.Named("http"),
		path:    "/v1",
		catalog: cat,
	}

	for _, opt := range opts {
		opt(inst)
	}

	inst.router = inst.routes()

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithPath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// StatusCode maps a catalog error to the http status returned to clients
func StatusCode(err error) int {
	switch catalogerr.Kind(err) {
	case catalogerr.ErrValidation:
		return http.StatusBadRequest
	case catalogerr.ErrNotFound:
		return http.StatusNotFound
	case catalogerr.ErrAlreadyExists,
		catalogerr.ErrConflict,
		catalogerr.ErrConcurrentModification,
		catalogerr.ErrNotEmpty:
		return http.StatusConflict
	case catalogerr.ErrTransport, catalogerr.ErrProtocol, catalogerr.ErrDecode:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route(h.path, func(r chi.Router) {
		r.Get("/namespaces", h.handle(RouteListNamespaces, h.listNamespaces))
		r.Post("/namespaces", h.handle(RouteCreateNamespace, h.createNamespace))
		r.Get("/namespaces/{namespace}", h.handle(RouteLoadNamespace, h.loadNamespace))
		r.Head("/namespaces/{namespace}", h.handle(RouteNamespaceExists, h.namespaceExists))
		r.Delete("/namespaces/{namespace}", h.handle(RouteDropNamespace, h.dropNamespace))
		r.Post("/namespaces/{namespace}/properties", h.handle(RouteUpdateProperties, h.updateProperties))
		r.Get("/namespaces/{namespace}/tables", h.handle(RouteListTables, h.listTables))
		r.Post("/namespaces/{namespace}/tables", h.handle(RouteCreateTable, h.createTable))
		r.Post("/namespaces/{namespace}/register", h.handle(RouteRegisterTable, h.registerTable))
		r.Get("/namespaces/{namespace}/tables/{table}", h.handle(RouteLoadTable, h.loadTable))
		r.Head("/namespaces/{namespace}/tables/{table}", h.handle(RouteTableExists, h.tableExists))
		r.Post("/namespaces/{namespace}/tables/{table}", h.handle(RouteUpdateTable, h.updateTable))
		r.Delete("/namespaces/{namespace}/tables/{table}", h.handle(RouteDropTable, h.dropTable))
		r.Post("/tables/rename", h.handle(RouteRenameTable, h.renameTable))
	})

	return r
}

func (h *HTTP) handle(route Route, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		status, reply, err := fn(r)
		if err != nil {
			status = StatusCode(err)
		}

		metrics.ServiceRequestCounter.WithLabelValues(string(route), strconv.Itoa(status)).Inc()
		metrics.ServiceRequestDuration.WithLabelValues(string(route), strconv.Itoa(status)).Observe(time.Since(start).Seconds())

		switch {
		case err != nil && status >= http.StatusInternalServerError:
			httputils.ServerError(h.l, w, r, status, err)
		case err != nil:
			h.l.Debug("request rejected", zap.String("route", string(route)), zap.Int("status", status), zap.Error(err))
			h.writeError(w, r, status, err)
		case reply == nil || r.Method == http.MethodHead:
			w.WriteHeader(status)
		default:
			h.writeJSON(w, status, reply)
		}
	}
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, reply any) {
	bytes, err := json.Marshal(reply)
	if err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(bytes)
}

func (h *HTTP) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	errType := "InternalError"
	if kind := catalogerr.Kind(err); kind != nil {
		errType = errorType(kind)
	}
	h.writeJSON(w, status, ErrorResponse{Error: ErrorModel{
		Message: err.Error(),
		Type:    errType,
		Code:    status,
	}})
}

func errorType(kind error) string {
	switch {
	case errors.Is(kind, catalogerr.ErrValidation):
		return "BadRequestException"
	case errors.Is(kind, catalogerr.ErrNotFound):
		return "NoSuchEntityException"
	case errors.Is(kind, catalogerr.ErrAlreadyExists):
		return "AlreadyExistsException"
	case errors.Is(kind, catalogerr.ErrNotEmpty):
		return "NamespaceNotEmptyException"
	case errors.Is(kind, catalogerr.ErrConcurrentModification), errors.Is(kind, catalogerr.ErrConflict):
		return "CommitFailedException"
	default:
		return "InternalError"
	}
}

func (h *HTTP) decode(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return catalogerr.NewValidationError("body", "empty request body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return catalogerr.NewValidationError("body", "could not read incoming json: %s", err)
	}
	return nil
}

// namespaceParam parses the dotted namespace path segment
func namespaceParam(r *http.Request) (content.Key, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "namespace"))
	if err != nil {
		return content.Key{}, catalogerr.NewValidationError("namespace", "%s", err)
	}
	return content.ParseKey(raw)
}

func tableParam(r *http.Request) (catalog.TableIdent, error) {
	ns, err := namespaceParam(r)
	if err != nil {
		return catalog.TableIdent{}, err
	}
	name, err := url.PathUnescape(chi.URLParam(r, "table"))
	if err != nil {
		return catalog.TableIdent{}, catalogerr.NewValidationError("table", "%s", err)
	}
	return catalog.NewTableIdent(ns, name)
}

func boolQuery(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, catalogerr.NewValidationError(name, "invalid boolean %q", v)
	}
	return b, nil
}

func keysOf(keys []content.Key) [][]string {
	ret := make([][]string, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, k.Elements)
	}
	return ret
}

// ------------------------------------------------------------------------------------------------
// ~ Namespace routes
// ------------------------------------------------------------------------------------------------

func (h *HTTP) listNamespaces(r *http.Request) (int, any, error) {
	var parent content.Key
	if v := r.URL.Query().Get("parent"); v != "" {
		var err error
		if parent, err = content.ParseKey(v); err != nil {
			return 0, nil, err
		}
	}
	keys, err := h.catalog.ListNamespaces(r.Context(), parent)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, ListNamespacesResponse{Namespaces: keysOf(keys)}, nil
}

func (h *HTTP) createNamespace(r *http.Request) (int, any, error) {
	req := NamespaceRequest{}
	if err := h.decode(r, &req); err != nil {
		return 0, nil, err
	}
	key, err := content.NewKey(req.Namespace...)
	if err != nil {
		return 0, nil, err
	}
	ns, err := h.catalog.CreateNamespace(r.Context(), key, req.Properties)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newNamespaceResponse(ns), nil
}

func (h *HTTP) loadNamespace(r *http.Request) (int, any, error) {
	key, err := namespaceParam(r)
	if err != nil {
		return 0, nil, err
	}
	ns, err := h.catalog.GetNamespace(r.Context(), key)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newNamespaceResponse(ns), nil
}

func (h *HTTP) namespaceExists(r *http.Request) (int, any, error) {
	key, err := namespaceParam(r)
	if err != nil {
		return 0, nil, err
	}
	ok, err := h.catalog.NamespaceExists(r.Context(), key)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, pkgerrors.Wrapf(catalogerr.ErrNotFound, "namespace %s", key)
	}
	return http.StatusNoContent, nil, nil
}

func (h *HTTP) dropNamespace(r *http.Request) (int, any, error) {
	key, err := namespaceParam(r)
	if err != nil {
		return 0, nil, err
	}
	cascade, err := boolQuery(r, "cascade")
	if err != nil {
		return 0, nil, err
	}
	if err := h.catalog.DropNamespace(r.Context(), key, cascade); err != nil {
		return 0, nil, err
	}
	return http.StatusNoContent, nil, nil
}

func (h *HTTP) updateProperties(r *http.Request) (int, any, error) {
	key, err := namespaceParam(r)
	if err != nil {
		return 0, nil, err
	}
	req := UpdatePropertiesRequest{}
	if err := h.decode(r, &req); err != nil {
		return 0, nil, err
	}
	ns, err := h.catalog.UpdateNamespace(r.Context(), key, req.Properties)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newNamespaceResponse(ns), nil
}

// ------------------------------------------------------------------------------------------------
// ~ Table routes
// ------------------------------------------------------------------------------------------------

func (h *HTTP) listTables(r *http.Request) (int, any, error) {
	key, err := namespaceParam(r)
	if err != nil {
		return 0, nil, err
	}
	idents, err := h.catalog.ListTables(r.Context(), key)
	if err != nil {
		return 0, nil, err
	}
	ret := ListTablesResponse{Identifiers: make([]TableIdentifier, 0, len(idents))}
	for _, ident := range idents {
		ret.Identifiers = append(ret.Identifiers, newTableIdentifier(ident))
	}
	return http.StatusOK, ret, nil
}

func (h *HTTP) createTable(r *http.Request) (int, any, error) {
	key, err := namespaceParam(r)
	if err != nil {
		return 0, nil, err
	}
	req := CreateTableRequest{}
	if err := h.decode(r, &req); err != nil {
		return 0, nil, err
	}
	table, err := h.catalog.CreateTable(r.Context(), key, catalog.TableCreation{
		Name:          req.Name,
		Location:      req.Location,
		Schema:        req.Schema,
		PartitionSpec: req.PartitionSpec,
		SortOrder:     req.WriteOrder,
		Properties:    req.Properties,
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newLoadTableResponse(table), nil
}

func (h *HTTP) registerTable(r *http.Request) (int, any, error) {
	key, err := namespaceParam(r)
	if err != nil {
		return 0, nil, err
	}
	req := RegisterTableRequest{}
	if err := h.decode(r, &req); err != nil {
		return 0, nil, err
	}
	ident, err := catalog.NewTableIdent(key, req.Name)
	if err != nil {
		return 0, nil, err
	}
	table, err := h.catalog.RegisterTable(r.Context(), ident, req.MetadataLocation)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newLoadTableResponse(table), nil
}

func (h *HTTP) loadTable(r *http.Request) (int, any, error) {
	ident, err := tableParam(r)
	if err != nil {
		return 0, nil, err
	}
	table, err := h.catalog.LoadTable(r.Context(), ident)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newLoadTableResponse(table), nil
}

func (h *HTTP) tableExists(r *http.Request) (int, any, error) {
	ident, err := tableParam(r)
	if err != nil {
		return 0, nil, err
	}
	ok, err := h.catalog.TableExists(r.Context(), ident)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, pkgerrors.Wrapf(catalogerr.ErrNotFound, "table %s", ident)
	}
	return http.StatusNoContent, nil, nil
}

func (h *HTTP) updateTable(r *http.Request) (int, any, error) {
	ident, err := tableParam(r)
	if err != nil {
		return 0, nil, err
	}
	req := CommitTableRequest{}
	if err := h.decode(r, &req); err != nil {
		return 0, nil, err
	}
	table, err := h.catalog.UpdateTable(r.Context(), catalog.TableCommit{
		Ident:            ident,
		Requirement:      req.Requirement,
		Metadata:         req.Metadata,
		MetadataLocation: req.MetadataLocation,
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, newLoadTableResponse(table), nil
}

func (h *HTTP) dropTable(r *http.Request) (int, any, error) {
	ident, err := tableParam(r)
	if err != nil {
		return 0, nil, err
	}
	purge, err := boolQuery(r, "purgeRequested")
	if err != nil {
		return 0, nil, err
	}
	if err := h.catalog.DropTable(r.Context(), ident, purge); err != nil {
		return 0, nil, err
	}
	return http.StatusNoContent, nil, nil
}

func (h *HTTP) renameTable(r *http.Request) (int, any, error) {
	req := RenameTableRequest{}
	if err := h.decode(r, &req); err != nil {
		return 0, nil, err
	}
	src, err := identOf(req.Source)
	if err != nil {
		return 0, nil, err
	}
	dst, err := identOf(req.Destination)
	if err != nil {
		return 0, nil, err
	}
	if err := h.catalog.RenameTable(r.Context(), src, dst); err != nil {
		return 0, nil, err
	}
	return http.StatusNoContent, nil, nil
}

func identOf(t TableIdentifier) (catalog.TableIdent, error) {
	ns, err := content.NewKey(t.Namespace...)
	if err != nil {
		return catalog.TableIdent{}, err
	}
	return catalog.NewTableIdent(ns, t.Name)
}
