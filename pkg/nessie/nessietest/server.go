// Package nessietest provides an in-memory versioned store speaking the v2 REST
// api, for tests of the client and everything built on top of it.
package nessietest

import (
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/nessie"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/zeebo/blake3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIPrefix path of the api root on the test server
const APIPrefix = "/api/v2"

// DefaultBranch branch created on startup
const DefaultBranch = "main"

type (
	Server struct {
		httpServer *httptest.Server
		mu         sync.Mutex
		pageSize   int
		refs       map[string]*ref
		commits    map[string]*commit
		emptyHash  string
		seq        int
		onCommit   func(branch string)
	}
	Option func(*Server)
	ref    struct {
		typ  content.ReferenceType
		hash string
	}
	commit struct {
		hash   string
		parent string
		meta   content.CommitMeta
		ops    []content.Operation
		tree   map[string]stored
	}
	stored struct {
		key     content.Key
		content content.Content
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New starts a server that is closed with the test
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	inst := &Server{
		pageSize: 100,
		refs:     map[string]*ref{},
		commits:  map[string]*commit{},
	}
	for _, opt := range opts {
		opt(inst)
	}

	root := &commit{tree: map[string]stored{}}
	root.hash = hashOf(nil)
	inst.emptyHash = root.hash
	inst.commits[root.hash] = root
	inst.refs[DefaultBranch] = &ref{typ: content.ReferenceTypeBranch, hash: root.hash}

	inst.httpServer = httptest.NewServer(inst.router())
	t.Cleanup(inst.httpServer.Close)
	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithPageSize number of items per page of every listing
func WithPageSize(v int) Option {
	return func(o *Server) {
		o.pageSize = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// URL api root to pass to nessie.New
func (s *Server) URL() string {
	return s.httpServer.URL + APIPrefix
}

// Client underlying http client of the test server
func (s *Server) Client() *http.Client {
	return s.httpServer.Client()
}

// Close shuts the server down, requests fail with transport errors afterwards
func (s *Server) Close() {
	s.httpServer.Close()
}

// Head current hash of a reference
func (s *Server) Head(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.refs[name]; ok {
		return r.hash
	}
	return ""
}

// EmptyHash hash of the initial empty commit
func (s *Server) EmptyHash() string {
	return s.emptyHash
}

// Commits number of commits reachable from the reference
func (s *Server) Commits(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refs[name]
	if !ok {
		return 0
	}
	return len(s.history(r.hash))
}

// OnCommit registers fn to be called before a commit request is processed.
// Committing from inside fn simulates a concurrent writer.
func (s *Server) OnCommit(fn func(branch string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCommit = fn
}

// Seed commits ops onto the head of branch, bypassing the api
func (s *Server) Seed(branch string, ops ...content.Operation) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.refs[branch]
	c, err := s.apply(branch, r.hash, content.Operations{
		CommitMeta: content.NewCommitMeta("seed", "seed", time.Now()),
		Operations: ops,
	})
	if err != nil {
		panic(err.message)
	}
	return c.hash
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route(APIPrefix+"/trees", func(r chi.Router) {
		r.Get("/", s.listReferences)
		r.Post("/", s.createReference)
		r.Get("/{ref}", s.getReference)
		r.Delete("/{ref}", s.deleteReference)
		r.Get("/{ref}/entries", s.listEntries)
		r.Get("/{ref}/contents/{key}", s.getContent)
		r.Post("/{ref}/history/commit", s.commit)
		r.Get("/{ref}/history", s.commitLog)
	})
	return r
}

type apiError struct {
	status    int
	code      string
	message   string
	conflicts []nessie.Conflict
}

func notFound(code, message string) *apiError {
	return &apiError{status: http.StatusNotFound, code: code, message: message}
}

func conflict(code, message string, conflicts ...nessie.Conflict) *apiError {
	return &apiError{status: http.StatusConflict, code: code, message: message, conflicts: conflicts}
}

func badRequest(message string) *apiError {
	return &apiError{status: http.StatusBadRequest, code: nessie.ErrorCodeBadRequest, message: message}
}

func writeError(w http.ResponseWriter, e *apiError) {
	body := nessie.ErrorBody{
		Status:    e.status,
		Reason:    http.StatusText(e.status),
		Message:   e.message,
		ErrorCode: e.code,
	}
	if len(e.conflicts) > 0 {
		body.ErrorDetails = &nessie.ErrorDetails{Conflicts: e.conflicts}
	}
	writeJSON(w, e.status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// resolve turns name or name@hash into the reference and the commit it denotes
func (s *Server) resolve(spec string) (string, *ref, *commit, *apiError) {
	name, hash, err := content.ParseReferenceSpec(spec)
	if err != nil {
		return "", nil, nil, badRequest(err.Error())
	}
	r, ok := s.refs[name]
	if !ok {
		return "", nil, nil, notFound(nessie.ErrorCodeReferenceNotFound, "Named reference '"+name+"' not found")
	}
	if hash == "" {
		hash = r.hash
	}
	c, ok := s.commits[hash]
	if !ok {
		return "", nil, nil, notFound(nessie.ErrorCodeReferenceNotFound, "Commit '"+hash+"' not found")
	}
	return name, r, c, nil
}

func refParam(r *http.Request) string {
	v := chi.URLParam(r, "ref")
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func (s *Server) reference(name string, r *ref) content.Reference {
	return content.Reference{Type: r.typ, Name: name, Hash: r.hash}
}

// page slices items according to the page-token and max-records parameters
func page[T any](s *Server, r *http.Request, items []T) ([]T, bool, string) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("page-token"))
	size := s.pageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("max-records")); err == nil && v > 0 && (size <= 0 || v < size) {
		size = v
	}
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if size <= 0 || len(items) <= size {
		return items, false, ""
	}
	return items[:size], true, strconv.Itoa(offset + size)
}

func (s *Server) listReferences(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var refs []content.Reference
	for name, ref := range s.refs {
		refs = append(refs, s.reference(name, ref))
	}
	slices.SortFunc(refs, func(a, b content.Reference) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	items, hasMore, token := page(s, r, refs)
	writeJSON(w, http.StatusOK, nessie.ReferencesResponse{HasMore: hasMore, Token: token, References: items})
}

func (s *Server) getReference(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ref, _, apiErr := s.resolve(refParam(r))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, nessie.SingleReferenceResponse{Reference: s.reference(name, ref)})
}

func (s *Server) createReference(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	typ, err := content.ParseReferenceType(r.URL.Query().Get("type"))
	if err != nil || name == "" {
		writeError(w, badRequest("name and type are required"))
		return
	}
	var source content.Reference
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		if err := json.Unmarshal(data, &source); err != nil {
			writeError(w, badRequest(err.Error()))
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refs[name]; ok {
		writeError(w, conflict(nessie.ErrorCodeReferenceAlreadyExists, "Named reference '"+name+"' already exists."))
		return
	}
	hash := s.emptyHash
	switch {
	case source.Hash != "":
		if _, ok := s.commits[source.Hash]; !ok {
			writeError(w, notFound(nessie.ErrorCodeReferenceNotFound, "Commit '"+source.Hash+"' not found"))
			return
		}
		hash = source.Hash
	case source.Name != "":
		src, ok := s.refs[source.Name]
		if !ok {
			writeError(w, notFound(nessie.ErrorCodeReferenceNotFound, "Named reference '"+source.Name+"' not found"))
			return
		}
		hash = src.hash
	}
	created := &ref{typ: typ, hash: hash}
	s.refs[name] = created
	writeJSON(w, http.StatusOK, nessie.SingleReferenceResponse{Reference: s.reference(name, created)})
}

func (s *Server) deleteReference(w http.ResponseWriter, r *http.Request) {
	name, hash, err := content.ParseReferenceSpec(refParam(r))
	if err != nil || hash == "" {
		writeError(w, badRequest("expected hash required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.refs[name]
	switch {
	case !ok:
		writeError(w, notFound(nessie.ErrorCodeReferenceNotFound, "Named reference '"+name+"' not found"))
	case name == DefaultBranch:
		writeError(w, badRequest("Default branch '"+name+"' cannot be deleted."))
	case existing.hash != hash:
		writeError(w, conflict(nessie.ErrorCodeReferenceConflict, "Named-reference '"+name+"' is not at expected hash '"+hash+"', but at '"+existing.hash+"'."))
	default:
		delete(s.refs, name)
		writeJSON(w, http.StatusOK, nessie.SingleReferenceResponse{Reference: s.reference(name, existing)})
	}
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ref, c, apiErr := s.resolve(refParam(r))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	entries := make([]content.Entry, 0, len(c.tree))
	for _, v := range c.tree {
		entries = append(entries, content.Entry{Name: v.key, Type: v.content.Type(), ContentID: v.content.ContentID()})
	}
	slices.SortFunc(entries, func(a, b content.Entry) int {
		return a.Name.Compare(b.Name)
	})
	items, hasMore, token := page(s, r, entries)
	effective := content.Reference{Type: ref.typ, Name: name, Hash: c.hash}
	writeJSON(w, http.StatusOK, nessie.EntriesResponse{HasMore: hasMore, Token: token, Entries: items, EffectiveReference: &effective})
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	rawKey, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, badRequest(err.Error()))
		return
	}
	key, err := content.ParseKey(rawKey)
	if err != nil {
		writeError(w, badRequest(err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	name, ref, c, apiErr := s.resolve(refParam(r))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	v, ok := c.tree[key.String()]
	if !ok {
		writeError(w, notFound(nessie.ErrorCodeContentNotFound, "Could not find content for key '"+key.String()+"' in reference '"+name+"'."))
		return
	}
	effective := content.Reference{Type: ref.typ, Name: name, Hash: c.hash}
	writeJSON(w, http.StatusOK, nessie.ContentResponse{Content: content.Wire{Content: v.content}, EffectiveReference: &effective})
}

func (s *Server) commit(w http.ResponseWriter, r *http.Request) {
	name, hash, err := content.ParseReferenceSpec(refParam(r))
	if err != nil || hash == "" {
		writeError(w, badRequest("expected hash required"))
		return
	}
	var ops content.Operations
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(data, &ops)
	}
	if err != nil {
		writeError(w, badRequest(err.Error()))
		return
	}

	s.mu.Lock()
	hook := s.onCommit
	s.mu.Unlock()
	if hook != nil {
		hook(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, apiErr := s.apply(name, hash, ops)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	resp := content.CommitResponse{TargetBranch: s.reference(name, s.refs[name])}
	parent := s.commits[c.parent]
	for _, op := range c.ops {
		if op.Type != content.OperationTypePut {
			continue
		}
		if _, existed := parent.tree[op.Key.String()]; !existed {
			resp.AddedContents = append(resp.AddedContents, content.AddedContent{Key: op.Key, ContentID: c.tree[op.Key.String()].content.ContentID()})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// apply validates ops against the head of branch and stores the new commit.
// Callers hold the lock.
func (s *Server) apply(name, expected string, ops content.Operations) (*commit, *apiError) {
	r, ok := s.refs[name]
	if !ok {
		return nil, notFound(nessie.ErrorCodeReferenceNotFound, "Named reference '"+name+"' not found")
	}
	if r.typ != content.ReferenceTypeBranch {
		return nil, badRequest("Can only commit to branches, '" + name + "' is a " + string(r.typ))
	}
	if len(ops.Operations) == 0 {
		return nil, badRequest("operations must not be empty")
	}
	if r.hash != expected {
		return nil, conflict(nessie.ErrorCodeReferenceConflict,
			"Expected hash '"+expected+"' of '"+name+"' does not match current hash '"+r.hash+"'",
			nessie.Conflict{ConflictType: nessie.ConflictTypeUnexpectedHash, Message: "hash mismatch"},
		)
	}

	parent := s.commits[r.hash]
	tree := make(map[string]stored, len(parent.tree))
	for k, v := range parent.tree {
		tree[k] = v
	}
	var conflicts []nessie.Conflict
	for _, op := range ops.Operations {
		key := op.Key
		existing, exists := tree[key.String()]
		switch op.Type {
		case content.OperationTypeDelete:
			if !exists {
				conflicts = append(conflicts, nessie.Conflict{ConflictType: nessie.ConflictTypeKeyDoesNotExist, Key: &key, Message: "key '" + key.String() + "' does not exist"})
				continue
			}
			delete(tree, key.String())
		case content.OperationTypePut:
			if op.Content == nil {
				return nil, badRequest("put without content for '" + key.String() + "'")
			}
			id := op.Content.ContentID()
			switch {
			case exists && id != existing.content.ContentID():
				conflicts = append(conflicts, nessie.Conflict{ConflictType: nessie.ConflictTypeKeyExists, Key: &key, Message: "key '" + key.String() + "' already exists"})
				continue
			case id == "":
				id = uuid.New().String()
			}
			tree[key.String()] = stored{key: key, content: content.WithID(op.Content, id)}
		default:
			return nil, badRequest("unknown operation type " + string(op.Type))
		}
	}
	if len(conflicts) > 0 {
		return nil, conflict(nessie.ErrorCodeReferenceConflict, "There are conflicts that prevent committing the provided operations", conflicts...)
	}

	s.seq++
	meta := ops.CommitMeta
	now := time.Now().UTC()
	meta.CommitTime = &now
	if meta.Committer == "" {
		meta.Committer = meta.Author
	}
	payload, err := json.Marshal(ops)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	c := &commit{
		parent: parent.hash,
		meta:   meta,
		ops:    ops.Operations,
		tree:   tree,
	}
	c.hash = hashOf([]byte(parent.hash), []byte(strconv.Itoa(s.seq)), payload)
	c.meta.Hash = c.hash
	s.commits[c.hash] = c
	r.hash = c.hash
	return c, nil
}

// history walks from hash to the root, newest first. The root is not part of it.
func (s *Server) history(hash string) []*commit {
	var ret []*commit
	for hash != s.emptyHash {
		c, ok := s.commits[hash]
		if !ok {
			break
		}
		ret = append(ret, c)
		hash = c.parent
	}
	return ret
}

func (s *Server) commitLog(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, c, apiErr := s.resolve(refParam(r))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	var entries []content.LogEntry
	for _, h := range s.history(c.hash) {
		entries = append(entries, content.LogEntry{CommitMeta: h.meta, ParentCommitHash: h.parent, Operations: h.ops})
	}
	items, hasMore, token := page(s, r, entries)
	writeJSON(w, http.StatusOK, nessie.LogResponse{HasMore: hasMore, Token: token, LogEntries: items})
}

func hashOf(parts ...[]byte) string {
	h := blake3.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
