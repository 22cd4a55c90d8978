package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/metrics"
	"github.com/foomo/nessiecatalog/pkg/nessie"
	"github.com/foomo/nessiecatalog/pkg/tableio"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultBranch = "main"
	DefaultAuthor = "nessiecatalog"

	// PropertyApplicationType commit property naming the table format
	PropertyApplicationType = "application-type"
	// PropertyOperation commit property naming the catalog operation
	PropertyOperation = "operation"
)

// Store is the part of the versioned store client the catalog needs
type Store interface {
	GetReference(ctx context.Context, name string) (content.Reference, error)
	ListEntries(ctx context.Context, refSpec string) ([]content.Entry, error)
	GetContent(ctx context.Context, refSpec string, key content.Key) (content.Content, error)
	Commit(ctx context.Context, refSpec string, ops content.Operations) (content.CommitResponse, error)
}

// Nessie implements Catalog on a branch of a versioned store. It holds no
// mutable state and may be shared between goroutines.
type (
	Nessie struct {
		l         *zap.Logger
		store     Store
		branch    string
		warehouse string
		fileIO    tableio.FileIO
		author    string
		clock     func() time.Time
	}
	Option func(*Nessie)
)

var _ Catalog = (*Nessie)(nil)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewNessie(l *zap.Logger, store Store, opts ...Option) *Nessie {
	inst := &Nessie{
		l:      l.Named("catalog"),
		store:  store,
		branch: DefaultBranch,
		author: DefaultAuthor,
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithBranch(v string) Option {
	return func(o *Nessie) {
		o.branch = v
	}
}

// WithWarehouse location prefix for new tables, e.g. s3://bucket/warehouse
func WithWarehouse(v string) Option {
	return func(o *Nessie) {
		o.warehouse = v
	}
}

func WithFileIO(v tableio.FileIO) Option {
	return func(o *Nessie) {
		o.fileIO = v
	}
}

func WithAuthor(v string) Option {
	return func(o *Nessie) {
		o.author = v
	}
}

func WithClock(v func() time.Time) Option {
	return func(o *Nessie) {
		o.clock = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (c *Nessie) Branch() string {
	return c.branch
}

func (c *Nessie) Warehouse() string {
	return c.warehouse
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// head resolves the current hash of the working branch. It is fetched per
// mutation and never cached.
func (c *Nessie) head(ctx context.Context) (content.Reference, error) {
	ref, err := c.store.GetReference(ctx, c.branch)
	if err != nil {
		return content.Reference{}, errors.Wrapf(err, "failed to resolve branch %s", c.branch)
	}
	if ref.Hash == "" {
		return content.Reference{}, errors.Wrapf(catalogerr.ErrProtocol, "branch %s has no hash", c.branch)
	}
	return ref, nil
}

func (c *Nessie) entries(ctx context.Context, refSpec string) ([]content.Entry, error) {
	entries, err := c.store.ListEntries(ctx, refSpec)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list entries of %s", refSpec)
	}
	return entries, nil
}

// table loads the content at key and requires it to be an iceberg table
func (c *Nessie) table(ctx context.Context, refSpec string, ident TableIdent, key content.Key) (*content.IcebergTable, error) {
	v, err := c.store.GetContent(ctx, refSpec, key)
	if errors.Is(err, catalogerr.ErrNotFound) {
		return nil, errors.Wrapf(catalogerr.ErrNotFound, "table %s", ident)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to load table %s", ident)
	}
	table, ok := v.(*content.IcebergTable)
	if !ok {
		return nil, errors.Wrapf(catalogerr.ErrNotFound, "table %s: key holds %s content", ident, v.Type())
	}
	return table, nil
}

// commit submits ops on top of head. A lost race is reported as
// ConcurrentModificationError and never retried.
func (c *Nessie) commit(ctx context.Context, op string, head content.Reference, message string, ops ...content.Operation) (content.CommitResponse, error) {
	meta := content.NewCommitMeta(c.author, message, c.clock())
	meta.Properties[PropertyApplicationType] = "iceberg"
	meta.Properties[PropertyOperation] = op

	l := c.l.With(zap.String("operation", op), zap.String("branch", c.branch), zap.String("expected", head.Hash))
	resp, err := c.store.Commit(ctx, content.RefSpec(c.branch, head.Hash), content.Operations{
		CommitMeta: meta,
		Operations: ops,
	})
	switch {
	case err == nil:
		metrics.CommitCounter.WithLabelValues(op, metrics.ResultSuccess).Inc()
		l.Info("committed", zap.String("hash", resp.TargetBranch.Hash), zap.Int("operations", len(ops)))
		return resp, nil
	case nessie.IsKeyMissingConflict(err):
		metrics.CommitCounter.WithLabelValues(op, metrics.ResultConflict).Inc()
		l.Info("commit rejected, key missing", zap.Error(err))
		return content.CommitResponse{}, fmt.Errorf("%s: %w: %s", op, catalogerr.ErrNotFound, err.Error())
	case errors.Is(err, catalogerr.ErrConflict):
		metrics.CommitCounter.WithLabelValues(op, metrics.ResultConflict).Inc()
		l.Info("commit lost against concurrent modification", zap.Error(err))
		return content.CommitResponse{}, &catalogerr.ConcurrentModificationError{
			Op:       op,
			Ref:      c.branch,
			Expected: head.Hash,
			Err:      err,
		}
	default:
		metrics.CommitCounter.WithLabelValues(op, metrics.ResultError).Inc()
		l.Warn("commit failed", zap.Error(err))
		return content.CommitResponse{}, errors.Wrapf(err, "%s: commit failed", op)
	}
}
