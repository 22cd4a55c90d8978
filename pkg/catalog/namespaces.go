package catalog

import (
	"context"
	"maps"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/namespace"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	opCreateNamespace = "create_namespace"
	opUpdateNamespace = "update_namespace"
	opDropNamespace   = "drop_namespace"
)

// ListNamespaces returns all namespaces, or the ones nested below parent if
// it is not empty
func (c *Nessie) ListNamespaces(ctx context.Context, parent content.Key) ([]content.Key, error) {
	if !parent.IsEmpty() {
		if _, err := validKey(parent); err != nil {
			return nil, err
		}
	}
	entries, err := c.entries(ctx, c.branch)
	if err != nil {
		return nil, err
	}
	return namespace.Children(namespace.Infer(entries), parent), nil
}

func (c *Nessie) CreateNamespace(ctx context.Context, ns content.Key, properties map[string]string) (*Namespace, error) {
	ns, err := validKey(ns)
	if err != nil {
		return nil, err
	}
	head, err := c.head(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.entries(ctx, head.Spec())
	if err != nil {
		return nil, err
	}
	if namespace.Exists(entries, ns) {
		return nil, errors.Wrapf(catalogerr.ErrAlreadyExists, "namespace %s", ns)
	}
	if e, ok := namespace.Find(entries, ns); ok {
		return nil, errors.Wrapf(catalogerr.ErrAlreadyExists, "namespace %s: key holds %s content", ns, e.Type)
	}

	properties = maps.Clone(properties)
	if _, err := c.commit(ctx, opCreateNamespace, head, "create namespace "+ns.String(),
		content.Put(ns, content.NewNamespace(ns, properties)),
	); err != nil {
		return nil, err
	}
	return &Namespace{Ident: ns, Properties: nonNil(properties), Explicit: true}, nil
}

func (c *Nessie) GetNamespace(ctx context.Context, ns content.Key) (*Namespace, error) {
	ns, err := validKey(ns)
	if err != nil {
		return nil, err
	}
	// pin the content lookup to the listed state
	head, err := c.head(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.entries(ctx, head.Spec())
	if err != nil {
		return nil, err
	}
	if !namespace.Exists(entries, ns) {
		return nil, errors.Wrapf(catalogerr.ErrNotFound, "namespace %s", ns)
	}
	if _, ok := namespace.Explicit(entries, ns); !ok {
		return &Namespace{Ident: ns, Properties: map[string]string{}}, nil
	}
	marker, err := c.marker(ctx, head.Spec(), ns)
	if err != nil {
		return nil, err
	}
	return &Namespace{Ident: ns, Properties: nonNil(maps.Clone(marker.Properties)), Explicit: true}, nil
}

func (c *Nessie) NamespaceExists(ctx context.Context, ns content.Key) (bool, error) {
	ns, err := validKey(ns)
	if err != nil {
		return false, err
	}
	entries, err := c.entries(ctx, c.branch)
	if err != nil {
		return false, err
	}
	return namespace.Exists(entries, ns), nil
}

// UpdateNamespace stores properties as the complete property set. A namespace
// that only exists implicitly gets an explicit marker.
func (c *Nessie) UpdateNamespace(ctx context.Context, ns content.Key, properties map[string]string) (*Namespace, error) {
	ns, err := validKey(ns)
	if err != nil {
		return nil, err
	}
	head, err := c.head(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.entries(ctx, head.Spec())
	if err != nil {
		return nil, err
	}
	if !namespace.Exists(entries, ns) {
		return nil, errors.Wrapf(catalogerr.ErrNotFound, "namespace %s", ns)
	}

	properties = maps.Clone(properties)
	var marker content.Content = content.NewNamespace(ns, properties)
	if e, ok := namespace.Explicit(entries, ns); ok {
		id := e.ContentID
		if id == "" {
			existing, err := c.marker(ctx, head.Spec(), ns)
			if err != nil {
				return nil, err
			}
			id = existing.ID
		}
		marker = content.WithID(marker, id)
	} else {
		c.l.Debug("upgrading implicit namespace", zap.String("namespace", ns.String()))
	}

	if _, err := c.commit(ctx, opUpdateNamespace, head, "update namespace "+ns.String(),
		content.Put(ns, marker),
	); err != nil {
		return nil, err
	}
	return &Namespace{Ident: ns, Properties: nonNil(properties), Explicit: true}, nil
}

// DropNamespace deletes the namespace marker. A namespace with children is
// only dropped with cascade, which deletes the marker and every nested key in
// a single commit.
func (c *Nessie) DropNamespace(ctx context.Context, ns content.Key, cascade bool) error {
	ns, err := validKey(ns)
	if err != nil {
		return err
	}
	head, err := c.head(ctx)
	if err != nil {
		return err
	}
	entries, err := c.entries(ctx, head.Spec())
	if err != nil {
		return err
	}
	if !namespace.Exists(entries, ns) {
		return errors.Wrapf(catalogerr.ErrNotFound, "namespace %s", ns)
	}

	children := namespace.Within(entries, ns)
	if len(children) > 0 && !cascade {
		return errors.Wrapf(catalogerr.ErrNotEmpty, "namespace %s has %d nested entries", ns, len(children))
	}

	ops := make([]content.Operation, 0, len(children)+1)
	for _, child := range children {
		ops = append(ops, content.Delete(child.Name))
	}
	if _, ok := namespace.Explicit(entries, ns); ok {
		ops = append(ops, content.Delete(ns))
	}
	if len(ops) == 0 {
		return errors.Wrapf(catalogerr.ErrNotFound, "namespace %s", ns)
	}

	_, err = c.commit(ctx, opDropNamespace, head, "drop namespace "+ns.String(), ops...)
	return err
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Nessie) marker(ctx context.Context, refSpec string, ns content.Key) (*content.Namespace, error) {
	v, err := c.store.GetContent(ctx, refSpec, ns)
	if errors.Is(err, catalogerr.ErrNotFound) {
		return nil, errors.Wrapf(catalogerr.ErrNotFound, "namespace %s", ns)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to load namespace %s", ns)
	}
	marker, ok := v.(*content.Namespace)
	if !ok {
		return nil, errors.Wrapf(catalogerr.ErrNotFound, "namespace %s: key holds %s content", ns, v.Type())
	}
	return marker, nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
