package tableio

import (
	"context"
	"os"
	"strings"

	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FileIO reads and writes table metadata files addressed by absolute locations
type FileIO interface {
	ReadMetadata(ctx context.Context, location string) (*TableMetadata, error)
	WriteMetadata(ctx context.Context, location string, meta *TableMetadata) error
	// Purge removes every file below a table location
	Purge(ctx context.Context, tableLocation string) error
}

type (
	// StorageFileIO maps locations below root onto keys of a Storage
	StorageFileIO struct {
		l       *zap.Logger
		root    string
		storage Storage
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewStorageFileIO root is the location prefix all handled files live under,
// e.g. "s3://bucket/warehouse" or "file:///var/lib/warehouse".
func NewStorageFileIO(l *zap.Logger, root string, storage Storage) *StorageFileIO {
	return &StorageFileIO{
		l:       l.Named("fileio"),
		root:    strings.TrimSuffix(root, "/"),
		storage: storage,
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (f *StorageFileIO) Root() string {
	return f.root
}

func (f *StorageFileIO) ReadMetadata(ctx context.Context, location string) (*TableMetadata, error) {
	key, err := f.key(location)
	if err != nil {
		return nil, err
	}
	data, err := f.storage.Read(ctx, key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(catalogerr.ErrNotFound, "metadata file %s", location)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to read metadata file %s", location)
	}
	meta, err := UnmarshalMetadata(data)
	if err != nil {
		return nil, errors.Wrapf(err, "metadata file %s", location)
	}
	return meta, nil
}

func (f *StorageFileIO) WriteMetadata(ctx context.Context, location string, meta *TableMetadata) error {
	key, err := f.key(location)
	if err != nil {
		return err
	}
	data, err := MarshalMetadata(meta)
	if err != nil {
		return err
	}
	f.l.Debug("writing metadata", zap.String("location", location), zap.Int("bytes", len(data)))
	if err := f.storage.Write(ctx, key, data); err != nil {
		return errors.Wrapf(err, "failed to write metadata file %s", location)
	}
	return nil
}

func (f *StorageFileIO) Purge(ctx context.Context, tableLocation string) error {
	prefix, err := f.key(tableLocation)
	if err != nil {
		return err
	}
	keys, err := f.storage.List(ctx, strings.TrimSuffix(prefix, "/")+"/")
	if err != nil {
		return errors.Wrapf(err, "failed to list files below %s", tableLocation)
	}
	var errs error
	for _, key := range keys {
		f.l.Debug("removing file", zap.String("key", key))
		errs = multierr.Append(errs, f.storage.Delete(ctx, key))
	}
	return errs
}

func (f *StorageFileIO) Close() error {
	return f.storage.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (f *StorageFileIO) key(location string) (string, error) {
	if !strings.HasPrefix(location, f.root+"/") {
		return "", catalogerr.NewValidationError("location", "%q is not below %q", location, f.root)
	}
	key := strings.TrimPrefix(location, f.root+"/")
	if key == "" || strings.Contains("/"+key+"/", "/../") {
		return "", catalogerr.NewValidationError("location", "invalid location %q", location)
	}
	return key, nil
}
