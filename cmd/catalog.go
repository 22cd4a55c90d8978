package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/foomo/nessiecatalog/pkg/catalog"
	"github.com/foomo/nessiecatalog/pkg/nessie"
	"github.com/foomo/nessiecatalog/pkg/tableio"
	keelhttp "github.com/foomo/keel/net/http"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	// in-memory warehouse for local experiments
	_ "gocloud.dev/blob/memblob"
)

// supportedBlobSchemes lists the warehouse url schemes served by blob storage
var supportedBlobSchemes = []string{"gs", "s3", "azblob", "file", "mem"}

// newClient creates the nessie client from the persistent flags
func newClient(l *zap.Logger, v *viper.Viper) (*nessie.Client, error) {
	return nessie.New(l, nessieURIFlag(v),
		nessie.WithHTTPClient(
			keelhttp.NewHTTPClient(
				keelhttp.HTTPClientWithTimeout(timeoutFlag(v)),
				keelhttp.HTTPClientWithTelemetry(),
			),
		),
		nessie.WithBearerToken(nessieTokenFlag(v)),
	)
}

// newCatalog creates the catalog and its warehouse file io. The returned
// closer releases the warehouse storage.
func newCatalog(ctx context.Context, l *zap.Logger, v *viper.Viper) (*catalog.Nessie, func() error, error) {
	client, err := newClient(l, v)
	if err != nil {
		return nil, nil, err
	}
	opts := []catalog.Option{
		catalog.WithBranch(branchFlag(v)),
		catalog.WithAuthor(authorFlag(v)),
	}
	closer := func() error { return nil }
	if warehouse := warehouseFlag(v); warehouse != "" {
		root, fileIO, err := openWarehouse(ctx, l, warehouse)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, catalog.WithWarehouse(root), catalog.WithFileIO(fileIO))
		closer = fileIO.Close
	}
	return catalog.NewNessie(l, client, opts...), closer, nil
}

// openWarehouse creates the file io for a warehouse given as a directory or a
// blob url. It returns the normalized warehouse root.
func openWarehouse(ctx context.Context, l *zap.Logger, warehouse string) (string, *tableio.StorageFileIO, error) {
	u, err := url.Parse(warehouse)
	if err != nil {
		return "", nil, fmt.Errorf("invalid warehouse %q: %w", warehouse, err)
	}

	if u.Scheme == "" {
		root := strings.TrimSuffix(warehouse, "/")
		l.Info("using filesystem warehouse", zap.String("dir", root))
		storage, err := tableio.NewFilesystemStorage(root)
		if err != nil {
			return "", nil, err
		}
		return root, tableio.NewStorageFileIO(l, root, storage), nil
	}

	if !isValidBlobScheme(u.Scheme) {
		return "", nil, fmt.Errorf("unsupported warehouse scheme in %q; supported schemes: %s", warehouse, strings.Join(supportedBlobSchemes, ", "))
	}

	prefix := strings.Trim(u.Path, "/")
	bucket := &url.URL{Scheme: u.Scheme, Host: u.Host, RawQuery: u.RawQuery}
	if u.Scheme == "file" {
		// the whole path names the directory
		bucket.Path = u.Path
		prefix = ""
	}
	root := strings.TrimSuffix((&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String(), "/")

	l.Info("using blob warehouse",
		zap.String("bucket", bucket.String()),
		zap.String("prefix", prefix),
		zap.String("provider", detectBlobProvider(u.Scheme)),
	)
	storage, err := tableio.NewBlobStorage(ctx, bucket.String(), prefix)
	if err != nil {
		return "", nil, err
	}
	return root, tableio.NewStorageFileIO(l, root, storage), nil
}

func isValidBlobScheme(scheme string) bool {
	for _, s := range supportedBlobSchemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// detectBlobProvider returns a human-readable provider name from the URL scheme
func detectBlobProvider(scheme string) string {
	switch scheme {
	case "gs":
		return "Google Cloud Storage"
	case "s3":
		return "AWS S3"
	case "azblob":
		return "Azure Blob Storage"
	case "file":
		return "Local Filesystem"
	case "mem":
		return "Memory"
	default:
		return "unknown"
	}
}
