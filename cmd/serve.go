package cmd

import (
	"context"

	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/foomo/nessiecatalog/pkg/handler"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewServeCommand serves the catalog http api. rv holds the persistent flags
// of the root command.
func NewServeCommand(rv *viper.Viper) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog http server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
			)

			l := svr.Logger()

			client, err := newClient(l.Named("inst.nessie"), rv)
			if err != nil {
				return errors.Wrap(err, "failed to create nessie client")
			}
			cat, closeCatalog, err := newCatalog(cmd.Context(), l.Named("inst.catalog"), rv)
			if err != nil {
				return errors.Wrap(err, "failed to create catalog")
			}

			branch := branchFlag(rv)
			branchHealthzFn := healthz.NewHealthzerFn(func(ctx context.Context) error {
				if _, err := client.GetReference(ctx, branch); err != nil {
					return errors.Wrapf(err, "branch %s not resolvable", branch)
				}
				return nil
			})
			svr.AddStartupHealthzers(branchHealthzFn)
			svr.AddReadinessHealthzers(branchHealthzFn)

			svr.AddClosers(func(ctx context.Context) error {
				return closeCatalog()
			})

			svr.AddServices(
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), cat, handler.WithPath(basePathFlag(v))),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v)
	addBasePathFlag(flags, v)
	addOtelEnabledFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)

	return cmd
}
