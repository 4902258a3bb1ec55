package cli

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/internallink/internal/lookup"
	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve autocomplete and titles over HTTP",
		Long: "Serve the lookup HTTP contract from the catalog (or the configured\n" +
			"provider), with Prometheus metrics on /metrics.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cmd, cfg)

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			catalog, err := openCatalog(cfg, log, m)
			if err != nil {
				return err
			}
			defer catalog.Detach()

			svc := lookup.NewService(
				lookup.NewProvider(cfg, catalog, http.DefaultClient),
				lookup.WithTimeout(cfg.LookupTimeout),
				lookup.WithLogger(log),
				lookup.WithMetrics(m),
			)
			handler := server.NewRouter(svc, reg, m, log.Component("http"))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := server.New(addr, handler, log, catalog.Dir()).Run(ctx); err != nil {
				return sysError("%w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
