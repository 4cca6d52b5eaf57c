package cmd

import (
	"github.com/spf13/cobra"

	"github.com/selimozcann/LinkGuard/internal/logging"
	"github.com/selimozcann/LinkGuard/internal/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API over HTTP",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			// The server always logs JSON so it can be shipped as is.
			logger := logging.NewLogger(a.cfg.Verbose, true)
			return server.New(a.engine, logger).ListenAndServe(cmd.Context(), addr)
		}),
	}
	c.Flags().StringVar(&addr, "addr", "", "Listen address (overrides LINKGUARD_HTTP_ADDR)")
	return c
}
