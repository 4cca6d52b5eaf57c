package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/output"
)

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "check URL",
		Short: "Review a single link; exits 2 when it is blocked",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			rep := a.engine.Review(cmd.Context(), args[0])
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				output.PrintReport(a.out, rep)
			}
			if rep.Verdict == model.VerdictBlock {
				return exitError{code: exitBlocked}
			}
			return nil
		}),
	}
	c.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	return c
}

func newGateCmd(opts *globalOptions) *cobra.Command {
	var domain string
	c := &cobra.Command{
		Use:   "gate URL",
		Short: "Run only the local fast-allow gate",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			res := a.engine.Gate.Check(args[0], domain)
			output.PrintGate(a.out, args[0], res)
			return nil
		}),
	}
	c.Flags().StringVar(&domain, "domain", "", "Judge trust on this domain instead of the link's host")
	return c
}
