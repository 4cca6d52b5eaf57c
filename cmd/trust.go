package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/selimozcann/LinkGuard/internal/ratelimit"
	"github.com/selimozcann/LinkGuard/internal/trust"
)

func newTrustCmd(opts *globalOptions) *cobra.Command {
	var safe, unsafe bool
	c := &cobra.Command{
		Use:   "trust DOMAIN",
		Short: "Record safe/unsafe feedback for a domain, or show its trust state",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if safe && unsafe {
				return errors.New("--safe and --unsafe are mutually exclusive")
			}
			var (
				rec trust.Record
				err error
			)
			switch {
			case safe || unsafe:
				rec, err = a.engine.Feedback(args[0], safe)
			default:
				rec = a.engine.Trust.Lookup(args[0])
			}
			if rec.Domain == "" {
				return fmt.Errorf("invalid domain %q", args[0])
			}
			fmt.Fprintf(a.out, "%s statically_trusted=%t user_trusted=%t safe_votes=%d/%d\n",
				rec.Domain, rec.StaticallyTrusted, rec.UserEarnedTrust, rec.SafeVotes, trust.SafeVoteThreshold)
			return err
		}),
	}
	c.Flags().BoolVar(&safe, "safe", false, "Mark the domain as safe")
	c.Flags().BoolVar(&unsafe, "unsafe", false, "Mark the domain as unsafe, resetting earned trust")
	return c
}

func newPINCmd(opts *globalOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "pin",
		Short: "Inspect or drive the PIN entry rate limiter",
	}
	sub := func(use, short string, op func(a *app) ratelimit.Result) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
				printPIN(a, op(a))
				return nil
			}),
		}
	}
	c.AddCommand(
		sub("status", "Show whether a PIN attempt is allowed", func(a *app) ratelimit.Result { return a.engine.PIN.CheckRateLimit() }),
		sub("fail", "Record a failed PIN attempt", func(a *app) ratelimit.Result { return a.engine.PIN.RecordFailedAttempt() }),
		sub("success", "Record a successful PIN attempt", func(a *app) ratelimit.Result { return a.engine.PIN.RecordSuccessfulAttempt() }),
		sub("unlock", "Clear the lockout and the failure counter", func(a *app) ratelimit.Result { return a.engine.PIN.ForceUnlock() }),
	)
	return c
}

func printPIN(a *app, res ratelimit.Result) {
	if res.Allowed {
		fmt.Fprintf(a.out, "allowed remaining_attempts=%d\n", res.RemainingAttempts)
		return
	}
	wait := time.Duration(res.WaitTimeMs) * time.Millisecond
	fmt.Fprintf(a.out, "locked wait=%s\n", wait.Round(time.Second))
}
