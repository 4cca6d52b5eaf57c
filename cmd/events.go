package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/selimozcann/LinkGuard/internal/output"
	"github.com/selimozcann/LinkGuard/internal/securitylog"
)

type eventsOptions struct {
	types       []string
	minSeverity string
	since       time.Duration
	limit       int
	asJSON      bool
	clear       bool
}

func newEventsCmd(opts *globalOptions) *cobra.Command {
	var eo eventsOptions
	c := &cobra.Command{
		Use:   "events",
		Short: "List or clear the security event log",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			if eo.clear {
				if err := a.engine.Events.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "security log cleared")
				return nil
			}
			f, err := eventFilter(eo, time.Now())
			if err != nil {
				return err
			}
			events := a.engine.Events.GetEvents(f)
			if eo.asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			output.PrintEvents(a.out, events)
			return nil
		}),
	}
	f := c.Flags()
	f.StringSliceVar(&eo.types, "type", nil, "Only these event types (repeatable or comma separated)")
	f.StringVar(&eo.minSeverity, "min-severity", "", "Minimum severity: info, warning or critical")
	f.DurationVar(&eo.since, "since", 0, "Only events newer than this, e.g. 24h")
	f.IntVar(&eo.limit, "limit", 50, "Maximum number of events (0 = all)")
	f.BoolVar(&eo.asJSON, "json", false, "Print events as JSON")
	f.BoolVar(&eo.clear, "clear", false, "Delete all events")
	return c
}

func eventFilter(eo eventsOptions, now time.Time) (securitylog.Filter, error) {
	f := securitylog.Filter{Limit: eo.limit}
	for _, raw := range eo.types {
		t, ok := securitylog.ParseEventType(strings.ToUpper(strings.TrimSpace(raw)))
		if !ok {
			return f, fmt.Errorf("unknown event type %q", raw)
		}
		f.Types = append(f.Types, t)
	}
	if eo.minSeverity != "" {
		sev, ok := securitylog.ParseSeverity(strings.ToLower(eo.minSeverity))
		if !ok {
			return f, fmt.Errorf("unknown severity %q", eo.minSeverity)
		}
		f.MinSeverity = sev
	}
	if eo.limit < 0 {
		return f, fmt.Errorf("--limit must be >= 0 (got %d)", eo.limit)
	}
	if eo.since > 0 {
		f.Since = now.Add(-eo.since)
	}
	return f, nil
}
