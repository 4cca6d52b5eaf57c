package output

import (
	"fmt"
	"io"

	"github.com/selimozcann/LinkGuard/internal/engine"
	"github.com/selimozcann/LinkGuard/internal/review"
	"github.com/selimozcann/LinkGuard/internal/securitylog"
	"github.com/selimozcann/LinkGuard/internal/statuscolor"
)

// PrintReport writes a human readable review to w.
func PrintReport(w io.Writer, rep engine.Report) {
	fmt.Fprintf(w, "%s %s\n", statuscolor.Verdict(rep.Verdict), rep.Input)
	if rep.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", rep.Error)
	}
	if rep.Target != "" && rep.Target != rep.Input {
		fmt.Fprintf(w, "  destination: %s\n", rep.Target)
	}
	fmt.Fprintf(w, "  risk: %s  heuristic score: %d  ml: %.2f  reputation: %s\n",
		rep.Review.RiskLevel, rep.Heuristic.Score, rep.MLProbability, rep.Reputation.Tier)
	if rep.FastAllowed {
		fmt.Fprintln(w, statuscolor.Gray("  fast allowed by local gate"))
	}

	for _, c := range rep.Review.Checks {
		mark := "✔"
		if !c.Passed {
			mark = "✘"
		}
		line := fmt.Sprintf("  %s %-18s %s", mark, c.ID, c.Description)
		if c.Passed {
			fmt.Fprintln(w, statuscolor.Gray(line))
			continue
		}
		fmt.Fprintln(w, statuscolor.Severity(line, c.Severity))
	}

	if rep.Resolved != nil && len(rep.Resolved.Chain) > 1 {
		fmt.Fprintf(w, "  redirect chain (%d hops, %d cross-domain):\n", rep.Resolved.TotalRedirects, rep.Resolved.CrossDomainHopCount)
		PrintChain(w, rep)
	}
	for _, f := range rep.Findings {
		fmt.Fprintln(w, statuscolor.Severity(fmt.Sprintf("  ! %s at hop %d: %s", f.Type, f.AtHop, f.Detail), f.Severity))
	}
}

// PrintChain prints the resolved redirect chain with color-coded statuses.
func PrintChain(w io.Writer, rep engine.Report) {
	for i, h := range chainOf(rep) {
		fmt.Fprintf(w, "    [%d] %s %s (%s)\n", i, h.URL, statuscolor.Sprint(h.StatusCode), h.Type)
	}
}

// PrintGate writes a gate decision and its signals.
func PrintGate(w io.Writer, raw string, res review.GateResult) {
	state := statuscolor.WrapByStatus("SAFE", 302)
	if !res.IsSafe {
		state = statuscolor.WrapByStatus("REVIEW", 404)
	}
	fmt.Fprintf(w, "%s %s\n  reason: %s\n", state, raw, res.Reason)
	s := res.Signals
	fmt.Fprintf(w, "  trusted=%t https=%t no_dangerous_extension=%t not_shortener=%t heuristic_score=%d reputation=%s\n",
		s.Trusted, s.HTTPS, s.NoDangerousExtension, s.NotShortener, s.HeuristicScore, s.ReputationTier)
}

// PrintEvents writes security events one per line.
func PrintEvents(w io.Writer, events []securitylog.Event) {
	for _, ev := range events {
		line := fmt.Sprintf("%s %-8s %-16s %s", ev.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), ev.Severity, ev.Type, ev.Message)
		switch ev.Severity {
		case securitylog.SeverityCritical:
			fmt.Fprintln(w, statuscolor.WrapByStatus(line, 500))
		case securitylog.SeverityWarning:
			fmt.Fprintln(w, statuscolor.WrapByStatus(line, 200))
		default:
			fmt.Fprintln(w, line)
		}
	}
}
