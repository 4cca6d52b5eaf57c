package banner

import (
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// PrintBanner writes the LinkGuard banner to w.
func PrintBanner(w io.Writer) {
	fig := figure.NewColorFigure("LINKGUARD", "doom", "green", true)
	_, _ = io.WriteString(w, fig.ColorString())
	_, _ = io.WriteString(w, "\n")

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = green.Fprintln(w, "    Link Safety Analysis | https://github.com/selimozcann")
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
}
