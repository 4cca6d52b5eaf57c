// Package statuscolor colours terminal output by HTTP status, severity and verdict.
package statuscolor

import (
	"net/http"

	"github.com/fatih/color"

	"github.com/selimozcann/LinkGuard/internal/model"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.FgRed, color.Bold)
	gray   = color.New(color.FgHiBlack)
)

func colorFor(status int) *color.Color {
	switch {
	case status == 0:
		return gray
	case status >= 300 && status < 400:
		return green
	case status == http.StatusOK:
		return yellow
	case status >= 400:
		return red
	default:
		return yellow
	}
}

// Sprint returns a colorized status code string. Client-side hops have no
// status and render as a gray dash.
func Sprint(status int) string {
	if status == 0 {
		return gray.Sprint("-")
	}
	return colorFor(status).Sprint(status)
}

// WrapByStatus wraps the provided text with the color that corresponds to the
// supplied status code.
func WrapByStatus(text string, status int) string {
	return colorFor(status).Sprint(text)
}

// Gray wraps the provided text with a gray color.
func Gray(text string) string {
	return gray.Sprint(text)
}

// Severity colours text by check severity.
func Severity(text string, sev model.Severity) string {
	switch sev {
	case model.SeverityDanger:
		return red.Sprint(text)
	case model.SeverityWarning:
		return yellow.Sprint(text)
	default:
		return gray.Sprint(text)
	}
}

// Verdict renders a verdict in upper case with its colour.
func Verdict(v model.Verdict) string {
	switch v {
	case model.VerdictBlock:
		return bold.Sprint("BLOCK")
	case model.VerdictWarn:
		return yellow.Sprint("WARN")
	case model.VerdictAllow:
		return green.Sprint("ALLOW")
	default:
		return gray.Sprint(string(v))
	}
}
