package heuristic

import "github.com/selimozcann/LinkGuard/internal/trust"

// Tables is the data the scorer matches against. The defaults are
// package-level and never mutated; callers replace a table by value.
type Tables struct {
	Brands             []trust.Brand
	HighRiskTLDs       []string
	SuspiciousKeywords []string
}

// HighRiskTLDs are suffixes with a high share of abusive registrations.
// The common .net/.org/.info suffixes are part of the list on purpose.
var HighRiskTLDs = []string{
	"tk", "ml", "ga", "cf", "gq", "xyz", "top", "club", "online", "site",
	"work", "info", "net", "org", "buzz", "icu", "live", "click", "link",
	"loan", "win", "bid", "rest", "cam", "monster", "shop", "vip",
}

// SuspiciousKeywords mixes English and Indonesian lures.
var SuspiciousKeywords = []string{
	"login", "signin", "verify", "secure", "account", "update", "banking",
	"password", "confirm", "suspend", "urgent", "wallet", "unlock",
	"hadiah", "undian", "verifikasi", "akun", "blokir", "gratis", "menang",
	"konfirmasi", "rekening", "pemenang", "klaim",
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Brands:             trust.Brands,
		HighRiskTLDs:       HighRiskTLDs,
		SuspiciousKeywords: SuspiciousKeywords,
	}
}

var leetReplacer = []string{
	"0", "o",
	"1", "l",
	"3", "e",
	"4", "a",
	"5", "s",
	"7", "t",
	"@", "a",
}
