package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// NoLicense is the frequency-table bucket for artifacts without a license.
	NoLicense = "No License"
	// PublicDomain is assigned when a license-less artifact's author marks it
	// as public domain.
	PublicDomain = "Public Domain"
	// UnknownAuthor is the frequency-table bucket for artifacts without an author.
	UnknownAuthor = "Unknown Author"
)

var fold = cases.Fold()

// NormalizeLicense maps a raw license to its frequency-table label. A blank
// license falls back to NoLicense, except when the author itself reads
// "Public Domain" (case and whitespace insensitive), which normalizes the
// license to PublicDomain.
func NormalizeLicense(license, author string) string {
	license = strings.TrimSpace(license)
	if license != "" {
		return license
	}
	if fold.String(strings.TrimSpace(author)) == fold.String(PublicDomain) {
		return PublicDomain
	}
	return NoLicense
}

// NormalizeAuthor maps a raw author to its frequency-table label.
func NormalizeAuthor(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return UnknownAuthor
	}
	return author
}

// FormatYear renders a year sign-aware: negative years as BCE, the rest as
// CE. A nil year renders as "Unknown".
func FormatYear(year *int) string {
	if year == nil {
		return "Unknown"
	}
	if *year < 0 {
		return fmt.Sprintf("%d BCE", -*year)
	}
	return fmt.Sprintf("%d CE", *year)
}

// TrimmedLength counts the characters of s after trimming surrounding
// whitespace.
func TrimmedLength(s string) int {
	return len([]rune(strings.TrimSpace(s)))
}
