package conversion

import (
	"fmt"
	"strings"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
)

// platforms are the operating systems broken out in every message, with
// their display labels.
var platforms = []struct{ os, label string }{
	{domain.OSMacOS, "Mac"},
	{domain.OSWindows, "Windows"},
	{domain.OSiOS, "iOS"},
	{domain.OSAndroid, "Android"},
}

func filterOS(people []Person, os string) []Person {
	var out []Person
	for _, p := range people {
		if p.OS == os {
			out = append(out, p)
		}
	}
	return out
}

func unknownCount(people []Person) int {
	n := 0
	for _, p := range people {
		if !domain.IsKnownOS(p.OS) {
			n++
		}
	}
	return n
}

// Rate formats subs/signups as a percentage with two decimals; "0.00" when
// there are no signups.
func Rate(subs, signups int) string {
	if signups == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(subs)/float64(signups)*100)
}

func conversionMessage(subs, signups []Person) string {
	var b strings.Builder
	b.WriteString("Message 1: conversion rate")
	fmt.Fprintf(&b, "\n  • total conversion rate (last 30 days): %s%% (%d/%d)",
		Rate(len(subs), len(signups)), len(subs), len(signups))
	for _, p := range platforms {
		s, g := len(filterOS(subs, p.os)), len(filterOS(signups, p.os))
		fmt.Fprintf(&b, "\n  • total conversion rate %s (last 30 days): %s%% (%d/%d)", p.label, Rate(s, g), s, g)
	}
	return b.String()
}

func countsMessage(heading, totalLabel, unknownLabel string, last24h, last30d []Person) string {
	var b strings.Builder
	b.WriteString(heading)
	fmt.Fprintf(&b, "\n  • %s: %d (last 24hrs) / %d (last 30 days)", totalLabel, len(last24h), len(last30d))
	for _, p := range platforms {
		fmt.Fprintf(&b, "\n  • %s: %d (last 24hrs) / %d (last 30 days)",
			p.label, len(filterOS(last24h, p.os)), len(filterOS(last30d, p.os)))
	}
	fmt.Fprintf(&b, "\n  • %s (unknown source): %d (last 24hrs) / %d (last 30 days)",
		unknownLabel, unknownCount(last24h), unknownCount(last30d))
	return b.String()
}
