package domain

import (
	"slices"
	"strings"
)

const (
	OSiOS     = "iOS"
	OSMacOS   = "MacOS"
	OSWindows = "Windows"
	OSAndroid = "Android"
	OSWeb     = "Web"
	OSUnknown = "Unknown"
)

// SheetOrder is the order operating systems appear in exported workbooks.
var SheetOrder = []string{OSMacOS, OSWindows, OSiOS, OSAndroid, OSWeb, OSUnknown}

const internalDomain = "@focusbear"

// IsInternalIdentity reports whether an identity string (Auth0 id or email)
// belongs to a staff account.
func IsInternalIdentity(s string) bool {
	return strings.Contains(s, internalDomain)
}

// IsKnownOS reports whether os names a real operating system.
func IsKnownOS(os string) bool {
	return os != "" && os != OSUnknown
}

// IsMobileOS reports whether os is a phone platform.
func IsMobileOS(os string) bool {
	return os == OSAndroid || os == OSiOS
}

// PrimaryOS returns the operating system of the earliest device with a known OS,
// or OSUnknown. Devices without a creation time keep their input order and sort
// after timestamped ones.
func PrimaryOS(devices []Device) string {
	known := make([]Device, 0, len(devices))
	for _, d := range devices {
		if IsKnownOS(d.OperatingSystem) {
			known = append(known, d)
		}
	}
	if len(known) == 0 {
		return OSUnknown
	}

	slices.SortStableFunc(known, func(a, b Device) int {
		switch {
		case a.CreatedAt.IsZero() && b.CreatedAt.IsZero():
			return 0
		case a.CreatedAt.IsZero():
			return 1
		case b.CreatedAt.IsZero():
			return -1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return known[0].OperatingSystem
}
