package auth0

import (
	"slices"
	"strings"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
)

// androidDeviceName is the device name the Android app's HTTP stack reports.
const androidDeviceName = "okhttp"

// Credential is an Auth0 device credential.
type Credential struct {
	ID         string `json:"id"`
	ClientID   string `json:"client_id"`
	DeviceName string `json:"device_name"`
	Type       string `json:"type"`
}

// ClientIDs are the Auth0 application ids of the desktop and mobile apps.
type ClientIDs struct {
	Mac     string
	Windows string
	Mobile  []string
}

// OS classifies one credential; "" when neither the application nor the
// device name identifies a platform.
func (ids ClientIDs) OS(c Credential) string {
	switch {
	case c.ClientID == "":
	case c.ClientID == ids.Mac:
		return domain.OSMacOS
	case c.ClientID == ids.Windows:
		return domain.OSWindows
	case slices.Contains(ids.Mobile, c.ClientID):
		if c.DeviceName == androidDeviceName {
			return domain.OSAndroid
		}
		return domain.OSiOS
	}

	name := strings.ToLower(c.DeviceName)
	switch {
	case strings.Contains(name, "mac"):
		return domain.OSMacOS
	case strings.Contains(name, "windows"):
		return domain.OSWindows
	case strings.Contains(name, "iphone"), strings.Contains(name, "ipad"):
		return domain.OSiOS
	case strings.Contains(name, androidDeviceName), strings.Contains(name, "android"):
		return domain.OSAndroid
	}
	return ""
}

// ParseDeviceOS classifies credentials in order, dropping unrecognised ones.
func (ids ClientIDs) ParseDeviceOS(creds []Credential) []string {
	var out []string
	for _, c := range creds {
		if os := ids.OS(c); os != "" {
			out = append(out, os)
		}
	}
	return out
}
