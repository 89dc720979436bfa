package domain

import "time"

// Payload is the decoded `data` object of a track event.
type Payload map[string]any

// Lookup returns the value of the first key present with a non-nil value.
func (p Payload) Lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Event is a single behavioral track event.
type Event struct {
	Type            string
	CreatedAt       time.Time
	Data            Payload
	OperatingSystem string
}

// ActivityType is the routine category of an Activity record.
type ActivityType string

const (
	ActivityMorning ActivityType = "morning"
	ActivityEvening ActivityType = "evening"
	ActivityBreak   ActivityType = "breaking"
)

// Activity is a configured routine habit, stored apart from track events.
type Activity struct {
	Type      ActivityType
	CreatedAt time.Time
}

// FocusSession is one focus mode record.
type FocusSession struct {
	CreatedAt time.Time
}

// Device is an operating system a user has signed in from.
type Device struct {
	OperatingSystem string
	CreatedAt       time.Time
}

// User is the datastore view of an account.
type User struct {
	ID               string
	Auth0ID          string
	StripeCustomerID string
	RevenueCatStatus string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsInternal reports whether the account belongs to staff.
func (u User) IsInternal() bool {
	return IsInternalIdentity(u.Auth0ID)
}

// UserBundle is everything the report engine needs for one user.
// Zero timestamps mean the value was missing or unparsable.
type UserBundle struct {
	UserID           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	RevenueCatStatus string
	Events           []Event
	Activities       []Activity
	FocusSessions    []FocusSession
	Devices          []Device
}
