package metrics

import (
	"fmt"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
)

// Track event types referenced by the default table.
const (
	EventLoginHomemade            = "login-homemade"
	EventLogin                    = "login"
	EventCompleteMorningActivity  = "complete-morning-routine-activity"
	EventCompleteEveningActivity  = "complete-evening-routine-activity"
	EventCompleteBreakActivity    = "complete-break-activity"
	EventStartPomodoroManually    = "start-pomodoro-mode-manually"
	EventStartFocusManually       = "start-focus-mode-manually"
	EventCompletedFocusSession    = "completed-focus-session"
	EventBreakFeedbackLeft        = "break-feedback-left"
	EventMenuTourSetupComplete    = "menu_tour_setup_complete"
	EventStartBreakActivity       = "start-break-activity"
	EventStartMorningRoutine      = "start-morning-routine"
	EventCompleteMorningRoutine   = "complete-morning-routine"
	EventStartEveningRoutine      = "start-evening-routine"
	EventCompleteEveningRoutine   = "complete-evening-routine"
	EventSwitchToGeekMode         = "switch-to-geek-mode"
	EventSwitchToSimpleMode       = "switch-to-simple-mode"
	EventBlockDistractingApp      = "block-distracting-app"
	EventBlockDistractingURL      = "block-distracting-url"
	EventBlockDistraction         = "block-distraction"
	EventSignup                   = "signup"
	EventCareAboutHabits          = "care-about-habits"
	EventCaresAboutBreaks         = "cares-about-breaks"
	EventOccupationSelected       = "occupation-selected"
	EventCustomGoalSelected       = "custom-goal-selected"
	EventEnableTimeTrackerChanged = "settings-changed-enable-time-tracker"
	EventShowLateNoMoreWindow     = "show-latenomore-window"
	EventAppQuit                  = "app-quit"
	EventUninstall                = "uninstall"
)

// Column labels read back by the summary, the exporters or the highlighter.
const (
	ColumnUserID             = "Userid"
	ColumnFirstLoginDate     = "First desktop login date"
	ColumnLastUpdatedDate    = "Last updated date"
	ColumnSubscriptionStatus = "Subscription Status"
	ColumnDidActivate        = "Did activate"
	ColumnUninstalledApp     = "Uninstalled app"
	ColumnQuitWithin7Days    = "Quit within 7 days"
)

// TrackedDays is the number of post-signup days with windowed columns.
const TrackedDays = 28

// SubscriptionUnknown is reported when a user has no subscription status.
const SubscriptionUnknown = "unknown"

var focusStartEvents = []string{EventStartPomodoroManually, EventStartFocusManually}

func MorningOnDayColumn(n int) string { return fmt.Sprintf("Did morning habits on day %d", n) }

func BreaksOnDayColumn(n int) string { return fmt.Sprintf("Used breaks on day %d", n) }

func FocusOnDayColumn(n int) string { return fmt.Sprintf("Used focus mode on day %d", n) }

func EveningOnDayColumn(n int) string { return fmt.Sprintf("Did evening habits on day %d", n) }

var defaultTable = buildDefaultTable()

// DefaultTable returns a copy of the report's metric definitions in column order.
func DefaultTable() []Spec {
	out := make([]Spec, len(defaultTable))
	for i, s := range defaultTable {
		out[i] = s.clone()
	}
	return out
}

// EventTypes returns the distinct event types referenced by table, in first-seen order.
func EventTypes(table []Spec) []string {
	seen := make(map[string]bool)
	var types []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	for _, s := range table {
		for _, t := range s.Events {
			add(t)
		}
		// login-family lookups also read the first login for quit detection
		if s.Mode == ModeFirstLoginDate || s.Mode == ModeQuitWithinDays {
			add(EventLoginHomemade)
		}
	}
	return types
}

func buildDefaultTable() []Spec {
	t := []Spec{
		{Column: ColumnUserID, Mode: ModeUserID},
		{Column: ColumnFirstLoginDate, Mode: ModeFirstLoginDate, Events: []string{EventLoginHomemade}},
		{Column: ColumnLastUpdatedDate, Mode: ModeUpdatedDate},
		{Column: "Occupation", Mode: ModePropertyExtract, Events: []string{EventOccupationSelected}, Properties: []string{"occupation"}},
		{Column: ColumnSubscriptionStatus, Mode: ModeSubscriptionStatus},
		{Column: "Hopes for using Focus Bear", Mode: ModePropertyExtract, Events: []string{EventCustomGoalSelected}, Properties: []string{"custom-goal", "customGoal"}},
		{Column: ColumnUninstalledApp, Mode: ModeEventCount, Events: []string{EventUninstall}},

		{Column: "% of days since signup did morning routine habit", Mode: ModeDistinctDayPercent, Events: []string{EventCompleteMorningActivity}},
		{Column: "% of days since signup did evening routine habit", Mode: ModeDistinctDayPercent, Events: []string{EventCompleteEveningActivity}},
		{Column: "% of days since signup did break habit", Mode: ModeDistinctDayPercent, Events: []string{EventCompleteBreakActivity}},
		{Column: "% of days since signup did focus session", Mode: ModeDistinctDayPercent, Events: focusStartEvents},

		{Column: ColumnDidActivate, Mode: ModeMultiTypeExists, Events: []string{
			EventCompleteMorningActivity, EventCompleteEveningActivity,
			EventStartPomodoroManually, EventStartFocusManually,
		}},
		{Column: "Average hours of deep work per week", Mode: ModeAvgHoursPerWeek, Events: []string{EventCompletedFocusSession}, Field: "focusDurationMinutes"},

		{Column: "Number of morning routine habits", Mode: ModeActivityCount, ActivityType: domain.ActivityMorning},
		{Column: "Number of evening routine habits", Mode: ModeActivityCount, ActivityType: domain.ActivityEvening},
		{Column: "Number of break habits", Mode: ModeActivityCount, ActivityType: domain.ActivityBreak},
		{Column: "Number of focus modes", Mode: ModeFocusSessionCount},
		{Column: "Satisfaction with break timing", Mode: ModeAvgRating, Events: []string{EventBreakFeedbackLeft}, Field: "breaking-timing"},

		{Column: "Completed menu tour", Mode: ModeFirstMatch, Events: []string{EventMenuTourSetupComplete}},
		{Column: "Started a break activity", Mode: ModeFirstMatch, Events: []string{EventStartBreakActivity}},
		{Column: "Completed a break activity", Mode: ModeFirstMatch, Events: []string{EventCompleteBreakActivity}},
		{Column: "Started morning routine", Mode: ModeFirstMatch, Events: []string{EventStartMorningRoutine}},
		{Column: "Completed a morning routine", Mode: ModeFirstMatch, Events: []string{EventCompleteMorningRoutine}},
		{Column: "Started evening routine", Mode: ModeFirstMatch, Events: []string{EventStartEveningRoutine}},
		{Column: "Completed an evening routine", Mode: ModeFirstMatch, Events: []string{EventCompleteEveningRoutine}},
		{Column: "Started focus mode", Mode: ModeFirstMatch, Events: []string{EventStartFocusManually}},
		{Column: "Started pomodoro", Mode: ModeFirstMatch, Events: []string{EventStartPomodoroManually}},
		{Column: "Switched to geek mode", Mode: ModeFirstMatch, Events: []string{EventSwitchToGeekMode}},
		{Column: "Switched to simple mode", Mode: ModeFirstMatch, Events: []string{EventSwitchToSimpleMode}},
		{Column: "Blocked an app", Mode: ModeFirstMatch, Events: []string{EventBlockDistractingApp}},
		{Column: "Blocked a url", Mode: ModeFirstMatch, Events: []string{EventBlockDistractingURL}},
		{Column: "Blocked on mobile", Mode: ModeFirstMatch, Events: []string{EventBlockDistraction}},

		{Column: "Signed Up on mobile", Mode: ModeMobileSignup, Events: []string{EventSignup}},
		{Column: "Signed Up on mobile Date", Mode: ModeMobileSignupDate, Events: []string{EventSignup}},
		// TODO: confirm the commitment and careFactor payload keys with the mobile team.
		{Column: "Commitment level for habits", Mode: ModePropertyExtract, Events: []string{EventCareAboutHabits}, Properties: []string{"commitment"}},
		{Column: "Care factor for breaks", Mode: ModePropertyExtract, Events: []string{EventCaresAboutBreaks}, Properties: []string{"careFactor"}},
	}

	for n := 1; n <= TrackedDays; n++ {
		w := DayWindow(n)
		t = append(t,
			windowed(MorningOnDayColumn(n), w, EventCompleteMorningActivity),
			windowed(BreaksOnDayColumn(n), w, EventCompleteBreakActivity),
			windowed(FocusOnDayColumn(n), w, focusStartEvents...),
			windowed(EveningOnDayColumn(n), w, EventCompleteEveningActivity),
		)
	}

	return append(t,
		Spec{Column: "Enabled Time Tracker", Mode: ModeFirstMatch, Events: []string{EventEnableTimeTrackerChanged}},
		Spec{Column: "Enabled Late No More", Mode: ModeFirstMatch, Events: []string{EventShowLateNoMoreWindow}},
		Spec{Column: ColumnQuitWithin7Days, Mode: ModeQuitWithinDays, Events: []string{EventAppQuit}, Days: 7},
	)
}

func windowed(column string, w Window, events ...string) Spec {
	return Spec{
		Column: column,
		Mode:   ModeEventCount,
		Events: append([]string(nil), events...),
		Window: &w,
	}
}
