package events

import (
	"fmt"
	"time"
)

// Status markers rendered by Discord as emoji.
const (
	MarkerStarted   = ":green_circle:"
	MarkerCompleted = ":white_check_mark:"
	MarkerWarning   = ":warning:"
)

const missingValue = "?"

// endTimeLayouts are tried in order. The naive layout covers end times sent
// without a zone offset; they are read as UTC.
var endTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02T15:04:05",
}

// Pluralize returns unit for a quantity of exactly 1 and unit+"s" otherwise.
func Pluralize(unit string, quantity float64) string {
	if quantity == 1 {
		return unit
	}
	return unit + "s"
}

// RelativeTimestamp renders t as a Discord relative time token.
func RelativeTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// ParseEndTime parses an ISO-8601 date time.
func ParseEndTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range endTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func durationPhrase(e *Event) string {
	n, ok := e.Number("durationInMinutes")
	if !ok {
		return missingValue + " minutes"
	}
	f, err := n.Float64()
	if err != nil {
		return n.String() + " minutes"
	}
	return n.String() + " " + Pluralize("minute", f)
}

func endsSuffix(e *Event) string {
	end, ok := ParseEndTime(e.String("endTime"))
	if !ok {
		return ""
	}
	return " (Ends " + RelativeTimestamp(end) + ")"
}

func field(e *Event, key string) string {
	if v := e.String(key); v != "" {
		return v
	}
	return missingValue
}

func formatStarted(kind, name string, e *Event) string {
	return fmt.Sprintf("%s **%s %s** started for %s%s", MarkerStarted, kind, name, durationPhrase(e), endsSuffix(e))
}

func formatCompleted(kind, name string, e *Event) string {
	return fmt.Sprintf("%s **%s %s** completed. Ran for %s", MarkerCompleted, kind, name, durationPhrase(e))
}

func FormatZoneStarted(e *Event) string {
	return formatStarted("Zone", field(e, "zoneName"), e)
}

func FormatZoneCompleted(e *Event) string {
	return formatCompleted("Zone", field(e, "zoneName"), e)
}

func FormatScheduleStarted(e *Event) string {
	return formatStarted("Schedule", field(e, "scheduleName"), e)
}

func FormatScheduleCompleted(e *Event) string {
	return formatCompleted("Schedule", field(e, "scheduleName"), e)
}

func FormatDeviceOffline(deviceName string) string {
	return fmt.Sprintf("%s **%s** is offline", MarkerWarning, deviceName)
}

func FormatDeviceOnline(deviceName string) string {
	return fmt.Sprintf("%s **%s** is online", MarkerStarted, deviceName)
}

func jsonBlock(e *Event) string {
	return "```json\n" + string(e.Raw) + "```"
}

// FormatGeneric renders the raw payload under the category's label.
func FormatGeneric(c Category, e *Event) string {
	return fmt.Sprintf("Generic %s Message: %s", c.Label(), jsonBlock(e))
}

func FormatUnhandled(e *Event) string {
	return "Unhandled Message: " + jsonBlock(e)
}
