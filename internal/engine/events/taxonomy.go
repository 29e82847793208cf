package events

import (
	"strings"

	"github.com/samber/lo"
)

type Category string

const (
	CategoryDeviceStatus   Category = "device_status"
	CategoryZoneStatus     Category = "zone_status"
	CategoryScheduleStatus Category = "schedule_status"
)

type SubType string

const (
	SubTypeZoneStarted       SubType = "zone_started"
	SubTypeZoneCompleted     SubType = "zone_completed"
	SubTypeScheduleStarted   SubType = "schedule_started"
	SubTypeScheduleCompleted SubType = "schedule_completed"
	SubTypeOffline           SubType = "offline"
	SubTypeOnline            SubType = "online"
)

// Taxonomy lists every recognized category with the subtypes that have a
// dedicated message. Other subtypes of a known category are still valid and
// get the category's generic message.
var Taxonomy = map[Category][]SubType{
	CategoryDeviceStatus:   {SubTypeOffline, SubTypeOnline},
	CategoryZoneStatus:     {SubTypeZoneStarted, SubTypeZoneCompleted},
	CategoryScheduleStatus: {SubTypeScheduleStarted, SubTypeScheduleCompleted},
}

var categoryLabels = map[Category]string{
	CategoryDeviceStatus:   "Device",
	CategoryZoneStatus:     "Zone",
	CategoryScheduleStatus: "Schedule",
}

// LookupCategory matches raw case-insensitively against the known categories.
func LookupCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(raw))
	_, ok := Taxonomy[c]
	return c, ok
}

func NormalizeSubType(raw string) SubType {
	return SubType(strings.ToLower(raw))
}

// Label is the human name used in generic messages, e.g. "Zone".
func (c Category) Label() string {
	return categoryLabels[c]
}

// Known reports whether s has a dedicated message within c.
func (c Category) Known(s SubType) bool {
	return lo.Contains(Taxonomy[c], s)
}
