// Package types holds the shared domain model for the configuration store
// and the task scheduler: categories and their items, parent/child edges,
// schedules, scheduled processes and tasks.
package types

import (
	"time"

	"github.com/google/uuid"
)

// ItemType enumerates the typed kinds a configuration item's value may take.
type ItemType string

const (
	TypeBoolean     ItemType = "boolean"
	TypeInteger     ItemType = "integer"
	TypeFloat       ItemType = "float"
	TypeString      ItemType = "string"
	TypeIPv4        ItemType = "IPv4"
	TypeIPv6        ItemType = "IPv6"
	TypeX509        ItemType = "X509 certificate"
	TypePassword    ItemType = "password"
	TypeJSON        ItemType = "JSON"
	TypeURL         ItemType = "URL"
	TypeEnumeration ItemType = "enumeration"
	TypeScript      ItemType = "script"
)

// Item is one keyed configuration parameter inside a category.
//
// Value is empty until the item has been persisted at least once; Default,
// Description and Type are required on every item. The optional entries
// mirror spec.md's item-spec table exactly: no other entry names are
// recognized.
type Item struct {
	Description string   `json:"description"`
	Default     string   `json:"default"`
	Type        ItemType `json:"type"`
	Value       string   `json:"value,omitempty"`

	ReadOnly    *bool    `json:"readonly,omitempty"`
	Deprecated  *bool    `json:"deprecated,omitempty"`
	Order       *int     `json:"order,omitempty"`
	Length      *int     `json:"length,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// IsDeprecated reports whether the item is marked deprecated == "true".
func (i Item) IsDeprecated() bool {
	return i.Deprecated != nil && *i.Deprecated
}

// Items is a category's value: item-name -> item-spec.
type Items map[string]Item

// Category is a named bundle of configuration items.
type Category struct {
	Key         string    `json:"key"`
	Description string    `json:"description"`
	DisplayName string    `json:"display_name"`
	Value       Items     `json:"value"`
	Timestamp   time.Time `json:"ts"`
}

// ScheduleType is the firing discipline of a Schedule.
type ScheduleType int

const (
	ScheduleTimed ScheduleType = iota + 1
	ScheduleInterval
	ScheduleManual
	ScheduleStartup
)

func (t ScheduleType) String() string {
	switch t {
	case ScheduleTimed:
		return "TIMED"
	case ScheduleInterval:
		return "INTERVAL"
	case ScheduleManual:
		return "MANUAL"
	case ScheduleStartup:
		return "STARTUP"
	default:
		return "UNKNOWN"
	}
}

// RepeatKind is the calendar repeat granularity for TIMED schedules.
type RepeatKind int

const (
	RepeatNone RepeatKind = iota
	RepeatHourly
	RepeatDaily
	RepeatWeekly
)

// Schedule is a persisted description of when a named process should run.
type Schedule struct {
	ID          uuid.UUID
	Name        string
	ProcessName string
	Type        ScheduleType
	Time        time.Time     // wall-clock time-of-day for TIMED schedules
	Day         int           // day-of-week for weekly TIMED schedules, 0=Sunday
	Interval    time.Duration // INTERVAL schedules' period, or TIMED h:m:s component
	Repeat      RepeatKind
	Exclusive   bool
	Paused      bool
}

// RepeatSeconds derives the repeat period per spec.md 3: from Repeat when
// set, else from Interval. Returns 0, false for MANUAL schedules with
// neither set.
func (s Schedule) RepeatSeconds() (int64, bool) {
	switch s.Repeat {
	case RepeatHourly:
		return 3600, true
	case RepeatDaily:
		return 86400, true
	case RepeatWeekly:
		return 604800, true
	}
	if s.Interval > 0 {
		return int64(s.Interval / time.Second), true
	}
	return 0, false
}

// ScheduledProcess maps a name to the argv used to launch it.
type ScheduledProcess struct {
	Name string
	Argv []string
}

// TaskState is the lifecycle state of one run of a scheduled process.
type TaskState int

const (
	TaskRunning TaskState = iota + 1
	TaskComplete
	TaskCanceled
	TaskInterrupted
)

// Task is one run of a scheduled process. STARTUP schedules never produce
// a persisted Task row (spec.md 3, 9); all other schedule kinds do.
type Task struct {
	ID          uuid.UUID
	ProcessName string
	State       TaskState
	StartTime   time.Time
	EndTime     time.Time
	PID         int
	ExitCode    int
	Reason      string
}
