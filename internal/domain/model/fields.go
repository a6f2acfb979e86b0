// Package model contains domain records passed between layers and their
// mapping to and from loosely typed record store field maps.
package model

import (
	"fmt"
	"strconv"
)

// Member field names in the record store.
const (
	FieldFirstName                  = "first_name"
	FieldLastName                   = "last_name"
	FieldEmail                      = "email"
	FieldPhoneNumber                = "phone_number"
	FieldSoulType                   = "soul_type"
	FieldEvangelismType             = "evangelism_type"
	FieldDepartment                 = "department"
	FieldCompletedMembership        = "completed_membership"
	FieldCompletedNewBelievers      = "completed_new_believers"
	FieldIsBaptised                 = "is_baptised"
	FieldCompletedSpiritualMaturity = "completed_spiritual_maturity"
	FieldFirstAttendanceDate        = "first_attendance_date"
	FieldLastAttendanceDate         = "last_attendance_date"
	FieldSoulWinner                 = "soul_winner"
	FieldAddress                    = "address"
	FieldPointOfContact             = "point_of_contact"
	FieldBranch                     = "Branch"
)

// Service event field names.
const (
	FieldEventType     = "type"
	FieldEventDate     = "date"
	FieldEventLocation = "location"
)

// Attendance field names. FieldAttendanceEventID is a computed text
// mirror of the linked event id and is only read, never written.
const (
	FieldAttendanceMember    = "Member"
	FieldAttendanceEvent     = "Service Event"
	FieldAttendanceStatus    = "Status"
	FieldAttendanceTimestamp = "Timestamp"
	FieldAttendanceEventID   = "event_id"
)

// Branch field names.
const (
	FieldBranchName     = "name"
	FieldBranchRegion   = "region"
	FieldBranchLocation = "location"
)

// FirstLink returns the first linked id of a relation field. Missing,
// empty or malformed values yield "".
func FirstLink(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case []any:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s
		}
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case string:
		// some lookups come back flattened
		return v
	}
	return ""
}

// Link wraps id as a relation value. An empty id yields an empty relation.
func Link(id string) []string {
	if id == "" {
		return []string{}
	}
	return []string{id}
}

func text(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		// single-value lookups arrive as arrays
		if len(v) > 0 {
			return text(map[string]any{key: v[0]}, key)
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func flag(fields map[string]any, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case string:
		return v == "true" || v == "1"
	}
	return false
}

func setText(fields map[string]any, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}

func setFlag(fields map[string]any, key string, v *bool) {
	if v != nil {
		fields[key] = *v
	}
}

func setLink(fields map[string]any, key string, v *string) {
	if v != nil {
		fields[key] = Link(*v)
	}
}
