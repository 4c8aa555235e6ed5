package query

import (
	"fmt"
	"time"

	"content-planner/services/planner/internal/entity"

	"github.com/jinzhu/now"
)

// ScheduleFilters selects schedules by post and by an inclusive range on
// scheduledDate.
type ScheduleFilters struct {
	PostID string     `json:"postId,omitempty"`
	Start  *time.Time `json:"startDate,omitempty"`
	End    *time.Time `json:"endDate,omitempty"`
}

func (f ScheduleFilters) Match(schedule entity.Schedule) bool {
	if f.PostID != "" && schedule.PostID != f.PostID {
		return false
	}
	if f.Start != nil && schedule.ScheduledDate.Before(*f.Start) {
		return false
	}
	if f.End != nil && schedule.ScheduledDate.After(*f.End) {
		return false
	}
	return true
}

func FilterSchedules(schedules []entity.Schedule, filters ScheduleFilters) []entity.Schedule {
	result := make([]entity.Schedule, 0, len(schedules))
	for _, schedule := range schedules {
		if filters.Match(schedule) {
			result = append(result, schedule)
		}
	}
	return result
}

const dateOnly = "2006-01-02"

var rangeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", dateOnly}

// ParseScheduleFilters reads the raw query parameters. A date-only endDate
// covers the whole of that day.
func ParseScheduleFilters(postID, startDate, endDate string) (ScheduleFilters, error) {
	filters := ScheduleFilters{PostID: postID}

	if startDate != "" {
		start, _, err := parseRangeBound(startDate)
		if err != nil {
			return filters, fmt.Errorf("invalid startDate: %w", err)
		}
		filters.Start = &start
	}

	if endDate != "" {
		end, dayOnly, err := parseRangeBound(endDate)
		if err != nil {
			return filters, fmt.Errorf("invalid endDate: %w", err)
		}
		if dayOnly {
			end = now.With(end).EndOfDay()
		}
		filters.End = &end
	}

	return filters, nil
}

func parseRangeBound(value string) (time.Time, bool, error) {
	for _, layout := range rangeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), layout == dateOnly, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%q is not a date or RFC 3339 timestamp", value)
}
