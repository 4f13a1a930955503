package domain

import (
	"fmt"
	"strings"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority accepts any letter case; an empty value maps to Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium", "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	return "", fmt.Errorf("parse priority: unknown value %q", s)
}

// Time of day in minutes since midnight.
type TimeOfDay int

const (
	StartOfDay TimeOfDay = 0
	EndOfDay   TimeOfDay = 23*60 + 59
)

// ParseTimeOfDay parses a 24h "HH:MM" value.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse time of day %q: out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Represents a client delivery point.
// Stops are owned by the client registry; the planner only reads them.
// Priority, the delivery window and Volume are carried through to the
// result but do not influence the visiting order.
type Stop struct {
	ID          string
	Name        string
	Address     string
	Coordinate  Coordinate
	Priority    Priority
	WindowStart TimeOfDay
	WindowEnd   TimeOfDay
	Volume      float64
}

const (
	DepotStartID = "depot-start"
	DepotEndID   = "depot-end"
)

// NewDepotStop builds the synthetic anchor placed at the start and end of
// every route.
func NewDepotStop(id string, label string, coord Coordinate, address string) Stop {
	return Stop{
		ID:          id,
		Name:        label,
		Address:     address,
		Coordinate:  coord,
		Priority:    PriorityHigh,
		WindowStart: StartOfDay,
		WindowEnd:   EndOfDay,
		Volume:      0,
	}
}

func (s Stop) IsDepot() bool {
	return s.ID == DepotStartID || s.ID == DepotEndID
}
