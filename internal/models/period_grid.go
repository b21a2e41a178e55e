package models

import (
	"fmt"
	"time"
)

const clockLayout = "15:04"

// PeriodDefinition describes one period of the school day.
type PeriodDefinition struct {
	Start  string `mapstructure:"start" json:"start" yaml:"start"`
	End    string `mapstructure:"end" json:"end" yaml:"end"`
	Locked bool   `mapstructure:"locked" json:"locked" yaml:"locked"`
	Label  string `mapstructure:"label" json:"label,omitempty" yaml:"label"`
}

// Validate checks the HH:MM bounds and label rules of the definition.
func (p PeriodDefinition) Validate() error {
	start, err := time.Parse(clockLayout, p.Start)
	if err != nil {
		return fmt.Errorf("invalid start %q: %w", p.Start, err)
	}
	end, err := time.Parse(clockLayout, p.End)
	if err != nil {
		return fmt.Errorf("invalid end %q: %w", p.End, err)
	}
	if !start.Before(end) {
		return fmt.Errorf("period %s-%s must start before it ends", p.Start, p.End)
	}
	if p.Locked && p.Label == "" {
		return fmt.Errorf("locked period %s-%s requires a label", p.Start, p.End)
	}
	return nil
}

// PeriodGrid is the ordered day structure of a mode.
type PeriodGrid []PeriodDefinition

// OpenCount returns the number of assignable periods per day.
func (g PeriodGrid) OpenCount() int {
	count := 0
	for _, period := range g {
		if !period.Locked {
			count++
		}
	}
	return count
}

// Validate checks every definition and the ordering between neighbours.
func (g PeriodGrid) Validate() error {
	if len(g) == 0 {
		return fmt.Errorf("period grid is empty")
	}
	for i, period := range g {
		if err := period.Validate(); err != nil {
			return fmt.Errorf("period %d: %w", i, err)
		}
		if i == 0 {
			continue
		}
		prev, _ := time.Parse(clockLayout, g[i-1].Start)
		current, _ := time.Parse(clockLayout, period.Start)
		if current.Before(prev) {
			return fmt.Errorf("period %d starts before period %d", i, i-1)
		}
	}
	return nil
}

func open(start, end string) PeriodDefinition {
	return PeriodDefinition{Start: start, End: end}
}

func locked(start, end, label string) PeriodDefinition {
	return PeriodDefinition{Start: start, End: end, Locked: true, Label: label}
}

// DefaultPeriodGrids returns the built-in day structure for each mode.
func DefaultPeriodGrids() map[TimetableMode]PeriodGrid {
	return map[TimetableMode]PeriodGrid{
		ModeUpperPrimary: {
			locked("08:00", "08:20", "ASSEMBLY"),
			open("08:20", "08:55"),
			open("08:55", "09:30"),
			locked("09:30", "09:45", "BREAK"),
			open("09:45", "10:20"),
			open("10:20", "10:55"),
			locked("10:55", "11:25", "BREAK"),
			open("11:25", "12:00"),
			open("12:00", "12:35"),
			locked("12:35", "13:35", "LUNCH"),
			open("13:35", "14:10"),
			open("14:10", "14:45"),
		},
		ModeJunior: {
			open("08:00", "08:40"),
			open("08:40", "09:20"),
			open("09:20", "10:00"),
			locked("10:00", "10:20", "BREAK"),
			open("10:20", "11:00"),
			open("11:00", "11:40"),
			locked("11:40", "12:10", "BREAK"),
			open("12:10", "12:50"),
			open("12:50", "13:30"),
			locked("13:30", "14:20", "LUNCH"),
			open("14:20", "15:00"),
			open("15:00", "15:40"),
		},
		ModeECDE: {
			locked("08:00", "08:30", "ASSEMBLY"),
			open("08:30", "09:00"),
			open("09:00", "09:30"),
			locked("09:30", "10:00", "BREAK"),
			open("10:00", "10:30"),
			open("10:30", "11:00"),
			locked("11:00", "11:30", "BREAK"),
			open("11:30", "12:00"),
			open("12:00", "12:30"),
			locked("12:30", "13:30", "LUNCH"),
		},
	}
}
