package service

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// PeriodGrids holds the validated period structure of every timetable mode.
type PeriodGrids struct {
	grids map[models.TimetableMode]models.PeriodGrid
}

// NewPeriodGrids validates the provided grids. A nil map selects the built-in defaults.
func NewPeriodGrids(grids map[models.TimetableMode]models.PeriodGrid) (*PeriodGrids, error) {
	if grids == nil {
		grids = models.DefaultPeriodGrids()
	}
	copied := make(map[models.TimetableMode]models.PeriodGrid, len(grids))
	for mode, grid := range grids {
		if !mode.Valid() {
			return nil, fmt.Errorf("unknown timetable mode %q", mode)
		}
		if err := grid.Validate(); err != nil {
			return nil, fmt.Errorf("mode %s: %w", mode, err)
		}
		copied[mode] = append(models.PeriodGrid(nil), grid...)
	}
	return &PeriodGrids{grids: copied}, nil
}

// Modes lists the configured modes in display order.
func (p *PeriodGrids) Modes() []models.TimetableMode {
	modes := make([]models.TimetableMode, 0, len(p.grids))
	for _, mode := range models.TimetableModes {
		if _, ok := p.grids[mode]; ok {
			modes = append(modes, mode)
		}
	}
	return modes
}

// Grid returns the period grid of a mode.
func (p *PeriodGrids) Grid(mode models.TimetableMode) (models.PeriodGrid, error) {
	grid, ok := p.grids[mode]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timetable mode %q", mode))
	}
	return grid, nil
}

// Resolve parses a raw mode and returns it together with its grid.
func (p *PeriodGrids) Resolve(raw string) (models.TimetableMode, models.PeriodGrid, error) {
	mode, ok := models.ParseTimetableMode(raw)
	if !ok {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timetable mode %q", raw))
	}
	grid, err := p.Grid(mode)
	if err != nil {
		return "", nil, err
	}
	return mode, grid, nil
}

// Period returns the definition at index within the mode's grid.
func (p *PeriodGrids) Period(mode models.TimetableMode, index int) (models.PeriodDefinition, error) {
	grid, err := p.Grid(mode)
	if err != nil {
		return models.PeriodDefinition{}, err
	}
	if index < 0 || index >= len(grid) {
		return models.PeriodDefinition{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period index %d is outside the %s grid (0-%d)", index, mode, len(grid)-1))
	}
	return grid[index], nil
}
