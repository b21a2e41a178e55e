package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// LoadPeriodGrids returns the period grid of every mode. Modes present in the
// YAML file at path replace the built-in grid; an empty path keeps the defaults.
//
// Expected layout:
//
//	modes:
//	  junior:
//	    - {start: "08:00", end: "08:40"}
//	    - {start: "10:00", end: "10:20", locked: true, label: BREAK}
func LoadPeriodGrids(path string) (map[models.TimetableMode]models.PeriodGrid, error) {
	grids := models.DefaultPeriodGrids()
	if strings.TrimSpace(path) == "" {
		return grids, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read period grid file %s: %w", path, err)
	}

	var raw map[string][]map[string]any
	if err := v.UnmarshalKey("modes", &raw); err != nil {
		return nil, fmt.Errorf("parse period grid modes: %w", err)
	}

	for name, entries := range raw {
		mode, ok := models.ParseTimetableMode(name)
		if !ok {
			return nil, fmt.Errorf("unknown timetable mode %q in %s", name, path)
		}
		grid, err := decodePeriodGrid(entries)
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", mode, err)
		}
		grids[mode] = grid
	}
	return grids, nil
}

func decodePeriodGrid(entries []map[string]any) (models.PeriodGrid, error) {
	grid := make(models.PeriodGrid, 0, len(entries))
	for i, entry := range entries {
		var period models.PeriodDefinition
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &period,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			TagName:          "mapstructure",
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(entry); err != nil {
			return nil, fmt.Errorf("period %d: %w", i, err)
		}
		period.Label = strings.TrimSpace(period.Label)
		grid = append(grid, period)
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return grid, nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
