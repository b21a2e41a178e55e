package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestNewPeriodGridsRejectsInvalidGrid(t *testing.T) {
	_, err := NewPeriodGrids(map[models.TimetableMode]models.PeriodGrid{
		models.ModeJunior: {{Start: "09:00", End: "08:00"}},
	})
	assert.Error(t, err)

	_, err = NewPeriodGrids(map[models.TimetableMode]models.PeriodGrid{
		models.TimetableMode("senior"): {{Start: "08:00", End: "09:00"}},
	})
	assert.Error(t, err)
}

func TestPeriodGridsResolve(t *testing.T) {
	grids, err := NewPeriodGrids(map[models.TimetableMode]models.PeriodGrid{
		models.ModeECDE: {
			{Start: "08:00", End: "08:30", Locked: true, Label: "ASSEMBLY"},
			{Start: "08:30", End: "09:00"},
		},
	})
	require.NoError(t, err)

	mode, grid, err := grids.Resolve(" ECDE ")
	require.NoError(t, err)
	assert.Equal(t, models.ModeECDE, mode)
	assert.Equal(t, 1, grid.OpenCount())
	assert.Equal(t, []models.TimetableMode{models.ModeECDE}, grids.Modes())

	_, _, err = grids.Resolve("junior")
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "mode without a grid")

	period, err := grids.Period(models.ModeECDE, 0)
	require.NoError(t, err)
	assert.True(t, period.Locked)

	_, err = grids.Period(models.ModeECDE, 2)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = grids.Period(models.ModeECDE, -1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
