package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type generatorFixture struct {
	service *TimetableGeneratorService
	roster  *rosterStub
	store   *gridStoreStub
	metrics *metricsStub
}

func newGeneratorFixture(t *testing.T, seed int64, existing ...models.Slot) generatorFixture {
	t.Helper()
	grids, err := NewPeriodGrids(nil)
	require.NoError(t, err)

	east := classStream(models.ModeUpperPrimary, "g5", "east")
	west := classStream(models.ModeUpperPrimary, "g5", "west")
	idle := classStream(models.ModeUpperPrimary, "g6", "north")
	junior := classStream(models.ModeJunior, "g7", "blue")

	roster := &rosterStub{
		streams: []models.ClassStream{east, west, idle, junior},
		bindings: []models.DemandBinding{
			binding(east, "t1", "math"),
			binding(east, "t2", "eng"),
			binding(east, "t3", "sci"),
			binding(east, "t4", "kis"),
			binding(west, "t1", "math"),
			binding(west, "t5", "eng"),
			binding(west, "t6", "sci"),
			binding(west, "t7", "kis"),
			binding(junior, "t8", "math"),
		},
	}
	store := newGridStoreStub(existing...)
	metrics := &metricsStub{}
	service := NewTimetableGeneratorService(grids, roster, roster, store, metrics, nil, zap.NewNop(), TimetableGeneratorConfig{Seed: seed})
	return generatorFixture{service: service, roster: roster, store: store, metrics: metrics}
}

func TestTimetableGeneratorServiceGenerateFillsEveryStream(t *testing.T) {
	fx := newGeneratorFixture(t, 11)
	grid := models.DefaultPeriodGrids()[models.ModeUpperPrimary]

	resp, err := fx.service.Generate(context.Background(), dto.GenerateTimetableRequest{Mode: "upper-primary"})
	require.NoError(t, err)

	assert.Equal(t, models.ModeUpperPrimary, resp.Mode)
	require.Len(t, resp.Streams, 3)

	perStream := len(grid) * models.SchoolDays
	locked := (len(grid) - grid.OpenCount()) * models.SchoolDays
	assert.Equal(t, 2*perStream+locked, resp.SlotCount)
	assert.Equal(t, resp.SlotCount, fx.store.count())

	for _, summary := range resp.Streams[:2] {
		assert.Equal(t, 4, summary.Bindings)
		assert.Equal(t, grid.OpenCount()*models.SchoolDays, summary.FilledSlots)
		assert.Equal(t, locked, summary.LockedSlots)
		assert.Zero(t, summary.UnfilledSlots)
		assert.False(t, summary.EmptyDemand)
	}

	idle := resp.Streams[2]
	assert.True(t, idle.EmptyDemand)
	assert.Equal(t, locked, idle.LockedSlots)
	assert.Zero(t, idle.FilledSlots)
	assert.Equal(t, []models.StreamKey{{ClassID: "g6", StreamID: "north"}}, resp.EmptyDemand)

	assert.Equal(t, len(resp.ForcedPlacements) > 0, resp.Degraded)
	require.Len(t, fx.metrics.outcomes, 1)
}

func TestTimetableGeneratorServiceGenerateLeavesOtherModesUntouched(t *testing.T) {
	juniorSlot := models.Slot{Mode: models.ModeJunior, ClassID: "g7", StreamID: "blue", Day: 2, PeriodIndex: 0, SubjectID: "math", TeacherID: "t8"}
	ecdeSlot := models.Slot{Mode: models.ModeECDE, ClassID: "pp1", StreamID: "red", Day: 1, PeriodIndex: 1, SubjectID: "play", TeacherID: "t9"}
	stale := models.Slot{Mode: models.ModeUpperPrimary, ClassID: "gone", StreamID: "x", Day: 1, PeriodIndex: 1, SubjectID: "old", TeacherID: "t0"}
	fx := newGeneratorFixture(t, 5, juniorSlot, ecdeSlot, stale)

	resp, err := fx.service.Generate(context.Background(), dto.GenerateTimetableRequest{Mode: "upper_primary"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.DiscardedSlots)

	_, ok := fx.store.get(stale.ID())
	assert.False(t, ok, "stale slot of the regenerated mode should be discarded")
	got, ok := fx.store.get(juniorSlot.ID())
	require.True(t, ok)
	assert.Equal(t, juniorSlot, got)
	got, ok = fx.store.get(ecdeSlot.ID())
	require.True(t, ok)
	assert.Equal(t, ecdeSlot, got)
}

func TestTimetableGeneratorServiceLockedSlotsAreStableAcrossRuns(t *testing.T) {
	fx := newGeneratorFixture(t, 1)
	ctx := context.Background()

	lockedSet := func() map[string]string {
		slots, err := fx.store.LoadAll(ctx, models.ModeUpperPrimary)
		require.NoError(t, err)
		result := make(map[string]string)
		for _, slot := range slots {
			if slot.IsLocked {
				result[slot.ID().Key()] = slot.Label + slot.TimeStart + slot.TimeEnd
			}
		}
		return result
	}

	_, err := fx.service.Generate(ctx, dto.GenerateTimetableRequest{Mode: "upper_primary"})
	require.NoError(t, err)
	first := lockedSet()

	fx.service.cfg.Seed = 2
	_, err = fx.service.Generate(ctx, dto.GenerateTimetableRequest{Mode: "upper_primary"})
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, lockedSet())
}

func TestTimetableGeneratorServiceGenerateIsDeterministicWithSeed(t *testing.T) {
	ctx := context.Background()
	run := func() []models.Slot {
		fx := newGeneratorFixture(t, 42)
		_, err := fx.service.Generate(ctx, dto.GenerateTimetableRequest{Mode: "upper_primary"})
		require.NoError(t, err)
		slots, err := fx.service.Timetable(ctx, dto.TimetableQuery{Mode: "upper_primary"})
		require.NoError(t, err)
		for i := range slots {
			slots[i].UpdatedAt = time.Time{}
		}
		return slots
	}
	assert.Equal(t, run(), run())
}

func TestTimetableGeneratorServiceGenerateSurfacesForcedPlacements(t *testing.T) {
	grids, err := NewPeriodGrids(nil)
	require.NoError(t, err)
	stream := classStream(models.ModeECDE, "pp1", "red")
	roster := &rosterStub{
		streams:  []models.ClassStream{stream},
		bindings: []models.DemandBinding{binding(stream, "t1", "play")},
	}
	metrics := &metricsStub{}
	service := NewTimetableGeneratorService(grids, roster, roster, newGridStoreStub(), metrics, nil, nil, TimetableGeneratorConfig{Seed: 3})

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{Mode: "ecde"})
	require.NoError(t, err)

	openPerDay := models.DefaultPeriodGrids()[models.ModeECDE].OpenCount()
	assert.True(t, resp.Degraded)
	assert.Len(t, resp.ForcedPlacements, (openPerDay-2)*models.SchoolDays)
	assert.Equal(t, len(resp.ForcedPlacements), resp.Streams[0].ForcedSlots)
	assert.Equal(t, []string{"ecde:degraded"}, metrics.outcomes)
}

func TestTimetableGeneratorServiceGenerateValidation(t *testing.T) {
	fx := newGeneratorFixture(t, 1)

	_, err := fx.service.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = fx.service.Generate(context.Background(), dto.GenerateTimetableRequest{Mode: "senior"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, fx.metrics.outcomes)
}

func TestTimetableGeneratorServiceGeneratePropagatesStoreFailure(t *testing.T) {
	existing := models.Slot{Mode: models.ModeUpperPrimary, ClassID: "g5", StreamID: "east", Day: 1, PeriodIndex: 1, SubjectID: "math", TeacherID: "t1"}
	fx := newGeneratorFixture(t, 1, existing)
	fx.store.replaceErr = errStoreDown

	_, err := fx.service.Generate(context.Background(), dto.GenerateTimetableRequest{Mode: "upper_primary"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, []string{"upper_primary:error"}, fx.metrics.outcomes)

	got, ok := fx.store.get(existing.ID())
	require.True(t, ok)
	assert.Equal(t, existing, got)
}

func TestTimetableGeneratorServiceGeneratePropagatesRegistryFailure(t *testing.T) {
	fx := newGeneratorFixture(t, 1)
	fx.roster.bindingsErr = errors.New("registry down")

	_, err := fx.service.Generate(context.Background(), dto.GenerateTimetableRequest{Mode: "upper_primary"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Zero(t, fx.store.count())
}

func TestTimetableGeneratorServiceTimetableFilters(t *testing.T) {
	fx := newGeneratorFixture(t, 8)
	ctx := context.Background()
	_, err := fx.service.Generate(ctx, dto.GenerateTimetableRequest{Mode: "upper_primary"})
	require.NoError(t, err)

	all, err := fx.service.Timetable(ctx, dto.TimetableQuery{Mode: "upper_primary"})
	require.NoError(t, err)
	assert.Equal(t, fx.store.count(), len(all))

	west, err := fx.service.Timetable(ctx, dto.TimetableQuery{Mode: "upper_primary", ClassID: "g5", StreamID: "west"})
	require.NoError(t, err)
	grid := models.DefaultPeriodGrids()[models.ModeUpperPrimary]
	require.Len(t, west, len(grid)*models.SchoolDays)
	assert.Equal(t, 1, west[0].Day)
	assert.Equal(t, 0, west[0].PeriodIndex)
	for i := 1; i < len(west); i++ {
		prev, cur := west[i-1], west[i]
		assert.True(t, prev.Day < cur.Day || (prev.Day == cur.Day && prev.PeriodIndex < cur.PeriodIndex))
		assert.Equal(t, "west", cur.StreamID)
	}

	_, err = fx.service.Timetable(ctx, dto.TimetableQuery{Mode: "upper_primary", StreamID: "west"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestTimetableGeneratorServicePeriods(t *testing.T) {
	fx := newGeneratorFixture(t, 1)

	resp, err := fx.service.Periods("junior")
	require.NoError(t, err)
	assert.Equal(t, models.ModeJunior, resp.Mode)
	assert.Equal(t, 9, resp.OpenPerDay)
	assert.Equal(t, 45, resp.OpenPerWeek)
	assert.Len(t, resp.Periods, 12)

	_, err = fx.service.Periods("nursery")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	assert.Equal(t, models.TimetableModes, fx.service.Modes())
}
