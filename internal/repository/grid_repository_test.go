package repository

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

type gridStore interface {
	LoadAll(ctx context.Context, mode models.TimetableMode) ([]models.Slot, error)
	ReplaceAll(ctx context.Context, mode models.TimetableMode, slots []models.Slot) error
	Upsert(ctx context.Context, id models.SlotID, slot models.Slot) error
	Delete(ctx context.Context, id models.SlotID) error
}

func sampleSlot(mode models.TimetableMode, stream string, day, period int, subject string) models.Slot {
	return models.Slot{
		Mode:        mode,
		ClassID:     "g5",
		ClassName:   "Grade 5",
		StreamID:    stream,
		StreamName:  stream,
		Day:         day,
		PeriodIndex: period,
		TimeStart:   "08:20",
		TimeEnd:     "08:55",
		SubjectID:   subject,
		SubjectName: subject,
		TeacherID:   "t-" + subject,
		TeacherName: "Teacher " + subject,
		UpdatedAt:   time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC),
	}
}

func sortedKeys(slots []models.Slot) []string {
	keys := make([]string, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, slot.ID().Key())
	}
	sort.Strings(keys)
	return keys
}

func exerciseGridStore(t *testing.T, store gridStore) {
	t.Helper()
	ctx := context.Background()

	empty, err := store.LoadAll(ctx, models.ModeJunior)
	require.NoError(t, err)
	assert.Empty(t, empty)

	junior := sampleSlot(models.ModeJunior, "blue", 1, 0, "math")
	require.NoError(t, store.ReplaceAll(ctx, models.ModeJunior, []models.Slot{junior}))

	first := []models.Slot{
		sampleSlot(models.ModeUpperPrimary, "east", 1, 1, "math"),
		sampleSlot(models.ModeUpperPrimary, "east", 1, 2, "eng"),
	}
	require.NoError(t, store.ReplaceAll(ctx, models.ModeUpperPrimary, first))

	second := []models.Slot{
		sampleSlot(models.ModeUpperPrimary, "west", 2, 1, "sci"),
	}
	require.NoError(t, store.ReplaceAll(ctx, models.ModeUpperPrimary, second))

	upper, err := store.LoadAll(ctx, models.ModeUpperPrimary)
	require.NoError(t, err)
	assert.Equal(t, sortedKeys(second), sortedKeys(upper))

	juniorSlots, err := store.LoadAll(ctx, models.ModeJunior)
	require.NoError(t, err)
	require.Len(t, juniorSlots, 1)
	assert.Equal(t, "math", juniorSlots[0].SubjectID)

	edited := sampleSlot(models.ModeUpperPrimary, "west", 2, 1, "art")
	require.NoError(t, store.Upsert(ctx, edited.ID(), edited))
	added := sampleSlot(models.ModeUpperPrimary, "west", 3, 4, "kis")
	require.NoError(t, store.Upsert(ctx, added.ID(), added))

	upper, err = store.LoadAll(ctx, models.ModeUpperPrimary)
	require.NoError(t, err)
	require.Len(t, upper, 2)
	for _, slot := range upper {
		if slot.ID() == edited.ID() {
			assert.Equal(t, "art", slot.SubjectID)
		}
	}

	require.NoError(t, store.Delete(ctx, added.ID()))
	require.NoError(t, store.Delete(ctx, added.ID()))
	upper, err = store.LoadAll(ctx, models.ModeUpperPrimary)
	require.NoError(t, err)
	assert.Equal(t, []string{edited.ID().Key()}, sortedKeys(upper))

	require.NoError(t, store.ReplaceAll(ctx, models.ModeUpperPrimary, nil))
	upper, err = store.LoadAll(ctx, models.ModeUpperPrimary)
	require.NoError(t, err)
	assert.Empty(t, upper)
}

func TestMemoryGridRepository(t *testing.T) {
	exerciseGridStore(t, NewMemoryGridRepository())
}

func TestFileGridRepository(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	exerciseGridStore(t, NewFileGridRepository(local))

	_, err = os.Stat(filepath.Join(dir, "timetable_junior.json"))
	assert.NoError(t, err)
}

func TestFileGridRepositorySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	slot := sampleSlot(models.ModeECDE, "red", 4, 1, "play")
	require.NoError(t, NewFileGridRepository(local).Upsert(context.Background(), slot.ID(), slot))

	reopened, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	slots, err := NewFileGridRepository(reopened).LoadAll(context.Background(), models.ModeECDE)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, slot, slots[0])
}

func TestFileGridRepositoryRejectsCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "timetable_ecde.json"), []byte("{not json"), 0o644))
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = NewFileGridRepository(local).LoadAll(context.Background(), models.ModeECDE)
	assert.Error(t, err)
}
