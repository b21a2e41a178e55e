package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, RosterFile, cfg.Roster.Source)
	assert.Equal(t, 2, cfg.Scheduler.MaxSubjectPerDay)
	assert.Equal(t, int64(0), cfg.Scheduler.Seed)
	assert.False(t, cfg.JWT.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("GRID_STORE_BACKEND", "Redis")
	v.Set("SCHEDULER_MAX_SUBJECT_PER_DAY", 0)
	v.Set("SCHEDULER_SEED", 42)
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	v.Set("DB_AUTO_MIGRATE", "true")

	cfg := fromViper(v)

	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Scheduler.MaxSubjectPerDay)
	assert.Equal(t, int64(42), cfg.Scheduler.Seed)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadPeriodGridsDefaultsWithoutFile(t *testing.T) {
	grids, err := LoadPeriodGrids("")
	require.NoError(t, err)
	assert.Len(t, grids, len(models.TimetableModes))
	for _, mode := range models.TimetableModes {
		assert.NoError(t, grids[mode].Validate(), string(mode))
	}
}

func TestLoadPeriodGridsOverridesMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "periods.yaml")
	content := `modes:
  ecde:
    - start: "08:00"
      end: "08:30"
    - start: "08:30"
      end: "09:00"
      locked: true
      label: " Games "
    - start: "09:00"
      end: "09:30"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	grids, err := LoadPeriodGrids(path)
	require.NoError(t, err)

	ecde := grids[models.ModeECDE]
	require.Len(t, ecde, 3)
	assert.Equal(t, 2, ecde.OpenCount())
	assert.Equal(t, "Games", ecde[1].Label)
	assert.Equal(t, models.DefaultPeriodGrids()[models.ModeJunior], grids[models.ModeJunior])
}

func TestLoadPeriodGridsRejectsInvalidPeriods(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "periods.yaml")
	content := `modes:
  junior:
    - start: "09:00"
      end: "08:00"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadPeriodGrids(path)
	assert.Error(t, err)
}

func TestLoadPeriodGridsRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "periods.yaml")
	content := `modes:
  senior:
    - start: "08:00"
      end: "08:40"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadPeriodGrids(path)
	assert.ErrorContains(t, err, "unknown timetable mode")
}
