package service

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// GridStore persists slots keyed by (mode, class, stream, day, period).
// Delete of an absent slot is not an error.
type GridStore interface {
	LoadAll(ctx context.Context, mode models.TimetableMode) ([]models.Slot, error)
	ReplaceAll(ctx context.Context, mode models.TimetableMode, slots []models.Slot) error
	Upsert(ctx context.Context, id models.SlotID, slot models.Slot) error
	Delete(ctx context.Context, id models.SlotID) error
}

type streamCatalog interface {
	ListStreams(ctx context.Context, mode models.TimetableMode) ([]models.ClassStream, error)
	FindStream(ctx context.Context, classID, streamID string) (*models.ClassStream, error)
}

type demandRegistry interface {
	ListBindings(ctx context.Context, mode models.TimetableMode) ([]models.DemandBinding, error)
	ListBindingsBySubjectClass(ctx context.Context, subjectID, classID string) ([]models.DemandBinding, error)
}

type timetableMetrics interface {
	ObserveGeneration(mode string, duration time.Duration, slots, forced int, err error)
	RecordCellEdit(mode, op string, warningCodes []string)
}

// TimetableGeneratorConfig governs generator behaviour.
type TimetableGeneratorConfig struct {
	MaxSubjectPerDay int
	// Seed fixes the demand shuffle; zero seeds from the clock on every run.
	Seed int64
}

// TimetableGeneratorService rebuilds the weekly grid of a mode from the demand registry.
type TimetableGeneratorService struct {
	grids     *PeriodGrids
	streams   streamCatalog
	demand    demandRegistry
	store     GridStore
	metrics   timetableMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableGeneratorConfig
	now       func() time.Time

	runMu sync.Mutex
}

// NewTimetableGeneratorService wires generator dependencies.
func NewTimetableGeneratorService(
	grids *PeriodGrids,
	streams streamCatalog,
	demand demandRegistry,
	store GridStore,
	metrics timetableMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSubjectPerDay <= 0 {
		cfg.MaxSubjectPerDay = 2
	}
	return &TimetableGeneratorService{
		grids:     grids,
		streams:   streams,
		demand:    demand,
		store:     store,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Generate discards every slot of the requested mode and replaces it with a
// freshly generated week for all of the mode's streams. Other modes are untouched.
// Constraint failures never abort the run; they surface as forced placements.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	mode, grid, err := s.grids.Resolve(req.Mode)
	if err != nil {
		return nil, err
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	started := time.Now()
	resp, err := s.generate(ctx, mode, grid)
	if s.metrics != nil {
		slots, forced := 0, 0
		if resp != nil {
			slots, forced = resp.SlotCount, len(resp.ForcedPlacements)
		}
		s.metrics.ObserveGeneration(string(mode), time.Since(started), slots, forced, err)
	}
	return resp, err
}

func (s *TimetableGeneratorService) generate(ctx context.Context, mode models.TimetableMode, grid models.PeriodGrid) (*dto.GenerateTimetableResponse, error) {
	streams, err := s.streams.ListStreams(ctx, mode)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class streams")
	}
	bindings, err := s.demand.ListBindings(ctx, mode)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teacher assignments")
	}
	previous, err := s.store.LoadAll(ctx, mode)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load existing timetable")
	}

	sc := NewSchedulingContext(mode, grid, s.cfg.MaxSubjectPerDay, s.now())
	rng := s.newRand()

	resp := &dto.GenerateTimetableResponse{
		Mode:             mode,
		DiscardedSlots:   len(previous),
		Streams:          make([]dto.StreamGenerationSummary, 0, len(streams)),
		EmptyDemand:      make([]models.StreamKey, 0),
		ForcedPlacements: make([]models.ForcedPlacement, 0),
	}

	var slots []models.Slot
	for _, group := range groupDemand(streams, bindings) {
		forcedBefore := len(sc.ForcedPlacements())
		streamSlots := sc.FillStream(group, rng)
		slots = append(slots, streamSlots...)

		summary := summariseStream(group, grid, streamSlots)
		summary.ForcedSlots = len(sc.ForcedPlacements()) - forcedBefore
		resp.Streams = append(resp.Streams, summary)
		if summary.EmptyDemand {
			resp.EmptyDemand = append(resp.EmptyDemand, group.Stream.Key())
		}
	}

	if err := s.store.ReplaceAll(ctx, mode, slots); err != nil {
		return nil, appErrors.Internal(err, "failed to persist generated timetable")
	}

	resp.SlotCount = len(slots)
	resp.ForcedPlacements = append(resp.ForcedPlacements, sc.ForcedPlacements()...)
	resp.Degraded = len(resp.ForcedPlacements) > 0

	for _, forced := range resp.ForcedPlacements {
		s.logger.Warn("timetable slot force-placed",
			zap.String("mode", string(mode)),
			zap.String("class_id", forced.Slot.ClassID),
			zap.String("stream_id", forced.Slot.StreamID),
			zap.String("day", models.DayName(forced.Slot.Day)),
			zap.Int("period_index", forced.Slot.PeriodIndex),
			zap.String("subject_id", forced.SubjectID),
			zap.String("teacher_id", forced.TeacherID),
			zap.Strings("reasons", forced.Reasons),
		)
	}
	s.logger.Info("timetable generated",
		zap.String("mode", string(mode)),
		zap.Int("streams", len(resp.Streams)),
		zap.Int("bindings", len(bindings)),
		zap.Int("slots", resp.SlotCount),
		zap.Int("discarded", resp.DiscardedSlots),
		zap.Int("forced", len(resp.ForcedPlacements)),
		zap.Int("empty_demand", len(resp.EmptyDemand)),
	)
	return resp, nil
}

func (s *TimetableGeneratorService) newRand() *rand.Rand {
	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)) //nolint:gosec
}

func summariseStream(group streamDemand, grid models.PeriodGrid, slots []models.Slot) dto.StreamGenerationSummary {
	summary := dto.StreamGenerationSummary{
		ClassID:     group.Stream.ClassID,
		ClassName:   group.Stream.ClassName,
		StreamID:    group.Stream.StreamID,
		StreamName:  group.Stream.StreamName,
		Bindings:    len(group.Bindings),
		OpenSlots:   grid.OpenCount() * models.SchoolDays,
		EmptyDemand: len(group.Bindings) == 0,
	}
	for _, slot := range slots {
		switch {
		case slot.IsLocked:
			summary.LockedSlots++
		case slot.Filled():
			summary.FilledSlots++
		}
	}
	summary.UnfilledSlots = summary.OpenSlots - summary.FilledSlots
	return summary
}

// Timetable returns the stored slots of a mode, optionally narrowed to a class or stream.
func (s *TimetableGeneratorService) Timetable(ctx context.Context, query dto.TimetableQuery) ([]models.Slot, error) {
	mode, _, err := s.grids.Resolve(query.Mode)
	if err != nil {
		return nil, err
	}
	if query.StreamID != "" && query.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required when streamId is set")
	}
	slots, err := s.store.LoadAll(ctx, mode)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load timetable")
	}

	result := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		if query.ClassID != "" && slot.ClassID != query.ClassID {
			continue
		}
		if query.StreamID != "" && slot.StreamID != query.StreamID {
			continue
		}
		result = append(result, slot)
	}
	sortSlots(result)
	return result, nil
}

// Periods describes the period grid of a mode.
func (s *TimetableGeneratorService) Periods(mode string) (*dto.PeriodGridResponse, error) {
	resolved, grid, err := s.grids.Resolve(mode)
	if err != nil {
		return nil, err
	}
	return &dto.PeriodGridResponse{
		Mode:        resolved,
		Periods:     append([]models.PeriodDefinition(nil), grid...),
		OpenPerDay:  grid.OpenCount(),
		OpenPerWeek: grid.OpenCount() * models.SchoolDays,
	}, nil
}

// Modes lists the configured timetable modes.
func (s *TimetableGeneratorService) Modes() []models.TimetableMode {
	return s.grids.Modes()
}

func sortSlots(slots []models.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		if a.StreamName != b.StreamName {
			return a.StreamName < b.StreamName
		}
		if a.StreamID != b.StreamID {
			return a.StreamID < b.StreamID
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.PeriodIndex < b.PeriodIndex
	})
}
