package service

import (
	"math/rand"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type occupancyKey struct {
	TeacherID   string
	Day         int
	PeriodIndex int
}

type subjectDayKey struct {
	Stream    models.StreamKey
	Day       int
	SubjectID string
}

// SchedulingContext is the state shared by all streams filled in one
// generation run: teacher occupancy across streams, per-day subject counters
// per stream and the list of forced placements. It is discarded after the run.
type SchedulingContext struct {
	mode             models.TimetableMode
	grid             models.PeriodGrid
	maxSubjectPerDay int
	now              time.Time

	occupancy  map[occupancyKey]models.SlotID
	subjectDay map[subjectDayKey]int
	forced     []models.ForcedPlacement
}

// NewSchedulingContext prepares an empty tracker for one mode.
func NewSchedulingContext(mode models.TimetableMode, grid models.PeriodGrid, maxSubjectPerDay int, now time.Time) *SchedulingContext {
	if maxSubjectPerDay <= 0 {
		maxSubjectPerDay = 2
	}
	return &SchedulingContext{
		mode:             mode,
		grid:             grid,
		maxSubjectPerDay: maxSubjectPerDay,
		now:              now,
		occupancy:        make(map[occupancyKey]models.SlotID),
		subjectDay:       make(map[subjectDayKey]int),
	}
}

// ForcedPlacements returns the slots filled despite a violated constraint.
func (sc *SchedulingContext) ForcedPlacements() []models.ForcedPlacement {
	return sc.forced
}

// TeacherFree reports whether the teacher has no lesson at day/period in any stream of the run.
func (sc *SchedulingContext) TeacherFree(teacherID string, day, periodIndex int) bool {
	_, taken := sc.occupancy[occupancyKey{TeacherID: teacherID, Day: day, PeriodIndex: periodIndex}]
	return !taken
}

func (sc *SchedulingContext) subjectCount(stream models.StreamKey, day int, subjectID string) int {
	return sc.subjectDay[subjectDayKey{Stream: stream, Day: day, SubjectID: subjectID}]
}

// violations lists the constraints token would break at id. Empty means acceptable.
func (sc *SchedulingContext) violations(token models.DemandBinding, id models.SlotID) []string {
	var reasons []string
	if !sc.TeacherFree(token.TeacherID, id.Day, id.PeriodIndex) {
		reasons = append(reasons, models.ReasonTeacherDoubleBooked)
	}
	if sc.subjectCount(id.StreamKey(), id.Day, token.SubjectID) >= sc.maxSubjectPerDay {
		reasons = append(reasons, models.ReasonSubjectDayCap)
	}
	return reasons
}

func (sc *SchedulingContext) record(token models.DemandBinding, id models.SlotID) {
	key := occupancyKey{TeacherID: token.TeacherID, Day: id.Day, PeriodIndex: id.PeriodIndex}
	if _, taken := sc.occupancy[key]; !taken {
		sc.occupancy[key] = id
	}
	sc.subjectDay[subjectDayKey{Stream: id.StreamKey(), Day: id.Day, SubjectID: token.SubjectID}]++
}

// demandQueue is the shuffled token sequence of one stream. Scans start at the
// cursor and wrap; after a removal the cursor points at the token that followed.
type demandQueue struct {
	tokens []models.DemandBinding
	cursor int
}

func (q *demandQueue) Len() int {
	return len(q.tokens)
}

func (q *demandQueue) at(offset int) (int, models.DemandBinding) {
	idx := (q.cursor + offset) % len(q.tokens)
	return idx, q.tokens[idx]
}

func (q *demandQueue) remove(idx int) models.DemandBinding {
	token := q.tokens[idx]
	q.tokens = append(q.tokens[:idx], q.tokens[idx+1:]...)
	q.cursor = idx
	if q.cursor >= len(q.tokens) {
		q.cursor = 0
	}
	return token
}

// next removes the first token from the cursor that satisfies every
// constraint at id. When none does, the token at the cursor is taken anyway
// and the violated constraints are returned.
func (sc *SchedulingContext) next(q *demandQueue, id models.SlotID) (models.DemandBinding, []string) {
	for offset := 0; offset < q.Len(); offset++ {
		idx, token := q.at(offset)
		if len(sc.violations(token, id)) == 0 {
			return q.remove(idx), nil
		}
	}
	idx, token := q.at(0)
	reasons := sc.violations(token, id)
	return q.remove(idx), reasons
}

// FillStream generates the week of one stream in day-major order. Locked
// periods always yield a labelled slot. Open periods consume the stream's
// demand queue until it runs out; a stream without bindings gets locked slots only.
func (sc *SchedulingContext) FillStream(demand streamDemand, rng *rand.Rand) []models.Slot {
	openSlots := sc.grid.OpenCount() * models.SchoolDays
	queue := buildDemandQueue(demand.Bindings, openSlots)
	shuffleDemand(queue, rng)
	q := &demandQueue{tokens: queue}

	stream := demand.Stream
	slots := make([]models.Slot, 0, len(sc.grid)*models.SchoolDays)
	for day := models.FirstSchoolDay; day <= models.LastSchoolDay; day++ {
		for idx, period := range sc.grid {
			slot := models.Slot{
				Mode:        sc.mode,
				ClassID:     stream.ClassID,
				ClassName:   stream.ClassName,
				StreamID:    stream.StreamID,
				StreamName:  stream.StreamName,
				Day:         day,
				PeriodIndex: idx,
				TimeStart:   period.Start,
				TimeEnd:     period.End,
				UpdatedAt:   sc.now,
			}
			if period.Locked {
				slot.IsLocked = true
				slot.Label = period.Label
				slots = append(slots, slot)
				continue
			}
			if q.Len() == 0 {
				continue
			}

			id := slot.ID()
			token, reasons := sc.next(q, id)
			slot.SubjectID = token.SubjectID
			slot.SubjectName = token.SubjectName
			slot.TeacherID = token.TeacherID
			slot.TeacherName = token.TeacherName
			slot.TeacherCode = token.TeacherCode
			if len(reasons) > 0 {
				slot.Forced = true
				sc.forced = append(sc.forced, models.ForcedPlacement{
					Slot:      id,
					SubjectID: token.SubjectID,
					TeacherID: token.TeacherID,
					Reasons:   reasons,
				})
			}
			sc.record(token, id)
			slots = append(slots, slot)
		}
	}
	return slots
}
