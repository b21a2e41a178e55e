package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const slotColumns = `mode, class_id, class_name, stream_id, stream_name, day, period_index, time_start, time_end,
subject_id, subject_name, teacher_id, teacher_name, teacher_code, is_locked, label, forced, updated_at`

const insertSlotQuery = `
INSERT INTO timetable_slots (` + slotColumns + `)
VALUES (:mode, :class_id, :class_name, :stream_id, :stream_name, :day, :period_index, :time_start, :time_end,
:subject_id, :subject_name, :teacher_id, :teacher_name, :teacher_code, :is_locked, :label, :forced, :updated_at)`

// PostgresGridRepository persists timetable slots in the timetable_slots table.
type PostgresGridRepository struct {
	db *sqlx.DB
}

// NewPostgresGridRepository constructs the repository.
func NewPostgresGridRepository(db *sqlx.DB) *PostgresGridRepository {
	return &PostgresGridRepository{db: db}
}

// LoadAll returns the slots of a mode ordered by stream, day and period.
func (r *PostgresGridRepository) LoadAll(ctx context.Context, mode models.TimetableMode) ([]models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM timetable_slots WHERE mode = $1 ORDER BY class_name ASC, stream_name ASC, day ASC, period_index ASC`
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query, string(mode)); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// ReplaceAll deletes every slot of the mode and inserts slots in one transaction.
func (r *PostgresGridRepository) ReplaceAll(ctx context.Context, mode models.TimetableMode, slots []models.Slot) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timetable replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_slots WHERE mode = $1`, string(mode)); err != nil {
		return fmt.Errorf("clear timetable slots: %w", err)
	}

	now := time.Now().UTC()
	for i := range slots {
		slot := slots[i]
		slot.Mode = mode
		if slot.UpdatedAt.IsZero() {
			slot.UpdatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, insertSlotQuery, slot); err != nil {
			return fmt.Errorf("insert timetable slot %s: %w", slot.ID().Key(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit timetable replace: %w", err)
	}
	return nil
}

// Upsert inserts or overwrites the slot at id.
func (r *PostgresGridRepository) Upsert(ctx context.Context, id models.SlotID, slot models.Slot) error {
	slot = withID(slot, id)
	if slot.UpdatedAt.IsZero() {
		slot.UpdatedAt = time.Now().UTC()
	}
	query := insertSlotQuery + `
ON CONFLICT (mode, class_id, stream_id, day, period_index) DO UPDATE
SET class_name = EXCLUDED.class_name,
    stream_name = EXCLUDED.stream_name,
    time_start = EXCLUDED.time_start,
    time_end = EXCLUDED.time_end,
    subject_id = EXCLUDED.subject_id,
    subject_name = EXCLUDED.subject_name,
    teacher_id = EXCLUDED.teacher_id,
    teacher_name = EXCLUDED.teacher_name,
    teacher_code = EXCLUDED.teacher_code,
    is_locked = EXCLUDED.is_locked,
    label = EXCLUDED.label,
    forced = EXCLUDED.forced,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("upsert timetable slot: %w", err)
	}
	return nil
}

// Delete removes the slot at id if present.
func (r *PostgresGridRepository) Delete(ctx context.Context, id models.SlotID) error {
	const query = `DELETE FROM timetable_slots WHERE mode = $1 AND class_id = $2 AND stream_id = $3 AND day = $4 AND period_index = $5`
	if _, err := r.db.ExecContext(ctx, query, string(id.Mode), id.ClassID, id.StreamID, id.Day, id.PeriodIndex); err != nil {
		return fmt.Errorf("delete timetable slot: %w", err)
	}
	return nil
}
