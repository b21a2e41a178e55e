package repository

import (
	"context"
	"sync"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// MemoryGridRepository keeps timetable slots in process memory.
type MemoryGridRepository struct {
	mu    sync.RWMutex
	modes map[models.TimetableMode]map[string]models.Slot
}

// NewMemoryGridRepository constructs an empty in-memory grid store.
func NewMemoryGridRepository() *MemoryGridRepository {
	return &MemoryGridRepository{modes: make(map[models.TimetableMode]map[string]models.Slot)}
}

// LoadAll returns every slot of the mode.
func (r *MemoryGridRepository) LoadAll(ctx context.Context, mode models.TimetableMode) ([]models.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slots := make([]models.Slot, 0, len(r.modes[mode]))
	for _, slot := range r.modes[mode] {
		slots = append(slots, slot)
	}
	return slots, nil
}

// ReplaceAll swaps the mode's slots for the given set.
func (r *MemoryGridRepository) ReplaceAll(ctx context.Context, mode models.TimetableMode, slots []models.Slot) error {
	next := make(map[string]models.Slot, len(slots))
	for _, slot := range slots {
		slot.Mode = mode
		next[slot.ID().Key()] = slot
	}
	r.mu.Lock()
	r.modes[mode] = next
	r.mu.Unlock()
	return nil
}

// Upsert stores slot under id.
func (r *MemoryGridRepository) Upsert(ctx context.Context, id models.SlotID, slot models.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.modes[id.Mode]
	if !ok {
		bucket = make(map[string]models.Slot)
		r.modes[id.Mode] = bucket
	}
	bucket[id.Key()] = withID(slot, id)
	return nil
}

// Delete removes the slot if present.
func (r *MemoryGridRepository) Delete(ctx context.Context, id models.SlotID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modes[id.Mode], id.Key())
	return nil
}

func withID(slot models.Slot, id models.SlotID) models.Slot {
	slot.Mode = id.Mode
	slot.ClassID = id.ClassID
	slot.StreamID = id.StreamID
	slot.Day = id.Day
	slot.PeriodIndex = id.PeriodIndex
	return slot
}
