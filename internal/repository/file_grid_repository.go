package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// FileGridRepository persists one JSON document of slots per mode.
type FileGridRepository struct {
	store *storage.LocalStorage
	mu    sync.Mutex
}

// NewFileGridRepository wraps a local document store.
func NewFileGridRepository(store *storage.LocalStorage) *FileGridRepository {
	return &FileGridRepository{store: store}
}

func gridDocument(mode models.TimetableMode) string {
	return fmt.Sprintf("timetable_%s.json", mode)
}

// LoadAll reads the mode's document. A missing document is an empty grid.
func (r *FileGridRepository) LoadAll(ctx context.Context, mode models.TimetableMode) ([]models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(mode)
}

// ReplaceAll rewrites the mode's document.
func (r *FileGridRepository) ReplaceAll(ctx context.Context, mode models.TimetableMode, slots []models.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make(map[string]models.Slot, len(slots))
	for _, slot := range slots {
		slot.Mode = mode
		next[slot.ID().Key()] = slot
	}
	return r.write(mode, next)
}

// Upsert stores slot under id.
func (r *FileGridRepository) Upsert(ctx context.Context, id models.SlotID, slot models.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, err := r.read(id.Mode)
	if err != nil {
		return err
	}
	next := indexSlots(current)
	next[id.Key()] = withID(slot, id)
	return r.write(id.Mode, next)
}

// Delete removes the slot if present.
func (r *FileGridRepository) Delete(ctx context.Context, id models.SlotID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, err := r.read(id.Mode)
	if err != nil {
		return err
	}
	next := indexSlots(current)
	if _, ok := next[id.Key()]; !ok {
		return nil
	}
	delete(next, id.Key())
	return r.write(id.Mode, next)
}

func (r *FileGridRepository) read(mode models.TimetableMode) ([]models.Slot, error) {
	var slots []models.Slot
	if err := r.store.ReadJSON(gridDocument(mode), &slots); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.Slot{}, nil
		}
		return nil, fmt.Errorf("load %s timetable: %w", mode, err)
	}
	return slots, nil
}

func (r *FileGridRepository) write(mode models.TimetableMode, slots map[string]models.Slot) error {
	keys := make([]string, 0, len(slots))
	for key := range slots {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	ordered := make([]models.Slot, 0, len(keys))
	for _, key := range keys {
		ordered = append(ordered, slots[key])
	}
	if err := r.store.WriteJSON(gridDocument(mode), ordered); err != nil {
		return fmt.Errorf("save %s timetable: %w", mode, err)
	}
	return nil
}

func indexSlots(slots []models.Slot) map[string]models.Slot {
	indexed := make(map[string]models.Slot, len(slots))
	for _, slot := range slots {
		indexed[slot.ID().Key()] = slot
	}
	return indexed
}
