package service

import (
	"math/rand"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// streamDemand is one independent scheduling problem: a class stream and the
// bindings that must be taught in it, in registry order.
type streamDemand struct {
	Stream   models.ClassStream
	Bindings []models.DemandBinding
}

// groupDemand pairs every stream of the mode with its bindings. Streams keep
// catalogue order; bindings for streams missing from the catalogue are
// appended in order of first appearance.
func groupDemand(streams []models.ClassStream, bindings []models.DemandBinding) []streamDemand {
	byStream := lo.GroupBy(bindings, func(b models.DemandBinding) models.StreamKey {
		return b.StreamKey()
	})

	groups := make([]streamDemand, 0, len(streams))
	seen := make(map[models.StreamKey]bool, len(streams))
	for _, stream := range lo.UniqBy(streams, func(s models.ClassStream) models.StreamKey { return s.Key() }) {
		seen[stream.Key()] = true
		groups = append(groups, streamDemand{Stream: stream, Bindings: byStream[stream.Key()]})
	}

	orphans := lo.UniqBy(bindings, func(b models.DemandBinding) models.StreamKey { return b.StreamKey() })
	for _, binding := range orphans {
		if seen[binding.StreamKey()] {
			continue
		}
		groups = append(groups, streamDemand{
			Stream: models.ClassStream{
				ClassID:    binding.ClassID,
				ClassName:  binding.ClassName,
				StreamID:   binding.StreamID,
				StreamName: binding.StreamName,
			},
			Bindings: byStream[binding.StreamKey()],
		})
	}
	return groups
}

// lessonCounts spreads openSlots lessons over bindingCount bindings. Every
// binding gets floor(openSlots/bindingCount); the first openSlots%bindingCount
// get one more, so the counts always sum to openSlots.
func lessonCounts(bindingCount, openSlots int) []int {
	if bindingCount <= 0 || openSlots <= 0 {
		return nil
	}
	base := openSlots / bindingCount
	extra := openSlots % bindingCount
	counts := make([]int, bindingCount)
	for i := range counts {
		counts[i] = base
		if i < extra {
			counts[i]++
		}
	}
	return counts
}

// buildDemandQueue repeats each binding by its lesson count, in registry order.
func buildDemandQueue(bindings []models.DemandBinding, openSlots int) []models.DemandBinding {
	counts := lessonCounts(len(bindings), openSlots)
	queue := make([]models.DemandBinding, 0, openSlots)
	for i, count := range counts {
		for n := 0; n < count; n++ {
			queue = append(queue, bindings[i])
		}
	}
	return queue
}

// shuffleDemand applies a Fisher-Yates shuffle in place.
func shuffleDemand(queue []models.DemandBinding, rng *rand.Rand) {
	rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
}
