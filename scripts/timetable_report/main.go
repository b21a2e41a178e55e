package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

type modeReport struct {
	Mode     models.TimetableMode
	Result   *dto.GenerateTimetableResponse
	Error    error
	Duration time.Duration
}

func main() {
	var (
		periodsPath string
		rosterPath  string
		outDir      string
		modesFlag   string
		seed        int64
		maxPerDay   int
		strict      bool
	)

	flag.StringVar(&periodsPath, "periods", "configs/periods.example.yaml", "Path to the period grid file")
	flag.StringVar(&rosterPath, "roster", "configs/roster.example.json", "Path to the roster JSON file")
	flag.StringVar(&outDir, "out", "", "Directory to write generated timetables to (empty keeps them in memory)")
	flag.StringVar(&modesFlag, "modes", "", "Comma separated modes to generate (default all)")
	flag.Int64Var(&seed, "seed", 0, "Shuffle seed, 0 seeds from the clock")
	flag.IntVar(&maxPerDay, "max-subject-per-day", 2, "Per-day cap of lessons of one subject in a stream")
	flag.BoolVar(&strict, "strict", false, "Exit non-zero when any mode needed forced placements")
	flag.Parse()

	periodGrids, err := config.LoadPeriodGrids(periodsPath)
	if err != nil {
		log.Fatalf("failed to load period grids: %v", err)
	}
	grids, err := service.NewPeriodGrids(periodGrids)
	if err != nil {
		log.Fatalf("invalid period grids: %v", err)
	}
	roster, err := repository.LoadMemoryRoster(rosterPath)
	if err != nil {
		log.Fatalf("failed to load roster: %v", err)
	}
	store, err := openStore(outDir)
	if err != nil {
		log.Fatalf("failed to open output store: %v", err)
	}

	generator := service.NewTimetableGeneratorService(grids, roster, roster, store, nil, nil, nil, service.TimetableGeneratorConfig{
		MaxSubjectPerDay: maxPerDay,
		Seed:             seed,
	})

	modes, err := selectModes(grids, modesFlag)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	reports := make([]modeReport, 0, len(modes))
	var failed, degraded int
	for _, mode := range modes {
		start := time.Now()
		result, err := generator.Generate(ctx, dto.GenerateTimetableRequest{Mode: string(mode)})
		report := modeReport{Mode: mode, Result: result, Error: err, Duration: time.Since(start)}
		switch {
		case err != nil:
			failed++
		case result.Degraded:
			degraded++
		}
		reports = append(reports, report)
	}

	printReport(reports)

	fmt.Printf("Failed modes: %d, Degraded modes: %d\n", failed, degraded)
	if failed > 0 || (strict && degraded > 0) {
		os.Exit(1)
	}
}

func openStore(dir string) (service.GridStore, error) {
	if dir == "" {
		return repository.NewMemoryGridRepository(), nil
	}
	local, err := storage.NewLocalStorage(dir)
	if err != nil {
		return nil, err
	}
	return repository.NewFileGridRepository(local), nil
}

func selectModes(grids *service.PeriodGrids, raw string) ([]models.TimetableMode, error) {
	if strings.TrimSpace(raw) == "" {
		return grids.Modes(), nil
	}
	var modes []models.TimetableMode
	for _, part := range strings.Split(raw, ",") {
		mode, _, err := grids.Resolve(part)
		if err != nil {
			return nil, fmt.Errorf("mode %q: %w", strings.TrimSpace(part), err)
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

func printReport(reports []modeReport) {
	fmt.Println("Timetable Generation Report")
	fmt.Println("===========================")
	for _, rep := range reports {
		if rep.Error != nil {
			fmt.Printf("[ERROR] %s\n  Error: %v\n", rep.Mode, rep.Error)
			continue
		}
		status := "OK"
		if rep.Result.Degraded {
			status = "DEGRADED"
		}
		fmt.Printf("[%s] %s (%s)\n", status, rep.Mode, rep.Duration)
		fmt.Printf("  Slots: %d | Streams: %d | Forced: %d | Empty demand: %d\n",
			rep.Result.SlotCount, len(rep.Result.Streams), len(rep.Result.ForcedPlacements), len(rep.Result.EmptyDemand))

		forced := append([]models.ForcedPlacement(nil), rep.Result.ForcedPlacements...)
		sort.Slice(forced, func(i, j int) bool { return forced[i].Slot.Key() < forced[j].Slot.Key() })
		for _, fp := range forced {
			fmt.Printf("  forced %s/%s day %d period %d: subject %s teacher %s (%s)\n",
				fp.Slot.ClassID, fp.Slot.StreamID, fp.Slot.Day, fp.Slot.PeriodIndex,
				fp.SubjectID, fp.TeacherID, strings.Join(fp.Reasons, ", "))
		}
	}
}
