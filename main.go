package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"casa_monitor/config"
	"casa_monitor/export"
	"casa_monitor/logging"
	"casa_monitor/models"
	"casa_monitor/scheduler"
	"casa_monitor/services"
	"casa_monitor/storage"
	"casa_monitor/trigger"
)

var (
	runNow      = flag.Bool("run", false, "Trigger a run, poll until it settles, then exit")
	weeklyFlag  = flag.Bool("weekly", false, "Print the trailing weekly histogram and exit")
	zonesFlag   = flag.Bool("zones", false, "Print the zone classification table and exit")
	zoneSel     = flag.String("zone", "", "Zone selection for -zones (default: first sorted zone)")
	runListings = flag.String("run-listings", "", "Print a run's listings by run id and exit")
	exportFlag  = flag.Bool("export", false, "Also write the selected view to a CSV artifact")
	oplogFlag   = flag.Bool("oplog", false, "Print recent trigger attempts and poll sessions")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("monitor.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting casa_monitor...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	pgStore, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()
	log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.DatabaseURL))

	opStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer opStore.Close()
	log.Printf("Operational database: %s", cfg.DBPath)

	if *oplogFlag {
		printOplog(opStore)
		return
	}

	ownerID, err := uuid.Parse(cfg.OwnerUserID)
	if err != nil {
		log.Fatalf("OWNER_USER_ID is not a valid uuid: %v", err)
	}
	agency, err := pgStore.GetAgencyByOwner(ctx, ownerID)
	if err != nil {
		log.Fatalf("Failed to look up agency: %v", err)
	}
	if agency == nil {
		log.Fatalf("No agency found for owner %s", ownerID)
	}
	log.Printf("Agency: %s (%s)", agency.Name, agency.ID)

	jobClient := trigger.NewClient(cfg.JobServiceURL)
	poller := services.NewPoller(pgStore, jobClient, opStore, cfg.PollInterval())
	weekly := services.NewWeeklyService(pgStore, cfg.Monitor.WindowWeeks)
	zones := services.NewZoneService(pgStore, cfg.ZoneLocale())

	switch {
	case *runNow:
		runOnce(ctx, poller, agency.ID)
		return
	case *weeklyFlag:
		showWeekly(ctx, cfg, weekly, opStore, agency.ID)
		return
	case *zonesFlag:
		showZones(ctx, cfg, zones, opStore, agency.ID)
		return
	case *runListings != "":
		showRunListings(ctx, cfg, pgStore, opStore, *runListings)
		return
	}

	// Daemon mode
	sched := scheduler.New(cfg, poller, agency.ID)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

func runOnce(ctx context.Context, poller *services.Poller, agencyID uuid.UUID) {
	log.Println("Triggering run...")
	poller.StartRun(ctx, agencyID)

	go func() {
		for err := range poller.Errs() {
			log.Printf("Poller error: %v", err)
		}
	}()

	for poller.State() != services.StateSettled {
		time.Sleep(500 * time.Millisecond)
	}

	runs := poller.Runs()
	log.Printf("Run settled, %d runs on record", len(runs))
	for i, r := range runs {
		if i >= 5 {
			break
		}
		status := "pending"
		if !r.Pending() {
			status = fmt.Sprintf("completed, %d new", r.NewListingsCount)
		}
		fmt.Printf("%s  %s  %s\n", r.ID, r.CreatedAt.Format(time.RFC3339), status)
	}
}

func showWeekly(ctx context.Context, cfg *config.Config, weekly *services.WeeklyService, opStore *storage.SQLiteStore, agencyID uuid.UUID) {
	report, err := weekly.Compute(ctx, agencyID, time.Now())
	if err != nil {
		log.Fatalf("Weekly aggregation failed: %v", err)
	}

	for _, b := range report.Buckets {
		fmt.Printf("%s  new=%-4d runs=%d\n", b.WeekStart, b.NewCount, b.RunCount)
	}
	fmt.Printf("new7=%d avg4w=%.1f runs=%d\n", report.KPIs.New7, report.KPIs.Avg4w, report.KPIs.Runs)

	if *exportFlag {
		writeArtifact(cfg, opStore, "weekly", export.WeeklyFilename(agencyID), len(report.Buckets), func(f *os.File) error {
			return export.WriteWeekly(f, report)
		})
	}
}

func showZones(ctx context.Context, cfg *config.Config, zones *services.ZoneService, opStore *storage.SQLiteStore, agencyID uuid.UUID) {
	report, err := zones.Compute(ctx, agencyID, *zoneSel, nil)
	if err != nil {
		log.Fatalf("Zone classification failed: %v", err)
	}

	fmt.Printf("zones: %v\n", report.Zones)
	fmt.Printf("zone %q: ok=%d pot=%d ver=%d total=%d\n",
		report.Zone, report.Totals.OK, report.Totals.Pot, report.Totals.Ver, report.Totals.Total)
	for _, r := range report.Rows {
		fmt.Printf("%-30s ok=%-3d (%.2f%%) pot=%-3d (%.2f%%) ver=%-3d (%.2f%%) total=%d\n",
			r.Advertiser, r.OK, r.OKPct, r.Pot, r.PotPct, r.Ver, r.VerPct, r.Total)
	}

	if *exportFlag {
		writeArtifact(cfg, opStore, "zone", export.ZoneFilename(report.Zone), len(report.Rows), func(f *os.File) error {
			return export.WriteZone(f, report)
		})
	}
}

func showRunListings(ctx context.Context, cfg *config.Config, pgStore *storage.PostgresStore, opStore *storage.SQLiteStore, runIDStr string) {
	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		log.Fatalf("Invalid run id: %v", err)
	}

	listings, err := pgStore.ListRunListings(ctx, runID)
	if err != nil {
		log.Fatalf("Failed to fetch run listings: %v", err)
	}

	for _, l := range listings {
		price := "-"
		if l.Price != nil {
			price = fmt.Sprintf("%.0f", *l.Price)
		}
		fmt.Printf("%-40s %s (%s)  %s\n", l.Title, l.City, l.Province, price)
	}
	log.Printf("%d listings in run %s", len(listings), runID)

	if *exportFlag {
		name := fmt.Sprintf("monitor_run_%s.csv", runID)
		writeArtifact(cfg, opStore, "run_listings", name, len(listings), func(f *os.File) error {
			return export.WriteRunListings(f, listings)
		})
	}
}

func writeArtifact(cfg *config.Config, opStore *storage.SQLiteStore, kind, name string, rowCount int, write func(*os.File) error) {
	if err := os.MkdirAll(cfg.Monitor.ExportDir, 0755); err != nil {
		log.Fatalf("Failed to create export dir: %v", err)
	}
	path := filepath.Join(cfg.Monitor.ExportDir, name)

	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	if err := opStore.RecordExport(kind, name, rowCount); err != nil {
		log.Printf("Warning: could not record export: %v", err)
	}
	log.Printf("Wrote %s (%d rows)", path, rowCount)
}

func printOplog(opStore *storage.SQLiteStore) {
	attempts, err := opStore.RecentTriggerAttempts(20)
	if err != nil {
		log.Fatalf("Failed to read trigger attempts: %v", err)
	}
	fmt.Println("Recent trigger attempts:")
	for _, a := range attempts {
		printTriggerAttempt(a)
	}

	sessions, err := opStore.RecentPollSessions(20)
	if err != nil {
		log.Fatalf("Failed to read poll sessions: %v", err)
	}
	fmt.Println("Recent poll sessions:")
	for _, s := range sessions {
		settled := "still polling"
		if s.SettledAt != nil {
			settled = s.SettledAt.Format(time.RFC3339)
		}
		fmt.Printf("  gen %-4d %s  ticks=%-4d settled: %s\n", s.Generation, s.AgencyID, s.Ticks, settled)
	}

	exports, err := opStore.RecentExports(20)
	if err != nil {
		log.Fatalf("Failed to read exports: %v", err)
	}
	fmt.Println("Recent exports:")
	for _, e := range exports {
		fmt.Printf("  %s  %-12s %s (%d rows)\n", e.CreatedAt.Format(time.RFC3339), e.Kind, e.Filename, e.Rows)
	}
}

func printTriggerAttempt(a models.TriggerAttempt) {
	if a.OK {
		fmt.Printf("  %s  %s  ok\n", a.CreatedAt.Format(time.RFC3339), a.AgencyID)
		return
	}
	fmt.Printf("  %s  %s  FAILED: %s\n", a.CreatedAt.Format(time.RFC3339), a.AgencyID, a.Error)
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
