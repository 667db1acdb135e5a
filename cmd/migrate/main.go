// migrate applies the embedded Postgres migrations and can load a small
// sample data set for local runs.
//
//	migrate [flags] up|down|version|goto|seed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/uptrace/bun"

	"ms-attendance/internal/config"
	"ms-attendance/internal/database"
	"ms-attendance/internal/database/migrations"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
	ticket_db "ms-attendance/internal/tickets/db"
	tickets "ms-attendance/internal/tickets/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()
	cfg := config.Load()

	var target uint
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Database.DSN, "dsn", cfg.Database.DSN, "Postgres connection string (default from POSTGRES_DSN)")
	flagSet.UintVar(&target, "version", 0, "target version for goto")
	flagSet.IntVar(&cfg.Database.ConnRetries, "retries", cfg.Database.ConnRetries, "connection attempts before giving up")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [flags] up|down|version|goto|seed")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("expected exactly one command, got %d", flagSet.NArg())
	}

	log := logger.New(os.Stdout)
	ctx := context.Background()

	cfg.Database.Driver = "postgres"
	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	// Closing the runner closes bunDB too.
	runner := migrations.NewRunner(bunDB, log)
	defer runner.Close()

	switch cmd := flagSet.Arg(0); cmd {
	case "up":
		return runner.MigrateUp()
	case "down":
		return runner.MigrateDown()
	case "goto":
		if target == 0 {
			return errors.New("goto requires --version")
		}
		return runner.MigrateTo(target)
	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	case "seed":
		if err := runner.MigrateUp(); err != nil {
			return err
		}
		return seedSampleData(ctx, bunDB, cfg, log)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func seedSampleData(ctx context.Context, bunDB *bun.DB, cfg *config.Config, log *logger.Logger) error {
	today := time.Now().In(cfg.Attendance.Location()).Format("2006-01-02")
	if err := database.SeedDefaults(ctx, bunDB, cfg.Attendance.DefaultVenueID, cfg.Attendance.EventDayKey, today); err != nil {
		return err
	}

	svc := tickets.NewTicketService(&ticket_db.DB{Bun: bunDB}, log)
	samples := []models.TicketRegistration{
		{TicketType: "VIP", FirstName: "Grace", LastName: "Hopper", Status: models.TicketStatusPaid},
		{TicketType: "reader", FirstName: "Alan", LastName: "Turing", Status: models.TicketStatusPaid},
		{TicketType: "reader", FirstName: "Ada", LastName: "Lovelace", Status: models.TicketStatusFree},
		{TicketType: "administrator", FirstName: "Ken", LastName: "Thompson", Status: models.TicketStatusFree},
	}
	for _, reg := range samples {
		if _, err := svc.PlaceTicket(ctx, reg); err != nil {
			return fmt.Errorf("seed %s %s: %w", reg.FirstName, reg.LastName, err)
		}
	}
	log.LogDatabase("SEED", "tickets", fmt.Sprintf("%d sample tickets created", len(samples)))
	return nil
}
