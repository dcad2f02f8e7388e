package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"mediscribe/domain"
	"mediscribe/infrastructure/storage"
	"mediscribe/integrity"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// inspectorConfig keeps the inspector decoupled from the recorder's full
// environment: only the database path matters here, everything else has a
// sane default.
type inspectorConfig struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"/tmp/mediscribe/badger"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"WARN"`
}

func main() {
	var config inspectorConfig
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	dbPath := flag.String("db", config.BadgerFilepath, "Path to badger DB")
	chain := flag.String("consultation", "", "Inspect a single consultation chain")
	flag.Parse()

	// Read-Only mode with BypassLockGuard allows opening while the recorder
	// holds the lock.
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	logger := logs.GetLoggerFromString(config.LogLevel)
	events := storage.NewEventRepository(db, logger)
	verifier := integrity.NewVerifier(events, logger)
	ctx := context.Background()

	consultations, err := listTargets(ctx, events, *chain)
	if err != nil {
		log.Fatalf("Failed to list consultations: %v", err)
	}
	if len(consultations) == 0 {
		fmt.Println("No consultation chains found")
		return
	}

	broken := 0
	for _, cid := range consultations {
		if !inspectChain(ctx, events, verifier, cid) {
			broken++
		}
	}

	fmt.Println()
	if broken > 0 {
		color.Red.Printf("❌ %d of %d chain(s) broken\n", broken, len(consultations))
		os.Exit(1)
	}
	color.Green.Printf("✅ All %d chain(s) intact\n", len(consultations))
}

func listTargets(ctx context.Context, events *storage.EventRepository, only string) ([]domain.ConsultationID, error) {
	if only != "" {
		return []domain.ConsultationID{domain.ConsultationID(only)}, nil
	}
	return events.Consultations(ctx)
}

// inspectChain prints every event of one chain and its verification verdict.
func inspectChain(ctx context.Context, events *storage.EventRepository, verifier *integrity.Verifier, cid domain.ConsultationID) bool {
	fmt.Printf("\nConsultation %s\n", cid)

	chain, err := events.Read(ctx, cid)
	if err != nil {
		color.Red.Printf("  read failed: %v\n", err)
		return false
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "Type", "Actor", "Timestamp", "Prev Hash", "Hash"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, e := range chain {
		table.Append([]string{
			fmt.Sprintf("%d", e.Sequence),
			string(e.Type),
			e.ActorID,
			e.At.Format("2006-01-02 15:04:05"),
			shorten(e.PrevHash),
			shorten(e.Hash),
		})
	}
	table.Render()

	if err := verifier.Verify(ctx, cid); err != nil {
		color.Red.Printf("  verdict: BROKEN (%v)\n", err)
		return false
	}
	color.Green.Println("  verdict: intact")
	return true
}

func shorten(hash string) string {
	if len(hash) <= 18 {
		return hash
	}
	return hash[:18] + "…"
}
