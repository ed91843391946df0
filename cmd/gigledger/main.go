package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dadekugbe/gigledger/internal/config"
	"github.com/dadekugbe/gigledger/internal/embed"
	"github.com/dadekugbe/gigledger/internal/export"
	"github.com/dadekugbe/gigledger/internal/extract"
	"github.com/dadekugbe/gigledger/internal/ingest"
	"github.com/dadekugbe/gigledger/internal/store"
)

const version = "0.1.0"

func main() {
	// Optional; absence of a .env file is fine.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "process":
		err = runProcess(os.Args[2:], false)
	case "reprocess":
		err = runProcess(os.Args[2:], true)
	case "search":
		err = runSearch(os.Args[2:])
	case "similar":
		err = runSimilar(os.Args[2:])
	case "clients":
		err = runClients(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:], false)
	case "add":
		err = runUpdate(os.Args[2:], true)
	case "get":
		err = runGet(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("gigledger %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cmdEnv bundles the resolved config and open store shared by commands.
type cmdEnv struct {
	cfg   *config.Config
	store store.Store
}

// parseCommon strips --config and --db flags, resolves configuration and
// opens the store. Remaining args are returned for the command to consume.
func parseCommon(args []string) (*cmdEnv, []string, error) {
	var configPath, dbPath string
	var rest []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case args[i] == "--db" && i+1 < len(args):
			dbPath = args[i+1]
			i++
		default:
			rest = append(rest, args[i])
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	s, err := store.NewStore(store.Config{
		DBPath:        cfg.DBPath,
		OwnerExcludes: cfg.ExtractConfig().OwnerExcludes,
	})
	if err != nil {
		return nil, nil, err
	}
	return &cmdEnv{cfg: cfg, store: s}, rest, nil
}

func (e *cmdEnv) embedder() embed.Embedder {
	ec, err := e.cfg.EmbedConfig()
	if err != nil {
		slog.Warn("invalid embed configuration, using local fallback", "error", err)
		ec = nil
	}
	timeout := time.Duration(e.cfg.EmbedInitTimeoutSecs) * time.Second
	return embed.New(ec, timeout)
}

func runProcess(args []string, clearFirst bool) error {
	env, rest, err := parseCommon(args)
	if err != nil {
		return err
	}
	defer env.store.Close()

	dir := env.cfg.InvoicesDir
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "--embed" && i+1 < len(rest):
			env.cfg.Embed = rest[i+1]
			i++
		case strings.HasPrefix(rest[i], "-"):
			return fmt.Errorf("unknown flag: %s", rest[i])
		default:
			dir = rest[i]
		}
	}

	engine := ingest.NewEngine(env.store, env.embedder(),
		extract.NewExtractor(env.cfg.ExtractConfig()))
	ctx := context.Background()

	var summary *ingest.Summary
	if clearFirst {
		summary, err = engine.ReprocessAll(ctx, dir)
	} else {
		summary, err = engine.ProcessDirectory(ctx, dir)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d invoice(s), %d failed\n", summary.Processed, summary.Failed)
	return nil
}

func runSearch(args []string) error {
	env, rest, err := parseCommon(args)
	if err != nil {
		return err
	}
	defer env.store.Close()

	query, limit, err := parseQueryArgs(rest, "search")
	if err != nil {
		return err
	}

	results, err := env.store.Search(context.Background(), query, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matching clients found")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%.2f  %s  (invoice %s, %s, %s)\n",
			r.Score, r.Record.ClientName, r.Record.InvoiceNumber,
			r.Record.InvoiceDate, r.Record.InvoiceAmount)
	}
	return nil
}

func runSimilar(args []string) error {
	env, rest, err := parseCommon(args)
	if err != nil {
		return err
	}
	defer env.store.Close()

	query, limit, err := parseQueryArgs(rest, "similar")
	if err != nil {
		return err
	}

	ctx := context.Background()
	vec, err := env.embedder().Embed(ctx, query)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	results, err := env.store.SearchSimilar(ctx, vec, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No similar invoices found")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%.3f  %s  %s  %s\n",
			r.Similarity, r.Record.ClientName, r.Record.InvoiceNumber, r.Record.InvoiceAmount)
	}
	return nil
}

func parseQueryArgs(args []string, cmd string) (string, int, error) {
	limit := 5
	var parts []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--limit" && i+1 < len(args):
			if _, err := fmt.Sscanf(args[i+1], "%d", &limit); err != nil {
				return "", 0, fmt.Errorf("invalid --limit: %s", args[i+1])
			}
			i++
		case strings.HasPrefix(args[i], "-"):
			return "", 0, fmt.Errorf("unknown flag: %s", args[i])
		default:
			parts = append(parts, args[i])
		}
	}
	if len(parts) == 0 {
		return "", 0, fmt.Errorf("usage: gigledger %s <query> [--limit n]", cmd)
	}
	return strings.Join(parts, " "), limit, nil
}

func runClients(args []string) error {
	env, rest, err := parseCommon(args)
	if err != nil {
		return err
	}
	defer env.store.Close()

	var csvPath, xlsxPath string
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "--csv" && i+1 < len(rest):
			csvPath = rest[i+1]
			i++
		case rest[i] == "--xlsx" && i+1 < len(rest):
			xlsxPath = rest[i+1]
			i++
		default:
			return fmt.Errorf("unknown flag: %s", rest[i])
		}
	}

	ctx := context.Background()
	if csvPath != "" || xlsxPath != "" {
		svc := export.NewService(env.store)
		if csvPath != "" {
			f, err := os.Create(csvPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", csvPath, err)
			}
			defer f.Close()
			if err := svc.WriteCSV(ctx, f); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", csvPath)
		}
		if xlsxPath != "" {
			if err := svc.WriteXLSX(ctx, xlsxPath); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", xlsxPath)
		}
		return nil
	}

	clients, err := env.store.ListClients(ctx)
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		fmt.Println("No clients stored")
		return nil
	}
	for _, c := range clients {
		fmt.Printf("%s\n  Address: %s\n  Invoices: %d", c.Name, c.Address, c.InvoiceCount)
		if c.LatestInvoice != "" {
			fmt.Printf("  Latest: %s", c.LatestInvoice)
		}
		fmt.Println()
	}
	return nil
}

func runUpdate(args []string, addIfMissing bool) error {
	env, rest, err := parseCommon(args)
	if err != nil {
		return err
	}
	defer env.store.Close()

	cmd := "update"
	if addIfMissing {
		cmd = "add"
	}
	if len(rest) < 2 {
		return fmt.Errorf("usage: gigledger %s <client> key=value [key=value ...]", cmd)
	}

	clientName := rest[0]
	fields := make(map[string]any)
	for _, kv := range rest[1:] {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid field %q, expected key=value", kv)
		}
		fields[key] = value
	}

	ctx := context.Background()
	var result *store.UpdateResult
	if addIfMissing {
		result, err = env.store.AddClient(ctx, clientName, fields)
	} else {
		result, err = env.store.UpdateClient(ctx, clientName, fields)
	}
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}
	fmt.Println(result.Message)
	return nil
}

func runGet(args []string) error {
	env, rest, err := parseCommon(args)
	if err != nil {
		return err
	}
	defer env.store.Close()

	if len(rest) == 0 {
		return fmt.Errorf("usage: gigledger get <client>")
	}
	name := strings.Join(rest, " ")

	record, err := env.store.GetClientDetails(context.Background(), name)
	if err != nil {
		return err
	}
	if record == nil {
		fmt.Printf("No client found matching %q\n", name)
		return nil
	}

	fmt.Printf("Client:  %s\n", record.ClientName)
	fmt.Printf("Address: %s\n", record.ClientAddress)
	fmt.Printf("Invoice: %s (%s, %s)\n", record.InvoiceNumber, record.InvoiceDate, record.InvoiceAmount)
	if len(record.Services) > 0 {
		fmt.Println("Services:")
		for _, svc := range record.Services {
			fmt.Printf("  %s  %s\n", svc.Name, svc.Price)
		}
	}
	for k, v := range record.Extra {
		fmt.Printf("%s: %s\n", k, v)
	}
	return nil
}

func runStats(args []string) error {
	env, rest, err := parseCommon(args)
	if err != nil {
		return err
	}
	defer env.store.Close()
	if len(rest) > 0 {
		return fmt.Errorf("stats takes no arguments")
	}

	stats, err := env.store.Stats(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Invoices:   %d\n", stats.InvoiceCount)
	fmt.Printf("Clients:    %d\n", stats.ClientCount)
	fmt.Printf("Embeddings: %d\n", stats.EmbeddingCount)
	if stats.DBSizeBytes > 0 {
		fmt.Printf("DB size:    %.1f KB\n", float64(stats.DBSizeBytes)/1024)
	}
	return nil
}

func printUsage() {
	fmt.Println(`gigledger — invoice extraction and client ledger

Usage:
  gigledger <command> [arguments]

Commands:
  process [dir]       Extract and store invoices from a directory
  reprocess [dir]     Clear the store and re-ingest from scratch
  search <query>      Fuzzy client-name search
  similar <query>     Embedding similarity search
  clients             List clients (--csv FILE / --xlsx FILE to export)
  update <client> k=v Update fields on a client's record
  add <client> k=v    Add a client (updates if the name already matches)
  get <client>        Show the best-matching record for a client
  stats               Store counters
  version             Print version

Common flags:
  --config PATH       Config file (default ~/.gigledger/config.yaml)
  --db PATH           SQLite database path
  --embed P/M         Embedding service as provider/model (process only)`)
}
