package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/piyushhhxyz/insider-detect/internal/config"
	"github.com/piyushhhxyz/insider-detect/internal/detector"
	"github.com/piyushhhxyz/insider-detect/internal/logger"
	"github.com/piyushhhxyz/insider-detect/internal/models"
	"github.com/piyushhhxyz/insider-detect/internal/polymarket"
	"github.com/piyushhhxyz/insider-detect/internal/storage"
	"github.com/piyushhhxyz/insider-detect/internal/telegram"
)

func usage() {
	fmt.Fprintf(os.Stderr, `insider-detect: behavioral risk scoring for prediction-market wallets

Usage:
  insiderdetect index    -wallets <a,b,...> [-config path]
  insiderdetect score    (-wallets <a,b,...> | -all) [-config path]
  insiderdetect top      [-k n] [-config path]
  insiderdetect validate [-config path]

Commands:
  index     Fetch and persist wallet activity and market metadata
  score     Run the six-signal engine over indexed wallets
  top       Show the highest-risk stored reports
  validate  Score the labeled insider/control cohorts from the config
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "index":
		err = cmdIndex(os.Args[2:])
	case "score":
		err = cmdScore(os.Args[2:])
	case "top":
		err = cmdTop(os.Args[2:])
	case "validate":
		err = cmdValidate(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal("%v", err)
	}
}

// app bundles the collaborators every command needs. Construction fails fast
// on invalid configuration before any work starts.
type app struct {
	cfg    *config.Config
	store  *storage.Storage
	engine *detector.Engine
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	engine, err := detector.NewEngine(scoringConfig(cfg.Scoring))
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg.Storage.DBPath, cfg.Storage.MaxReports)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return &app{cfg: cfg, store: store, engine: engine}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Error("failed to close storage: %v", err)
	}
}

// scoringConfig maps the application config into the engine's immutable
// scoring configuration.
func scoringConfig(sc config.ScoringConfig) detector.Config {
	return detector.Config{
		Weights: detector.Weights{
			Freshness: sc.Weights.Freshness,
			Certainty: sc.Weights.Certainty,
			Timing:    sc.Weights.Timing,
			Focus:     sc.Weights.Focus,
			Size:      sc.Weights.Size,
			Surgical:  sc.Weights.Surgical,
		},
		Tiers: detector.Tiers{
			Critical: sc.Tiers.Critical,
			High:     sc.Tiers.High,
			Medium:   sc.Tiers.Medium,
		},
		Freshness: detector.FreshnessBands{
			CriticalGap:   sc.Freshness.CriticalGap,
			SuspiciousGap: sc.Freshness.SuspiciousGap,
			ModerateGap:   sc.Freshness.ModerateGap,
		},
		Certainty: detector.CertaintyParams{
			MinPrice:       sc.Certainty.MinPrice,
			MaxPrice:       sc.Certainty.MaxPrice,
			MinPayoutRatio: sc.Certainty.MinPayoutRatio,
		},
		Timing: detector.TimingBands{
			CriticalPct:   sc.Timing.CriticalPct,
			SuspiciousPct: sc.Timing.SuspiciousPct,
			ModeratePct:   sc.Timing.ModeratePct,
		},
		Size: detector.SizeBands{
			LargeUSD:  sc.Size.LargeUSD,
			MediumUSD: sc.Size.MediumUSD,
			SmallUSD:  sc.Size.SmallUSD,
		},
		Surgical: detector.SurgicalParams{
			WithdrawPct:    sc.Surgical.WithdrawPct,
			MinProfitRatio: sc.Surgical.MinProfitRatio,
		},
	}
}

func clientConfig(pc config.PolymarketConfig) polymarket.ClientConfig {
	return polymarket.ClientConfig{
		Timeout:           pc.Timeout,
		MaxRetries:        pc.MaxRetries,
		RetryDelayBase:    pc.RetryDelayBase,
		RequestsPerSecond: pc.RequestsPerSecond,
		PageSize:          pc.PageSize,
	}
}

func splitWallets(raw string) []string {
	var wallets []string
	for _, w := range strings.Split(raw, ",") {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			wallets = append(wallets, w)
		}
	}
	return wallets
}

func cmdIndex(args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "Path to configuration file")
	walletsFlag := fs.String("wallets", "", "Comma-separated wallet addresses")
	if err := fs.Parse(args); err != nil {
		return err
	}
	wallets := splitWallets(*walletsFlag)
	if len(wallets) == 0 {
		return errors.New("index requires -wallets")
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	activity := polymarket.NewActivityClient(a.cfg.Polymarket.DataAPIURL, clientConfig(a.cfg.Polymarket))
	catalog := polymarket.NewCatalogClient(a.cfg.Polymarket.GammaAPIURL, clientConfig(a.cfg.Polymarket))

	logger.Info("indexing %d wallet(s)", len(wallets))
	for _, wallet := range wallets {
		events, err := activity.FetchWalletEvents(ctx, wallet)
		if err != nil {
			logger.Error("wallet %s: %v", wallet, err)
			continue
		}
		trades, err := a.store.InsertTrades(events.Trades)
		if err != nil {
			return err
		}
		funding, err := a.store.InsertFundingEvents(events.Funding)
		if err != nil {
			return err
		}
		redemptions, err := a.store.InsertRedemptions(events.Redemptions)
		if err != nil {
			return err
		}
		logger.Info("wallet %s: %d new trade(s), %d funding event(s), %d redemption(s)",
			wallet, trades, funding, redemptions)
	}

	tokens, err := a.store.UnmappedTokenIDs()
	if err != nil {
		return err
	}
	logger.Info("fetching market metadata for %d token(s)", len(tokens))
	fetched := 0
	for _, token := range tokens {
		market, err := catalog.MarketByToken(ctx, token)
		if err != nil {
			logger.Warn("token %s: %v", token, err)
			continue
		}
		if market == nil {
			logger.Debug("token %s: no market in catalog", token)
			continue
		}
		if err := a.store.UpsertMarket(market); err != nil {
			logger.Warn("market %s: %v", market.ID, err)
			continue
		}
		fetched++
	}
	logger.Info("indexing complete: %d market(s) fetched", fetched)
	return nil
}

// storeLookup adapts storage to the engine's market lookup contract.
func storeLookup(store *storage.Storage) detector.MarketLookup {
	return detector.LookupFunc(func(marketID string) (*models.Market, error) {
		m, err := store.MarketByToken(marketID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, detector.ErrMarketNotFound
		}
		return m, err
	})
}

func cmdScore(args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "Path to configuration file")
	walletsFlag := fs.String("wallets", "", "Comma-separated wallet addresses")
	all := fs.Bool("all", false, "Score every indexed wallet")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	var wallets []string
	if *all {
		wallets, err = a.store.Wallets()
		if err != nil {
			return err
		}
	} else {
		wallets = splitWallets(*walletsFlag)
	}
	if len(wallets) == 0 {
		return errors.New("score requires -wallets or -all (and indexed data)")
	}

	reports, err := a.scoreWallets(wallets)
	if err != nil {
		return err
	}
	for i := range reports {
		if err := a.store.SaveReport(&reports[i]); err != nil {
			logger.Warn("wallet %s: failed to persist report: %v", reports[i].Wallet, err)
		}
	}

	sort.SliceStable(reports, func(i, j int) bool { return reports[i].Composite > reports[j].Composite })
	printReports(os.Stdout, reports)

	return a.notify(reports)
}

func (a *app) scoreWallets(wallets []string) ([]models.Report, error) {
	batch := make([]*models.WalletEvents, 0, len(wallets))
	for _, wallet := range wallets {
		events, err := a.store.WalletEvents(wallet)
		if err != nil {
			return nil, fmt.Errorf("wallet %s: %w", wallet, err)
		}
		batch = append(batch, events)
	}
	resolver := detector.NewCachedResolver(storeLookup(a.store))
	return a.engine.ScoreBatch(batch, resolver), nil
}

// notify sends reports at or above the configured tier to Telegram.
func (a *app) notify(reports []models.Report) error {
	if !a.cfg.Telegram.Enabled {
		return nil
	}
	minRank := tierRank(models.RiskTier(a.cfg.Telegram.MinTier))
	var flagged []models.Report
	for _, r := range reports {
		if tierRank(r.Tier) >= minRank {
			flagged = append(flagged, r)
		}
	}
	if len(flagged) == 0 {
		return nil
	}

	client, err := telegram.NewClient(
		a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID,
		a.cfg.Telegram.MaxRetries, a.cfg.Telegram.RetryDelayBase,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}
	if err := client.SendReports(flagged); err != nil {
		logger.Error("failed to send Telegram notification: %v", err)
		return nil
	}
	logger.Info("sent Telegram notification for %d wallet(s)", len(flagged))
	return nil
}

func tierRank(t models.RiskTier) int {
	switch t {
	case models.TierCritical:
		return 3
	case models.TierHigh:
		return 2
	case models.TierMedium:
		return 1
	default:
		return 0
	}
}

func cmdTop(args []string) error {
	fs := flag.NewFlagSet("top", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "Path to configuration file")
	k := fs.Int("k", 20, "Number of reports to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	reports, err := a.store.TopReports(*k)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No stored reports. Run `insiderdetect score` first.")
		return nil
	}
	printReports(os.Stdout, reports)
	return nil
}

func cmdValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if len(a.cfg.Validation.InsiderWallets) == 0 || len(a.cfg.Validation.ControlWallets) == 0 {
		return errors.New("validate requires validation.insider_wallets and validation.control_wallets in the config")
	}

	insiders, err := a.scoreWallets(a.cfg.Validation.InsiderWallets)
	if err != nil {
		return err
	}
	controls, err := a.scoreWallets(a.cfg.Validation.ControlWallets)
	if err != nil {
		return err
	}

	tiers := scoringConfig(a.cfg.Scoring).Tiers
	summary := detector.EvaluateCohorts(insiders, controls, tiers)

	fmt.Printf("\nCohort separation: %.3f\n\n", summary.Separation)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COHORT\tWALLETS\tMEAN\tMIN\tMAX")
	for _, s := range []detector.CohortStats{summary.Insiders, summary.Controls} {
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.3f\n",
			s.Label, s.Count, s.MeanComposite, s.MinComposite, s.MaxComposite)
	}
	w.Flush()

	if len(summary.MissedInsiders) > 0 {
		fmt.Printf("\nMissed insiders (below MEDIUM threshold):\n")
		printReports(os.Stdout, summary.MissedInsiders)
	}
	if len(summary.FalsePositives) > 0 {
		fmt.Printf("\nControl wallets flagged HIGH or above:\n")
		printReports(os.Stdout, summary.FalsePositives)
	}
	return nil
}

func printReports(out *os.File, reports []models.Report) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WALLET\tSCORE\tTIER\tVOLUME\tTRADES\tMARKETS\tFRESH\tCERT\tTIMING\tFOCUS\tSIZE\tSURG")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%.3f\t%s\t$%.0f\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			shortWallet(r.Wallet), r.Composite, r.Tier, r.Volume, r.TradeCount, r.MarketCount,
			r.Signal(models.SignalWalletFreshness).Score,
			r.Signal(models.SignalOutcomeCertainty).Score,
			r.Signal(models.SignalEntryTiming).Score,
			r.Signal(models.SignalMarketFocus).Score,
			r.Signal(models.SignalPositionSize).Score,
			r.Signal(models.SignalSurgicalBehavior).Score,
		)
	}
	w.Flush()
}

func shortWallet(wallet string) string {
	if len(wallet) <= 12 {
		return wallet
	}
	return wallet[:6] + "..." + wallet[len(wallet)-4:]
}
