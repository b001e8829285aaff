package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/markwave/liveservices/internal/config"
	"github.com/markwave/liveservices/internal/domain"
	"github.com/markwave/liveservices/internal/graph"
	"github.com/markwave/liveservices/internal/logging"
	"github.com/markwave/liveservices/internal/repository"
	"github.com/markwave/liveservices/internal/service"
)

var errMissingDataset = errors.New("dataset not found")

func main() {
	var (
		datasetDir   = flag.String("dataset-dir", "./seed-data", "Directory containing products.json and users.json")
		productsPath = flag.String("products", "", "Path to products.json (overrides dataset-dir)")
		usersPath    = flag.String("users", "", "Path to users.json (overrides dataset-dir)")
		workers      = flag.Int("workers", 4, "Number of concurrent workers for catalog seeding")
		skipUsers    = flag.Bool("skip-users", false, "Seed only the product catalog")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "seed")

	productFile, err := resolveDatasetPath(*datasetDir, *productsPath, "products.json")
	if err != nil {
		logger.Error("dataset resolution failed", "error", err)
		os.Exit(1)
	}

	var products []domain.Product
	if err := loadJSON(productFile, &products); err != nil {
		logger.Error("failed to load products", "error", err, "path", productFile)
		os.Exit(1)
	}
	if len(products) == 0 {
		logger.Error("products dataset empty", "path", productFile)
		os.Exit(1)
	}

	var users []domain.NewUser
	if !*skipUsers {
		userFile, err := resolveDatasetPath(*datasetDir, *usersPath, "users.json")
		if err != nil {
			logger.Error("dataset resolution failed", "error", err)
			os.Exit(1)
		}
		if err := loadJSON(userFile, &users); err != nil {
			logger.Error("failed to load users", "error", err, "path", userFile)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	repo := repository.New(graphClient)
	catalog := service.NewCatalogService(repo)
	seeder := service.NewBulkSeeder(catalog, *workers)

	start := time.Now()
	logger.Info("seeding products", "count", len(products), "workers", *workers)
	if err := seeder.SeedProducts(ctx, products); err != nil {
		logger.Error("product seeding failed", "error", err)
		os.Exit(1)
	}

	if len(users) > 0 {
		usersSvc := service.NewUserService(repo)
		logger.Info("onboarding users", "count", len(users))
		for _, user := range users {
			if _, _, err := usersSvc.Onboard(ctx, user); err != nil {
				logger.Error("user onboarding failed", "error", err, "mobile", user.Mobile)
				os.Exit(1)
			}
		}
	}

	logger.Info("seeding complete", "duration", time.Since(start).String(), "products", len(products), "users", len(users))
}

func resolveDatasetPath(baseDir, explicitPath, fallbackFile string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("stat %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}
	path := filepath.Join(baseDir, fallbackFile)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", errMissingDataset, path)
	}
	return path, nil
}

func loadJSON(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for seeding")
	}
	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	client, err := graph.NewNeo4jClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
