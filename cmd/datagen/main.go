package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/markwave/liveservices/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		products       = flag.Int("products", cfg.NumProducts, "number of catalog products to generate")
		users          = flag.Int("users", cfg.NumUsers, "number of users to generate")
		referralChance = flag.Float64("referral-chance", cfg.ReferralChance, "probability of a user being referred by an earlier one")
		seed           = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir      = flag.String("output-dir", "seed-data", "directory to write products.json and users.json")
		writeStdout    = flag.Bool("stdout", false, "write combined dataset to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumProducts:    *products,
		NumUsers:       *users,
		ReferralChance: clampProbability(*referralChance),
		Seed:           *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d products and %d users into %s\n", len(dataset.Products), len(dataset.Users), *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
