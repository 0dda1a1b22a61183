package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/arnavshah/manifest-api-go/internal/config"
	"github.com/arnavshah/manifest-api-go/pkg/auth"
	"github.com/arnavshah/manifest-api-go/pkg/database"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	var register bool
	var rateLimit int

	flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	flagSet.BoolVar(&register, "register", false, "store the key in the database so boards can use it")
	flagSet.IntVar(&rateLimit, "rate-limit", 10000, "daily request limit when registering")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: keygen [--register] [--rate-limit N] <boardID>")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return errors.New("exactly one board id is required")
	}
	boardID := flagSet.Arg(0)

	cfg := config.Load()
	if cfg.APIMasterSecret == "" {
		return errors.New("API_MASTER_SECRET not found in environment or .env")
	}
	auth.Configure(cfg.JWTSecret, cfg.APIMasterSecret)

	key := auth.GenerateHMACKey(boardID)
	fmt.Printf("Generated key for %s:\n%s\n", boardID, key)

	if !register {
		return nil
	}

	db, err := database.InitDB(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		return err
	}
	apiKey := database.NewAPIKey(key, boardID, rateLimit)
	if err := db.Create(&apiKey).Error; err != nil {
		return fmt.Errorf("could not register key: %w", err)
	}
	fmt.Printf("Registered as key #%d (%s)\n", apiKey.ID, apiKey.KeyPreview)
	return nil
}
