package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/register/internal/seeding"
	"github.com/okian/register/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "Base URL of the service")
		members  = flag.Int("members", seeding.DefaultMembers, "Number of members to create")
		workers  = flag.Int("workers", seeding.DefaultWorkers, "Number of concurrent writers")
		returned = flag.Int("return", seeding.DefaultReturnPercent, "Percent of first-service attendees marked at the second")
		timeout  = flag.Duration("timeout", seeding.DefaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Log every write")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seeding.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &seeding.Config{
		BaseURL:       *baseURL,
		Members:       *members,
		Workers:       *workers,
		Timeout:       *timeout,
		ReturnPercent: *returned,
		FirstDate:     seeding.DefaultFirstDate,
		SecondDate:    seeding.DefaultSecondDate,
		Verbose:       *verbose,
	}

	if _, _, err := seeding.Run(ctx, config, logger.Named("seed")); err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
