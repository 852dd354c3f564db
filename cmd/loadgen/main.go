// Command loadgen submits concurrent ratings to a skillhub server and checks
// that the aggregates add up afterwards.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/skillhub/internal/loadgen"
	"github.com/okian/skillhub/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "load run failed:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		cfg     loadgen.Config
		logFile string
		format  string
		limit   time.Duration
	)

	cmd := &cobra.Command{
		Use:           "loadgen",
		Short:         "Rate skills concurrently and verify the aggregates",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, closeLog, err := loadgen.OpenLogFile(logFile)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			if err := logger.Init(logger.WithFormat(format), logger.WithOutput(out)); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), limit)
			defer cancel()

			_, err = loadgen.Run(ctx, &cfg)
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the service")
	cmd.Flags().StringSliceVar(&cfg.Slugs, "skill", nil, "skills to rate (default: every skill)")
	cmd.Flags().IntVar(&cfg.Ratings, "ratings", loadgen.DefaultRatings, "number of ratings to submit")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", loadgen.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().DurationVar(&limit, "limit", defaultRunTimeout, "overall run deadline")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "log every failed submission")
	cmd.Flags().StringVar(&logFile, "log", "", "also append logs to this file")
	cmd.Flags().StringVar(&format, "log-format", "text", "text or json")
	return cmd
}
