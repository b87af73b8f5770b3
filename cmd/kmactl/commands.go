package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/kma-forecast/internal/config"
	"github.com/i474232898/kma-forecast/internal/forecast"
	"github.com/i474232898/kma-forecast/internal/weather"
	"github.com/i474232898/kma-forecast/internal/weather/providers"
)

// options shared by every subcommand.
type options struct {
	at         string
	vocabulary string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "kmactl",
		Short:         "Inspect the KMA grid, publication schedule and phrase parser",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.at, "at", "", "reference time (RFC3339); defaults to now")
	root.PersistentFlags().StringVar(&opts.vocabulary, "vocab", "", "phrase vocabulary (ko or en); defaults to VOCABULARY")

	root.AddCommand(
		newGridCmd(),
		newIssueCmd(opts),
		newParseCmd(opts),
		newRegionsCmd(),
		newResolveCmd(opts),
	)
	return root
}

func newGridCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grid <lat> <lon>",
		Short: "Project a WGS84 coordinate onto the forecast grid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid lat %q", args[0])
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid lon %q", args[1])
			}
			cell, err := forecast.Project(forecast.Coordinate{Latitude: lat, Longitude: lon})
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"grid": cell, "center": cell.Coordinate()})
		},
	}
}

func newIssueCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "issue <nowcast|ultra|short>",
		Short: "Show the latest published issue of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product, err := forecast.ParseProduct(args[0])
			if err != nil {
				return err
			}
			cfg, at, err := opts.load()
			if err != nil {
				return err
			}
			sched, err := forecast.NewScheduler(cfg.ScheduleTable())
			if err != nil {
				return err
			}
			issue, err := sched.ResolveIssue(product, at)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"issue": issue, "issuedAt": issue.At()})
		},
	}
}

func newParseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <phrase>",
		Short: "Parse a time phrase and show the product it selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, at, err := opts.load()
			if err != nil {
				return err
			}
			resolver, err := cfg.NewResolver()
			if err != nil {
				return err
			}
			window := resolver.Parser().Parse(args[0], at)
			return printJSON(cmd, map[string]any{
				"vocabulary": resolver.Parser().Vocabulary(),
				"window":     window,
				"target":     window.Target(),
				"product":    forecast.ChooseProduct(window),
			})
		},
	}
}

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the region table with grid cells",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			table, err := cfg.LoadRegions()
			if err != nil {
				return err
			}
			for _, r := range table.All() {
				cell, err := forecast.Project(r.Coordinate())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d,%d\t%s\n", r.Name, cell.NX, cell.NY, r.Coordinate())
			}
			return nil
		},
	}
}

func newResolveCmd(opts *options) *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "resolve <phrase>",
		Short: "Resolve a phrase against the live KMA service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, at, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.KMAServiceKey == "" {
				return fmt.Errorf("KMA_SERVICE_KEY is required")
			}
			resolver, err := cfg.NewResolver()
			if err != nil {
				return err
			}
			table, err := cfg.LoadRegions()
			if err != nil {
				return err
			}
			client := &http.Client{Timeout: cfg.HTTPTimeout}
			source := providers.NewKMAProvider(client, cfg.KMAServiceKey, cfg.KMABaseURL, providers.DefaultBackoff(cfg.UpstreamMaxRetries))
			service := weather.NewService(resolver, source, nopStore{},
				weather.WithRegions(table),
				weather.WithDefaultRegion(cfg.DefaultRegion),
				weather.WithFetchTimeout(cfg.FetchTimeout),
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.FetchTimeout+time.Second)
			defer cancel()
			answer, err := service.Resolve(ctx, weather.Query{Phrase: args[0], Location: location, At: at})
			if err != nil {
				return err
			}
			return printJSON(cmd, answer)
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "region name or alias")
	return cmd
}

// load reads the environment configuration and the reference time.
func (o *options) load() (*config.AppConfig, time.Time, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, time.Time{}, err
	}
	if o.vocabulary != "" {
		cfg.Vocabulary = o.vocabulary
		cfg.VocabularyFile = ""
	}
	at := time.Now().In(forecast.KST)
	if o.at != "" {
		if at, err = time.Parse(time.RFC3339, o.at); err != nil {
			return nil, time.Time{}, fmt.Errorf("invalid --at: %w", err)
		}
	}
	return cfg, at, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// nopStore discards answers; the CLI keeps no history.
type nopStore struct{}

func (nopStore) SaveAnswer(weather.Location, weather.Answer) {}

func (nopStore) GetLatest(weather.Location) (weather.Answer, error) {
	return weather.Answer{}, fmt.Errorf("no history")
}

func (nopStore) GetRange(weather.Location, time.Time, time.Time) ([]weather.Answer, error) {
	return nil, fmt.Errorf("no history")
}
