// Package main provides the tagesschau CLI, which prints news items as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/tagesschau-harvester/pkg/httpclient"
	"github.com/samvad-hq/tagesschau-harvester/pkg/queries"
	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// getAPIURL returns the news endpoint (overridable for testing).
func getAPIURL() string {
	if url := os.Getenv("TAGESSCHAU_API_URL"); url != "" {
		return url
	}
	return tagesschau.DefaultBaseURL
}

// newRootCmd creates the root command for the tagesschau CLI.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tagesschau",
		Short:        "Query the tagesschau.de news API",
		Long:         "tagesschau fetches news items from the tagesschau.de JSON API and prints them as JSON.",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate("tagesschau version {{.Version}}\n")
	rootCmd.AddCommand(newNewsCmd())

	return rootCmd
}

type newsOptions struct {
	date     string
	from     string
	to       string
	regions  []string
	ressort  string
	kind     string
	sorted   bool
	timezone string
	timeout  time.Duration
}

// newNewsCmd creates the news subcommand.
func newNewsCmd() *cobra.Command {
	var opts newsOptions

	cmd := &cobra.Command{
		Use:   "news",
		Short: "Print news items for a day or a range of days",
		Long: "Print news items as a JSON array. Without --date or --from the current day " +
			"in --timezone is queried. Dates are YYYYMMDD or YYYY-MM-DD.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.kind = strings.ToLower(strings.TrimSpace(opts.kind))
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			client := tagesschau.NewClient(
				tagesschau.WithHTTPClient(httpclient.NewRestyClient(opts.timeout)),
				tagesschau.WithBaseURL(getAPIURL()),
				tagesschau.WithTimeZone(opts.timezone),
			)

			q, err := opts.query(client)
			if err != nil {
				return err
			}

			var out any
			switch opts.kind {
			case queries.KindText:
				out, err = client.TextArticles(ctx, q)
			case queries.KindVideo:
				out, err = client.VideoArticles(ctx, q)
			default:
				out, err = client.AllArticles(ctx, q)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.date, "date", "d", "", "Single day to query")
	flags.StringVar(&opts.from, "from", "", "First day of a range (inclusive)")
	flags.StringVar(&opts.to, "to", "", "Last day of a range (inclusive, defaults to today)")
	flags.StringSliceVarP(&opts.regions, "region", "r", nil, "Federal state name or code (repeatable)")
	flags.StringVar(&opts.ressort, "ressort", "", "Category: inland, ausland, wirtschaft, sport, video, investigativ, wissen")
	flags.StringVarP(&opts.kind, "kind", "k", queries.KindAll, "Item kind: all, text or video")
	flags.BoolVarP(&opts.sorted, "sort", "s", false, "Sort items by publish time")
	flags.StringVar(&opts.timezone, "timezone", "Europe/Berlin", "Time zone that defines today")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall timeout")

	return cmd
}

// query validates the flags and builds the client query.
func (o newsOptions) query(client *tagesschau.Client) (tagesschau.Query, error) {
	switch o.kind {
	case queries.KindAll, queries.KindText, queries.KindVideo:
	default:
		return tagesschau.Query{}, fmt.Errorf("invalid kind %q: must be all, text or video", o.kind)
	}

	ressort, err := tagesschau.ParseRessort(o.ressort)
	if err != nil {
		return tagesschau.Query{}, err
	}

	regions := make([]tagesschau.Region, 0, len(o.regions))
	for _, name := range o.regions {
		r, err := tagesschau.ParseRegion(name)
		if err != nil {
			return tagesschau.Query{}, err
		}
		regions = append(regions, r)
	}

	timeframe, err := o.timeframe(client)
	if err != nil {
		return tagesschau.Query{}, err
	}

	return tagesschau.NewQuery(
		tagesschau.WithRessort(ressort),
		tagesschau.WithRegions(regions...),
		tagesschau.WithTimeframe(timeframe),
		tagesschau.WithSorted(o.sorted),
	), nil
}

func (o newsOptions) timeframe(client *tagesschau.Client) (tagesschau.Timeframe, error) {
	if o.date != "" && (o.from != "" || o.to != "") {
		return tagesschau.Timeframe{}, fmt.Errorf("--date cannot be combined with --from/--to")
	}
	if o.date != "" {
		d, err := tagesschau.ParseDate(o.date)
		if err != nil {
			return tagesschau.Timeframe{}, err
		}
		return tagesschau.OnDate(d), nil
	}
	if o.from == "" {
		if o.to != "" {
			return tagesschau.Timeframe{}, fmt.Errorf("--to requires --from")
		}
		return tagesschau.Now(), nil
	}

	from, err := tagesschau.ParseDate(o.from)
	if err != nil {
		return tagesschau.Timeframe{}, err
	}
	var to tagesschau.Date
	if o.to != "" {
		to, err = tagesschau.ParseDate(o.to)
	} else {
		to, err = client.Today()
	}
	if err != nil {
		return tagesschau.Timeframe{}, err
	}

	r, err := tagesschau.Between(from, to)
	if err != nil {
		return tagesschau.Timeframe{}, err
	}
	return tagesschau.InRange(r), nil
}
