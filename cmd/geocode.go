package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/geo"
	"github.com/spigell/job-matcher/internal/logger"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode PLACE...",
	Short: "Resolve places and print their coordinates and distances to the first one",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		geocode(args)
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}

func geocode(places []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	resolver, closeStore, err := newResolver(ctx, config.Geocoder, logger)
	if err != nil {
		logger.Fatal("building the geocoder", zap.Error(err))
	}
	defer closeStore()

	resolved := resolver.ResolveBatch(ctx, places)
	if err := printPlaces(os.Stdout, places, resolved); err != nil {
		logger.Fatal("printing places", zap.Error(err))
	}
}

// printPlaces writes one row per place. Distances and scores are relative to
// the first place when it was resolved, so places must not be empty.
func printPlaces(w io.Writer, places []string, resolved map[string]*geo.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLACE\tLATITUDE\tLONGITUDE\tCOUNTRY\tDISTANCE\tSCORE")

	origin := resolved[strings.TrimSpace(places[0])]
	for _, place := range places {
		loc, ok := resolved[strings.TrimSpace(place)]
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\n", place)
			continue
		}

		distance, score := "-", "-"
		if origin != nil {
			km := geo.Distance(origin, loc)
			distance = fmt.Sprintf("%.1f km", km)
			score = fmt.Sprintf("%.2f", geo.ScoreForDistance(km))
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\t%s\t%s\n",
			place, loc.Latitude, loc.Longitude, loc.CountryCode, distance, score,
		)
	}
	return tw.Flush()
}
