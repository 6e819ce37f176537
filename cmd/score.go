package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/enrich"
	"github.com/spigell/job-matcher/internal/experience"
	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/scoring"
	"github.com/spigell/job-matcher/internal/skills"
)

const (
	PromptShowRanking         = "Show ranking"
	PromptReportByCompany     = "Report by company"
	PromptChangeLocation      = "Change location"
	PromptAppendToExcludeFile = "Append all jobs to exclude file"
	PromptResultsToFile       = "Dump results to file"
	PromptExit                = "Exit"

	rankingSize = 20
)

var errExit = errors.New("exit requested")

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score jobs against a candidate profile",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("profile", "p", "", "candidate profile file (json or yaml)")
	scoreCmd.Flags().String("jobs", "", "job postings file (json or yaml)")
	scoreCmd.Flags().StringP("location", "l", "", "override the candidate location")
	scoreCmd.Flags().BoolP("auto", "y", false, "print the ranking as json and exit without prompts")
	scoreCmd.Flags().Int("workers", matching.DefaultWorkers, "number of jobs scored concurrently")
	scoreCmd.Flags().Int("min-score", 0, "drop jobs scoring below this value")
	scoreCmd.Flags().Float64("max-distance", 0, "drop on-site jobs farther than this many km")
	scoreCmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")

	viper.BindPFlag("profile", scoreCmd.Flags().Lookup("profile"))
	viper.BindPFlag("jobs", scoreCmd.Flags().Lookup("jobs"))
	viper.BindPFlag("location", scoreCmd.Flags().Lookup("location"))
	viper.BindPFlag("workers", scoreCmd.Flags().Lookup("workers"))
	viper.BindPFlag("filters.min-score", scoreCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("filters.max-distance", scoreCmd.Flags().Lookup("max-distance"))
	viper.BindPFlag("exclude-file", scoreCmd.Flags().Lookup("exclude-file"))
}

// score is the main command for the cli.
func score(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.Profile == "" || config.Jobs == "" {
		logger.Fatal("both profile and jobs files are required", zap.String("hint", "use --profile and --jobs or the config file"))
	}

	profile, err := catalog.LoadProfile(config.Profile)
	if err != nil {
		logger.Fatal("loading the profile", zap.Error(err))
	}
	if config.Location != "" {
		profile = profile.WithLocation(config.Location)
	}
	logger.Debug("profile loaded",
		zap.Int("skills", len(profile.AllSkills())),
		zap.Strings("languages", profile.LanguageNames()),
		zap.String("location", profile.Location),
	)

	jobs, err := loadJobs(config.Jobs, logger)
	if err != nil {
		logger.Fatal("loading jobs", zap.Error(err))
	}

	if jobs.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no jobs found"))
		return
	}

	resolver, closeStore, err := newResolver(ctx, config.Geocoder, logger)
	if err != nil {
		logger.Fatal("building the geocoder", zap.Error(err))
	}
	defer closeStore()

	scorer := scoring.New(skills.DefaultTables(), experience.NewEstimator(nil), resolver, scoring.Options{
		InferTools: config.Scoring.InferTools,
	})
	orchestrator := matching.New(scorer, logger,
		matching.WithWorkers(config.Workers),
		matching.WithPrefetcher(resolver),
	)

	scored := orchestrator.ScoreAll(ctx, jobs.Items, profile)

	filters := prepareFilters(config, logger)
	results, err := filters.RunFilters(ctx, scored.Clone())
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if results.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no jobs left after filters"))
		return
	}

	auto, _ := cmd.Flags().GetBool("auto")
	if auto {
		if err := writeJSON(os.Stdout, results.Items); err != nil {
			logger.Fatal("printing results", zap.Error(err))
		}
		return
	}

	b := &browser{
		logger:  logger,
		config:  config,
		filters: filters,
		results: results,
		session: enrich.NewMerger(resolver, logger).NewSession(ctx, scored, config.Enrich.Debounce),
		out:     os.Stdout,
	}
	defer b.session.Close()

	prompt := promptui.Select{
		Label: "What next?",
	}
	for {
		prompt.Items = b.actions()
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of jobs", zap.Int("count", b.results.Len()))

		if err := b.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func loadJobs(path string, l *zap.Logger) (*catalog.Jobs, error) {
	jobs, err := catalog.LoadJobs(path)
	if err != nil {
		return nil, err
	}

	if n := jobs.EnsureIDs(); n > 0 {
		l.Warn("generated ids for jobs without one", zap.Int("count", n))
	}
	for _, job := range jobs.Items {
		if err := job.Validate(); err != nil {
			l.Warn("job record is malformed and will score 0",
				append(logger.JobFields(job), zap.Error(err))...,
			)
		}
	}

	l.Info("getting jobs", zap.Int("count", jobs.Len()), zap.Int("locations", len(jobs.Locations())))
	return jobs, nil
}

func prepareFilters(config *Config, logger *zap.Logger) *filtering.Pipeline {
	steps := []filtering.Filter{
		filtering.NewExcludeFile(config.ExcludeFile, logger),
		filtering.NewMinScore(config.Filters.MinScore),
		filtering.NewMaxDistance(config.Filters.MaxDistance),
	}

	pipeline := filtering.New(steps, logger)
	if config.ExcludeFile == "" {
		pipeline.DisableByName("exclude_file", "no exclude file configured")
	}
	return pipeline
}

// browser holds the interactive state of the score command.
type browser struct {
	logger  *zap.Logger
	config  *Config
	filters *filtering.Pipeline
	results *matching.Results
	session *enrich.Session
	out     io.Writer
}

func (b *browser) actions() []string {
	items := []string{PromptShowRanking, PromptReportByCompany, PromptChangeLocation}
	if b.config.ExcludeFile != "" && b.results.Len() != 0 {
		items = append(items, PromptAppendToExcludeFile)
	}
	return append(items, PromptResultsToFile, PromptExit)
}

func (b *browser) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptShowRanking:
		return printRanking(b.out, b.results, rankingSize)
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(b.results.ReportByCompany(), "", "  ")
		b.logger.Info(string(pretty), zap.Int("jobs count", b.results.Len()))
		return nil
	case PromptChangeLocation:
		locationPrompt := promptui.Prompt{Label: "New location"}
		location, err := locationPrompt.Run()
		if err != nil {
			return err
		}
		return b.changeLocation(ctx, location)
	case PromptAppendToExcludeFile:
		return b.appendToExcludeFile()
	case PromptResultsToFile:
		filename, err := b.results.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		b.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		b.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// changeLocation re-rates the location of every scored job and reapplies the filters.
func (b *browser) changeLocation(ctx context.Context, location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil
	}

	gen := b.session.LocationChanged(location)
	update := b.session.Wait()
	if update.Generation != gen {
		b.logger.Warn("location change was not applied", zap.String("location", location))
		return nil
	}

	results, err := b.filters.RunFilters(ctx, update.Results.Clone())
	if err != nil {
		return fmt.Errorf("filtering: %w", err)
	}
	b.results = results

	b.logger.Info("location changed",
		zap.String("location", location),
		zap.Int("jobs_left", b.results.Len()),
	)
	return printRanking(b.out, b.results, rankingSize)
}

func (b *browser) appendToExcludeFile() error {
	excludeFile := b.config.ExcludeFile
	excluded, err := catalog.GetExcludedJobsFromFile(excludeFile)
	if err != nil {
		return err
	}

	added := excluded.Append(b.results.ToExcluded("excluded from job-matcher"))

	if err = excluded.ToFile(excludeFile); err != nil {
		return err
	}

	b.logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("added", added))

	b.results.Exclude(catalog.JobIDField, excluded.IDs())
	return nil
}

func printRanking(w io.Writer, results *matching.Results, n int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tID\tTITLE\tCOMPANY\tLOCATION\tDISTANCE")
	for i, item := range results.Top(n) {
		if item.Job == nil {
			continue
		}
		distance := "-"
		if item.Breakdown != nil && item.Breakdown.DistanceKm != nil {
			distance = fmt.Sprintf("%.1f km", *item.Breakdown.DistanceKm)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, item.Score, item.Job.ID, item.Job.Title, item.Job.Company, item.Job.Location, distance,
		)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
