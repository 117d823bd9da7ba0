package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/agents"
	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/export"
	"github.com/spigell/resume-screener/internal/filtering"
	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/metrics"
	"github.com/spigell/resume-screener/internal/resume"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/tracing"
)

const (
	PromptBreakdown  = "Show candidate breakdown"
	PromptCompareTop = "Compare top two candidates"
	PromptExportXLSX = "Export ranking to XLSX"
	PromptDumpJSON   = "Dump results to JSON file"
	PromptExit       = "Exit"
	PromptBack       = "back"

	defaultXLSXPath = "screening_results.xlsx"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptBreakdown, PromptCompareTop, PromptExportXLSX, PromptDumpJSON, PromptExit},
}

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Score and rank parsed resumes against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		screen(cmd)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for actions after ranking, only write configured outputs")
	screenCmd.Flags().StringP("resume-dir", "r", "", "directory with parsed resume JSON files")
	screenCmd.Flags().String("jd", "", "job description text")
	screenCmd.Flags().String("jd-file", "", "file with the job description")
	screenCmd.Flags().StringP("exclude-file", "e", "", "file with candidate ids or emails to exclude. Default is unset.")
	screenCmd.Flags().IntP("limit", "n", 0, "score at most this many candidates (0 means all)")
	screenCmd.Flags().IntP("parallelism", "p", 0, "number of candidates scored at once")
	screenCmd.Flags().String("xlsx", "", "write the ranking to this XLSX file")
	screenCmd.Flags().String("output-json", "", "write the full results to this JSON file")

	viper.BindPFlag("resume-dir", screenCmd.Flags().Lookup("resume-dir"))
	viper.BindPFlag("job-description", screenCmd.Flags().Lookup("jd"))
	viper.BindPFlag("job-description-file", screenCmd.Flags().Lookup("jd-file"))
	viper.BindPFlag("exclude-file", screenCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("limit", screenCmd.Flags().Lookup("limit"))
	viper.BindPFlag("parallelism", screenCmd.Flags().Lookup("parallelism"))
	viper.BindPFlag("output.xlsx", screenCmd.Flags().Lookup("xlsx"))
	viper.BindPFlag("output.json", screenCmd.Flags().Lookup("output-json"))
}

// runFailure describes a failed screening run for the fatal log line. An
// empty message means the run succeeded.
func runFailure(err error, resumeDir string) (string, []zap.Field) {
	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, screening.ErrEmptyBatch):
		return "no valid candidates found", []zap.Field{
			zap.String("resume_dir", resumeDir),
			zap.String("hint", "run the parse command first or point resume-dir at parsed JSON files"),
		}
	case errors.Is(err, jd.ErrEmptyJobDescription):
		return "job description is required", []zap.Field{
			zap.String("hint", "set job-description-file or pass --jd-file"),
		}
	default:
		return "screening failed", []zap.Field{zap.Error(err)}
	}
}

// screen is the main command for the cli.
func screen(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	weights, err := scoring.NewWeights(config.Weights)
	if err != nil {
		logger.Fatal("invalid weights", zap.Error(err), zap.Any("weights", config.Weights))
	}

	jdText, err := config.jobDescription()
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}

	tracingCfg := tracing.Config{}
	if config.Tracing != nil {
		tracingCfg = tracing.Config{
			Endpoint:    config.Tracing.OTLPEndpoint,
			ServiceName: config.Tracing.ServiceName,
			SampleRatio: config.Tracing.SampleRatio,
		}
	}
	shutdown, err := tracing.Setup(ctx, tracingCfg, logger)
	if err != nil {
		logger.Fatal("setting up tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	recorder := metrics.New()
	if config.Output != nil && config.Output.MetricsFile != "" {
		defer writeMetrics(recorder, config.Output.MetricsFile, logger)
	}

	backend, err := newBackend(ctx, config.LLM, logger)
	if err != nil {
		logger.Fatal("creating llm client", zap.Error(err))
	}
	checkHealth(ctx, backend, logger)
	llm := newTextService(backend, config.LLM, recorder, logger)

	opts := ai.Options{Temperature: config.LLM.Temperature, MaxTokens: config.LLM.MaxTokens}
	agentCfg := agents.Config{Options: opts, Retry: jsonRetry(config.LLM)}

	screener, err := screening.New(
		jd.NewParser(llm, opts, jsonRetry(config.LLM), logger),
		[]agents.Agent{
			agents.NewSkillAgent(llm, agentCfg, logger),
			agents.NewExperienceAgent(llm, agentCfg, logger),
			agents.NewFitAgent(llm, agentCfg, logger),
		},
		screening.Config{
			Weights:     weights,
			Parallelism: config.Parallelism,
			Filters:     prepareFilters(config, logger),
			FilterConfig: &filtering.Config{
				ExcludeFile: config.ExcludeFile,
				Limit:       config.Limit,
			},
		},
		recorder,
		logger,
	)
	if err != nil {
		logger.Fatal("creating screener", zap.Error(err))
	}

	src := resume.NewDirSource(config.ResumeDir, 0, logger)

	report, err := screener.Run(ctx, jdText, src)
	for _, s := range src.Skipped() {
		logger.Warn("skipped resume", zap.String("file", s.File), zap.String("reason", s.Reason))
	}
	if msg, fields := runFailure(err, config.ResumeDir); msg != "" {
		logger.Fatal(msg, fields...)
	}

	printRanking(logger, report)

	if err := writeOutputs(config.Output, report, logger); err != nil {
		logger.Fatal("writing outputs", zap.Error(err))
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, config, report); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func prepareFilters(config *Config, logger *zap.Logger) []filtering.Filter {
	steps := filtering.Default()
	if config.ExcludeFile == "" {
		filtering.DisableByName(steps, "exclude_file", "no exclude file configured")
	}
	if config.Limit == 0 {
		filtering.DisableByName(steps, "limit", "no limit configured")
	}

	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter configured",
			zap.String("filter", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
		)
	}
	return steps
}

func printRanking(logger *zap.Logger, report *screening.Report) {
	for i, r := range report.Results {
		logger.Info("ranked candidate",
			zap.Int("rank", i+1),
			zap.String("candidate_id", r.CandidateID),
			zap.String("name", r.Name),
			zap.String("email", r.Email),
			zap.String("phone", r.Phone),
			zap.Float64("total_score", r.TotalScore),
			zap.Float64("technical", r.Breakdown[scoring.Technical].Score),
			zap.Float64("career", r.Breakdown[scoring.Career].Score),
			zap.Float64("fit", r.Breakdown[scoring.Fit].Score),
			zap.String("tier", r.Tier),
			zap.Float64("confidence", r.Confidence),
		)
	}
	logger.Info("screening complete",
		zap.String("run_id", report.RunID),
		zap.Int("candidates", len(report.Results)),
		zap.String("elapsed", report.Elapsed.Round(100*time.Millisecond).String()),
	)
}

func writeOutputs(out *OutputConfig, report *screening.Report, logger *zap.Logger) error {
	if out == nil {
		return nil
	}
	if out.XLSX != "" {
		path, err := export.XLSX(report, out.XLSX)
		if err != nil {
			return err
		}
		logger.Info("exported ranking", zap.String("filename", path))
	}
	if out.JSON != "" {
		path, err := export.DumpJSON(report, out.JSON)
		if err != nil {
			return err
		}
		logger.Info("dumped results", zap.String("filename", path))
	}
	return nil
}

func writeMetrics(recorder *metrics.Recorder, path string, logger *zap.Logger) {
	if err := recorder.WriteToTextfile(path); err != nil {
		logger.Warn("writing metrics", zap.Error(err), zap.String("filename", path))
		return
	}
	logger.Debug("metrics written", zap.String("filename", path))
}

func handleAction(action string, logger *zap.Logger, config *Config, report *screening.Report) error {
	switch action {
	case PromptBreakdown:
		return showBreakdown(logger, report)
	case PromptCompareTop:
		if len(report.Results) < 2 {
			logger.Info("need at least two candidates to compare")
			return nil
		}
		a, b := report.Results[0], report.Results[1]
		pretty, _ := json.MarshalIndent(scoring.Compare(a, b), "", "  ")
		logger.Info(string(pretty), zap.String("first", a.CandidateID), zap.String("second", b.CandidateID))
		return nil
	case PromptExportXLSX:
		path := defaultXLSXPath
		if config.Output != nil && config.Output.XLSX != "" {
			path = config.Output.XLSX
		}
		filename, err := export.XLSX(report, path)
		if err != nil {
			return fmt.Errorf("export ranking: %w", err)
		}
		logger.Info("exported ranking", zap.String("filename", filename))
		return nil
	case PromptDumpJSON:
		path := ""
		if config.Output != nil {
			path = config.Output.JSON
		}
		filename, err := export.DumpJSON(report, path)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func showBreakdown(logger *zap.Logger, report *screening.Report) error {
	for {
		items := make([]string, 0, len(report.Results)+1)
		for i, r := range report.Results {
			items = append(items, fmt.Sprintf("%d. %s (%s) %.2f", i+1, r.Name, r.CandidateID, r.TotalScore))
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptBack),
		}

		idx, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		r := report.Results[idx]
		for _, c := range scoring.Categories {
			res := r.Breakdown[c]
			logger.Info("agent result",
				zap.String("candidate_id", r.CandidateID),
				zap.String("category", string(c)),
				zap.Float64("score", res.Score),
				zap.Float64("weighted", r.WeightedScores[c]),
				zap.Bool("degraded", res.Degraded),
				zap.String("reasoning", res.Reasoning),
				zap.Strings("strengths", res.Strengths),
				zap.Strings("weaknesses", res.Weaknesses),
			)
		}
		logger.Info("category details", zap.Any("scores", scoring.AggregateCategories(r.Breakdown)))
	}
}
