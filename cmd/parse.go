package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/metrics"
	"github.com/spigell/resume-screener/internal/resume"
)

const defaultParseRetries = 3

// parseExtensions are the inputs picked up from an input directory.
var parseExtensions = map[string]bool{".pdf": true, ".txt": true, ".md": true}

var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse raw resumes (PDF or text) into structured JSON",
	Run: func(cmd *cobra.Command, args []string) {
		parse(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("input-dir", "i", "data/raw_resumes", "directory with raw resumes, used when no files are given")
	parseCmd.Flags().StringP("output-dir", "o", "", "directory for parsed JSON (default is resume-dir)")
	parseCmd.Flags().Int("json-retries", defaultParseRetries, "attempts to get valid JSON from the model per resume")
	parseCmd.Flags().Int("max-chars", resume.DefaultMaxChars, "resume text is truncated to this many characters")
}

func parse(cmd *cobra.Command, args []string) {
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

	outDir, _ := cmd.Flags().GetString("output-dir")
	if outDir == "" {
		outDir = config.ResumeDir
	}
	retries, _ := cmd.Flags().GetInt("json-retries")
	maxChars, _ := cmd.Flags().GetInt("max-chars")

	files := args
	if len(files) == 0 {
		inputDir, _ := cmd.Flags().GetString("input-dir")
		files, err = collectInputs(inputDir)
		if err != nil {
			logger.Fatal("listing input resumes", zap.Error(err))
		}
	}
	if len(files) == 0 {
		logger.Info("exiting", zap.String("reason", "no resumes to parse"))
		return
	}

	recorder := metrics.New()
	backend, err := newBackend(ctx, config.LLM, logger)
	if err != nil {
		logger.Fatal("creating llm client", zap.Error(err))
	}
	checkHealth(ctx, backend, logger)
	llm := newTextService(backend, config.LLM, recorder, logger)

	parser := resume.NewParser(
		llm,
		ai.Options{Temperature: resume.ParseTemperature, MaxTokens: config.LLM.MaxTokens},
		ai.JSONRetry{Attempts: retries, Delay: jsonRetryDelay},
		maxChars,
		logger,
	)

	parsed := 0
	for i, path := range files {
		if ctx.Err() != nil {
			logger.Warn("parsing interrupted", zap.Int("parsed", parsed))
			break
		}

		logger.Info("parsing resume", zap.String("file", path), zap.Int("position", i+1), zap.Int("total", len(files)))

		r, err := parser.ParseFile(ctx, path)
		if err != nil {
			logger.Error("parsing resume failed", zap.String("file", path), zap.Error(err))
			continue
		}
		for _, w := range resume.Warnings(r) {
			logger.Warn("parsed resume is incomplete", zap.String("file", path), zap.String("warning", w))
		}

		saved, err := resume.Save(r, outDir)
		if err != nil {
			logger.Error("saving parsed resume failed", zap.String("file", path), zap.Error(err))
			continue
		}
		parsed++
		logger.Info("parsed resume saved", zap.String("candidate_id", r.ID), zap.String("filename", saved))
	}

	logger.Info("parsing complete",
		zap.Int("parsed", parsed),
		zap.Int("failed", len(files)-parsed),
		zap.String("output_dir", outDir),
	)

	if config.Output != nil && config.Output.MetricsFile != "" {
		writeMetrics(recorder, config.Output.MetricsFile, logger)
	}
}

// collectInputs lists resume files in dir in name order.
func collectInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !parseExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
