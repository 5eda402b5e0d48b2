package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ai-resume-go/internal/logger"
	"ai-resume-go/internal/processor"
	"ai-resume-go/internal/types"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "resumectl",
	Short: "Parse resumes and score them against job descriptions offline",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := logger.Init(logger.Config{Level: logLevel}); err != nil {
			return err
		}
		// stdout 只输出 JSON 结果
		logger.Logger = logger.Logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		return nil
	},
	SilenceUsage: true,
}

// --- parse ---

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a resume file (pdf, docx, doc, txt) into structured JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService(cmd.Context())
		resume, err := parseFile(cmd.Context(), svc, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resume)
	},
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Score a resume file against a job description",
	Long: `Score a resume file against a job description.

Examples:
  resumectl analyze ./cv.pdf --job ./job.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobPath, _ := cmd.Flags().GetString("job")
		if jobPath == "" {
			return fmt.Errorf("--job is required")
		}
		job, err := readJob(jobPath)
		if err != nil {
			return err
		}

		svc := newService(cmd.Context())
		resume, err := parseFile(cmd.Context(), svc, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), svc.AnalyzeMatch(cmd.Context(), resume, job))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	analyzeCmd.Flags().String("job", "", "path to a job description JSON file")
	rootCmd.AddCommand(parseCmd, analyzeCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newService(ctx context.Context) *processor.ResumeService {
	return processor.NewResumeService(&processor.Components{
		Parser: processor.NewParserFromConfig(ctx, &logger.Logger),
	}, nil, processor.WithServiceLogger(&logger.Logger))
}

func parseFile(ctx context.Context, svc *processor.ResumeService, path string) (types.ParsedResume, error) {
	format, err := types.FormatFromFilename(path)
	if err != nil {
		return types.ParsedResume{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ParsedResume{}, fmt.Errorf("reading file: %w", err)
	}
	resume, err := svc.ParseDocument(ctx, data, format)
	if err != nil {
		return types.ParsedResume{}, err
	}
	if resume.ParseError != "" {
		logger.Warn().Str("file", filepath.Base(path)).Str("parse_error", resume.ParseError).Msg("文本提取降级")
	}
	return resume, nil
}

func readJob(path string) (types.JobDescription, error) {
	var job types.JobDescription
	data, err := os.ReadFile(path)
	if err != nil {
		return job, fmt.Errorf("reading job description: %w", err)
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("decoding job description: %w", err)
	}
	return job, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
