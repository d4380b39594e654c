package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexanderveratry/Storm-gpt/internal/llm"
	"github.com/alexanderveratry/Storm-gpt/internal/loader"
	"github.com/alexanderveratry/Storm-gpt/internal/model"
	"github.com/alexanderveratry/Storm-gpt/internal/pipeline"
	"github.com/alexanderveratry/Storm-gpt/internal/report"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps terminal pipeline conditions to distinct statuses so shell
// callers can tell them apart.
func exitCode(err error) int {
	switch {
	case errors.Is(err, loader.ErrRootNotFound):
		return 2
	case errors.Is(err, loader.ErrNoDocuments):
		return 3
	default:
		return 1
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stormgpt",
		Short: "Exam answer pattern analyzer and rubric generator powered by LLMs",
	}

	analyze := analyzeCmd()
	root.AddCommand(analyze)

	// Make "analyze" the default when no subcommand is given.
	root.RunE = analyze.RunE

	// Register analyze flags on root so bare `stormgpt --input ...` still works.
	root.Flags().AddFlagSet(analyze.Flags())

	return root
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze student Word documents and generate a grading rubric",
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "Folder tree with per-student Word documents (prompted when empty)")
	f.StringP("output-dir", "o", ".", "Directory for the generated reports")
	f.StringP("questions", "q", "", "Path to a JSON file with the exam questions (default: built-in set)")
	f.String("llm-url", "", "OpenAI-compatible API base URL (default: OpenAI)")
	f.String("llm-key", "", "API key for LLM (or set OPENAI_API_KEY)")
	f.String("llm-model", "gpt-4o", "LLM model name")
	f.Duration("llm-timeout", 60*time.Second, "Per-request timeout for LLM calls")
	f.Int("llm-retries", 2, "Extra attempts per LLM call on transient failures")
	f.Int("context-window", 3, "Prior documents summarized into each extraction request")
	f.Int("max-examples", 6, "High-quality answer excerpts included in the rubric request")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("STORMGPT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The upstream credential variable works too.
	_ = v.BindEnv("llm-key", "STORMGPT_LLM_KEY", "OPENAI_API_KEY")

	v.SetConfigName("stormgpt")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/stormgpt")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	input := strings.TrimSpace(v.GetString("input"))
	if input == "" {
		var err error
		input, err = promptLine("Ingresa la ruta de la carpeta con los archivos Word: ")
		if err != nil {
			return fmt.Errorf("read input path: %w", err)
		}
	}

	apiKey := strings.TrimSpace(v.GetString("llm-key"))
	if apiKey == "" {
		var err error
		apiKey, err = promptLine("Ingresa tu API key de OpenAI: ")
		if err != nil {
			return fmt.Errorf("read API key: %w", err)
		}
	}

	questions := model.DefaultQuestions
	if path := v.GetString("questions"); path != "" {
		var err error
		questions, err = model.LoadQuestions(path)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
	}

	llmClient, err := llm.New(llm.Config{
		BaseURL:       v.GetString("llm-url"),
		APIKey:        apiKey,
		Model:         v.GetString("llm-model"),
		Timeout:       v.GetDuration("llm-timeout"),
		Retries:       v.GetInt("llm-retries"),
		ContextWindow: v.GetInt("context-window"),
	})
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	if err := llmClient.Ping(context.Background()); err != nil {
		return err
	}
	slog.Info("LLM endpoint OK", "model", v.GetString("llm-model"))

	// Spinner for visual feedback during the long LLM-bound stages.
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Writer = os.Stderr

	runner := pipeline.Runner{
		LLM: llmClient,
		Config: pipeline.Config{
			InputDir:    input,
			OutputDir:   v.GetString("output-dir"),
			Questions:   questions,
			MaxExamples: v.GetInt("max-examples"),
		},
		Progress: func(stage string, current, total int) {
			switch stage {
			case "extract":
				s.Suffix = fmt.Sprintf(" analyzing document %d/%d...", current, total)
			case "rubric":
				s.Suffix = " generating rubric..."
			}
			if !s.Active() {
				s.Start()
			}
		},
	}

	err = runner.Run(cmd.Context())
	s.Stop()
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen, color.Bold)
	outDir := v.GetString("output-dir")
	green.Println("✓ Analysis complete")
	for _, name := range []string{report.PatternsFile, report.StudentsFile, report.RubricJSONFile, report.RubricTextFile} {
		fmt.Printf("  %s/%s\n", outDir, name)
	}
	return nil
}

func promptLine(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
