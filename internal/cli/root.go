// Package cli is the epistate command-line interface over a local SQLite database.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Harshitk-cp/epistate/internal/buildconfig"
	"github.com/Harshitk-cp/epistate/internal/config"
	"github.com/Harshitk-cp/epistate/internal/service"
	"github.com/Harshitk-cp/epistate/internal/store/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries per-invocation state shared by subcommands.
type app struct {
	knowledgeFile string
	dbPath        string
	outputText    bool
	verbose       bool
	concurrency   int

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	db     *sqlite.DB
	suite  *service.Suite
	logger *zap.Logger
}

// NewRootCmd builds the command tree. Output goes to stdout/stderr as given.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "epistate",
		Short: "Split-complex epistemic state for entities described by facts",
		Long: `epistate aggregates (entity, predicate, object) facts into split-complex state
vectors: confirmed evidence in the real channel, uncertain or conflicting evidence
in the dual channel. States are scored against reference vectors.

Quick Start:
  epistate ingest patients.nt --db state.db
  epistate score patients.nt --reference hypertension-guideline
  epistate update Patient123 hasDiagnosis Diabetes --db state.db
  epistate history Patient123 --db state.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.knowledgeFile, "knowledge", os.Getenv("KNOWLEDGE_FILE"), "YAML knowledge file")
	root.PersistentFlags().StringVar(&a.dbPath, "db", sqlite.InMemory, "SQLite database path")
	root.PersistentFlags().BoolVar(&a.outputText, "text", false, "Human-readable text output (default is JSON)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging on stderr")
	root.PersistentFlags().IntVar(&a.concurrency, "concurrency", config.BatchConcurrency(), "Parallel aggregation and scoring workers")

	root.AddCommand(
		a.ingestCmd(),
		a.scoreCmd(),
		a.updateCmd(),
		a.historyCmd(),
		a.conceptCmd(),
		a.referenceCmd(),
		versionCmd(),
	)
	return root
}

// Execute runs the CLI against the process streams.
func Execute() error {
	_ = config.Load()
	root := NewRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		writeError(os.Stderr, outputTextFlag(root), err)
		return err
	}
	return nil
}

func outputTextFlag(root *cobra.Command) bool {
	v, _ := root.PersistentFlags().GetBool("text")
	return v
}

func (a *app) open(ctx context.Context) error {
	level := zapcore.WarnLevel
	if a.verbose {
		level = zapcore.DebugLevel
	}
	a.logger = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(a.stderr),
		level,
	))

	k, err := config.LoadKnowledge(a.knowledgeFile)
	if err != nil {
		return err
	}

	a.db, err = sqlite.Open(a.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	a.suite, err = service.Bootstrap(ctx, k, service.Stores{
		Facts:      a.db.Facts(),
		States:     a.db.States(),
		Concepts:   a.db.Concepts(),
		References: a.db.References(),
	}, a.concurrency, a.logger)
	return err
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// output writes JSON by default, or the text rendering when --text is set.
func (a *app) output(result any, text func(io.Writer)) error {
	if a.outputText {
		text(a.stdout)
		return nil
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeError(w io.Writer, text bool, err error) {
	if text {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "error",
		"error":  err.Error(),
	})
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "epistate %s\n", buildconfig.String())
		},
	}
}
