package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/academia/internal/application"
	"github.com/JonMunkholm/academia/internal/config"
	"github.com/JonMunkholm/academia/internal/core"
	_ "github.com/JonMunkholm/academia/internal/core/kinds"
	"github.com/JonMunkholm/academia/internal/database"
	"github.com/JonMunkholm/academia/internal/logging"
	"github.com/JonMunkholm/academia/internal/store"
)

// commandLine holds the output streams and how to obtain a service.
// Tests replace openService to run against an in-memory store.
type commandLine struct {
	out, errOut io.Writer

	openService func(ctx context.Context, dryRun bool) (*core.Service, func(), error)
	loadConfig  func() (*config.Config, error)

	dryRun   bool
	logLevel string
	asJSON   bool
}

func newCommandLine(out, errOut io.Writer) *commandLine {
	cli := &commandLine{out: out, errOut: errOut, loadConfig: config.Load}
	cli.openService = cli.defaultService
	return cli
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	root.SetOut(cli.out)
	root.SetErr(cli.errOut)
	return root.ExecuteContext(ctx)
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "importctl",
		Short:         "Run and inspect bulk CSV imports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cli.errOut, cli.logLevel, "text"))
		},
	}
	root.PersistentFlags().BoolVar(&cli.dryRun, "dry-run", false, "Use an empty in-memory store instead of the database")
	root.PersistentFlags().StringVar(&cli.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&cli.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(
		cli.runCmd(),
		cli.listCmd(),
		cli.errorsCmd(),
		cli.templateCmd(),
		cli.migrateCmd(),
	)
	return root
}

// defaultService connects to the configured database, or builds an
// in-memory service for a dry run.
func (cli *commandLine) defaultService(ctx context.Context, dryRun bool) (*core.Service, func(), error) {
	if dryRun {
		mem := store.NewMemory()
		return core.NewService(mem, mem, mem, core.Options{}), func() {}, nil
	}

	cfg, err := cli.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	app, err := application.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.Service, app.Close, nil
}

func (cli *commandLine) runCmd() *cobra.Command {
	var (
		kind       string
		file       string
		importedBy string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create an import job for a local CSV file and process it",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseImportKind(kind)
			if err != nil {
				return err
			}
			var actor uuid.UUID
			if importedBy != "" {
				if actor, err = uuid.Parse(importedBy); err != nil {
					return fmt.Errorf("--imported-by: %w", err)
				}
			}
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			ctx := cmd.Context()
			svc, closeFn, err := cli.openService(ctx, cli.dryRun)
			if err != nil {
				return err
			}
			defer closeFn()

			job, err := svc.CreateJob(ctx, core.NewJob{
				Kind:       k,
				FileName:   filepath.Base(file),
				ImportedBy: actor,
			})
			if err != nil {
				return err
			}

			start := time.Now()
			res, err := svc.ProcessImport(ctx, core.ImportRequest{
				JobID:    job.ID,
				Kind:     k,
				FileName: job.FileName,
				Content:  content,
			})
			if err != nil {
				if core.IsPrecondition(err) {
					msg := core.MapError(err)
					return fmt.Errorf("import %s failed: %s (%s)", job.ID, msg.Message, msg.Code)
				}
				return err
			}

			rowErrs, err := svc.ListRowErrors(ctx, job.ID)
			if err != nil {
				return err
			}
			if cli.asJSON {
				return cli.printJSON(map[string]any{
					"import_id":  job.ID,
					"processed":  res.Processed,
					"successful": res.Successful,
					"failed":     res.Failed,
					"errors":     rowErrs,
				})
			}

			fmt.Fprintf(cli.out, "import %s (%s, %s) finished in %s\n", job.ID, k, job.FileName, time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(cli.out, "processed=%d successful=%d failed=%d\n", res.Processed, res.Successful, res.Failed)
			if len(rowErrs) > 0 {
				fmt.Fprintln(cli.out)
				cli.printRowErrors(rowErrs)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "Import type: users, subjects, groups, schedules (required)")
	cmd.Flags().StringVar(&file, "file", "", "Path to the CSV file (required)")
	cmd.Flags().StringVar(&importedBy, "imported-by", "", "Profile id recorded as the submitter")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (cli *commandLine) listCmd() *cobra.Command {
	var (
		kind, status  string
		limit, offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List import history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := core.JobFilter{Limit: limit, Offset: offset}
			var err error
			if kind != "" {
				if filter.Kind, err = core.ParseImportKind(kind); err != nil {
					return err
				}
			}
			if status != "" {
				if filter.Status, err = core.ParseJobStatus(status); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			svc, closeFn, err := cli.openService(ctx, cli.dryRun)
			if err != nil {
				return err
			}
			defer closeFn()

			jobs, err := svc.ListJobs(ctx, filter)
			if err != nil {
				return err
			}
			if cli.asJSON {
				return cli.printJSON(jobs)
			}

			tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tFILE\tSTATUS\tPROCESSED\tOK\tFAILED\tCREATED")
			for _, j := range jobs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					j.ID, j.Kind, j.FileName, j.Status,
					j.ProcessedRecords, j.SuccessfulRecords, j.FailedRecords,
					j.CreatedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "Only jobs of this import type")
	cmd.Flags().StringVar(&status, "status", "", "Only jobs in this status")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of jobs")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of jobs to skip")
	return cmd
}

func (cli *commandLine) errorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors IMPORT_ID",
		Short: "Print the failed rows of an import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid import id %q", args[0])
			}

			ctx := cmd.Context()
			svc, closeFn, err := cli.openService(ctx, cli.dryRun)
			if err != nil {
				return err
			}
			defer closeFn()

			rowErrs, err := svc.ListRowErrors(ctx, id)
			if err != nil {
				return err
			}
			if cli.asJSON {
				return cli.printJSON(rowErrs)
			}
			if len(rowErrs) == 0 {
				fmt.Fprintln(cli.out, "no row errors")
				return nil
			}
			cli.printRowErrors(rowErrs)
			return nil
		},
	}
}

func (cli *commandLine) templateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "template KIND",
		Short:     "Print the CSV template of an import type",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := core.ParseImportKind(args[0])
			if err != nil {
				return err
			}
			data, err := core.Template(kind)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cli.out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cli.out, "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.dryRun {
				return fmt.Errorf("migrate needs a database; drop --dry-run")
			}
			cfg, err := cli.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := application.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Fprintln(cli.out, "schema is up to date")
			return nil
		},
	}
}

func (cli *commandLine) printRowErrors(rowErrs []core.RowError) {
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tERROR\tDATA")
	for _, re := range rowErrs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", re.RowNumber, re.Message, formatRowData(re.RowData))
	}
	tw.Flush()
}

func (cli *commandLine) printJSON(v any) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatRowData renders raw values as key=value pairs in key order.
func formatRowData(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + data[k]
	}
	return strings.Join(parts, " ")
}

func kindNames() []string {
	kinds := core.ImportKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
