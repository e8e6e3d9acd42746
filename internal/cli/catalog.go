package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dynir/internal/store"
)

// DialectEntry is the JSON form of a catalogued dialect.
type DialectEntry struct {
	Hash      string `json:"hash"`
	Name      string `json:"name"`
	Seq       int64  `json:"seq"`
	IRVersion string `json:"ir_version"`
	Source    string `json:"source,omitempty"`
}

// RunEntry is the JSON form of a recorded run.
type RunEntry struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Seq      int64             `json:"seq"`
	Dialects []string          `json:"dialects"`
	Total    int               `json:"total"`
	Failed   int               `json:"failed"`
	Results  []store.RunResult `json:"results,omitempty"`
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the dialect catalog",
		Long: `Inspect the catalog database given by --db (or db in dynir.toml).

The catalog stores every compiled declaration by content hash and every
recorded verification run.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "dialects",
		Short:         "List catalogued dialects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(rootOpts, cmd, listDialects)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "show <hash|name>",
		Short:         "Print a catalogued declaration",
		Long:          "Print a declaration by hash, hash prefix or dialect name (latest version).",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(rootOpts, cmd, func(st *store.Store, f *OutputFormatter, cmd *cobra.Command) error {
				return showDialect(st, f, cmd, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "runs",
		Short:         "List recorded verification runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(rootOpts, cmd, listRuns)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "run <id>",
		Short:         "Show the results of one run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(rootOpts, cmd, func(st *store.Store, f *OutputFormatter, cmd *cobra.Command) error {
				return showRun(st, f, cmd, args[0])
			})
		},
	})

	return cmd
}

type catalogFunc func(st *store.Store, f *OutputFormatter, cmd *cobra.Command) error

// withCatalog opens the existing catalog and calls fn.
func withCatalog(opts *RootOptions, cmd *cobra.Command, fn catalogFunc) error {
	formatter := newFormatter(opts, cmd)
	if opts.DB == "" {
		_ = formatter.Error(ErrCodeNotFound, "no catalog: set --db or db in "+DefaultConfigFile, nil)
		return NewExitError(ExitCommandError, "no catalog database given")
	}
	if _, err := os.Stat(opts.DB); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", opts.DB), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("catalog not found: %s", opts.DB))
	}
	st, err := store.Open(opts.DB)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	defer st.Close()
	return fn(st, formatter, cmd)
}

func listDialects(st *store.Store, f *OutputFormatter, cmd *cobra.Command) error {
	records, err := st.ListDialects(cmd.Context())
	if err != nil {
		return storeError(f, err)
	}
	entries := make([]DialectEntry, len(records))
	for i, r := range records {
		entries[i] = dialectEntry(r, false)
	}
	if f.JSON() {
		return f.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(f.Writer, "No dialects catalogued.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(f.Writer, "%4d  %s  %s\n", e.Seq, e.Hash[:12], e.Name)
	}
	return nil
}

func showDialect(st *store.Store, f *OutputFormatter, cmd *cobra.Command, key string) error {
	rec, err := findDialect(st, cmd, key)
	if errors.Is(err, sql.ErrNoRows) {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("no dialect matches %q", key), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("no dialect matches %q", key))
	}
	if err != nil {
		return storeError(f, err)
	}
	if f.JSON() {
		return f.Success(dialectEntry(rec, true))
	}
	fmt.Fprintf(f.Writer, "// %s seq %d\n%s\n", rec.Hash, rec.Seq, rec.Source)
	return nil
}

// findDialect resolves key as a full hash, a unique hash prefix or a
// dialect name, in that order.
func findDialect(st *store.Store, cmd *cobra.Command, key string) (store.DialectRecord, error) {
	ctx := cmd.Context()
	rec, err := st.ReadDialect(ctx, key)
	if !errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	records, err := st.ListDialects(ctx)
	if err != nil {
		return store.DialectRecord{}, err
	}
	var matches []store.DialectRecord
	for _, r := range records {
		if strings.HasPrefix(r.Hash, key) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return st.LatestDialect(ctx, key)
	default:
		return store.DialectRecord{}, fmt.Errorf("hash prefix %q is ambiguous (%d matches)", key, len(matches))
	}
}

func listRuns(st *store.Store, f *OutputFormatter, cmd *cobra.Command) error {
	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return storeError(f, err)
	}
	entries := make([]RunEntry, len(runs))
	for i, r := range runs {
		entries[i] = runEntry(r, false)
	}
	if f.JSON() {
		return f.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(f.Writer, "%4d  %s  %s  %d/%d failed\n", e.Seq, e.ID, e.Label, e.Failed, e.Total)
	}
	return nil
}

func showRun(st *store.Store, f *OutputFormatter, cmd *cobra.Command, id string) error {
	run, err := st.ReadRun(cmd.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", id), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("run not found: %s", id))
	}
	if err != nil {
		return storeError(f, err)
	}
	entry := runEntry(run, true)
	if f.JSON() {
		return f.Success(entry)
	}
	fmt.Fprintf(f.Writer, "Run %s (%s), seq %d: %d/%d failed\n", entry.ID, entry.Label, entry.Seq, entry.Failed, entry.Total)
	for _, res := range run.Results {
		if res.OK() {
			fmt.Fprintf(f.Writer, "  ✓ %s  %s\n", res.Case, res.Op)
			continue
		}
		fmt.Fprintf(f.Writer, "  ✗ %s  %s  %s: %s\n", res.Case, res.Op, res.Code, res.Message)
	}
	return nil
}

func dialectEntry(r store.DialectRecord, withSource bool) DialectEntry {
	e := DialectEntry{Hash: r.Hash, Name: r.Name, Seq: r.Seq, IRVersion: r.IRVersion}
	if withSource {
		e.Source = r.Source
	}
	return e
}

func runEntry(r store.Run, withResults bool) RunEntry {
	e := RunEntry{
		ID:       r.ID,
		Label:    r.Label,
		Seq:      r.Seq,
		Dialects: r.DialectHashes,
		Total:    len(r.Results),
		Failed:   r.Failed(),
	}
	if withResults {
		e.Results = r.Results
	}
	return e
}

func storeError(f *OutputFormatter, err error) error {
	_ = f.Error(ErrCodeStore, err.Error(), nil)
	return WrapExitError(ExitCommandError, "catalog query failed", err)
}
