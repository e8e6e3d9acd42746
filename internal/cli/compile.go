package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/dynir/internal/compiler"
	"github.com/roach88/dynir/internal/harness"
	"github.com/roach88/dynir/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// DialectSummary describes one registered dialect.
type DialectSummary struct {
	Name     string   `json:"name"`
	Hash     string   `json:"hash"`
	Types    int      `json:"types"`
	Attrs    int      `json:"attrs"`
	Ops      int      `json:"ops"`
	Rejected []string `json:"rejected,omitempty"`
	Inserted *bool    `json:"inserted,omitempty"` // set when catalogued
}

// CompilationResult is the output of a successful compile.
type CompilationResult struct {
	Files    int              `json:"files"`
	Dialects []DialectSummary `json:"dialects"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>...",
		Short: "Compile and register dialect declarations",
		Long: `Compile .dyn and .cue dialect declarations, validate them and
register them in a fresh context.

Ops rejected during registration are reported but do not fail the
command. With --db every declaration is catalogued by content hash.
With -o the declarations are written as JSON.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, paths []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger()

	loaded, loadErrs := LoadDecls(paths, LoadModeCollectAll)
	if loaded == nil {
		return outputCompileErrors(formatter, loadErrs)
	}
	formatter.VerboseLog("Found %d declaration file(s)", len(loaded.Files))
	if len(loadErrs) > 0 {
		return outputCompileErrors(formatter, loadErrs)
	}

	var errs []error
	for _, decl := range loaded.Decls {
		formatter.VerboseLog("Validating dialect: %s", decl.Name)
		for _, ve := range compiler.Validate(decl) {
			errs = append(errs, ve)
		}
	}
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	_, dialects, err := buildDialects(logger, loaded.Decls)
	if err != nil {
		return outputCompileErrors(formatter, []error{err})
	}

	result := CompilationResult{Files: len(loaded.Files)}
	for i, decl := range loaded.Decls {
		hash, err := decl.Hash()
		if err != nil {
			return outputCompileErrors(formatter, []error{err})
		}
		d := dialects[i]
		result.Dialects = append(result.Dialects, DialectSummary{
			Name:     d.Name(),
			Hash:     hash,
			Types:    len(d.Types()),
			Attrs:    len(d.Attrs()),
			Ops:      len(d.Ops()),
			Rejected: harness.RejectedSummary(d),
		})
	}

	if opts.DB != "" {
		if err := catalogDecls(ctx, opts.DB, loaded.Decls, result.Dialects, logger); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to catalog dialects", err)
		}
	}

	if opts.Output != "" {
		if err := writeDeclsToFile(loaded.Decls, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	return outputCompileSuccess(formatter, result, opts)
}

// catalogDecls writes decls to the catalog at dbPath and marks each
// summary with whether it was new.
func catalogDecls(ctx context.Context, dbPath string, decls []*compiler.DialectDecl, summaries []DialectSummary, logger *zap.Logger) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	for i, decl := range decls {
		rec, inserted, err := st.WriteDialect(ctx, decl)
		if err != nil {
			return err
		}
		summaries[i].Inserted = &inserted
		logger.Info("catalogued dialect",
			zap.String("dialect", rec.Name),
			zap.String("hash", rec.Hash),
			zap.Int64("seq", rec.Seq),
			zap.Bool("inserted", inserted))
	}
	return nil
}

func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, opts *CompileOptions) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d dialect(s) from %d file(s)\n\n", len(result.Dialects), result.Files)
	for _, d := range result.Dialects {
		fmt.Fprintf(w, "  %s: %d type(s), %d attr(s), %d op(s)  %s\n", d.Name, d.Types, d.Attrs, d.Ops, d.Hash[:12])
		for _, r := range d.Rejected {
			fmt.Fprintf(w, "    rejected %s\n", r)
		}
	}
	fmt.Fprintln(w)

	if opts.DB != "" {
		fmt.Fprintf(w, "Catalogued in %s\n", opts.DB)
	}
	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote declarations to %s\n", opts.Output)
	}
	return nil
}

// outputCompileErrors reports every error and fails with ExitCommandError.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := errorCode(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		code, message := errorCode(err)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeDeclsToFile writes decls as indented JSON.
func writeDeclsToFile(decls []*compiler.DialectDecl, filename string) error {
	data, err := json.MarshalIndent(decls, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling declarations: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
