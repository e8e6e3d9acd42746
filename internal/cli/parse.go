package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/dialect"
	"github.com/roach88/dynir/internal/harness"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Types []string
	Attrs []string
}

// ParseResult is the outcome of parsing one input.
type ParseResult struct {
	Kind    string `json:"kind"` // "type" or "attr"
	Input   string `json:"input"`
	Output  string `json:"output,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the input parsed.
func (r ParseResult) OK() bool { return r.Code == "" }

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse [path]... --type <text> --attr <text>",
		Short: "Parse and print types and attributes",
		Long: `Parse types and attributes against the builtin dialect and any
declarations given, then print them back in canonical form.

Examples:
  dynir parse --type '(i32, index) -> f32'
  dynir parse ./dialects --type '!toy.box<i32, 4>' --attr '#toy.tag<"x">'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Types, "type", "t", nil, "type to parse (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Attrs, "attr", "a", nil, "attribute to parse (repeatable)")

	return cmd
}

func runParse(opts *ParseOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if len(opts.Types) == 0 && len(opts.Attrs) == 0 {
		_ = formatter.Error(ErrCodeGeneric, "nothing to parse: give --type or --attr", nil)
		return NewExitError(ExitCommandError, "nothing to parse")
	}

	ctx, err := loadContext(opts.RootOptions, paths)
	if err != nil {
		code, message := errorCode(err)
		_ = formatter.Error(code, message, nil)
		return WrapExitError(ExitCommandError, "failed to load dialects", err)
	}

	var results []ParseResult
	for _, src := range opts.Types {
		results = append(results, parseType(ctx, src))
	}
	for _, src := range opts.Attrs {
		results = append(results, parseAttr(ctx, src))
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: results}
		if failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_PARSE_FAILED", Message: fmt.Sprintf("%d input(s) failed", failed)}
		}
		if err := formatter.Encode(resp); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.OK() {
				fmt.Fprintf(formatter.Writer, "✓ %s %s\n", r.Kind, r.Output)
			} else {
				fmt.Fprintf(formatter.Writer, "✗ %s %s\n  %s: %s\n", r.Kind, r.Input, r.Code, r.Message)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d input(s) failed to parse", failed))
	}
	return nil
}

func parseType(ctx *dialect.Context, src string) ParseResult {
	r := ParseResult{Kind: "type", Input: src}
	t, err := ctx.ParseType(src)
	if err != nil {
		r.Code, r.Message = harness.Outcome(err)
		return r
	}
	r.Output = asm.TypeString(t)
	return r
}

func parseAttr(ctx *dialect.Context, src string) ParseResult {
	r := ParseResult{Kind: "attr", Input: src}
	a, err := ctx.ParseAttr(src)
	if err != nil {
		r.Code, r.Message = harness.Outcome(err)
		return r
	}
	r.Output = asm.AttrString(a)
	return r
}
