package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/dynir/internal/compiler"
	"github.com/roach88/dynir/internal/dialect"
)

// LineReader is the prompt the REPL reads from. *liner.State implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

const replHelp = `Commands:
  :type <text>     parse a type and print it back
  :attr <text>     parse an attribute and print it back
  :load <path>     load declarations from a file or directory
  :dialects        list registered dialects
  :ops <dialect>   list the ops of a dialect
  :traits          list the traits ops may name
  :help            show this help
  :quit            leave
Other input is parsed as a type, or as an attribute if that fails.`

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl [path]...",
		Short: "Interactively parse types and attributes",
		Long: `Start an interactive session with the given declarations loaded.

` + replHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := loadContext(rootOpts, args)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load dialects", err)
			}
			lin := liner.NewLiner()
			defer lin.Close()
			lin.SetCtrlCAborts(true)
			return NewREPL(ctx, cmd.OutOrStdout(), rootOpts.Logger()).Loop(lin)
		},
	}
}

// REPL evaluates lines against a dialect context.
type REPL struct {
	ctx    *dialect.Context
	out    io.Writer
	logger *zap.Logger
}

// NewREPL creates a REPL writing to out.
func NewREPL(ctx *dialect.Context, out io.Writer, logger *zap.Logger) *REPL {
	return &REPL{ctx: ctx, out: out, logger: logger}
}

// Loop reads lines until EOF, an aborted prompt or :quit.
func (r *REPL) Loop(in LineReader) error {
	for {
		line, err := in.Prompt("dynir> ")
		if err != nil {
			if err == io.EOF || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("reading prompt: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		in.AppendHistory(line)
		if r.Eval(line) {
			return nil
		}
	}
}

// Eval runs one line and reports whether the session should end.
func (r *REPL) Eval(line string) (quit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(r.out, replHelp)
	case ":type":
		r.print(parseType(r.ctx, arg))
	case ":attr":
		r.print(parseAttr(r.ctx, arg))
	case ":load":
		r.load(arg)
	case ":dialects":
		r.listDialects()
	case ":ops":
		r.listOps(arg)
	case ":traits":
		fmt.Fprintln(r.out, strings.Join(r.ctx.Traits().Names(), " "))
	default:
		if strings.HasPrefix(cmd, ":") {
			fmt.Fprintf(r.out, "unknown command %s (try :help)\n", cmd)
			return false
		}
		res := parseType(r.ctx, line)
		if !res.OK() {
			if attr := parseAttr(r.ctx, line); attr.OK() {
				res = attr
			}
		}
		r.print(res)
	}
	return false
}

func (r *REPL) print(res ParseResult) {
	if res.OK() {
		fmt.Fprintf(r.out, "%s: %s\n", res.Kind, res.Output)
		return
	}
	fmt.Fprintf(r.out, "error %s: %s\n", res.Code, res.Message)
}

func (r *REPL) load(path string) {
	if path == "" {
		fmt.Fprintln(r.out, "usage: :load <path>")
		return
	}
	loaded, errs := LoadDecls([]string{path}, LoadModeFailFast)
	if len(errs) > 0 {
		fmt.Fprintf(r.out, "error %v\n", errs[0])
		return
	}
	dialects, err := compiler.BuildAll(r.ctx, loaded.Decls, compiler.Options{})
	if err != nil {
		fmt.Fprintf(r.out, "error %v\n", err)
		return
	}
	for _, d := range dialects {
		r.logger.Debug("loaded dialect", zap.String("dialect", d.Name()), zap.String("path", path))
		fmt.Fprintf(r.out, "loaded %s (%d op(s))\n", d.Name(), len(d.Ops()))
	}
}

func (r *REPL) listDialects() {
	dialects := r.ctx.Dialects()
	if len(dialects) == 0 {
		fmt.Fprintln(r.out, "no dialects loaded")
		return
	}
	for _, d := range dialects {
		fmt.Fprintf(r.out, "%s: %d type(s), %d attr(s), %d op(s)\n",
			d.Name(), len(d.Types()), len(d.Attrs()), len(d.Ops()))
	}
}

func (r *REPL) listOps(name string) {
	d, ok := r.ctx.Dialect(name)
	if !ok {
		fmt.Fprintf(r.out, "unknown dialect %q\n", name)
		return
	}
	for _, op := range d.Ops() {
		fmt.Fprintln(r.out, op.String())
	}
}
