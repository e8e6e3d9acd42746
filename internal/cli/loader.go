package cli

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/compiler"
	"github.com/roach88/dynir/internal/dialect"
	"github.com/roach88/dynir/internal/ir"
)

// LoadMode controls how errors are handled while loading declarations.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll loads every file and collects all errors.
	LoadModeCollectAll
)

// LoadResult contains the declarations found under the loaded paths.
type LoadResult struct {
	Decls []*compiler.DialectDecl
	Files []string
}

// LoadError is a loading failure with its source location, if known.
type LoadError struct {
	Code    string
	Message string
	Loc     ir.Location
}

func (e *LoadError) Error() string {
	if e.Loc.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Loc, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes shared by all commands. Declaration validation codes
// (E100-E109) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no declaration files found
	ErrCodeLoadFailed  = "E004" // declaration does not parse
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // dialect registration failed
	ErrCodeWriteFailed = "E007" // file write error
	ErrCodeStore       = "E008" // catalog database error
)

// LoadDecls loads every declaration file named by paths. Directories are
// walked for .dyn and .cue files. A nil result means nothing could be
// scanned; otherwise the result holds whatever loaded cleanly.
func LoadDecls(paths []string, mode LoadMode) (*LoadResult, []error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := compiler.FindDeclFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no declaration files found in %v", paths)}}
	}

	result := &LoadResult{Files: files}
	var errs []error
	for _, file := range files {
		decls, err := compiler.LoadFile(file)
		if err != nil {
			errs = append(errs, convertLoadError(err))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Decls = append(result.Decls, decls...)
	}
	return result, errs
}

// convertLoadError maps a compiler error to a LoadError with position info.
func convertLoadError(err error) *LoadError {
	var pe *asm.ParseError
	if errors.As(err, &pe) {
		return &LoadError{Code: ErrCodeLoadFailed, Message: pe.Message, Loc: pe.Loc}
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		loc := ir.Location{}
		if ce.Pos.IsValid() {
			loc = ir.Location{File: ce.Pos.Filename(), Line: ce.Pos.Line(), Col: ce.Pos.Column()}
		}
		return &LoadError{Code: ErrCodeLoadFailed, Message: ce.Field + ": " + ce.Message, Loc: loc}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// errorCode returns the code and message reported for err.
func errorCode(err error) (string, string) {
	var le *LoadError
	if errors.As(err, &le) {
		if le.Loc.IsValid() {
			return le.Code, le.Loc.String() + ": " + le.Message
		}
		return le.Code, le.Message
	}
	var ve compiler.ValidationError
	if errors.As(err, &ve) {
		return ve.Code, ve.Field + ": " + ve.Message
	}
	return ErrCodeGeneric, err.Error()
}

// buildDialects registers decls in a fresh context.
func buildDialects(logger *zap.Logger, decls []*compiler.DialectDecl) (*dialect.Context, []*dialect.Dialect, error) {
	ctx := dialect.NewContext(dialect.WithLogger(logger))
	dialects, err := compiler.BuildAll(ctx, decls, compiler.Options{})
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
	}
	return ctx, dialects, nil
}

// loadContext loads paths plus the configured dialect paths into a fresh
// context. With no paths the context holds only the builtins.
func loadContext(opts *RootOptions, paths []string) (*dialect.Context, error) {
	all := append(append([]string{}, paths...), opts.Dialects...)
	if len(all) == 0 {
		return dialect.NewContext(dialect.WithLogger(opts.Logger())), nil
	}
	loaded, errs := LoadDecls(all, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	ctx, _, err := buildDialects(opts.Logger(), loaded.Decls)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}
