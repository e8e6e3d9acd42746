package dialect

import (
	"errors"
	"fmt"

	"github.com/roach88/dynir/internal/ir"
)

// SchemaErrorCode categorizes schema registration errors.
type SchemaErrorCode string

const (
	// ErrCodeDuplicateName indicates a schema name already used in the dialect.
	ErrCodeDuplicateName SchemaErrorCode = "DUPLICATE_NAME"

	// ErrCodeMalformedSchema indicates a structurally invalid declaration.
	ErrCodeMalformedSchema SchemaErrorCode = "MALFORMED_SCHEMA"

	// ErrCodeInconsistentFormat indicates a parse hook without a print hook
	// or the reverse.
	ErrCodeInconsistentFormat SchemaErrorCode = "INCONSISTENT_FORMAT"

	// ErrCodeTraitConflict indicates mutually exclusive traits on one op.
	ErrCodeTraitConflict SchemaErrorCode = "TRAIT_CONFLICT"

	// ErrCodeMissingSizeSpecifier indicates several variadic groups with no
	// size specifier trait.
	ErrCodeMissingSizeSpecifier SchemaErrorCode = "MISSING_SIZE_SPECIFIER"

	// ErrCodeUnknownTrait indicates a trait name the registry cannot resolve.
	ErrCodeUnknownTrait SchemaErrorCode = "UNKNOWN_TRAIT"

	// ErrCodeInvalidTrait indicates a trait factory rejected its arguments.
	ErrCodeInvalidTrait SchemaErrorCode = "INVALID_TRAIT"
)

// SchemaError reports a rejected declaration.
type SchemaError struct {
	Code    SchemaErrorCode
	Dialect string
	Schema  string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("%s: dialect %s: %s", e.Code, e.Dialect, e.Message)
	}
	return fmt.Sprintf("%s: %s.%s: %s", e.Code, e.Dialect, e.Schema, e.Message)
}

func schemaCode(err error) (SchemaErrorCode, bool) {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// IsDuplicateName returns true if err is a DUPLICATE_NAME schema error.
func IsDuplicateName(err error) bool {
	code, ok := schemaCode(err)
	return ok && code == ErrCodeDuplicateName
}

// IsMalformedSchema returns true if err is a MALFORMED_SCHEMA or
// INCONSISTENT_FORMAT schema error.
func IsMalformedSchema(err error) bool {
	code, ok := schemaCode(err)
	return ok && (code == ErrCodeMalformedSchema || code == ErrCodeInconsistentFormat)
}

// IsTraitConflict returns true if err is a TRAIT_CONFLICT schema error.
func IsTraitConflict(err error) bool {
	code, ok := schemaCode(err)
	return ok && code == ErrCodeTraitConflict
}

// IsMissingSizeSpecifier returns true if err is a MISSING_SIZE_SPECIFIER
// schema error.
func IsMissingSizeSpecifier(err error) bool {
	code, ok := schemaCode(err)
	return ok && code == ErrCodeMissingSizeSpecifier
}

// IsUnknownTrait returns true if err is an UNKNOWN_TRAIT schema error.
func IsUnknownTrait(err error) bool {
	code, ok := schemaCode(err)
	return ok && code == ErrCodeUnknownTrait
}

// ConstraintErrorCode categorizes instance construction failures.
type ConstraintErrorCode string

const (
	ErrCodeArity               ConstraintErrorCode = "ARITY"
	ErrCodeConstraintViolation ConstraintErrorCode = "CONSTRAINT_VIOLATION"
)

// ConstraintError reports parameters that do not satisfy a ParamSpec.
type ConstraintError struct {
	Code   ConstraintErrorCode
	Schema string
	Loc    ir.Location

	// Expected and Got are parameter counts for ARITY.
	Expected int
	Got      int

	// Position, Name and Reason locate a CONSTRAINT_VIOLATION.
	Position int
	Name     string
	Reason   string
}

func (e *ConstraintError) Error() string {
	var msg string
	if e.Code == ErrCodeArity {
		msg = fmt.Sprintf("%s: %s expects %d parameters, got %d", e.Code, e.Schema, e.Expected, e.Got)
	} else {
		msg = fmt.Sprintf("%s: %s parameter #%d (%s) must satisfy %s", e.Code, e.Schema, e.Position, e.Name, e.Reason)
	}
	if e.Loc.IsValid() {
		return e.Loc.String() + ": " + msg
	}
	return msg
}

// IsArityError returns true if err is an ARITY constraint error.
func IsArityError(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Code == ErrCodeArity
}

// IsConstraintViolation returns true if err is a CONSTRAINT_VIOLATION.
func IsConstraintViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Code == ErrCodeConstraintViolation
}

// DiagnosticCode categorizes verification failures.
type DiagnosticCode string

const (
	DiagUnregisteredOp      DiagnosticCode = "UNREGISTERED_OP"
	DiagOperandCount        DiagnosticCode = "OPERAND_COUNT"
	DiagOperandType         DiagnosticCode = "OPERAND_TYPE"
	DiagResultCount         DiagnosticCode = "RESULT_COUNT"
	DiagResultType          DiagnosticCode = "RESULT_TYPE"
	DiagAttributeConstraint DiagnosticCode = "ATTRIBUTE_CONSTRAINT"
	DiagRegionCount         DiagnosticCode = "REGION_COUNT"
	DiagRegionConstraint    DiagnosticCode = "REGION_CONSTRAINT"
	DiagSuccessorCount      DiagnosticCode = "SUCCESSOR_COUNT"
	DiagTerminator          DiagnosticCode = "TERMINATOR"
	DiagIsolation           DiagnosticCode = "ISOLATION"
	DiagTraitFailed         DiagnosticCode = "TRAIT_FAILED"
)

// Diagnostic is a verification failure keyed by the op's location.
type Diagnostic struct {
	Code    DiagnosticCode
	Op      string
	Loc     ir.Location
	Message string

	// Subject names the failing trait for TRAIT_FAILED, or the attribute
	// for ATTRIBUTE_CONSTRAINT.
	Subject string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: '%s' op %s", d.Loc, d.Op, d.Message)
}

// DiagnosticCodeOf extracts the diagnostic code from err.
func DiagnosticCodeOf(err error) (DiagnosticCode, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Code, true
	}
	return "", false
}

// IsDiagnostic returns true if err is a Diagnostic with the given code.
func IsDiagnostic(err error, code DiagnosticCode) bool {
	c, ok := DiagnosticCodeOf(err)
	return ok && c == code
}
