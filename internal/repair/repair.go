package repair

import (
	"strings"

	"tex2img/internal/logger"
	"tex2img/internal/types"
)

// FixKind identifies a repair strategy. The engine tracks which kinds have
// been applied within one invocation so a blunt whole-document fix is never
// applied twice.
type FixKind int

const (
	// FixMathWrap wraps the whole document in $ delimiters.
	FixMathWrap FixKind = iota
	// FixIncludeBlock injects the canonical include block.
	FixIncludeBlock
	// FixIncludeSingle injects a single \usepackage for a named environment.
	FixIncludeSingle
)

// Repair produces a new document addressing the given fixable error class.
// firstRepair is true on the first repair since normalization. The input
// document is never mutated; a fresh string is returned along with the fix
// kind that was applied.
//
// Repair fails when the error class offers nothing to fix: a missing-include
// diagnostic naming an environment whose \usepackage is already present
// means the include-name heuristic guessed wrong, and retrying would loop.
func Repair(doc string, class ErrorClass, firstRepair bool) (string, FixKind, error) {
	switch class.Kind {
	case FixableMathMode:
		// The diagnostic says some math content is unwrapped. Wrapping the
		// entire document is blunt but safe exactly once; the engine
		// guarantees this kind is not applied a second time.
		logger.Debug("wrapping document in math delimiters")
		return "$" + doc + "$", FixMathWrap, nil

	case FixableMissingInclude:
		if firstRepair {
			// First repair after normalization: the fragment may have had
			// its own incomplete include set, so the canonical block was
			// never injected. Inject it now after the preamble anchor.
			if strings.Contains(doc, Includes) {
				// Normalization already injected the block; fall through to
				// the per-name include instead of duplicating it.
				return repairSingleInclude(doc, class.Name)
			}
			logger.Debug("injecting canonical include block",
				logger.String("environment", class.Name))
			fixed := strings.Replace(doc, BeginFile, BeginFile+"\n"+Includes+"\n", 1)
			return fixed, FixIncludeBlock, nil
		}

		if !strings.Contains(doc, Includes) {
			// An earlier repair of a different kind consumed firstRepair; the
			// block still comes before any per-name guess.
			logger.Debug("injecting canonical include block",
				logger.String("environment", class.Name))
			fixed := strings.Replace(doc, BeginFile, BeginFile+"\n"+Includes+"\n", 1)
			return fixed, FixIncludeBlock, nil
		}
		return repairSingleInclude(doc, class.Name)

	default:
		return "", 0, types.NewAppErrorWithDetails(types.ErrInternal,
			"repair called with non-fixable error class", class.Kind.String(), nil)
	}
}

// repairSingleInclude adds \usepackage{name} after the preamble anchor,
// hoping the missing environment's package shares its name. When that
// include is already present the guess has been tried and failed, so the
// repair is refused rather than looping on the same diagnostic.
func repairSingleInclude(doc string, name string) (string, FixKind, error) {
	include := `\usepackage{` + name + `}`
	if strings.Contains(doc, include) {
		logger.Warn("include already present, repair would loop",
			logger.String("environment", name))
		return "", 0, types.NewAppErrorWithDetails(types.ErrRepairExhausted,
			"environment remains undefined after including its package", name, nil)
	}

	logger.Debug("injecting single include", logger.String("package", name))
	fixed := strings.Replace(doc, BeginFile, BeginFile+"\n"+include+"\n", 1)
	return fixed, FixIncludeSingle, nil
}
