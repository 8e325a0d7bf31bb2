package repair

import (
	"regexp"
	"strings"
)

// Kind is the classification of a compiler failure.
type Kind int

const (
	// Unclassified means no known repair applies; the failure is terminal.
	Unclassified Kind = iota
	// FatalSyntax marks a generation defect in the input markup itself
	// (unbalanced braces, undefined control sequences, ...). Never repaired.
	FatalSyntax
	// FatalConflict marks a duplicate-definition conflict between packages.
	// Never repaired: resolving it would require finding the conflicting pair.
	FatalConflict
	// FixableMathMode means math content is missing its $ delimiters.
	FixableMathMode
	// FixableMissingInclude means an environment is undefined, most likely
	// because its providing package is not included.
	FixableMissingInclude
)

func (k Kind) String() string {
	switch k {
	case FatalSyntax:
		return "fatal-syntax"
	case FatalConflict:
		return "fatal-conflict"
	case FixableMathMode:
		return "fixable-math-mode"
	case FixableMissingInclude:
		return "fixable-missing-include"
	default:
		return "unclassified"
	}
}

// Fixable reports whether the kind has an automatic repair.
func (k Kind) Fixable() bool {
	return k == FixableMathMode || k == FixableMissingInclude
}

// ErrorClass is the result of classifying a compiler diagnostic. Name is
// set only for FixableMissingInclude and holds the undefined environment.
type ErrorClass struct {
	Kind Kind
	Name string
}

// fatalPatterns are literal substrings of compiler diagnostics that indicate
// a non-recoverable defect in the input. Checked before any fixable pattern:
// some fatal conditions superficially resemble fixable ones ("Missing \"
// versus "Missing $ inserted"), so this precedence must hold.
//
// Descriptions follow https://www.overleaf.com/learn/latex/Errors.
var fatalPatterns = []struct {
	substr string
	kind   Kind
}{
	// An undefined control sequence, e.g. \blabla.
	{`Undefined control sequence`, FatalSyntax},
	// A list entry without its \item command, or a list misused in a table.
	{`LaTeX Error: Lonely \item--perhaps a missing list environment.`, FatalSyntax},
	// A { or } is missing, e.g. \sum_{i=1 ^n.
	{`Missing } inserted`, FatalSyntax},
	{`Missing { inserted`, FatalSyntax},
	// A double subscript, e.g. a_b_c.
	{`Double subscript.`, FatalSyntax},
	// An environment or $ wrapped around something the mode cannot typeset,
	// e.g. a table inside $...$.
	{`LaTeX Error: Not in outer par mode.`, FatalSyntax},
	// An alignment character & outside a table cell.
	{`Extra alignment tab has been changed to \cr.`, FatalSyntax},
	// A missing control sequence other than $ (handled separately),
	// e.g. \left( without its closing \right.
	{`Missing \`, FatalSyntax},
	// \begin{<env>} ended by \end{<other>}: an improperly closed environment.
	{`LaTeX Error: \begin{`, FatalSyntax},
	// A \noalign command in the wrong place inside a tabular.
	{`Misplaced \noalign`, FatalSyntax},
	// Command <cmd> already defined: two packages define the same command.
	{` already defined.`, FatalConflict},
}

// environmentUndefinedRe captures the name of an undefined environment from
// "LaTeX Error: Environment <env> undefined."
var environmentUndefinedRe = regexp.MustCompile(`LaTeX Error: Environment (.+?) undefined`)

// Classify maps a raw compiler diagnostic to an ErrorClass. Every pattern
// is single-line, so newlines are collapsed before matching even when the
// caller already did.
//
// The fatal table is consulted first, then the math-mode patterns, then the
// undefined-environment pattern. Anything else is Unclassified.
func Classify(errText string) ErrorClass {
	text := strings.ReplaceAll(strings.ReplaceAll(errText, "\r", ""), "\n", "")

	for _, p := range fatalPatterns {
		if strings.Contains(text, p.substr) {
			return ErrorClass{Kind: p.kind}
		}
	}

	if strings.Contains(text, "Missing $ inserted") || strings.Contains(text, " allowed only in math mode") {
		return ErrorClass{Kind: FixableMathMode}
	}

	if m := environmentUndefinedRe.FindStringSubmatch(text); m != nil {
		return ErrorClass{Kind: FixableMissingInclude, Name: m[1]}
	}

	return ErrorClass{Kind: Unclassified}
}
