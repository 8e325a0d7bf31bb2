// Package repair turns an arbitrary, possibly malformed LaTeX fragment into
// a rendered image: it normalizes the fragment into a compilable document,
// classifies compiler failures, applies bounded automatic repairs, and hands
// the compiled result to the rasterizer.
package repair

import (
	"regexp"
	"strings"
)

// Canonical document delimiters. BeginFile doubles as the preamble anchor:
// normalization rewrites any caller-supplied \documentclass to this exact
// string so later include injection has a single known insertion point.
const (
	BeginFile     = `\documentclass{article}`
	BeginDocument = `\begin{document}`
	EndDocument   = `\end{document}`
)

// Includes is the canonical include block injected when a fragment declares
// no packages of its own. The set mirrors what generated markup most often
// relies on: math, graphics, algorithms, listings and the TikZ family.
const Includes = `
\usepackage{amsmath,amssymb,amsfonts}
\usepackage{graphicx}
\usepackage{graphicx}
\usepackage{amsmath}
\usepackage{xcolor}
\usepackage{algorithm}
\usepackage{algorithmicx}
\usepackage{algpseudocode}
\usepackage{listings}
\usepackage{stfloats}
\usepackage{epstopdf}
\usepackage{pgfplots}
\usepackage{tikz}
\usepackage{tikz-cd}
\usepackage{tikz-qtree}
\usepackage{tikz-dependency}
\usepackage{tikz-3dplot}
\usepackage{tikz-network}
`

var (
	documentClassRe = regexp.MustCompile(`\\documentclass\{([^}]*)\}`)
	usePackageRe    = regexp.MustCompile(`\\usepackage\{.*\}`)
)

// Normalize wraps a markup fragment into a complete, minimally valid
// document. It is a pure transformation and cannot break a fragment that
// already compiles: includes are only injected when none are present, and
// the caller's document class is replaced with the canonical one so that a
// single preamble anchor exists. Normalizing an already complete document
// is idempotent.
func Normalize(fragment string) string {
	doc := fragment

	// Wrap bare fragments in begin/end document markers.
	if !strings.Contains(doc, BeginDocument) && !strings.Contains(doc, BeginFile) {
		doc = BeginDocument + doc
	}
	if !strings.Contains(doc, EndDocument) {
		doc = doc + EndDocument
	}

	// Replace any existing \documentclass with the canonical preamble
	// anchor, discarding the caller's class argument.
	if m := documentClassRe.FindStringSubmatch(doc); m != nil {
		doc = strings.Replace(doc, `\documentclass{`+m[1]+`}`, BeginFile, 1)
	} else {
		doc = BeginFile + "\n\n" + doc
	}

	// Inject the canonical include set only when the fragment declares no
	// packages at all; injecting alongside existing declarations risks
	// duplicate definitions.
	if !usePackageRe.MatchString(doc) {
		doc = strings.Replace(doc, BeginFile, BeginFile+"\n"+Includes+"\n", 1)
	}

	return doc
}
