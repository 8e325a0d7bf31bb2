package repair

import "testing"

func TestClassifyFatal(t *testing.T) {
	tests := []struct {
		name    string
		errText string
		want    Kind
	}{
		{
			name:    "undefined control sequence",
			errText: `! Undefined control sequence. l.5 \blabla`,
			want:    FatalSyntax,
		},
		{
			name:    "lonely item",
			errText: `! LaTeX Error: Lonely \item--perhaps a missing list environment.`,
			want:    FatalSyntax,
		},
		{
			name:    "missing closing brace",
			errText: `! Missing } inserted.`,
			want:    FatalSyntax,
		},
		{
			name:    "missing opening brace",
			errText: `! Missing { inserted.`,
			want:    FatalSyntax,
		},
		{
			name:    "double subscript",
			errText: `! Double subscript. a_b_c`,
			want:    FatalSyntax,
		},
		{
			name:    "not in outer par mode",
			errText: `! LaTeX Error: Not in outer par mode.`,
			want:    FatalSyntax,
		},
		{
			name:    "extra alignment tab",
			errText: `! Extra alignment tab has been changed to \cr.`,
			want:    FatalSyntax,
		},
		{
			name:    "missing control sequence",
			errText: `! Missing \right. inserted.`,
			want:    FatalSyntax,
		},
		{
			name:    "environment ended by another",
			errText: `! LaTeX Error: \begin{table} on input line 3 ended by \end{document}.`,
			want:    FatalSyntax,
		},
		{
			name:    "misplaced noalign",
			errText: `! Misplaced \noalign. \noalign{\hrule}`,
			want:    FatalSyntax,
		},
		{
			name:    "command already defined",
			errText: `! LaTeX Error: Command \algorithmic already defined.`,
			want:    FatalConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.errText)
			if got.Kind != tt.want {
				t.Errorf("Classify(%q).Kind = %v, want %v", tt.errText, got.Kind, tt.want)
			}
		})
	}
}

// The fatal table must win over fixable patterns no matter what else the
// diagnostic contains.
func TestClassifyFatalPrecedence(t *testing.T) {
	tests := []string{
		`! Undefined control sequence. Missing $ inserted`,
		`Missing $ inserted ... ! Undefined control sequence`,
		`! Undefined control sequence. LaTeX Error: Environment tikzcd undefined.`,
		`! Double subscript. \alpha allowed only in math mode`,
	}

	for _, errText := range tests {
		got := Classify(errText)
		if got.Kind != FatalSyntax {
			t.Errorf("Classify(%q).Kind = %v, want FatalSyntax", errText, got.Kind)
		}
	}
}

func TestClassifyFixable(t *testing.T) {
	tests := []struct {
		name     string
		errText  string
		want     Kind
		wantName string
	}{
		{
			name:    "missing math delimiter",
			errText: `! Missing $ inserted.`,
			want:    FixableMathMode,
		},
		{
			name:    "allowed only in math mode",
			errText: `! \alpha allowed only in math mode.`,
			want:    FixableMathMode,
		},
		{
			name:     "environment undefined",
			errText:  `! LaTeX Error: Environment tikzpicture undefined.`,
			want:     FixableMissingInclude,
			wantName: "tikzpicture",
		},
		{
			name:     "environment name wrapped across log lines",
			errText:  "! LaTeX Error: Environment tabu\nlar undefined.",
			want:     FixableMissingInclude,
			wantName: "tabular",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.errText)
			if got.Kind != tt.want {
				t.Errorf("Classify(%q).Kind = %v, want %v", tt.errText, got.Kind, tt.want)
			}
			if got.Name != tt.wantName {
				t.Errorf("Classify(%q).Name = %q, want %q", tt.errText, got.Name, tt.wantName)
			}
		})
	}
}

func TestClassifyUnclassified(t *testing.T) {
	tests := []string{
		``,
		`! Package pgfplots Error: strange axis.`,
		`some unrelated failure`,
	}

	for _, errText := range tests {
		got := Classify(errText)
		if got.Kind != Unclassified {
			t.Errorf("Classify(%q).Kind = %v, want Unclassified", errText, got.Kind)
		}
	}
}

func TestKindFixable(t *testing.T) {
	if !FixableMathMode.Fixable() || !FixableMissingInclude.Fixable() {
		t.Error("fixable kinds must report Fixable")
	}
	if FatalSyntax.Fixable() || FatalConflict.Fixable() || Unclassified.Fixable() {
		t.Error("non-fixable kinds must not report Fixable")
	}
}
