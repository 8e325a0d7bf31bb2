package encoding

import (
	"os"
	"path/filepath"
	"testing"

	"tex2img/internal/types"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain ascii", []byte(`\frac{a}{b}`), UTF8},
		{"utf8 multibyte", []byte("数学 $x$"), UTF8},
		{"utf8 bom", []byte{0xEF, 0xBB, 0xBF, 'x'}, UTF8BOM},
		{"utf16 le bom", []byte{0xFF, 0xFE, 'x', 0x00}, UTF16LE},
		{"utf16 be bom", []byte{0xFE, 0xFF, 0x00, 'x'}, UTF16BE},
		{"gbk", []byte{0xCA, 0xFD, 0xD1, 0xA7}, GBK},
		{"empty", nil, UTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.data); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8 passthrough", []byte("$x^2$"), "$x^2$"},
		{"bom stripped", []byte{0xEF, 0xBB, 0xBF, '$', 'x', '$'}, "$x$"},
		{"utf16 le", []byte{0xFF, 0xFE, '$', 0x00, 'x', 0x00, '$', 0x00}, "$x$"},
		{"utf16 be", []byte{0xFE, 0xFF, 0x00, '$', 0x00, 'x', 0x00, '$'}, "$x$"},
		{"gbk", []byte{0xCA, 0xFD, 0xD1, 0xA7}, "数学"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fragment.tex")
	if err := os.WriteFile(path, []byte(`\frac{1}{2}`), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got != `\frac{1}{2}` {
		t.Errorf("ReadFile() = %q", got)
	}
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.tex"))
	if types.CodeOf(err) != types.ErrFileNotFound {
		t.Errorf("error code = %v, want ErrFileNotFound", types.CodeOf(err))
	}
}
