package errors

import (
	"bytes"
	stderrors "errors"
	"io"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "builder error",
			code:    "F101",
			wantMsg: "Attribute added outside an open element or component",
			wantCat: CategoryBuilder,
		},
		{
			name:    "traversal error",
			code:    "F150",
			wantMsg: "Subtree is still open",
			wantCat: CategoryTraversal,
		},
		{
			name:    "layout error",
			code:    "F201",
			wantMsg: "Frame image truncated",
			wantCat: CategoryLayout,
		},
		{
			name:    "config error",
			code:    "F301",
			wantMsg: "Configuration file not found",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "F999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "tree.yaml")
	if err.Message != `file "tree.yaml" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `file "tree.yaml" not found`)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"code only", New("F103"), "F103: Subtree left open at build time"},
		{"no code", &Error{Message: "test error"}, "test error"},
		{"with detail", New("F102").WithDetail("stack empty"), "F102: Close without a matching open frame (stack empty)"},
		{"wrapped", New("F302").Wrap(io.ErrUnexpectedEOF), "F302: Invalid configuration file: unexpected EOF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrapAndIs(t *testing.T) {
	err := New("F201").Wrap(io.ErrUnexpectedEOF)

	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is(err, io.ErrUnexpectedEOF) = false, want true")
	}
	if !stderrors.Is(err, New("F201")) {
		t.Error("errors.Is(err, F201) = false, want true")
	}
	if stderrors.Is(err, New("F202")) {
		t.Error("errors.Is(err, F202) = true, want false")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "F302") != nil {
		t.Error("FromError(nil) should return nil")
	}

	wrapped := FromError(io.EOF, "F302")
	if wrapped.Code != "F302" || wrapped.Wrapped != io.EOF {
		t.Errorf("FromError = %+v", wrapped)
	}

	orig := New("F101")
	if got := FromError(orig, "F302"); got != orig {
		t.Error("FromError should return existing *Error unchanged")
	}
}

func TestCode(t *testing.T) {
	if got := Code(New("F105")); got != "F105" {
		t.Errorf("Code() = %q, want F105", got)
	}
	if got := Code(io.EOF); got != "" {
		t.Errorf("Code(io.EOF) = %q, want empty", got)
	}
}

func TestLookup(t *testing.T) {
	tmpl, ok := Lookup("F203")
	if !ok {
		t.Fatal("Lookup(F203) not found")
	}
	if tmpl.Category != CategoryLayout {
		t.Errorf("Category = %q, want layout", tmpl.Category)
	}
	if _, ok := Lookup("F000"); ok {
		t.Error("Lookup(F000) found, want missing")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("F101").
		WithDetail(`attribute "class" follows a text frame`).
		Wrap(io.EOF)

	out := err.Format()
	for _, want := range []string{
		"ERROR F101: Attribute added outside an open element or component",
		`attribute "class" follows a text frame`,
		"Cause: EOF",
		"Hint: Add attributes immediately after OpenElement",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	if got := New("F150").FormatCompact(); got != "F150: Subtree is still open" {
		t.Errorf("FormatCompact() = %q", got)
	}
	if got := (&Error{Message: "plain"}).FormatCompact(); got != "plain" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, io.EOF)
	if !strings.Contains(buf.String(), "ERROR: EOF") {
		t.Errorf("Fprint(io.EOF) = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
}
