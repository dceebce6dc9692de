package interactive

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrompterResponses(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   Response
		want  Response
	}{
		{name: "yes", input: "y\n", def: ResponseNo, want: ResponseYes},
		{name: "yes long", input: "YES\n", def: ResponseNo, want: ResponseYes},
		{name: "no", input: "n\n", def: ResponseYes, want: ResponseNo},
		{name: "quit", input: "q\n", def: ResponseYes, want: ResponseQuit},
		{name: "empty uses default yes", input: "\n", def: ResponseYes, want: ResponseYes},
		{name: "empty uses default no", input: "\n", def: ResponseNo, want: ResponseNo},
		{name: "eof quits", input: "", def: ResponseYes, want: ResponseQuit},
		{name: "invalid is no", input: "maybe\n", def: ResponseYes, want: ResponseNo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &bytes.Buffer{}
			p := NewPrompterWithIO(strings.NewReader(tt.input), output)

			if got := p.prompt(tt.def, "Test prompt?"); got != tt.want {
				t.Errorf("prompt() = %v, want %v", got, tt.want)
			}
			if !strings.HasPrefix(output.String(), "Test prompt?") {
				t.Errorf("prompt not written: %q", output.String())
			}
		})
	}
}

func TestPromptShowsDefault(t *testing.T) {
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(strings.NewReader("\n"), output)
	p.prompt(ResponseYes, "Continue?")

	if !strings.Contains(output.String(), "[Y/n/q]") {
		t.Errorf("expected default marker in %q", output.String())
	}
}

func TestOfferBundle(t *testing.T) {
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(strings.NewReader("y\n"), output)

	if got := p.OfferBundle("Opera"); got != ResponseYes {
		t.Errorf("OfferBundle() = %v, want yes", got)
	}
	if !strings.Contains(output.String(), "Install Opera?") {
		t.Errorf("output = %q", output.String())
	}
}

func TestOfferBundleDefaultsToNo(t *testing.T) {
	p := NewPrompterWithIO(strings.NewReader("\n"), &bytes.Buffer{})
	if got := p.OfferBundle("Opera"); got != ResponseNo {
		t.Errorf("OfferBundle() = %v, want no", got)
	}
}

func TestConfirm(t *testing.T) {
	if !NewPrompterWithIO(strings.NewReader("yes\n"), &bytes.Buffer{}).Confirm("Sure?") {
		t.Error("Confirm() should accept yes")
	}
	if NewPrompterWithIO(strings.NewReader("q\n"), &bytes.Buffer{}).Confirm("Sure?") {
		t.Error("Confirm() should treat quit as no")
	}
}

func TestResponseString(t *testing.T) {
	if ResponseQuit.String() != "quit" || Response(9).String() != "Response(9)" {
		t.Error("unexpected Response strings")
	}
}
