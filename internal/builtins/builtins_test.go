package builtins

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/minilang/internal/value"
)

func newHost(input string) (*Host, *bytes.Buffer) {
	var out bytes.Buffer
	return &Host{Out: &out, In: bufio.NewReader(strings.NewReader(input))}, &out
}

func TestTableIndicesMatchDocumentedOrder(t *testing.T) {
	want := []string{"print", "println", "input", "len", "int", "str", "isinteger"}
	if len(Table) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(Table))
	}
	for i, name := range want {
		if Table[i].Name != name {
			t.Errorf("Table[%d].Name = %q, want %q", i, Table[i].Name, name)
		}
		if idx, ok := IndexOf(name); !ok || idx != i {
			t.Errorf("IndexOf(%q) = (%d, %v), want (%d, true)", name, idx, ok, i)
		}
	}
}

func TestIndexOfUnknownName(t *testing.T) {
	if _, ok := IndexOf("nope"); ok {
		t.Errorf("expected IndexOf to report an unknown built-in as not found")
	}
}

func TestPrintWritesDisplayFormWithoutNewline(t *testing.T) {
	h, out := newHost("")
	if _, err := biPrint(h, []value.Value{value.StringValue("hi")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "hi" {
		t.Errorf("expected %q, got %q", "hi", out.String())
	}
}

func TestPrintlnAppendsNewline(t *testing.T) {
	h, out := newHost("")
	if _, err := biPrintln(h, []value.Value{value.IntValue(5)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "5\n" {
		t.Errorf("expected %q, got %q", "5\n", out.String())
	}
}

func TestInputEchoesPromptAndReadsLine(t *testing.T) {
	h, out := newHost("world\n")
	got, err := biInput(h, []value.Value{value.StringValue("hello ")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "hello " {
		t.Errorf("expected prompt %q echoed, got %q", "hello ", out.String())
	}
	if got.Str != "world" {
		t.Errorf("expected %q, got %q", "world", got.Str)
	}
}

func TestInputAtEOFWithNoDataReturnsEmptyString(t *testing.T) {
	h, _ := newHost("")
	got, err := biInput(h, []value.Value{value.StringValue("")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Str != "" {
		t.Errorf("expected empty string at EOF, got %q", got.Str)
	}
}

func TestLenOnStringAndArray(t *testing.T) {
	h, _ := newHost("")
	got, err := biLen(h, []value.Value{value.StringValue("hello")})
	if err != nil || got.Int != 5 {
		t.Fatalf("expected 5, got %#v err=%v", got, err)
	}

	arr := value.ArrayValue(&value.ArrayVal{Elems: []value.Value{value.IntValue(1), value.IntValue(2)}})
	got, err = biLen(h, []value.Value{arr})
	if err != nil || got.Int != 2 {
		t.Fatalf("expected 2, got %#v err=%v", got, err)
	}
}

func TestLenOnUnsupportedTypeIsTypeError(t *testing.T) {
	h, _ := newHost("")
	_, err := biLen(h, []value.Value{value.IntValue(1)})
	opErr, ok := err.(*value.OpError)
	if !ok || opErr.Kind != "TypeError" {
		t.Fatalf("expected TypeError, got %v", err)
	}
}

func TestIntParsesSignedDecimalStrings(t *testing.T) {
	h, _ := newHost("")
	tests := []struct {
		in   string
		want int64
	}{
		{"42", 42},
		{"-7", -7},
		{"+3", 3},
	}
	for _, tt := range tests {
		got, err := biInt(h, []value.Value{value.StringValue(tt.in)})
		if err != nil || got.Int != tt.want {
			t.Errorf("int(%q) = %#v err=%v, want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestIntOnBoolean(t *testing.T) {
	h, _ := newHost("")
	got, err := biInt(h, []value.Value{value.BoolValue(true)})
	if err != nil || got.Int != 1 {
		t.Fatalf("expected 1, got %#v err=%v", got, err)
	}
	got, err = biInt(h, []value.Value{value.BoolValue(false)})
	if err != nil || got.Int != 0 {
		t.Fatalf("expected 0, got %#v err=%v", got, err)
	}
}

func TestIntOnMalformedStringIsValueError(t *testing.T) {
	h, _ := newHost("")
	_, err := biInt(h, []value.Value{value.StringValue("not a number")})
	opErr, ok := err.(*value.OpError)
	if !ok || opErr.Kind != "ValueError" {
		t.Fatalf("expected ValueError, got %v", err)
	}
}

func TestStrRendersDisplayForm(t *testing.T) {
	h, _ := newHost("")
	got, err := biStr(h, []value.Value{value.IntValue(42)})
	if err != nil || got.Str != "42" {
		t.Fatalf("expected %q, got %#v err=%v", "42", got, err)
	}
}

func TestIsIntegerOnStrings(t *testing.T) {
	h, _ := newHost("")
	tests := []struct {
		in   string
		want bool
	}{
		{"42", true},
		{"-7", true},
		{"not a number", false},
		{"4.2", false},
	}
	for _, tt := range tests {
		got, err := biIsInteger(h, []value.Value{value.StringValue(tt.in)})
		if err != nil || got.Bool != tt.want {
			t.Errorf("isinteger(%q) = %#v err=%v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestIsIntegerOnNonStringIsTypeError(t *testing.T) {
	h, _ := newHost("")
	_, err := biIsInteger(h, []value.Value{value.IntValue(1)})
	opErr, ok := err.(*value.OpError)
	if !ok || opErr.Kind != "TypeError" {
		t.Fatalf("expected TypeError, got %v", err)
	}
}
