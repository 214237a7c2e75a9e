package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"paintbot/logging"
)

// fakeTranslator records calls and returns a canned response or error.
type fakeTranslator struct {
	calls    int
	received string
	locale   string
	response string
	err      error
}

func (f *fakeTranslator) Translate(_ context.Context, text, targetLocale string) (string, error) {
	f.calls++
	f.received = text
	f.locale = targetLocale
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestRewriteNoTranslatorIsNoop(t *testing.T) {
	a := NewAdapter(nil, "en", logging.NewTestLogger())
	in := "1girl, 白色连衣裙"
	if got := a.Rewrite(context.Background(), in); got != in {
		t.Errorf("Rewrite() = %q, want input unchanged", got)
	}
}

func TestRewriteNoCJKSkipsCall(t *testing.T) {
	ft := &fakeTranslator{response: "should not be used"}
	a := NewAdapter(ft, "en", logging.NewTestLogger())

	in := "masterpiece, 1girl"
	if got := a.Rewrite(context.Background(), in); got != in {
		t.Errorf("Rewrite() = %q, want input unchanged", got)
	}
	if ft.calls != 0 {
		t.Errorf("translator called %d times, want 0", ft.calls)
	}
}

func TestRewriteBatchesRunsInOneCall(t *testing.T) {
	ft := &fakeTranslator{response: "white dress\ndusk street"}
	a := NewAdapter(ft, "en", logging.NewTestLogger())

	got := a.Rewrite(context.Background(), "1girl, 白色连衣裙, solo, 黄昏的街道")

	if ft.calls != 1 {
		t.Fatalf("translator called %d times, want 1", ft.calls)
	}
	if want := "白色连衣裙" + RunDelimiter + "黄昏的街道"; ft.received != want {
		t.Errorf("translator received %q, want %q", ft.received, want)
	}
	if want := "1girl, white dress, solo, dusk street"; got != want {
		t.Errorf("Rewrite() = %q, want %q", got, want)
	}
	if ft.locale != "en" {
		t.Errorf("target locale = %q, want %q", ft.locale, "en")
	}
}

func TestRewriteErrorKeepsOriginal(t *testing.T) {
	ft := &fakeTranslator{err: errors.New("upstream 503")}
	a := NewAdapter(ft, "en", logging.NewTestLogger())

	in := "1girl, 白色连衣裙"
	if got := a.Rewrite(context.Background(), in); got != in {
		t.Errorf("Rewrite() = %q, want original on error", got)
	}
}

func TestRewriteLineCountMismatchKeepsOriginal(t *testing.T) {
	// Two runs in, one line back: splice positions are unknowable.
	ft := &fakeTranslator{response: "one line only"}
	a := NewAdapter(ft, "en", logging.NewTestLogger())

	in := "白色连衣裙, solo, 黄昏"
	if got := a.Rewrite(context.Background(), in); got != in {
		t.Errorf("Rewrite() = %q, want original on mismatch", got)
	}
}

func TestRewriteTrimsTranslatedLines(t *testing.T) {
	ft := &fakeTranslator{response: "  white dress  "}
	a := NewAdapter(ft, "en", logging.NewTestLogger())

	got := a.Rewrite(context.Background(), "1girl, 白色连衣裙")
	if strings.Contains(got, "  white dress") {
		t.Errorf("Rewrite() = %q, want trimmed splice", got)
	}
	if want := "1girl, white dress"; got != want {
		t.Errorf("Rewrite() = %q, want %q", got, want)
	}
}
