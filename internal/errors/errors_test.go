package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CategoryConfig, SeverityFatal, "bad option")
	if got := err.Error(); got != "config (fatal): bad option" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Wrap(errors.New("boom"), CategoryBundler, SeverityFatal, "bundler failed")
	if got := wrapped.Error(); !strings.Contains(got, "boom") {
		t.Errorf("wrapped Error() = %q, want cause included", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := BundlerError(cause, "bundler failed")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	var spe *SitePressError
	if !errors.As(error(err), &spe) {
		t.Fatal("errors.As should match *SitePressError")
	}
	if spe.Category != CategoryBundler {
		t.Errorf("category = %q", spe.Category)
	}
}

func TestWithContext(t *testing.T) {
	err := ConfigError("bad baseURL").WithContext("value", "ftp://x")
	if err.Context["value"] != "ftp://x" {
		t.Errorf("context = %v", err.Context)
	}
}

func TestIsCategory(t *testing.T) {
	if !IsCategory(ConfigError("x"), CategoryConfig) {
		t.Error("IsCategory should match")
	}
	if IsCategory(errors.New("plain"), CategoryConfig) {
		t.Error("plain errors have no category")
	}
	if got := GetCategory(errors.New("plain")); got != CategoryInternal {
		t.Errorf("GetCategory fallback = %q", got)
	}
}
