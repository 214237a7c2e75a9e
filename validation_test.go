package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"paintbot/core"
)

func testConfig(t *testing.T, endpoint string) core.Config {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestRunStartupValidationPasses(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	var out bytes.Buffer
	if !runStartupValidation(testConfig(t, backend.URL), &out) {
		t.Fatalf("validation failed:\n%s", out.String())
	}
}

func TestRunStartupValidationFailsOnBadConfig(t *testing.T) {
	cfg := testConfig(t, "")

	var out bytes.Buffer
	if runStartupValidation(cfg, &out) {
		t.Fatal("validation passed without an endpoint")
	}
}

func TestRunStartupValidationUnreachableBackendIsWarning(t *testing.T) {
	// A dead backend must not block startup; only a warning is printed.
	cfg := testConfig(t, "http://127.0.0.1:1/sdapi/v1/txt2img")

	var out bytes.Buffer
	if !runStartupValidation(cfg, &out) {
		t.Fatalf("validation failed for unreachable backend:\n%s", out.String())
	}
}
