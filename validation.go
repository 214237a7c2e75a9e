package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"paintbot/core"
	"paintbot/db"
)

// stepStatus is the outcome of one startup validation step.
type stepStatus int

const (
	stepPassed stepStatus = iota
	stepFailed
	stepWarning
)

// validationStep is one named startup check with its result.
type validationStep struct {
	Name    string
	Status  stepStatus
	Message string
	Err     error
}

// runStartupValidation checks the configuration and local resources before
// the daemon starts, printing one colored line per step. Warnings (an
// unreachable backend, missing translator credentials) do not block
// startup; failures do.
func runStartupValidation(cfg core.Config, out io.Writer) bool {
	headerColor := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(out)
	headerColor.Fprintln(out, "━━━ paintbot startup validation ━━━")
	fmt.Fprintln(out)

	steps := []validationStep{
		checkConfiguration(cfg),
		checkDataDirectory(cfg.DataDir),
		checkDatabase(cfg.DataDir),
		checkBackendReachable(cfg),
		checkTranslatorCredentials(cfg),
	}

	ok := true
	for _, step := range steps {
		printStep(out, step)
		if step.Status == stepFailed {
			ok = false
		}
	}

	fmt.Fprintln(out)
	if ok {
		color.New(color.FgGreen).Fprintln(out, "Validation passed")
	} else {
		color.New(color.FgRed).Fprintln(out, "Validation failed")
	}
	fmt.Fprintln(out)
	return ok
}

func printStep(out io.Writer, step validationStep) {
	var icon string
	var clr *color.Color
	switch step.Status {
	case stepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case stepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	default:
		icon = "✗"
		clr = color.New(color.FgRed)
	}

	clr.Fprintf(out, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(out, " - %s", step.Message)
	}
	fmt.Fprintln(out)
	if step.Status == stepFailed && step.Err != nil {
		color.New(color.FgRed).Fprintf(out, "    └─ %s\n", step.Err.Error())
	}
}

func checkConfiguration(cfg core.Config) validationStep {
	step := validationStep{Name: "Configuration"}
	if err := cfg.Validate(); err != nil {
		step.Status = stepFailed
		step.Err = err
		return step
	}
	step.Message = cfg.Endpoint
	return step
}

func checkDataDirectory(dir string) validationStep {
	step := validationStep{Name: "Data Directory", Message: dir}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		step.Status = stepFailed
		step.Err = err
		return step
	}
	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		step.Status = stepFailed
		step.Err = fmt.Errorf("directory not writable: %w", err)
		return step
	}
	os.Remove(probe)
	return step
}

func checkDatabase(dir string) validationStep {
	step := validationStep{Name: "Database"}
	conn, err := db.Open(db.DefaultConnectionConfig(filepath.Join(dir, "paintbot.db")))
	if err != nil {
		step.Status = stepFailed
		step.Err = err
		return step
	}
	defer conn.Close()
	if err := conn.Ping(); err != nil {
		step.Status = stepFailed
		step.Err = err
		return step
	}
	return step
}

// checkBackendReachable probes the generation endpoint. The backend may
// legitimately be down at startup, so an unreachable endpoint is a warning.
func checkBackendReachable(cfg core.Config) validationStep {
	step := validationStep{Name: "Backend Connectivity"}
	client := &http.Client{Timeout: 5 * time.Second}
	start := time.Now()
	resp, err := client.Head(cfg.Endpoint)
	if err != nil {
		step.Status = stepWarning
		step.Message = fmt.Sprintf("unreachable: %v", err)
		return step
	}
	resp.Body.Close()
	step.Message = fmt.Sprintf("latency %v", time.Since(start).Round(time.Millisecond))
	return step
}

func checkTranslatorCredentials(cfg core.Config) validationStep {
	step := validationStep{Name: "Translator Credentials"}
	if !cfg.Translator {
		step.Message = "translator disabled"
		return step
	}
	if os.Getenv("OPENAI_API_KEY") == "" {
		step.Status = stepWarning
		step.Message = "OPENAI_API_KEY not set; translation will be disabled"
	}
	return step
}
