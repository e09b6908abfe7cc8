package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2docx/internal/config"
	"github.com/alnah/go-md2docx/internal/hints"
	"github.com/alnah/go-md2docx/internal/logging"
)

// healthTimeout bounds the backend health probe.
const healthTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Backend  backendInfo `json:"backend"`
	Config   configInfo  `json:"config"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// backendInfo holds conversion service check results.
type backendInfo struct {
	URL             string `json:"url"`
	HealthURL       string `json:"health_url,omitempty"`
	Reachable       bool   `json:"reachable"`
	Status          string `json:"status,omitempty"`
	PandocAvailable bool   `json:"pandoc_available"`
	Latency         string `json:"latency,omitempty"`
}

// configInfo holds configuration check results.
type configInfo struct {
	Source string `json:"source"`
	Valid  bool   `json:"valid"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string   `json:"os"`
	Arch          string   `json:"arch"`
	Container     bool     `json:"container"`
	ContainerHint string   `json:"container_hint,omitempty"`
	CI            bool     `json:"ci"`
	Variables     []string `json:"variables,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable   bool   `json:"temp_writable"`
	OutputDir      string `json:"output_dir"`
	OutputWritable bool   `json:"output_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, "error:", err)
		return ExitUsage
	}

	result := runDoctor(ctx, flags, env)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, flags *doctorFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	cfg := checkConfig(result, flags, env)
	checkEnvironment(result)
	checkBackend(ctx, result, cfg, env)
	checkSystem(result, cfg)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConfig loads and validates configuration, falling back to defaults
// so the remaining checks still run.
func checkConfig(result *doctorResult, flags *doctorFlags, env *Environment) *config.Config {
	result.Config.Source = "defaults"
	if name := flags.common.config; name != "" {
		result.Config.Source = name
	} else if name := os.Getenv("MD2DOCX_CONFIG"); name != "" {
		result.Config.Source = name
	}

	cfg, loadErr := loadConfig(flags.common.config, &Environment{Stderr: io.Discard, Config: env.Config})
	if loadErr != nil {
		result.Errors = append(result.Errors, firstLine(loadErr.Error()))
		cfg = config.DefaultConfig()
	}
	mergeBackendFlags(flags.backend, cfg)

	if err := validateConfig(cfg); err != nil {
		result.Errors = append(result.Errors, firstLine(err.Error()))
		return cfg
	}
	result.Config.Valid = loadErr == nil
	return cfg
}

// checkBackend probes the conversion service health endpoint.
func checkBackend(ctx context.Context, result *doctorResult, cfg *config.Config, env *Environment) {
	result.Backend.URL = cfg.Backend.URL

	converter, err := newConverter(cfg, logging.NoOp())
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}
	result.Backend.HealthURL = converter.Client().HealthURL()

	now := env.Now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	start := now()
	health, err := converter.Health(ctx)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Backend not reachable at %s: %v", result.Backend.HealthURL, err))
		if result.Env.Container && hints.IsLoopbackURL(cfg.Backend.URL) {
			result.Warnings = append(result.Warnings,
				"Container detected but the backend URL is loopback; use the backend service name")
		}
		return
	}
	result.Backend.Latency = now().Sub(start).Round(time.Millisecond).String()
	result.Backend.Reachable = true
	result.Backend.Status = health.Status
	result.Backend.PandocAvailable = health.PandocAvailable

	if !health.PandocAvailable {
		result.Errors = append(result.Errors, "Backend reports pandoc is not available")
	}
	if health.Status != "" && health.Status != "healthy" && health.Status != "ok" {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Backend status is %q", health.Status))
	}
}

// checkEnvironment detects container and CI environments and lists the
// MD2DOCX_* variables in effect.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	var unknown []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "MD2DOCX_") {
			continue
		}
		name := strings.SplitN(kv, "=", 2)[0]
		if knownEnvVars[name] {
			result.Env.Variables = append(result.Env.Variables, name)
		} else {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(result.Env.Variables)
	sort.Strings(unknown)
	for _, name := range unknown {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Unknown environment variable %s (typo?)", name))
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	// Explicit override (highest priority)
	if os.Getenv("MD2DOCX_CONTAINER") == "1" {
		return true, "MD2DOCX_CONTAINER=1"
	}
	// Docker
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp and output directories are writable.
func checkSystem(result *doctorResult, cfg *config.Config) {
	if writable(os.TempDir()) {
		result.System.TempWritable = true
	} else {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
	}

	dir := cfg.Output.Dir
	if dir == "" {
		dir = "."
	}
	result.System.OutputDir = dir
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		// DirSaver creates it on first save.
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Output directory %s does not exist yet", dir))
		return
	}
	if writable(dir) {
		result.System.OutputWritable = true
	} else {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Output directory not writable: %s", dir))
	}
}

// writable reports whether a file can be created in dir.
func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".md2docx-doctor-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "md2docx doctor")
	fmt.Fprintln(w)

	// Backend section
	fmt.Fprintln(w, "Backend")
	fmt.Fprintf(w, "  [OK] Endpoint: %s\n", r.Backend.URL)
	if r.Backend.Reachable {
		fmt.Fprintf(w, "  [OK] Health: %s (%s)\n", r.Backend.Status, r.Backend.Latency)
		if r.Backend.PandocAvailable {
			fmt.Fprintln(w, "  [OK] Pandoc: available")
		} else {
			fmt.Fprintln(w, "  [ERROR] Pandoc: not available")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not reachable")
	}
	fmt.Fprintln(w)

	// Config section
	fmt.Fprintln(w, "Configuration")
	if r.Config.Valid {
		fmt.Fprintf(w, "  [OK] Source: %s\n", r.Config.Source)
	} else {
		fmt.Fprintf(w, "  [ERROR] Source: %s\n", r.Config.Source)
	}
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	if len(r.Env.Variables) > 0 {
		fmt.Fprintf(w, "  [OK] Variables: %s\n", strings.Join(r.Env.Variables, ", "))
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	if r.System.OutputWritable {
		fmt.Fprintf(w, "  [OK] Output directory: %s\n", r.System.OutputDir)
	}
	fmt.Fprintln(w)

	// Warnings
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	// Errors
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
