package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/imamik/hostkit/internal/ui/style"
	"github.com/imamik/hostkit/internal/util/prerequisites"
)

// DoctorReport describes the host as hostkit sees it.
type DoctorReport struct {
	Arch     string            `json:"arch"`
	OS       string            `json:"os,omitempty"`
	OSParams map[string]string `json:"osParams,omitempty"`
	Runtime  string            `json:"containerRuntime"`
	Remote   string            `json:"remote,omitempty"`
	DryRun   bool              `json:"dryRun"`
	Tools    []ToolStatus      `json:"tools"`
}

// ToolStatus is the result of looking up one external tool.
type ToolStatus struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
}

// Doctor checks the host for the tools hostkit drives and prints the
// result. It fails when a required tool is missing.
func Doctor(env *Env, jsonOutput bool) error {
	results := prerequisites.CheckAll(env.Config.ContainerRuntime)
	report := buildDoctorReport(env, results)

	if jsonOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		env.printf("%s\n", data)
	} else {
		printDoctor(env, report, style.For(env.Out))
	}
	return results.Error()
}

func buildDoctorReport(env *Env, results *prerequisites.CheckResults) *DoctorReport {
	report := &DoctorReport{
		Arch:     env.Context.Arch,
		OS:       env.Context.OSParams["PRETTY_NAME"],
		OSParams: env.Context.OSParams,
		Runtime:  env.Config.ContainerRuntime,
		DryRun:   !env.Context.ReallyExecute,
	}
	if env.Config.Remote.Enabled() {
		report.Remote = fmt.Sprintf("%s@%s:%d", env.Config.Remote.User, env.Config.Remote.Host, env.Config.Remote.Port)
	}
	for _, r := range results.Results {
		report.Tools = append(report.Tools, ToolStatus{
			Name:     r.Tool.Name,
			Required: r.Tool.Required,
			Found:    r.Found,
			Path:     r.Path,
			Version:  r.Version,
		})
	}
	return report
}

func printDoctor(env *Env, report *DoctorReport, palette style.Palette) {
	title := "hostkit doctor"
	env.printf("\n  %s\n", palette.Title(title))
	env.printf("  %s\n\n", strings.Repeat("═", len(title)))

	osName := report.OS
	if osName == "" {
		osName = "unknown"
	}
	env.printf("  Host\n")
	env.printf("  %s\n", strings.Repeat("─", 35))
	env.printf("    %-12s %s\n", "OS", osName)
	env.printf("    %-12s %s\n", "Arch", report.Arch)
	env.printf("    %-12s %s\n", "Runtime", report.Runtime)
	if report.Remote != "" {
		env.printf("    %-12s %s\n", "Remote", report.Remote)
	}
	env.printf("\n")

	env.printf("  Tools\n")
	env.printf("  %s\n", strings.Repeat("─", 35))
	for _, tool := range report.Tools {
		var indicator, extra string
		switch {
		case tool.Found:
			indicator = palette.OK(style.CheckMark)
			extra = palette.Dim(tool.Version)
		case tool.Required:
			indicator = palette.Error(style.CrossMark)
			extra = "missing"
		default:
			indicator = palette.Warn(style.WarnMark)
			extra = palette.Dim("optional, not installed")
		}
		env.printf("  %s  %-8s %s\n", indicator, tool.Name, extra)
	}
	env.printf("\n")
}
