// Package prerequisites checks that the external tools hostkit drives are
// installed on the host.
package prerequisites

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool represents an external program hostkit may invoke.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

// ProvisioningTools returns the tools used by package and keyring commands.
func ProvisioningTools() []Tool {
	return []Tool{
		{
			Name:        "sudo",
			Required:    true,
			Description: "Required for commands that run as root",
			InstallURL:  "https://www.sudo.ws/",
		},
		{
			Name:        "apt",
			Required:    true,
			Description: "Required for package installation and upgrades",
			InstallURL:  "https://wiki.debian.org/Apt",
		},
		{
			Name:        "gpg",
			Required:    true,
			Description: "Required for de-armoring apt keyrings",
			InstallURL:  "https://gnupg.org/download/",
		},
	}
}

// ContainerTools returns the container runtime CLI named runtime.
func ContainerTools(runtime string) []Tool {
	return []Tool{
		{
			Name:        runtime,
			Required:    true,
			Description: "Required for container status, wait and kill commands",
			InstallURL:  "https://docs.docker.com/engine/install/",
		},
	}
}

// OptionalTools returns tools that are useful but not required.
func OptionalTools() []Tool {
	return []Tool{
		{
			Name:        "gcloud",
			Required:    false,
			Description: "Used to copy files to Compute Engine instances",
			InstallURL:  "https://cloud.google.com/sdk/docs/install",
		},
		{
			Name:        "bash",
			Required:    false,
			Description: "Used by the shell command",
			InstallURL:  "https://www.gnu.org/software/bash/",
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Finder locates a binary, like exec.LookPath.
type Finder func(name string) (string, error)

// Check verifies that the specified tools are on PATH.
func Check(tools []Tool) *CheckResults {
	return CheckWith(tools, exec.LookPath, getToolVersion)
}

// CheckWith is Check with explicit lookup and version probes.
func CheckWith(tools []Tool, find Finder, version func(name string) string) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := find(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			if version != nil {
				result.Version = version(tool.Name)
			}
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// CheckAll checks the provisioning tools, the container runtime and the
// optional tools.
func CheckAll(runtime string) *CheckResults {
	var all []Tool
	all = append(all, ProvisioningTools()...)
	all = append(all, ContainerTools(runtime)...)
	all = append(all, OptionalTools()...)
	return Check(all)
}

// getToolVersion attempts to get the version of a tool.
// Returns empty string if version cannot be determined.
func getToolVersion(name string) string {
	for _, flag := range []string{"--version", "version"} {
		// #nosec G204 - name comes from trusted Tool definitions, not user input
		output, err := exec.Command(name, flag).Output()
		if err == nil {
			first, _, _ := strings.Cut(string(output), "\n")
			return strings.TrimSpace(first)
		}
	}
	return ""
}
