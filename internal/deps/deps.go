package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"slidecast/internal/config"
)

// Requirement defines an external binary slidecast relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the external tools the configured pipeline needs.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	renderer := strings.TrimSpace(cfg.Export.ChromiumBinary)
	if renderer == "" {
		renderer = "chromium"
	}
	return []Requirement{
		{
			Name:        "transcriber",
			Command:     transcriberBinary(cfg.Transcriber.Command),
			Description: "speech-to-text command used by the transcribe stage",
		},
		{
			Name:        "chromium",
			Command:     renderer,
			Description: "headless browser used for PDF export",
			Optional:    true,
		},
	}
}

// transcriberBinary extracts the executable from a configured command line.
func transcriberBinary(command string) string {
	fields := strings.Fields(strings.TrimSpace(command))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
