// Package deps reports whether the external binaries markerexpr shells out to
// are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"markerexpr/internal/config"
)

// Requirement defines an external binary a feature relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists the binaries enabled features of cfg need.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil || !cfg.Chapters.Enabled {
		return nil
	}
	return []Requirement{{
		Name:        "FFprobe",
		Command:     cfg.Chapters.FFprobeBinary,
		Description: "Reads chapter names and times for =Ch references",
		Optional:    true,
	}}
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
