// Package bundler is the boundary to the external site bundler. The bundler
// is a black box: it consumes a build spec derived from the resolved
// configuration and reports stats or a fatal error.
package bundler

import (
	"context"
	"time"
)

// BuildSpec is the bundler-facing slice of the resolved configuration.
type BuildSpec struct {
	Src     string         `json:"src"`
	Dst     string         `json:"dst"`
	BaseURL string         `json:"baseURL"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// Stats are the bundler's raw build statistics. Warnings are non-fatal; a
// fatal compile error is returned as an error from Run instead.
type Stats struct {
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Warnings  []string      `json:"warnings,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// Bundler runs one compile of the site.
type Bundler interface {
	Run(ctx context.Context, spec BuildSpec) (*Stats, error)
}
