package bundler

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	sperrors "git.home.luguber.info/inful/sitepress/internal/errors"
)

// ExecBundler invokes an external generator command once per build. Lines the
// generator prefixes with "WARN" are collected as non-fatal warnings; a
// non-zero exit is a fatal bundler error carrying the captured output as
// detail.
type ExecBundler struct {
	Command string
	Args    []string
}

// NewExecBundler creates an exec-backed bundler for the given command.
func NewExecBundler(command string, args ...string) *ExecBundler {
	return &ExecBundler{Command: command, Args: args}
}

// Run executes the generator command with source, destination and baseURL
// arguments appended.
func (b *ExecBundler) Run(ctx context.Context, spec BuildSpec) (*Stats, error) {
	args := append([]string{}, b.Args...)
	args = append(args, "--source", spec.Src, "--destination", spec.Dst, "--baseURL", spec.BaseURL)

	cmd := exec.CommandContext(ctx, b.Command, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	started := time.Now()
	err := cmd.Run()
	stats := &Stats{
		StartedAt: started,
		Duration:  time.Since(started),
		Output:    buf.String(),
		Warnings:  collectWarnings(buf.String()),
	}
	if err != nil {
		return nil, sperrors.BundlerError(err, "bundler failed").WithContext("output", buf.String())
	}
	return stats, nil
}

func collectWarnings(output string) []string {
	var warnings []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "WARN") {
			warnings = append(warnings, trimmed)
		}
	}
	return warnings
}
