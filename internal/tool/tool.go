// Package tool resolves logical tool names to executable paths.
//
// Resolution is side-effect-free and idempotent: it consults the
// override map first and falls back to the executable search path.
// Nothing is ever downloaded or installed on the caller's behalf.
package tool

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

// Tool is a resolved external executable.
type Tool struct {
	// Name is the logical name the pipeline asked for, e.g. "llvm-cov".
	Name string

	// Path is what gets handed to the runner: the override value
	// verbatim, or the absolute path found on the search path.
	Path string
}

// knownTools maps logical tool names to installation hints surfaced
// when resolution fails.
var knownTools = map[string]string{
	"llvm-profdata": "install LLVM, e.g. 'apt install llvm' or 'brew install llvm'",
	"llvm-cov":      "install LLVM, e.g. 'apt install llvm' or 'brew install llvm'",
	"cargo":         "install Rust via rustup: https://rustup.rs",
	"rustup":        "install Rust via rustup: https://rustup.rs",
}

// Known returns the logical names of all tools covrun knows how to
// hint about, sorted for stable output.
func Known() []string {
	names := make([]string, 0, len(knownTools))
	for name := range knownTools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NotFoundError reports a tool that could not be resolved, with an
// installation hint when one is known.
type NotFoundError struct {
	Name string
	Hint string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s is not installed or not on PATH", e.Name)
	if e.Hint != "" {
		msg += "\n  to install: " + e.Hint
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return coverrs.ErrToolNotFound }

// ChannelError reports a toolchain channel that the requested coverage
// mode needs but that is not installed.
type ChannelError struct {
	Channel string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("the %s toolchain is not installed\n  to install: rustup toolchain install %s",
		e.Channel, e.Channel)
}

func (e *ChannelError) Unwrap() error { return coverrs.ErrToolchainChannelMissing }

// Resolver maps logical tool names to executable paths.
type Resolver struct {
	overrides map[string]string
	log       zerolog.Logger
}

// NewResolver creates a Resolver with the given override map. Override
// keys are logical tool names; values are used verbatim, so a caller
// can point at a binary outside the search path or a wrapper script.
func NewResolver(overrides map[string]string, log zerolog.Logger) *Resolver {
	return &Resolver{overrides: overrides, log: log}
}

// Resolve returns the executable for a logical tool name. Overrides
// win and are not verified; a broken override surfaces later as a
// launch failure, which keeps resolution free of filesystem probes.
func (r *Resolver) Resolve(name string) (Tool, error) {
	if path, ok := r.overrides[name]; ok && path != "" {
		r.log.Debug().Str("tool", name).Str("path", path).Msg("resolved tool via override")
		return Tool{Name: name, Path: path}, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return Tool{}, &NotFoundError{Name: name, Hint: knownTools[name]}
	}

	r.log.Debug().Str("tool", name).Str("path", path).Msg("resolved tool via search path")
	return Tool{Name: name, Path: path}, nil
}

// ParseOverrides converts repeated "name=path" flag values into an
// override map. Later entries for the same name win.
func ParseOverrides(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, path, ok := strings.Cut(pair, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("%w: tool override %q must have the form name=path", coverrs.ErrValidation, pair)
		}
		overrides[name] = path
	}
	return overrides, nil
}
