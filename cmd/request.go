package main

import (
	"coach/internal/engine"
	"coach/internal/scoring"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Request is the content of a request file.
type Request struct {
	User     scoring.User     `yaml:"user"`
	Project  scoring.Project  `yaml:"project"`
	Features scoring.Features `yaml:"features"`
}

// LoadRequest reads a request file.
func LoadRequest(path string) (*Request, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var request Request
	if err := yaml.Unmarshal(content, &request); err != nil {
		return nil, fmt.Errorf("parsing request %s: %w", path, err)
	}
	return &request, nil
}

// requestFlags are shared by every command evaluating a request.
type requestFlags struct {
	path string
	now  string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "request", "r", "", "request file with the user, the project and the features")
	cmd.Flags().StringVar(&f.now, "now", "", "evaluation time (RFC3339), defaults to the current time")
	_ = cmd.MarkFlagRequired("request")
}

// context builds the scoring context of the request for e.
func (f *requestFlags) context(e *engine.Engine) (*scoring.Context, error) {
	request, err := LoadRequest(f.path)
	if err != nil {
		return nil, err
	}
	var opts []scoring.ContextOption
	if f.now != "" {
		now, err := time.Parse(time.RFC3339, f.now)
		if err != nil {
			return nil, fmt.Errorf("invalid --now: %w", err)
		}
		opts = append(opts, scoring.WithNow(now))
	}
	return e.NewContext(request.Project, request.User, request.Features, opts...), nil
}
