package llm

import "fmt"

// CollaboratorFailure wraps any reasoning provider failure so the synthesizer
// can distinguish it from programmer errors and fall back deterministically.
type CollaboratorFailure struct {
	Provider string
	Stage    string // "request", "response", "parse"
	Err      error
}

func (f *CollaboratorFailure) Error() string {
	return fmt.Sprintf("%s collaborator failed at %s: %v", f.Provider, f.Stage, f.Err)
}

func (f *CollaboratorFailure) Unwrap() error {
	return f.Err
}

func failure(provider, stage string, err error) *CollaboratorFailure {
	return &CollaboratorFailure{Provider: provider, Stage: stage, Err: err}
}
