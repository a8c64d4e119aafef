package prompts

import (
	"fmt"
	"sync"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
	"github.com/agenty/agenty-backend/internal/ai/schema"
)

type Template struct {
	Name       PromptName
	Version    int
	Descriptor *schema.Descriptor
	System     func(map[string]any) (string, error)
	User       func(map[string]any) (string, error)
}

var (
	mu       sync.RWMutex
	registry = map[PromptName]Template{}
)

// Register registers a compiled Template, replacing any previous version.
func Register(t Template) {
	mu.Lock()
	defer mu.Unlock()
	registry[t.Name] = t
}

func Lookup(name PromptName) (Template, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := registry[name]
	return t, ok
}

// Build renders the named prompt. Render failures come back as *flowerr.TemplateError.
func Build(name PromptName, vars map[string]any) (Prompt, error) {
	t, ok := Lookup(name)
	if !ok {
		return Prompt{}, &flowerr.TemplateError{Prompt: string(name), Err: fmt.Errorf("unknown prompt")}
	}
	if t.System == nil || t.User == nil {
		return Prompt{}, &flowerr.TemplateError{Prompt: string(name), Err: fmt.Errorf("missing system/user renderers")}
	}
	system, err := t.System(vars)
	if err != nil {
		return Prompt{}, &flowerr.TemplateError{Prompt: string(name), Err: err}
	}
	user, err := t.User(vars)
	if err != nil {
		return Prompt{}, &flowerr.TemplateError{Prompt: string(name), Err: err}
	}
	return Prompt{
		Name:       string(t.Name),
		Version:    t.Version,
		System:     system,
		User:       user,
		Descriptor: t.Descriptor,
	}, nil
}
