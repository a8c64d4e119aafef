package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/agenty/agenty-backend/internal/ai/schema"
)

// Spec is the declaration format for a flow prompt. System and User are Go
// templates over the request's PromptVars; referencing a key the request does
// not provide is a render error.
type Spec struct {
	Name       PromptName
	Version    int
	Descriptor *schema.Descriptor
	System     string
	User       string
}

// MakeTemplate compiles a Spec into a Template.
func MakeTemplate(s Spec) (Template, error) {
	if strings.TrimSpace(string(s.Name)) == "" {
		return Template{}, fmt.Errorf("missing prompt name")
	}
	if s.Version <= 0 {
		return Template{}, fmt.Errorf("invalid version for %s", s.Name)
	}
	if s.Descriptor == nil {
		return Template{}, fmt.Errorf("missing output descriptor for %s", s.Name)
	}
	sysT, err := template.New("system").Funcs(funcs).Option("missingkey=error").Parse(s.System)
	if err != nil {
		return Template{}, fmt.Errorf("%s system template parse: %w", s.Name, err)
	}
	userT, err := template.New("user").Funcs(funcs).Option("missingkey=error").Parse(s.User)
	if err != nil {
		return Template{}, fmt.Errorf("%s user template parse: %w", s.Name, err)
	}
	render := func(t *template.Template, vars map[string]any) (string, error) {
		var b bytes.Buffer
		if err := t.Execute(&b, vars); err != nil {
			return "", err
		}
		return strings.TrimSpace(b.String()), nil
	}
	return Template{
		Name:       s.Name,
		Version:    s.Version,
		Descriptor: s.Descriptor,
		System:     func(vars map[string]any) (string, error) { return render(sysT, vars) },
		User:       func(vars map[string]any) (string, error) { return render(userT, vars) },
	}, nil
}

// RegisterSpec compiles and registers s, panicking on malformed templates.
func RegisterSpec(s Spec) {
	t, err := MakeTemplate(s)
	if err != nil {
		panic(err)
	}
	Register(t)
}
