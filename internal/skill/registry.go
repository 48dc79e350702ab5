// Package skill provides a minimal in-memory skill registry: named
// instruction snippets rendered as an XML block and injected into the
// system prompt, trimmed down from the teacher's skills package (whose
// frontmatter grammar and file-loading machinery are out of scope
// here; only the in-memory registration and XML rendering survive).
package skill

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Skill is one named instruction snippet a middleware can inject into
// a turn's system prompt.
type Skill struct {
	Name        string
	Description string
	Body        string
	Location    string // optional, e.g. a source file or URL
}

// Registry holds the active set of skills for a deployment.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]Skill
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]Skill)}
}

// Register adds or replaces a skill by name.
func (r *Registry) Register(s Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[s.Name] = s
}

// yamlManifest is the shape LoadFromYAML expects: a flat list under
// a top-level "skills" key, for a host that keeps its skill set as one
// manifest file rather than full frontmatter-per-file parsing (which
// is out of scope here).
type yamlManifest struct {
	Skills []Skill `yaml:"skills"`
}

// LoadFromYAML registers every skill listed in a manifest document of
// the form:
//
//	skills:
//	  - name: ...
//	    description: ...
//	    body: ...
//
// It replaces any existing skill with the same name, and is a
// supplemental convenience for hosts that don't want to call Register
// once per skill at startup.
func (r *Registry) LoadFromYAML(doc []byte) error {
	var manifest yamlManifest
	if err := yaml.Unmarshal(doc, &manifest); err != nil {
		return fmt.Errorf("parse skill manifest: %w", err)
	}
	for _, s := range manifest.Skills {
		if s.Name == "" {
			return fmt.Errorf("skill manifest entry missing name")
		}
		r.Register(s)
	}
	return nil
}

// List returns every registered skill sorted by name.
func (r *Registry) List() []Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Skill, 0, len(r.skills))
	for _, s := range r.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// xmlSkill mirrors Skill for escaped marshaling via encoding/xml,
// keeping the public Skill type free of struct tags.
type xmlSkill struct {
	XMLName     xml.Name `xml:"skill"`
	Name        string   `xml:"name,attr"`
	Description string   `xml:"description,omitempty"`
	Location    string   `xml:"location,omitempty"`
	Body        string   `xml:",chardata"`
}

// RenderXML renders every registered skill as a sorted-by-name
// <skills> block with each field properly escaped, suitable for direct
// injection into a system prompt.
func (r *Registry) RenderXML() string {
	skills := r.List()
	if len(skills) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<skills>\n")
	for _, s := range skills {
		x := xmlSkill{Name: s.Name, Description: s.Description, Location: s.Location, Body: s.Body}
		out, err := xml.MarshalIndent(x, "  ", "  ")
		if err != nil {
			continue
		}
		b.Write(out)
		b.WriteString("\n")
	}
	b.WriteString("</skills>")
	return b.String()
}
