package schema

// Package groups validated command schemas into a single distributable
// document.
type Package struct {
	// Schema contract version (populated from ContractVersion)
	SchemaVersion string `json:"schema_version,omitempty" yaml:"schema_version,omitempty"`
	// Package format version (semver string)
	Version string `json:"version" yaml:"version"`
	// Optional package name
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Optional package description
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// ISO-8601 timestamp for package creation
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	// Command schemas included in this package
	Schemas []CommandSchema `json:"schemas" yaml:"schemas"`
}

// NewPackage creates a package with the required fields.
func NewPackage(version, generatedAt string) *Package {
	return &Package{
		SchemaVersion: ContractVersion,
		Version:       version,
		GeneratedAt:   generatedAt,
		Schemas:       []CommandSchema{},
	}
}

// CommandNames returns the command name of every schema in order.
func (p *Package) CommandNames() []string {
	names := make([]string, 0, len(p.Schemas))
	for i := range p.Schemas {
		names = append(names, p.Schemas[i].Command)
	}
	return names
}

// Find returns the schema for the given command, or nil.
func (p *Package) Find(command string) *CommandSchema {
	for i := range p.Schemas {
		if p.Schemas[i].Command == command {
			return &p.Schemas[i]
		}
	}
	return nil
}
