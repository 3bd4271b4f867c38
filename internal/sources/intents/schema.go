package intents

// File is the top-level structure of an intents YAML document.
// Categories map a mood tag to the keywords it matches.
type File struct {
	Audiences  []string            `yaml:"audiences,omitempty"`
	Categories map[string][]string `yaml:"categories"`
}
