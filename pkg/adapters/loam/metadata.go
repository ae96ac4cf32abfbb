package loam

// TemplateMetadata is the frontmatter of a palette template file.
// It uses "mapstructure" tags to match the YAML/JSON keys.
type TemplateMetadata struct {
	// ID overrides the file name as the template name.
	ID          string `json:"id" mapstructure:"id"`
	Label       string `json:"label" mapstructure:"label"`
	Description string `json:"description" mapstructure:"description"`
	Category    string `json:"category" mapstructure:"category"`

	// Root is the component subtree, in the same shape as a stored document node.
	Root map[string]any `json:"root" mapstructure:"root"`
}
