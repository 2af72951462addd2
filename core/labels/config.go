package labels

// Config holds configuration for the label table and the
// reconciliation default.
type Config struct {
	// Source selects where label definitions come from (static,
	// database). With "database" the relational store seeds the table
	// at startup; "static" uses the built-in catalog.
	Source string `mapstructure:"source" default:"static"`
	// Default is the canonical ID of the catalog's primary label,
	// assigned when reconciliation finds no evidence at all.
	Default string `mapstructure:"default" default:"1"`
}

const (
	SourceStatic   = "static"
	SourceDatabase = "database"
)

// IsValidSource checks if the configured definition source is known.
func (c Config) IsValidSource() bool {
	switch c.Source {
	case SourceStatic, SourceDatabase:
		return true
	default:
		return false
	}
}

// BuiltinDefinitions returns the static label catalog used when no
// database-backed definitions are configured. Alias lists are ordered
// most specific first.
func BuiltinDefinitions() []Label {
	return []Label{
		{
			ID:      "1",
			Slug:    "buildit-records",
			Name:    "Build It Records",
			Aliases: []string{"buildit-records", "records"},
		},
		{
			ID:      "2",
			Slug:    "buildit-deep",
			Name:    "Build It Deep",
			Aliases: []string{"buildit-deep", "deep"},
		},
		{
			ID:      "3",
			Slug:    "buildit-tech",
			Name:    "Build It Tech",
			Aliases: []string{"buildit-tech", "tech"},
		},
	}
}
