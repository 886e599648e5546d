package inference

import "github.com/JonMunkholm/datamorpher/internal/classify"

// ColumnReport is the inferred type of one column.
type ColumnReport struct {
	Name    string             `json:"name" yaml:"name"`
	Type    classify.TypeLabel `json:"type" yaml:"type"`
	NonNull int                `json:"non_null" yaml:"non_null"`
	Unique  int                `json:"unique" yaml:"unique"`
}

// Report holds one ColumnReport per dataset column, in file order.
type Report struct {
	Path    string         `json:"path,omitempty" yaml:"path,omitempty"`
	Rows    int            `json:"rows" yaml:"rows"`
	Columns []ColumnReport `json:"columns" yaml:"columns"`
}

// Types returns the column name to type label mapping.
func (r *Report) Types() map[string]string {
	types := make(map[string]string, len(r.Columns))
	for _, c := range r.Columns {
		types[c.Name] = c.Type.String()
	}
	return types
}
