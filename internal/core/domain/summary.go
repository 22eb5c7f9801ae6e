package domain

// ResultSummary describes a constructed result without its rows.
type ResultSummary struct {
	Block      string
	Kind       string
	File       string
	Resource   string
	Fields     []string
	Attributes []string
	Rows       int
	Size       int64
}
