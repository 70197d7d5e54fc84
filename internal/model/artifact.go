package model

import "github.com/faucetdb/fixturebake/internal/literal"

// Record is one fixture row: column name to scalar value, in column order.
type Record = *literal.Map

// ImportDirective asks the generated fixture to pull its schema, and
// optionally its records, from an existing model instead of embedding them.
type ImportDirective struct {
	// SourceModel is the model whose schema is imported. Empty means none.
	SourceModel string
	// IncludeRecords imports the model's records as well.
	IncludeRecords bool
	// FromTable marks records that were sampled from the live table.
	FromTable bool
	// Connection is the connection to import from. Empty when it is the
	// default connection.
	Connection string
}

// Artifact is the assembled fixture ready for rendering. Every text field is
// empty when the corresponding section is absent.
type Artifact struct {
	Model     string
	Table     string
	Schema    string
	Records   string
	Import    string
	Namespace string
	FileName  string
}
