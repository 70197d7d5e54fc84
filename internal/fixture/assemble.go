package fixture

import (
	"errors"
	"strings"

	"github.com/faucetdb/fixturebake/internal/config"
	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// ErrSchemaRequired is returned when a fixture neither embeds a schema nor
// imports one from an existing model.
var ErrSchemaRequired = errors.New("fixture: schema required when no model is imported")

// AssembleInput carries the pieces of a fixture before assembly.
type AssembleInput struct {
	Model string
	// Table is the table the fixture was built from. Empty means the
	// conventional table for Model.
	Table   string
	Schema  string
	Records string
	Import  *model.ImportDirective
	// Connection is the connection the bake ran against.
	Connection string
	Namespace  string
}

// Assemble combines the fixture sections into an Artifact. An imported
// schema replaces the embedded one; without an import the schema text is
// mandatory.
func Assemble(in AssembleInput) (model.Artifact, error) {
	art := model.Artifact{
		Model:     in.Model,
		Records:   in.Records,
		Namespace: in.Namespace,
		FileName:  FileName(in.Model),
	}
	if in.Table != "" && in.Table != Tableize(in.Model) {
		art.Table = in.Table
	}

	importsSchema := in.Import != nil && in.Import.SourceModel != ""
	if in.Import != nil {
		art.Import = importText(*in.Import, in.Connection)
	}
	if !importsSchema {
		if in.Schema == "" {
			return model.Artifact{}, ErrSchemaRequired
		}
		art.Schema = in.Schema
	}
	return art, nil
}

// importText renders the import directive, or "" when it carries nothing.
func importText(d model.ImportDirective, connection string) string {
	if d.Connection != "" {
		connection = d.Connection
	}
	bits := []string{}
	if d.SourceModel != "" {
		bits = append(bits, "'model' => "+literal.Serialize(literal.String(d.SourceModel)))
	}
	if d.IncludeRecords {
		bits = append(bits, "'records' => true")
	}
	if connection != "" && connection != config.DefaultConnection {
		bits = append(bits, "'connection' => "+literal.Serialize(literal.String(connection)))
	}
	if len(bits) == 0 {
		return ""
	}
	return "[" + strings.Join(bits, ", ") + "]"
}
