package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/faucetdb/fixturebake/internal/config"
	"github.com/faucetdb/fixturebake/internal/fixture"
)

// ---------- tables ----------

func newTablesCmd() *cobra.Command {
	var (
		connection string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of a connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(connection, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&connection, "connection", "c", config.DefaultConnection, "Connection to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runTables(connection string, jsonOutput bool) error {
	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.close()

	tables, err := env.baker.Tables(context.Background(), connection)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	if jsonOutput {
		type tableRow struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		}
		rows := make([]tableRow, len(tables))
		for i, t := range tables {
			rows[i] = tableRow{Name: t, Model: fixture.ModelName(t)}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(tables) == 0 {
		fmt.Printf("No tables found on connection %q.\n", connection)
		return nil
	}

	fmt.Printf("%-32s %-32s\n", "TABLE", "MODEL")
	fmt.Printf("%-32s %-32s\n", "-----", "-----")
	for _, t := range tables {
		fmt.Printf("%-32s %-32s\n", t, fixture.ModelName(t))
	}
	return nil
}

// ---------- describe ----------

func newDescribeCmd() *cobra.Command {
	var connection string

	cmd := &cobra.Command{
		Use:   "describe <table>",
		Short: "Print the schema literal of a table",
		Long:  "Introspect a table and print its schema as the PHP array literal a fixture would embed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(connection, args[0])
		},
	}

	cmd.Flags().StringVarP(&connection, "connection", "c", config.DefaultConnection, "Connection to read the table from")

	return cmd
}

func runDescribe(connection, table string) error {
	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.close()

	schema, err := env.baker.Describe(context.Background(), connection, table)
	if err != nil {
		return fmt.Errorf("describe %s: %w", table, err)
	}

	fmt.Printf("// %s (%d columns)\n", schema.Name, len(schema.Columns))
	fmt.Println(fixture.BuildSchema(schema))
	return nil
}
