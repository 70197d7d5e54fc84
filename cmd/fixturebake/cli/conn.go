package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/faucetdb/fixturebake/internal/config"
)

func newConnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conn",
		Aliases: []string{"connection", "db"},
		Short:   "Inspect configured database connections",
		Long:    "List and test the database connections defined in fixturebake.yaml.",
	}

	cmd.AddCommand(newConnListCmd())
	cmd.AddCommand(newConnTestCmd())

	return cmd
}

// ---------- conn list ----------

func newConnListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List configured connections",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runConnList(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	names := cfg.ConnectionNames()

	if jsonOutput {
		type connRow struct {
			Name   string `json:"name"`
			Driver string `json:"driver"`
			Schema string `json:"schema,omitempty"`
		}
		rows := make([]connRow, len(names))
		for i, name := range names {
			c := cfg.Connections[name]
			rows[i] = connRow{Name: name, Driver: c.Driver, Schema: c.Schema}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(names) == 0 {
		fmt.Println("No connections configured. Run 'fixturebake config init' to create fixturebake.yaml.")
		return nil
	}

	fmt.Printf("%-20s %-12s %-12s\n", "NAME", "DRIVER", "SCHEMA")
	fmt.Printf("%-20s %-12s %-12s\n", "----", "------", "------")
	for _, name := range names {
		c := cfg.Connections[name]
		fmt.Printf("%-20s %-12s %-12s\n", name, c.Driver, c.Schema)
	}
	return nil
}

// ---------- conn test ----------

func newConnTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [name]",
		Short: "Connect to a configured database and ping it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runConnTest(name)
		},
	}
}

func runConnTest(name string) error {
	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	start := time.Now()
	conn, err := env.baker.Connector(name)
	if err == nil {
		err = conn.Ping(ctx)
	}
	if name == "" {
		name = config.DefaultConnection
	}
	if err != nil {
		color.New(color.FgRed).Printf("FAIL %s: %v\n", name, err)
		return fmt.Errorf("connection %q failed", name)
	}

	tables, err := conn.GetTableNames(ctx)
	if err != nil {
		color.New(color.FgYellow).Printf("OK   %s (%s, ping %s) but listing tables failed: %v\n", name, conn.DriverName(), time.Since(start).Round(time.Millisecond), err)
		return nil
	}
	color.New(color.FgGreen).Printf("OK   %s (%s, %d tables, %s)\n", name, conn.DriverName(), len(tables), time.Since(start).Round(time.Millisecond))
	return nil
}
