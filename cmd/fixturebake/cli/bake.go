package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/faucetdb/fixturebake/internal/bake"
	"github.com/faucetdb/fixturebake/internal/config"
)

func newBakeCmd() *cobra.Command {
	var opts bake.Options
	var count int

	cmd := &cobra.Command{
		Use:   "bake [name|all]",
		Short: "Bake a test fixture for a model",
		Long: `Bake a <Model>Fixture.php test fixture from a database table.

The table defaults to the pluralized, underscored model name (BlogPosts ->
blog_posts). Use "all" to bake a fixture for every table of the connection.
A Plugin.Model name writes into the plugin's namespace and tests/Fixture
directory. Without a name, and with a terminal on stdin, you are prompted for
the table, sampling conditions and record count.`,
		Example: `  fixturebake bake Articles                       # one placeholder record
  fixturebake bake Articles -n 5 --schema         # import the schema from the model
  fixturebake bake Articles -r --conditions "WHERE published = 1"
  fixturebake bake Blog.Posts -c reporting
  fixturebake bake all -f
  fixturebake bake                                # interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("count") {
				if count < 0 {
					return fmt.Errorf("--count must not be negative")
				}
				opts.Count = &count
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runBake(cmd, name, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Connection, "connection", "c", config.DefaultConnection, "Connection to read the table from")
	cmd.Flags().StringVar(&opts.Table, "table", "", "Table to bake instead of the conventional one")
	cmd.Flags().StringVarP(&opts.Plugin, "plugin", "p", "", "Plugin to bake the fixture into")
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of records (default 1 for a single bake)")
	cmd.Flags().BoolVarP(&opts.ImportSchema, "schema", "s", false, "Import the schema from the model instead of embedding it")
	cmd.Flags().BoolVarP(&opts.Records, "records", "r", false, "Sample records from the live table")
	cmd.Flags().StringVar(&opts.Conditions, "conditions", "1=1", "SQL condition used to sample records")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Overwrite existing fixture files")
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "Print the fixture instead of writing it")

	return cmd
}

func runBake(cmd *cobra.Command, name string, opts bake.Options) error {
	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.close()
	env.baker.SetOutput(cmd.OutOrStdout())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case strings.EqualFold(name, "all"):
		results, err := env.baker.BakeAll(ctx, opts)
		if !opts.Stdout {
			fmt.Fprintf(cmd.OutOrStdout(), "\nBaked %d fixture(s)\n", len(results))
		}
		return err

	case name != "":
		_, err := env.baker.Bake(ctx, name, opts)
		return err

	case term.IsTerminal(int(os.Stdin.Fd())):
		// Prompts choose the connection when none was given explicitly.
		if !cmd.Flags().Changed("connection") {
			opts.Connection = ""
		}
		_, err := env.baker.Interactive(ctx, cmd.InOrStdin(), opts)
		return err

	default:
		return fmt.Errorf("bake: model name required when stdin is not a terminal")
	}
}
