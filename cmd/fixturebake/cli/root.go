package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faucetdb/fixturebake/internal/config"
)

var (
	cfgFile    string
	verbose    bool
	appVersion string // set in Execute, reported by the MCP server and version
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixturebake",
		Short: "Bake PHP test fixtures from live database tables",
		Long: `fixturebake: Bake CakePHP test fixtures from your database.

fixturebake introspects a table's columns, indexes and constraints and writes a
<Model>Fixture.php class holding the schema as a PHP array literal together with
generated placeholder records, or rows sampled from the live table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./fixturebake.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cobra.OnInitialize(initConfig)

	// Add subcommands
	cmd.AddCommand(newBakeCmd())
	cmd.AddCommand(newTablesCmd())
	cmd.AddCommand(newDescribeCmd())
	cmd.AddCommand(newConnCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	// Variables from .env never override the real environment.
	_ = config.LoadDotEnv("")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fixturebake")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.fixturebake")
	}

	config.BindEnv(viper.GetViper())
	viper.ReadInConfig() // Ignore error - config file is optional
}
