package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faucetdb/fixturebake/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the fixture preview HTTP server",
		Long: `Start a read-only HTTP API that lists connections and tables and renders
fixtures on request without writing them to disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.Flags().IntVar(&port, "port", 8089, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe() error {
	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.close()

	srvCfg := server.ConfigFrom(env.cfg.Server)
	srv := server.New(srvCfg, env.baker, env.cfg, env.registry, env.logger)

	base := fmt.Sprintf("http://%s:%d", srvCfg.Host, srvCfg.Port)
	bold := color.New(color.Bold)
	bold.Printf("→ fixturebake %s\n", versionString())
	fmt.Printf("→ Listening on %s\n", base)
	fmt.Printf("→ Connections: %s/api/v1/connections\n", base)
	fmt.Printf("→ Health:      %s/healthz\n", base)
	fmt.Printf("→ Configured databases: %d\n", len(env.cfg.Connections))
	fmt.Println()

	return srv.ListenAndServe()
}
