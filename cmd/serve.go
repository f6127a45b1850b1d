package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/estform/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve form sessions over HTTP and websockets",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		user, _ := cmd.Flags().GetString("user")
		pass, _ := cmd.Flags().GetString("password")
		idle, _ := cmd.Flags().GetDuration("idle-timeout")

		src, release, err := newSource()
		if err != nil {
			return err
		}
		defer release()

		opts := formOptions()
		srv := server.New(server.Config{
			Source: src,
			Form: server.FormConfig{
				Mode:          opts.Mode,
				GroupSelector: opts.GroupSelector,
				Debounce:      opts.Debounce,
				Limit:         opts.Limit,
				CacheSize:     viper.GetInt("lookup.cache_size"),
			},
			Username:    user,
			Password:    pass,
			IdleTimeout: idle,
		})
		return srv.Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("user", "", "Basic auth username")
	serveCmd.Flags().String("password", "", "Basic auth password")
	serveCmd.Flags().Duration("idle-timeout", server.DefaultIdleTimeout, "Close sessions idle for this long")
}
