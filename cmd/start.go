package cmd

import (
	"github.com/rs/zerolog/log"

	"gitlab.com/cloverpay-platform/affiliate_api/cmd/commands"
	"gitlab.com/cloverpay-platform/affiliate_api/config"
	"gitlab.com/cloverpay-platform/affiliate_api/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the affiliate api and listen for tracking requests and billing events",
	Long:  `Connect to the configured database and listen for tracking requests, affiliate management calls and payment processor webhooks`,
	Run: func(cmd *cobra.Command, args []string) {
		log.Debug().Msg("Loading server configuration")
		if viper.ConfigFileUsed() != "" {
			log.Debug().Str("section", "init").Str("path", viper.ConfigFileUsed()).Msg("Configuration file loaded")
		}
		cfg := config.LoadConfig(viper.GetViper())
		log.Debug().Msg("Running migrations")
		commands.Migrate(cfg)

		log.Debug().Str("section", "init").Msg("Starting new server instance")
		srv := server.NewServer(cfg)
		log.Info().Str("section", "init").Msg("Listening for incoming events")
		srv.Listen()
	},
}
