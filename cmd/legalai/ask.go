package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codertg2/legalai/config"
	srv "github.com/codertg2/legalai/internal/server"
)

func askCMD() *cobra.Command {
	var cfgPath string
	var ask = &cobra.Command{
		Use:   "ask [query]",
		Short: "Resolve a single query and print the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			dsn, err := cfg.Storage.Postgres.DSN()
			if err != nil {
				return err
			}
			ctx := context.Background()
			eng, err := srv.BuildEngine(ctx, cfg, dsn)
			if err != nil {
				return err
			}
			res, err := eng.Search(ctx, "", args[0])
			if err != nil {
				return err
			}
			fmt.Println(res.Answer)
			return nil
		},
	}
	ask.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file directory (default is .)")

	return ask
}
