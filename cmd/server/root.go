package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/config"
)

var (
	v   = config.NewViper()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "glucose-watch",
	Short: "glucose-watch connects an athlete's CGM with their parents",
	Long: "glucose-watch polls the athlete's continuous glucose monitor, classifies every reading " +
		"and streams alerts to parent accounts over SSE and gRPC.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded

		common.InitLogger(cfg.Log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		common.SyncLogger()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
		panic(err)
	}
}

func bindPersistentFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
		panic(err)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db-type", "file", "Database backend: file, memory or postgres")
	flags.String("db-path", "glucose.db", "Path to the SQLite database file")
	flags.String("postgres-dsn", "", "Postgres DSN when --db-type=postgres")
	flags.String("log-dir", "logs", "Directory for rotated JSON logs")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")

	bindPersistentFlag(v, common.EnvKeyDBType, rootCmd, "db-type")
	bindPersistentFlag(v, common.EnvKeyDBPath, rootCmd, "db-path")
	bindPersistentFlag(v, common.EnvKeyPostgresDSN, rootCmd, "postgres-dsn")
	bindPersistentFlag(v, common.EnvKeyLogDir, rootCmd, "log-dir")
	bindPersistentFlag(v, common.EnvKeyLogLevel, rootCmd, "log-level")
}
