package cmd

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"db-recorder/internal/dialect"
)

var (
	dsn        string
	cfgFile    string
	DB         *sql.DB
	DriverName string
	Dialect    dialect.Dialect
	Logger     *slog.Logger
)

var RootCmd = &cobra.Command{
	Use:   "db-recorder",
	Short: "Time-partitioned record store with automatic schema reconciliation",
	Long: `
DB RECORDER - asynchronous, time-partitioned record writer.
Declared record types are kept in step with their tables;
records are written to day, month or year partitions.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		Logger = newLogger(viper.GetString("log.level"), viper.GetString("log.format"))
		slog.SetDefault(Logger)

		// Use Viper to get DSN (Flag > Config > Default)
		connStr := viper.GetString("database.dsn")
		if connStr == "" {
			return fmt.Errorf("database.dsn is required (via flag or config)")
		}

		DriverName = viper.GetString("database.driver")
		if DriverName == "" {
			DriverName = detectDriver(connStr)
		}
		d, err := dialect.GetDialect(DriverName)
		if err != nil {
			return err
		}
		Dialect = d

		if DriverName == "mysql" {
			cfg, err := mysql.ParseDSN(connStr)
			if err != nil {
				return fmt.Errorf("invalid mysql dsn: %w", err)
			}
			if cfg.DBName == "" {
				return fmt.Errorf("no database selected in DSN")
			}
		}

		DB, err = sql.Open(DriverName, connStr)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		if err := DB.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("failed to connect to db: %w", err)
		}
		Logger.Debug("connected", "driver", DriverName)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if DB != nil {
			return DB.Close()
		}
		return nil
	},
}

// detectDriver guesses the driver from the DSN shape.
func detectDriver(connStr string) string {
	lower := strings.ToLower(connStr)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"), strings.Contains(lower, "sslmode"):
		return "postgres"
	case strings.HasPrefix(lower, "sqlserver://"):
		return "sqlserver"
	case strings.HasPrefix(lower, "oracle://"):
		return "oracle"
	case strings.HasPrefix(lower, "file:"), strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		return "sqlite"
	default:
		return "mysql"
	}
}

func newLogger(level, format string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lv}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Define flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-recorder.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database Source Name (DSN)")
	RootCmd.PersistentFlags().String("driver", "", "database driver: mysql, postgres, sqlserver, oracle, sqlite")
	RootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	viper.BindPFlag("database.dsn", RootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("database.driver", RootCmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))

	// Set default for Viper (fallback if no config/flag)
	viper.SetDefault("database.dsn", "root:root@tcp(127.0.0.1:3306)/recorder?parseTime=true")
	viper.SetDefault("log.format", "text")
	setRecorderDefaults()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("db-recorder")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RECORDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
