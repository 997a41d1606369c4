package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hupe1980/agenttrace"
	"github.com/hupe1980/agenttrace/logging"
	"github.com/hupe1980/agenttrace/metrics"
	"github.com/hupe1980/agenttrace/replay"
	"github.com/hupe1980/agenttrace/session/sqlite"
	"github.com/hupe1980/agenttrace/trace"
)

const defaultDB = "agenttrace.db"

// Config is the resolved configuration: defaults, then the config file, then
// AGENTTRACE_* environment variables, then flags.
type Config struct {
	DB       string        `mapstructure:"db"`
	LogLevel string        `mapstructure:"log_level"`
	Delay    time.Duration `mapstructure:"delay"`
	Trace    TraceConfig   `mapstructure:"trace"`
}

// TraceConfig mirrors trace.Config for file based configuration.
type TraceConfig struct {
	SelfName         string   `mapstructure:"self_name"`
	AgentName        string   `mapstructure:"agent_name"`
	ExchangeToolName string   `mapstructure:"exchange_tool"`
	ContactArg       string   `mapstructure:"contact_arg"`
	MessageArg       string   `mapstructure:"message_arg"`
	Palette          []string `mapstructure:"palette"`
}

func (c TraceConfig) config() trace.Config {
	return trace.Config{
		SelfName:         c.SelfName,
		AgentName:        c.AgentName,
		ExchangeToolName: c.ExchangeToolName,
		ContactArg:       c.ContactArg,
		MessageArg:       c.MessageArg,
		Palette:          c.Palette,
	}
}

// cli holds the state shared by all subcommands.
type cli struct {
	cfgFile string
	v       *viper.Viper
	cfg     Config
	logger  *zap.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "tracereplay",
		Short: "Ingest agent trace streams and replay their reasoning timeline",
		Long: `tracereplay correlates the event stream of a tool using agent into a
reasoning timeline and a participant graph, persists the canonical replay log
in SQLite and rebuilds the view state at any point of that log.

Examples:
  tracereplay ingest demo --message "find shoes" --sse trace.sse
  tracereplay replay demo --upto 4 --format yaml
  tracereplay play demo --delay 300ms
  tracereplay import demo --file history.json
  tracereplay sessions`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.initialize()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default ./tracereplay.yaml)")
	flags.String("db", defaultDB, "SQLite database holding the replay logs")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	_ = c.v.BindPFlag("db", flags.Lookup("db"))
	_ = c.v.BindPFlag("log_level", flags.Lookup("log-level"))

	c.v.SetDefault("delay", replay.DefaultDelay)
	c.v.SetDefault("trace.self_name", trace.DefaultConfig.SelfName)
	c.v.SetDefault("trace.agent_name", trace.DefaultConfig.AgentName)
	c.v.SetDefault("trace.exchange_tool", trace.DefaultConfig.ExchangeToolName)
	c.v.SetDefault("trace.contact_arg", trace.DefaultConfig.ContactArg)
	c.v.SetDefault("trace.message_arg", trace.DefaultConfig.MessageArg)
	c.v.SetDefault("trace.palette", trace.DefaultPalette)

	c.v.SetEnvPrefix("AGENTTRACE")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(
		newIngestCommand(c),
		newReplayCommand(c),
		newPlayCommand(c),
		newLogCommand(c),
		newImportCommand(c),
		newSessionsCommand(c),
	)
	return root
}

// initialize reads the configuration and builds the logger.
func (c *cli) initialize() error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.SetConfigName("tracereplay")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		c.v.AddConfigPath("$HOME/.config/agenttrace")
	}
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := c.v.Unmarshal(&c.cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapLevel(logging.ParseLevel(c.cfg.LogLevel)))
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	return nil
}

// open returns a façade over the configured SQLite store. The caller closes
// the store.
func (c *cli) open() (*agenttrace.AgentTrace, *sqlite.Store, error) {
	store, err := sqlite.Open(c.cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	at := agenttrace.New(func(o *agenttrace.Options) {
		o.Store = store
		o.Trace = c.cfg.Trace.config()
		o.Logger = logging.NewZapAdapter(c.logger)
		o.Metrics = metrics.Default()
	})
	return at, store, nil
}

func zapLevel(l logging.LogLevel) zapcore.Level {
	switch l {
	case logging.LogLevelDebug:
		return zapcore.DebugLevel
	case logging.LogLevelWarn:
		return zapcore.WarnLevel
	case logging.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
