package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicone/internal/services"
	"github.com/desertthunder/musicone/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        services.SongService
	ownsAPI    bool
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	status     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        services.SongService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Status     io.Writer // spinner and progress output, defaults to stderr
}

// NewRunner creates a new Runner with the provided configuration
//
// Without an API, one is built from the config's backend section.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		status:     opts.Status,
	}
	if r.api == nil {
		r.ownsAPI = true
		r.api = r.newAPI()
	}
	return r
}

func (r *Runner) newAPI() *services.APIService {
	b := r.config.Backend
	return services.NewAPIService(b.URL, r.httpClient,
		services.WithLogger(r.logger),
		services.WithInfoPolicy(services.Policy{Timeout: b.Info.Timeout(), Retries: b.Info.Retries}),
		services.WithDownloadPolicy(services.Policy{Timeout: b.Download.Timeout(), Retries: b.Download.Retries}),
	)
}

// Configure is the root command's Before hook.
//
// It loads the config file named by --config when it exists, applies .env and environment
// overrides, validates the result and sets the log level (--verbose forces debug).
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.configPath = path
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	env, err := shared.LoadEnv()
	if err != nil {
		return ctx, err
	}
	env.Apply(r.config)

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	if r.ownsAPI {
		r.api = r.newAPI()
	}
	r.logger.Debug("configured", "backend", r.config.Backend.URL, "config", r.configPath)
	return ctx, nil
}

// SetLogger replaces the logger, rebuilding the owned API client so its attempts log there too.
func (r *Runner) SetLogger(l *log.Logger) {
	shared.SetLogLevel(l, r.logger.GetLevel())
	r.logger = l
	if r.ownsAPI {
		r.api = r.newAPI()
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		infoCommand, downloadCommand, tuiCommand, serveCommand, pingCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
