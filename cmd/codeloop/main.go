package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/lwmacct/251216-go-pkg-codeloop/internal/app"
	"github.com/lwmacct/251216-go-pkg-codeloop/internal/config"
	"github.com/lwmacct/251216-go-pkg-codeloop/internal/logs"
	"github.com/lwmacct/251216-go-pkg-codeloop/internal/printer"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}
	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

// Flags holds values shared by the root action and subcommands.
type Flags struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	Prompt     string
	Provider   string
	Model      string
	FailFast   bool
	Timeout    time.Duration

	Config *config.Config
	Logger *logs.Logger
}

func main() {
	var (
		p     = printer.New(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
		flags = &Flags{}
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := &cli.Command{
		Name:      "codeloop",
		Usage:     "Let a language model write code and iterate on the execution results",
		UsageText: "codeloop [global options] [command]",
		Description: `codeloop sends a prompt to a language model, runs the code blocks in its
reply inside a sandbox and feeds the results back until the model answers
without code.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("CODELOOP_CONFIG"),
				Value:       "codeloop.yaml",
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("CODELOOP_LOG_LEVEL"),
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to JSON log file (optional)",
				Sources:     cli.EnvVars("CODELOOP_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "prompt",
				Aliases:     []string{"p"},
				Usage:       "initial prompt, read from stdin when empty",
				Destination: &flags.Prompt,
			},
			&cli.StringFlag{
				Name:        "provider",
				Usage:       "completion provider (openai, gemini, lwagent, mock)",
				Sources:     cli.EnvVars("CODELOOP_PROVIDER"),
				Destination: &flags.Provider,
			},
			&cli.StringFlag{
				Name:        "model",
				Usage:       "model name",
				Sources:     cli.EnvVars("CODELOOP_MODEL"),
				Destination: &flags.Model,
			},
			&cli.BoolFlag{
				Name:        "fail-fast",
				Usage:       "stop the conversation on the first handler failure",
				Destination: &flags.FailFast,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "overall conversation timeout",
				Destination: &flags.Timeout,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath, config.Overrides{
				Provider: flags.Provider,
				Model:    flags.Model,
				Timeout:  flags.Timeout,
				FailFast: flags.FailFast,
				LogLevel: flags.LogLevel,
				LogFile:  flags.LogFile,
			})
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			level, _ := config.ParseLevel(cfg.Log.Level)
			logger, err := logs.New(logs.Options{Level: level, File: cfg.Log.File})
			if err != nil {
				return ctx, err
			}
			flags.Logger = logger
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 0 {
				return fmt.Errorf("unknown command %q. Run 'codeloop --help' for usage", c.Args().First())
			}
			return run(ctx, flags, p)
		},
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Print the effective configuration as YAML",
				Action: func(ctx context.Context, c *cli.Command) error {
					return dumpConfig(os.Stdout, flags.Config)
				},
			},
		},
	}

	exitCode := 0
	if err := cmd.Run(ctx, os.Args); err != nil {
		p.FatalError(err)
		exitCode = 1
	}

	stop()
	if flags.Logger != nil {
		_ = flags.Logger.Close()
	}
	os.Exit(exitCode)
}

func run(ctx context.Context, flags *Flags, p *printer.Printer) error {
	prompt, err := initialPrompt(flags.Config, flags.Prompt, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	started := time.Now()
	result, err := app.Run(ctx, flags.Config, prompt, app.Options{
		Logger: flags.Logger.Logger,
		Output: os.Stdout,
		OnFailure: func(herr *actor.HandlerError) {
			p.Errorf("%s", herr.Error())
		},
	})
	if result != nil {
		p.Section("\nSummary")
		p.Item("messages", len(result.Transcript))
		p.Item("executions", result.Executions)
		p.Item("failures", len(result.Failures))
		p.Item("duration", time.Since(started).Round(time.Millisecond))
	}
	if err != nil {
		return err
	}
	if result.Failed() {
		return fmt.Errorf("%d handler failure(s) reported", len(result.Failures))
	}

	p.Successf("conversation converged")
	return nil
}

// initialPrompt reads the operator input and wraps it in the configured prompt template.
func initialPrompt(cfg *config.Config, flag string, in *os.File, out io.Writer) (string, error) {
	input, err := readPrompt(flag, in, out)
	if err != nil {
		return "", err
	}
	return cfg.FormatPrompt(input), nil
}

// readPrompt returns flag when set, otherwise one line from a terminal or all piped input.
func readPrompt(flag string, in *os.File, out io.Writer) (string, error) {
	if flag != "" {
		return flag, nil
	}

	var prompt string
	if term.IsTerminal(int(in.Fd())) {
		_, _ = io.WriteString(out, ">> ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		prompt = line
	} else {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		prompt = string(data)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("empty prompt; pass --prompt or write it to stdin")
	}
	return prompt, nil
}

// dumpConfig writes cfg as YAML with the API key masked.
func dumpConfig(w io.Writer, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	masked := *cfg
	if masked.APIKey != "" {
		masked.APIKey = "********"
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(masked); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
