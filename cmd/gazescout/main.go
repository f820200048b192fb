package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/csheth/gazescout/internal/config"
	"github.com/csheth/gazescout/internal/gaze"
	"github.com/csheth/gazescout/internal/llm"
	"github.com/csheth/gazescout/internal/probe"
	"github.com/csheth/gazescout/internal/session"
	"github.com/csheth/gazescout/internal/tui"
)

const shutdownTimeout = 3 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "gazescout:", err)
		os.Exit(1)
	}
}

type cli struct {
	viper      *viper.Viper
	configPath string
}

// flagBindings maps config keys to the flags that override them.
var flagBindings = map[string]string{
	"bridge.addr":   "bridge-addr",
	"llm.endpoint":  "llm-endpoint",
	"llm.model":     "llm-model",
	"ready.timeout": "ready-timeout",
	"language":      "lang",
	"ui.log_file":   "log-file",
}

func newRootCommand() *cobra.Command {
	return newCLI().command()
}

func newCLI() *cli {
	return &cli{viper: config.NewViper()}
}

func (c *cli) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gazescout",
		Short: "Record where you look on a web page and review it as a heatmap",
		Long: "gazescout serves a companion page that runs a webcam gaze tracker. Enter a URL,\n" +
			"calibrate by clicking the dots, browse the page, then review a heatmap and an\n" +
			"optional LLM usability analysis.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.resolve(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&c.configPath, "config", "", "config file (yaml, toml or json)")
	flags.String("bridge-addr", config.DefaultBridgeAddr, "address the companion page is served on")
	flags.String("llm-endpoint", llm.DefaultEndpoint, "OpenAI-compatible chat completions endpoint")
	flags.String("llm-model", llm.DefaultModel, "model used for the UX analysis")
	flags.Duration("ready-timeout", config.DefaultReadyTimeout, "how long to wait for the camera to start")
	flags.String("lang", config.DefaultLanguage, "language for messages and the analysis prompt (en or es)")
	flags.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	flags.String("log-file", "", "write logs to this file instead of discarding them")
	for key, name := range flagBindings {
		_ = c.viper.BindPFlag(key, flags.Lookup(name))
	}

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func (c *cli) resolve(cmd *cobra.Command) (config.Config, error) {
	if noAlt, _ := cmd.Flags().GetBool("no-alt-screen"); noAlt {
		c.viper.Set("ui.alt_screen", false)
	}
	return config.Load(c.viper, c.configPath)
}

func setupLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "gazescout")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return func() { _ = f.Close() }, nil
}

func run(ctx context.Context, cfg config.Config) error {
	closeLog, err := setupLogging(cfg.UI.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	bridge := gaze.New(gaze.Config{Addr: cfg.Bridge.Addr, AllowedOrigins: cfg.Bridge.AllowedOrigins})
	if err := bridge.Listen(); err != nil {
		return fmt.Errorf("start companion page: %w", err)
	}
	dispatcher := tui.NewDispatcher()
	bridge.OnEvent(dispatcher.Event)

	var prober tui.Prober
	if cfg.Probe.Enabled {
		prober = probe.New(&http.Client{Timeout: cfg.Probe.Timeout})
	}
	analyzer := llm.New(llm.Config{
		Model:       cfg.LLM.Model,
		Endpoint:    cfg.LLM.Endpoint,
		Temperature: cfg.LLM.Temperature,
		HTTPClient:  &http.Client{Timeout: cfg.LLM.Timeout},
	})

	model := tui.New(tui.Config{
		Source:          bridge,
		Publisher:       bridge,
		Analyzer:        analyzer,
		Prober:          prober,
		Dispatcher:      dispatcher,
		Messages:        session.NewCatalog(cfg.Language),
		CompanionURL:    bridge.URL(),
		ReadyTimeout:    cfg.Ready.Timeout,
		ReadyInterval:   cfg.Ready.Interval,
		AnalysisTimeout: cfg.LLM.Timeout,
		ProbeTimeout:    cfg.Probe.Timeout,
		Logger:          log.Default(),
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, opts...)
	dispatcher.Attach(program)
	log.Printf("[main] companion page at %s (model=%s, lang=%s)", bridge.URL(), cfg.LLM.Model, cfg.Language)

	var g errgroup.Group
	g.Go(func() error {
		if err := bridge.Serve(); err != nil {
			program.Quit()
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := bridge.Shutdown(shutdownCtx); err != nil {
				log.Printf("[main] bridge shutdown: %v", err)
			}
		}()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("program error: %w", err)
		}
		return nil
	})
	return g.Wait()
}
