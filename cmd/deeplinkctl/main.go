package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/BrandonKowalski/deeplink/pkg/deeplink"
	"github.com/BrandonKowalski/deeplink/pkg/deeplink/constants"
	"github.com/BrandonKowalski/deeplink/pkg/deeplink/dispatch"
	"github.com/BrandonKowalski/deeplink/pkg/deeplink/router"
)

// Set via ldflags at build time
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, lang string

	rootCmd := &cobra.Command{
		Use:          "deeplinkctl",
		Short:        "Replay deep links against a simulated screen tree",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv(constants.ConfigPathEnvVar), "Path to a deeplink TOML config")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", os.Getenv(constants.LangEnvVar), "Output language, e.g. de or de_DE.UTF-8")

	loadConfig := func() (deeplink.Config, error) {
		cfg, err := deeplink.LoadConfig(configPath)
		if err != nil {
			return deeplink.Config{}, err
		}
		cfg.Apply()
		return cfg, nil
	}

	loadMessages := func() (*messages, error) {
		return newMessages(lang)
	}

	rootCmd.AddCommand(openCmd(loadConfig, loadMessages))
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(configCmd(loadConfig))
	return rootCmd
}

func openCmd(loadConfig func() (deeplink.Config, error), loadMessages func() (*messages, error)) *cobra.Command {
	var (
		scenePath string
		animated  bool
		rootDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "open <link>...",
		Short: "Open links in order and print the resulting stack",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer deeplink.CloseLogger()

			msgs, err := loadMessages()
			if err != nil {
				return err
			}

			sc, err := LoadScene(scenePath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("root-delay") {
				sc.RootDelay.Duration = rootDelay
			}

			return runOpen(cmd.Context(), cmd.OutOrStdout(), msgs, sc, cfg, args, animated)
		},
	}

	cmd.Flags().StringVar(&scenePath, "scene", "scene.toml", "Path to the scene TOML file")
	cmd.Flags().BoolVar(&animated, "animated", false, "Request animated transitions")
	cmd.Flags().DurationVar(&rootDelay, "root-delay", 0, "Present the root screen after this delay (overrides the scene)")
	return cmd
}

// runOpen drives a navigator and router on a dispatch loop, the way a host
// with a dedicated UI thread would.
func runOpen(ctx context.Context, out io.Writer, msgs *messages, sc *Scene, cfg deeplink.Config, links []string, animated bool) error {
	loop := dispatch.New(0)
	loop.Start(ctx)
	defer loop.Close()

	var (
		nav        *deeplink.Navigator
		r          *router.Router
		rootScreen router.Screen
	)
	if err := loop.Do(ctx, func() {
		nav = deeplink.New(cfg.Options()...)
		r, rootScreen = sc.Build()
		r.Observe(nav)
		r.OnTransition(func(t router.Transition) {
			fmt.Fprintf(out, "  %s %s\n", t.Kind, t.Segment)
		})
	}); err != nil {
		return err
	}

	rootReady := make(chan error, 1)
	presentRoot := func() {
		root, err := r.Root(rootScreen, sc.RootSegment())
		if err == nil {
			_, err = nav.Register(root, sc.RootSegment())
		}
		rootReady <- err
	}

	if sc.RootDelay.Duration <= 0 {
		if err := loop.Do(ctx, presentRoot); err != nil {
			return err
		}
	} else {
		timer := time.AfterFunc(sc.RootDelay.Duration, func() {
			_ = loop.Post(presentRoot)
		})
		defer timer.Stop()
	}

	for _, link := range links {
		if err := loop.Do(ctx, func() {
			fmt.Fprintln(out, msgs.text(msgOpen, map[string]any{"Link": link}))
			err := nav.NavigateURL(link, animated)
			_, pending := nav.Pending()
			fmt.Fprintf(out, "  => %s\n", msgs.describe(err, pending))
		}); err != nil {
			return err
		}
	}

	select {
	case err := <-rootReady:
		if err != nil {
			return fmt.Errorf("present root: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return loop.Do(ctx, func() {
		fmt.Fprintln(out, msgs.text(msgStack, map[string]any{"Path": nav.Stack().Path().String()}))
		if route, ok := nav.Pending(); ok {
			fmt.Fprintln(out, msgs.text(msgPendingFor, map[string]any{
				"Path":     route.Path.String(),
				"Attempts": route.Attempts,
			}))
		}
		nav.Close()
	})
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <link>...",
		Short: "Print the segments a deep-link URL parses into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var failed bool
			for _, link := range args {
				p, err := deeplink.ParseURL(link)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", link, err)
					failed = true
					continue
				}
				fmt.Fprintf(out, "%s: [%s]\n", link, strings.Join(p, ", "))
			}
			if failed {
				return deeplink.ErrInvalidPath
			}
			return nil
		},
	}
}

func configCmd(loadConfig func() (deeplink.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}
