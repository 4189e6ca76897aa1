package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kodelint/pipelight/internal/detach"
	"github.com/kodelint/pipelight/internal/engine"
	"github.com/kodelint/pipelight/internal/gitenv"
	"github.com/kodelint/pipelight/internal/hooks"
	"github.com/kodelint/pipelight/internal/pipeline"
	"github.com/kodelint/pipelight/internal/pipestore"
	"github.com/kodelint/pipelight/internal/printer"
	"github.com/kodelint/pipelight/internal/procexec"
	"github.com/kodelint/pipelight/internal/registry"
	"github.com/kodelint/pipelight/internal/runner"
	"github.com/kodelint/pipelight/internal/trigger"
	"github.com/kodelint/pipelight/internal/watch"
)

// globalFlags mirrors Invocation's global fields, bound directly to the
// cobra root command's persistent flag set.
type globalFlags struct {
	configPath string
	attach     bool
	verbose    int
	quiet      int
	internal   int
}

// Root builds the full pipelight command tree. log is the base logger
// before --quiet/-v are applied (-u is parsed but does not change the
// level); Execute derives the engine context lazily per invocation since
// flags aren't known until cobra parses them. abortCh, when non-nil, is
// forwarded to the runner.Execute calls of `run` and `trigger` so a signal
// observed by main supersedes an in-flight run; runs started by `watch`
// do not observe it.
func Root(log zerolog.Logger, abortCh <-chan struct{}) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "pipelight",
		Short: "Run declared shell-command pipelines from git hooks, the CLI, or a watcher.",
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", registry.DefaultFileName, "path to the pipeline config file")
	root.PersistentFlags().BoolVar(&flags.attach, "attach", false, "run in the foreground instead of detaching")
	root.PersistentFlags().CountVarP(&flags.verbose, "verbose", "v", "increase user-facing log verbosity (up to 4)")
	root.PersistentFlags().CountVarP(&flags.quiet, "quiet", "q", "silence user-facing output")
	root.PersistentFlags().CountVarP(&flags.internal, "internal-verbose", "u", "increase internal diagnostic verbosity (up to 4)")

	newEngineCtx := func() (*engine.Context, error) {
		probe := gitenv.New(log)
		projectRoot, err := probe.Teleport()
		if err != nil {
			return nil, err
		}
		cfg, err := registry.LoadOrDefault(flags.configPath)
		if err != nil {
			return nil, err
		}
		level := levelFor(flags.verbose, flags.quiet > 0)
		scoped := log.Level(level)
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
		return engine.New(scoped, shell, projectRoot, cfg), nil
	}

	root.AddCommand(
		runCmd(flags, newEngineCtx, abortCh),
		triggerCmd(flags, newEngineCtx, abortCh),
		watchCmd(newEngineCtx),
		stopCmd(newEngineCtx),
		logsCmd(newEngineCtx),
		inspectCmd(newEngineCtx),
		lsCmd(newEngineCtx),
		initCmd(newEngineCtx),
		toggleCmd(CommandEnable, newEngineCtx),
		toggleCmd(CommandDisable, newEngineCtx),
	)
	return root
}

func levelFor(verbose int, quiet bool) zerolog.Level {
	if quiet {
		return zerolog.Disabled
	}
	switch {
	case verbose >= 3:
		return zerolog.TraceLevel
	case verbose == 2:
		return zerolog.DebugLevel
	case verbose == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

type ectxFactory func() (*engine.Context, error)

func runCmd(flags *globalFlags, newCtx ectxFactory, abortCh <-chan struct{}) *cobra.Command {
	var flag string
	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Trigger the named pipeline.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ectx, err := newCtx()
			if err != nil {
				return err
			}
			p, err := ectx.Config.GetByName(args[0])
			if err != nil {
				return err
			}
			action := pipeline.ManualAction()
			if flag != "" {
				action = pipeline.HookAction(flag)
			}
			return executeOne(ectx, flags, p, pipeline.Trigger{Action: &action}, abortCh)
		},
	}
	cmd.Flags().StringVar(&flag, "flag", "", "override the triggering action (hook name)")
	return cmd
}

func triggerCmd(flags *globalFlags, newCtx ectxFactory, abortCh <-chan struct{}) *cobra.Command {
	var flag string
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Run every pipeline whose triggers match the current environment.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ectx, err := newCtx()
			if err != nil {
				return err
			}
			probe := gitenv.New(ectx.Log)
			branch, _ := probe.CurrentBranch()
			action := gitenv.CurrentAction(mustGetwd())
			if flag != "" {
				action = pipeline.HookAction(flag)
			}
			env := trigger.Env{Branch: branch, Action: action}

			eligible := trigger.Eligible(env, ectx.Config.Get())
			for _, p := range eligible {
				t := pipeline.Trigger{Action: &action, Branch: &branch}
				if err := executeOne(ectx, flags, p, t, abortCh); err != nil {
					ectx.Log.Error().Err(err).Str("pipeline", p.Name).Msg("pipeline failed to start")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flag, "flag", "", "override the triggering action (hook name)")
	return cmd
}

// executeOne resolves attach precedence and either runs the pipeline
// in-process (attached) or re-execs into a detached worker.
func executeOne(ectx *engine.Context, flags *globalFlags, p *pipeline.Pipeline, t pipeline.Trigger, abortCh <-chan struct{}) error {
	var cliAttach *bool
	if flags.attach {
		v := true
		cliAttach = &v
	}
	attach := registry.ResolveAttach(cliAttach, p, ectx.Config.Options)

	eng := runner.New(ectx)
	logs, err := eng.Store().Get()
	if err != nil {
		return err
	}
	if pipestore.HasHomologousAlreadyRunning(p.Name, nil, logs) {
		return fmt.Errorf("cli: pipeline %q already has a running instance", p.Name)
	}

	mode := runner.Mode(procexec.ModePiped)
	if !attach {
		sup := detach.New(ectx.Log)
		if _, err := sup.ReExec(os.Args[1:]); err != nil {
			return err
		}
		return nil
	}

	result, err := eng.Execute(context.Background(), p, t, runner.Options{Mode: mode, AbortCh: abortCh})
	if err != nil {
		return err
	}
	if result.Status != pipeline.StatusSucceeded {
		return fmt.Errorf("cli: pipeline %q finished with status %s", p.Name, result.Status)
	}
	return nil
}

func watchCmd(newCtx ectxFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the filesystem and trigger matching pipelines on change.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ectx, err := newCtx()
			if err != nil {
				return err
			}
			w, err := watch.New(ectx)
			if err != nil {
				return err
			}
			defer w.Close()
			return w.Run(cmd.Context())
		},
	}
}

func stopCmd(newCtx ectxFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <name>",
		Short: "Abort the latest running instance of a pipeline.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ectx, err := newCtx()
			if err != nil {
				return err
			}
			return runner.New(ectx).Stop(args[0])
		},
	}
}

func logsCmd(newCtx ectxFactory) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "logs [rm] [<name>]",
		Short: "Pretty-print or drop log artifacts.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ectx, err := newCtx()
			if err != nil {
				return err
			}
			store := runner.New(ectx).Store()

			rm, name := false, ""
			for _, a := range args {
				if a == "rm" {
					rm = true
				} else {
					name = a
				}
			}

			if rm {
				if name != "" {
					return store.RemoveByName(name)
				}
				return store.Remove()
			}

			var pipelines []*pipeline.Pipeline
			if name != "" {
				pipelines, err = store.GetManyByName(name)
			} else {
				pipelines, err = store.Get()
			}
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(pipelines)
			}
			printer.Pretty(os.Stdout, pipelines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw log JSON instead of a pretty summary")
	return cmd
}

func inspectCmd(newCtx ectxFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <name>",
		Short: "Print the resolved config for a pipeline.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ectx, err := newCtx()
			if err != nil {
				return err
			}
			p, err := ectx.Config.GetByName(args[0])
			if err != nil {
				return err
			}
			printer.Detail(os.Stdout, p)
			return nil
		},
	}
}

func lsCmd(newCtx ectxFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List declared pipelines.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ectx, err := newCtx()
			if err != nil {
				return err
			}
			for _, p := range ectx.Config.Get() {
				fmt.Println(p.Name)
			}
			return nil
		},
	}
}

func initCmd(newCtx ectxFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Install the git hook drivers (no config file is written).",
		RunE: func(cmd *cobra.Command, args []string) error {
			ectx, err := newCtx()
			if err != nil {
				return err
			}
			return hooks.Install(ectx.ProjectRoot+"/.git", hooks.WellKnown)
		},
	}
}

func toggleCmd(kind CommandKind, newCtx ectxFactory) *cobra.Command {
	use := string(kind) + " {git-hooks|watcher}"
	cmd := &cobra.Command{
		Use:   use,
		Short: "Enable or disable a pipelight-managed feature.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ectx, err := newCtx()
			if err != nil {
				return err
			}
			if Toggle(args[0]) != ToggleGitHooks {
				return fmt.Errorf("cli: watcher toggling has no persistent state to manage")
			}
			if kind == CommandEnable {
				return hooks.Install(ectx.ProjectRoot+"/.git", hooks.WellKnown)
			}
			return hooks.Uninstall(ectx.ProjectRoot+"/.git", hooks.WellKnown)
		},
	}
	return cmd
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
