// Command lmagent is a local CLI agent that converses with an
// OpenAI-compatible model server (such as LM Studio), dispatching the
// model's tool calls against the local filesystem and shell behind a
// safety gate.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localagent/lmagent/pkg/agent"
	"github.com/localagent/lmagent/pkg/config"
	"github.com/localagent/lmagent/pkg/history"
	"github.com/localagent/lmagent/pkg/model"
	"github.com/localagent/lmagent/pkg/model/lmstudio"
	"github.com/localagent/lmagent/pkg/security"
	"github.com/localagent/lmagent/pkg/tool"
	"github.com/localagent/lmagent/pkg/ui"
)

type options struct {
	url                string
	model              string
	cwd                string
	yolo               bool
	health             bool
	commandTimeout     int
	maxOutputLines     int
	maxHistoryMessages int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "lmagent",
		Short:         "Local CLI agent for an OpenAI-compatible model server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.url, "url", config.DefaultServerURL, "model server base URL")
	flags.StringVar(&opts.model, "model", "", "model name (auto-detect if omitted)")
	flags.BoolVar(&opts.yolo, "yolo", false, "skip all confirmation prompts")
	flags.StringVar(&opts.cwd, "cwd", "", "working directory for tools")
	flags.IntVar(&opts.commandTimeout, "command-timeout", config.DefaultCommandTimeoutSecs,
		"default timeout for run_command/run_python tools in seconds")
	flags.IntVar(&opts.maxOutputLines, "max-output-lines", config.DefaultMaxOutputLines,
		"maximum stdout/stderr lines kept from tool output")
	flags.IntVar(&opts.maxHistoryMessages, "max-history-messages", config.DefaultMaxHistoryMessages,
		"maximum messages retained in conversation history")
	root.Flags().BoolVar(&opts.health, "health", false, "check API connectivity and list models")

	root.AddCommand(&cobra.Command{
		Use:           "health",
		Short:         "Check API connectivity and list models",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			console := ui.NewConsole()
			client := lmstudio.New(opts.url, opts.model)
			return runHealthCheck(cmd.Context(), client, console)
		},
	})

	return root
}

func run(ctx context.Context, opts *options) error {
	config.LoadEnvFile()
	settings := config.LoadSettings(config.DefaultSettingsPath())

	cwd := opts.cwd
	if cwd == "" {
		cwd = settings.DefaultWorkingDir
	}
	cfg := &config.Config{
		URL:                opts.url,
		Model:              opts.model,
		Yolo:               opts.yolo,
		Cwd:                cwd,
		CommandTimeoutSecs: opts.commandTimeout,
		MaxOutputLines:     opts.maxOutputLines,
		MaxHistoryMessages: opts.maxHistoryMessages,
	}
	console := ui.NewConsole()
	if err := cfg.Validate(); err != nil {
		console.Error(err.Error())
		return err
	}
	if err := os.MkdirAll(cfg.Cwd, 0o755); err != nil {
		console.Error("Failed to create working directory: " + err.Error())
		return err
	}

	client := lmstudio.New(cfg.URL, cfg.Model)
	if opts.health {
		return runHealthCheck(ctx, client, console)
	}

	modelName, err := client.EnsureModel(ctx)
	if err != nil {
		console.Error("Failed to initialize model client: " + err.Error())
		return err
	}

	console.Banner(modelName, cfg.URL, cfg.Cwd, cfg.Yolo)
	console.Info("Type `exit` or `quit` to leave.")

	guard, err := security.NewGuard(security.Options{
		Yolo:             cfg.Yolo,
		DestructiveTools: config.DestructiveTools(),
		BlockedPatterns:  config.BlockedCommandPatterns(),
	})
	if err != nil {
		console.Error(err.Error())
		return err
	}
	registry := tool.NewRegistry(cfg.Cwd, cfg.CommandTimeoutSecs, cfg.MaxOutputLines)

	loop, err := agent.New(agent.Config{
		Client:   client,
		Registry: registry,
		Guard:    guard,
		UI:       console,
		Tools:    tool.Definitions(),
	})
	if err != nil {
		console.Error(err.Error())
		return err
	}

	inputLog, err := history.Open(history.DefaultPath())
	if err != nil {
		console.Warn("Input history disabled: " + err.Error())
	} else {
		defer inputLog.Close()
	}

	return repl(ctx, loop, console, inputLog, cfg)
}

// repl runs the prompt loop. An interrupt while waiting at the prompt
// aborts only the pending line; interrupts during a turn keep their default
// process-level behavior.
func repl(ctx context.Context, loop *agent.Agent, console *ui.Console, inputLog *history.Log, cfg *config.Config) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	interrupts := make(chan os.Signal, 1)

	messages := []model.Message{{Role: "system", Content: config.SystemPrompt}}
	for {
		fmt.Print(">>> ")
		signal.Notify(interrupts, os.Interrupt)

		var input string
		select {
		case line, ok := <-lines:
			if !ok {
				signal.Stop(interrupts)
				console.Info("Exiting.")
				return nil
			}
			input = strings.TrimSpace(line)
		case <-interrupts:
			fmt.Println()
			continue
		}
		signal.Stop(interrupts)

		if input == "" {
			continue
		}
		if lowered := strings.ToLower(input); lowered == "exit" || lowered == "quit" {
			return nil
		}
		if err := inputLog.Append(input); err != nil {
			console.Warn("Failed to record input history: " + err.Error())
		}

		messages = append(messages, model.Message{Role: "user", Content: input})
		messages = agent.TrimMessages(messages, cfg.MaxHistoryMessages)

		updated, err := loop.RunTurn(ctx, messages)
		messages = agent.TrimMessages(updated, cfg.MaxHistoryMessages)
		if err != nil {
			console.Error("Chat failed: " + err.Error())
		}
	}
}

func runHealthCheck(ctx context.Context, client *lmstudio.Client, console *ui.Console) error {
	report, err := client.HealthCheck(ctx)
	if err != nil {
		console.Error("Health check failed: " + err.Error())
		return err
	}
	console.Info(fmt.Sprintf("Server reachable: %d model(s) available.", report.ModelCount))
	for _, name := range report.Models {
		console.Info("- " + name)
	}
	return nil
}
