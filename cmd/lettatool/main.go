package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/lettatool/internal/config"
	"github.com/kazz187/lettatool/internal/toolset"
	"github.com/kazz187/lettatool/pkg/cerr"
	"github.com/kazz187/lettatool/pkg/clog"
	"github.com/kazz187/lettatool/pkg/panicerr"
)

// cli holds the parsed command line.
type cli struct {
	app    *kingpin.Application
	stdout io.Writer

	listCmd     *kingpin.CmdClause
	listAgentID *string
	listFormat  *string

	attachCmd     *kingpin.CmdClause
	attachToolID  *string
	attachAgentID *string

	detachCmd     *kingpin.CmdClause
	detachToolID  *string
	detachAgentID *string

	replaceCmd     *kingpin.CmdClause
	replaceOldID   *string
	replaceNewID   *string
	replaceAgentID *string

	pullCmd     *kingpin.CmdClause
	pullAgentID *string

	uploadCmd      *kingpin.CmdClause
	uploadName     *string
	uploadAttachTo *string
	uploadTags     *[]string

	dryRun *bool
}

func newCLI(stdout io.Writer) *cli {
	c := &cli{stdout: stdout}
	app := kingpin.New("lettatool", "Manage the tools attached to Letta agents.")
	app.UsageWriter(stdout)
	app.ErrorWriter(stdout)
	app.HelpFlag.Short('h')
	c.app = app

	c.dryRun = app.Flag("dry-run", "Show the tool list change without applying it.").Bool()

	c.listCmd = app.Command("list", "List tools attached to an agent.")
	c.listAgentID = c.listCmd.Arg("agent-id", "Agent ID (default $LETTA_AGENT_ID).").String()
	c.listFormat = c.listCmd.Flag("format", "Output format.").Short('o').Default(string(toolset.FormatText)).Enum(toolset.Formats...)

	c.attachCmd = app.Command("attach", "Attach a tool to an agent.")
	c.attachToolID = c.attachCmd.Arg("tool-id", "Tool ID to attach.").Required().String()
	c.attachAgentID = c.attachCmd.Arg("agent-id", "Agent ID (default $LETTA_AGENT_ID).").String()

	c.detachCmd = app.Command("detach", "Detach a tool from an agent.")
	c.detachToolID = c.detachCmd.Arg("tool-id", "Tool ID to detach.").Required().String()
	c.detachAgentID = c.detachCmd.Arg("agent-id", "Agent ID (default $LETTA_AGENT_ID).").String()

	c.replaceCmd = app.Command("replace", "Replace one attached tool with another.")
	c.replaceOldID = c.replaceCmd.Arg("old-tool-id", "Tool ID to replace.").Required().String()
	c.replaceNewID = c.replaceCmd.Arg("new-tool-id", "Tool ID to put in its place.").Required().String()
	c.replaceAgentID = c.replaceCmd.Arg("agent-id", "Agent ID (default $LETTA_AGENT_ID).").String()

	c.pullCmd = app.Command("pull", "Download every tool attached to an agent into the tools directory.")
	c.pullAgentID = c.pullCmd.Arg("agent-id", "Agent ID (default $LETTA_AGENT_ID).").String()

	c.uploadCmd = app.Command("upload", "Upload <name>.py and <name>.json from the tools directory as a new tool.")
	c.uploadName = c.uploadCmd.Arg("name", "Tool name.").Required().String()
	c.uploadAttachTo = c.uploadCmd.Flag("attach-to-agent", "Agent to attach the new tool to (default $LETTA_AGENT_ID).").String()
	c.uploadTags = c.uploadCmd.Flag("tag", "Tag for the new tool, repeatable (default discord, custom).").Strings()

	return c
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, config.LoadEnv)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, loadEnv func() (*config.Env, error)) int {
	c := newCLI(stdout)

	exitStatus := -1
	c.app.Terminate(func(status int) {
		if exitStatus < 0 {
			exitStatus = status
		}
	})
	if len(args) == 0 {
		return usageError(c, args, errors.New("command not specified"))
	}

	command, err := c.app.Parse(args)
	if exitStatus >= 0 && helpRequested(args) {
		return exitStatus
	}
	if err == nil && (command == "" || exitStatus >= 0) {
		// kingpin printed usage on its own and asked to exit
		err = errors.New("command not specified")
	}
	if err != nil {
		return usageError(c, args, err)
	}

	env, err := loadEnv()
	if err != nil {
		fmt.Fprintf(stdout, "error: %v\n", err)
		return 1
	}
	logger := newLogger(env, stderr)

	ctx = clog.ContextWithSlog(ctx)
	clog.AddRunID(ctx, ulid.Make().String())

	err = panicerr.Run(ctx, func(ctx context.Context) error {
		if err := env.RequireAPIKey(); err != nil {
			return err
		}
		r := &runner{cli: c, env: env, stdout: stdout, logger: logger}
		return r.dispatch(ctx, command)
	})
	if err != nil {
		return reportError(ctx, stdout, logger, err)
	}
	return 0
}

func usageError(c *cli, args []string, err error) int {
	fmt.Fprintf(c.stdout, "error: %v\n\n", err)
	c.app.Usage(args)
	return 1
}

// helpRequested reports whether kingpin stopped because help was asked for.
func helpRequested(args []string) bool {
	if len(args) > 0 && args[0] == "help" {
		return true
	}
	for _, a := range args {
		switch a {
		case "--help", "-h", "--help-long", "--help-man":
			return true
		}
	}
	return false
}

func newLogger(env *config.Env, w io.Writer) *slog.Logger {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = clog.NewTextHandler(w, clog.WithLevel(level), clog.WithColor(!color.NoColor))
	}
	logger := slog.New(clog.NewAttributesHandler(handler))
	slog.SetDefault(logger)
	return logger
}

func reportError(ctx context.Context, stdout io.Writer, logger *slog.Logger, err error) int {
	ce := cerr.Extract(err)
	logger.DebugContext(ctx, "command failed", "code", ce.Code.String(), clog.ErrorAttributeKey, err)
	if ce.Stack != "" {
		logger.DebugContext(ctx, "stack", "stack", ce.Stack)
	}
	fmt.Fprintf(stdout, "error: %s\n", describe(ce))
	if ce.Code.Fatal() {
		fmt.Fprintln(stdout, "Run 'lettatool --help' for usage.")
	}
	return ce.Code.ExitCode()
}
