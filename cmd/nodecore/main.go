package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/funvibe/nodecore/internal/config"
	"github.com/mattn/go-isatty"
)

const usage = `Usage: nodecore [-config file] <command> [arguments]

Commands:
  run       -world path <function> [arg=value ...]   run a code function
  chat      -world path [-sender name] <text>        send a message to the chat triggers
  show      -world path [function ...]               print functions as code
  validate  -world path [-fix]                       check block return types
  classify  <example.json|->                         show how a JSON document is typed
  synth     <example.json|-> [path ...]              derive types from selected JSON paths
            [-world path -client name]               ...and apply them to a JSON client
  import    <world.json> <world.db>                  copy a world file into a database
  export    <world.db> <world.json>                  copy a database into a world file

A world path ending in .db or .sqlite is a SQLite database, anything else a
JSON world file. Without -world the database_path setting is used.
`

type command func(app *app, args []string) error

var commands = map[string]command{
	"run":      runCommand,
	"chat":     chatCommand,
	"show":     showCommand,
	"validate": validateCommand,
	"classify": classifyCommand,
	"synth":    synthCommand,
	"import":   importCommand,
	"export":   exportCommand,
}

// app holds what every command needs.
type app struct {
	settings config.Settings
	logger   *slog.Logger
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fail(fmt.Errorf("internal error: %v", r))
		}
	}()

	configPath := flag.String("config", "", "settings file (default nodecore.yaml if present)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || args[0] == "help" {
		flag.Usage()
		if len(args) == 0 {
			os.Exit(2)
		}
		return
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fail(fmt.Errorf("unknown command %q", args[0]))
	}

	settings, err := config.LoadSettings(*configPath)
	if err != nil {
		fail(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: settings.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cmd(&app{settings: settings, logger: logger}, args[1:]); err != nil {
		fail(err)
	}
}

func fail(err error) {
	if colorEnabled(os.Stderr) {
		fmt.Fprintf(os.Stderr, "\x1b[31mError:\x1b[0m %s\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

func colorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
