package notefolio

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Parse parses command line arguments into a command and the shared
// configuration. Configuration comes from the environment (and a .env file
// when present); flags select and scope the command.
func Parse(args []string) (Command, *Config, error) {
	flagSet := flag.NewFlagSet("notefolio", flag.ContinueOnError)

	var (
		owner   = flagSet.String("owner", "", "User id to watch (watch command)")
		folder  = flagSet.String("folder", "", "Folder id to watch (watch command)")
		feed    = flagSet.Bool("feed", false, "Watch the public feed (watch command)")
		folders = flagSet.Bool("folders", false, "Watch the folder list (watch command)")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remaining := flagSet.Args()
	if len(remaining) == 0 {
		return nil, nil, fmt.Errorf(`subcommand required

Usage: notefolio [flags] <command>

Commands:
  run       Start the notefolio server
  migrate   Apply table and index definitions
  watch     Tail a live collection to stdout

Examples:
  notefolio run
  notefolio migrate
  notefolio -owner 6fa1b0ee-... watch
  notefolio -owner 6fa1b0ee-... -folders watch
  notefolio -feed watch`)
	}

	// A .env file is a development convenience; its absence is not an
	// error.
	_ = godotenv.Load()
	config := ConfigFromEnv()

	var cmd Command
	switch remaining[0] {
	case "run":
		cmd = &RunCommand{}
	case "migrate":
		cmd = &MigrateCommand{}
	case "watch":
		cmd = &WatchCommand{
			Owner:   *owner,
			Folder:  *folder,
			Feed:    *feed,
			Folders: *folders,
		}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: run, migrate, watch", remaining[0])
	}

	return cmd, config, nil
}

// Main is the application entry point, extracted from the cmd binary so
// tests can drive it with arguments and a context.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return err
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	app, err := New(ctx, config, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *RunCommand:
		return app.Run(ctx, c)
	case *MigrateCommand:
		return app.Migrate(ctx, c)
	case *WatchCommand:
		return app.Watch(ctx, c)
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}
}
