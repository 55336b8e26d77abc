// Command sfc compiles a SoundFont project into an .sf2 bank.
//
// Usage:
//
//	sfc [options]
//
// Options:
//
//	-p          Project manifest (default ./SoundFont.toml)
//	-o          Output file (overrides the settings file)
//	-c          Re-read and check the written bank
//	-audition   Play every sample of the bank after compiling
//	-stamp      Set the creation date to today when the manifest has none
//	-v, -vv     Debug or trace logging
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/hiway/sfc"
	"github.com/hiway/sfc/pkg/config"
	"github.com/hiway/sfc/pkg/player"
	"github.com/hiway/sfc/pkg/queue"
)

// stampLayout is the ICRD date format, e.g. "July 4, 1997".
const stampLayout = "January 2, 2006"

type options struct {
	manifest string
	output   string
	verify   bool
	audition bool
	stamp    bool
	debug    bool
	trace    bool
	version  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.manifest, "p", "./SoundFont.toml", "Project manifest")
	flag.StringVar(&opts.output, "o", "", "Output file (overrides the settings file)")
	flag.BoolVar(&opts.verify, "c", false, "Re-read and check the written bank")
	flag.BoolVar(&opts.audition, "audition", false, "Play every sample of the bank after compiling")
	flag.BoolVar(&opts.stamp, "stamp", false, "Set the creation date to today when the manifest has none")
	flag.BoolVar(&opts.debug, "v", false, "Debug logging")
	flag.BoolVar(&opts.trace, "vv", false, "Trace logging")
	flag.BoolVar(&opts.version, "version", false, "Print the version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compiles a SoundFont project into an .sf2 bank.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -p ./piano/SoundFont.toml -o piano.sf2\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c -audition\n", os.Args[0])
	}
	flag.Parse()

	if opts.version {
		fmt.Println("sfc", sfc.Version)
		return
	}

	log := newLogger(os.Stderr)

	if err := run(opts, log); err != nil {
		log.Error().Err(err).Msg("Compilation failed")
		os.Exit(1)
	}
}

// newLogger writes human-readable output to terminals and JSON otherwise.
func newLogger(w *os.File) zerolog.Logger {
	var out io.Writer = w
	if term.IsTerminal(int(w.Fd())) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// settingsFiles lists the settings files in order of increasing priority.
func settingsFiles(log zerolog.Logger) []string {
	files := []string{
		"/usr/local/etc/sfc.toml", // System-wide
	}

	// User config dir (e.g., ~/.config/sfc/sfc.toml)
	userConfigPath, err := xdg.ConfigFile("sfc/sfc.toml")
	if err == nil {
		files = append(files, userConfigPath)
	} else {
		log.Warn().Err(err).Msg("Could not determine user config directory")
	}

	return append(files, "./sfc.toml")
}

func run(opts options, log zerolog.Logger) error {
	switch {
	case opts.trace:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case opts.debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	settings, err := config.LoadSettings(settingsFiles(log), log)
	if err != nil {
		return err
	}
	if !opts.trace && !opts.debug {
		level, _ := zerolog.ParseLevel(settings.LogLevel)
		zerolog.SetGlobalLevel(level)
	}
	if opts.output != "" {
		settings.Output = opts.output
	}
	log.Debug().
		Str("output", settings.Output).
		Str("validation", string(settings.Validation)).
		Str("log_level", settings.LogLevel).
		Msg("Final settings")

	compiler := sfc.New(settings, log)
	if opts.stamp {
		compiler.SetStamp(time.Now().Format(stampLayout))
	}

	font, err := compiler.Build(opts.manifest, settings.Output)
	if err != nil {
		return err
	}

	if opts.verify {
		if _, err := compiler.Verify(settings.Output); err != nil {
			return err
		}
	}

	if opts.audition {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		p, err := player.NewOtoPlayer(player.DefaultSampleRate, log)
		if err != nil {
			return err
		}
		defer p.Close()

		q := queue.New("audition", settings.AuditionQueue, p, log)
		defer q.Stop()

		if err := sfc.Audition(ctx, font, q, log); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}
