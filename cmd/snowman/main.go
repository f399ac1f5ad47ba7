// Command snowman plays the snowman take: it builds the figure, runs the
// timing table through the director and optionally films, reports, streams
// and shows it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/teranos/snowcam"
	"github.com/teranos/snowcam/snowman"
)

type options struct {
	configPath  string
	timing      string
	film        string
	every       int
	report      string
	baseline    string
	setBaseline bool
	fast        bool
	tui         bool
	window      bool
	mqttURL     string
	watch       bool
	dumpTiming  bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML config file.")
	flag.StringVar(&o.timing, "timing", "", "Timing table replacing the built-in take.")
	flag.StringVar(&o.film, "film", "", "Directory to film PNG stills into; cleared before each take.")
	flag.IntVar(&o.every, "every", 0, "Film every Nth frame (stage ends are always filmed).")
	flag.StringVar(&o.report, "report", "", "Directory for HTML take reports.")
	flag.StringVar(&o.baseline, "baseline", "", "Baseline film to compare the film against.")
	flag.BoolVar(&o.setBaseline, "set-baseline", false, "Replace the baseline with this take's film.")
	flag.BoolVar(&o.fast, "fast", false, "Ignore stage delays.")
	flag.BoolVar(&o.tui, "tui", false, "Show the take in the terminal.")
	flag.BoolVar(&o.window, "window", false, "Show the take in a desktop window (builds with -tags window).")
	flag.StringVar(&o.mqttURL, "mqtt", "", "Stream frames to this MQTT broker, e.g. tcp://localhost:1883.")
	flag.BoolVar(&o.watch, "watch", false, "Replay the take whenever the config or timing table changes.")
	flag.BoolVar(&o.dumpTiming, "dump-timing", false, "Print the built-in timing table and exit.")
	flag.Parse()
	return o
}

var errNoWindow = errors.New("built without window support; rebuild with -tags window")

// loadConfig reads the config file and applies flag overrides.
func loadConfig(o options) (snowcam.Config, error) {
	cfg := snowcam.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = snowcam.ReadConfigFile(o.configPath); err != nil {
			return cfg, err
		}
	}

	if o.timing != "" {
		cfg.Timing = o.timing
	}
	if o.film != "" {
		cfg.Film.Dir = o.film
	}
	if o.every > 0 {
		cfg.Film.Every = o.every
	}
	if o.report != "" {
		cfg.Report.Dir = o.report
	}
	if o.baseline != "" {
		cfg.Report.Baseline = o.baseline
	}
	if o.fast {
		cfg.Pacing = snowcam.PacingConfig{Mode: snowcam.PacingNone}
	}
	if o.tui {
		cfg.Terminal.Enabled = true
	}
	if o.window {
		cfg.Display.Enabled = true
	}
	if o.mqttURL != "" {
		cfg.MQTT.URL = o.mqttURL
	}

	if cfg.Terminal.Enabled && cfg.Display.Enabled {
		return cfg, errors.New("terminal and window output both need the main goroutine; pick one")
	}
	if cfg.Display.Enabled && o.watch {
		return cfg, errors.New("the window can only be opened once per process; -watch needs -tui or no view")
	}
	if cfg.Display.Enabled && !windowSupport {
		return cfg, errNoWindow
	}
	if o.setBaseline && cfg.Report.Baseline == "" {
		return cfg, errors.New("-set-baseline needs a baseline directory")
	}
	if cfg.Report.Baseline != "" && cfg.Film.Dir == "" {
		return cfg, errors.New("baseline comparison needs a film directory")
	}
	return cfg, cfg.Validate()
}

func main() {
	mqtt.ERROR = log.New(os.Stderr, "mqtt ", 0)

	o := parseFlags()
	if o.dumpTiming {
		if err := snowman.DefaultTimingTable().Write(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	var client mqtt.Client
	if cfg.MQTT.URL != "" {
		if client, err = dialMQTT(cfg.MQTT); err != nil {
			return err
		}
		defer client.Disconnect(250)
	}

	if !o.watch {
		return take(ctx, cfg, o, client)
	}
	return watchLoop(ctx, cfg, o, client)
}

// watchLoop replays the take after every change to the config, the timing
// table or a script next to it, until ctx ends.
func watchLoop(ctx context.Context, cfg snowcam.Config, o options, client mqtt.Client) error {
	var paths []string
	if o.configPath != "" {
		paths = append(paths, o.configPath)
	}
	if cfg.Timing != "" {
		paths = append(paths, cfg.Timing)
	}
	if len(paths) == 0 {
		return errors.New("-watch needs -config or -timing")
	}

	watcher, err := snowcam.NewWatcher(paths...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	for {
		if err := take(ctx, cfg, o, client); err != nil {
			log.Printf("⚠️  %v", err)
		}
		log.Printf("👀 watching %v", paths)

		select {
		case <-ctx.Done():
			return nil
		case err := <-watcher.Errors:
			return fmt.Errorf("watch: %w", err)
		case name, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			log.Printf("🔄 %s changed", name)
		}

		next, err := loadConfig(o)
		if err != nil {
			log.Printf("⚠️  keeping previous config: %v", err)
			continue
		}
		cfg = next
	}
}
