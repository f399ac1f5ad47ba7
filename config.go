package snowcam

import (
	"fmt"
	"io"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/teranos/snowcam/trip"
)

// Config is the YAML configuration of a snowcam run.
//
//	window: {width: 500, height: 500}
//	background: "#1a3366"
//	timing: timing.yaml
//	pacing: {mode: clock, fps: 60}
//	film: {dir: film, every: 10, workers: 4, caption: true}
//	mqtt: {url: tcp://localhost:1883, topic: snowcam/frame, width: 64, height: 64}
type Config struct {
	Window     WindowConfig   `yaml:"window"`
	Background Color          `yaml:"background"`
	Timing     string         `yaml:"timing,omitempty"`
	Pacing     PacingConfig   `yaml:"pacing"`
	Film       FilmConfig     `yaml:"film"`
	Report     ReportConfig   `yaml:"report"`
	Terminal   TerminalConfig `yaml:"terminal"`
	Display    DisplayConfig  `yaml:"display"`
	MQTT       MQTTConfig     `yaml:"mqtt"`
}

type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// FilmConfig controls PNG capture of frames. An empty Dir disables filming.
type FilmConfig struct {
	Dir     string  `yaml:"dir,omitempty"`
	Every   int     `yaml:"every"`
	Workers int     `yaml:"workers"`
	Caption bool    `yaml:"caption"`
	Scale   float64 `yaml:"scale"`
}

// ReportConfig controls the HTML take report and film comparison.
type ReportConfig struct {
	Dir       string  `yaml:"dir,omitempty"`
	Baseline  string  `yaml:"baseline,omitempty"`
	Tolerance float64 `yaml:"tolerance"`
}

type TerminalConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
}

type DisplayConfig struct {
	Enabled bool    `yaml:"enabled"`
	Scale   float64 `yaml:"scale"`
}

// MQTTConfig mirrors the broker settings of an LED matrix streamer.
type MQTTConfig struct {
	URL      string `yaml:"url,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	ClientID string `yaml:"client_id,omitempty"`
	Topic    string `yaml:"topic"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	QoS      byte   `yaml:"qos"`
}

// Color is a colorful.Color written as a "#rrggbb" string in YAML.
type Color struct {
	colorful.Color
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	parsed, err := colorful.Hex(value.Value)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", value.Value, err)
	}
	c.Color = parsed
	return nil
}

func (c Color) MarshalYAML() (interface{}, error) {
	return c.Hex(), nil
}

// DefaultConfig returns the settings of the original snowman take.
func DefaultConfig() Config {
	return Config{
		Window:     WindowConfig{Width: 500, Height: 500},
		Background: Color{colorful.Color{R: 0.1, G: 0.2, B: 0.4}},
		Pacing:     PacingConfig{Mode: PacingSleep},
		Film:       FilmConfig{Every: 1, Workers: 4, Caption: true, Scale: 1},
		Report:     ReportConfig{Tolerance: 0.5},
		Terminal:   TerminalConfig{Width: 80},
		Display:    DisplayConfig{Scale: 1},
		MQTT:       MQTTConfig{ClientID: "snowcam", Topic: "snowcam/frame", Width: 64, Height: 64},
	}
}

// LoadConfig decodes YAML over DefaultConfig. An empty document yields
// the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, trip.NewTrip(trip.TypeConfig, "invalid config", nil).WithCause(err)
	}
	return cfg, cfg.Validate()
}

// ReadConfigFile loads the config at path.
func ReadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate reports the first inconsistent setting as a config trip.
func (c Config) Validate() error {
	bad := func(field string, value interface{}, msg string) error {
		return trip.NewTrip(trip.TypeConfig, msg, trip.Context{
			"field": field,
			"value": value,
		})
	}

	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return bad("window", fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height), "window size must be positive")
	case c.Film.Every < 1:
		return bad("film.every", c.Film.Every, "film.every must be at least 1")
	case c.Film.Workers < 1:
		return bad("film.workers", c.Film.Workers, "film.workers must be at least 1")
	case c.Film.Scale <= 0 || c.Film.Scale > 1:
		return bad("film.scale", c.Film.Scale, "film.scale must be in (0, 1]")
	case c.Report.Tolerance < 0 || c.Report.Tolerance > 100:
		return bad("report.tolerance", c.Report.Tolerance, "report.tolerance is a percentage")
	case c.Terminal.Width < 2:
		return bad("terminal.width", c.Terminal.Width, "terminal.width must be at least 2")
	case c.Display.Scale <= 0:
		return bad("display.scale", c.Display.Scale, "display.scale must be positive")
	case c.MQTT.URL != "" && c.MQTT.Topic == "":
		return bad("mqtt.topic", c.MQTT.Topic, "mqtt.topic is required with mqtt.url")
	case c.MQTT.Width <= 0 || c.MQTT.Width > 0xffff || c.MQTT.Height <= 0 || c.MQTT.Height > 0xffff:
		return bad("mqtt", fmt.Sprintf("%dx%d", c.MQTT.Width, c.MQTT.Height), "mqtt frame size out of range")
	case c.MQTT.QoS > 2:
		return bad("mqtt.qos", c.MQTT.QoS, "mqtt.qos must be 0, 1 or 2")
	}

	if _, err := PacerFor(c.Pacing); err != nil {
		return trip.NewTrip(trip.TypeConfig, "invalid pacing", trip.Context{"field": "pacing"}).WithCause(err)
	}
	return nil
}

// Write encodes the config as YAML.
func (c Config) Write(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return err
	}
	return encoder.Close()
}
