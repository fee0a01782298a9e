// Package config loads the ledmotion configuration from YAML, then applies
// overrides from the environment and any .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/matt-g-everett/ledmotion/logger"
	"gopkg.in/yaml.v2"
)

// Env prefix for overrides.
const envPrefix = "LEDMOTION_"

type Topics struct {
	Stream     string `yaml:"stream"`
	Rules      string `yaml:"rules"`
	Animations string `yaml:"animations"`
}

type Mqtt struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"clientId"`
	FrameQos byte   `yaml:"frameQos"`
	Topics   Topics `yaml:"topics"`
}

// Segment names a range of strip pixels that timelines can target.
type Segment struct {
	Name     string `yaml:"name"`
	Start    int    `yaml:"start"`
	Length   int    `yaml:"length"`
	Gradient string `yaml:"gradient"`
}

type Strip struct {
	Pixels     int       `yaml:"pixels"`
	FrameRate  int       `yaml:"frameRate"`
	Background string    `yaml:"background"`
	Segments   []Segment `yaml:"segments"`
}

type Engine struct {
	TickHz           int  `yaml:"tickHz"`
	AllowDeclarative bool `yaml:"allowDeclarative"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Timelines struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// Config is the full application configuration.
type Config struct {
	Mqtt      Mqtt          `yaml:"mqtt"`
	Strip     Strip         `yaml:"strip"`
	Engine    Engine        `yaml:"engine"`
	HTTP      HTTP          `yaml:"http"`
	Log       logger.Config `yaml:"log"`
	Timelines Timelines     `yaml:"timelines"`
}

// Default returns the configuration used for anything a file leaves out.
func Default() *Config {
	c := new(Config)
	c.Mqtt.URL = "tcp://localhost:1883"
	c.Mqtt.FrameQos = 0
	c.Mqtt.Topics = Topics{
		Stream:     "home/xmastree/stream",
		Rules:      "home/xmastree/rules",
		Animations: "home/xmastree/animations",
	}
	c.Strip.Pixels = 500
	c.Strip.FrameRate = 30
	c.Strip.Background = "#000005"
	c.Engine.TickHz = 60
	c.HTTP.Addr = ":3000"
	c.Log.Level = "info"
	c.Timelines.Dir = "timelines"
	return c
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string, envFiles ...string) (*Config, error) {
	c := Default()
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := c.decode(f); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.finish()
	return c, c.Validate()
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, err
	}
	c.finish()
	return c, c.Validate()
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.SetStrict(true)
	err := decoder.Decode(c)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// loadEnvFiles loads .env style files without overriding variables that are
// already set. Missing files are skipped.
func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		err := godotenv.Load(file)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return nil
}

func getEnv(key string, value *string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*value = v
	}
}

func getEnvInt(key string, value *int) error {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*value = n
	return nil
}

func getEnvBool(key string, value *bool) error {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*value = b
	return nil
}

func (c *Config) applyEnv() error {
	getEnv("MQTT_URL", &c.Mqtt.URL)
	getEnv("MQTT_USERNAME", &c.Mqtt.Username)
	getEnv("MQTT_PASSWORD", &c.Mqtt.Password)
	getEnv("MQTT_CLIENT_ID", &c.Mqtt.ClientID)
	getEnv("HTTP_ADDR", &c.HTTP.Addr)
	getEnv("LOG_LEVEL", &c.Log.Level)
	getEnv("LOG_PATH", &c.Log.OutputPath)
	getEnv("TIMELINES_DIR", &c.Timelines.Dir)
	if err := getEnvInt("PIXELS", &c.Strip.Pixels); err != nil {
		return err
	}
	if err := getEnvInt("FRAME_RATE", &c.Strip.FrameRate); err != nil {
		return err
	}
	if err := getEnvBool("ALLOW_DECLARATIVE", &c.Engine.AllowDeclarative); err != nil {
		return err
	}
	return getEnvBool("TIMELINES_WATCH", &c.Timelines.Watch)
}

func (c *Config) finish() {
	if c.Mqtt.ClientID == "" {
		c.Mqtt.ClientID = "ledmotion-" + uuid.NewString()
	}
	if len(c.Strip.Segments) == 0 {
		c.Strip.Segments = []Segment{{Name: "all", Start: 0, Length: c.Strip.Pixels}}
	}
}

// Validate checks the values the rest of the program relies on.
func (c *Config) Validate() error {
	if c.Mqtt.URL == "" {
		return errors.New("mqtt url is required")
	}
	if c.Mqtt.FrameQos > 2 {
		return fmt.Errorf("mqtt frame qos %d out of range", c.Mqtt.FrameQos)
	}
	if c.Strip.Pixels <= 0 {
		return fmt.Errorf("strip pixels must be positive, got %d", c.Strip.Pixels)
	}
	if c.Strip.FrameRate <= 0 {
		return fmt.Errorf("strip frame rate must be positive, got %d", c.Strip.FrameRate)
	}
	if c.Engine.TickHz < 0 {
		return fmt.Errorf("engine tick rate must not be negative, got %d", c.Engine.TickHz)
	}
	return nil
}
