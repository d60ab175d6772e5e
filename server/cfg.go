package server

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/pathfinder/model"
	"github.com/zucenko/pathfinder/solver"
	"gopkg.in/yaml.v3"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port          string        `yaml:"port"`
	MapFile       string        `yaml:"map_file"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	WatchBuffer   int           `yaml:"watch_buffer"`
	Search        SearchConfig  `yaml:"search"`
}

type SearchConfig struct {
	Connectivity string `yaml:"connectivity"`
	Heuristic    string `yaml:"heuristic"`
}

func DefaultConfig() Config {
	return Config{
		Port:          "8080",
		LogLevel:      "info",
		LogFormat:     "text",
		FlushInterval: 50 * time.Millisecond,
		WatchBuffer:   64,
		Search: SearchConfig{
			Connectivity: "eight",
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path skips the
// file. PORT from the environment wins over the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parsing config %s", path)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.FlushInterval <= 0 {
		return errors.Errorf("flush_interval must be positive, got %v", c.FlushInterval)
	}
	if c.WatchBuffer <= 0 {
		return errors.Errorf("watch_buffer must be positive, got %d", c.WatchBuffer)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("log_format %q, want text or json", c.LogFormat)
	}
	_, err := c.Search.Options()
	return err
}

// ApplyLogging configures the global logrus logger.
func (c Config) ApplyLogging() {
	if level, err := log.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func (sc SearchConfig) Options() ([]solver.Option, error) {
	opts := make([]solver.Option, 0, 2)
	connectivity := solver.EightWay
	switch strings.ToLower(sc.Connectivity) {
	case "", "eight", "8":
	case "four", "4":
		connectivity = solver.FourWay
	default:
		return nil, errors.Errorf("search.connectivity %q, want eight or four", sc.Connectivity)
	}
	opts = append(opts, solver.WithConnectivity(connectivity))
	switch strings.ToLower(sc.Heuristic) {
	case "":
	case "chebyshev":
		opts = append(opts, solver.WithHeuristic(solver.Chebyshev))
	case "manhattan":
		// overestimates once diagonal moves cost 1
		if connectivity == solver.EightWay {
			return nil, errors.New("search.heuristic manhattan needs search.connectivity four")
		}
		opts = append(opts, solver.WithHeuristic(solver.Manhattan))
	default:
		return nil, errors.Errorf("search.heuristic %q, want chebyshev or manhattan", sc.Heuristic)
	}
	return opts, nil
}

// LoadMapFile loads a map file into grid.
func LoadMapFile(path string, grid *model.Grid) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening map")
	}
	defer file.Close()
	if err := grid.Load(file); err != nil {
		log.Warnf("failed loading map %s: %v", path, err)
		return err
	}
	log.Infof("loaded map %s %dx%d", path, grid.Rows(), grid.Columns())
	return nil
}
