// Package config loads facekiosk configuration from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Analysis modes.
const (
	ModeFace = "face"
	ModeYOLO = "yolo"
)

// Annotation styles.
const (
	StyleBox     = "box"
	StyleCorners = "corners"
)

// Config holds all facekiosk configuration.
type Config struct {
	Camera      CameraConfig      `yaml:"camera"`
	Recognition RecognitionConfig `yaml:"recognition"`
	YOLO        YOLOConfig        `yaml:"yolo"`
	Display     DisplayConfig     `yaml:"display"`
	People      PeopleConfig      `yaml:"people"`
	Motion      MotionConfig      `yaml:"motion"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Hooks       HooksConfig       `yaml:"hooks"`
	Tray        TrayConfig        `yaml:"tray"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// CameraConfig holds capture device settings.
type CameraConfig struct {
	Device  int  `yaml:"device"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
	FPS     int  `yaml:"fps"`
	Enhance bool `yaml:"enhance"`
}

// RecognitionConfig holds face recognition settings.
type RecognitionConfig struct {
	Mode         string  `yaml:"mode"`
	Tolerance    float64 `yaml:"tolerance"`
	ModelDir     string  `yaml:"model_dir"`
	GalleryDir   string  `yaml:"gallery_dir"`
	UnknownImage string  `yaml:"unknown_image"`
}

// YOLOConfig holds settings for the object-detection variant.
type YOLOConfig struct {
	ModelPath  string  `yaml:"model_path"`
	LabelsPath string  `yaml:"labels_path"`
	InputSize  int     `yaml:"input_size"`
	Confidence float64 `yaml:"confidence"`
	NMS        float64 `yaml:"nms"`
}

// DisplayConfig holds render settings.
type DisplayConfig struct {
	Title     string `yaml:"title"`
	Style     string `yaml:"style"`
	QueueSize int    `yaml:"queue_size"`
}

// PeopleConfig points at the flat person info file.
type PeopleConfig struct {
	InfoFile string `yaml:"info_file"`
}

// MotionConfig controls idle-mode frame skipping.
type MotionConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Threshold     float64 `yaml:"threshold"`
	IdleFPS       int     `yaml:"idle_fps"`
	IdleTimeoutMs int     `yaml:"idle_timeout_ms"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// StorageConfig holds the sqlite location.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`
}

// HooksConfig holds arrival hook settings.
type HooksConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// TrayConfig toggles the system tray.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration rooted at ~/.facekiosk.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".facekiosk")
	return &Config{
		Camera: CameraConfig{
			Device: 0,
			Width:  900,
			Height: 500,
			FPS:    30,
		},
		Recognition: RecognitionConfig{
			Mode:         ModeFace,
			Tolerance:    0.45,
			ModelDir:     filepath.Join(dataDir, "models"),
			GalleryDir:   filepath.Join(dataDir, "known_faces"),
			UnknownImage: filepath.Join(dataDir, "unknown_face", "unknown_face.png"),
		},
		YOLO: YOLOConfig{
			ModelPath:  filepath.Join(dataDir, "models", "yolo.onnx"),
			LabelsPath: filepath.Join(dataDir, "models", "yolo.names"),
			InputSize:  640,
			Confidence: 0.25,
			NMS:        0.45,
		},
		Display: DisplayConfig{
			Title:     "Face Recognition",
			Style:     StyleBox,
			QueueSize: 4,
		},
		People: PeopleConfig{
			InfoFile: filepath.Join(dataDir, "information", "information.txt"),
		},
		Motion: MotionConfig{
			Enabled:       false,
			Threshold:     1.0,
			IdleFPS:       5,
			IdleTimeoutMs: 2000,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			DataDir: dataDir,
			DBPath:  filepath.Join(dataDir, "facekiosk.db"),
		},
		Hooks: HooksConfig{
			Dir:       filepath.Join(dataDir, "hooks"),
			TimeoutMs: 5000,
		},
		Tray: TrayConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies environment
// overrides. A ./.env file, when present, feeds those overrides without
// replacing variables already set.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// LoadDefault loads ./.env if present, then the first config file found in
// ./facekiosk.yaml or ~/.config/facekiosk/facekiosk.yaml. Without a file the
// defaults plus environment overrides are returned.
func LoadDefault() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	candidates := []string{"facekiosk.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "facekiosk", "facekiosk.yaml"))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides selected keys from FACEKIOSK_* environment variables.
func (c *Config) ApplyEnv() {
	c.Camera.Device = envInt("FACEKIOSK_CAMERA_DEVICE", c.Camera.Device)
	c.Recognition.Mode = envString("FACEKIOSK_MODE", c.Recognition.Mode)
	c.Recognition.Tolerance = envFloat("FACEKIOSK_TOLERANCE", c.Recognition.Tolerance)
	c.Recognition.ModelDir = envString("FACEKIOSK_MODEL_DIR", c.Recognition.ModelDir)
	c.Recognition.GalleryDir = envString("FACEKIOSK_GALLERY_DIR", c.Recognition.GalleryDir)
	c.People.InfoFile = envString("FACEKIOSK_INFO_FILE", c.People.InfoFile)
	c.Server.Addr = envString("FACEKIOSK_ADDR", c.Server.Addr)
	c.Logging.Level = envString("FACEKIOSK_LOG_LEVEL", c.Logging.Level)
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envInt returns defaultVal when the variable is unset or not a non-negative integer.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// ExpandPath expands a leading ~/ and environment variables in a path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// ExpandPaths expands every path in the configuration.
func (c *Config) ExpandPaths() {
	c.Recognition.ModelDir = ExpandPath(c.Recognition.ModelDir)
	c.Recognition.GalleryDir = ExpandPath(c.Recognition.GalleryDir)
	c.Recognition.UnknownImage = ExpandPath(c.Recognition.UnknownImage)
	c.YOLO.ModelPath = ExpandPath(c.YOLO.ModelPath)
	c.YOLO.LabelsPath = ExpandPath(c.YOLO.LabelsPath)
	c.People.InfoFile = ExpandPath(c.People.InfoFile)
	c.Server.StaticDir = ExpandPath(c.Server.StaticDir)
	c.Storage.DataDir = ExpandPath(c.Storage.DataDir)
	c.Storage.DBPath = ExpandPath(c.Storage.DBPath)
	c.Hooks.Dir = ExpandPath(c.Hooks.Dir)
	c.Logging.File = ExpandPath(c.Logging.File)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("invalid camera resolution: %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("invalid camera FPS: %d", c.Camera.FPS)
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("invalid camera device: %d", c.Camera.Device)
	}

	switch c.Recognition.Mode {
	case ModeFace, ModeYOLO:
	default:
		return fmt.Errorf("invalid mode: %s (must be face or yolo)", c.Recognition.Mode)
	}
	if c.Recognition.Tolerance <= 0 || c.Recognition.Tolerance > 1 {
		return fmt.Errorf("tolerance must be in (0, 1], got %f", c.Recognition.Tolerance)
	}

	if c.YOLO.InputSize <= 0 {
		return fmt.Errorf("invalid yolo input size: %d", c.YOLO.InputSize)
	}
	if c.YOLO.Confidence < 0 || c.YOLO.Confidence > 1 {
		return fmt.Errorf("yolo confidence must be between 0 and 1, got %f", c.YOLO.Confidence)
	}
	if c.YOLO.NMS < 0 || c.YOLO.NMS > 1 {
		return fmt.Errorf("yolo nms must be between 0 and 1, got %f", c.YOLO.NMS)
	}

	switch c.Display.Style {
	case StyleBox, StyleCorners:
	default:
		return fmt.Errorf("invalid display style: %s (must be box or corners)", c.Display.Style)
	}
	if c.Display.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.Display.QueueSize)
	}

	if c.Motion.Enabled {
		if c.Motion.Threshold <= 0 {
			return fmt.Errorf("motion threshold must be positive, got %f", c.Motion.Threshold)
		}
		if c.Motion.IdleFPS <= 0 {
			return fmt.Errorf("motion idle_fps must be positive, got %d", c.Motion.IdleFPS)
		}
	}

	if c.Hooks.TimeoutMs <= 0 {
		return fmt.Errorf("hooks timeout_ms must be positive, got %d", c.Hooks.TimeoutMs)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// EnsureDirectories creates the data, gallery and log directories.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.Storage.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := os.MkdirAll(c.Recognition.GalleryDir, 0755); err != nil {
		return fmt.Errorf("failed to create gallery directory: %w", err)
	}

	if c.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Logging.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	return nil
}
