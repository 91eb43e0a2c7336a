// Package config loads the guide's YAML configuration, applies environment
// overrides and builds the section registry from it.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/scrollguide/guide/internal/section"
	"github.com/scrollguide/guide/internal/visibility"
)

var (
	ErrInvalidThreshold  = errors.New("visibility threshold must be in (0, 1]")
	ErrInvalidCellHeight = errors.New("cell height must be positive")
	ErrInvalidPort       = errors.New("server port out of range")
)

type Config struct {
	Guide      GuideConfig      `yaml:"guide"`
	Visibility VisibilityConfig `yaml:"visibility"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Sections   []SectionConfig  `yaml:"sections"`
}

type GuideConfig struct {
	Title          string        `yaml:"title"`
	DefaultGesture string        `yaml:"default_gesture"`
	EntranceDelay  time.Duration `yaml:"entrance_delay"`
}

type VisibilityConfig struct {
	Threshold float64 `yaml:"threshold"`
	MarginPx  float64 `yaml:"margin_px"`
	// CellHeightPx converts terminal rows to the pixel space the margin is
	// expressed in.
	CellHeightPx float64 `yaml:"cell_height_px"`
}

type ServerConfig struct {
	Host           string   `yaml:"host" env:"SCROLLGUIDE_SERVER_HOST"`
	Port           int      `yaml:"port" env:"SCROLLGUIDE_SERVER_PORT"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"SCROLLGUIDE_ALLOWED_ORIGINS" envSeparator:","`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"SCROLLGUIDE_LOG_LEVEL"`
	Format string `yaml:"format" env:"SCROLLGUIDE_LOG_FORMAT"`
	File   string `yaml:"file" env:"SCROLLGUIDE_LOG_FILE"`
}

// SectionConfig is one page section. Title and Body are page content; the
// rest binds the section to the guide.
type SectionConfig struct {
	ID       string        `yaml:"id"`
	Gesture  string        `yaml:"gesture"`
	Message  string        `yaml:"message"`
	Duration time.Duration `yaml:"duration"`
	Title    string        `yaml:"title"`
	Body     string        `yaml:"body"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Guide: GuideConfig{
			Title:          "Scrollguide",
			DefaultGesture: string(section.GestureIdle),
			EntranceDelay:  time.Second,
		},
		Visibility: VisibilityConfig{
			Threshold:    visibility.DefaultThreshold,
			MarginPx:     visibility.DefaultMargin,
			CellHeightPx: 20,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   "scrollguide.log",
		},
		Sections: defaultSections(),
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path loads the defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that Load cannot coerce.
func (c *Config) Validate() error {
	if c.Visibility.Threshold <= 0 || c.Visibility.Threshold > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, c.Visibility.Threshold)
	}
	if c.Visibility.CellHeightPx <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCellHeight, c.Visibility.CellHeightPx)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	if g := section.Gesture(c.Guide.DefaultGesture); !g.Valid() {
		return fmt.Errorf("default gesture: %w %q", section.ErrUnknownGesture, g)
	}
	if c.Guide.EntranceDelay < 0 {
		return fmt.Errorf("entrance delay: %w %v", section.ErrInvalidDuration, c.Guide.EntranceDelay)
	}
	_, err := c.Registry()
	return err
}

// Registry builds the immutable section registry.
func (c *Config) Registry() (*section.Registry, error) {
	descriptors := make([]section.Descriptor, 0, len(c.Sections))
	for _, s := range c.Sections {
		descriptors = append(descriptors, section.Descriptor{
			ID:       s.ID,
			Gesture:  section.Gesture(s.Gesture),
			Message:  s.Message,
			Duration: s.Duration,
		})
	}
	return section.NewRegistry(descriptors)
}

// DefaultGesture returns the gesture the guide settles into.
func (c *Config) DefaultGesture() section.Gesture {
	return section.Gesture(c.Guide.DefaultGesture)
}

// VisibilityOptions returns the tracker predicate configuration.
func (c *Config) VisibilityOptions() visibility.Options {
	return visibility.Options{
		Threshold: c.Visibility.Threshold,
		Margin:    c.Visibility.MarginPx,
	}
}

// Addr returns the serve-mode listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func defaultSections() []SectionConfig {
	return []SectionConfig{
		{
			ID: "hero", Gesture: string(section.GestureWave), Message: "Welcome! Scroll down, I'll show you around.",
			Duration: 4 * time.Second, Title: "Meet your guide",
			Body: "A friendly companion that follows you down the page and points out what matters.",
		},
		{
			ID: "features", Gesture: string(section.GesturePoint), Message: "These are the highlights.",
			Title: "Features",
			Body:  "- Reacts to what you are reading\n- Never gets in the way\n- Leaves when you do",
		},
		{
			ID: "how", Gesture: string(section.GestureLeanForward), Message: "Here's how it works, step by step.",
			Title: "How it works",
			Body:  "1. Each section is bound to a pose and a message.\n2. When half a section is in view, the guide reacts.\n3. After a few seconds it settles back.",
		},
		{
			ID: "pricing", Gesture: string(section.GestureThumbsUp), Message: "Good value, if you ask me.",
			Title: "Pricing",
			Body:  "| Plan | Price |\n|------|-------|\n| Starter | free |\n| Team | 12/mo |",
		},
		{
			ID: "faq", Gesture: string(section.GestureThinking), Message: "Hmm, questions? Let me think...",
			Duration: 3 * time.Second, Title: "FAQ",
			Body: "**Does it remember me?** No. Every visit starts fresh.",
		},
		{
			ID: "contact", Gesture: string(section.GestureWave), Message: "Thanks for reading!",
			Title: "Contact",
			Body:  "Drop us a line any time.",
		},
	}
}
