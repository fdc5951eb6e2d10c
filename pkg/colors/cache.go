// Package colors gives each project a stable display color. Assignments
// persist across runs; when the palette is exhausted the project seen least
// recently gives up its color.
package colors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

type ProjectState struct {
	Color    string    `json:"color"`
	LastSeen time.Time `json:"last_seen"`
}

type ColorCache struct {
	Path     string
	Projects map[string]*ProjectState `json:"projects"`

	mu    sync.Mutex
	dirty bool
	now   func() time.Time
}

const (
	xdgAppName = "taskboard"
	cacheFile  = "project_colors.json"

	// NoProject is used for rows without a project.
	NoProject = "8"
)

// Palette is the ANSI 256 colors handed out to projects, in order.
var Palette = []string{"39", "208", "70", "170", "214", "33", "161", "43", "99", "178", "203"}

// DefaultPath is ~/.config/taskboard/project_colors.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, cacheFile), nil
}

// NewColorCache loads the cache at path, or starts empty if it does not
// exist yet.
func NewColorCache(path string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:     path,
		Projects: make(map[string]*ProjectState),
		now:      time.Now,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cache.Load(); err != nil {
			return nil, fmt.Errorf("failed to load color cache: %w", err)
		}
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	return json.NewDecoder(f).Decode(&c.Projects)
}

// Save writes the cache if anything changed since the last save.
func (c *ColorCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty || c.Path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		zap.L().Warn("creating color cache directory", zap.Error(err))
		return err
	}
	f, err := os.Create(c.Path)
	if err != nil {
		zap.L().Warn("creating color cache file", zap.Error(err))
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(c.Projects); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Color returns the color of project and marks it as recently seen.
func (c *ColorCache) Color(project string) lipgloss.Color {
	if project == "" {
		return lipgloss.Color(NoProject)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if state, ok := c.Projects[project]; ok {
		state.LastSeen = c.now()
		c.dirty = true
		return lipgloss.Color(state.Color)
	}
	return lipgloss.Color(c.assign(project))
}

// Style is a foreground style in the project's color.
func (c *ColorCache) Style(project string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c.Color(project))
}

func (c *ColorCache) assign(project string) string {
	used := make(map[string]bool)
	for _, s := range c.Projects {
		used[s.Color] = true
	}
	for _, color := range Palette {
		if !used[color] {
			c.Projects[project] = &ProjectState{Color: color, LastSeen: c.now()}
			c.dirty = true
			return color
		}
	}

	var oldest string
	var oldestTime time.Time
	for p, s := range c.Projects {
		if oldest == "" || s.LastSeen.Before(oldestTime) {
			oldest, oldestTime = p, s.LastSeen
		}
	}
	recycled := c.Projects[oldest].Color
	delete(c.Projects, oldest)
	c.Projects[project] = &ProjectState{Color: recycled, LastSeen: c.now()}
	c.dirty = true
	return recycled
}
