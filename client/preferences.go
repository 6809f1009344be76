package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Preferences is the UI state a client keeps between runs. Every change is
// written to disk before the setter returns.
type Preferences struct {
	mu    sync.Mutex
	path  string
	state preferenceState
}

type preferenceState struct {
	SidebarCollapsed bool `json:"sidebar_collapsed"`
}

// LoadPreferences reads path, starting from defaults when the file does not
// exist yet.
func LoadPreferences(path string) (*Preferences, error) {
	p := &Preferences{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if err := json.Unmarshal(raw, &p.state); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	return p, nil
}

func (p *Preferences) SidebarCollapsed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.SidebarCollapsed
}

// Toggle flips the sidebar and returns the new value.
func (p *Preferences) Toggle() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setLocked(!p.state.SidebarCollapsed)
}

func (p *Preferences) Collapse() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.setLocked(true)
	return err
}

func (p *Preferences) Expand() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.setLocked(false)
	return err
}

func (p *Preferences) setLocked(collapsed bool) (bool, error) {
	next := p.state
	next.SidebarCollapsed = collapsed

	raw, err := json.Marshal(next)
	if err != nil {
		return p.state.SidebarCollapsed, fmt.Errorf("encode preferences: %w", err)
	}
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return p.state.SidebarCollapsed, fmt.Errorf("create preferences directory: %w", err)
		}
	}
	// Readers only ever see a complete file.
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return p.state.SidebarCollapsed, fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return p.state.SidebarCollapsed, fmt.Errorf("save preferences: %w", err)
	}

	p.state = next
	return collapsed, nil
}
