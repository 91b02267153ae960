package transport

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml"
)

// ErrAllowlistInvalidHost is returned when an empty or unparsable host is
// given to Allowlist.Add/Remove.
var ErrAllowlistInvalidHost = errors.New("invalid host")

// Allowlist controls which remote hosts may open a session against the
// warehouse server. Entries are persisted to a TOML file and control by
// connecting address rather than identity, since the wire protocol carries
// no per-client login.
type Allowlist struct {
	mu       sync.RWMutex
	hosts    map[string]string
	filePath string
	enabled  bool
}

type allowlistFile struct {
	Hosts []string `toml:"hosts"`
}

// LoadAllowlist loads (or creates) the allowlist stored at path.
func LoadAllowlist(path string) (*Allowlist, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("allowlist path must not be empty")
	}
	a := &Allowlist{hosts: make(map[string]string), filePath: path}
	if err := a.reloadFromDisk(); err != nil {
		return nil, err
	}
	return a, nil
}

// Enabled reports whether the allowlist is currently enforced.
func (a *Allowlist) Enabled() bool {
	if a == nil {
		return false
	}
	return a.enabled
}

// SetEnabled toggles enforcement.
func (a *Allowlist) SetEnabled(enabled bool) {
	if a == nil {
		return
	}
	a.enabled = enabled
}

// Allow reports whether a connection from addr may proceed.
func (a *Allowlist) Allow(addr net.Addr) bool {
	if a == nil || !a.enabled {
		return true
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.hosts[host]
	return ok
}

// Add inserts host into the allowlist. The returned bool reports whether it
// was newly added.
func (a *Allowlist) Add(host string) (bool, error) {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false, ErrAllowlistInvalidHost
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.hosts[trimmed]; exists {
		return false, nil
	}
	a.hosts[trimmed] = trimmed
	if err := a.writeLocked(); err != nil {
		delete(a.hosts, trimmed)
		return false, err
	}
	return true, nil
}

// Remove deletes host from the allowlist.
func (a *Allowlist) Remove(host string) (bool, error) {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false, ErrAllowlistInvalidHost
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.hosts[trimmed]; !exists {
		return false, nil
	}
	delete(a.hosts, trimmed)
	if err := a.writeLocked(); err != nil {
		a.hosts[trimmed] = trimmed
		return false, err
	}
	return true, nil
}

// Hosts returns the allowlisted hosts in sorted order.
func (a *Allowlist) Hosts() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.hosts))
	for h := range a.hosts {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

func (a *Allowlist) reloadFromDisk() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data := allowlistFile{}
	contents, err := os.ReadFile(a.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			a.hosts = make(map[string]string)
			return a.writeLocked()
		}
		return fmt.Errorf("read allowlist: %w", err)
	}
	if len(contents) != 0 {
		if err := toml.Unmarshal(contents, &data); err != nil {
			return fmt.Errorf("decode allowlist: %w", err)
		}
	}
	a.hosts = make(map[string]string, len(data.Hosts))
	for _, h := range data.Hosts {
		trimmed := strings.TrimSpace(h)
		if trimmed == "" {
			continue
		}
		a.hosts[trimmed] = trimmed
	}
	return nil
}

func (a *Allowlist) writeLocked() error {
	if dir := filepath.Dir(a.filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create allowlist directory: %w", err)
		}
	}
	hosts := make([]string, 0, len(a.hosts))
	for h := range a.hosts {
		hosts = append(hosts, h)
	}
	slices.Sort(hosts)
	encoded, err := toml.Marshal(allowlistFile{Hosts: hosts})
	if err != nil {
		return fmt.Errorf("encode allowlist: %w", err)
	}
	return os.WriteFile(a.filePath, encoded, 0644)
}
