package application

import (
	"strings"
	"sync"
)

// KnownSchools is the ordered set of canonical school names the canonicalizer
// matches against. Registry hits extend it during a run.
type KnownSchools struct {
	mu    sync.RWMutex
	names []string
	index map[string]struct{}
}

func NewKnownSchools(names ...[]string) *KnownSchools {
	k := &KnownSchools{index: map[string]struct{}{}}
	for _, group := range names {
		for _, name := range group {
			k.Add(name)
		}
	}

	return k
}

// Add appends name unless it is blank or already present. It reports whether
// the set changed.
func (k *KnownSchools) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.index[name]; ok {
		return false
	}
	k.index[name] = struct{}{}
	k.names = append(k.names, name)

	return true
}

func (k *KnownSchools) Has(name string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()

	_, ok := k.index[name]
	return ok
}

func (k *KnownSchools) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return len(k.names)
}

// Names returns a snapshot in insertion order.
func (k *KnownSchools) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return append([]string(nil), k.names...)
}

// Containing lists the names that contain token or are contained in it.
func (k *KnownSchools) Containing(token string) []string {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	var out []string
	for _, name := range k.Names() {
		if strings.Contains(name, token) || strings.Contains(token, name) {
			out = append(out, name)
		}
	}

	return out
}
