package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// StoreConfig describes one tenant store: its branding, its SMTP mailbox,
// its Stripe account, and its Printify shop. Loaded from the stores file.
type StoreConfig struct {
	Name        string `json:"name"`
	FrontendURL string `json:"frontend_url"`
	Locale      string `json:"locale"` // BCP 47, e.g. "en-US"; empty means en-US

	SMTPUser string `json:"smtp_user"`
	SMTPPass string `json:"smtp_pass"`

	StripeSecretKey string `json:"stripe_secret_key"`

	PrintifyToken  string `json:"printify_token"`
	PrintifyShopID int64  `json:"printify_shop_id"`
}

// Registry holds the tenant store map and supports reloading it from disk.
// Reads take an RLock so lookups never see a half-applied reload.
//
// Services hold resolver closures over a Registry rather than a snapshot of
// the map — a SIGHUP reload is visible on the very next operation, which is
// how rotated SMTP passwords and Stripe keys take effect without a restart.
type Registry struct {
	path string

	mu     sync.RWMutex
	stores map[string]StoreConfig
}

// LoadRegistry parses the stores file at path and returns a live Registry.
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the stores file. On parse failure the previous map is kept
// so a botched edit never takes tenants offline.
func (r *Registry) Reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("config: read stores file: %w", err)
	}

	var stores map[string]StoreConfig
	if err := json.Unmarshal(raw, &stores); err != nil {
		return fmt.Errorf("config: parse stores file %s: %w", r.path, err)
	}
	if len(stores) == 0 {
		return errors.New("config: stores file defines no stores")
	}

	for id, sc := range stores {
		if sc.Name == "" {
			return fmt.Errorf("config: store %q is missing a name", id)
		}
		if sc.FrontendURL == "" {
			return fmt.Errorf("config: store %q is missing frontend_url", id)
		}
	}

	r.mu.Lock()
	r.stores = stores
	r.mu.Unlock()
	return nil
}

// Store looks up one tenant's configuration by store id.
func (r *Registry) Store(id string) (StoreConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.stores[id]
	return sc, ok
}

// StoreIDs returns the ids of all configured stores, for startup logging.
func (r *Registry) StoreIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.stores))
	for id := range r.stores {
		ids = append(ids, id)
	}
	return ids
}
