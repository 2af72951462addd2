package loader

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Feature is a self-contained unit of routes and services that can be
// registered on the application.
type Feature interface {
	// Name returns the unique name of the feature.
	Name() string
	// IsEnabled reports whether the feature should load.
	IsEnabled() bool
	// Load registers the feature's routes.
	Load(app fiber.Router) error
}

// Manager collects features and loads them onto the Fiber app.
type Manager struct {
	features []Feature
}

// NewManager creates an empty feature manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a feature to the manager.
func (m *Manager) Register(f Feature) {
	m.features = append(m.features, f)
}

// LoadAll loads every enabled feature, failing on the first error.
func (m *Manager) LoadAll(app fiber.Router) error {
	for _, f := range m.features {
		if !f.IsEnabled() {
			continue
		}
		if err := f.Load(app); err != nil {
			return fmt.Errorf("load feature %s: %w", f.Name(), err)
		}
	}
	return nil
}
