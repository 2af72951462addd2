package integrity

import (
	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the integrity feature.
func NewFeature(client storage.Client, bucket string, repo *database.Repository, table labels.Table, engine *labels.Engine, logger *zap.Logger) *Feature {
	svc := NewService(client, bucket, repo, table, engine, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "integrity"
}

// IsEnabled reports whether the feature can run. The checks need the
// database; without it there is nothing to sweep.
func (f *Feature) IsEnabled() bool {
	return f.service.repo != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
