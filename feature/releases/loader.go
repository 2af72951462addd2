package releases

import (
	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/metacache"
	"catalog-manager/core/storage"
	"catalog-manager/core/upstream"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the releases feature. repo and store may be nil
// when the database or object storage is unavailable; artwork serving
// then degrades to 404s.
func NewFeature(manager *metacache.Manager, index *metacache.LabelIndex, client *upstream.Client, repo *database.Repository, store storage.Client, bucket string, table labels.Table, engine *labels.Engine, logger *zap.Logger) *Feature {
	svc := NewService(manager, index, client, repo, store, bucket, table, engine, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "releases"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the feature's service for CLI use.
func (f *Feature) Service() *Service {
	return f.service
}
