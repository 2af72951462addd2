package releases

import (
	"errors"
	"strconv"

	"catalog-manager/core/database"
	"catalog-manager/core/logger"
	"catalog-manager/core/metacache"
	"catalog-manager/core/upstream"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for releases.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the release routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/releases")
	group.Get("/:id", h.HandleGetRelease)
	group.Get("/:id/artwork", h.HandleGetArtwork)

	app.Get("/labels/:ref/releases", h.HandleListByLabel)
	app.Post("/labels/:ref/releases/refresh", h.HandleRefresh)
}

// HandleGetRelease returns one release with its cache provenance.
// @Summary Get Release
// @Description Get a release by provider ID, served from cache, upstream, or stale fallback.
// @Tags releases
// @Produce json
// @Param id path string true "Release ID"
// @Success 200 {object} metacache.Lookup "Release with source tag"
// @Failure 404 {object} map[string]string "Unknown release"
// @Failure 503 {object} map[string]string "Upstream unavailable and nothing cached"
// @Router /releases/{id} [get]
func (h *Handler) HandleGetRelease(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	lookup, err := h.service.GetRelease(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, l, err)
	}
	return c.JSON(lookup)
}

// HandleListByLabel returns recent releases for a label reference.
// @Summary List Label Releases
// @Description List release IDs under a label given in any surface form, most recent first.
// @Tags releases
// @Produce json
// @Param ref path string true "Label reference (ID, slug, name, or alias)"
// @Param limit query int false "Maximum number of releases" default(50)
// @Success 200 {object} LabelReleases "Listing with completeness flag"
// @Failure 404 {object} map[string]string "Unknown label"
// @Router /labels/{ref}/releases [get]
func (h *Handler) HandleListByLabel(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
	listing, err := h.service.ListByLabel(c.Context(), c.Params("ref"), limit)
	if err != nil {
		return writeError(c, l, err)
	}
	return c.JSON(listing)
}

// HandleRefresh re-ingests a label's releases from the provider.
// @Summary Refresh Label Releases
// @Description Drain the provider's release search for the label into the cache and index.
// @Tags releases
// @Produce json
// @Param ref path string true "Label reference (ID, slug, name, or alias)"
// @Success 200 {object} LabelReleases "Ingested listing; complete=false means partial"
// @Failure 404 {object} map[string]string "Unknown label"
// @Router /labels/{ref}/releases/refresh [post]
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	listing, err := h.service.RefreshFromUpstream(c.Context(), c.Params("ref"))
	if listing == nil && err != nil {
		return writeError(c, l, err)
	}
	// A partial ingest is still a usable answer; the flag says so.
	return c.JSON(listing)
}

// HandleGetArtwork streams the release's cover art.
// @Summary Get Release Artwork
// @Description Stream the release's cover art from object storage.
// @Tags releases
// @Produce octet-stream
// @Param id path string true "Release ID"
// @Success 200 {file} binary "Cover art bytes"
// @Failure 404 {object} map[string]string "Unknown release or no artwork"
// @Router /releases/{id}/artwork [get]
func (h *Handler) HandleGetArtwork(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	body, err := h.service.Artwork(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, l, err)
	}
	return c.SendStream(body)
}

// writeError maps core errors onto the route boundary, keeping "no
// data found" distinct from "service degraded".
func writeError(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch {
	case errors.Is(err, upstream.ErrNotFound),
		errors.Is(err, database.ErrNotFound),
		errors.Is(err, ErrLabelNotFound),
		errors.Is(err, ErrNoArtwork):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, metacache.ErrNotAvailable):
		l.Warn("lookup degraded", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error("request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
