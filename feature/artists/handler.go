package artists

import (
	"errors"

	"catalog-manager/core/database"
	"catalog-manager/core/logger"
	"catalog-manager/core/metacache"
	"catalog-manager/core/upstream"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for artists.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the artist routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/artists")
	group.Get("/:id", h.HandleGetArtist)
	group.Get("/:id/label", h.HandleResolveLabel)
	group.Post("/:id/label", h.HandleAcceptLabel)

	app.Get("/labels/:ref/artists", h.HandleListByLabel)
}

// HandleGetArtist returns one artist with its cache provenance.
// @Summary Get Artist
// @Description Get an artist by provider ID, served from cache, upstream, or stale fallback.
// @Tags artists
// @Produce json
// @Param id path string true "Artist ID"
// @Success 200 {object} metacache.Lookup "Artist with source tag"
// @Failure 404 {object} map[string]string "Unknown artist"
// @Failure 503 {object} map[string]string "Upstream unavailable and nothing cached"
// @Router /artists/{id} [get]
func (h *Handler) HandleGetArtist(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	lookup, err := h.service.GetArtist(c.Context(), c.Params("id"))
	if err != nil {
		return writeLookupError(c, l, err)
	}
	return c.JSON(lookup)
}

// HandleResolveLabel returns the artist's reconciled label without
// persisting it.
// @Summary Resolve Artist Label
// @Description Reconcile which label the artist canonically belongs to.
// @Tags artists
// @Produce json
// @Param id path string true "Artist ID"
// @Success 200 {object} labels.Result "Reconciliation result with strategy"
// @Failure 404 {object} map[string]string "Unknown artist"
// @Router /artists/{id}/label [get]
func (h *Handler) HandleResolveLabel(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.ResolveLabel(c.Context(), c.Params("id"))
	if err != nil {
		return writeLookupError(c, l, err)
	}
	return c.JSON(result)
}

type acceptLabelRequest struct {
	Label string `json:"label"`
}

// HandleAcceptLabel persists a label assignment after explicit
// confirmation by the caller.
// @Summary Accept Artist Label
// @Description Persist the given label as the artist's canonical label.
// @Tags artists
// @Accept json
// @Produce json
// @Param id path string true "Artist ID"
// @Param body body acceptLabelRequest true "Label reference in any surface form"
// @Success 200 {object} map[string]string "Accepted label"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Unknown artist or label"
// @Router /artists/{id}/label [post]
func (h *Handler) HandleAcceptLabel(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req acceptLabelRequest
	if err := c.BodyParser(&req); err != nil || req.Label == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "body must carry a label reference",
		})
	}

	labelID, err := h.service.AcceptLabel(c.Context(), c.Params("id"), req.Label)
	if err != nil {
		return writeLookupError(c, l, err)
	}
	return c.JSON(fiber.Map{
		"artist_id": c.Params("id"),
		"label_id":  labelID,
	})
}

// HandleListByLabel returns the artist roster of a label reference.
// @Summary List Label Artists
// @Description List artist IDs under a label given in any surface form.
// @Tags artists
// @Produce json
// @Param ref path string true "Label reference (ID, slug, name, or alias)"
// @Success 200 {object} LabelRoster "Roster with completeness flag"
// @Failure 404 {object} map[string]string "Unknown label"
// @Router /labels/{ref}/artists [get]
func (h *Handler) HandleListByLabel(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	roster, err := h.service.ListByLabel(c.Context(), c.Params("ref"))
	if err != nil {
		return writeLookupError(c, l, err)
	}
	return c.JSON(roster)
}

// writeLookupError maps core errors onto the route boundary, keeping
// "no data found" distinct from "service degraded".
func writeLookupError(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch {
	case errors.Is(err, upstream.ErrNotFound),
		errors.Is(err, database.ErrNotFound),
		errors.Is(err, ErrLabelNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, metacache.ErrNotAvailable):
		l.Warn("lookup degraded", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error("lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
