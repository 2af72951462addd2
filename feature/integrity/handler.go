package integrity

import (
	"catalog-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/artwork", h.HandleArtworkCheck)
	group.Get("/labels", h.HandleLabelCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Artwork, Labels). This operation may take a long time.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := make(map[string]interface{})

	if artwork, err := h.service.CheckArtwork(ctx); err != nil {
		report["artwork"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["artwork"] = artwork
	}

	if labelReport, err := h.service.CheckLabels(ctx); err != nil {
		report["labels"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["labels"] = labelReport
	}

	return c.JSON(report)
}

// HandleArtworkCheck verifies stored artwork references.
// @Summary Check Artwork
// @Description Checks that every release with an artwork key has its object in the bucket.
// @Tags integrity
// @Produce json
// @Success 200 {object} ArtworkReport "Artwork Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/artwork [get]
func (h *Handler) HandleArtworkCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckArtwork(c.Context())
	if err != nil {
		l.Error("Artwork check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(report.Missing) > 0 {
		l.Warn("Missing artwork objects detected", zap.Strings("missing", report.Missing))
	}
	return c.JSON(report)
}

// HandleLabelCheck verifies label references across the catalog.
// @Summary Check Labels
// @Description Sweeps artists and releases for label references that do not resolve.
// @Tags integrity
// @Produce json
// @Success 200 {object} LabelReport "Label Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/labels [get]
func (h *Handler) HandleLabelCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckLabels(c.Context())
	if err != nil {
		l.Error("Label check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
