package ledger

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes read access to journal entries.
type Handler struct {
	journal *Journal
}

func NewHandler(journal *Journal) *Handler {
	return &Handler{journal: journal}
}

// Entry returns a single journal entry with all of its lines.
func (h *Handler) Entry(c *fiber.Ctx) error {
	entry, err := h.journal.GetByID(c.UserContext(), c.Params("entryId"))
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(entry)
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "journal entry not found")
	case IsRetryable(err):
		return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
