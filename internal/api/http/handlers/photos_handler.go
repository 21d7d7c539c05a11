package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/blobstore"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// PhotosHandler serves stored issue photos.
type PhotosHandler struct {
	store blobstore.Store
}

// NewPhotosHandler constructs handler.
func NewPhotosHandler(store blobstore.Store) *PhotosHandler {
	return &PhotosHandler{store: store}
}

// Get handles GET /photos/:key.
func (h *PhotosHandler) Get(c *fiber.Ctx) error {
	key := c.Params("key")
	blob, err := h.store.Get(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return apperrors.NewNotFound("photo", map[string]any{"key": key})
		}
		return apperrors.NewDependencyFailure("photo store", err)
	}
	c.Set(fiber.HeaderContentType, blob.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(blob.Data)
}
