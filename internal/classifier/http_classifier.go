package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

type classifyRequest struct {
	Description string         `json:"description"`
	Categories  []string       `json:"categories"`
	Images      []requestImage `json:"images,omitempty"`
}

type requestImage struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type classifyResponse struct {
	Category string `json:"category"`
	Title    string `json:"title"`
}

// HTTPClassifier posts reports to an external categorization endpoint.
type HTTPClassifier struct {
	url     string
	timeout time.Duration
}

// NewHTTPClassifier returns a classifier bound to url.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{url: url, timeout: timeout}
}

// Classify calls the endpoint and validates the category. Transport failures,
// non-2xx answers and empty titles are errors.
func (h *HTTPClassifier) Classify(ctx context.Context, description string, images []Image) (Result, error) {
	timeout := h.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Result{}, context.DeadlineExceeded
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}

	body := classifyRequest{Description: description, Categories: Categories}
	for _, img := range images {
		body.Images = append(body.Images, requestImage{MimeType: img.ContentType, Data: img.Data})
	}

	agent := fiber.Post(h.url).JSON(body)
	if timeout > 0 {
		agent = agent.Timeout(timeout)
	}

	var out classifyResponse
	code, _, errs := agent.Struct(&out)
	if len(errs) > 0 {
		return Result{}, errors.Join(errs...)
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return Result{}, fmt.Errorf("classifier responded with status %d", code)
	}

	title := strings.TrimSpace(out.Title)
	if title == "" {
		return Result{}, errors.New("classifier returned an empty title")
	}
	return Result{Category: NormalizeCategory(out.Category), Title: title}, nil
}
