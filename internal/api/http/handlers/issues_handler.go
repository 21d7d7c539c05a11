package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/access"
	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssuesHandler exposes the issue lifecycle endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issues *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issues}
}

// Create handles POST /issues. Accepts multipart (description, location as a
// JSON string, photos files) or a JSON body with base64 photos.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var req dto.CreateIssueRequest
	var photos []service.PhotoUpload
	if bytes.HasPrefix(c.Request().Header.ContentType(), []byte(fiber.MIMEMultipartForm)) {
		req, photos, err = h.parseMultipart(c)
		if err != nil {
			return err
		}
	} else {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		for _, p := range req.Photos {
			photos = append(photos, service.PhotoUpload{ContentType: p.ContentType, Data: p.Data})
		}
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	issue, err := h.issues.CreateIssue(c.UserContext(), actor, service.CreateIssueInput{
		Description: req.Description,
		Photos:      photos,
		Location:    req.Location.ToDomain(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issue})
}

func (h *IssuesHandler) parseMultipart(c *fiber.Ctx) (dto.CreateIssueRequest, []service.PhotoUpload, error) {
	var req dto.CreateIssueRequest
	form, err := c.MultipartForm()
	if err != nil {
		return req, nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	req.Description = firstValue(form.Value["description"])
	if raw := firstValue(form.Value["location"]); raw != "" {
		var loc dto.LocationPayload
		if err := c.App().Config().JSONDecoder([]byte(raw), &loc); err != nil {
			return req, nil, apperrors.NewValidationError("location must be a JSON object", map[string]any{"location": raw})
		}
		req.Location = &loc
	}

	photos := make([]service.PhotoUpload, 0, len(form.File["photos"]))
	for _, fh := range form.File["photos"] {
		f, err := fh.Open()
		if err != nil {
			return req, nil, apperrors.NewValidationError("unreadable photo", map[string]any{"file": fh.Filename})
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return req, nil, apperrors.NewValidationError("unreadable photo", map[string]any{"file": fh.Filename})
		}
		photos = append(photos, service.PhotoUpload{ContentType: fh.Header.Get(fiber.HeaderContentType), Data: data})
	}
	return req, photos, nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// List handles GET /issues?status=&search=&limit=.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	issues, err := h.issues.ListIssues(c.UserContext(), actor, access.Query{
		Statuses: dto.ParseStatuses(c.Query("status")),
		Search:   c.Query("search"),
		Limit:    c.QueryInt("limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issues})
}

// Samples handles GET /public/issues/samples?status=.
func (h *IssuesHandler) Samples(c *fiber.Ctx) error {
	issues, err := h.issues.ListSamples(c.UserContext(), domain.IssueStatus(c.Query("status")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issues})
}

// Get handles GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.GetIssue(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issue})
}

// UpdateStatus handles PUT /issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	issue, err := h.issues.TransitionStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issue})
}

// Assign handles PUT /issues/:id/assign.
func (h *IssuesHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	issue, err := h.issues.AssignWorker(c.UserContext(), actor, c.Params("id"), req.WorkerEmail)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issue})
}

// Comment handles POST /issues/:id/comments.
func (h *IssuesHandler) Comment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	issue, err := h.issues.AddComment(c.UserContext(), actor, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issue})
}
