package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type PostHandler struct {
	s service.PostService
	p service.PublishService
}

func NewPostHandler(postService service.PostService, publishService service.PublishService) *PostHandler {
	return &PostHandler{s: postService, p: publishService}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	var files []*multipart.FileHeader

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to parse form",
			})
		}

		pc = transfer.PostCreation{
			Caption:       c.FormValue("caption"),
			Platforms:     splitList(form.Value["platforms"]),
			PostTypes:     splitList(form.Value["post_types"]),
			MediaURLs:     splitList(form.Value["media_urls"]),
			ScheduledTime: c.FormValue("scheduled_at"),
			PublishNow:    parseBool(c.FormValue("publish_now")),
		}
		files = form.File["files"]
	} else if err := c.BodyParser(&pc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	posts, err := h.s.CreatePost(c.Context(), &pc, files)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrInvalidPost) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !pc.PublishNow {
		return c.Status(fiber.StatusCreated).JSON(transfer.CreatePostResponse{Posts: posts})
	}

	result, err := h.p.PublishNow(c.Context(), posts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
			"posts": posts,
		})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.CreatePostResponse{
		Posts:   posts,
		Results: result.Results,
		Logs:    result.Logs,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPostHistory(c *fiber.Ctx) error {
	history, err := h.s.History(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidPost) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get posting history",
		})
	}

	return c.Status(fiber.StatusOK).JSON(history)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.s.PostInfo(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidPost) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get post",
		})
	}
	if post == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post doesn't exist",
		})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}
