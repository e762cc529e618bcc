package handlers

import (
	"github.com/gofiber/fiber/v2"

	"reflection-garden/middleware"
	"reflection-garden/services"
)

type createGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ClassName   string   `json:"class_name"`
	Members     []string `json:"members"`
}

func SetupGroupRoutes(r fiber.Router, svc *services.Services) {
	groups := svc.Groups

	r.Get("/groups", func(c *fiber.Ctx) error {
		list, err := groups.ListGroups(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(list)
	})

	r.Post("/groups", func(c *fiber.Ctx) error {
		var req createGroupRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		g, err := groups.CreateGroup(c.UserContext(), services.CreateGroupInput{
			ActorID:     middleware.UserID(c),
			Name:        req.Name,
			Description: req.Description,
			ClassName:   req.ClassName,
			Members:     req.Members,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	})

	r.Get("/groups/:id", func(c *fiber.Ctx) error {
		v, err := groups.GetGroup(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(v)
	})

	r.Get("/groups/:id/activity", func(c *fiber.Ctx) error {
		items, err := groups.GroupActivity(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(items)
	})
}
