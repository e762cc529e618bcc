package handlers

import (
	"github.com/gofiber/fiber/v2"

	"reflection-garden/middleware"
	"reflection-garden/models"
	"reflection-garden/services"
)

type createGoalRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Type         string  `json:"type"`
	GroupID      *string `json:"group_id"`
	ReflectionID *string `json:"reflection_id"`
	DueDate      string  `json:"due_date"`
}

func SetupGoalRoutes(r fiber.Router, goals *services.GoalService) {
	r.Get("/goals", func(c *fiber.Ctx) error {
		lists, err := goals.ListGoals(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(lists)
	})

	r.Post("/goals", func(c *fiber.Ctx) error {
		var req createGoalRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		g, err := goals.CreateGoal(c.UserContext(), services.CreateGoalInput{
			ActorID:      middleware.UserID(c),
			Title:        req.Title,
			Description:  req.Description,
			Type:         models.GoalType(req.Type),
			GroupID:      req.GroupID,
			ReflectionID: req.ReflectionID,
			DueDate:      req.DueDate,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	})

	r.Put("/goals/:id", func(c *fiber.Ctx) error {
		var patch services.GoalPatch
		if err := c.BodyParser(&patch); err != nil {
			return badRequest(c, err)
		}
		g, err := goals.UpdateGoal(c.UserContext(), c.Params("id"), middleware.UserID(c), patch)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(g)
	})

	r.Post("/goals/:id/complete", func(c *fiber.Ctx) error {
		res, err := goals.CompleteGoal(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		body := fiber.Map{"goal": res.Goal, "badges": grantsJSON(res.Badges)}
		if res.User != nil {
			body["state"] = stateJSON(*res.User)
		}
		return c.JSON(body)
	})

	r.Delete("/goals/:id", func(c *fiber.Ctx) error {
		if err := goals.DeleteGoal(c.UserContext(), c.Params("id"), middleware.UserID(c)); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
