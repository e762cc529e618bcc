package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"reflection-garden/middleware"
	"reflection-garden/models"
	"reflection-garden/services"
)

type submitReflectionRequest struct {
	Content     string   `json:"content"`
	DisplayMode string   `json:"display_mode"`
	Pseudonym   string   `json:"pseudonym"`
	Tags        []string `json:"tags"`
	GroupID     *string  `json:"group_id"`
	PromptID    *string  `json:"prompt_id"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type voteRequest struct {
	Value int `json:"value"`
}

func grantsJSON(grants []services.Grant) []fiber.Map {
	out := make([]fiber.Map, 0, len(grants))
	for _, g := range grants {
		out = append(out, fiber.Map{
			"badge_id":   g.Badge.ID,
			"code":       g.Badge.Code,
			"badge_name": g.Badge.Name,
			"awarded_at": g.UserBadge.AwardedAt,
		})
	}
	return out
}

func stateJSON(u models.User) fiber.Map {
	return fiber.Map{"xp": u.XP, "level": u.Level, "streak": u.Streak}
}

func SetupEngagementRoutes(r fiber.Router, svc *services.Services) {
	eng := svc.Engagement

	r.Post("/reflections", func(c *fiber.Ctx) error {
		var req submitReflectionRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		res, err := eng.SubmitReflection(c.UserContext(), services.SubmitReflectionInput{
			ActorID:     middleware.UserID(c),
			Content:     req.Content,
			DisplayMode: models.DisplayMode(req.DisplayMode),
			Pseudonym:   req.Pseudonym,
			Tags:        req.Tags,
			GroupID:     req.GroupID,
			PromptID:    req.PromptID,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"reflection": res.Reflection,
			"plant":      res.Plant,
			"state":      stateJSON(res.User),
			"badges":     grantsJSON(res.Badges),
		})
	})

	r.Post("/reflections/:id/comments", func(c *fiber.Ctx) error {
		var req commentRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		comment, err := svc.Comments.AddComment(c.UserContext(), c.Params("id"), middleware.UserID(c), req.Content)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	r.Post("/reflections/:id/vote", func(c *fiber.Ctx) error {
		var req voteRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		tally, err := svc.Comments.Vote(c.UserContext(), c.Params("id"), middleware.UserID(c), req.Value)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(tally)
	})

	r.Post("/check-in", func(c *fiber.Ctx) error {
		res, err := eng.CheckIn(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"state":  stateJSON(res.User),
			"badges": grantsJSON(res.Badges),
		})
	})

	r.Post("/plants/:id/water", func(c *fiber.Ctx) error {
		res, err := eng.WaterPlant(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	})

	r.Get("/garden-state", func(c *fiber.Ctx) error {
		state, err := eng.GardenState(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(state)
	})

	r.Get("/milestones", func(c *fiber.Ctx) error {
		items, err := eng.Milestones(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(items)
	})

	r.Get("/recent-activity", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		items, err := eng.RecentActivity(c.UserContext(), middleware.UserID(c), limit)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(items)
	})

	r.Get("/profile", func(c *fiber.Ctx) error {
		p, err := eng.Profile(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(p)
	})

	r.Put("/profile", func(c *fiber.Ctx) error {
		var patch services.ProfilePatch
		if err := c.BodyParser(&patch); err != nil {
			return badRequest(c, err)
		}
		u, err := eng.UpdateProfile(c.UserContext(), middleware.UserID(c), patch)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(u)
	})

	r.Get("/prompt/daily", func(c *fiber.Ctx) error {
		p, err := svc.Prompts.DailyPrompt(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(p)
	})

	r.Get("/users", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		users, err := svc.Users.SearchUsers(c.UserContext(), middleware.UserID(c), c.Query("q"), limit)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(users)
	})
}
