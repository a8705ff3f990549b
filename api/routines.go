package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/routine"
)

func (s *Server) createSchema(c fiber.Ctx) error {
	if err := s.store.CreateSchema(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "schema created"})
}

func (s *Server) dropSchema(c fiber.Ctx) error {
	if err := s.store.DropSchema(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "schema dropped"})
}

func (s *Server) createRoutine(c fiber.Ctx) error {
	var r routine.Routine
	if err := c.Bind().JSON(&r); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	created, err := s.store.CreateRoutine(c.Context(), &r)
	if errors.Is(err, routine.ErrDanglingLink) {
		return errorJSON(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	if errors.Is(err, routine.ErrIDConflict) {
		return errorJSON(c, fiber.StatusConflict, err.Error())
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) getRoutine(c fiber.Ctx) error {
	r, err := s.store.GetRoutine(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if r == nil {
		return errorJSON(c, fiber.StatusNotFound, "routine not found")
	}
	return c.JSON(fiber.Map{
		"routine": r,
		"status":  routine.Validate(r.Nodes, r.Links),
	})
}

func (s *Server) deleteRoutine(c fiber.Ctx) error {
	if err := s.store.DeleteRoutine(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// validate checks a graph without storing it.
func (s *Server) validate(c fiber.Ctx) error {
	var r routine.Routine
	if err := c.Bind().JSON(&r); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	res := routine.Validate(r.Nodes, r.Links)
	return c.JSON(fiber.Map{
		"status":  res,
		"summary": res.Summary(),
		"links":   res.Links,
	})
}
