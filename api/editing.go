package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/routine"
	"go.uber.org/zap"
)

// sessionState is the body of every editing response.
type sessionState struct {
	SessionID string         `json:"session_id"`
	RoutineID string         `json:"routine_id"`
	Nodes     []routine.Node `json:"nodes"`
	Links     []routine.Link `json:"links"`
	Status    routine.Result `json:"status"`
	Summary   string         `json:"summary"`
	View      routine.View   `json:"view"`
	Dirty     bool           `json:"dirty"`
}

func stateOf(id string, ed *routine.Editor) sessionState {
	st := ed.Status()
	return sessionState{
		SessionID: id,
		RoutineID: ed.RoutineID(),
		Nodes:     ed.Nodes(),
		Links:     ed.Links(),
		Status:    st,
		Summary:   st.Summary(),
		View:      ed.View(),
		Dirty:     ed.Dirty(),
	}
}

// withEditor runs fn on the session's editor while holding the session,
// then responds with the resulting state. fn reports false for an unknown
// node or link.
func (s *Server) withEditor(c fiber.Ctx, fn func(ed *routine.Editor) (bool, error)) error {
	id := c.Params("sid")
	sess := s.sessions.get(id)
	if sess == nil {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	found, err := fn(sess.editor)
	if err != nil {
		return err
	}
	if !found {
		return errorJSON(c, fiber.StatusNotFound, "not found")
	}
	return c.JSON(stateOf(id, sess.editor))
}

func (s *Server) openSession(c fiber.Ctx) error {
	routineID := c.Params("id")
	r, err := s.store.GetRoutine(c.Context(), routineID)
	if err != nil {
		return err
	}
	if r == nil {
		// A routine with no nodes yet is edited from scratch.
		r = &routine.Routine{ID: routineID}
	}
	ed := routine.NewEditor(*r, routine.WithLogger(s.logger.With(zap.String("routine_id", routineID))))
	id, err := s.sessions.add(ed)
	if err != nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, err.Error())
	}
	s.logger.Debug("session opened", zap.String("session_id", id), zap.String("routine_id", routineID))
	return c.Status(fiber.StatusCreated).JSON(stateOf(id, ed))
}

func (s *Server) getSession(c fiber.Ctx) error {
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		return true, nil
	})
}

func (s *Server) closeSession(c fiber.Ctx) error {
	if !s.sessions.remove(c.Params("sid")) {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setGraph(c fiber.Ctx) error {
	var r routine.Routine
	if err := c.Bind().JSON(&r); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		ed.SetGraph(r.Nodes, r.Links)
		return true, nil
	})
}

func (s *Server) addNode(c fiber.Ctx) error {
	var n routine.Node
	if err := c.Bind().JSON(&n); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		ed.AddNode(n)
		return true, nil
	})
}

func (s *Server) updateNode(c fiber.Ctx) error {
	var n routine.Node
	if err := c.Bind().JSON(&n); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	n.ID = c.Params("nid")
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		return ed.UpdateNode(n), nil
	})
}

func (s *Server) deleteNode(c fiber.Ctx) error {
	nid := c.Params("nid")
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		return ed.DeleteNode(nid), nil
	})
}

func (s *Server) unlinkNode(c fiber.Ctx) error {
	nid := c.Params("nid")
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		return ed.UnlinkNode(nid), nil
	})
}

type dropRequest struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

func (s *Server) dropNode(c fiber.Ctx) error {
	var req dropRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	nid := c.Params("nid")
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		return ed.DropNode(nid, req.Column, req.Row), nil
	})
}

func (s *Server) insertLink(c fiber.Ctx) error {
	var l routine.Link
	if err := c.Bind().JSON(&l); err != nil || l.FromID == "" || l.ToID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		ed.InsertLink(l)
		return true, nil
	})
}

func (s *Server) deleteLink(c fiber.Ctx) error {
	lid := c.Params("lid")
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		return ed.DeleteLink(lid), nil
	})
}

func (s *Server) insertNodeOnLink(c fiber.Ctx) error {
	lid := c.Params("lid")
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		if _, err := ed.InsertNodeOnLink(lid); err != nil {
			return false, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return true, nil
	})
}

func (s *Server) save(c fiber.Ctx) error {
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		if err := ed.Save(c.Context(), s.store); err != nil {
			if errors.Is(err, routine.ErrDanglingLink) {
				return false, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
			}
			if errors.Is(err, routine.ErrIDConflict) {
				return false, fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return false, fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return true, nil
	})
}

func (s *Server) revert(c fiber.Ctx) error {
	return s.withEditor(c, func(ed *routine.Editor) (bool, error) {
		ed.Revert()
		return true, nil
	})
}
