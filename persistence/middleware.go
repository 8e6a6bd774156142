package persistence

import (
	"github.com/gofiber/fiber/v2"
)

// LocalsKey is where Scope stores the request session
const LocalsKey = "db_session"

// Scope opens a session before the next handler runs and closes it when the
// handler returns, panics included. The session is committed when the
// handler returns no error and the response status is below 400.
func Scope(p Provider) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		s, err := p.Acquire(c.UserContext())
		if err != nil {
			return err
		}

		defer func() {
			if cerr := s.Close(); cerr != nil && err == nil {
				err = cerr
			}
			c.Locals(LocalsKey, nil)
		}()

		c.Locals(LocalsKey, s)

		if err = c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() < fiber.StatusBadRequest {
			return s.Commit()
		}
		return nil
	}
}

// SessionFrom returns the session bound by Scope
func SessionFrom(c *fiber.Ctx) (Session, error) {
	s, ok := c.Locals(LocalsKey).(Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
