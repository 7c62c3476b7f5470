package server

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	devconnect "github.com/goliatone/devconnect"
	goerrors "github.com/goliatone/go-errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Please include a valid email"),
			is.Email.Error("Please include a valid email"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
		),
	)
}

// login exchanges credentials for a token. Every verification failure
// collapses to the same Invalid Credentials body; only throttling is
// distinguishable to the caller.
func (s *Server) login(c *fiber.Ctx) error {
	req := loginRequest{}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := req.Validate(); err != nil {
		s.metrics.login("invalid")
		return renderError(c, err)
	}

	token, err := s.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryRateLimit {
			s.metrics.login("throttled")
			return renderError(c, err)
		}

		s.logger.Debug("login rejected", "identifier", req.Email, "error", err)
		s.metrics.login("failure")
		return invalidCredentials(c)
	}

	s.metrics.login("success")
	return c.JSON(TokenResponse{Token: token})
}

// currentUser returns the account behind the presented token, without
// credential material.
func (s *Server) currentUser(c *fiber.Ctx) error {
	subject := devconnect.SubjectID(c.UserContext())

	user, err := s.repo.Users().GetByIdentifier(c.UserContext(), subject)
	if err != nil {
		s.logger.Error("current user lookup failed", "subject", subject, "error", err)
		return renderError(c, err)
	}

	return c.JSON(user)
}
