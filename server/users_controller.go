package server

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	devconnect "github.com/goliatone/devconnect"
	"github.com/goliatone/go-repository-bun"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("Name is required"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("Please include a valid email"),
			is.Email.Error("Please include a valid email"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Please enter a password with 6 or more characters"),
			validation.Length(6, 0).Error("Please enter a password with 6 or more characters"),
		),
	)
}

// registerUser creates an account and answers with a fresh token so the
// caller lands authenticated. The duplicate check here is advisory; the
// unique email index catches races and surfaces the same conflict.
func (s *Server) registerUser(c *fiber.Ctx) error {
	req := registerRequest{}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := req.Validate(); err != nil {
		s.metrics.registration("invalid")
		return renderError(c, err)
	}

	ctx := c.UserContext()

	if _, err := s.repo.Users().GetByIdentifier(ctx, req.Email); err == nil {
		s.metrics.registration("duplicate")
		return renderError(c, devconnect.ErrDuplicateEmail)
	} else if !repository.IsRecordNotFound(err) {
		s.logger.Error("registration lookup failed", "error", err)
		return renderError(c, err)
	}

	hash, err := devconnect.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("password hash failed", "error", err)
		return renderError(c, err)
	}

	user, err := s.repo.Users().Register(ctx, &devconnect.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		s.metrics.registration("failure")
		return renderError(c, err)
	}

	token, err := s.auth.TokenService().Generate(devconnect.IdentityFromUser(user))
	if err != nil {
		s.logger.Error("token mint failed", "user", user.ID, "error", err)
		return renderError(c, err)
	}

	s.metrics.registration("success")
	return c.JSON(TokenResponse{Token: token})
}
