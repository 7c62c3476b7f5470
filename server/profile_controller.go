package server

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	devconnect "github.com/goliatone/devconnect"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const msgNoProfile = "There is no profile for this user"

type profileRequest struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Status         string `json:"status"`
	Skills         string `json:"skills"`
	Bio            string `json:"bio"`
	GithubUsername string `json:"githubusername"`
	Youtube        string `json:"youtube"`
	Twitter        string `json:"twitter"`
	Instagram      string `json:"instagram"`
	LinkedIn       string `json:"linkedin"`
	Facebook       string `json:"facebook"`
}

func (r profileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required.Error("Status is required")),
		validation.Field(&r.Skills, validation.Required.Error("Skills is required")),
	)
}

type experienceRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	From        string `json:"from"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

func (r experienceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("Title is required")),
		validation.Field(&r.Company, validation.Required.Error("Company is required")),
		validation.Field(&r.From, validation.Required.Error("From date is required")),
	)
}

type educationRequest struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldofstudy"`
	From         string `json:"from"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

func (r educationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.School, validation.Required.Error("School is required")),
		validation.Field(&r.Degree, validation.Required.Error("Degree is required")),
		validation.Field(&r.FieldOfStudy, validation.Required.Error("Field of study is required")),
		validation.Field(&r.From, validation.Required.Error("From date is required")),
	)
}

// subjectUUID resolves the authenticated subject id from the request
// context. The token gate has already run on these routes, so a missing
// or malformed subject means a token minted for a non-uuid principal.
func (s *Server) subjectUUID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(devconnect.SubjectID(c.UserContext()))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) myProfile(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	profile, err := s.repo.Profiles().GetByUserID(c.UserContext(), subject)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: msgNoProfile})
		}
		return renderError(c, err)
	}

	return c.JSON(profile)
}

// upsertProfile creates the caller's profile or replaces its mutable
// fields. Ownership is fixed at creation; the subject id from the token
// is the only owner this route will write.
func (s *Server) upsertProfile(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	req := profileRequest{}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := req.Validate(); err != nil {
		return renderError(c, err)
	}

	profile, err := s.repo.Profiles().Save(c.UserContext(), &devconnect.Profile{
		UserID:         subject,
		Company:        req.Company,
		Website:        req.Website,
		Location:       req.Location,
		Status:         req.Status,
		Skills:         devconnect.ParseSkills(req.Skills),
		Bio:            req.Bio,
		GithubUsername: req.GithubUsername,
		Youtube:        req.Youtube,
		Twitter:        req.Twitter,
		Instagram:      req.Instagram,
		LinkedIn:       req.LinkedIn,
		Facebook:       req.Facebook,
	})
	if err != nil {
		s.logger.Error("profile save failed", "user", subject, "error", err)
		return renderError(c, err)
	}

	return c.JSON(profile)
}

func (s *Server) listProfiles(c *fiber.Ctx) error {
	records, err := s.repo.Profiles().List(c.UserContext())
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(records)
}

func (s *Server) profileByUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: "Profile not found"})
	}

	profile, err := s.repo.Profiles().GetByUserID(c.UserContext(), userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: "Profile not found"})
		}
		return renderError(c, err)
	}

	return c.JSON(profile)
}

// deleteAccount removes the caller's posts, profile, and account inside
// one transaction so a partial failure leaves everything in place.
func (s *Server) deleteAccount(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	ctx := c.UserContext()
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Posts().RemoveByUserTx(ctx, tx, subject); err != nil {
			return err
		}
		if err := s.repo.Profiles().RemoveByUserTx(ctx, tx, subject); err != nil {
			return err
		}
		return s.repo.Users().RemoveTx(ctx, tx, subject)
	})
	if err != nil {
		s.logger.Error("account removal failed", "user", subject, "error", err)
		return renderError(c, err)
	}

	return c.JSON(MsgResponse{Msg: "User deleted"})
}

func (s *Server) addExperience(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	req := experienceRequest{}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := req.Validate(); err != nil {
		return renderError(c, err)
	}

	ctx := c.UserContext()
	profile, err := s.repo.Profiles().GetByUserID(ctx, subject)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: msgNoProfile})
		}
		return renderError(c, err)
	}

	err = s.repo.Profiles().AddExperience(ctx, &devconnect.Experience{
		ProfileID:   profile.ID,
		UserID:      subject,
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		From:        req.From,
		To:          req.To,
		Current:     req.Current,
		Description: req.Description,
	})
	if err != nil {
		return renderError(c, err)
	}

	return s.respondWithProfile(c, subject)
}

func (s *Server) removeExperience(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	expID, err := uuid.Parse(c.Params("exp_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: "Not Found"})
	}

	// delete is owner scoped; someone else's entry id is a no-op
	if err := s.repo.Profiles().RemoveExperience(c.UserContext(), subject, expID); err != nil {
		return renderError(c, err)
	}

	return s.respondWithProfile(c, subject)
}

func (s *Server) addEducation(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	req := educationRequest{}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := req.Validate(); err != nil {
		return renderError(c, err)
	}

	ctx := c.UserContext()
	profile, err := s.repo.Profiles().GetByUserID(ctx, subject)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: msgNoProfile})
		}
		return renderError(c, err)
	}

	err = s.repo.Profiles().AddEducation(ctx, &devconnect.Education{
		ProfileID:    profile.ID,
		UserID:       subject,
		School:       req.School,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		From:         req.From,
		To:           req.To,
		Current:      req.Current,
		Description:  req.Description,
	})
	if err != nil {
		return renderError(c, err)
	}

	return s.respondWithProfile(c, subject)
}

func (s *Server) removeEducation(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	eduID, err := uuid.Parse(c.Params("edu_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: "Not Found"})
	}

	if err := s.repo.Profiles().RemoveEducation(c.UserContext(), subject, eduID); err != nil {
		return renderError(c, err)
	}

	return s.respondWithProfile(c, subject)
}

func (s *Server) respondWithProfile(c *fiber.Ctx, userID uuid.UUID) error {
	profile, err := s.repo.Profiles().GetByUserID(c.UserContext(), userID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(profile)
}

// githubRepos proxies the user's latest public repositories. The body
// passes through verbatim; any upstream failure collapses to the same
// not-found answer.
func (s *Server) githubRepos(c *fiber.Ctx) error {
	if s.github == nil {
		return c.Status(fiber.StatusNotFound).JSON(MsgResponse{Msg: "No Github profile found"})
	}

	body, err := s.github.ReposForUser(c.UserContext(), c.Params("username"))
	if err != nil {
		s.logger.Debug("github lookup failed", "username", c.Params("username"), "error", err)
		return c.Status(fiber.StatusNotFound).JSON(MsgResponse{Msg: "No Github profile found"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
