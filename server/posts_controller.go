package server

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	devconnect "github.com/goliatone/devconnect"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

const msgPostNotFound = "Post not found"

type postRequest struct {
	Text string `json:"text"`
}

func (r postRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required.Error("Text is required")),
	)
}

// createPost publishes a feed entry. Author name and avatar are copied
// onto the post so the feed keeps rendering after account deletion.
func (s *Server) createPost(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	req := postRequest{}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := req.Validate(); err != nil {
		return renderError(c, err)
	}

	ctx := c.UserContext()
	author, err := s.repo.Users().GetByIdentifier(ctx, subject.String())
	if err != nil {
		return renderError(c, err)
	}

	post, err := s.repo.Posts().Create(ctx, &devconnect.Post{
		UserID: subject,
		Text:   req.Text,
		Name:   author.Name,
		Avatar: author.Avatar,
	})
	if err != nil {
		s.logger.Error("post create failed", "user", subject, "error", err)
		return renderError(c, err)
	}

	return c.JSON(post)
}

func (s *Server) listPosts(c *fiber.Ctx) error {
	records, err := s.repo.Posts().List(c.UserContext())
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(records)
}

func (s *Server) getPost(c *fiber.Ctx) error {
	post, ok, err := s.loadPost(c)
	if !ok {
		return err
	}
	return c.JSON(post)
}

// deletePost removes a post after proving the caller owns it. A valid
// token for a different account gets a forbidden answer, not a 404.
func (s *Server) deletePost(c *fiber.Ctx) error {
	post, ok, err := s.loadPost(c)
	if !ok {
		return err
	}

	subject := devconnect.SubjectID(c.UserContext())
	if err := devconnect.Authorize(subject, post.UserID.String()); err != nil {
		return renderError(c, err)
	}

	if err := s.repo.Posts().Remove(c.UserContext(), post.ID); err != nil {
		s.logger.Error("post delete failed", "post", post.ID, "error", err)
		return renderError(c, err)
	}

	return c.JSON(MsgResponse{Msg: "Post removed"})
}

func (s *Server) likePost(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	post, found, err := s.loadPost(c)
	if !found {
		return err
	}

	for _, like := range post.Likes {
		if like.UserID == subject {
			return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: "Post already liked"})
		}
	}

	likes, err := s.repo.Posts().AddLike(c.UserContext(), post.ID, subject)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(likes)
}

func (s *Server) unlikePost(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	post, found, err := s.loadPost(c)
	if !found {
		return err
	}

	liked := false
	for _, like := range post.Likes {
		if like.UserID == subject {
			liked = true
			break
		}
	}
	if !liked {
		return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: "Post has not yet been liked"})
	}

	likes, err := s.repo.Posts().RemoveLike(c.UserContext(), post.ID, subject)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(likes)
}

func (s *Server) addComment(c *fiber.Ctx) error {
	subject, ok := s.subjectUUID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	}

	req := postRequest{}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := req.Validate(); err != nil {
		return renderError(c, err)
	}

	post, found, err := s.loadPost(c)
	if !found {
		return err
	}

	ctx := c.UserContext()
	author, err := s.repo.Users().GetByIdentifier(ctx, subject.String())
	if err != nil {
		return renderError(c, err)
	}

	comments, err := s.repo.Posts().AddComment(ctx, &devconnect.Comment{
		PostID: post.ID,
		UserID: subject,
		Text:   req.Text,
		Name:   author.Name,
		Avatar: author.Avatar,
	})
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(comments)
}

// removeComment deletes a comment the caller authored. The post owner
// cannot remove someone else's comment on their post.
func (s *Server) removeComment(c *fiber.Ctx) error {
	post, found, err := s.loadPost(c)
	if !found {
		return err
	}

	commentID, err := uuid.Parse(c.Params("comment_id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(MsgResponse{Msg: "Comment does not exist"})
	}

	ctx := c.UserContext()
	comment, err := s.repo.Posts().GetComment(ctx, post.ID, commentID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(MsgResponse{Msg: "Comment does not exist"})
		}
		return renderError(c, err)
	}

	subject := devconnect.SubjectID(c.UserContext())
	if err := devconnect.Authorize(subject, comment.UserID.String()); err != nil {
		return renderError(c, err)
	}

	comments, err := s.repo.Posts().RemoveComment(ctx, post.ID, commentID)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(comments)
}

// loadPost resolves the :id path param. The second return is false when
// a response was already written.
func (s *Server) loadPost(c *fiber.Ctx) (*devconnect.Post, bool, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(MsgResponse{Msg: msgPostNotFound})
	}

	post, err := s.repo.Posts().GetByID(c.UserContext(), id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, false, c.Status(fiber.StatusNotFound).JSON(MsgResponse{Msg: msgPostNotFound})
		}
		return nil, false, renderError(c, err)
	}

	return post, true, nil
}
