// Package server exposes the devconnect JSON API over fiber: credential
// issuance on the auth and users routes, and ownership-gated mutations
// on the profile and posts routes.
package server

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// APIError is the single message entry used by both response shapes.
type APIError struct {
	Msg string `json:"msg"`
}

// ErrorsResponse carries one entry per individual failure so the client
// can surface each as its own notification.
type ErrorsResponse struct {
	Errors []APIError `json:"errors"`
}

// MsgResponse is the single-message failure body.
type MsgResponse struct {
	Msg string `json:"msg"`
}

// TokenResponse is the success body for login and registration.
type TokenResponse struct {
	Token string `json:"token"`
}

const msgServerError = "Server Error"

// renderError maps a domain error onto its HTTP status class. Auth
// detail never reaches the body; validation and conflict failures fan
// out every message.
func renderError(c *fiber.Ctx, err error) error {
	if errs, ok := err.(validation.Errors); ok {
		return c.Status(fiber.StatusBadRequest).JSON(validationErrors(errs))
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		if goerrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(MsgResponse{Msg: "Not Found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(MsgResponse{Msg: msgServerError})
	}

	switch richErr.Category {
	case goerrors.CategoryAuth:
		return c.Status(fiber.StatusUnauthorized).JSON(MsgResponse{Msg: "Unauthorized"})
	case goerrors.CategoryAuthz:
		return c.Status(fiber.StatusForbidden).JSON(MsgResponse{Msg: "Not authorized"})
	case goerrors.CategoryNotFound:
		return c.Status(fiber.StatusNotFound).JSON(MsgResponse{Msg: "Not Found"})
	case goerrors.CategoryConflict:
		return c.Status(fiber.StatusConflict).JSON(ErrorsResponse{
			Errors: []APIError{{Msg: richErr.Message}},
		})
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorsResponse{
			Errors: []APIError{{Msg: richErr.Message}},
		})
	case goerrors.CategoryRateLimit:
		return c.Status(fiber.StatusTooManyRequests).JSON(MsgResponse{Msg: richErr.Message})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(MsgResponse{Msg: msgServerError})
	}
}

// validationErrors flattens ozzo field errors into the errors list,
// field-ordered so responses stay deterministic.
func validationErrors(errs validation.Errors) ErrorsResponse {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := ErrorsResponse{Errors: make([]APIError, 0, len(errs))}
	for _, field := range fields {
		if errs[field] == nil {
			continue
		}
		out.Errors = append(out.Errors, APIError{Msg: errs[field].Error()})
	}
	return out
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(MsgResponse{Msg: "Invalid request payload"})
}

func invalidCredentials(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorsResponse{
		Errors: []APIError{{Msg: "Invalid Credentials"}},
	})
}
