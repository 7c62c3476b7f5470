package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	devconnect "github.com/goliatone/devconnect"
	"github.com/goliatone/devconnect/server"
)

var dbSeq int

func testConfig() *devconnect.AppConfig {
	return &devconnect.AppConfig{
		SigningKey:      "server-test-signing-key",
		TokenExpiration: devconnect.TokenTTLHours,
		TokenHeader:     "x-auth-token",
		Issuer:          "devconnect",
		LoginRatePerMin: 10000,
	}
}

func newTestServer(t *testing.T, opts ...server.Option) *server.Server {
	t.Helper()

	dbSeq++
	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", dbSeq)

	db, err := devconnect.OpenDatabase(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, devconnect.CreateSchema(context.Background(), db))

	cfg := testConfig()
	repo := devconnect.NewRepositoryManager(db)
	provider := devconnect.NewUserProvider(repo.Users())
	auther := devconnect.NewAuthenticator(provider, cfg)

	opts = append([]server.Option{server.WithLoginRate(cfg.LoginRatePerMin)}, opts...)
	return server.New(cfg, repo, auther, opts...)
}

func request(t *testing.T, srv *server.Server, method, path, token string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}

	res, err := srv.App().Test(req, 5000)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()

	return res, raw
}

func decode(t *testing.T, raw []byte, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}

func registerAccount(t *testing.T, srv *server.Server, name, email, password string) string {
	t.Helper()

	res, raw := request(t, srv, http.MethodPost, "/api/users", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "register failed: %s", raw)

	out := server.TokenResponse{}
	decode(t, raw, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func errorMessages(t *testing.T, raw []byte) []string {
	t.Helper()
	body := server.ErrorsResponse{}
	decode(t, raw, &body)
	msgs := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		msgs = append(msgs, e.Msg)
	}
	return msgs
}

func TestRegistration(t *testing.T) {
	srv := newTestServer(t)

	t.Run("returns a token that authenticates", func(t *testing.T) {
		token := registerAccount(t, srv, "Ada", "ada@example.com", "hunter22")

		res, raw := request(t, srv, http.MethodGet, "/api/auth", token, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)

		user := map[string]any{}
		decode(t, raw, &user)
		assert.Equal(t, "ada@example.com", user["email"])
		assert.Equal(t, "Ada", user["name"])
		assert.Contains(t, user["avatar"], "gravatar.com")
		assert.NotContains(t, user, "password_hash")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPost, "/api/users", "", map[string]string{
			"name":     "Ada Again",
			"email":    "ada@example.com",
			"password": "different1",
		})
		assert.Equal(t, http.StatusConflict, res.StatusCode)
		assert.Equal(t, []string{"User already exists."}, errorMessages(t, raw))
	})

	t.Run("validation messages fan out per field", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPost, "/api/users", "", map[string]string{
			"name":     "",
			"email":    "not-an-email",
			"password": "shrt",
		})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		msgs := errorMessages(t, raw)
		assert.Contains(t, msgs, "Name is required")
		assert.Contains(t, msgs, "Please include a valid email")
		assert.Contains(t, msgs, "Please enter a password with 6 or more characters")
	})
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	registerAccount(t, srv, "Ada", "ada@example.com", "hunter22")

	t.Run("valid credentials return a token", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPost, "/api/auth", "", map[string]string{
			"email":    "ada@example.com",
			"password": "hunter22",
		})
		require.Equal(t, http.StatusOK, res.StatusCode)

		out := server.TokenResponse{}
		decode(t, raw, &out)
		assert.NotEmpty(t, out.Token)
	})

	t.Run("wrong password and unknown email share one body", func(t *testing.T) {
		for _, creds := range []map[string]string{
			{"email": "ada@example.com", "password": "wrong password"},
			{"email": "ghost@example.com", "password": "hunter22"},
		} {
			res, raw := request(t, srv, http.MethodPost, "/api/auth", "", creds)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.Equal(t, []string{"Invalid Credentials"}, errorMessages(t, raw))
		}
	})
}

func TestTokenGate(t *testing.T) {
	srv := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodGet, "/api/auth", "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

		body := server.MsgResponse{}
		decode(t, raw, &body)
		assert.Equal(t, "No token, authorization denied", body.Msg)
	})

	t.Run("garbage token", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodGet, "/api/auth", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

		body := server.MsgResponse{}
		decode(t, raw, &body)
		assert.Equal(t, "Token is not valid", body.Msg)
	})
}

func TestPosts(t *testing.T) {
	srv := newTestServer(t)
	owner := registerAccount(t, srv, "Ada", "ada@example.com", "hunter22")
	other := registerAccount(t, srv, "Grace", "grace@example.com", "hunter23")

	createPost := func(t *testing.T, token, text string) map[string]any {
		res, raw := request(t, srv, http.MethodPost, "/api/posts", token, map[string]string{"text": text})
		require.Equal(t, http.StatusOK, res.StatusCode, "create post failed: %s", raw)
		post := map[string]any{}
		decode(t, raw, &post)
		return post
	}

	post := createPost(t, owner, "hello world")
	postID := post["id"].(string)

	t.Run("denormalizes author name and avatar", func(t *testing.T) {
		assert.Equal(t, "Ada", post["name"])
		assert.Contains(t, post["avatar"], "gravatar.com")
	})

	t.Run("text is required", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPost, "/api/posts", owner, map[string]string{"text": ""})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Equal(t, []string{"Text is required"}, errorMessages(t, raw))
	})

	t.Run("list and get", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodGet, "/api/posts", other, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		list := []map[string]any{}
		decode(t, raw, &list)
		require.NotEmpty(t, list)

		res, raw = request(t, srv, http.MethodGet, "/api/posts/"+postID, other, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		got := map[string]any{}
		decode(t, raw, &got)
		assert.Equal(t, "hello world", got["text"])
	})

	t.Run("unknown post is a 404", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodGet, "/api/posts/6a9f2c1e-0000-4222-8333-444455556666", other, nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)

		body := server.MsgResponse{}
		decode(t, raw, &body)
		assert.Equal(t, "Post not found", body.Msg)
	})

	t.Run("like then double like", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPut, "/api/posts/like/"+postID, other, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		likes := []map[string]any{}
		decode(t, raw, &likes)
		assert.Len(t, likes, 1)

		res, raw = request(t, srv, http.MethodPut, "/api/posts/like/"+postID, other, nil)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		body := server.MsgResponse{}
		decode(t, raw, &body)
		assert.Equal(t, "Post already liked", body.Msg)
	})

	t.Run("unlike then unlike again", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPut, "/api/posts/unlike/"+postID, other, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		likes := []map[string]any{}
		decode(t, raw, &likes)
		assert.Empty(t, likes)

		res, raw = request(t, srv, http.MethodPut, "/api/posts/unlike/"+postID, other, nil)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		body := server.MsgResponse{}
		decode(t, raw, &body)
		assert.Equal(t, "Post has not yet been liked", body.Msg)
	})

	t.Run("comments", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPost, "/api/posts/comment/"+postID, other, map[string]string{
			"text": "nice post",
		})
		require.Equal(t, http.StatusOK, res.StatusCode)
		comments := []map[string]any{}
		decode(t, raw, &comments)
		require.Len(t, comments, 1)
		commentID := comments[0]["id"].(string)

		// the post owner cannot remove someone else's comment
		res, raw = request(t, srv, http.MethodDelete, "/api/posts/comment/"+postID+"/"+commentID, owner, nil)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)

		// the author can
		res, raw = request(t, srv, http.MethodDelete, "/api/posts/comment/"+postID+"/"+commentID, other, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		comments = []map[string]any{}
		decode(t, raw, &comments)
		assert.Empty(t, comments)
	})

	t.Run("delete enforces ownership", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodDelete, "/api/posts/"+postID, other, nil)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)

		body := server.MsgResponse{}
		decode(t, raw, &body)
		assert.Equal(t, "Not authorized", body.Msg)

		res, raw = request(t, srv, http.MethodDelete, "/api/posts/"+postID, owner, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		decode(t, raw, &body)
		assert.Equal(t, "Post removed", body.Msg)

		res, _ = request(t, srv, http.MethodGet, "/api/posts/"+postID, owner, nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestProfiles(t *testing.T) {
	srv := newTestServer(t)
	owner := registerAccount(t, srv, "Ada", "ada@example.com", "hunter22")

	t.Run("me before creation", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodGet, "/api/profile/me", owner, nil)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		body := server.MsgResponse{}
		decode(t, raw, &body)
		assert.Equal(t, "There is no profile for this user", body.Msg)
	})

	t.Run("status and skills are required", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPost, "/api/profile", owner, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		msgs := errorMessages(t, raw)
		assert.Contains(t, msgs, "Status is required")
		assert.Contains(t, msgs, "Skills is required")
	})

	t.Run("create then update is last writer wins", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPost, "/api/profile", owner, map[string]string{
			"status":   "Developer",
			"skills":   "Go, SQL",
			"company":  "Initech",
			"location": "London",
		})
		require.Equal(t, http.StatusOK, res.StatusCode, "create profile failed: %s", raw)

		profile := map[string]any{}
		decode(t, raw, &profile)
		assert.Equal(t, "Developer", profile["status"])
		assert.Equal(t, []any{"Go", "SQL"}, profile["skills"])

		res, raw = request(t, srv, http.MethodPost, "/api/profile", owner, map[string]string{
			"status": "Senior Developer",
			"skills": "Go",
		})
		require.Equal(t, http.StatusOK, res.StatusCode)
		decode(t, raw, &profile)
		assert.Equal(t, "Senior Developer", profile["status"])
		assert.Equal(t, []any{"Go"}, profile["skills"])
	})

	t.Run("public list and by user", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodGet, "/api/profile", "", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		list := []map[string]any{}
		decode(t, raw, &list)
		require.Len(t, list, 1)

		userID := list[0]["user_id"].(string)
		res, raw = request(t, srv, http.MethodGet, "/api/profile/user/"+userID, "", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)

		res, _ = request(t, srv, http.MethodGet, "/api/profile/user/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("experience lifecycle", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPut, "/api/profile/experience", owner, map[string]any{
			"title":   "Engineer",
			"company": "Initech",
			"from":    "2020-01-01",
		})
		require.Equal(t, http.StatusOK, res.StatusCode, "add experience failed: %s", raw)

		profile := map[string]any{}
		decode(t, raw, &profile)
		experience := profile["experience"].([]any)
		require.Len(t, experience, 1)
		expID := experience[0].(map[string]any)["id"].(string)

		res, raw = request(t, srv, http.MethodDelete, "/api/profile/experience/"+expID, owner, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		decode(t, raw, &profile)
		assert.Nil(t, profile["experience"])
	})

	t.Run("experience validation", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPut, "/api/profile/experience", owner, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		msgs := errorMessages(t, raw)
		assert.Contains(t, msgs, "Title is required")
		assert.Contains(t, msgs, "Company is required")
		assert.Contains(t, msgs, "From date is required")
	})

	t.Run("education lifecycle", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPut, "/api/profile/education", owner, map[string]any{
			"school":       "MIT",
			"degree":       "BSc",
			"fieldofstudy": "CS",
			"from":         "2016-09-01",
		})
		require.Equal(t, http.StatusOK, res.StatusCode, "add education failed: %s", raw)

		profile := map[string]any{}
		decode(t, raw, &profile)
		education := profile["education"].([]any)
		require.Len(t, education, 1)
		eduID := education[0].(map[string]any)["id"].(string)

		res, raw = request(t, srv, http.MethodDelete, "/api/profile/education/"+eduID, owner, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
	})
}

func TestDeleteAccountCascades(t *testing.T) {
	srv := newTestServer(t)
	owner := registerAccount(t, srv, "Ada", "ada@example.com", "hunter22")

	res, raw := request(t, srv, http.MethodPost, "/api/profile", owner, map[string]string{
		"status": "Developer",
		"skills": "Go",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "profile: %s", raw)

	res, raw = request(t, srv, http.MethodPost, "/api/posts", owner, map[string]string{"text": "goodbye"})
	require.Equal(t, http.StatusOK, res.StatusCode, "post: %s", raw)

	res, raw = request(t, srv, http.MethodDelete, "/api/profile", owner, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, "delete: %s", raw)

	body := server.MsgResponse{}
	decode(t, raw, &body)
	assert.Equal(t, "User deleted", body.Msg)

	t.Run("credentials no longer work", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodPost, "/api/auth", "", map[string]string{
			"email":    "ada@example.com",
			"password": "hunter22",
		})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Equal(t, []string{"Invalid Credentials"}, errorMessages(t, raw))
	})

	t.Run("posts are gone", func(t *testing.T) {
		other := registerAccount(t, srv, "Grace", "grace@example.com", "hunter23")
		res, raw := request(t, srv, http.MethodGet, "/api/posts", other, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		list := []map[string]any{}
		decode(t, raw, &list)
		assert.Empty(t, list)
	})

	t.Run("profile list is empty", func(t *testing.T) {
		res, raw := request(t, srv, http.MethodGet, "/api/profile", "", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		list := []map[string]any{}
		decode(t, raw, &list)
		assert.Empty(t, list)
	})
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t, server.WithLoginRate(2))

	creds := map[string]string{"email": "ada@example.com", "password": "whatever1"}

	res, _ := request(t, srv, http.MethodPost, "/api/auth", "", creds)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res, _ = request(t, srv, http.MethodPost, "/api/auth", "", creds)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, raw := request(t, srv, http.MethodPost, "/api/auth", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)

	body := server.MsgResponse{}
	decode(t, raw, &body)
	assert.Equal(t, "Too many attempts, please try again later", body.Msg)
}

type stubFetcher struct {
	body json.RawMessage
	err  error
}

func (s stubFetcher) ReposForUser(ctx context.Context, username string) (json.RawMessage, error) {
	return s.body, s.err
}

func TestGithubProxy(t *testing.T) {
	t.Run("passes the upstream body through", func(t *testing.T) {
		srv := newTestServer(t, server.WithRepoFetcher(stubFetcher{
			body: json.RawMessage(`[{"name":"repo-one"}]`),
		}))

		res, raw := request(t, srv, http.MethodGet, "/api/profile/github/octocat", "", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.JSONEq(t, `[{"name":"repo-one"}]`, string(raw))
	})

	t.Run("upstream failure collapses to not found", func(t *testing.T) {
		srv := newTestServer(t, server.WithRepoFetcher(stubFetcher{
			err: fmt.Errorf("upstream said 404"),
		}))

		res, raw := request(t, srv, http.MethodGet, "/api/profile/github/nobody", "", nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)

		body := server.MsgResponse{}
		decode(t, raw, &body)
		assert.Equal(t, "No Github profile found", body.Msg)
	})
}
