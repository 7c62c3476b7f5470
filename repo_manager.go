package devconnect

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Profiles() Profiles
	Posts() Posts
}

type mngr struct {
	db       *bun.DB
	users    Users
	profiles Profiles
	posts    Posts
}

// NewRepositoryManager wires the repositories over a shared bun handle.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		profiles: NewProfilesRepository(db),
		posts:    NewPostsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	if m.posts == nil {
		return errors.New("repository posts should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users { return m.users }

func (m mngr) Profiles() Profiles { return m.profiles }

func (m mngr) Posts() Posts { return m.posts }
