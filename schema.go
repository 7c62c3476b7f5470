package devconnect

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenDatabase opens the sqlite-backed bun handle for the given DSN.
func OpenDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open database")
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateSchema creates every table and backing index. The unique email
// index is the backstop that guarantees no two identities ever settle
// on the same address, even when the duplicate pre-check races.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Profile)(nil),
		(*Experience)(nil),
		(*Education)(nil),
		(*Post)(nil),
		(*PostLike)(nil),
		(*Comment)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create table")
		}
	}

	if _, err := db.NewCreateIndex().
		Model((*PostLike)(nil)).
		Index("post_likes_post_user_idx").
		Unique().
		Column("post_id", "user_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create like index")
	}

	return nil
}
