package devconnect

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Posts is the feed repository.
type Posts interface {
	repository.Repository[*Post]

	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	List(ctx context.Context) ([]*Post, error)
	Create(ctx context.Context, record *Post, criteria ...repository.InsertCriteria) (*Post, error)
	Remove(ctx context.Context, id uuid.UUID) error
	AddLike(ctx context.Context, postID, userID uuid.UUID) ([]*PostLike, error)
	RemoveLike(ctx context.Context, postID, userID uuid.UUID) ([]*PostLike, error)
	AddComment(ctx context.Context, comment *Comment) ([]*Comment, error)
	GetComment(ctx context.Context, postID, commentID uuid.UUID) (*Comment, error)
	RemoveComment(ctx context.Context, postID, commentID uuid.UUID) ([]*Comment, error)
	RemoveByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var (
	_ Posts                        = (*posts)(nil)
	_ repository.Repository[*Post] = (*posts)(nil)
)

// NewPostsRepository builds the bun-backed posts repository.
func NewPostsRepository(db *bun.DB) Posts {
	repo := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{
		Repository: repo,
		db:         db,
	}
}

func (a *posts) Create(ctx context.Context, record *Post, criteria ...repository.InsertCriteria) (*Post, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, a.db, record, criteria...)
}

// GetByID loads a post with its likes and comments.
func (a *posts) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	record := &Post{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Likes").
		Relation("Comments").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"post_id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

// List returns every post, newest first.
func (a *posts) List(ctx context.Context) ([]*Post, error) {
	records := []*Post{}
	err := a.db.NewSelect().
		Model(&records).
		Relation("Likes").
		Relation("Comments").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *posts) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := a.db.NewDelete().
		Model((*PostLike)(nil)).
		Where("post_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := a.db.NewDelete().
		Model((*Comment)(nil)).
		Where("post_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}

	_, err := a.db.NewDelete().
		Model((*Post)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *posts) AddLike(ctx context.Context, postID, userID uuid.UUID) ([]*PostLike, error) {
	like := &PostLike{
		ID:     uuid.New(),
		PostID: postID,
		UserID: userID,
	}

	if _, err := a.db.NewInsert().Model(like).Exec(ctx); err != nil {
		return nil, err
	}

	return a.likesFor(ctx, postID)
}

func (a *posts) RemoveLike(ctx context.Context, postID, userID uuid.UUID) ([]*PostLike, error) {
	if _, err := a.db.NewDelete().
		Model((*PostLike)(nil)).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Exec(ctx); err != nil {
		return nil, err
	}

	return a.likesFor(ctx, postID)
}

func (a *posts) AddComment(ctx context.Context, comment *Comment) ([]*Comment, error) {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}

	if _, err := a.db.NewInsert().Model(comment).Exec(ctx); err != nil {
		return nil, err
	}

	return a.commentsFor(ctx, comment.PostID)
}

func (a *posts) GetComment(ctx context.Context, postID, commentID uuid.UUID) (*Comment, error) {
	record := &Comment{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ? AND ?TableAlias.post_id = ?", commentID, postID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"comment_id": commentID.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *posts) RemoveComment(ctx context.Context, postID, commentID uuid.UUID) ([]*Comment, error) {
	if _, err := a.db.NewDelete().
		Model((*Comment)(nil)).
		Where("id = ? AND post_id = ?", commentID, postID).
		Exec(ctx); err != nil {
		return nil, err
	}

	return a.commentsFor(ctx, postID)
}

// RemoveByUserTx deletes a subject's posts, likes, and comments as part
// of an account removal transaction.
func (a *posts) RemoveByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	postIDs := []uuid.UUID{}
	if err := tx.NewSelect().
		Model((*Post)(nil)).
		Column("id").
		Where("user_id = ?", userID).
		Scan(ctx, &postIDs); err != nil {
		return err
	}

	if len(postIDs) > 0 {
		if _, err := tx.NewDelete().
			Model((*PostLike)(nil)).
			Where("post_id IN (?)", bun.In(postIDs)).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*Comment)(nil)).
			Where("post_id IN (?)", bun.In(postIDs)).
			Exec(ctx); err != nil {
			return err
		}
	}

	if _, err := tx.NewDelete().
		Model((*PostLike)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := tx.NewDelete().
		Model((*Comment)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return err
	}

	_, err := tx.NewDelete().
		Model((*Post)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

func (a *posts) likesFor(ctx context.Context, postID uuid.UUID) ([]*PostLike, error) {
	likes := []*PostLike{}
	err := a.db.NewSelect().
		Model(&likes).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (a *posts) commentsFor(ctx context.Context, postID uuid.UUID) ([]*Comment, error) {
	comments := []*Comment{}
	err := a.db.NewSelect().
		Model(&comments).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return comments, nil
}
