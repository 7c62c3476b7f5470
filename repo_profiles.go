package devconnect

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the developer profile repository. Experience and
// education rows live in their own tables but are loaded as part of the
// owning profile.
type Profiles interface {
	repository.Repository[*Profile]

	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Save(ctx context.Context, profile *Profile) (*Profile, error)
	AddExperience(ctx context.Context, exp *Experience) error
	RemoveExperience(ctx context.Context, userID, expID uuid.UUID) error
	AddEducation(ctx context.Context, edu *Education) error
	RemoveEducation(ctx context.Context, userID, eduID uuid.UUID) error
	RemoveByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

// NewProfilesRepository builds the bun-backed profiles repository.
func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

// GetByUserID loads a profile with its owner and embedded lists.
func (a *profiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	record := &Profile{}
	err := a.db.NewSelect().
		Model(record).
		Relation("User").
		Relation("Experience").
		Relation("Education").
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"user_id": userID.String()})
		}
		return nil, err
	}

	return record, nil
}

// List returns every profile with its owner attached.
func (a *profiles) List(ctx context.Context) ([]*Profile, error) {
	records := []*Profile{}
	err := a.db.NewSelect().
		Model(&records).
		Relation("User").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates the profile on first write and replaces the mutable
// columns afterwards. The read-check-then-write cycle is not atomic
// against concurrent writers to the same profile; last writer wins.
func (a *profiles) Save(ctx context.Context, profile *Profile) (*Profile, error) {
	existing := &Profile{}
	err := a.db.NewSelect().
		Model(existing).
		Where("?TableAlias.user_id = ?", profile.UserID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if !repository.IsRecordNotFound(err) {
			return nil, err
		}

		if profile.ID == uuid.Nil {
			profile.ID = uuid.New()
		}
		return a.Repository.CreateTx(ctx, a.db, profile)
	}

	profile.ID = existing.ID
	_, err = a.db.NewUpdate().
		Model(profile).
		Column("company", "website", "location", "status", "skills", "bio",
			"github_username", "youtube", "twitter", "instagram", "linkedin", "facebook").
		Where("id = ?", existing.ID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return a.GetByUserID(ctx, profile.UserID)
}

func (a *profiles) AddExperience(ctx context.Context, exp *Experience) error {
	if exp.ID == uuid.Nil {
		exp.ID = uuid.New()
	}
	_, err := a.db.NewInsert().Model(exp).Exec(ctx)
	return err
}

// RemoveExperience deletes one entry, scoped to the owner so a forged
// id belonging to someone else is a no-op.
func (a *profiles) RemoveExperience(ctx context.Context, userID, expID uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*Experience)(nil)).
		Where("id = ? AND user_id = ?", expID, userID).
		Exec(ctx)
	return err
}

func (a *profiles) AddEducation(ctx context.Context, edu *Education) error {
	if edu.ID == uuid.Nil {
		edu.ID = uuid.New()
	}
	_, err := a.db.NewInsert().Model(edu).Exec(ctx)
	return err
}

func (a *profiles) RemoveEducation(ctx context.Context, userID, eduID uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*Education)(nil)).
		Where("id = ? AND user_id = ?", eduID, userID).
		Exec(ctx)
	return err
}

// RemoveByUserTx deletes the profile and its embedded rows as part of
// an account removal transaction.
func (a *profiles) RemoveByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	if _, err := tx.NewDelete().
		Model((*Experience)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := tx.NewDelete().
		Model((*Education)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return err
	}

	_, err := tx.NewDelete().
		Model((*Profile)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}
