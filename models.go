package devconnect

import (
	"crypto/md5"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account record. Email is unique at the storage layer,
// which backstops the duplicate-registration check against concurrent
// writers.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Avatar         string     `bun:"avatar" json:"avatar,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// SkillList stores a list of skills as a JSON text column.
type SkillList []string

var _ driver.Valuer = (SkillList)(nil)

// Value implements driver.Valuer.
func (s SkillList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *SkillList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	default:
		return goerrors.New(fmt.Sprintf("unsupported skills column type %T", src), goerrors.CategoryInternal)
	}
}

// ParseSkills splits a comma separated skill string, trimming blanks.
func ParseSkills(csv string) SkillList {
	parts := strings.Split(csv, ",")
	skills := make(SkillList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			skills = append(skills, p)
		}
	}
	return skills
}

// Profile is the public developer profile. UserID is the immutable
// ownership reference, set once at creation.
type Profile struct {
	bun.BaseModel  `bun:"table:profiles,alias:prf"`
	ID             uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID         uuid.UUID     `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	User           *User         `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Company        string        `bun:"company" json:"company,omitempty"`
	Website        string        `bun:"website" json:"website,omitempty"`
	Location       string        `bun:"location" json:"location,omitempty"`
	Status         string        `bun:"status,notnull" json:"status,omitempty"`
	Skills         SkillList     `bun:"skills,type:text" json:"skills,omitempty"`
	Bio            string        `bun:"bio" json:"bio,omitempty"`
	GithubUsername string        `bun:"github_username" json:"githubusername,omitempty"`
	Youtube        string        `bun:"youtube" json:"youtube,omitempty"`
	Twitter        string        `bun:"twitter" json:"twitter,omitempty"`
	Instagram      string        `bun:"instagram" json:"instagram,omitempty"`
	LinkedIn       string        `bun:"linkedin" json:"linkedin,omitempty"`
	Facebook       string        `bun:"facebook" json:"facebook,omitempty"`
	Experience     []*Experience `bun:"rel:has-many,join:id=profile_id" json:"experience,omitempty"`
	Education      []*Education  `bun:"rel:has-many,join:id=profile_id" json:"education,omitempty"`
	CreatedAt      *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Experience is an embedded work history entry. Dates pass through as
// submitted; the profile routes do not interpret them.
type Experience struct {
	bun.BaseModel `bun:"table:profile_experience,alias:exp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProfileID     uuid.UUID  `bun:"profile_id,notnull,type:uuid" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Company       string     `bun:"company,notnull" json:"company,omitempty"`
	Location      string     `bun:"location" json:"location,omitempty"`
	From          string     `bun:"from_date,notnull" json:"from,omitempty"`
	To            string     `bun:"to_date" json:"to,omitempty"`
	Current       bool       `bun:"current" json:"current,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Education is an embedded education entry.
type Education struct {
	bun.BaseModel `bun:"table:profile_education,alias:edu"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProfileID     uuid.UUID  `bun:"profile_id,notnull,type:uuid" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	School        string     `bun:"school,notnull" json:"school,omitempty"`
	Degree        string     `bun:"degree,notnull" json:"degree,omitempty"`
	FieldOfStudy  string     `bun:"field_of_study,notnull" json:"fieldofstudy,omitempty"`
	From          string     `bun:"from_date,notnull" json:"from,omitempty"`
	To            string     `bun:"to_date" json:"to,omitempty"`
	Current       bool       `bun:"current" json:"current,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Post is a feed entry. Name and Avatar are denormalized from the
// author at creation time so deleted accounts keep rendering.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID   `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Text          string      `bun:"text,notnull" json:"text,omitempty"`
	Name          string      `bun:"name" json:"name,omitempty"`
	Avatar        string      `bun:"avatar" json:"avatar,omitempty"`
	Likes         []*PostLike `bun:"rel:has-many,join:id=post_id" json:"likes"`
	Comments      []*Comment  `bun:"rel:has-many,join:id=post_id" json:"comments"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// PostLike records one subject liking one post.
type PostLike struct {
	bun.BaseModel `bun:"table:post_likes,alias:lik"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PostID        uuid.UUID  `bun:"post_id,notnull,type:uuid" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Comment is a reply on a post, owned by its author.
type Comment struct {
	bun.BaseModel `bun:"table:post_comments,alias:cmt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PostID        uuid.UUID  `bun:"post_id,notnull,type:uuid" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Text          string     `bun:"text,notnull" json:"text,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Avatar        string     `bun:"avatar" json:"avatar,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// GravatarURL derives the avatar URL for an email the way the original
// service did: md5 of the lowercased address, 200px, PG rated, with the
// mystery-man fallback.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=200&r=pg&d=mm", sum)
}

type authIdentity struct {
	id     string
	name   string
	email  string
	avatar string
}

var _ Identity = authIdentity{}

func (a authIdentity) ID() string        { return a.id }
func (a authIdentity) Name() string      { return a.name }
func (a authIdentity) Email() string     { return a.email }
func (a authIdentity) AvatarURL() string { return a.avatar }

// IdentityFromUser adapts a stored user row to the Identity interface.
func IdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return authIdentity{
		id:     user.ID.String(),
		name:   user.Name,
		email:  user.Email,
		avatar: user.Avatar,
	}
}
