package devconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGravatarURL(t *testing.T) {
	url := GravatarURL("ada@example.com")
	assert.Contains(t, url, "https://www.gravatar.com/avatar/")
	assert.Contains(t, url, "s=200")
	assert.Contains(t, url, "r=pg")
	assert.Contains(t, url, "d=mm")

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, url, GravatarURL("  ADA@Example.com "))
	})
}

func TestParseSkills(t *testing.T) {
	assert.Equal(t, SkillList{"Go", "SQL", "HTTP"}, ParseSkills("Go, SQL ,HTTP"))
	assert.Empty(t, ParseSkills("  ,, "))
}

func TestSkillListColumnCodec(t *testing.T) {
	skills := SkillList{"Go", "SQL"}

	value, err := skills.Value()
	require.NoError(t, err)
	assert.Equal(t, `["Go","SQL"]`, value)

	decoded := SkillList{}
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, skills, decoded)

	t.Run("nil list stores an empty array", func(t *testing.T) {
		var empty SkillList
		value, err := empty.Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", value)
	})

	t.Run("null column scans to nil", func(t *testing.T) {
		decoded := SkillList{"stale"}
		require.NoError(t, decoded.Scan(nil))
		assert.Nil(t, decoded)
	})
}

func TestIdentityFromUser(t *testing.T) {
	assert.Nil(t, IdentityFromUser(nil))

	user := &User{Name: "Ada", Email: "ada@example.com", Avatar: "http://a"}
	identity := IdentityFromUser(user)
	assert.Equal(t, "Ada", identity.Name())
	assert.Equal(t, "ada@example.com", identity.Email())
	assert.Equal(t, "http://a", identity.AvatarURL())
}
