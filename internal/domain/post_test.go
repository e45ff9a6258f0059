package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate("2024-05-17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate("2024-05-17T19:30:00+07:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), *d)

	_, err = ParseDate("next friday")
	assert.Error(t, err)
}

func TestPostChangesApply(t *testing.T) {
	p := &Post{Name: "Old", Slug: "old", Address: "Hall A", FileImg: "http://img/1", ImageKey: "k1"}

	PostChanges{Name: "New", Slug: "new"}.Apply(p)
	assert.Equal(t, "New", p.Name)
	assert.Equal(t, "", p.Address)
	assert.Equal(t, "http://img/1", p.FileImg, "image kept unless replaced")

	PostChanges{Name: "New", Slug: "new", ReplaceImage: true, FileImg: "http://img/2", ImageKey: "k2"}.Apply(p)
	assert.Equal(t, "k2", p.ImageKey)
}

func TestUserViewOmitsHash(t *testing.T) {
	u := &User{Username: "alice", Email: "a@x.io", PasswordHash: "secret"}
	v := u.View()
	assert.Equal(t, "alice", v.Username)
	assert.Equal(t, "a@x.io", v.Email)
}
