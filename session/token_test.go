package session

import (
	"context"
	"testing"

	"echonest/models"

	"github.com/go-playground/assert/v2"
)

func TestMintParseRoundTrip(t *testing.T) {
	in := models.Session{
		UserID:    "user-1",
		Name:      "Dana",
		AvatarURL: "https://example.com/avatar.png",
	}

	token, err := Mint("secret", in)
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", token)

	out, err := Parse("secret", token)
	assert.Equal(t, nil, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.AvatarURL, out.AvatarURL)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := Mint("secret", models.Session{UserID: "user-1"})
	assert.Equal(t, nil, err)

	_, err = Parse("other-secret", token)
	assert.NotEqual(t, nil, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("secret", "not-a-token")
	assert.NotEqual(t, nil, err)
}

func TestContextProvider(t *testing.T) {
	provider := ContextProvider{}

	_, ok := provider.Current(context.Background())
	assert.Equal(t, false, ok)

	sess := &models.Session{UserID: "user-1", Name: "Dana"}
	ctx := NewContext(context.Background(), sess)

	got, ok := provider.Current(ctx)
	assert.Equal(t, true, ok)
	assert.Equal(t, "user-1", got.UserID)
}

func TestStaticProvider(t *testing.T) {
	_, ok := Static{}.Current(context.Background())
	assert.Equal(t, false, ok)

	got, ok := Static{Session: &models.Session{UserID: "u"}}.Current(context.Background())
	assert.Equal(t, true, ok)
	assert.Equal(t, "u", got.UserID)
}
