package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() RegisterInput {
	return RegisterInput{
		Username: "anna",
		Email:    "Anna@Example.com",
		Password: "correct horse",
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	u, err := svc.Register(validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "anna", u.Username)
	assert.Equal(t, "anna@example.com", u.Email, "email is stored lowercased")
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	cases := map[string]RegisterInput{
		"short username": {Username: "ab", Email: "a@b.com", Password: "longenough"},
		"bad email":      {Username: "anna", Email: "not-an-email", Password: "longenough"},
		"short password": {Username: "anna", Email: "a@b.com", Password: "short"},
		"empty":          {},
	}
	for name, in := range cases {
		_, err := svc.Register(in)
		assert.Error(t, err, name)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	_, err := svc.Register(validInput())
	require.NoError(t, err)

	// same username, different case
	dup := validInput()
	dup.Username = "Anna"
	dup.Email = "other@example.com"
	_, err = svc.Register(dup)
	assert.ErrorIs(t, err, ErrDuplicate)

	// same email, different username
	dup = validInput()
	dup.Username = "bella"
	_, err = svc.Register(dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.Register(validInput())
	require.NoError(t, err)

	u, err := svc.Authenticate("anna", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "anna", u.Username)

	// case-insensitive username lookup
	_, err = svc.Authenticate("ANNA", "correct horse")
	assert.NoError(t, err)
}

func TestAuthenticateUniformFailure(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.Register(validInput())
	require.NoError(t, err)

	_, badPass := svc.Authenticate("anna", "wrong")
	_, noUser := svc.Authenticate("nobody", "wrong")

	assert.ErrorIs(t, badPass, ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, badPass.Error(), noUser.Error(), "failure modes must be indistinguishable")
}
