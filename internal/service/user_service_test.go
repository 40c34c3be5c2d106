package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/faraddouglas/conecsa-api/internal/auth"
	"github.com/faraddouglas/conecsa-api/internal/domain"
)

func newUserFixture() (*UserService, *memUsers, *auth.Hasher) {
	users := newMemUsers()
	hasher := auth.NewHasher(bcrypt.MinCost)
	return NewUserService(users, hasher), users, hasher
}

func TestUserService_CreateAndList(t *testing.T) {
	svc, _, hasher := newUserFixture()
	ctx := context.Background()

	member, err := svc.Create(ctx, UserInput{Name: "Ana", Email: "A@x.com", Password: "Secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, member.Role)
	assert.Equal(t, "a@x.com", member.Email)
	assert.True(t, hasher.Verify("Secret1", member.PasswordHash))

	admin, err := svc.Create(ctx, UserInput{Name: "Root", Email: "root@x.com", Password: "Secret1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	_, err = svc.Create(ctx, UserInput{Name: "Dup", Email: "a@x.com", Password: "Secret1"})
	assertCode(t, err, "CONFLICT")

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, member.ID, users[0].ID)
	assert.Equal(t, admin.ID, users[1].ID)
}

func TestUserService_Get(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.Get(ctx, "42")
	assertCode(t, err, "BAD_REQUEST")

	_, err = svc.Get(ctx, uuid.NewString())
	assertCode(t, err, "NOT_FOUND")

	created, err := svc.Create(ctx, UserInput{Name: "Ana", Email: "a@x.com", Password: "Secret1"})
	require.NoError(t, err)
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)
}

func TestUserService_UpdateRehashesPassword(t *testing.T) {
	svc, _, hasher := newUserFixture()
	ctx := context.Background()
	created, err := svc.Create(ctx, UserInput{Name: "Ana", Email: "a@x.com", Password: "Secret1"})
	require.NoError(t, err)

	birth := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(ctx, created.ID, UserInput{
		Name:     "Ana Maria",
		Email:    "ana@x.com",
		Password: "Secret2",
		BirthAt:  &birth,
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Equal(t, &birth, updated.BirthAt)
	assert.True(t, hasher.Verify("Secret2", updated.PasswordHash))
	assert.False(t, hasher.Verify("Secret1", updated.PasswordHash))

	_, err = svc.Update(ctx, uuid.NewString(), UserInput{Name: "X", Email: "x@x.com", Password: "Secret1"})
	assertCode(t, err, "NOT_FOUND")
}

func TestUserService_Patch(t *testing.T) {
	svc, _, hasher := newUserFixture()
	ctx := context.Background()
	created, err := svc.Create(ctx, UserInput{Name: "Ana", Email: "a@x.com", Password: "Secret1"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, UserInput{Name: "Bea", Email: "b@x.com", Password: "Secret1"})
	require.NoError(t, err)

	name := "Ana Maria"
	patched, err := svc.Patch(ctx, created.ID, UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", patched.Name)
	assert.Equal(t, created.PasswordHash, patched.PasswordHash)

	password := "Secret2"
	role := domain.RoleAdmin
	patched, err = svc.Patch(ctx, created.ID, UserPatch{Password: &password, Role: &role})
	require.NoError(t, err)
	assert.True(t, hasher.Verify("Secret2", patched.PasswordHash))
	assert.Equal(t, domain.RoleAdmin, patched.Role)

	taken := "a@x.com"
	_, err = svc.Patch(ctx, other.ID, UserPatch{Email: &taken})
	assertCode(t, err, "CONFLICT")
}

func TestUserService_Delete(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()
	created, err := svc.Create(ctx, UserInput{Name: "Ana", Email: "a@x.com", Password: "Secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assertCode(t, svc.Delete(ctx, created.ID), "NOT_FOUND")
	assertCode(t, svc.Delete(ctx, "nope"), "BAD_REQUEST")
}
