package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpsertRequiresSubject(t *testing.T) {
	dir := New(NewMemoryStore())
	_, err := dir.Upsert(context.Background(), "   ", Fields{})
	require.ErrorIs(t, err, ErrMissingSubject)
}

func TestUpsertStampsLastLogin(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dir := New(NewMemoryStore(), WithClock(func() time.Time { return fixed }))

	account, err := dir.Upsert(context.Background(), "subj-1", Fields{})
	require.NoError(t, err)
	require.NotNil(t, account.LastLoginAt)
	require.True(t, account.LastLoginAt.Equal(fixed))
}

func TestUpsertPartialUpdateLeavesOmittedFields(t *testing.T) {
	dir := New(NewMemoryStore())
	ctx := context.Background()

	email := "a@x.com"
	name := "Alice"
	_, err := dir.Upsert(ctx, "subj-1", Fields{Email: &email, DisplayName: &name})
	require.NoError(t, err)

	// Second upsert omits email and display name entirely.
	account, err := dir.Upsert(ctx, "subj-1", Fields{})
	require.NoError(t, err)
	require.NotNil(t, account.Email)
	require.Equal(t, "a@x.com", *account.Email)
	require.Equal(t, "Alice", account.DisplayName)
	require.Equal(t, RoleUser, account.Role)
}

func TestOwnerSubjectAlwaysAdmin(t *testing.T) {
	dir := New(NewMemoryStore(), WithOwnerSubjectID("owner-7"))
	ctx := context.Background()

	// Role omitted on first creation.
	account, err := dir.Upsert(ctx, "owner-7", Fields{})
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, account.Role)

	// A caller-supplied role cannot demote the owner.
	user := RoleUser
	account, err = dir.Upsert(ctx, "owner-7", Fields{Role: &user})
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, account.Role)

	require.NoError(t, dir.SetRole(ctx, "owner-7", RoleUser))
	account, err = dir.GetBySubjectID(ctx, "owner-7")
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, account.Role)
}

func TestGetByEmailNormalizes(t *testing.T) {
	dir := New(NewMemoryStore())
	ctx := context.Background()

	email := "Mixed@Case.Com"
	_, err := dir.Upsert(ctx, "subj-1", Fields{Email: &email})
	require.NoError(t, err)

	account, err := dir.GetByEmail(ctx, " mixed@case.com ")
	require.NoError(t, err)
	require.Equal(t, "subj-1", account.SubjectID)
}

func TestGetBySubjectIDNotFound(t *testing.T) {
	dir := New(NewMemoryStore())
	_, err := dir.GetBySubjectID(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetRoleValidates(t *testing.T) {
	dir := New(NewMemoryStore())
	err := dir.SetRole(context.Background(), "subj-1", Role("superuser"))
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, VerifyPassword(hash, "secret1"))
	require.Error(t, VerifyPassword(hash, "wrong"))
}
