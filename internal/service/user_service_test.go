package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const inviteToken = "let-me-in"

func newUserService(t *testing.T) (*service.UserServiceImpl, *mocks.MockUserStore, func(commit bool)) {
	t.Helper()
	userStore := &mocks.MockUserStore{}
	db, sqlMock := mocks.NewTxDB(t)

	svc, err := service.NewUserService(userStore, &mocks.MockPasswordVerifier{}, db, inviteToken, nil)
	require.NoError(t, err)
	t.Cleanup(func() { userStore.AssertExpectations(t) })

	return svc, userStore, func(commit bool) {
		if commit {
			mocks.ExpectCommit(sqlMock)
		} else {
			mocks.ExpectRollback(sqlMock)
		}
	}
}

func TestUserService_Register_Roles(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantRole domain.Role
	}{
		{name: "no token", token: "", wantRole: domain.RoleMember},
		{name: "wrong token", token: "guess", wantRole: domain.RoleMember},
		{name: "matching token", token: inviteToken, wantRole: domain.RoleAdmin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, userStore, expectTx := newUserService(t)
			expectTx(true)
			userStore.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()

			user, err := svc.Register(context.Background(), service.RegisterParams{
				Name:             "Ada",
				Email:            " Ada@Example.com ",
				Password:         "password123",
				AdminInviteToken: tc.token,
			})

			require.NoError(t, err)
			assert.Equal(t, tc.wantRole, user.Role)
			assert.Equal(t, "ada@example.com", user.Email)
		})
	}
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	svc, userStore, expectTx := newUserService(t)
	expectTx(false)
	userStore.On("Create", mock.Anything, mock.Anything).Return(store.ErrEmailExists).Once()

	_, err := svc.Register(context.Background(), service.RegisterParams{
		Name: "Ada", Email: "ada@example.com", Password: "password123",
	})

	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestUserService_Register_InvalidInput(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Register(context.Background(), service.RegisterParams{
		Name: "Ada", Email: "not-an-email", Password: "password123",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_Authenticate(t *testing.T) {
	svc, userStore, _ := newUserService(t)
	user := &domain.User{
		ID:             uuid.New(),
		Email:          "ada@example.com",
		HashedPassword: mocks.FakeHash("password123"),
		Role:           domain.RoleMember,
	}
	userStore.On("GetByEmail", mock.Anything, "ada@example.com").Return(user, nil).Twice()
	userStore.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, store.ErrUserNotFound).Once()

	got, err := svc.Authenticate(context.Background(), "ADA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "ghost@example.com", "password123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestUserService_GetListDelete(t *testing.T) {
	svc, userStore, expectTx := newUserService(t)
	id := uuid.New()

	userStore.On("GetByID", mock.Anything, id).Return(nil, store.ErrUserNotFound).Once()
	_, err := svc.GetUser(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	counts := []domain.UserWithTaskCounts{{User: domain.User{ID: id}, PendingTasksCount: 2}}
	userStore.On("ListWithTaskCounts", mock.Anything).Return(counts, nil).Once()
	got, err := svc.ListUsersWithTaskCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, counts, got)

	expectTx(true)
	userStore.On("Delete", mock.Anything, id).Return(nil).Once()
	require.NoError(t, svc.DeleteUser(context.Background(), id))
}

func TestUserService_UpdateProfile(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	existing := func() *domain.User {
		return &domain.User{
			ID:             uuid.New(),
			Name:           "Ada",
			Email:          "ada@example.com",
			HashedPassword: mocks.FakeHash("password123"),
			Role:           domain.RoleMember,
		}
	}

	t.Run("applies changes and keeps role", func(t *testing.T) {
		svc, userStore, expectTx := newUserService(t)
		user := existing()
		expectTx(true)
		userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()
		userStore.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Name == "Ada L." && u.Email == "ada.l@example.com" && u.Password == "newpassword1"
		})).Return(nil).Once()

		got, err := svc.UpdateProfile(context.Background(), user.ID, service.UpdateProfileParams{
			Name:     strPtr(" Ada L. "),
			Email:    strPtr("Ada.L@example.com"),
			Password: strPtr("newpassword1"),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.RoleMember, got.Role)
		assert.Empty(t, got.Password)
	})

	t.Run("invalid email is rejected before saving", func(t *testing.T) {
		svc, userStore, expectTx := newUserService(t)
		user := existing()
		expectTx(false)
		userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

		_, err := svc.UpdateProfile(context.Background(), user.ID, service.UpdateProfileParams{
			Email: strPtr("nope"),
		})

		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
		userStore.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("email taken", func(t *testing.T) {
		svc, userStore, expectTx := newUserService(t)
		user := existing()
		expectTx(false)
		userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()
		userStore.On("Update", mock.Anything, mock.Anything).Return(store.ErrEmailExists).Once()

		_, err := svc.UpdateProfile(context.Background(), user.ID, service.UpdateProfileParams{
			Email: strPtr("taken@example.com"),
		})

		assert.ErrorIs(t, err, store.ErrEmailExists)
	})
}
