package admin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/artmixer/atelier/internal/admin"
	"github.com/artmixer/atelier/internal/api"
	"github.com/artmixer/atelier/internal/domain"
	apperrors "github.com/artmixer/atelier/internal/errors"
	"github.com/artmixer/atelier/internal/testutil"
)

type stubSession struct {
	token string
	admin bool
}

func (s *stubSession) IsAuthenticated() bool { return s.token != "" }
func (s *stubSession) IsAdmin() bool         { return s.admin }

func (s *stubSession) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.token, TokenType: "Bearer"})
}

func newService(t *testing.T, backend *testutil.Backend, sess api.SessionSource) *admin.Service {
	t.Helper()
	client, err := api.New(api.Options{BaseURL: backend.URL(), Session: sess})
	require.NoError(t, err)
	svc, err := admin.NewService(admin.ServiceOptions{Client: client})
	require.NoError(t, err)
	return svc
}

func adminService(t *testing.T, backend *testutil.Backend) *admin.Service {
	t.Helper()
	return newService(t, backend, &stubSession{token: backend.IssueToken(true), admin: true})
}

func TestService_SubmitRequestIsPublic(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	svc := newService(t, backend, &stubSession{})

	id, err := svc.SubmitRequest(context.Background(), "Ada", "ada@example.com", "research")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, backend.Requests, 1)
	assert.Equal(t, "ada@example.com", backend.Requests[0].Email)
	assert.Equal(t, domain.RequestStatusPending, backend.Requests[0].Status)
}

func TestService_SubmitRequestValidation(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	svc := newService(t, backend, &stubSession{})

	_, err := svc.SubmitRequest(context.Background(), "Ada", "", "research")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.SubmitRequest(context.Background(), "Ada", "ada@example.com", "")
	assert.True(t, apperrors.IsValidation(err))

	assert.Empty(t, backend.Requests)
}

func TestService_AdminGateBlocksBeforeNetwork(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.Requests = []domain.PermissionRequest{{ID: "r1", Status: domain.RequestStatusPending}}
	svc := newService(t, backend, &stubSession{token: backend.IssueToken(false)})

	ctx := context.Background()
	_, err := svc.ListRequests(ctx)
	assert.True(t, apperrors.IsAuthRequired(err))
	assert.True(t, apperrors.IsAuthRequired(svc.Approve(ctx, "r1")))
	assert.True(t, apperrors.IsAuthRequired(svc.Reject(ctx, "r1", "no")))
	assert.True(t, apperrors.IsAuthRequired(svc.DeleteRequest(ctx, "r1")))
	_, err = svc.ListUsers(ctx)
	assert.True(t, apperrors.IsAuthRequired(err))
	assert.True(t, apperrors.IsAuthRequired(svc.CreateUser(ctx, "e@example.com", "pw")))
	assert.True(t, apperrors.IsAuthRequired(svc.DeleteUser(ctx, "e@example.com")))

	// The request is still pending: nothing reached the server.
	assert.Equal(t, domain.RequestStatusPending, backend.Requests[0].Status)
}

func TestService_ApproveRefetchesBothLists(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.Requests = []domain.PermissionRequest{
		{ID: "r1", Email: "ada@example.com", Status: domain.RequestStatusPending},
	}
	backend.Users = map[string]string{"existing@example.com": "pw"}

	svc := adminService(t, backend)
	ctx := context.Background()
	require.NoError(t, svc.Approve(ctx, "r1"))

	reqs := svc.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.RequestStatusApproved, reqs[0].Status)
	assert.Len(t, svc.Users(), 1)
}

func TestService_RejectCarriesReason(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.Requests = []domain.PermissionRequest{
		{ID: "r1", Email: "ada@example.com", Status: domain.RequestStatusPending},
	}

	svc := adminService(t, backend)
	require.NoError(t, svc.Reject(context.Background(), "r1", "insufficient detail"))

	reqs := svc.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.RequestStatusRejected, reqs[0].Status)
	assert.Equal(t, "insufficient detail", reqs[0].RejectionReason)
}

func TestService_DeleteRequest(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.Requests = []domain.PermissionRequest{
		{ID: "r1", Status: domain.RequestStatusRejected},
		{ID: "r2", Status: domain.RequestStatusPending},
	}

	svc := adminService(t, backend)
	require.NoError(t, svc.DeleteRequest(context.Background(), "r1"))

	reqs := svc.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "r2", reqs[0].ID)
}

func TestService_UserLifecycle(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	svc := adminService(t, backend)
	ctx := context.Background()

	require.NoError(t, svc.CreateUser(ctx, "new@example.com", "pw"))
	users := svc.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "new@example.com", users[0].Email)

	// A duplicate create surfaces the server's message verbatim.
	err := svc.CreateUser(ctx, "new@example.com", "pw")
	require.True(t, apperrors.IsServer(err))
	assert.Equal(t, "User with email new@example.com already exists", apperrors.UserMessage(err))

	require.NoError(t, svc.DeleteUser(ctx, "new@example.com"))
	assert.Empty(t, svc.Users())
}

func TestService_CreateUserValidation(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	svc := adminService(t, backend)
	ctx := context.Background()

	assert.True(t, apperrors.IsValidation(svc.CreateUser(ctx, "", "pw")))
	assert.True(t, apperrors.IsValidation(svc.CreateUser(ctx, "e@example.com", "")))
	assert.Empty(t, backend.Users)
}
