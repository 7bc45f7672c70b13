package redirect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aula-lms/internal/domain"
	"aula-lms/internal/routes"
	"aula-lms/internal/session"
	"aula-lms/internal/storage"
	"aula-lms/internal/testutil"
)

func expectPath(t *testing.T, nav *testutil.MockNavigator, want string) {
	t.Helper()
	select {
	case got := <-nav.Navigated():
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for navigation to %s", want)
	}
}

func expectNoNavigation(t *testing.T, nav *testutil.MockNavigator) {
	t.Helper()
	select {
	case got := <-nav.Navigated():
		t.Fatalf("unexpected navigation to %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func startController(t *testing.T, m *session.Manager) (*testutil.MockNavigator, func() error) {
	t.Helper()
	nav := testutil.NewMockNavigator()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- NewController(m, nav).Run(ctx) }()

	return nav, func() error {
		cancel()
		return <-done
	}
}

func TestController_WaitsForHydration(t *testing.T) {
	m := session.NewManager(storage.NewMemoryStore(), &testutil.MockAuthenticator{})
	nav, stop := startController(t, m)
	defer stop()

	expectNoNavigation(t, nav)

	m.Init(context.Background())
	expectPath(t, nav, routes.Login)
}

func TestController_FollowsLoginAndLogout(t *testing.T) {
	ctx := context.Background()
	student := testutil.NewTestUser()
	auth := &testutil.MockAuthenticator{
		LoginFunc: func(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
			return testutil.NewTestAuthResponse(student), nil
		},
	}
	m := session.NewManager(storage.NewMemoryStore(), auth)
	m.Init(ctx)

	nav, stop := startController(t, m)
	defer stop()

	expectPath(t, nav, routes.Login)

	_, err := m.Login(ctx, domain.Credentials{Email: student.Email, Password: "pw"})
	require.NoError(t, err)
	expectPath(t, nav, routes.StudentDashboard)

	m.Logout(ctx)
	expectPath(t, nav, routes.Login)
}

func TestController_NavigatesOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(storage.NewMemoryStore(), &testutil.MockAuthenticator{})
	m.Init(ctx)

	nav, stop := startController(t, m)
	defer stop()

	expectPath(t, nav, routes.Login)

	m.Logout(ctx)
	m.Logout(ctx)
	expectNoNavigation(t, nav)

	assert.Equal(t, []string{routes.Login}, nav.Paths())
}

func TestController_RoleUnrecognizedGoesToLogin(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMockStore()
	user := testutil.NewTestUser(testutil.WithRoles())
	resp := testutil.NewTestAuthResponse(user)
	auth := &testutil.MockAuthenticator{
		LoginFunc: func(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
			return resp, nil
		},
	}
	m := session.NewManager(store, auth)
	m.Init(ctx)
	_, err := m.Login(ctx, domain.Credentials{})
	require.NoError(t, err)
	require.True(t, m.State().IsAuthenticated())

	nav, stop := startController(t, m)
	defer stop()

	expectPath(t, nav, routes.Login)
}

func TestController_StopsWhenSessionCloses(t *testing.T) {
	m := session.NewManager(storage.NewMemoryStore(), &testutil.MockAuthenticator{})
	m.Init(context.Background())

	nav := testutil.NewMockNavigator()
	done := make(chan error, 1)
	go func() { done <- NewController(m, nav).Run(context.Background()) }()

	expectPath(t, nav, routes.Login)
	m.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("controller did not stop")
	}
}

func TestController_CancelledBeforeReady(t *testing.T) {
	m := session.NewManager(storage.NewMemoryStore(), &testutil.MockAuthenticator{})
	_, stop := startController(t, m)

	err := stop()
	assert.True(t, errors.Is(err, context.Canceled))
}
