package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/airtime-queen/airtime_queen/internal/auth"
	"github.com/airtime-queen/airtime_queen/internal/identity"
)

type gateFixture struct {
	gate  *auth.Gate
	repo  identity.Repository
	user  identity.User
	token string
}

func newGateFixture(t *testing.T) gateFixture {
	t.Helper()
	repo := identity.NewMemoryRepository()
	now := time.Now().UTC()
	user := identity.User{
		ID:            "0b9c3d4e-1111-4a2b-9c3d-4e5f60718293",
		WalletAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
		PasskeyID:     "cred",
		PhoneNumber:   "+27821234567",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.Create(context.Background(), user))

	sessions := auth.NewSessionService(auth.NewMemorySessionStore(), repo, auth.SessionOptions{CookieName: "auth_session"})
	session, err := sessions.Create(context.Background(), user.ID)
	require.NoError(t, err)
	return gateFixture{gate: auth.NewGate(sessions), repo: repo, user: user, token: session.ID}
}

// authErrorApp maps AuthError to 401 and anything else to 500, mirroring the
// production error handler.
func authErrorApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": authErr.Message})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}})
}

func TestRequireSession(t *testing.T) {
	fx := newGateFixture(t)

	var invoked int
	app := authErrorApp()
	app.Get("/open", RequireSession(fx.gate, false), func(c *fiber.Ctx) error {
		invoked++
		user, err := auth.UserFrom(c)
		require.NoError(t, err)
		return c.SendString(user.ID)
	})
	app.Get("/verified", RequireSession(fx.gate, true), func(c *fiber.Ctx) error {
		invoked++
		return c.SendStatus(fiber.StatusNoContent)
	})

	cases := []struct {
		name   string
		path   string
		header string
		cookie string
		status int
	}{
		{name: "no credentials", path: "/open", status: fiber.StatusUnauthorized},
		{name: "bad bearer", path: "/open", header: "Bearer nope", status: fiber.StatusUnauthorized},
		{name: "bearer", path: "/open", header: "Bearer " + fx.token, status: fiber.StatusOK},
		{name: "cookie", path: "/open", cookie: fx.token, status: fiber.StatusOK},
		{name: "bearer wins over cookie", path: "/open", header: "Bearer " + fx.token, cookie: "garbage", status: fiber.StatusOK},
		{name: "unverified", path: "/verified", header: "Bearer " + fx.token, status: fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			invoked = 0
			req := httptest.NewRequest(fiber.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			if tc.cookie != "" {
				req.Header.Set(fiber.HeaderCookie, "auth_session="+tc.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.status == fiber.StatusUnauthorized {
				require.Zero(t, invoked)
			}
		})
	}
}

func TestRequireSessionAcceptsVerifiedUser(t *testing.T) {
	fx := newGateFixture(t)
	_, err := fx.repo.MarkVerified(context.Background(), fx.user.ID, time.Now())
	require.NoError(t, err)

	app := authErrorApp()
	app.Get("/verified", RequireSession(fx.gate, true), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/verified", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+fx.token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
