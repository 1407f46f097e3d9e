package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fixkg/backend/internal/adapters/notify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func localConfig(redisAddr string) Config {
	return Config{
		ServiceID:        "fixkg-auth-test",
		DatabaseURL:      "sqlite://",
		RedisURL:         "redis://" + redisAddr,
		JWTAlgorithm:     "HS256",
		JWTSecretKey:     "runtime-test-secret-0001",
		JWTKeyID:         "test-key",
		BcryptCost:       4,
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  30 * 24 * time.Hour,
		RefreshRecordTTL: 30 * 24 * time.Hour,
		OTPTTL:           5 * time.Minute,
		OTPLength:        6,
	}
}

func loopback(t *testing.T, addr string) string {
	t.Helper()
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return net.JoinHostPort("127.0.0.1", port)
}

func TestNewTokenSigner(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cfg     Config
		wantAlg string
		wantErr bool
	}{
		{name: "hmac secret", cfg: Config{JWTAlgorithm: "HS256", JWTSecretKey: "sixteen-bytes-secret"}, wantAlg: "HS256"},
		{name: "hmac secret too short", cfg: Config{JWTAlgorithm: "HS256", JWTSecretKey: "short"}, wantErr: true},
		{name: "hmac without secret", cfg: Config{JWTAlgorithm: "HS256"}, wantErr: true},
		{name: "hmac ephemeral fallback", cfg: Config{JWTAlgorithm: "HS256", AllowEphemeralJWT: true}, wantAlg: "RS256"},
		{name: "rsa bad pem", cfg: Config{JWTAlgorithm: "RS256", JWTPrivateKeyPEM: "x", JWTPublicKeyPEM: "y"}, wantErr: true},
		{name: "rsa bad pem ephemeral", cfg: Config{JWTAlgorithm: "RS256", JWTPrivateKeyPEM: "x", JWTPublicKeyPEM: "y", AllowEphemeralJWT: true}, wantAlg: "RS256"},
		{name: "unknown", cfg: Config{JWTAlgorithm: "ES256", AllowEphemeralJWT: true}, wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			signer, err := newTokenSigner(tc.cfg, quietLogger())
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantAlg, signer.Algorithm())
		})
	}
}

func TestNewEmailStrategy(t *testing.T) {
	t.Parallel()

	strategy, err := newEmailStrategy(Config{}, quietLogger())
	require.NoError(t, err)
	require.IsType(t, &notify.LogEmailStrategy{}, strategy)

	strategy, err = newEmailStrategy(Config{SMTPHost: "smtp.example.kg", SMTPPort: 2525, SMTPFrom: "noreply@fixkg.example"}, quietLogger())
	require.NoError(t, err)
	require.Equal(t, "email", strategy.Name())

	_, err = newEmailStrategy(Config{SMTPHost: "smtp.example.kg", SMTPFrom: "not an address"}, quietLogger())
	require.Error(t, err)
}

func TestRuntimeServesAndShutsDown(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rt, err := newRuntime(context.Background(), localConfig(mr.Addr()), quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.RunAPI(ctx) }()

	baseURL := "http://" + loopback(t, rt.HTTPAddr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL + "/readyz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post(baseURL+"/auth/register-user", "application/json", strings.NewReader(
		`{"username":"asel","email":"asel@example.kg","password":"s3cret-pass"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, mr.Exists("otp:asel@example.kg"))

	conn, err := grpc.NewClient(loopback(t, rt.GRPCAddr()), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	health, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, health.GetStatus())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("runtime did not shut down")
	}
	_, err = http.Get(baseURL + "/healthz")
	require.Error(t, err)
}

func TestRuntimeFailsWithoutRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := localConfig(mr.Addr())
	mr.Close()

	_, err := newRuntime(context.Background(), cfg, quietLogger())
	require.ErrorContains(t, err, "connect redis")
}
