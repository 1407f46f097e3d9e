package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fixkg/backend/internal/application"
	"github.com/fixkg/backend/internal/domain"
)

type fakeCore struct {
	identity application.AccessIdentity
	err      error

	online   map[string]bool
	notified []string
}

func (f *fakeCore) AuthenticateAccessToken(token string) (application.AccessIdentity, error) {
	if f.err != nil {
		return application.AccessIdentity{}, f.err
	}
	return f.identity, nil
}

func (f *fakeCore) NotifyNewComment(_ context.Context, recipientUserID, complaintText, content string) bool {
	f.notified = append(f.notified, recipientUserID+"|"+complaintText+"|"+content)
	return f.online[recipientUserID]
}

func dialBufnet(t *testing.T, core AuthCore) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	Register(server, NewAuthInternalServer(core))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestValidateAccessTokenOverWire(t *testing.T) {
	t.Parallel()

	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	core := &fakeCore{identity: application.AccessIdentity{
		UserID:     "0b6f1f0e-6a3c-4d51-9c1e-0a3f5b2d7c11",
		Username:   "aibek",
		Email:      "aibek@example.kg",
		IsVerified: true,
		ExpiresAt:  expires,
	}}
	conn := dialBufnet(t, core)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp := &structpb.Struct{}
	err := conn.Invoke(ctx, "/"+serviceFullName+"/ValidateAccessToken",
		mustStruct(t, map[string]any{"token": "access-token"}), resp)
	require.NoError(t, err)

	fields := resp.AsMap()
	require.Equal(t, true, fields["valid"])
	require.Equal(t, "aibek", fields["username"])
	require.Equal(t, "aibek@example.kg", fields["email"])
	require.Equal(t, true, fields["is_verified"])
	require.Equal(t, float64(expires.Unix()), fields["expires_at"])
}

func TestValidateAccessTokenMapsDomainErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "expired", err: domain.ErrTokenExpired, code: codes.Unauthenticated},
		{name: "wrong type", err: domain.ErrInvalidTokenType, code: codes.Unauthenticated},
		{name: "unknown user", err: domain.ErrUserWithIDNotFound, code: codes.NotFound},
		{name: "refresh record gone", err: domain.ErrRefreshTokenNotFound, code: codes.Unauthenticated},
		{name: "wrong otp", err: domain.ErrOTPInvalid, code: codes.InvalidArgument},
		{name: "store down", err: domain.Dependency("get", context.DeadlineExceeded), code: codes.Internal},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := NewAuthInternalServer(&fakeCore{err: tc.err})
			_, err := srv.ValidateAccessToken(context.Background(), mustStruct(t, map[string]any{"token": "x"}))
			require.Equal(t, tc.code, status.Code(err))
		})
	}
}

func TestValidateAccessTokenRequiresToken(t *testing.T) {
	t.Parallel()

	srv := NewAuthInternalServer(&fakeCore{})
	_, err := srv.ValidateAccessToken(context.Background(), mustStruct(t, map[string]any{"token": "  "}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestNotifyUserReportsDelivery(t *testing.T) {
	t.Parallel()

	core := &fakeCore{online: map[string]bool{"u-1": true}}
	conn := dialBufnet(t, core)
	ctx := context.Background()

	resp := &structpb.Struct{}
	err := conn.Invoke(ctx, "/"+serviceFullName+"/NotifyUser", mustStruct(t, map[string]any{
		"user_id":        "u-1",
		"complaint_text": "broken streetlight",
		"content":        "a crew is on the way",
	}), resp)
	require.NoError(t, err)
	require.Equal(t, true, resp.AsMap()["delivered"])

	err = conn.Invoke(ctx, "/"+serviceFullName+"/NotifyUser", mustStruct(t, map[string]any{
		"user_id": "u-2",
	}), resp)
	require.NoError(t, err)
	require.Equal(t, false, resp.AsMap()["delivered"])

	require.Equal(t, []string{"u-1|broken streetlight|a crew is on the way", "u-2||"}, core.notified)
}

func TestNotifyUserRequiresRecipient(t *testing.T) {
	t.Parallel()

	core := &fakeCore{}
	srv := NewAuthInternalServer(core)
	_, err := srv.NotifyUser(context.Background(), mustStruct(t, map[string]any{"content": "hi"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Empty(t, core.notified)
}

func TestHealthServing(t *testing.T) {
	t.Parallel()

	conn := dialBufnet(t, &fakeCore{})
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
