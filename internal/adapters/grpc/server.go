package grpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fixkg/backend/internal/application"
	"github.com/fixkg/backend/internal/domain"
)

const serviceFullName = "fixkg.auth.v1.AuthInternalService"

// AuthCore is the slice of the auth service exposed to internal callers.
type AuthCore interface {
	AuthenticateAccessToken(token string) (application.AccessIdentity, error)
	NotifyNewComment(ctx context.Context, recipientUserID, complaintText, content string) bool
}

type AuthInternalService interface {
	ValidateAccessToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NotifyUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type AuthInternalServer struct {
	core AuthCore
}

func NewAuthInternalServer(core AuthCore) *AuthInternalServer {
	return &AuthInternalServer{core: core}
}

func Register(server grpc.ServiceRegistrar, svc AuthInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceFullName,
		HandlerType: (*AuthInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ValidateAccessToken",
				Handler:    unaryHandler("ValidateAccessToken", svc.ValidateAccessToken),
			},
			{
				MethodName: "NotifyUser",
				Handler:    unaryHandler("NotifyUser", svc.NotifyUser),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "fixkg/auth/v1/auth_internal.proto",
	}, svc)
}

// ValidateAccessToken lets sibling services authenticate a bearer token without a shared secret.
func (s *AuthInternalServer) ValidateAccessToken(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := stringField(req, "token")
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	identity, err := s.core.AuthenticateAccessToken(token)
	if err != nil {
		return nil, toStatus(err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"valid":       true,
		"user_id":     identity.UserID,
		"username":    identity.Username,
		"email":       identity.Email,
		"avatar_url":  identity.AvatarURL,
		"is_verified": identity.IsVerified,
		"expires_at":  identity.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

// NotifyUser pushes a new-comment notification to the complaint author's live connection.
func (s *AuthInternalServer) NotifyUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := stringField(req, "user_id")
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing user_id")
	}
	delivered := s.core.NotifyNewComment(ctx, userID, stringField(req, "complaint_text"), stringField(req, "content"))

	resp, err := structpb.NewStruct(map[string]any{"delivered": delivered})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func stringField(req *structpb.Struct, name string) string {
	v := req.GetFields()[name]
	if v == nil {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

func toStatus(err error) error {
	var tagged *domain.Error
	msg := "internal error"
	if errors.As(err, &tagged) {
		msg = tagged.Message
	}
	switch domain.KindOf(err) {
	case domain.KindBadRequest:
		return status.Error(codes.InvalidArgument, msg)
	case domain.KindNotFound:
		return status.Error(codes.NotFound, msg)
	case domain.KindConflict:
		return status.Error(codes.AlreadyExists, msg)
	case domain.KindUnauthorized, domain.KindExpired:
		return status.Error(codes.Unauthenticated, msg)
	case domain.KindForbidden:
		return status.Error(codes.PermissionDenied, msg)
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

type methodHandler = func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error)

func unaryHandler(method string, call func(context.Context, *structpb.Struct) (*structpb.Struct, error)) methodHandler {
	fullMethod := "/" + serviceFullName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
