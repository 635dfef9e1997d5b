package socketio

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/chat"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	enginelog "github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/socket.io-go-redis/adapter"
	r_type "github.com/zishang520/socket.io-go-redis/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// TokenVerifier checks the signature and expiry of an access token.
type TokenVerifier interface {
	ParseAccess(token string) (*utils.Claims, error)
}

// Server wraps the socket.io server. Room fan-out crosses nodes through the
// redis adapter.
type Server struct {
	io  *socket.Server
	log *slog.Logger
}

func Init(app *fiber.App, rdb *redis.Client, verifier TokenVerifier, log *slog.Logger) *Server {
	enginelog.DEBUG = log.Enabled(context.Background(), slog.LevelDebug)

	options := socket.DefaultServerOptions()
	options.SetServeClient(false)
	options.SetAllowEIO3(true)
	options.SetPingInterval(25 * time.Second)
	options.SetPingTimeout(20 * time.Second)
	options.SetMaxHttpBufferSize(1000000)
	options.SetConnectTimeout(10 * time.Second)
	if rdb != nil {
		options.SetAdapter(&adapter.RedisAdapterBuilder{
			Redis: r_type.NewRedisClient(context.Background(), rdb),
			Opts:  &adapter.RedisAdapterOptions{},
		})
	}

	server := socket.NewServer(nil, options)
	s := &Server{io: server, log: log}

	// Admission: a socket with a bad token never reaches a room.
	server.Use(func(client *socket.Socket, next func(*socket.ExtendedError)) {
		claims, err := Admit(verifier, handshakeToken(client))
		if err != nil {
			appErr := apperror.From(err)
			log.Debug("Socket rejected", "socket", string(client.Id()), "reason", appErr.Message)
			next(socket.NewExtendedError(string(appErr.Code), chat.NewErrorPayload(appErr)))
			return
		}

		client.SetData(claims)
		client.Join(socket.Room(chat.UserRoom(claims.UserID)))
		next(nil)
	})

	handler := adaptor.HTTPHandler(server.ServeHandler(options))
	app.Get("/socket.io/", handler)
	app.Post("/socket.io/", handler)

	return s
}

// Admit resolves the identity behind a handshake token. Pending second
// factor tokens are refused.
func Admit(verifier TokenVerifier, token string) (*utils.Claims, error) {
	if token == "" {
		return nil, apperror.Auth("missing token")
	}
	claims, err := verifier.ParseAccess(token)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeAuth, "invalid or expired token", err)
	}
	if claims.Otp {
		return nil, apperror.Auth("2FA required")
	}
	return claims, nil
}

// handshakeToken prefers the auth payload and falls back to the query string.
func handshakeToken(client *socket.Socket) string {
	if token := authToken(client.Handshake().Auth); token != "" {
		return token
	}
	if token, ok := client.Conn().Request().Query().Get("token"); ok {
		return stripBearer(token)
	}
	return ""
}

func authToken(auth any) string {
	fields, ok := auth.(map[string]any)
	if !ok {
		return ""
	}
	token, _ := fields["token"].(string)
	return stripBearer(token)
}

func stripBearer(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

func (s *Server) OnConnection(fn func(*socket.Socket)) {
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		fn(client)
	})
}

func (s *Server) ToRooms(rooms []string, event string, payload any) {
	if len(rooms) == 0 {
		return
	}
	if err := s.io.To(toRooms(rooms)...).Emit(event, payload); err != nil {
		s.log.Warn("Room broadcast failed", "event", event, "error", err)
	}
}

func (s *Server) Close() {
	s.io.Close(nil)
}

func toRooms(rooms []string) []socket.Room {
	out := make([]socket.Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, socket.Room(r))
	}
	return out
}
