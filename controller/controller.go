package controller

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/block"
	"github.com/Top-Pesinde/backend-sub001/chat"
	"github.com/Top-Pesinde/backend-sub001/middleware"
	"github.com/Top-Pesinde/backend-sub001/model"
	"github.com/Top-Pesinde/backend-sub001/session"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	SetOtp(ctx context.Context, id string, enabled bool, secret string) error
}

type BanStore interface {
	Ban(ctx context.Context, userID, reason string) error
	Unban(ctx context.Context, userID string) error
}

// RoleAssigner records user to role links for RBAC.
type RoleAssigner interface {
	AddGroupingPolicy(params ...interface{}) (bool, error)
}

type Deps struct {
	Users        UserStore
	Bans         BanStore
	Sessions     *session.Manager
	Chat         *chat.Service
	Blocks       *block.Guard
	Roles        RoleAssigner
	OtpIssuer    string
	PasswordCost int
	Log          *slog.Logger
}

type Controller struct {
	users        UserStore
	bans         BanStore
	sessions     *session.Manager
	chat         *chat.Service
	blocks       *block.Guard
	roles        RoleAssigner
	otpIssuer    string
	passwordCost int
	log          *slog.Logger
}

func New(d Deps) *Controller {
	cost := d.PasswordCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Controller{
		users:        d.Users,
		bans:         d.Bans,
		sessions:     d.Sessions,
		chat:         d.Chat,
		blocks:       d.Blocks,
		roles:        d.Roles,
		otpIssuer:    d.OtpIssuer,
		passwordCost: cost,
		log:          d.Log,
	}
}

// parse reads and validates the request body.
func parse(c *fiber.Ctx, input any) error {
	if err := c.BodyParser(input); err != nil {
		return apperror.Validation("Review your input")
	}
	return utils.Validate(input)
}

func currentUser(c *fiber.Ctx) (*utils.Claims, error) {
	claims := middleware.Claims(c)
	if claims == nil {
		return nil, apperror.Auth("Invalid or expired JWT")
	}
	return claims, nil
}

type DeviceInput struct {
	DeviceInfo string `json:"deviceInfo" validate:"max=255"`
	Platform   string `json:"platform" validate:"max=32"`
	Location   string `json:"location" validate:"max=255"`
}

func deviceFrom(c *fiber.Ctx, in DeviceInput) session.Device {
	info := in.DeviceInfo
	if info == "" {
		info = c.Get(fiber.HeaderUserAgent)
	}
	platform := in.Platform
	if platform == "" {
		platform = c.Get("X-Platform")
	}
	return session.Device{
		Info:      strings.TrimSpace(info),
		IPAddress: c.IP(),
		Location:  in.Location,
		Platform:  platform,
	}
}
