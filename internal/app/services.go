package app

import (
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/mentorweb/mentorweb_backend/config"
	"github.com/mentorweb/mentorweb_backend/internal/service/auth"
	"github.com/mentorweb/mentorweb_backend/internal/service/availability"
	"github.com/mentorweb/mentorweb_backend/internal/service/booking"
	"github.com/mentorweb/mentorweb_backend/internal/service/calendar"
	"github.com/mentorweb/mentorweb_backend/internal/service/conflict"
	"github.com/mentorweb/mentorweb_backend/internal/service/credential"
	"github.com/mentorweb/mentorweb_backend/internal/service/feedback"
	"github.com/mentorweb/mentorweb_backend/internal/service/notification"
	"github.com/mentorweb/mentorweb_backend/internal/service/quota"
	"github.com/mentorweb/mentorweb_backend/internal/service/user"
	"github.com/mentorweb/mentorweb_backend/pkg/authorize"
	pasetotoken "github.com/mentorweb/mentorweb_backend/pkg/paseto"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		ProvideAuthService,
		ProvideUserService,
		ProvideCredentialService,
		ProvideCalendarGateway,
		ProvideConflictService,
		ProvideQuotaService,
		ProvideAvailabilityService,
		ProvideBookingService,
		ProvideFeedbackService,
		ProvideNotificationService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewManager(cfg)
}

func ProvideAuthService(db *gorm.DB, rdb *redis.Client, paseto *pasetotoken.Manager, cfg *config.Config) auth.Service {
	return auth.New(db, rdb, paseto, cfg)
}

func ProvideUserService(db *gorm.DB, authz authorize.IAuthorization) user.Service {
	return user.New(db, authz)
}

func ProvideCredentialService(cfg *config.Config, rdb *redis.Client) (credential.Service, error) {
	return credential.New(cfg, rdb)
}

func ProvideCalendarGateway(cfg *config.Config) calendar.Gateway {
	return calendar.New(cfg)
}

func ProvideConflictService(creds credential.Service, gateway calendar.Gateway) conflict.Service {
	return conflict.New(creds, gateway)
}

func ProvideQuotaService(db *gorm.DB) quota.Service {
	return quota.New(db)
}

func ProvideAvailabilityService(db *gorm.DB) availability.Service {
	return availability.New(db)
}

func ProvideBookingService(
	db *gorm.DB,
	quotas quota.Service,
	conflictSvc conflict.Service,
	creds credential.Service,
	gateway calendar.Gateway,
	nc *nats.Conn,
) booking.Service {
	return booking.New(db, quotas, conflictSvc, creds, gateway, nc, slog.Default())
}

func ProvideFeedbackService(db *gorm.DB) feedback.Service {
	return feedback.New(db)
}

func ProvideNotificationService(db *gorm.DB) notification.Service {
	return notification.New(db)
}
