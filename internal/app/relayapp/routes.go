package relayapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/config"
	flagssvc "github.com/ivankudzin/tgrelay/internal/services/flags"
	memberssvc "github.com/ivankudzin/tgrelay/internal/services/members"
	moderatesvc "github.com/ivankudzin/tgrelay/internal/services/moderate"
	reconcilesvc "github.com/ivankudzin/tgrelay/internal/services/reconcile"
	registrysvc "github.com/ivankudzin/tgrelay/internal/services/registry"
	"github.com/ivankudzin/tgrelay/internal/transport/http/handlers"
)

type Dependencies struct {
	RegistryService  *registrysvc.Service
	ReconcileService *reconcilesvc.Service
	ModerateService  *moderatesvc.Service
	MembersService   *memberssvc.Service
	FlagsService     *flagssvc.Service
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	webhookHandler := handlers.NewWebhookHandler(deps.RegistryService, deps.ReconcileService, deps.Logger)
	botHandler := handlers.NewBotHandler(deps.RegistryService, deps.Config.Telegram.PublicBaseURL)
	moderationHandler := handlers.NewModerationHandler(deps.RegistryService, deps.ModerateService, deps.FlagsService)
	membersHandler := handlers.NewMembersHandler(deps.MembersService)

	r.Get("/healthz", healthHandler.Get)
	r.Post("/webhook/{botID}", webhookHandler.Handle)

	r.Route("/bots", func(r chi.Router) {
		r.Post("/", botHandler.Register)
		r.Get("/", botHandler.List)

		r.Route("/{botID}", func(r chi.Router) {
			r.Get("/", botHandler.Info)
			r.Delete("/", botHandler.Delete)
			r.Post("/connect", botHandler.Connect)
			r.Post("/disconnect", botHandler.Disconnect)
			r.Get("/webhook", botHandler.WebhookStatus)
			r.Post("/sync", botHandler.SyncAll)

			r.Post("/ban", moderationHandler.Ban)
			r.Post("/unban", moderationHandler.Unban)
			r.Post("/mute", moderationHandler.Mute)
			r.Post("/unmute", moderationHandler.Unmute)
			r.Post("/kick", moderationHandler.Kick)
			r.Post("/flag", moderationHandler.Flag)

			r.Get("/actions", membersHandler.AuditLog)
			r.Get("/chats", membersHandler.ListChats)
			r.Route("/chats/{chatID}", func(r chi.Router) {
				r.Post("/sync", botHandler.SyncChat)
				r.Get("/members", membersHandler.ListMembers)
				r.Get("/stats", membersHandler.ChatStats)
			})
		})
	})
}
