package router

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	mem "care-team-access/internal/adapters/storage/memory"
	pg "care-team-access/internal/adapters/storage/postgres"
	"care-team-access/internal/domain/audit"
	"care-team-access/internal/domain/children"
	"care-team-access/internal/domain/grants"
	"care-team-access/internal/domain/invitations"
	"care-team-access/internal/domain/notes"
	"care-team-access/internal/middleware"
	"care-team-access/internal/platform/logger"
	"care-team-access/internal/ports/auth"
	"care-team-access/internal/ports/directory"
	"care-team-access/internal/ports/notify"

	_ "care-team-access/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: directorio de usuarios para previews de invitación.
	Users directory.UserLookup

	// Opcional: relay de mails de invitación (best-effort).
	Mailer notify.InviteMailer

	// Opcional: TTL de invitaciones. 0 => default 7 días.
	InviteTTL time.Duration

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/docs/*", httpSwagger.WrapHandler)

	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	var (
		childrenRepo    children.Repository
		grantsRepo      grants.Repository
		invitationsRepo invitations.Repository
		notesRepo       notes.Repository
		auditRepo       audit.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres unavailable, falling back to memory", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}

	if db != nil {
		childrenRepo = pg.NewChildrenRepo(db)
		grantsRepo = pg.NewGrantsRepo(db)
		invitationsRepo = pg.NewInvitationsRepo(db)
		notesRepo = pg.NewNotesRepo(db)
		auditRepo = pg.NewAuditRepo(db)
	} else {
		gr := mem.NewGrantsRepo()
		childrenRepo = mem.NewChildrenRepo()
		grantsRepo = gr
		invitationsRepo = mem.NewInvitationsRepo(gr)
		notesRepo = mem.NewNotesRepo()
		auditRepo = mem.NewAuditRepo()
	}

	// Services por módulo
	auditSvc := audit.NewService(auditRepo)
	childrenSvc := children.NewService(childrenRepo)
	grantsSvc := grants.NewService(grantsRepo, childrenSvc, auditSvc)
	invitationsSvc := invitations.NewService(invitationsRepo, childrenSvc, auditSvc, invitations.Options{
		TTL:    opts.InviteTTL,
		Users:  opts.Users,
		Mailer: opts.Mailer,
		Logger: log,
	})
	notesSvc := notes.NewService(notesRepo)

	// Rutas por módulo. Todo recurso protegido decide acceso vía
	// grants.Service (CanAccess/CanView/CanManage), nunca por su cuenta.
	children.RegisterRoutes(r, childrenSvc, grantsSvc)
	grants.RegisterRoutes(r, grantsSvc)
	invitations.RegisterRoutes(r, invitationsSvc)
	notes.RegisterRoutes(r, notesSvc, grantsSvc)
	audit.RegisterRoutes(r, auditSvc)

	return r
}
