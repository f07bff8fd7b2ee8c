package invitations

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"care-team-access/internal/domain/audit"
	"care-team-access/internal/domain/grants"
	"care-team-access/internal/platform/logger"
	"care-team-access/internal/ports/auth"
	"care-team-access/internal/ports/directory"
	"care-team-access/internal/ports/notify"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidScope    = errors.New("invalid scope")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrExpired         = errors.New("invitation expired")
	ErrAlreadyResolved = errors.New("invitation already resolved")
	ErrWrongRecipient  = errors.New("wrong recipient")
)

// DefaultTTL para invitaciones de equipo. Configurable vía Options;
// 7 días es el default elegido (el reset de password usa 30 min, pero
// una invitación entre organizaciones necesita más margen).
const DefaultTTL = 7 * 24 * time.Hour

// ChildLookup evita importar el paquete children (rompe ciclos).
type ChildLookup interface {
	GuardianOf(ctx context.Context, childID string) (string, error)
	NameOf(ctx context.Context, childID string) (string, error)
}

type Service struct {
	repo     Repository
	children ChildLookup
	users    directory.UserLookup // puede ser nil (sin nombres en preview)
	audit    audit.Recorder
	mailer   notify.InviteMailer // puede ser nil (sin emails)
	log      logger.Logger       // puede ser nil
	now      func() time.Time
	ttl      time.Duration
}

type Options struct {
	TTL    time.Duration
	Users  directory.UserLookup
	Mailer notify.InviteMailer
	Logger logger.Logger
}

func NewService(repo Repository, children ChildLookup, rec audit.Recorder, opts Options) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		repo:     repo,
		children: children,
		users:    opts.Users,
		audit:    rec,
		mailer:   opts.Mailer,
		log:      opts.Logger,
		now:      time.Now,
		ttl:      ttl,
	}
}

type CreateInput struct {
	ChildID        string
	RecipientEmail string
	Scopes         []grants.Scope
}

// Create emite una invitación en estado pending. No crea ningún grant:
// eso ocurre recién en Accept. Solo el guardián del niño (o un admin)
// puede invitar.
func (s *Service) Create(ctx context.Context, actor auth.Claims, in CreateInput) (Invitation, error) {
	childID := strings.TrimSpace(in.ChildID)
	if childID == "" || strings.TrimSpace(actor.UserID) == "" {
		return Invitation{}, ErrInvalidInput
	}

	guardianID, err := s.children.GuardianOf(ctx, childID)
	if err != nil || strings.TrimSpace(guardianID) == "" {
		return Invitation{}, ErrNotFound
	}
	if actor.Role != auth.RoleAdmin && actor.UserID != guardianID {
		return Invitation{}, ErrForbidden
	}

	// Scopes: estricto, sin defaults. Vacío o desconocido => ErrInvalidScope.
	scopes, err := grants.NormalizeScopes(in.Scopes)
	if err != nil {
		return Invitation{}, ErrInvalidScope
	}

	email := strings.ToLower(strings.TrimSpace(in.RecipientEmail))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return Invitation{}, ErrInvalidInput
		}
	}

	token, err := NewToken()
	if err != nil {
		return Invitation{}, err
	}

	now := s.now()
	inv := Invitation{
		ID:             uuid.NewString(),
		Token:          token,
		ChildID:        childID,
		SenderID:       actor.UserID,
		RecipientEmail: email,
		Scopes:         scopes,
		Status:         StatusPending,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return Invitation{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.ActionInviteCreated, actor.UserID, audit.TargetInvitation, inv.ID, map[string]string{
			"child_id": inv.ChildID,
			"scopes":   joinScopes(inv.Scopes),
		})
	}

	s.sendInviteMail(ctx, inv)

	return inv, nil
}

// View es la vista de solo lectura para el preview del destinatario.
// No muta estado y es usable antes de autenticarse.
type View struct {
	ChildID    string
	ChildName  string
	SenderID   string
	SenderName string
	Scopes     []grants.Scope
	ExpiresAt  time.Time
}

// Resolve valida token/vencimiento/estado y devuelve el preview.
// El vencimiento se evalúa ANTES que el estado: una invitación vencida
// es Expired aunque siga pending en storage.
func (s *Service) Resolve(ctx context.Context, token string) (View, error) {
	inv, err := s.lookupPending(ctx, token)
	if err != nil {
		return View{}, err
	}

	childName, err := s.children.NameOf(ctx, inv.ChildID)
	if err != nil {
		return View{}, ErrNotFound
	}

	senderName := ""
	if s.users != nil {
		// best-effort: un directorio caído no debe romper el preview
		if u, err := s.users.Lookup(ctx, inv.SenderID); err == nil {
			senderName = u.DisplayName
		}
	}

	return View{
		ChildID:    inv.ChildID,
		ChildName:  childName,
		SenderID:   inv.SenderID,
		SenderName: senderName,
		Scopes:     inv.Scopes,
		ExpiresAt:  inv.ExpiresAt,
	}, nil
}

// Accept consume la invitación y crea o reactiva el grant de
// (childID, actor) en una sola unidad atómica. Ante accepts
// concurrentes gana exactamente uno; el resto ve ErrAlreadyResolved.
func (s *Service) Accept(ctx context.Context, token string, actor auth.Claims) (grants.Grant, error) {
	inv, err := s.lookupPending(ctx, token)
	if err != nil {
		return grants.Grant{}, err
	}

	if err := s.checkRecipient(inv, actor); err != nil {
		return grants.Grant{}, err
	}

	now := s.now()
	proto := grants.Grant{
		ID:             uuid.NewString(),
		ChildID:        inv.ChildID,
		ProfessionalID: actor.UserID,
		Scopes:         inv.Scopes,
		IsActive:       true,
		GrantedAt:      now,
		UpdatedAt:      now,
	}

	g, err := s.repo.AcceptAndGrant(ctx, inv.ID, actor.UserID, now, proto)
	if err != nil {
		return grants.Grant{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.ActionInviteAccepted, actor.UserID, audit.TargetInvitation, inv.ID, map[string]string{
			"child_id": inv.ChildID,
			"grant_id": g.ID,
			"scopes":   joinScopes(g.Scopes),
		})
	}

	return g, nil
}

// Decline consume la invitación sin tocar grants.
func (s *Service) Decline(ctx context.Context, token string, actor auth.Claims) error {
	inv, err := s.lookupPending(ctx, token)
	if err != nil {
		return err
	}

	if err := s.checkRecipient(inv, actor); err != nil {
		return err
	}

	if err := s.repo.MarkResponded(ctx, inv.ID, StatusDenied, actor.UserID, s.now()); err != nil {
		return err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.ActionInviteDenied, actor.UserID, audit.TargetInvitation, inv.ID, map[string]string{
			"child_id": inv.ChildID,
		})
	}

	return nil
}

// ListByChild es la vista del guardián sobre sus invitaciones.
func (s *Service) ListByChild(ctx context.Context, childID string, actor auth.Claims) ([]Invitation, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return nil, ErrInvalidInput
	}

	guardianID, err := s.children.GuardianOf(ctx, childID)
	if err != nil || strings.TrimSpace(guardianID) == "" {
		return nil, ErrNotFound
	}
	if actor.Role != auth.RoleAdmin && actor.UserID != guardianID {
		return nil, ErrForbidden
	}

	return s.repo.ListByChild(ctx, childID)
}

// lookupPending aplica el orden de chequeos compartido por
// resolve/accept/decline: existencia, vencimiento, estado.
func (s *Service) lookupPending(ctx context.Context, token string) (Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Invitation{}, ErrNotFound
	}

	inv, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return Invitation{}, ErrNotFound
	}
	if inv.IsExpired(s.now()) {
		return Invitation{}, ErrExpired
	}
	if inv.Status != StatusPending {
		return Invitation{}, ErrAlreadyResolved
	}
	return inv, nil
}

func (s *Service) checkRecipient(inv Invitation, actor auth.Claims) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return ErrInvalidInput
	}

	// Solo un profesional puede sostener un grant. El guardián ya tiene
	// acceso total por regla del guard; un admin administra, no atiende.
	if actor.Role != auth.RoleProfessional {
		return ErrForbidden
	}

	// Invitación ligada a un email: un link reenviado no se puede secuestrar.
	if inv.RecipientEmail != "" && !strings.EqualFold(strings.TrimSpace(actor.Email), inv.RecipientEmail) {
		return ErrWrongRecipient
	}

	return nil
}

func (s *Service) sendInviteMail(ctx context.Context, inv Invitation) {
	if s.mailer == nil || inv.RecipientEmail == "" {
		return
	}

	childName, err := s.children.NameOf(ctx, inv.ChildID)
	if err != nil {
		childName = ""
	}

	// best-effort: el fallo se loguea y no aborta la creación
	err = s.mailer.SendInvite(ctx, notify.InviteMail{
		To:        inv.RecipientEmail,
		ChildName: childName,
		Token:     inv.Token,
		ExpiresAt: inv.ExpiresAt,
	})
	if err != nil && s.log != nil {
		s.log.Warn("invite mail failed", map[string]any{
			"invitation_id": inv.ID,
			"error":         err.Error(),
		})
	}
}

func joinScopes(in []grants.Scope) string {
	parts := make([]string, 0, len(in))
	for _, sc := range in {
		parts = append(parts, string(sc))
	}
	return strings.Join(parts, ",")
}
