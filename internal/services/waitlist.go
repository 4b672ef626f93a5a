package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/data/repos"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/platform/validate"
)

type WaitlistInput struct {
	Email string `json:"email" form:"email" validate:"required,email,max=254"`
	Note  string `json:"note" form:"note" validate:"max=500"`
}

type WaitlistService interface {
	Join(ctx context.Context, in WaitlistInput) (*types.WaitlistEntry, error)
	List(ctx context.Context) ([]*types.WaitlistEntry, error)
}

type waitlistService struct {
	log          *logger.Logger
	waitlistRepo repos.WaitlistRepo
}

func NewWaitlistService(log *logger.Logger, waitlistRepo repos.WaitlistRepo) WaitlistService {
	return &waitlistService{
		log:          log.With("service", "WaitlistService"),
		waitlistRepo: waitlistRepo,
	}
}

func (s *waitlistService) Join(ctx context.Context, in WaitlistInput) (*types.WaitlistEntry, error) {
	in.Email = validate.NormalizeEmail(in.Email)
	in.Note = strings.TrimSpace(in.Note)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	email, note := in.Email, in.Note

	dbc := dbctx.Context{Ctx: ctx}
	exists, err := s.waitlistRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("email", "This email is already on the waitlist")
	}

	entry, err := s.waitlistRepo.Create(dbc, &types.WaitlistEntry{Email: email, Note: note})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Conflict("email", "This email is already on the waitlist")
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("Waitlist joined", "email", email)
	return entry, nil
}

func (s *waitlistService) List(ctx context.Context) ([]*types.WaitlistEntry, error) {
	return s.waitlistRepo.List(dbctx.Context{Ctx: ctx})
}
