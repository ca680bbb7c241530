package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"fundbridge/internal/domain/entity"
	apperrors "fundbridge/pkg/errors"
)

// ProposalInput is what the composer collects before a meeting proposal goes
// out embedded in a chat message.
type ProposalInput struct {
	Datetime        time.Time `validate:"required"`
	DurationMinutes int       `validate:"required,gt=0,lte=480"`
	Agenda          string    `validate:"max=500"`
	ReminderOffset  int       `validate:"gte=0,lte=1440"` // minutes before start
}

// ProposalUseCase owns the meeting-proposal sub-protocol embedded in chat
// content: pending resolves to accepted or declined by the receiving party
// only; a pending proposal past its datetime renders as expired without a
// stored transition. Accepting schedules a local reminder timer.
type ProposalUseCase struct {
	clock    clockwork.Clock
	validate *validator.Validate

	mutex     sync.Mutex
	reminders map[string]clockwork.Timer
	closed    bool
}

func NewProposalUseCase(clock clockwork.Clock) *ProposalUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ProposalUseCase{
		clock:     clock,
		validate:  validator.New(),
		reminders: make(map[string]clockwork.Timer),
	}
}

// Propose validates the input and sends it as a structured message through
// the session.
func (uc *ProposalUseCase) Propose(ctx context.Context, session *ThreadSession, input ProposalInput) (*entity.Message, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.Datetime.After(uc.clock.Now()) {
		return nil, apperrors.Validation("meeting time must be in the future")
	}

	proposal := &entity.MeetingProposal{
		ID:              uuid.New().String(),
		ProposedBy:      session.SelfID(),
		Datetime:        input.Datetime,
		DurationMinutes: input.DurationMinutes,
		Agenda:          input.Agenda,
		ReminderOffset:  input.ReminderOffset,
		Status:          entity.ProposalStatusPending,
	}

	return session.Send(ctx, entity.ProposalContent(proposal), nil)
}

// Resolve accepts or declines a proposal carried by msg. Only the receiving
// party may resolve, and only while the proposal is still pending and not
// past its datetime. The resolution travels back as a structured message.
func (uc *ProposalUseCase) Resolve(ctx context.Context, session *ThreadSession, msg *entity.Message, accept bool, onRemind func(*entity.MeetingProposal)) (*entity.MeetingProposal, error) {
	content := entity.DecodeWireContent(msg.Content)
	if content.Kind != entity.ContentKindMeetingProposal {
		return nil, apperrors.BadRequest("message does not carry a meeting proposal", nil)
	}
	if msg.ReceiverID != session.SelfID() {
		return nil, apperrors.Forbidden("only the receiving party may resolve a proposal", nil)
	}

	proposal := content.Proposal
	switch proposal.DisplayState(uc.clock.Now()) {
	case entity.ProposalStatusPending:
	case entity.ProposalStateExpired:
		return nil, apperrors.Validation("proposal has expired")
	default:
		return nil, apperrors.Validation("proposal is already resolved")
	}

	if accept {
		proposal.Status = entity.ProposalStatusAccepted
	} else {
		proposal.Status = entity.ProposalStatusDeclined
	}

	if _, err := session.Send(ctx, entity.ProposalContent(proposal), nil); err != nil {
		return nil, err
	}

	if accept && onRemind != nil {
		uc.scheduleReminder(proposal, onRemind)
	}
	return proposal, nil
}

func (uc *ProposalUseCase) scheduleReminder(p *entity.MeetingProposal, fn func(*entity.MeetingProposal)) {
	wait := p.ReminderAt().Sub(uc.clock.Now())
	if wait <= 0 {
		fn(p)
		return
	}

	uc.mutex.Lock()
	defer uc.mutex.Unlock()
	if uc.closed {
		return
	}
	if existing, ok := uc.reminders[p.ID]; ok {
		existing.Stop()
	}
	proposal := p
	uc.reminders[p.ID] = uc.clock.AfterFunc(wait, func() {
		uc.mutex.Lock()
		delete(uc.reminders, proposal.ID)
		uc.mutex.Unlock()
		fn(proposal)
	})
}

// CancelReminder drops the local reminder for one proposal.
func (uc *ProposalUseCase) CancelReminder(proposalID string) {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()
	if timer, ok := uc.reminders[proposalID]; ok {
		timer.Stop()
		delete(uc.reminders, proposalID)
	}
}

// Close clears every pending reminder timer.
func (uc *ProposalUseCase) Close() {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()
	uc.closed = true
	for id, timer := range uc.reminders {
		timer.Stop()
		delete(uc.reminders, id)
	}
}
