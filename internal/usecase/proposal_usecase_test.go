package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundbridge/internal/domain/entity"
	"fundbridge/internal/infrastructure/netstatus"
	apperrors "fundbridge/pkg/errors"
)

func proposalMessage(t *testing.T, receiverID string, p *entity.MeetingProposal) *entity.Message {
	t.Helper()
	raw, err := entity.ProposalContent(p).EncodeWire()
	require.NoError(t, err)
	return &entity.Message{
		ID:         "m-prop",
		SenderID:   p.ProposedBy,
		ReceiverID: receiverID,
		Content:    raw,
		Status:     entity.MessageStatusDelivered,
	}
}

func pendingProposal(clock clockwork.Clock) *entity.MeetingProposal {
	return &entity.MeetingProposal{
		ID:              "p1",
		ProposedBy:      "u2",
		Datetime:        clock.Now().Add(2 * time.Hour),
		DurationMinutes: 30,
		Agenda:          "Fund III terms",
		ReminderOffset:  15,
		Status:          entity.ProposalStatusPending,
	}
}

func TestProposeSendsStructuredContent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fake := &fakeChatClient{clock: clock}
	session := newTestSession(t, fake, netstatus.Static(true), clock)

	proposals := NewProposalUseCase(clock)
	defer proposals.Close()

	msg, err := proposals.Propose(context.Background(), session, ProposalInput{
		Datetime:        clock.Now().Add(time.Hour),
		DurationMinutes: 45,
		Agenda:          "Intro call",
		ReminderOffset:  15,
	})
	require.NoError(t, err)

	content := entity.DecodeWireContent(msg.Content)
	require.Equal(t, entity.ContentKindMeetingProposal, content.Kind)
	assert.Equal(t, "me", content.Proposal.ProposedBy)
	assert.Equal(t, 45, content.Proposal.DurationMinutes)
	assert.Equal(t, entity.ProposalStatusPending, content.Proposal.Status)
	assert.NotEmpty(t, content.Proposal.ID)
}

func TestProposeRejectsInvalidInput(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fake := &fakeChatClient{clock: clock}
	session := newTestSession(t, fake, netstatus.Static(true), clock)

	proposals := NewProposalUseCase(clock)
	defer proposals.Close()

	t.Run("zero duration", func(t *testing.T) {
		_, err := proposals.Propose(context.Background(), session, ProposalInput{
			Datetime:        clock.Now().Add(time.Hour),
			DurationMinutes: 0,
		})
		assert.Error(t, err)
	})

	t.Run("past datetime", func(t *testing.T) {
		_, err := proposals.Propose(context.Background(), session, ProposalInput{
			Datetime:        clock.Now().Add(-time.Hour),
			DurationMinutes: 30,
		})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, "VALIDATION_ERROR"))
	})

	assert.Equal(t, 0, fake.calls())
}

func TestResolveAcceptAndDecline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fake := &fakeChatClient{clock: clock}
	session := newTestSession(t, fake, netstatus.Static(true), clock)

	proposals := NewProposalUseCase(clock)
	defer proposals.Close()

	t.Run("accept", func(t *testing.T) {
		msg := proposalMessage(t, "me", pendingProposal(clock))
		resolved, err := proposals.Resolve(context.Background(), session, msg, true, nil)
		require.NoError(t, err)
		assert.Equal(t, entity.ProposalStatusAccepted, resolved.Status)
	})

	t.Run("decline", func(t *testing.T) {
		p := pendingProposal(clock)
		p.ID = "p2"
		msg := proposalMessage(t, "me", p)
		resolved, err := proposals.Resolve(context.Background(), session, msg, false, nil)
		require.NoError(t, err)
		assert.Equal(t, entity.ProposalStatusDeclined, resolved.Status)
	})
}

func TestResolveIsReceiverOnly(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fake := &fakeChatClient{clock: clock}
	session := newTestSession(t, fake, netstatus.Static(true), clock)

	proposals := NewProposalUseCase(clock)
	defer proposals.Close()

	p := pendingProposal(clock)
	p.ProposedBy = "me"
	msg := proposalMessage(t, "u2", p)

	_, err := proposals.Resolve(context.Background(), session, msg, true, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
	assert.Equal(t, 0, fake.calls())
}

func TestResolveRejectsExpiredAndResolved(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fake := &fakeChatClient{clock: clock}
	session := newTestSession(t, fake, netstatus.Static(true), clock)

	proposals := NewProposalUseCase(clock)
	defer proposals.Close()

	t.Run("pending past its datetime reads as expired", func(t *testing.T) {
		p := pendingProposal(clock)
		p.Datetime = clock.Now().Add(-time.Minute)
		msg := proposalMessage(t, "me", p)

		_, err := proposals.Resolve(context.Background(), session, msg, true, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("already accepted", func(t *testing.T) {
		p := pendingProposal(clock)
		p.Status = entity.ProposalStatusAccepted
		msg := proposalMessage(t, "me", p)

		_, err := proposals.Resolve(context.Background(), session, msg, true, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolved")
	})

	assert.Equal(t, 0, fake.calls())
}

func TestResolveRejectsPlainMessage(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fake := &fakeChatClient{clock: clock}
	session := newTestSession(t, fake, netstatus.Static(true), clock)

	proposals := NewProposalUseCase(clock)
	defer proposals.Close()

	msg := &entity.Message{ID: "m1", SenderID: "u2", ReceiverID: "me", Content: "just text"}
	_, err := proposals.Resolve(context.Background(), session, msg, true, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
}

func TestAcceptSchedulesReminderAtOffset(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fake := &fakeChatClient{clock: clock}
	session := newTestSession(t, fake, netstatus.Static(true), clock)

	proposals := NewProposalUseCase(clock)
	defer proposals.Close()

	p := pendingProposal(clock) // 2h out, 15min reminder offset
	msg := proposalMessage(t, "me", p)

	var fired atomic.Int32
	_, err := proposals.Resolve(context.Background(), session, msg, true, func(rp *entity.MeetingProposal) {
		fired.Add(1)
		assert.Equal(t, "p1", rp.ID)
	})
	require.NoError(t, err)

	clock.Advance(104 * time.Minute)
	assert.Equal(t, int32(0), fired.Load())

	// The reminder callback runs in its own goroutine; wait for it.
	clock.Advance(time.Minute)
	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// One reminder only.
	clock.Advance(3 * time.Hour)
	assert.Equal(t, int32(1), fired.Load())
}

func TestReminderFiresImmediatelyWhenOffsetAlreadyPassed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fake := &fakeChatClient{clock: clock}
	session := newTestSession(t, fake, netstatus.Static(true), clock)

	proposals := NewProposalUseCase(clock)
	defer proposals.Close()

	p := pendingProposal(clock)
	p.Datetime = clock.Now().Add(10 * time.Minute)
	p.ReminderOffset = 15
	msg := proposalMessage(t, "me", p)

	var fired atomic.Int32
	_, err := proposals.Resolve(context.Background(), session, msg, true, func(*entity.MeetingProposal) {
		fired.Add(1)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), fired.Load())
}

func TestCancelReminderAndClose(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fake := &fakeChatClient{clock: clock}
	session := newTestSession(t, fake, netstatus.Static(true), clock)

	proposals := NewProposalUseCase(clock)

	var fired atomic.Int32
	remind := func(*entity.MeetingProposal) { fired.Add(1) }

	p1 := pendingProposal(clock)
	_, err := proposals.Resolve(context.Background(), session, proposalMessage(t, "me", p1), true, remind)
	require.NoError(t, err)

	p2 := pendingProposal(clock)
	p2.ID = "p2"
	_, err = proposals.Resolve(context.Background(), session, proposalMessage(t, "me", p2), true, remind)
	require.NoError(t, err)

	proposals.CancelReminder("p1")
	proposals.Close()

	clock.Advance(5 * time.Hour)
	assert.Equal(t, int32(0), fired.Load())
}
