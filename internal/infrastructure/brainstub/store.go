package brainstub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"fundbridge/internal/domain/entity"
)

// Store is the in-memory state behind the stub Brain. It exists for local
// development and end-to-end tests; nothing is persisted.
type Store struct {
	clock clockwork.Clock

	mutex       sync.Mutex
	messages    []*entity.Message
	threads     map[string]*entity.Thread
	typing      map[string]*entity.TypingState
	attachments map[string]*entity.Attachment
	users       map[string]*entity.User
	grants      map[string]bool
}

func NewStore(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:       clock,
		threads:     make(map[string]*entity.Thread),
		typing:      make(map[string]*entity.TypingState),
		attachments: make(map[string]*entity.Attachment),
		users:       make(map[string]*entity.User),
		grants:      make(map[string]bool),
	}
}

// ThreadKey is the canonical thread id for a participant pair.
func ThreadKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

func (s *Store) PutUser(u *entity.User) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.users[u.ID] = u
}

func (s *Store) User(id string) (*entity.User, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) AppendMessage(senderID, receiverID, content, attachmentID, parentID, threadTitle string) *entity.Message {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.clock.Now()
	msg := &entity.Message{
		ID:           "m-" + uuid.New().String(),
		SenderID:     senderID,
		ReceiverID:   receiverID,
		Content:      content,
		AttachmentID: attachmentID,
		ParentID:     parentID,
		ThreadTitle:  threadTitle,
		Timestamp:    now,
		Status:       entity.MessageStatusDelivered,
	}
	s.messages = append(s.messages, msg)

	key := ThreadKey(senderID, receiverID)
	thread, ok := s.threads[key]
	if !ok {
		thread = &entity.Thread{
			ID:           key,
			Participants: []string{senderID, receiverID},
			UnreadCount:  make(map[string]int),
			CreatedAt:    now,
		}
		s.threads[key] = thread
	}
	thread.LastMessage = content
	thread.LastMessageAt = now
	thread.UpdatedAt = now
	thread.UnreadCount[receiverID]++

	return msg
}

// MessagesBetween pages through the pair's history newest page first: page 1
// is the tail of the conversation, so a polling client always sees the latest
// messages. Each page itself stays in send order.
func (s *Store) MessagesBetween(a, b string, page, pageSize int) ([]entity.Message, int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var all []entity.Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			all = append(all, *m)
		}
	}

	total := int64(len(all))
	end := len(all) - (page-1)*pageSize
	if end <= 0 {
		return nil, total
	}
	start := end - pageSize
	if start < 0 {
		start = 0
	}
	return all[start:end], total
}

func (s *Store) ThreadsFor(userID string) []entity.Thread {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var out []entity.Thread
	for _, t := range s.threads {
		for _, p := range t.Participants {
			if p == userID {
				out = append(out, *t)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out
}

func (s *Store) MarkThreadRead(threadID, userID string, isRead bool) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	thread, ok := s.threads[threadID]
	if !ok {
		return false
	}
	if isRead {
		thread.UnreadCount[userID] = 0
	}
	return true
}

func (s *Store) SetTyping(writerID, receiverID string, isTyping bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := writerID + ">" + receiverID
	s.typing[key] = &entity.TypingState{
		UserID:    writerID,
		PeerID:    receiverID,
		IsTyping:  isTyping,
		UpdatedAt: s.clock.Now(),
	}
}

// TypingFor answers whether peer is typing to viewer right now. A stale true
// signal decays after the idle window in case the writer never cleared it.
func (s *Store) TypingFor(viewerID, peerID string) *entity.TypingState {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := peerID + ">" + viewerID
	state, ok := s.typing[key]
	if !ok {
		return &entity.TypingState{UserID: peerID, PeerID: viewerID}
	}
	out := *state
	if out.IsTyping && s.clock.Now().Sub(out.UpdatedAt) > staleTypingWindow {
		out.IsTyping = false
	}
	return &out
}

// A true signal left uncleared decays after this long.
const staleTypingWindow = 10 * time.Second

func (s *Store) SaveAttachment(uploadedBy, fileName, contentType string, size int64) *entity.Attachment {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	att := &entity.Attachment{
		ID:          "att-" + uuid.New().String(),
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  uploadedBy,
		UploadedAt:  s.clock.Now(),
	}
	s.attachments[att.ID] = att
	return att
}

func (s *Store) Attachment(id string) (*entity.Attachment, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	att, ok := s.attachments[id]
	return att, ok
}

func (s *Store) SetGrant(userID, feature string, allowed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.grants[userID+":"+feature] = allowed
}

// Grant defaults to allowed when nothing was configured, which keeps the
// local dev loop friction-free.
func (s *Store) Grant(userID, feature string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	allowed, ok := s.grants[userID+":"+feature]
	if !ok {
		return true
	}
	return allowed
}

// Analytics derives the dashboard summary from stored state.
func (s *Store) Analytics() *entity.AnalyticsSummary {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	engagement := &entity.EngagementStats{
		MessagesSent: len(s.messages),
	}
	seen := make(map[string]bool)
	for _, m := range s.messages {
		seen[m.SenderID] = true

		content := entity.DecodeWireContent(m.Content)
		if content.Kind == entity.ContentKindMeetingProposal {
			switch content.Proposal.Status {
			case entity.ProposalStatusPending:
				engagement.MeetingsProposed++
			case entity.ProposalStatusAccepted:
				engagement.MeetingsProposed++
				engagement.MeetingsAccepted++
			case entity.ProposalStatusDeclined:
				engagement.MeetingsProposed++
			}
		}
	}
	engagement.ActiveUsers = len(seen)
	if engagement.MeetingsProposed > 0 {
		engagement.AcceptRate = float64(engagement.MeetingsAccepted) / float64(engagement.MeetingsProposed)
	}

	roles := &entity.RoleBreakdown{}
	for _, u := range s.users {
		switch u.Role {
		case entity.RoleFundManager:
			roles.FundManagers++
		case entity.RoleLimitedPartner:
			roles.LimitedPartners++
		case entity.RoleCapitalRaiser:
			roles.CapitalRaisers++
		}
	}

	return &entity.AnalyticsSummary{
		GeneratedAt: s.clock.Now(),
		Engagement:  engagement,
		MatchFunnel: &entity.MatchFunnel{
			Introductions: len(s.threads),
			Conversations: len(s.threads),
			Commitments:   engagement.MeetingsAccepted,
		},
		RoleBreakdown: roles,
	}
}
