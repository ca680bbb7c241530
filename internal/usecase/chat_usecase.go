package usecase

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sethvargo/go-retry"

	"fundbridge/internal/adapter/brain"
	"fundbridge/internal/domain/entity"
	"fundbridge/internal/infrastructure/netstatus"
	apperrors "fundbridge/pkg/errors"
	"fundbridge/pkg/logger"
	"fundbridge/pkg/metrics"
)

type ChatConfig struct {
	MaxMessageLength  int
	MaxSendAttempts   int
	RetryBaseDelay    time.Duration
	MaxAttachmentSize int64
	PageSize          int
}

type ChatUseCase struct {
	client    ChatClient
	netStatus netstatus.Monitor
	clock     clockwork.Clock
	metrics   *metrics.Metrics
	cfg       ChatConfig
	sanitizer *bluemonday.Policy
}

func NewChatUseCase(client ChatClient, monitor netstatus.Monitor, clock clockwork.Clock, m *metrics.Metrics, cfg ChatConfig) *ChatUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if monitor == nil {
		monitor = netstatus.Static(true)
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 2000
	}
	if cfg.MaxSendAttempts <= 0 {
		cfg.MaxSendAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.MaxAttachmentSize <= 0 {
		cfg.MaxAttachmentSize = 10 * 1024 * 1024
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}

	return &ChatUseCase{
		client:    client,
		netStatus: monitor,
		clock:     clock,
		metrics:   m,
		cfg:       cfg,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// ThreadSession is the client-visible message sequence for one peer. The
// sequence is append-only in insertion order; pollers and in-flight sends
// update entries in place, last write wins.
type ThreadSession struct {
	uc     *ChatUseCase
	selfID string
	peerID string

	mutex    sync.Mutex
	messages []*entity.Message

	stop     chan struct{}
	stopOnce sync.Once
}

// AttachmentUpload carries a file selected for a send. Size and ContentType
// are checked before any bytes leave the process.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// OpenThread loads the latest history page and starts a session with one
// peer. The read receipt is best effort.
func (uc *ChatUseCase) OpenThread(ctx context.Context, selfID, peerID string) (*ThreadSession, error) {
	s := &ThreadSession{
		uc:     uc,
		selfID: selfID,
		peerID: peerID,
		stop:   make(chan struct{}),
	}

	history, err := uc.client.GetMessages(ctx, peerID, 1, uc.cfg.PageSize)
	if err != nil {
		return nil, err
	}
	for i := range history {
		msg := history[i]
		uc.sanitizeInbound(&msg)
		s.messages = append(s.messages, &msg)
	}

	if err := uc.client.MarkThreadRead(ctx, peerID, true); err != nil {
		logger.Debug("mark thread read failed: %v", err)
	}
	return s, nil
}

// Send runs the full optimistic flow: validate, upload the attachment if any,
// append exactly one optimistic entry, submit with bounded automatic retries,
// then reconcile or mark failed.
func (s *ThreadSession) Send(ctx context.Context, content entity.MessageContent, upload *AttachmentUpload) (*entity.Message, error) {
	wire, err := content.EncodeWire()
	if err != nil {
		return nil, apperrors.Internal("encoding message content", err)
	}

	// Validation runs before any network call. A content-free send is
	// allowed only when it carries an attachment.
	if content.Kind == entity.ContentKindPlain {
		if upload == nil || strings.TrimSpace(content.Text) != "" {
			if err := ValidateMessageContent(content.Text, s.uc.cfg.MaxMessageLength); err != nil {
				return nil, err
			}
		}
	}
	if upload != nil {
		if err := ValidateAttachment(upload.FileName, upload.ContentType, upload.Size, s.uc.cfg.MaxAttachmentSize); err != nil {
			return nil, err
		}
	}

	now := s.uc.clock.Now()
	optimistic := &entity.Message{
		ID:         entity.TempMessageID(now),
		SenderID:   s.selfID,
		ReceiverID: s.peerID,
		Content:    wire,
		Timestamp:  now,
		Status:     entity.MessageStatusSent,
	}
	if upload != nil {
		optimistic.Status = entity.MessageStatusSending
	}
	s.append(optimistic)
	s.uc.metrics.SendsTotal.Inc()

	req := brain.SendMessageRequest{ReceiverID: s.peerID, Content: wire}

	if upload != nil {
		att, err := s.uc.client.UploadAttachment(ctx, upload.FileName, upload.ContentType, upload.Content)
		if err != nil {
			// The text portion must not go out after a failed upload; the
			// pending entry is dropped entirely.
			s.remove(optimistic.ID)
			return nil, err
		}
		req.AttachmentID = att.ID
		s.update(optimistic.ID, func(m *entity.Message) {
			m.AttachmentID = att.ID
			m.Status = entity.MessageStatusSent
		})
	}

	return s.submit(ctx, optimistic.ID, req)
}

// linearBackoff yields base, 2*base, 3*base... and stops once the attempt
// budget is spent.
func linearBackoff(base time.Duration, maxAttempts int) retry.Backoff {
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		if attempt >= maxAttempts {
			return 0, true
		}
		return time.Duration(attempt) * base, false
	})
}

func (s *ThreadSession) submit(ctx context.Context, tempID string, req brain.SendMessageRequest) (*entity.Message, error) {
	backoff := linearBackoff(s.uc.cfg.RetryBaseDelay, s.uc.cfg.MaxSendAttempts)
	attempt := 0

	for {
		attempt++
		msg, err := s.uc.client.SendMessage(ctx, req)
		if err == nil {
			return s.reconcile(tempID, msg), nil
		}
		logger.LogSendFailure(s.peerID, tempID, attempt, err)

		if !brain.Retryable(err) {
			// The server rejected the request; resubmitting would repeat the
			// same rejection, so the entry is removed rather than marked
			// failed.
			s.remove(tempID)
			return nil, err
		}

		if !s.uc.netStatus.Online() {
			cause := apperrors.Offline("client is offline")
			s.markFailed(tempID, req, cause)
			s.uc.metrics.SendFailuresTotal.Inc()
			return nil, cause
		}

		delay, stop := backoff.Next()
		if stop {
			s.markFailed(tempID, req, err)
			s.uc.metrics.SendFailuresTotal.Inc()
			return nil, err
		}
		s.uc.metrics.SendRetriesTotal.Inc()

		select {
		case <-ctx.Done():
			s.markFailed(tempID, req, ctx.Err())
			return nil, ctx.Err()
		case <-s.uc.clock.After(delay):
		}
	}
}

// reconcile swaps the optimistic placeholder for the authoritative record at
// its original position. If a poller already merged the server record, the
// placeholder is dropped instead.
func (s *ThreadSession) reconcile(tempID string, server *entity.Message) *entity.Message {
	if server.Status == "" || server.Status == entity.MessageStatusSent {
		server.Status = entity.MessageStatusDelivered
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, m := range s.messages {
		if m.ID == server.ID {
			s.removeLocked(tempID)
			*m = *server
			return m
		}
	}
	for i, m := range s.messages {
		if m.ID == tempID {
			s.messages[i] = server
			return server
		}
	}
	s.messages = append(s.messages, server)
	return server
}

func (s *ThreadSession) markFailed(tempID string, req brain.SendMessageRequest, cause error) {
	s.update(tempID, func(m *entity.Message) {
		m.Status = entity.MessageStatusFailed
		m.SendError = cause.Error()
		m.Retry = s.retryFunc(tempID, req)
	})
}

// retryFunc replays the original request from scratch. Every manual
// invocation gets a fresh attempt budget.
func (s *ThreadSession) retryFunc(tempID string, req brain.SendMessageRequest) func() error {
	return func() error {
		s.update(tempID, func(m *entity.Message) {
			m.Status = entity.MessageStatusSent
			m.SendError = ""
			m.Retry = nil
		})
		_, err := s.submit(context.Background(), tempID, req)
		return err
	}
}

// PollOnce fetches the latest page and folds it into the local sequence.
func (s *ThreadSession) PollOnce(ctx context.Context) error {
	fetched, err := s.uc.client.GetMessages(ctx, s.peerID, 1, s.uc.cfg.PageSize)
	if err != nil {
		return err
	}
	s.merge(fetched)

	if err := s.uc.client.MarkThreadRead(ctx, s.peerID, true); err != nil {
		logger.Debug("mark thread read failed: %v", err)
	}
	return nil
}

// StartPolling runs PollOnce on the given interval until the session is
// closed or the context ends.
func (s *ThreadSession) StartPolling(ctx context.Context, interval time.Duration) {
	ticker := s.uc.clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if err := s.PollOnce(ctx); err != nil {
					logger.Debug("message poll failed: %v", err)
				}
			}
		}
	}()
}

// merge applies an authoritative page: known ids update in place, unknown
// ones append. Optimistic entries and insertion order are untouched, the
// sequence is never re-sorted.
func (s *ThreadSession) merge(fetched []entity.Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	index := make(map[string]*entity.Message, len(s.messages))
	for _, m := range s.messages {
		index[m.ID] = m
	}

	for i := range fetched {
		in := fetched[i]
		s.uc.sanitizeInbound(&in)
		if existing, ok := index[in.ID]; ok {
			existing.Status = in.Status
			existing.Content = in.Content
			continue
		}
		msg := in
		s.messages = append(s.messages, &msg)
		index[msg.ID] = &msg
	}
}

// Messages returns a snapshot of the sequence in insertion order. Each entry
// is a copy, so pollers and in-flight sends mutating the live sequence never
// race a caller still reading the snapshot.
func (s *ThreadSession) Messages() []*entity.Message {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]*entity.Message, len(s.messages))
	for i, m := range s.messages {
		snapshot := *m
		out[i] = &snapshot
	}
	return out
}

// Close stops the pollers. In-flight sends are deliberately not aborted;
// their retry loops run to resolution.
func (s *ThreadSession) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *ThreadSession) PeerID() string { return s.peerID }
func (s *ThreadSession) SelfID() string { return s.selfID }

func (s *ThreadSession) append(m *entity.Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.messages = append(s.messages, m)
}

func (s *ThreadSession) update(id string, fn func(*entity.Message)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, m := range s.messages {
		if m.ID == id {
			fn(m)
			return
		}
	}
}

func (s *ThreadSession) remove(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.removeLocked(id)
}

func (s *ThreadSession) removeLocked(id string) {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// sanitizeInbound strips markup from plain-text bodies before they reach a
// renderer. Structured bodies are left to the union decode.
func (uc *ChatUseCase) sanitizeInbound(m *entity.Message) {
	content := entity.DecodeWireContent(m.Content)
	if content.Kind == entity.ContentKindPlain {
		m.Content = uc.sanitizer.Sanitize(m.Content)
	}
}
