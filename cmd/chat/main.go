package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fundbridge/internal/adapter/brain"
	"fundbridge/internal/domain/entity"
	"fundbridge/internal/infrastructure/netstatus"
	"fundbridge/internal/usecase"
	"fundbridge/pkg/config"
	"fundbridge/pkg/logger"
)

var (
	flagUser string
	flagRole string

	cfg    *config.Config
	client *brain.Client
)

func main() {
	root := &cobra.Command{
		Use:   "chat",
		Short: "Terminal client for the FundBridge messaging platform",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}

			client = brain.NewClient(cfg.BrainBaseURL, cfg.AuthToken)
			if cfg.AuthToken == "" || brain.TokenExpiresWithin(cfg.AuthToken, time.Minute, time.Now()) {
				token, err := client.MintDevToken(cmd.Context(), flagUser, flagRole)
				if err != nil {
					return fmt.Errorf("minting dev token: %w", err)
				}
				client.SetToken(token)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&flagUser, "user", "u", "me", "acting user id")
	root.PersistentFlags().StringVar(&flagRole, "role", entity.RoleFundManager, "acting user role")

	root.AddCommand(sendCmd(), watchCmd(), proposeCmd(), acceptCmd(), declineCmd(), analyticsCmd())

	if err := root.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func newChatUseCase() *usecase.ChatUseCase {
	monitor := netstatus.NewProber(cfg.BrainBaseURL+"/health", nil)
	return usecase.NewChatUseCase(client, monitor, nil, nil, usecase.ChatConfig{
		MaxMessageLength:  cfg.MaxMessageLength,
		MaxSendAttempts:   cfg.MaxSendAttempts,
		RetryBaseDelay:    cfg.RetryBaseDelay,
		MaxAttachmentSize: cfg.MaxAttachmentSize,
		PageSize:          cfg.PageSize,
	})
}

func sendCmd() *cobra.Command {
	var attachPath string

	cmd := &cobra.Command{
		Use:   "send <peer> <message...>",
		Short: "Send one message and wait for delivery",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := args[0]
			text := strings.Join(args[1:], " ")

			session, err := newChatUseCase().OpenThread(cmd.Context(), flagUser, peer)
			if err != nil {
				return err
			}
			defer session.Close()

			var upload *usecase.AttachmentUpload
			if attachPath != "" {
				f, err := os.Open(attachPath)
				if err != nil {
					return err
				}
				defer f.Close()
				info, err := f.Stat()
				if err != nil {
					return err
				}
				upload = &usecase.AttachmentUpload{
					FileName:    filepath.Base(attachPath),
					ContentType: contentTypeFor(attachPath),
					Size:        info.Size(),
					Content:     f,
				}
			}

			msg, err := session.Send(cmd.Context(), entity.PlainContent(text), upload)
			if err != nil {
				return err
			}
			fmt.Printf("%s [%s]\n", msg.ID, msg.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&attachPath, "attach", "a", "", "path of a file to attach")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <peer>",
		Short: "Open a thread: poll for messages, type lines to send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := args[0]
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			uc := newChatUseCase()
			session, err := uc.OpenThread(ctx, flagUser, peer)
			if err != nil {
				return err
			}
			defer session.Close()
			session.StartPolling(ctx, cfg.MessagePollInterval)

			typing := usecase.NewTypingIndicator(client, nil, nil, peer, cfg.TypingThrottle, cfg.TypingIdleWindow)
			defer typing.Close()
			peerTyping := usecase.NewTypingPoller(client, nil, peer, cfg.TypingPollInterval)
			peerTyping.Start(ctx)
			defer peerTyping.Close()

			go renderLoop(ctx, session, peerTyping)

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "/quit" {
					return nil
				}
				if line == "" {
					continue
				}
				typing.NoteActivity(ctx)
				if _, err := session.Send(ctx, entity.PlainContent(line), nil); err != nil {
					fmt.Printf("!! %v\n", err)
				}
				typing.Clear(ctx)
			}
			return scanner.Err()
		},
	}
}

func renderLoop(ctx context.Context, session *usecase.ThreadSession, peerTyping *usecase.TypingPoller) {
	seen := make(map[string]string)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, m := range session.Messages() {
				if seen[m.ID] == m.Status {
					continue
				}
				seen[m.ID] = m.Status
				printMessage(m)
			}
			if peerTyping.PeerTyping() {
				fmt.Println("... peer is typing")
			}
		}
	}
}

func printMessage(m *entity.Message) {
	content := entity.DecodeWireContent(m.Content)
	switch content.Kind {
	case entity.ContentKindMeetingProposal:
		p := content.Proposal
		fmt.Printf("[%s] %s proposes a meeting on %s (%dmin): %s [%s]\n",
			m.Status, m.SenderID, p.Datetime.Format(time.RFC822), p.DurationMinutes, p.Agenda, p.DisplayState(time.Now()))
	default:
		fmt.Printf("[%s] %s: %s\n", m.Status, m.SenderID, content.Text)
	}
	if m.Status == entity.MessageStatusFailed && m.SendError != "" {
		fmt.Printf("   send failed: %s (retry available)\n", m.SendError)
	}
}

func proposeCmd() *cobra.Command {
	var duration, reminder int
	var agenda string

	cmd := &cobra.Command{
		Use:   "propose <peer> <RFC3339-datetime>",
		Short: "Send a meeting proposal embedded in the chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := time.Parse(time.RFC3339, args[1])
			if err != nil {
				return fmt.Errorf("parsing datetime: %w", err)
			}

			session, err := newChatUseCase().OpenThread(cmd.Context(), flagUser, args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			proposals := usecase.NewProposalUseCase(nil)
			defer proposals.Close()

			msg, err := proposals.Propose(cmd.Context(), session, usecase.ProposalInput{
				Datetime:        when,
				DurationMinutes: duration,
				Agenda:          agenda,
				ReminderOffset:  reminder,
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s [%s]\n", msg.ID, msg.Status)
			return nil
		},
	}
	cmd.Flags().IntVarP(&duration, "duration", "d", 30, "meeting length in minutes")
	cmd.Flags().IntVarP(&reminder, "reminder", "r", 15, "reminder offset in minutes")
	cmd.Flags().StringVar(&agenda, "agenda", "", "meeting agenda")
	return cmd
}

func acceptCmd() *cobra.Command {
	return resolveCmd("accept", "Accept a pending meeting proposal", true)
}

func declineCmd() *cobra.Command {
	return resolveCmd("decline", "Decline a pending meeting proposal", false)
}

func resolveCmd(use, short string, accept bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <peer> <message-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := newChatUseCase().OpenThread(cmd.Context(), flagUser, args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			var target *entity.Message
			for _, m := range session.Messages() {
				if m.ID == args[1] {
					target = m
					break
				}
			}
			if target == nil {
				return fmt.Errorf("message %s not found in the latest page of the thread", args[1])
			}

			proposals := usecase.NewProposalUseCase(nil)
			defer proposals.Close()

			resolved, err := proposals.Resolve(cmd.Context(), session, target, accept, func(p *entity.MeetingProposal) {
				fmt.Printf("reminder: meeting at %s\n", p.Datetime.Format(time.RFC822))
			})
			if err != nil {
				return err
			}
			fmt.Printf("proposal %s [%s]\n", resolved.ID, resolved.Status)
			return nil
		},
	}
}

func analyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show the admin dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			dashboard := usecase.NewAnalyticsUseCase(client, nil).Dashboard(cmd.Context())
			if dashboard.Degraded {
				fmt.Println(dashboard.Notice)
				return nil
			}

			s := dashboard.Summary
			fmt.Printf("Generated at: %s\n", s.GeneratedAt.Format(time.RFC822))
			fmt.Printf("Active users: %d  Messages: %d\n", s.Engagement.ActiveUsers, s.Engagement.MessagesSent)
			fmt.Printf("Meetings: %d proposed, %d accepted (%.0f%%)\n",
				s.Engagement.MeetingsProposed, s.Engagement.MeetingsAccepted, s.Engagement.AcceptRate*100)
			fmt.Printf("Funnel: %d intros, %d conversations, %d commitments\n",
				s.MatchFunnel.Introductions, s.MatchFunnel.Conversations, s.MatchFunnel.Commitments)
			fmt.Printf("Roles: %d fund managers, %d LPs, %d capital raisers\n",
				s.RoleBreakdown.FundManagers, s.RoleBreakdown.LimitedPartners, s.RoleBreakdown.CapitalRaisers)
			return nil
		},
	}
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".ppt":
		return "application/vnd.ms-powerpoint"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case ".txt":
		return "text/plain"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
