package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/repository"
)

var (
	ErrChatNotFound         = repository.ErrChatNotFound
	ErrMessageNotFound      = repository.ErrMessageNotFound
	ErrInvalidProposal      = domain.ErrInvalidProposal
	ErrInvalidTransition    = domain.ErrInvalidTransition
	ErrNotChatParticipant   = errors.New("user is not a participant of this chat")
	ErrNotProposalRecipient = errors.New("only the party that received a proposal may resolve it")
	ErrNoProposal           = errors.New("message carries no proposal")
	ErrEmptyMessage         = errors.New("message text must not be blank")
	ErrInvalidCounterpart   = errors.New("chat counterpart has the wrong role")
)

type ChatRepository interface {
	CreateChat(ctx context.Context, chat domain.Chat) (domain.Chat, error)
	FindChat(ctx context.Context, id uint) (domain.Chat, error)
	FindChatByPair(ctx context.Context, organizationID, vendorID uint) (domain.Chat, error)
	FindChatsByParticipant(ctx context.Context, userID uint) ([]domain.Chat, error)
	AppendMessage(ctx context.Context, message domain.Message) (domain.Message, error)
	FindMessage(ctx context.Context, chatID, messageID uint) (domain.Message, error)
	ListMessages(ctx context.Context, chatID uint, limit, offset int) ([]domain.Message, error)
	UpdateProposal(ctx context.Context, proposal domain.TransactionProposal) (domain.TransactionProposal, error)
}

// ChatService is the single entry point for the chat subsystem: it owns
// chat lookup, the append-only message sequence and the proposal
// lifecycle. All mutations go through here; handlers only render.
type ChatService struct {
	repo     ChatRepository
	userRepo UserRepository
}

func NewChatService(repo ChatRepository, userRepo UserRepository) *ChatService {
	return &ChatService{
		repo:     repo,
		userRepo: userRepo,
	}
}

// OpenChat resolves the chat between actor and counterpartID, creating it
// when a vendor initiates contact with an organization. Organizations can
// only open a chat a vendor has already started.
func (s *ChatService) OpenChat(ctx context.Context, actor domain.User, counterpartID uint) (domain.Chat, error) {
	switch actor.Role {
	case domain.RoleVendor:
		counterpart, err := s.userRepo.FindByID(ctx, counterpartID)
		if err != nil {
			return domain.Chat{}, fmt.Errorf("s.userRepo.FindByID -> %w", err)
		}
		if counterpart.Role != domain.RoleOrganization {
			return domain.Chat{}, ErrInvalidCounterpart
		}

		chat, err := s.repo.FindChatByPair(ctx, counterpartID, actor.ID)
		if err == nil {
			return chat, nil
		}
		if !errors.Is(err, repository.ErrChatNotFound) {
			return domain.Chat{}, fmt.Errorf("s.repo.FindChatByPair -> %w", err)
		}

		created, err := s.repo.CreateChat(ctx, domain.Chat{
			OrganizationID: counterpartID,
			VendorID:       actor.ID,
		})
		if err != nil {
			// Lost a race against a concurrent open; the chat exists now.
			if errors.Is(err, repository.ErrChatExists) {
				return s.repo.FindChatByPair(ctx, counterpartID, actor.ID)
			}
			return domain.Chat{}, fmt.Errorf("s.repo.CreateChat -> %w", err)
		}

		return created, nil

	case domain.RoleOrganization:
		chat, err := s.repo.FindChatByPair(ctx, actor.ID, counterpartID)
		if err != nil {
			if errors.Is(err, repository.ErrChatNotFound) {
				return domain.Chat{}, ErrChatNotFound
			}
			return domain.Chat{}, fmt.Errorf("s.repo.FindChatByPair -> %w", err)
		}

		return chat, nil

	default:
		return domain.Chat{}, ErrNotChatParticipant
	}
}

// GetChat returns the chat when actor participates in it.
func (s *ChatService) GetChat(ctx context.Context, chatID uint, actor domain.User) (domain.Chat, error) {
	chat, err := s.repo.FindChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return domain.Chat{}, ErrChatNotFound
		}
		return domain.Chat{}, fmt.Errorf("s.repo.FindChat -> %w", err)
	}

	if !isParticipant(chat, actor) {
		return domain.Chat{}, ErrNotChatParticipant
	}

	return chat, nil
}

// GetChats lists the chats actor participates in, most recently active first.
func (s *ChatService) GetChats(ctx context.Context, actor domain.User) ([]domain.Chat, error) {
	chats, err := s.repo.FindChatsByParticipant(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindChatsByParticipant -> %w", err)
	}

	return chats, nil
}

// ListMessages returns the chat's messages in append order. An empty chat
// yields an empty slice, not an error.
func (s *ChatService) ListMessages(ctx context.Context, chatID uint, actor domain.User, limit, offset int) ([]domain.Message, error) {
	if _, err := s.GetChat(ctx, chatID, actor); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.repo.ListMessages(ctx, chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListMessages -> %w", err)
	}

	return messages, nil
}

// SendMessage appends a plain-text message to the chat. clientMsgID is the
// caller's idempotency key; retrying a send with the same key returns the
// already-appended message instead of duplicating it.
func (s *ChatService) SendMessage(ctx context.Context, chatID uint, actor domain.User, text, clientMsgID string) (domain.Message, error) {
	chat, err := s.GetChat(ctx, chatID, actor)
	if err != nil {
		return domain.Message{}, err
	}

	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrEmptyMessage
	}

	message := domain.Message{
		ChatID:      chat.ID,
		SenderID:    actor.ID,
		FromVendor:  actor.ID == chat.VendorID,
		Text:        text,
		ClientMsgID: orNewClientID(clientMsgID),
		CreatedAt:   time.Now(),
	}

	appended, err := s.repo.AppendMessage(ctx, message)
	if err != nil {
		return domain.Message{}, fmt.Errorf("s.repo.AppendMessage -> %w", err)
	}

	return appended, nil
}

// SendProposal validates the line items, computes the total and appends the
// proposal to the chat as a pending message. Nothing is appended when
// validation fails.
func (s *ChatService) SendProposal(ctx context.Context, chatID uint, actor domain.User, items []domain.ProposalItem, clientMsgID string) (domain.Message, error) {
	chat, err := s.GetChat(ctx, chatID, actor)
	if err != nil {
		return domain.Message{}, err
	}

	proposal, err := domain.NewProposal(items)
	if err != nil {
		return domain.Message{}, err
	}

	message := domain.Message{
		ChatID:      chat.ID,
		SenderID:    actor.ID,
		FromVendor:  actor.ID == chat.VendorID,
		ClientMsgID: orNewClientID(clientMsgID),
		Proposal:    &proposal,
		CreatedAt:   time.Now(),
	}

	appended, err := s.repo.AppendMessage(ctx, message)
	if err != nil {
		return domain.Message{}, fmt.Errorf("s.repo.AppendMessage -> %w", err)
	}

	return appended, nil
}

// AcceptProposal moves the proposal carried by the given message to
// Accepted. Only the chat participant on the non-proposing side may do so.
// Accepting an already-accepted proposal is a no-op.
func (s *ChatService) AcceptProposal(ctx context.Context, chatID, messageID uint, actor domain.User) (domain.TransactionProposal, error) {
	return s.resolveProposal(ctx, chatID, messageID, actor, domain.ProposalAccepted)
}

// RejectProposal is the symmetric counterpart of AcceptProposal.
func (s *ChatService) RejectProposal(ctx context.Context, chatID, messageID uint, actor domain.User) (domain.TransactionProposal, error) {
	return s.resolveProposal(ctx, chatID, messageID, actor, domain.ProposalRejected)
}

func (s *ChatService) resolveProposal(ctx context.Context, chatID, messageID uint, actor domain.User, status domain.ProposalStatus) (domain.TransactionProposal, error) {
	chat, err := s.GetChat(ctx, chatID, actor)
	if err != nil {
		return domain.TransactionProposal{}, err
	}

	message, err := s.repo.FindMessage(ctx, chatID, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return domain.TransactionProposal{}, ErrMessageNotFound
		}
		return domain.TransactionProposal{}, fmt.Errorf("s.repo.FindMessage -> %w", err)
	}

	if message.Proposal == nil {
		return domain.TransactionProposal{}, ErrNoProposal
	}

	// Only the party the proposal was sent to may resolve it.
	recipientID := chat.OrganizationID
	if !message.FromVendor {
		recipientID = chat.VendorID
	}
	if actor.ID != recipientID {
		return domain.TransactionProposal{}, ErrNotProposalRecipient
	}

	proposal := *message.Proposal
	if proposal.Status == status {
		// Retried decision; nothing to mutate.
		return proposal, nil
	}

	if err := proposal.Resolve(status, actor.ID, time.Now()); err != nil {
		return domain.TransactionProposal{}, err
	}

	updated, err := s.repo.UpdateProposal(ctx, proposal)
	if err != nil {
		// Lost a race against a concurrent resolution with the other
		// decision; the store refused to overwrite the terminal state.
		if errors.Is(err, repository.ErrProposalResolved) {
			return domain.TransactionProposal{}, ErrInvalidTransition
		}
		if errors.Is(err, repository.ErrProposalNotFound) {
			return domain.TransactionProposal{}, ErrNoProposal
		}
		return domain.TransactionProposal{}, fmt.Errorf("s.repo.UpdateProposal -> %w", err)
	}

	return updated, nil
}

func isParticipant(chat domain.Chat, actor domain.User) bool {
	return actor.ID == chat.OrganizationID || actor.ID == chat.VendorID
}

func orNewClientID(clientMsgID string) string {
	if clientMsgID == "" {
		return uuid.NewString()
	}
	return clientMsgID
}
