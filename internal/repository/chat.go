package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/repository/dao"
)

var (
	ErrChatNotFound     = dao.ErrChatNotFound
	ErrChatExists       = dao.ErrChatExists
	ErrMessageNotFound  = dao.ErrMessageNotFound
	ErrDuplicateMessage = dao.ErrDuplicateMessage
	ErrProposalNotFound = dao.ErrProposalNotFound
	ErrProposalResolved = dao.ErrProposalResolved
)

type ChatDAO interface {
	InsertChat(ctx context.Context, chat dao.Chat) (dao.Chat, error)
	FindChatByID(ctx context.Context, id uint) (dao.Chat, error)
	FindChatByPair(ctx context.Context, organizationID, vendorID uint) (dao.Chat, error)
	FindChatsByParticipant(ctx context.Context, userID uint) ([]dao.Chat, error)
	AppendMessage(ctx context.Context, message dao.Message) (dao.Message, error)
	FindMessageByID(ctx context.Context, chatID, messageID uint) (dao.Message, error)
	FindMessageByClientID(ctx context.Context, clientMsgID string) (dao.Message, error)
	ListMessages(ctx context.Context, chatID uint, limit, offset int) ([]dao.Message, error)
	UpdateProposal(ctx context.Context, proposal dao.TransactionProposal) (dao.TransactionProposal, error)
}

type ChatRepository struct {
	dao ChatDAO
}

func NewChatRepository(dao ChatDAO) *ChatRepository {
	return &ChatRepository{
		dao: dao,
	}
}

func (r *ChatRepository) CreateChat(ctx context.Context, chat domain.Chat) (domain.Chat, error) {
	created, err := r.dao.InsertChat(ctx, r.chatDomainToDao(chat))
	if err != nil {
		return domain.Chat{}, fmt.Errorf("r.dao.InsertChat -> %w", err)
	}

	return r.chatDaoToDomain(created), nil
}

func (r *ChatRepository) FindChat(ctx context.Context, id uint) (domain.Chat, error) {
	found, err := r.dao.FindChatByID(ctx, id)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("r.dao.FindChatByID -> %w", err)
	}

	return r.chatDaoToDomain(found), nil
}

func (r *ChatRepository) FindChatByPair(ctx context.Context, organizationID, vendorID uint) (domain.Chat, error) {
	found, err := r.dao.FindChatByPair(ctx, organizationID, vendorID)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("r.dao.FindChatByPair -> %w", err)
	}

	return r.chatDaoToDomain(found), nil
}

func (r *ChatRepository) FindChatsByParticipant(ctx context.Context, userID uint) ([]domain.Chat, error) {
	found, err := r.dao.FindChatsByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindChatsByParticipant -> %w", err)
	}

	chats := make([]domain.Chat, len(found))
	for i, chat := range found {
		chats[i] = r.chatDaoToDomain(chat)
	}

	return chats, nil
}

// AppendMessage stores message at the end of its chat. When the message's
// client id has been stored before, the previously stored message is
// returned instead of a duplicate append.
func (r *ChatRepository) AppendMessage(ctx context.Context, message domain.Message) (domain.Message, error) {
	appended, err := r.dao.AppendMessage(ctx, r.messageDomainToDao(message))
	if err != nil {
		if errors.Is(err, dao.ErrDuplicateMessage) {
			existing, findErr := r.dao.FindMessageByClientID(ctx, message.ClientMsgID)
			if findErr != nil {
				return domain.Message{}, fmt.Errorf("r.dao.FindMessageByClientID -> %w", findErr)
			}
			return r.messageDaoToDomain(existing), nil
		}

		return domain.Message{}, fmt.Errorf("r.dao.AppendMessage -> %w", err)
	}

	return r.messageDaoToDomain(appended), nil
}

func (r *ChatRepository) FindMessage(ctx context.Context, chatID, messageID uint) (domain.Message, error) {
	found, err := r.dao.FindMessageByID(ctx, chatID, messageID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("r.dao.FindMessageByID -> %w", err)
	}

	return r.messageDaoToDomain(found), nil
}

func (r *ChatRepository) ListMessages(ctx context.Context, chatID uint, limit, offset int) ([]domain.Message, error) {
	found, err := r.dao.ListMessages(ctx, chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListMessages -> %w", err)
	}

	messages := make([]domain.Message, len(found))
	for i, message := range found {
		messages[i] = r.messageDaoToDomain(message)
	}

	return messages, nil
}

func (r *ChatRepository) UpdateProposal(ctx context.Context, proposal domain.TransactionProposal) (domain.TransactionProposal, error) {
	updated, err := r.dao.UpdateProposal(ctx, r.proposalDomainToDao(proposal))
	if err != nil {
		return domain.TransactionProposal{}, fmt.Errorf("r.dao.UpdateProposal -> %w", err)
	}

	result := r.proposalDaoToDomain(updated)
	// Items are not touched by a status update; keep the caller's copy.
	result.Items = proposal.Items

	return result, nil
}

func (r *ChatRepository) chatDomainToDao(c domain.Chat) dao.Chat {
	return dao.Chat{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		VendorID:       c.VendorID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r *ChatRepository) chatDaoToDomain(c dao.Chat) domain.Chat {
	return domain.Chat{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		VendorID:       c.VendorID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r *ChatRepository) messageDomainToDao(m domain.Message) dao.Message {
	message := dao.Message{
		ID:          m.ID,
		ChatID:      m.ChatID,
		Seq:         m.Seq,
		SenderID:    m.SenderID,
		FromVendor:  m.FromVendor,
		Text:        m.Text,
		ClientMsgID: m.ClientMsgID,
		CreatedAt:   m.CreatedAt,
	}

	if m.Proposal != nil {
		proposal := r.proposalDomainToDao(*m.Proposal)
		message.Proposal = &proposal
	}

	return message
}

func (r *ChatRepository) messageDaoToDomain(m dao.Message) domain.Message {
	message := domain.Message{
		ID:          m.ID,
		ChatID:      m.ChatID,
		Seq:         m.Seq,
		SenderID:    m.SenderID,
		FromVendor:  m.FromVendor,
		Text:        m.Text,
		ClientMsgID: m.ClientMsgID,
		CreatedAt:   m.CreatedAt,
	}

	if m.Proposal != nil {
		proposal := r.proposalDaoToDomain(*m.Proposal)
		message.Proposal = &proposal
	}

	return message
}

func (r *ChatRepository) proposalDomainToDao(p domain.TransactionProposal) dao.TransactionProposal {
	items := make([]dao.ProposalItem, len(p.Items))
	for i, item := range p.Items {
		items[i] = dao.ProposalItem{
			ProposalID:     p.ID,
			Position:       i,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		}
	}

	return dao.TransactionProposal{
		ID:         p.ID,
		MessageID:  p.MessageID,
		Items:      items,
		TotalCents: p.TotalCents,
		Status:     string(p.Status),
		ResolvedBy: p.ResolvedBy,
		ResolvedAt: p.ResolvedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (r *ChatRepository) proposalDaoToDomain(p dao.TransactionProposal) domain.TransactionProposal {
	items := make([]domain.ProposalItem, len(p.Items))
	for i, item := range p.Items {
		items[i] = domain.ProposalItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		}
	}

	return domain.TransactionProposal{
		ID:         p.ID,
		MessageID:  p.MessageID,
		Items:      items,
		TotalCents: p.TotalCents,
		Status:     domain.ProposalStatus(p.Status),
		ResolvedBy: p.ResolvedBy,
		ResolvedAt: p.ResolvedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
