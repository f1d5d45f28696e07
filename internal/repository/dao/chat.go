package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrChatNotFound     = errors.New("chat not found")
	ErrChatExists       = errors.New("chat already exists for this organization and vendor")
	ErrMessageNotFound  = errors.New("message not found")
	ErrDuplicateMessage = errors.New("message with this client id already exists")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrProposalResolved = errors.New("proposal already resolved")
)

const statusPending = "Pending"

type Chat struct {
	ID             uint `gorm:"primaryKey"`
	OrganizationID uint `gorm:"not null;uniqueIndex:idx_chats_org_vendor"`
	VendorID       uint `gorm:"not null;uniqueIndex:idx_chats_org_vendor"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Message struct {
	ID          uint   `gorm:"primaryKey"`
	ChatID      uint   `gorm:"not null;uniqueIndex:idx_messages_chat_seq"`
	Seq         uint   `gorm:"not null;uniqueIndex:idx_messages_chat_seq"`
	SenderID    uint   `gorm:"not null"`
	FromVendor  bool   `gorm:"not null"`
	Text        string
	ClientMsgID string               `gorm:"uniqueIndex:idx_messages_client_msg_id;not null"`
	Proposal    *TransactionProposal `gorm:"foreignKey:MessageID"`
	CreatedAt   time.Time
}

type TransactionProposal struct {
	ID         uint           `gorm:"primaryKey"`
	MessageID  uint           `gorm:"uniqueIndex;not null"`
	Items      []ProposalItem `gorm:"foreignKey:ProposalID"`
	TotalCents int64          `gorm:"not null"`
	Status     string         `gorm:"not null"`
	ResolvedBy *uint
	ResolvedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (TransactionProposal) TableName() string {
	return "transaction_proposals"
}

type ProposalItem struct {
	ID             uint   `gorm:"primaryKey"`
	ProposalID     uint   `gorm:"not null;index"`
	Position       int    `gorm:"not null"`
	Name           string `gorm:"not null"`
	Quantity       int    `gorm:"not null"`
	UnitPriceCents int64  `gorm:"not null"`
}

type ChatDAO struct {
	db *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{
		db: db,
	}
}

func (d *ChatDAO) InsertChat(ctx context.Context, chat Chat) (Chat, error) {
	result := d.db.WithContext(ctx).Create(&chat)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "idx_chats_org_vendor") {
			return Chat{}, ErrChatExists
		}

		return Chat{}, result.Error
	}

	return chat, nil
}

func (d *ChatDAO) FindChatByID(ctx context.Context, id uint) (Chat, error) {
	var chat Chat

	result := d.db.WithContext(ctx).First(&chat, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Chat{}, ErrChatNotFound
		}

		return Chat{}, result.Error
	}

	return chat, nil
}

func (d *ChatDAO) FindChatByPair(ctx context.Context, organizationID, vendorID uint) (Chat, error) {
	var chat Chat

	result := d.db.WithContext(ctx).
		First(&chat, "organization_id = ? AND vendor_id = ?", organizationID, vendorID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Chat{}, ErrChatNotFound
		}

		return Chat{}, result.Error
	}

	return chat, nil
}

// FindChatsByParticipant lists the chats userID takes part in, on either
// side, most recently active first.
func (d *ChatDAO) FindChatsByParticipant(ctx context.Context, userID uint) ([]Chat, error) {
	var chats []Chat

	result := d.db.WithContext(ctx).
		Where("organization_id = ? OR vendor_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&chats)
	if result.Error != nil {
		return nil, result.Error
	}

	return chats, nil
}

// AppendMessage appends message to the end of its chat's sequence. The chat
// row is locked for the duration of the transaction so the per-chat seq is
// assigned without gaps or duplicates. The server-assigned id and seq are
// returned on the stored message.
func (d *ChatDAO) AppendMessage(ctx context.Context, message Message) (Message, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat Chat
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&chat, message.ChatID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChatNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&Message{}).Where("chat_id = ?", message.ChatID).Count(&count).Error; err != nil {
			return err
		}
		message.Seq = uint(count) + 1

		if err := tx.Create(&message).Error; err != nil {
			if isUniqueViolation(err, "idx_messages_client_msg_id") {
				return ErrDuplicateMessage
			}
			return err
		}

		// Touch the chat so participant listings sort by activity.
		return tx.Model(&chat).Update("updated_at", message.CreatedAt).Error
	})
	if err != nil {
		return Message{}, err
	}

	return message, nil
}

func (d *ChatDAO) FindMessageByID(ctx context.Context, chatID, messageID uint) (Message, error) {
	var message Message

	result := d.db.WithContext(ctx).
		Preload("Proposal.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Proposal").
		First(&message, "id = ? AND chat_id = ?", messageID, chatID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Message{}, ErrMessageNotFound
		}

		return Message{}, result.Error
	}

	return message, nil
}

func (d *ChatDAO) FindMessageByClientID(ctx context.Context, clientMsgID string) (Message, error) {
	var message Message

	result := d.db.WithContext(ctx).
		Preload("Proposal.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Proposal").
		First(&message, "client_msg_id = ?", clientMsgID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Message{}, ErrMessageNotFound
		}

		return Message{}, result.Error
	}

	return message, nil
}

func (d *ChatDAO) ListMessages(ctx context.Context, chatID uint, limit, offset int) ([]Message, error) {
	var messages []Message

	result := d.db.WithContext(ctx).
		Preload("Proposal.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Proposal").
		Where("chat_id = ?", chatID).
		Order("seq ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}

	return messages, nil
}

// UpdateProposal moves a pending proposal to its terminal status. The write
// is conditional on the row still being pending, so two racing resolutions
// cannot both land. When nothing matches, the row is re-read: repeating the
// decision already recorded succeeds without touching it, a conflicting one
// is ErrProposalResolved.
func (d *ChatDAO) UpdateProposal(ctx context.Context, proposal TransactionProposal) (TransactionProposal, error) {
	result := d.db.WithContext(ctx).Model(&TransactionProposal{}).
		Where("id = ? AND status = ?", proposal.ID, statusPending).
		Updates(map[string]interface{}{
			"status":      proposal.Status,
			"resolved_by": proposal.ResolvedBy,
			"resolved_at": proposal.ResolvedAt,
		})
	if result.Error != nil {
		return TransactionProposal{}, result.Error
	}

	if result.RowsAffected == 0 {
		var current TransactionProposal
		if err := d.db.WithContext(ctx).First(&current, proposal.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return TransactionProposal{}, ErrProposalNotFound
			}
			return TransactionProposal{}, err
		}

		if current.Status == proposal.Status {
			return current, nil
		}

		return TransactionProposal{}, ErrProposalResolved
	}

	return proposal, nil
}
