package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/repository"
)

// fakeChatRepo mirrors the persistence contract in memory: global message
// IDs, per-chat sequence numbers and client-message-ID idempotency.
type fakeChatRepo struct {
	chats      map[uint]domain.Chat
	messages   map[uint][]domain.Message
	nextChatID uint
	nextMsgID  uint
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:    make(map[uint]domain.Chat),
		messages: make(map[uint][]domain.Message),
	}
}

func (r *fakeChatRepo) CreateChat(_ context.Context, chat domain.Chat) (domain.Chat, error) {
	for _, existing := range r.chats {
		if existing.OrganizationID == chat.OrganizationID && existing.VendorID == chat.VendorID {
			return domain.Chat{}, repository.ErrChatExists
		}
	}

	r.nextChatID++
	chat.ID = r.nextChatID
	r.chats[chat.ID] = chat

	return chat, nil
}

func (r *fakeChatRepo) FindChat(_ context.Context, id uint) (domain.Chat, error) {
	chat, ok := r.chats[id]
	if !ok {
		return domain.Chat{}, repository.ErrChatNotFound
	}

	return chat, nil
}

func (r *fakeChatRepo) FindChatByPair(_ context.Context, organizationID, vendorID uint) (domain.Chat, error) {
	for _, chat := range r.chats {
		if chat.OrganizationID == organizationID && chat.VendorID == vendorID {
			return chat, nil
		}
	}

	return domain.Chat{}, repository.ErrChatNotFound
}

func (r *fakeChatRepo) FindChatsByParticipant(_ context.Context, userID uint) ([]domain.Chat, error) {
	var chats []domain.Chat
	for _, chat := range r.chats {
		if chat.OrganizationID == userID || chat.VendorID == userID {
			chats = append(chats, chat)
		}
	}

	return chats, nil
}

func (r *fakeChatRepo) AppendMessage(_ context.Context, message domain.Message) (domain.Message, error) {
	for _, existing := range r.messages[message.ChatID] {
		if existing.ClientMsgID == message.ClientMsgID {
			return existing, nil
		}
	}

	r.nextMsgID++
	message.ID = r.nextMsgID
	message.Seq = uint(len(r.messages[message.ChatID]) + 1)
	if message.Proposal != nil {
		proposal := *message.Proposal
		proposal.ID = message.ID
		proposal.MessageID = message.ID
		message.Proposal = &proposal
	}
	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)

	return message, nil
}

func (r *fakeChatRepo) FindMessage(_ context.Context, chatID, messageID uint) (domain.Message, error) {
	for _, message := range r.messages[chatID] {
		if message.ID == messageID {
			return message, nil
		}
	}

	return domain.Message{}, repository.ErrMessageNotFound
}

func (r *fakeChatRepo) ListMessages(_ context.Context, chatID uint, limit, offset int) ([]domain.Message, error) {
	all := r.messages[chatID]
	if offset >= len(all) {
		return []domain.Message{}, nil
	}

	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	return all[offset:end], nil
}

// UpdateProposal mirrors the store's compare-and-swap contract: only a
// pending row is overwritten, repeating the stored decision returns it
// unchanged, and a conflicting decision is refused.
func (r *fakeChatRepo) UpdateProposal(_ context.Context, proposal domain.TransactionProposal) (domain.TransactionProposal, error) {
	for chatID, messages := range r.messages {
		for i, message := range messages {
			if message.ID != proposal.MessageID || message.Proposal == nil {
				continue
			}

			current := *message.Proposal
			if current.Status != domain.ProposalPending {
				if current.Status == proposal.Status {
					return current, nil
				}
				return domain.TransactionProposal{}, repository.ErrProposalResolved
			}

			updated := proposal
			r.messages[chatID][i].Proposal = &updated
			return proposal, nil
		}
	}

	return domain.TransactionProposal{}, repository.ErrProposalNotFound
}

type fakeUserRepo struct {
	users map[uint]domain.User
	orgs  map[uint]domain.Organization
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}

	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, _ string) (domain.User, error) {
	return domain.User{}, repository.ErrUserNotFound
}

func (r *fakeUserRepo) CreateDonor(_ context.Context, donor domain.Donor) (domain.Donor, error) {
	return donor, nil
}

func (r *fakeUserRepo) CreateOrganization(_ context.Context, organization domain.Organization) (domain.Organization, error) {
	return organization, nil
}

func (r *fakeUserRepo) CreateVendor(_ context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	return vendor, nil
}

func (r *fakeUserRepo) FindDonorByUserID(_ context.Context, _ uint) (domain.Donor, error) {
	return domain.Donor{}, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindOrganizationByUserID(_ context.Context, userID uint) (domain.Organization, error) {
	org, ok := r.orgs[userID]
	if !ok {
		return domain.Organization{}, repository.ErrUserNotFound
	}

	return org, nil
}

func (r *fakeUserRepo) FindVendorByUserID(_ context.Context, _ uint) (domain.Vendor, error) {
	return domain.Vendor{}, repository.ErrUserNotFound
}

var (
	testOrg    = domain.User{ID: 1, Name: "Clean Water Org", Role: domain.RoleOrganization}
	testVendor = domain.User{ID: 2, Name: "Supplies Co", Role: domain.RoleVendor}
	testDonor  = domain.User{ID: 3, Name: "Alice", Role: domain.RoleDonor}
)

func newTestChatService() (*ChatService, *fakeChatRepo) {
	repo := newFakeChatRepo()
	userRepo := &fakeUserRepo{users: map[uint]domain.User{
		testOrg.ID:    testOrg,
		testVendor.ID: testVendor,
		testDonor.ID:  testDonor,
	}}

	return NewChatService(repo, userRepo), repo
}

func TestChatService_OpenChat(t *testing.T) {
	ctx := context.Background()

	t.Run("vendor creates the chat on first contact", func(t *testing.T) {
		svc, _ := newTestChatService()

		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)

		require.NoError(t, err)
		assert.Equal(t, testOrg.ID, chat.OrganizationID)
		assert.Equal(t, testVendor.ID, chat.VendorID)
	})

	t.Run("opening twice returns the same chat", func(t *testing.T) {
		svc, _ := newTestChatService()

		first, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		second, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("organization can open an existing chat", func(t *testing.T) {
		svc, _ := newTestChatService()

		created, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		opened, err := svc.OpenChat(ctx, testOrg, testVendor.ID)
		require.NoError(t, err)

		assert.Equal(t, created.ID, opened.ID)
	})

	t.Run("organization cannot initiate a chat", func(t *testing.T) {
		svc, _ := newTestChatService()

		_, err := svc.OpenChat(ctx, testOrg, testVendor.ID)

		assert.ErrorIs(t, err, ErrChatNotFound)
	})

	t.Run("vendor cannot open a chat with a non-organization", func(t *testing.T) {
		svc, _ := newTestChatService()

		_, err := svc.OpenChat(ctx, testVendor, testDonor.ID)

		assert.ErrorIs(t, err, ErrInvalidCounterpart)
	})

	t.Run("donor cannot open a chat at all", func(t *testing.T) {
		svc, _ := newTestChatService()

		_, err := svc.OpenChat(ctx, testDonor, testOrg.ID)

		assert.ErrorIs(t, err, ErrNotChatParticipant)
	})
}

func TestChatService_GetChat(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown chat ID is not found", func(t *testing.T) {
		svc, _ := newTestChatService()

		_, err := svc.GetChat(ctx, 999, testVendor)

		assert.ErrorIs(t, err, ErrChatNotFound)
	})

	t.Run("outsiders cannot read the chat", func(t *testing.T) {
		svc, _ := newTestChatService()

		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		_, err = svc.GetChat(ctx, chat.ID, testDonor)

		assert.ErrorIs(t, err, ErrNotChatParticipant)
	})
}

func TestChatService_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("messages keep append order", func(t *testing.T) {
		svc, _ := newTestChatService()

		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err := svc.SendMessage(ctx, chat.ID, testVendor, fmt.Sprintf("message %d", i), "")
			require.NoError(t, err)
		}

		messages, err := svc.ListMessages(ctx, chat.ID, testOrg, 0, 0)
		require.NoError(t, err)
		require.Len(t, messages, 5)

		for i, message := range messages {
			assert.Equal(t, uint(i+1), message.Seq)
			assert.Equal(t, fmt.Sprintf("message %d", i), message.Text)
		}
	})

	t.Run("retrying with the same client message ID does not duplicate", func(t *testing.T) {
		svc, _ := newTestChatService()

		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		first, err := svc.SendMessage(ctx, chat.ID, testVendor, "hello", "client-123")
		require.NoError(t, err)

		second, err := svc.SendMessage(ctx, chat.ID, testVendor, "hello", "client-123")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		messages, err := svc.ListMessages(ctx, chat.ID, testVendor, 0, 0)
		require.NoError(t, err)
		assert.Len(t, messages, 1)
	})

	t.Run("blank text is refused", func(t *testing.T) {
		svc, _ := newTestChatService()

		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		_, err = svc.SendMessage(ctx, chat.ID, testVendor, "   ", "")

		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("flags who sent the message", func(t *testing.T) {
		svc, _ := newTestChatService()

		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		fromVendor, err := svc.SendMessage(ctx, chat.ID, testVendor, "from vendor", "")
		require.NoError(t, err)
		assert.True(t, fromVendor.FromVendor)

		fromOrg, err := svc.SendMessage(ctx, chat.ID, testOrg, "from org", "")
		require.NoError(t, err)
		assert.False(t, fromOrg.FromVendor)
	})
}

func TestChatService_Proposals(t *testing.T) {
	ctx := context.Background()

	sendProposal := func(t *testing.T, svc *ChatService, chatID uint) domain.Message {
		t.Helper()

		message, err := svc.SendProposal(ctx, chatID, testVendor, []domain.ProposalItem{
			{Name: "water filter", Quantity: 2, UnitPriceCents: 250},
		}, "")
		require.NoError(t, err)
		require.NotNil(t, message.Proposal)

		return message
	}

	t.Run("proposal starts pending with a computed total", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		message := sendProposal(t, svc, chat.ID)

		assert.Equal(t, domain.ProposalPending, message.Proposal.Status)
		assert.Equal(t, int64(500), message.Proposal.TotalCents)
	})

	t.Run("invalid items append nothing", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		_, err = svc.SendProposal(ctx, chat.ID, testVendor, []domain.ProposalItem{
			{Name: "", Quantity: 1, UnitPriceCents: 100},
		}, "")
		assert.ErrorIs(t, err, ErrInvalidProposal)

		messages, err := svc.ListMessages(ctx, chat.ID, testVendor, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("recipient accepts the proposal", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)
		message := sendProposal(t, svc, chat.ID)

		proposal, err := svc.AcceptProposal(ctx, chat.ID, message.ID, testOrg)

		require.NoError(t, err)
		assert.Equal(t, domain.ProposalAccepted, proposal.Status)
		require.NotNil(t, proposal.ResolvedBy)
		assert.Equal(t, testOrg.ID, *proposal.ResolvedBy)
	})

	t.Run("proposer cannot resolve their own proposal", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)
		message := sendProposal(t, svc, chat.ID)

		_, err = svc.AcceptProposal(ctx, chat.ID, message.ID, testVendor)

		assert.ErrorIs(t, err, ErrNotProposalRecipient)
	})

	t.Run("accepted proposal cannot be rejected afterwards", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)
		message := sendProposal(t, svc, chat.ID)

		_, err = svc.AcceptProposal(ctx, chat.ID, message.ID, testOrg)
		require.NoError(t, err)

		_, err = svc.RejectProposal(ctx, chat.ID, message.ID, testOrg)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		fetched, err := svc.ListMessages(ctx, chat.ID, testOrg, 0, 0)
		require.NoError(t, err)
		require.Len(t, fetched, 1)
		assert.Equal(t, domain.ProposalAccepted, fetched[0].Proposal.Status)
	})

	t.Run("repeated accept is a no-op", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)
		message := sendProposal(t, svc, chat.ID)

		first, err := svc.AcceptProposal(ctx, chat.ID, message.ID, testOrg)
		require.NoError(t, err)

		second, err := svc.AcceptProposal(ctx, chat.ID, message.ID, testOrg)
		require.NoError(t, err)

		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, *first.ResolvedBy, *second.ResolvedBy)
	})

	t.Run("resolving a plain message fails", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		message, err := svc.SendMessage(ctx, chat.ID, testVendor, "no proposal here", "")
		require.NoError(t, err)

		_, err = svc.AcceptProposal(ctx, chat.ID, message.ID, testOrg)

		assert.ErrorIs(t, err, ErrNoProposal)
	})

	t.Run("resolving an unknown message is not found", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		_, err = svc.AcceptProposal(ctx, chat.ID, 999, testOrg)

		assert.ErrorIs(t, err, ErrMessageNotFound)
	})

	t.Run("organization proposals are resolved by the vendor", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		message, err := svc.SendProposal(ctx, chat.ID, testOrg, []domain.ProposalItem{
			{Name: "bulk order", Quantity: 10, UnitPriceCents: 100},
		}, "")
		require.NoError(t, err)

		_, err = svc.AcceptProposal(ctx, chat.ID, message.ID, testOrg)
		assert.ErrorIs(t, err, ErrNotProposalRecipient)

		proposal, err := svc.RejectProposal(ctx, chat.ID, message.ID, testVendor)
		require.NoError(t, err)
		assert.Equal(t, domain.ProposalRejected, proposal.Status)
	})
}

// racingChatRepo simulates a concurrent resolution landing between the
// service's read of the message and its write of the decision.
type racingChatRepo struct {
	*fakeChatRepo
	raceErr error
}

func (r *racingChatRepo) UpdateProposal(_ context.Context, _ domain.TransactionProposal) (domain.TransactionProposal, error) {
	return domain.TransactionProposal{}, r.raceErr
}

func TestChatService_ResolveRace(t *testing.T) {
	ctx := context.Background()

	newRacingService := func(raceErr error) (*ChatService, uint, uint) {
		repo := newFakeChatRepo()
		userRepo := &fakeUserRepo{users: map[uint]domain.User{
			testOrg.ID:    testOrg,
			testVendor.ID: testVendor,
		}}
		svc := NewChatService(repo, userRepo)

		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		message, err := svc.SendProposal(ctx, chat.ID, testVendor, []domain.ProposalItem{
			{Name: "water filter", Quantity: 2, UnitPriceCents: 250},
		}, "")
		require.NoError(t, err)

		racing := NewChatService(&racingChatRepo{fakeChatRepo: repo, raceErr: raceErr}, userRepo)

		return racing, chat.ID, message.ID
	}

	t.Run("losing to a conflicting decision is a conflict", func(t *testing.T) {
		svc, chatID, messageID := newRacingService(repository.ErrProposalResolved)

		_, err := svc.AcceptProposal(ctx, chatID, messageID, testOrg)

		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("a vanished proposal row is not an accepted decision", func(t *testing.T) {
		svc, chatID, messageID := newRacingService(repository.ErrProposalNotFound)

		_, err := svc.AcceptProposal(ctx, chatID, messageID, testOrg)

		assert.ErrorIs(t, err, ErrNoProposal)
	})
}

func TestChatService_GetChats(t *testing.T) {
	ctx := context.Background()

	t.Run("participants see their chats, outsiders see none", func(t *testing.T) {
		svc, _ := newTestChatService()

		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		vendorChats, err := svc.GetChats(ctx, testVendor)
		require.NoError(t, err)
		require.Len(t, vendorChats, 1)
		assert.Equal(t, chat.ID, vendorChats[0].ID)

		orgChats, err := svc.GetChats(ctx, testOrg)
		require.NoError(t, err)
		assert.Len(t, orgChats, 1)

		donorChats, err := svc.GetChats(ctx, testDonor)
		require.NoError(t, err)
		assert.Empty(t, donorChats)
	})
}

func TestChatService_ListMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("empty chat lists no messages", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		messages, err := svc.ListMessages(ctx, chat.ID, testVendor, 0, 0)

		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("pagination respects limit and offset", func(t *testing.T) {
		svc, _ := newTestChatService()
		chat, err := svc.OpenChat(ctx, testVendor, testOrg.ID)
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			_, err := svc.SendMessage(ctx, chat.ID, testVendor, fmt.Sprintf("message %d", i), "")
			require.NoError(t, err)
		}

		page, err := svc.ListMessages(ctx, chat.ID, testOrg, 3, 4)
		require.NoError(t, err)
		require.Len(t, page, 3)
		assert.Equal(t, uint(5), page[0].Seq)
		assert.Equal(t, uint(7), page[2].Seq)
	})
}
