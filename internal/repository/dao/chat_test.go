package dao

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var testDB *gorm.DB

// TestMain spins up a throwaway Postgres container. Tests skip themselves
// when Docker is not available so the suite still runs on plain CI boxes.
func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		log.Printf("docker is not available, skipping dao tests: %v", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=givehub_test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Printf("could not start postgres container, skipping dao tests: %v", err)
		os.Exit(m.Run())
	}
	resource.Expire(180)

	dsn := fmt.Sprintf("host=localhost port=%s user=test password=test dbname=givehub_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	if err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.Ping(); err != nil {
			return err
		}
		testDB = db
		return nil
	}); err != nil {
		log.Printf("could not connect to postgres, skipping dao tests: %v", err)
		pool.Purge(resource)
		os.Exit(m.Run())
	}

	if err = InitTables(testDB); err != nil {
		log.Fatalf("could not migrate tables: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Printf("could not purge postgres container: %v", err)
	}

	os.Exit(code)
}

func requireDB(t *testing.T) *ChatDAO {
	t.Helper()

	if testDB == nil {
		t.Skip("docker is not available")
	}

	return NewChatDAO(testDB)
}

func TestChatDAO_InsertChat(t *testing.T) {
	d := requireDB(t)
	ctx := context.Background()

	chat, err := d.InsertChat(ctx, Chat{OrganizationID: 101, VendorID: 102})
	require.NoError(t, err)
	assert.NotZero(t, chat.ID)

	t.Run("duplicate pair is rejected", func(t *testing.T) {
		_, err := d.InsertChat(ctx, Chat{OrganizationID: 101, VendorID: 102})
		assert.ErrorIs(t, err, ErrChatExists)
	})

	t.Run("same organization with another vendor is fine", func(t *testing.T) {
		_, err := d.InsertChat(ctx, Chat{OrganizationID: 101, VendorID: 103})
		assert.NoError(t, err)
	})
}

func TestChatDAO_AppendMessage(t *testing.T) {
	d := requireDB(t)
	ctx := context.Background()

	chat, err := d.InsertChat(ctx, Chat{OrganizationID: 201, VendorID: 202})
	require.NoError(t, err)

	t.Run("assigns consecutive sequence numbers", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			message, err := d.AppendMessage(ctx, Message{
				ChatID:      chat.ID,
				SenderID:    202,
				FromVendor:  true,
				Text:        fmt.Sprintf("message %d", i),
				ClientMsgID: fmt.Sprintf("append-seq-%d", i),
				CreatedAt:   time.Now(),
			})
			require.NoError(t, err)
			assert.Equal(t, uint(i), message.Seq)
			assert.NotZero(t, message.ID)
		}
	})

	t.Run("duplicate client message id is rejected", func(t *testing.T) {
		_, err := d.AppendMessage(ctx, Message{
			ChatID:      chat.ID,
			SenderID:    202,
			FromVendor:  true,
			Text:        "retry",
			ClientMsgID: "append-seq-1",
			CreatedAt:   time.Now(),
		})
		assert.ErrorIs(t, err, ErrDuplicateMessage)
	})

	t.Run("unknown chat is rejected", func(t *testing.T) {
		_, err := d.AppendMessage(ctx, Message{
			ChatID:      99999,
			SenderID:    202,
			Text:        "nowhere",
			ClientMsgID: "append-nowhere",
			CreatedAt:   time.Now(),
		})
		assert.ErrorIs(t, err, ErrChatNotFound)
	})

	t.Run("lists messages in sequence order", func(t *testing.T) {
		messages, err := d.ListMessages(ctx, chat.ID, 50, 0)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		for i, message := range messages {
			assert.Equal(t, uint(i+1), message.Seq)
		}
	})
}

func TestChatDAO_Proposals(t *testing.T) {
	d := requireDB(t)
	ctx := context.Background()

	chat, err := d.InsertChat(ctx, Chat{OrganizationID: 301, VendorID: 302})
	require.NoError(t, err)

	appended, err := d.AppendMessage(ctx, Message{
		ChatID:      chat.ID,
		SenderID:    302,
		FromVendor:  true,
		ClientMsgID: "proposal-1",
		Proposal: &TransactionProposal{
			Items: []ProposalItem{
				{Position: 0, Name: "water filter", Quantity: 2, UnitPriceCents: 250},
				{Position: 1, Name: "pipe", Quantity: 1, UnitPriceCents: 100},
			},
			TotalCents: 600,
			Status:     "Pending",
		},
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	t.Run("preloads items in position order", func(t *testing.T) {
		message, err := d.FindMessageByID(ctx, chat.ID, appended.ID)
		require.NoError(t, err)
		require.NotNil(t, message.Proposal)
		require.Len(t, message.Proposal.Items, 2)
		assert.Equal(t, "water filter", message.Proposal.Items[0].Name)
		assert.Equal(t, "pipe", message.Proposal.Items[1].Name)
		assert.Equal(t, int64(600), message.Proposal.TotalCents)
	})

	t.Run("persists a resolution", func(t *testing.T) {
		message, err := d.FindMessageByID(ctx, chat.ID, appended.ID)
		require.NoError(t, err)

		resolvedBy := uint(301)
		resolvedAt := time.Now()
		proposal := *message.Proposal
		proposal.Status = "Accepted"
		proposal.ResolvedBy = &resolvedBy
		proposal.ResolvedAt = &resolvedAt

		_, err = d.UpdateProposal(ctx, proposal)
		require.NoError(t, err)

		updated, err := d.FindMessageByID(ctx, chat.ID, appended.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.Proposal)
		assert.Equal(t, "Accepted", updated.Proposal.Status)
		require.NotNil(t, updated.Proposal.ResolvedBy)
		assert.Equal(t, resolvedBy, *updated.Proposal.ResolvedBy)
	})

	t.Run("resolving again with the same decision returns the stored row", func(t *testing.T) {
		message, err := d.FindMessageByID(ctx, chat.ID, appended.ID)
		require.NoError(t, err)

		resolvedBy := uint(301)
		resolvedAt := time.Now()
		repeat := *message.Proposal
		repeat.Status = "Accepted"
		repeat.ResolvedBy = &resolvedBy
		repeat.ResolvedAt = &resolvedAt

		stored, err := d.UpdateProposal(ctx, repeat)
		require.NoError(t, err)
		assert.Equal(t, "Accepted", stored.Status)
	})

	t.Run("resolving again with the other decision is refused", func(t *testing.T) {
		message, err := d.FindMessageByID(ctx, chat.ID, appended.ID)
		require.NoError(t, err)

		resolvedBy := uint(301)
		resolvedAt := time.Now()
		conflict := *message.Proposal
		conflict.Status = "Rejected"
		conflict.ResolvedBy = &resolvedBy
		conflict.ResolvedAt = &resolvedAt

		_, err = d.UpdateProposal(ctx, conflict)
		assert.ErrorIs(t, err, ErrProposalResolved)

		unchanged, err := d.FindMessageByID(ctx, chat.ID, appended.ID)
		require.NoError(t, err)
		assert.Equal(t, "Accepted", unchanged.Proposal.Status)
	})

	t.Run("unknown proposal id is reported", func(t *testing.T) {
		resolvedBy := uint(301)
		resolvedAt := time.Now()

		_, err := d.UpdateProposal(ctx, TransactionProposal{
			ID:         99999,
			Status:     "Accepted",
			ResolvedBy: &resolvedBy,
			ResolvedAt: &resolvedAt,
		})
		assert.ErrorIs(t, err, ErrProposalNotFound)
	})

	t.Run("finds the message by client id", func(t *testing.T) {
		message, err := d.FindMessageByClientID(ctx, "proposal-1")
		require.NoError(t, err)
		assert.Equal(t, appended.ID, message.ID)
	})
}
