package services

import (
	"context"
	"errors"
	"testing"

	"github.com/minixhq/minix-backend/internal/directory"
	"github.com/minixhq/minix-backend/internal/repo"
)

func newDMFixture(t *testing.T, name string) (*DMService, *DirectoryService) {
	t.Helper()
	db := newServiceDB(t, name)
	dir := NewDirectoryService(db, directory.DefaultContacts())
	return NewDMService(db, dir), dir
}

func TestListConversations_FirstContact_WelcomeThread(t *testing.T) {
	svc, _ := newDMFixture(t, "svc_dm_welcome")
	ctx := context.Background()

	// Resolve alice up front, then list by id with her username.
	alice, err := svc.Directory.FindOrCreateByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}

	out, err := svc.ListConversations(ctx, alice.ID, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("first contact should yield one welcome thread, got %d", len(out))
	}
	conv := out[0]
	if conv.Type != "dm_conversation" {
		t.Fatalf("type = %q", conv.Type)
	}
	if len(conv.Participants) != 2 || len(conv.ParticipantProfiles) != 2 {
		t.Fatalf("welcome thread must have two participants: %+v", conv)
	}
	bot, _ := svc.Directory.BotContact()
	foundBot := false
	for _, id := range conv.Participants {
		if id == bot.ID {
			foundBot = true
		}
	}
	if !foundBot {
		t.Fatalf("bot missing from participants: %+v", conv.Participants)
	}
	if conv.LastMessage == nil || conv.LastMessage.Text != DefaultGreeting || conv.LastMessage.SenderID != bot.ID {
		t.Fatalf("greeting wrong: %+v", conv.LastMessage)
	}

	// Listing again must not open a second thread or repeat the greeting.
	again, err := svc.ListConversations(ctx, alice.ID, "")
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("welcome thread duplicated: %d", len(again))
	}
	msgs, err := svc.ListMessages(ctx, conv.ID)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("greeting repeated: %d messages, %v", len(msgs), err)
	}
}

func TestListConversations_CustomGreeting(t *testing.T) {
	svc, _ := newDMFixture(t, "svc_dm_greeting")
	svc.Greeting = "Welcome aboard!"
	ctx := context.Background()

	alice, err := svc.Directory.FindOrCreateByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	out, err := svc.ListConversations(ctx, alice.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out[0].LastMessage == nil || out[0].LastMessage.Text != "Welcome aboard!" {
		t.Fatalf("custom greeting not used: %+v", out[0].LastMessage)
	}
}

func TestListConversations_UnknownUserWithoutUsername(t *testing.T) {
	svc, _ := newDMFixture(t, "svc_dm_unknown")
	if _, err := svc.ListConversations(context.Background(), "ghost", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSendToParticipant_CreatesSharedThread(t *testing.T) {
	svc, dir := newDMFixture(t, "svc_dm_send_part")
	ctx := context.Background()

	alice, err := dir.FindOrCreateByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("alice: %v", err)
	}
	bob, err := dir.FindOrCreateByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("bob: %v", err)
	}

	res, err := svc.SendToParticipant(ctx, alice.ID, bob.ID, SendPayload{Text: "  hi bob  "})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.ConversationID == "" || res.Message.Text != "hi bob" {
		t.Fatalf("trimmed text expected, got %+v", res.Message)
	}

	// A second send in either direction reuses the same thread.
	res2, err := svc.SendToParticipant(ctx, bob.ID, alice.ID, SendPayload{Text: "hi alice"})
	if err != nil {
		t.Fatalf("reverse send: %v", err)
	}
	if res2.ConversationID != res.ConversationID {
		t.Fatalf("pair must share one thread: %s vs %s", res2.ConversationID, res.ConversationID)
	}

	// Listing resolves senders and order.
	msgs, err := svc.ListMessages(ctx, res.ConversationID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "hi bob" || msgs[1].Text != "hi alice" {
		t.Fatalf("unexpected thread: %+v", msgs)
	}
	if msgs[0].Sender == nil || msgs[0].Sender.Username != "alice" {
		t.Fatalf("sender profile missing: %+v", msgs[0])
	}

	// Last-message pointer tracks the newest insert.
	conv, err := repo.GetConversation(ctx, svc.DB, res.ConversationID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.LastMessageID == nil || *conv.LastMessageID != res2.Message.ID {
		t.Fatalf("last message pointer = %v; want %s", conv.LastMessageID, res2.Message.ID)
	}
}

func TestSendToParticipant_UnknownTarget(t *testing.T) {
	svc, dir := newDMFixture(t, "svc_dm_send_ghost")
	ctx := context.Background()
	alice, err := dir.FindOrCreateByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("alice: %v", err)
	}
	if _, err := svc.SendToParticipant(ctx, alice.ID, "ghost", SendPayload{Text: "hi"}); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
}

func TestSendToConversation_Authorization(t *testing.T) {
	svc, dir := newDMFixture(t, "svc_dm_authz")
	ctx := context.Background()

	alice, _ := dir.FindOrCreateByUsername(ctx, "alice")
	bob, _ := dir.FindOrCreateByUsername(ctx, "bob")
	eve, _ := dir.FindOrCreateByUsername(ctx, "eve")

	res, err := svc.SendToParticipant(ctx, alice.ID, bob.ID, SendPayload{Text: "private"})
	if err != nil {
		t.Fatalf("seed thread: %v", err)
	}

	if _, err := svc.SendToConversation(ctx, res.ConversationID, eve.ID, SendPayload{Text: "intruding"}); !errors.Is(err, ErrSenderNotInConversation) {
		t.Fatalf("expected ErrSenderNotInConversation, got %v", err)
	}
	if _, err := svc.SendToConversation(ctx, "no-such-thread", alice.ID, SendPayload{Text: "hi"}); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}

	ok, err := svc.SendToConversation(ctx, res.ConversationID, bob.ID, SendPayload{Text: "replying"})
	if err != nil || ok.Message.SenderID != bob.ID {
		t.Fatalf("participant send failed: %+v, %v", ok, err)
	}
}

func TestSelfConversation_NotesToSelf(t *testing.T) {
	svc, dir := newDMFixture(t, "svc_dm_self")
	ctx := context.Background()

	alice, err := dir.FindOrCreateByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("alice: %v", err)
	}

	res, err := svc.SendToParticipant(ctx, alice.ID, alice.ID, SendPayload{Text: "note to self"})
	if err != nil {
		t.Fatalf("self send: %v", err)
	}

	parts, err := repo.ListParticipants(ctx, svc.DB, []string{res.ConversationID})
	if err != nil || len(parts) != 1 {
		t.Fatalf("self thread participants: %+v, %v", parts, err)
	}

	// Repeated self sends land in the same thread.
	res2, err := svc.SendToParticipant(ctx, alice.ID, alice.ID, SendPayload{Text: "second note"})
	if err != nil || res2.ConversationID != res.ConversationID {
		t.Fatalf("self thread not reused: %+v, %v", res2, err)
	}
}

func TestListMessages_MediaResolved(t *testing.T) {
	svc, dir := newDMFixture(t, "svc_dm_media")
	ctx := context.Background()

	alice, _ := dir.FindOrCreateByUsername(ctx, "alice")
	bob, _ := dir.FindOrCreateByUsername(ctx, "bob")

	media := NewMediaService(svc.DB)
	m, err := media.Create(ctx, "photo.png")
	if err != nil {
		t.Fatalf("create media: %v", err)
	}

	res, err := svc.SendToParticipant(ctx, alice.ID, bob.ID, SendPayload{Text: "look", MediaID: &m.ID})
	if err != nil {
		t.Fatalf("send with media: %v", err)
	}

	msgs, err := svc.ListMessages(ctx, res.ConversationID)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("list: %d, %v", len(msgs), err)
	}
	if msgs[0].Media == nil || msgs[0].Media.ID != m.ID || msgs[0].Media.MediaURL != m.MediaURL {
		t.Fatalf("media not embedded: %+v", msgs[0].Media)
	}

	if _, err := svc.ListMessages(ctx, "missing"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}
