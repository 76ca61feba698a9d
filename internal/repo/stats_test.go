package repo

import (
	"context"
	"testing"
	"time"
)

func TestConversationsStats(t *testing.T) {
	db := testDB(t, "repo_stats_conv")
	ctx := context.Background()

	// No conversations yet.
	n, ts, err := ConversationsStats(ctx, db, "u1")
	if err != nil || n != 0 || ts != nil {
		t.Fatalf("empty stats = %d, %v, %v", n, ts, err)
	}

	a, err := CreateConversation(ctx, db, "u1", "u2")
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	if _, err := CreateConversation(ctx, db, "u1", "u3"); err != nil {
		t.Fatalf("create b: %v", err)
	}

	// No messages sent yet: creation time stands in for activity.
	n, ts, err = ConversationsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("pre-activity stats: %v", err)
	}
	if n != 2 || ts == nil || ts.IsZero() {
		t.Fatalf("pre-activity stats = %d, %v", n, ts)
	}

	later := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	if err := SetLastMessage(ctx, db, a.ID, "m-1", later); err != nil {
		t.Fatalf("set last message: %v", err)
	}

	n, ts, err = ConversationsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if n != 2 || ts == nil {
		t.Fatalf("stats = %d, %v", n, ts)
	}
	if !ts.Equal(later) {
		t.Fatalf("max activity = %v; want %v", ts, later)
	}
}

func TestMessagesStats(t *testing.T) {
	db := testDB(t, "repo_stats_msgs")
	ctx := context.Background()

	conv, err := CreateConversation(ctx, db, "u1", "u2")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	n, ts, err := MessagesStats(ctx, db, conv.ID)
	if err != nil || n != 0 || ts != nil {
		t.Fatalf("empty stats = %d, %v, %v", n, ts, err)
	}

	m1, err := CreateMessage(ctx, db, conv.ID, "u1", "one", nil)
	if err != nil {
		t.Fatalf("m1: %v", err)
	}
	m2, err := CreateMessage(ctx, db, conv.ID, "u2", "two", nil)
	if err != nil {
		t.Fatalf("m2: %v", err)
	}
	base := time.Now().UTC().Truncate(time.Second)
	setMessageTime(t, db, m1.ID, base)
	setMessageTime(t, db, m2.ID, base.Add(time.Minute))

	n, ts, err = MessagesStats(ctx, db, conv.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if n != 2 || ts == nil || !ts.Equal(base.Add(time.Minute)) {
		t.Fatalf("stats = %d, %v", n, ts)
	}
}
