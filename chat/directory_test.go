package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/chatcore/limits"
)

func TestDirectory_CreateGroup(t *testing.T) {
	dir := NewDirectory()

	c, err := dir.CreateGroup("g1", "Team", []string{"a", "b", "c"}, "a")
	require.NoError(t, err)
	assert.Equal(t, "g1", c.ID)
	assert.Equal(t, TypeGroup, c.Type)
	assert.Equal(t, "Team", c.DisplayName)
	assert.Equal(t, []string{"a", "b", "c"}, c.Participants)
	assert.Equal(t, "a", c.CreatedBy)
	assert.Zero(t, c.MessageCount)
}

func TestDirectory_CreateGroupDuplicateID(t *testing.T) {
	dir := NewDirectory()

	_, err := dir.CreateGroup("g1", "Team", []string{"a"}, "a")
	require.NoError(t, err)

	_, err = dir.CreateGroup("g1", "Other", []string{"b"}, "b")
	assert.ErrorIs(t, err, ErrChatExists)
}

func TestDirectory_CreateGroupValidation(t *testing.T) {
	dir := NewDirectory()

	testCases := []struct {
		name         string
		chatID       string
		participants []string
		wantErr      error
	}{
		{"Empty chat id", "", []string{"a"}, limits.ErrEmptyChatID},
		{"Empty participants", "g1", nil, limits.ErrEmptyParticipants},
		{"Only empty participant ids", "g1", []string{"", ""}, limits.ErrEmptyParticipants},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dir.CreateGroup(tc.chatID, "Team", tc.participants, "a")
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDirectory_CreateGroupEmptyCreator(t *testing.T) {
	dir := NewDirectory()

	_, err := dir.CreateGroup("g1", "Team", []string{"a", "b"}, "")
	assert.ErrorIs(t, err, limits.ErrEmptyPrincipal)
}

func TestDirectory_CreateGroupDeduplicatesParticipants(t *testing.T) {
	dir := NewDirectory()

	c, err := dir.CreateGroup("g1", "Team", []string{"a", "b", "a", "c", "b"}, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, c.Participants)
}

func TestDirectory_CreatorNotAddedImplicitly(t *testing.T) {
	dir := NewDirectory()

	c, err := dir.CreateGroup("g1", "Team", []string{"b", "c"}, "a")
	require.NoError(t, err)
	assert.NotContains(t, c.Participants, "a")
}

func TestDirectory_EnsureDirect(t *testing.T) {
	dir := NewDirectory()

	c := dir.EnsureDirect("c1", "alice", "bob")
	assert.Equal(t, TypeDirect, c.Type)
	assert.Equal(t, []string{"alice", "bob"}, c.Participants)

	// Second use returns the same chat rather than recreating it.
	again := dir.EnsureDirect("c1", "bob", "alice")
	assert.Equal(t, c.CreatedAt, again.CreatedAt)
	assert.Equal(t, []string{"alice", "bob"}, again.Participants)
	assert.Equal(t, 1, dir.Count())
}

func TestDirectory_AddParticipant(t *testing.T) {
	dir := NewDirectory()
	_, err := dir.CreateGroup("g1", "Team", []string{"a", "b"}, "a")
	require.NoError(t, err)

	c, added, err := dir.AddParticipant("g1", "c")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"a", "b", "c"}, c.Participants)

	// Adding an existing member is a no-op.
	c, added, err = dir.AddParticipant("g1", "c")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"a", "b", "c"}, c.Participants)

	_, _, err = dir.AddParticipant("missing", "c")
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestDirectory_RemoveParticipant(t *testing.T) {
	dir := NewDirectory()
	_, err := dir.CreateGroup("g1", "Team", []string{"a", "b", "c"}, "a")
	require.NoError(t, err)

	c, removed, err := dir.RemoveParticipant("g1", "b")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"a", "c"}, c.Participants)

	// Removing a non-member is a no-op.
	c, removed, err = dir.RemoveParticipant("g1", "ghost")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"a", "c"}, c.Participants)

	_, _, err = dir.RemoveParticipant("missing", "b")
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestDirectory_AppendAssignsMonotonicIDs(t *testing.T) {
	dir := NewDirectory()
	dir.EnsureDirect("c1", "alice", "bob")

	var lastID uint64
	for i := 0; i < 5; i++ {
		msg := &Message{SenderID: "alice", RecipientID: "bob", Body: fmt.Sprintf("m%d", i), Kind: "text"}
		require.NoError(t, dir.Append("c1", msg))
		assert.Greater(t, msg.ID, lastID)
		assert.Equal(t, "c1", msg.ChatID)
		assert.False(t, msg.SentAt.IsZero())
		lastID = msg.ID
	}

	assert.Equal(t, 5, dir.TotalMessages())
	assert.ErrorIs(t, dir.Append("missing", &Message{}), ErrChatNotFound)
}

func TestDirectory_MessageLookup(t *testing.T) {
	dir := NewDirectory()
	dir.EnsureDirect("c1", "alice", "bob")

	msg := &Message{SenderID: "alice", RecipientID: "bob", Body: "hi", Kind: "text"}
	require.NoError(t, dir.Append("c1", msg))

	found, err := dir.Message(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg, found)

	_, err = dir.Message(9999)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestDirectory_History(t *testing.T) {
	dir := NewDirectory()
	dir.EnsureDirect("c1", "alice", "bob")
	for i := 0; i < 10; i++ {
		require.NoError(t, dir.Append("c1", &Message{
			SenderID: "alice", RecipientID: "bob",
			Body: fmt.Sprintf("m%d", i), Kind: "text",
		}))
	}

	page, err := dir.History("c1", 4, 0)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 4)
	assert.Equal(t, 10, page.Total)
	assert.Equal(t, 3, page.PageCount)
	assert.Equal(t, "m0", page.Messages[0].Body)
	assert.Equal(t, "m3", page.Messages[3].Body)

	page, err = dir.History("c1", 4, 8)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 2)
	assert.Equal(t, "m8", page.Messages[0].Body)

	// Offset beyond the log yields an empty page, not an error.
	page, err = dir.History("c1", 4, 100)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)

	// Non-positive limit selects the default page size.
	page, err = dir.History("c1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 10)
	assert.Equal(t, 1, page.PageCount)

	_, err = dir.History("missing", 4, 0)
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestDirectory_SnapshotsAreCopies(t *testing.T) {
	dir := NewDirectory()
	_, err := dir.CreateGroup("g1", "Team", []string{"a", "b"}, "a")
	require.NoError(t, err)

	c, err := dir.Get("g1")
	require.NoError(t, err)
	c.Participants[0] = "mutated"

	fresh, err := dir.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, fresh.Participants)
}
