package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComment_RecordsAddedEvent(t *testing.T) {
	postID := uuid.New()

	comment, err := NewComment(postID, "Ana", "Muy buen artículo")

	require.NoError(t, err)
	assert.Equal(t, StatusPending, comment.Status)
	assert.Equal(t, 1, comment.Version)

	events := comment.Events()
	require.Len(t, events, 1)
	added, ok := events[0].(CommentAddedEvent)
	require.True(t, ok, "expected CommentAddedEvent, got %T", events[0])
	assert.Equal(t, comment.ID, added.CommentID)
	assert.Equal(t, postID, added.PostID)
}

func TestNewComment_InvalidInputRecordsNothing(t *testing.T) {
	tests := []struct {
		name   string
		postID uuid.UUID
		author string
		body   string
	}{
		{name: "post nulo", postID: uuid.Nil, author: "Ana", body: "texto"},
		{name: "autor vacío", postID: uuid.New(), author: "  ", body: "texto"},
		{name: "cuerpo vacío", postID: uuid.New(), author: "Ana", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment, err := NewComment(tt.postID, tt.author, tt.body)

			assert.ErrorIs(t, err, ErrInvalidComment)
			assert.Nil(t, comment)
		})
	}
}

func TestComment_ApproveTwiceFails(t *testing.T) {
	comment, err := NewComment(uuid.New(), "Ana", "texto")
	require.NoError(t, err)
	comment.ClearEvents()

	require.NoError(t, comment.Approve())
	assert.Equal(t, StatusApproved, comment.Status)

	err = comment.Approve()

	assert.ErrorIs(t, err, ErrCommentAlreadyModerated)
	assert.Len(t, comment.Events(), 1)
}

func TestComment_RejectRecordsReason(t *testing.T) {
	comment, err := NewComment(uuid.New(), "Ana", "spam spam spam")
	require.NoError(t, err)
	comment.ClearEvents()

	require.NoError(t, comment.Reject("spam"))
	assert.Equal(t, StatusRejected, comment.Status)

	events := comment.Events()
	require.Len(t, events, 1)
	rejected, ok := events[0].(CommentRejectedEvent)
	require.True(t, ok)
	assert.Equal(t, "spam", rejected.Reason)
}

func TestComment_ApproveAfterReject(t *testing.T) {
	comment, err := NewComment(uuid.New(), "Ana", "texto")
	require.NoError(t, err)

	require.NoError(t, comment.Reject("dudoso"))
	// una revisión posterior puede aprobarlo
	require.NoError(t, comment.Approve())
	assert.Equal(t, StatusApproved, comment.Status)
}
