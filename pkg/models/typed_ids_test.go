package models

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteIDJSONRoundTrip(t *testing.T) {
	id := NewNoteID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(data))

	var decoded NoteID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestParseIDs(t *testing.T) {
	id := NewFolderID()
	parsed, err := ParseFolderID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseFolderID("not-a-uuid")
	assert.ErrorContains(t, err, "invalid folder ID")

	_, err = ParseNoteID("")
	assert.Error(t, err)

	_, err = ParseUserID("0b86aa0b-37a4-4b21-9b57-c07a4891e02e")
	assert.NoError(t, err)
}

func TestRecordIDTables(t *testing.T) {
	assert.Equal(t, "notes", NewNoteID().RecordID().Table)
	assert.Equal(t, "folders", NewFolderID().RecordID().Table)
	assert.Equal(t, "users", NewUserID().RecordID().Table)
}

func TestIDCBORRoundTrip(t *testing.T) {
	id := NewUserID()

	data, err := cbor.Marshal(id)
	require.NoError(t, err)

	var decoded UserID
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestIDCBORRejectsWrongTable(t *testing.T) {
	id := NewNoteID()
	data, err := cbor.Marshal(id)
	require.NoError(t, err)

	var decoded FolderID
	err = cbor.Unmarshal(data, &decoded)
	assert.ErrorContains(t, err, "expected table folders")
}

func TestIDCBORAcceptsPlainString(t *testing.T) {
	id := NewNoteID()
	data, err := cbor.Marshal(id.String())
	require.NoError(t, err)

	var decoded NoteID
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestIsZero(t *testing.T) {
	assert.True(t, NoteID{}.IsZero())
	assert.False(t, NewNoteID().IsZero())
}

func TestDefaultFolders(t *testing.T) {
	owner := NewUserID()
	folders := DefaultFolders(owner)

	require.Len(t, folders, 3)
	names := []string{folders[0].Name, folders[1].Name, folders[2].Name}
	assert.Equal(t, []string{"Ideas", "Tasks", "Journal"}, names)
	for _, f := range folders {
		assert.Equal(t, owner, f.UserID)
		assert.NotEmpty(t, f.Description)
		assert.True(t, f.ID.IsZero(), "ids are assigned by the store")
	}
}

func TestNoteJSONFieldNames(t *testing.T) {
	note := Note{ID: NewNoteID(), Title: "t", UserID: NewUserID()}
	data, err := json.Marshal(note)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"id", "title", "content", "isPublic", "userId", "createdAt"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "folderId", "nil folder is omitted")
}
