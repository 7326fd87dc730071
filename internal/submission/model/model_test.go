package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeDescriptor_Encode(t *testing.T) {
	now := time.Now()
	descriptor := ChangeDescriptor{
		Filename:   "alice/collection.json",
		ItemType:   "item",
		ChangeKind: ChangeAdd,
		User:       "alice",
		DataOwner:  true,

		Status:    StatusPending,
		URL:       "https://github.com/osc/catalog/pull/7",
		CreatedAt: &now,
	}

	body, err := descriptor.Encode()
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &payload))

	t.Run("carries the change fields", func(t *testing.T) {
		assert.Equal(t, "alice/collection.json", payload["filename"])
		assert.Equal(t, "item", payload["item_type"])
		assert.Equal(t, "Add", payload["change_type"])
		assert.Equal(t, "alice", payload["user"])
		assert.Equal(t, true, payload["data_owner"])
	})

	t.Run("never embeds review metadata", func(t *testing.T) {
		assert.Len(t, payload, 5)
		assert.NotContains(t, payload, "status")
		assert.NotContains(t, payload, "url")
		assert.NotContains(t, payload, "created_at")
	})
}

func TestDecodeDescriptor(t *testing.T) {
	t.Run("round trips an encoded descriptor", func(t *testing.T) {
		original := ChangeDescriptor{
			Filename:   "alice/collection.json",
			ItemType:   "workflow",
			ChangeKind: ChangeUpdate,
			User:       "alice",
			DataOwner:  false,
		}
		body, err := original.Encode()
		require.NoError(t, err)

		decoded, err := DecodeDescriptor(body)

		require.NoError(t, err)
		assert.Equal(t, original, decoded)
	})

	t.Run("tolerates unknown keys", func(t *testing.T) {
		body := `{
			"filename": "alice/a.json", "item_type": "item", "change_type": "Delete",
			"user": "alice", "data_owner": false, "reviewer": "bob", "extra": 42
		}`

		decoded, err := DecodeDescriptor(body)

		require.NoError(t, err)
		assert.Equal(t, ChangeDelete, decoded.ChangeKind)
		assert.Equal(t, "alice/a.json", decoded.Filename)
	})

	t.Run("rejects bodies that are not JSON", func(t *testing.T) {
		_, err := DecodeDescriptor("Fixes the typo in the README.")
		assert.ErrorIs(t, err, ErrDescriptorDecode)
	})

	t.Run("rejects JSON of the wrong shape", func(t *testing.T) {
		_, err := DecodeDescriptor(`["alice/a.json"]`)
		assert.ErrorIs(t, err, ErrDescriptorDecode)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		bodies := map[string]string{
			"filename":    `{"item_type": "item", "change_type": "Add", "user": "alice", "data_owner": false}`,
			"item_type":   `{"filename": "alice/a.json", "change_type": "Add", "user": "alice", "data_owner": false}`,
			"change_type": `{"filename": "alice/a.json", "item_type": "item", "user": "alice", "data_owner": false}`,
			"user":        `{"filename": "alice/a.json", "item_type": "item", "change_type": "Add", "data_owner": false}`,
			"data_owner":  `{"filename": "alice/a.json", "item_type": "item", "change_type": "Add", "user": "alice"}`,
		}
		for missing, body := range bodies {
			t.Run(missing, func(t *testing.T) {
				_, err := DecodeDescriptor(body)
				assert.ErrorIs(t, err, ErrDescriptorDecode)
			})
		}
	})

	t.Run("rejects mistyped fields", func(t *testing.T) {
		body := `{"filename": 42, "item_type": "item", "change_type": "Add", "user": "alice", "data_owner": false}`
		_, err := DecodeDescriptor(body)
		assert.ErrorIs(t, err, ErrDescriptorDecode)
	})

	t.Run("rejects unknown change kinds", func(t *testing.T) {
		body := `{"filename": "alice/a.json", "item_type": "item", "change_type": "Rename", "user": "alice", "data_owner": false}`
		_, err := DecodeDescriptor(body)
		assert.ErrorIs(t, err, ErrDescriptorDecode)
	})

	t.Run("rejects null bodies", func(t *testing.T) {
		_, err := DecodeDescriptor("null")
		assert.ErrorIs(t, err, ErrDescriptorDecode)
	})
}

func TestParseChangeKind(t *testing.T) {
	for _, valid := range []string{"Add", "Update", "Delete"} {
		kind, err := ParseChangeKind(valid)
		require.NoError(t, err)
		assert.Equal(t, ChangeKind(valid), kind)
	}

	_, err := ParseChangeKind("add")
	assert.Error(t, err)
}

func TestStatusFromPullRequest(t *testing.T) {
	mergedAt := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		state    string
		mergedAt *time.Time
		want     SubmissionStatus
	}{
		{name: "open is pending", state: "open", mergedAt: nil, want: StatusPending},
		{name: "open with merge timestamp is still pending", state: "open", mergedAt: &mergedAt, want: StatusPending},
		{name: "closed and merged is merged", state: "closed", mergedAt: &mergedAt, want: StatusMerged},
		{name: "closed without merge is rejected", state: "closed", mergedAt: nil, want: StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromPullRequest(tt.state, tt.mergedAt))
		})
	}
}

func TestChangeDescriptor_Helpers(t *testing.T) {
	descriptor := ChangeDescriptor{
		Filename:   "alice/collection.json",
		ItemType:   "item",
		ChangeKind: ChangeAdd,
		User:       "alice",
	}

	t.Run("item id is the bare file name", func(t *testing.T) {
		assert.Equal(t, "collection.json", descriptor.ItemID())
	})

	t.Run("title names the kind and the path", func(t *testing.T) {
		assert.Equal(t, "Add alice/collection.json", descriptor.Title())
	})

	t.Run("labels carry the item type", func(t *testing.T) {
		assert.Equal(t, []string{"item"}, descriptor.Labels())
	})

	t.Run("data owners get an extra label", func(t *testing.T) {
		owner := descriptor
		owner.DataOwner = true
		assert.Equal(t, []string{"item", "data-owner"}, owner.Labels())
	})
}
