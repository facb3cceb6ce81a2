package types

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeID_StringRoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	id := NodeIDFromPublicKey(pub)
	require.False(t, id.IsEmpty())

	parsed, err := ParseNodeID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.Len(t, id.ShortString(), 8)
}

func TestParseNodeID_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"空字符串", ""},
		{"非 Base58 字符", "0OIl"},
		{"长度不足", "3mJr7AoUXx2Wqd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNodeID(tt.input)
			assert.ErrorIs(t, err, ErrInvalidNodeID)
		})
	}
}

func TestNodeID_JSON(t *testing.T) {
	var id NodeID
	id[0] = 7
	id[31] = 9

	data, err := json.Marshal(PeerRecord{PeerID: id, AddressHint: RelayAddressHint})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"peer_id":"`+id.String()+`"`)

	var rec PeerRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, id, rec.PeerID)
	assert.False(t, rec.HasDirectAddress())
}

func TestValidateHostPort(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"127.0.0.1:4001", true},
		{"[::1]:4001", true},
		{"example.org:443", true},
		{"127.0.0.1", false},
		{":4001", false},
		{"127.0.0.1:0", false},
		{"127.0.0.1:70000", false},
		{"127.0.0.1:abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateHostPort(tt.addr)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidAddress)
			}
		})
	}
}

func TestEvent_Kinds(t *testing.T) {
	events := []Event{
		ConnectionEvent{Status: StatusConnected},
		MessageEvent{Mode: DeliveryDatagram},
		ErrorEvent{Description: "boom"},
	}
	kinds := []EventKind{EventKindConnection, EventKindMessage, EventKindError}

	for i, ev := range events {
		assert.Equal(t, kinds[i], ev.Kind())
	}
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "bi", DeliveryBi.String())
}
