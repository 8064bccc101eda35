package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAuditLogJSONRoundTrip(t *testing.T) {
	target := "2111345836393762900"
	in := AuditLog{
		ID:         snowflake.ID(2111345836393762817),
		ActorType:  string(ActorTypeAdmin),
		Action:     ActionVersionPublished,
		TargetType: TargetPricingVersion,
		TargetID:   &target,
		Metadata:   datatypes.JSONMap{"version_number": 3},
		CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"2111345836393762817"`)

	var out AuditLog
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Action, out.Action)
	assert.Equal(t, target, *out.TargetID)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
}
