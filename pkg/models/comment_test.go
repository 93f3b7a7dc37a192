package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableStringUnmarshal(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		set   bool
		value *string
	}{
		{"field absent", `{"text":"edited"}`, false, nil},
		{"explicit null", `{"text":"edited","media_url":null}`, true, nil},
		{"value present", `{"text":"edited","media_url":"https://cdn.example/panel.png"}`, true, strptr("https://cdn.example/panel.png")},
		{"empty string is a value", `{"media_url":""}`, true, strptr("")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req UpdateCommentRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))

			assert.Equal(t, tc.set, req.MediaURL.Set)
			if tc.value == nil {
				assert.Nil(t, req.MediaURL.Value)
			} else {
				require.NotNil(t, req.MediaURL.Value)
				assert.Equal(t, *tc.value, *req.MediaURL.Value)
			}
		})
	}
}

func TestNullableStringMarshal(t *testing.T) {
	raw, err := json.Marshal(NullableString{Set: true, Value: strptr("x")})
	require.NoError(t, err)
	assert.Equal(t, `"x"`, string(raw))

	raw, err = json.Marshal(NullableString{Set: true})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func strptr(s string) *string { return &s }
