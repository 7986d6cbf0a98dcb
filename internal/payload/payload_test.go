package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pairSchema = `{
	"type": "object",
	"required": ["pair"],
	"properties": {"pair": {"type": "array", "minItems": 2}}
}`

func newPairDecoder(t *testing.T) *Decoder[[]any] {
	t.Helper()
	d, err := NewDecoder("pair", pairSchema, func(doc any) []any {
		return doc.(map[string]any)["pair"].([]any)
	})
	require.NoError(t, err)
	return d
}

func TestDecodeStatuses(t *testing.T) {
	d := newPairDecoder(t)

	res := d.Decode([]byte(`{"pair":[1,"b",3]}`))
	require.Equal(t, Decoded, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, []any{1.0, "b", 3.0}, res.Value)

	res = d.Decode([]byte(`{"pair":[1]}`))
	assert.Equal(t, Rejected, res.Status)
	assert.ErrorIs(t, res.Err, ErrRejected)
	assert.Nil(t, res.Value)

	res = d.Decode([]byte(`{not json`))
	assert.Equal(t, Malformed, res.Status)
	assert.ErrorIs(t, res.Err, ErrMalformed)

	res = d.Decode(nil)
	assert.Equal(t, Malformed, res.Status)

	res = d.Decode([]byte(`null`))
	assert.Equal(t, Rejected, res.Status)
}

func TestNewDecoderBadSchema(t *testing.T) {
	_, err := NewDecoder("bad", `{"type": 12}`, func(any) int { return 0 })
	assert.Error(t, err)
}

func TestField(t *testing.T) {
	doc := map[string]any{"a": 1.5, "b": nil, "c": "x"}
	v, ok := Field(doc, "a")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	_, ok = Field(doc, "b")
	assert.False(t, ok)
	v, ok = Field(doc, "c")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	_, ok = Field(doc, "missing")
	assert.False(t, ok)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "decoded", Decoded.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "malformed", Malformed.String())
}
