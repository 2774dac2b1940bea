package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayStringPrimitives(t *testing.T) {
	assert.Equal(t, "hello", DisplayString("hello"))
	assert.Equal(t, "42", DisplayString(float64(42)))
	assert.Equal(t, "2.5", DisplayString(2.5))
	assert.Equal(t, "true", DisplayString(true))
	assert.Equal(t, "", DisplayString(nil))
}

func TestDisplayStringArrayJoins(t *testing.T) {
	got := DisplayString([]interface{}{"a", float64(1), "b"})
	assert.Equal(t, "a 1 b", got)
}

func TestDisplayStringObjectCompactJSON(t *testing.T) {
	got := DisplayString(map[string]interface{}{"k": "v"})
	assert.JSONEq(t, `{"k":"v"}`, got)
}

func TestDisplayJSONMalformedYieldsPlaceholder(t *testing.T) {
	assert.Equal(t, Placeholder, DisplayJSON(json.RawMessage(`{"unterminated`)))
	assert.Equal(t, "", DisplayJSON(nil))
}

func TestDepthLimitTruncates(t *testing.T) {
	deep := json.RawMessage(`{"a":{"b":{"c":{"d":{"e":{"f":"too deep"}}}}}}`)
	got := DisplayJSON(deep)
	assert.Contains(t, got, truncated)
	assert.NotContains(t, got, "too deep")
}

func TestWithinDepthLimitPreserved(t *testing.T) {
	ok := json.RawMessage(`{"a":{"b":{"c":"fine"}}}`)
	got := DisplayJSON(ok)
	assert.Contains(t, got, "fine")
	assert.NotContains(t, got, truncated)
}
