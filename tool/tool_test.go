package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchDescriptor() Descriptor {
	return Descriptor{
		Name:        "web_search",
		Description: "Search the web",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":       map[string]any{"type": "string"},
				"max_results": map[string]any{"type": "integer"},
			},
			"required": []string{"query"},
		},
	}
}

func TestRegistry_ReplaceAndDescribe(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	r.Replace([]Descriptor{searchDescriptor(), {Name: "generate_image"}})

	d, ok := r.Describe("web_search")
	require.True(t, ok)
	assert.Equal(t, "Search the web", d.Description)

	_, ok = r.Describe("missing")
	assert.False(t, ok)
}

func TestRegistry_SnapshotPreservesDiscoveryOrder(t *testing.T) {
	r := NewRegistry()
	r.Replace([]Descriptor{{Name: "b"}, {Name: "a"}, {Name: "c"}})

	names := make([]string, 0, 3)
	for _, d := range r.Snapshot() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestRegistry_ReplaceDropsStaleTools(t *testing.T) {
	r := NewRegistry()
	r.Replace([]Descriptor{{Name: "old"}})
	r.Replace([]Descriptor{{Name: "new"}})

	_, ok := r.Describe("old")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestValidateArguments(t *testing.T) {
	desc := searchDescriptor()

	assert.Nil(t, ValidateArguments(desc, `{"query": "weather in Tokyo"}`))
	assert.Nil(t, ValidateArguments(desc, `{"query": "tokyo", "max_results": 3}`))

	failure := ValidateArguments(desc, `{}`)
	require.NotNil(t, failure)
	assert.Equal(t, FailureInvalidArguments, failure.Kind)

	failure = ValidateArguments(desc, `{"query": 42}`)
	require.NotNil(t, failure)
	assert.Equal(t, FailureInvalidArguments, failure.Kind)

	failure = ValidateArguments(desc, `not json`)
	require.NotNil(t, failure)
	assert.Equal(t, FailureInvalidArguments, failure.Kind)
}

func TestValidateArguments_NoSchemaSkips(t *testing.T) {
	assert.Nil(t, ValidateArguments(Descriptor{Name: "free"}, `{"anything": true}`))
}

func TestValidateArguments_EmptyArgsAgainstRequired(t *testing.T) {
	failure := ValidateArguments(searchDescriptor(), "")
	require.NotNil(t, failure)
	assert.Equal(t, FailureInvalidArguments, failure.Kind)
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Tool: "web_search", Kind: FailureTimeout, Message: "call exceeded 5s timeout"}
	assert.Equal(t, "tool web_search failed (timeout): call exceeded 5s timeout", f.Error())
}

func TestFailureKind_String(t *testing.T) {
	assert.Equal(t, "timeout", FailureTimeout.String())
	assert.Equal(t, "invalid_arguments", FailureInvalidArguments.String())
	assert.Equal(t, "remote_error", FailureRemoteError.String())
	assert.Equal(t, "unknown_tool", FailureUnknownTool.String())
}
