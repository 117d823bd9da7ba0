package jsonrepair

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect any
	}{
		{
			name:   "plain object",
			input:  `{"score": 80}`,
			expect: map[string]any{"score": 80.0},
		},
		{
			name:   "json fence with prose",
			input:  "Here is the result:\n```json\n{\"score\": 71, \"reasoning\": \"ok\"}\n```\nHope it helps",
			expect: map[string]any{"score": 71.0, "reasoning": "ok"},
		},
		{
			name:   "json fence wins over plain fence",
			input:  "```\nnot this\n```\n```json\n{\"a\": 1}\n```",
			expect: map[string]any{"a": 1.0},
		},
		{
			name:   "untagged fence",
			input:  "```\n{\"a\": [1, 2]}\n```",
			expect: map[string]any{"a": []any{1.0, 2.0}},
		},
		{
			name:   "leading and trailing prose",
			input:  `Sure! {"adjustment": -4} Let me know.`,
			expect: map[string]any{"adjustment": -4.0},
		},
		{
			name:   "truncated response",
			input:  `{"score": 60, "strengths": ["Go", "SQL"`,
			expect: map[string]any{"score": 60.0, "strengths": []any{"Go", "SQL"}},
		},
		{
			name:   "array",
			input:  `["a", "b"]`,
			expect: []any{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Extract(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestExtractMalformed(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"I cannot help with that.", "", "{not json}", "```json\n```"} {
		_, err := Extract(input)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, ErrMalformedOutput), input)

		var malformedErr *MalformedOutputError
		require.True(t, errors.As(err, &malformedErr))
		assert.Equal(t, input, malformedErr.Snippet)
	}
}

func TestExtractSnippetIsBounded(t *testing.T) {
	t.Parallel()

	raw := strings.Repeat("ы", 800)
	_, err := Extract(raw)

	var malformedErr *MalformedOutputError
	require.True(t, errors.As(err, &malformedErr))
	assert.Equal(t, 500, len([]rune(malformedErr.Snippet)))
}

func TestExtractIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"score": 55.5, "reasoning": "fine", "category_scores": {"x": 1}}`,
		"```json\n{\"score\": 10, \"strengths\": [\"a\"], \"nested\": {\"b\": null}}\n```",
		"The answer is {\"ok\": true} as requested.",
	}

	for _, input := range inputs {
		first, err := Extract(input)
		require.NoError(t, err)

		reserialized, err := json.Marshal(first)
		require.NoError(t, err)

		second, err := Extract(string(reserialized))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	type payload struct {
		Skills []string `json:"required_skills"`
		Years  float64  `json:"min_experience_years"`
		Level  string   `json:"role_level"`
	}

	var out payload
	err := Decode("```json\n{\"required_skills\": [\"Go\"], \"min_experience_years\": \"3\", \"role_level\": \"senior\"}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, payload{Skills: []string{"Go"}, Years: 3, Level: "senior"}, out)

	err = Decode("no json here", &out)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestCoercion(t *testing.T) {
	t.Parallel()

	f, ok := Float("+7")
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	f, ok = Float("85%")
	assert.True(t, ok)
	assert.Equal(t, 85.0, f)

	_, ok = Float("seven")
	assert.False(t, ok)

	_, ok = Float(nil)
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, Strings([]any{"a", " ", nil, "b"}))
	assert.Equal(t, []string{"solo"}, Strings("solo"))
	assert.Empty(t, Strings(42.0))

	assert.Equal(t, map[string]float64{"x": 1, "y": 2}, Floats(map[string]any{"x": 1.0, "y": "2", "z": "n/a"}))
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "3", String(3.0))
}
