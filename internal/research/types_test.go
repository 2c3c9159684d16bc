package research

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/newscast/internal/apperr"
)

func TestParseSelector(t *testing.T) {
	for in, want := range map[string]Selector{
		"news":   SelectNews,
		"reddit": SelectReddit,
		"both":   SelectBoth,
		" Both ": SelectBoth,
	} {
		got, err := ParseSelector(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseSelector("twitter")
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestSelectorIncludes(t *testing.T) {
	assert.True(t, SelectNews.News())
	assert.False(t, SelectNews.Reddit())
	assert.False(t, SelectReddit.News())
	assert.True(t, SelectReddit.Reddit())
	assert.True(t, SelectBoth.News())
	assert.True(t, SelectBoth.Reddit())
}

func TestOutcomeText(t *testing.T) {
	assert.Equal(t, "fine", Outcome{Topic: "a", Summary: "fine"}.Text())
	assert.Equal(t, "Error: boom", Outcome{Topic: "a", Err: errors.New("boom")}.Text())
}

func TestPipelineResultDuplicates(t *testing.T) {
	res := PipelineResult{Key: newsKey, Outcomes: []Outcome{
		{Topic: "a", Summary: "first"},
		{Topic: "b", Summary: "other"},
		{Topic: "a", Summary: "second"},
	}}
	assert.Equal(t, map[string]string{"a": "second", "b": "other"}, res.Analysis())

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"news_analysis":{"a":"second","b":"other"}}`, string(data))
}

func TestPipelineResultFill(t *testing.T) {
	res := PipelineResult{Key: redditKey, Outcomes: []Outcome{{Topic: "a", Summary: "done"}}}
	res.fill([]string{"a", "b"}, errors.New("session lost"))

	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, "Error: session lost", res.Outcomes[1].Text())

	full := PipelineResult{Outcomes: []Outcome{{Topic: "a"}}}
	full.fill([]string{"a"}, errors.New("x"))
	assert.Len(t, full.Outcomes, 1)
}
