package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matches(m *Matcher, raw string) bool {
	return m.Match(Normalize(raw), raw)
}

func TestMatcherMatchesNormalizedSteps(t *testing.T) {
	m := Compile("I enter {string} into {word} field")
	assert.True(t, matches(m, `I enter "admin" into username field`))
	assert.False(t, matches(m, `I enter admin into username field`), "unquoted argument must not match {string}")
	assert.False(t, matches(m, `I enter "admin" into field`), "missing {word} must not match")
}

func TestMatcherLiteralArgumentsMustMatchExactly(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		raw     string
		want    bool
	}{
		{name: "same number", pattern: "I wait 5 seconds", raw: "I wait 5 seconds", want: true},
		{name: "other number", pattern: "I wait 5 seconds", raw: "I wait 12 seconds", want: false},
		{name: "same quoted value", pattern: `I click "Save" button`, raw: `I click "Save" button`, want: true},
		{name: "other quoted value", pattern: `I click "Save" button`, raw: `I click "Cancel" button`, want: false},
		{name: "placeholder", pattern: "I wait {int} seconds", raw: "I wait 12 seconds", want: true},
		{name: "decimal literal", pattern: "the ratio is 0.5", raw: "the ratio is 0.75", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matches(Compile(tt.pattern), tt.raw))
		})
	}
}

func TestMatcherFloatAcceptsInts(t *testing.T) {
	m := Compile("the price is {float}")
	for _, raw := range []string{"the price is 3.5", "the price is 3"} {
		assert.True(t, matches(m, raw), raw)
	}
}

func TestMatcherRegexPatternUsesRawText(t *testing.T) {
	m := Compile(`^I have (\d+) cukes$`)
	assert.True(t, matches(m, "I have 7 cukes"))
	assert.False(t, matches(m, "I have many cukes"))
	require.NotNil(t, m.Regexp())
}

func TestMatcherFallsBackToContainment(t *testing.T) {
	m := Compile(`^I have (\d+ cukes$`)
	require.Error(t, m.Err())
	assert.True(t, m.Match("", `Given I HAVE (\d+ cukes in my belly`))
	assert.False(t, m.Match("", "I have 3 cukes"))
}

func TestMatcherMatchText(t *testing.T) {
	m := Compile("I see {int} rows")
	assert.True(t, m.MatchText("  I see 4 rows "))
	assert.False(t, m.MatchText("I see four rows"))
}
