package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		`  I enter   "admin"  into username field `: `I enter "{string}" into username field`,
		`I wait 5 seconds`:                        `I wait {int} seconds`,
		`the total is -3.75`:                      `the total is {float}`,
		`I open step-2 on page h1`:                `I open step-{int} on page h1`,
		`I select "" from "Country"`:              `I select "{string}" from "{string}"`,
	}
	for input, want := range cases {
		assert.Equal(t, want, Normalize(input), input)
	}
}

func TestNormalizeCollapsesArgumentValues(t *testing.T) {
	assert.Equal(t,
		Normalize(`I click "Save" and wait 3 seconds`),
		Normalize(`I click "Cancel" and wait 10 seconds`))
}

func TestNormalizePattern(t *testing.T) {
	cases := map[string]string{
		`I click "Save" button`:        `I click {string} button`,
		`I enter {string} into {word}`: `I enter {string} into {word}`,
		`I wait 5 seconds`:             `I wait {int} seconds`,
		`^I have (\d+) cukes$`:         `^I have (\d+) cukes$`,
		`  spaced   {int}  out `:       `spaced {int} out`,
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizePattern(input), input)
	}
}
