package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexExtractorDecorators(t *testing.T) {
	source := `
export class LoginSteps {
  @CSBDDStepDef("I navigate to the login page")
  async navigate() {}

  @Given('I enter {string} into {word} field')
  async enter(value: string, field: string) {}

  @When("I click \"Save\" button")
  async click() {}

  @Then("I should see {int} rows")
  async rows(n: number) {}
}
`
	got := RegexExtractor{}.Extract([]byte(source))
	want := []Declared{
		{Keyword: "Step", Pattern: "I navigate to the login page"},
		{Keyword: "Given", Pattern: "I enter {string} into {word} field"},
		{Keyword: "When", Pattern: `I click "Save" button`},
		{Keyword: "Then", Pattern: "I should see {int} rows"},
	}
	assert.Equal(t, want, got)
}

func TestRegexExtractorMixedShapesInSourceOrder(t *testing.T) {
	source := "defineStep('When', 'I open the menu', async () => {});\n" +
		"@Then(\"the menu is open\")\n" +
		"step(\"Given\", `I am on {string}`, fn);\n" +
		"@Then(\"the menu is open\")\n"
	got := RegexExtractor{}.Extract([]byte(source))
	patterns := make([]string, 0, len(got))
	for _, d := range got {
		patterns = append(patterns, d.Pattern)
	}
	want := []string{"I open the menu", "the menu is open", "I am on {string}", "the menu is open"}
	require.Equal(t, want, patterns)
	assert.Equal(t, "When", got[0].Keyword)
	assert.Equal(t, "Given", got[2].Keyword)
}

func TestRegexExtractorGodogRegistrations(t *testing.T) {
	source := "func InitializeScenario(ctx *godog.ScenarioContext) {\n" +
		"\tctx.Step(`^I have (\\d+) cukes$`, iHaveCukes)\n" +
		"\tctx.Step(\"^I eat \\\"([^\\\"]*)\\\"$\", iEat)\n" +
		"}\n"
	got := RegexExtractor{}.Extract([]byte(source))
	require.Len(t, got, 2)
	assert.Equal(t, `^I have (\d+) cukes$`, got[0].Pattern)
	assert.Equal(t, `^I eat "([^"]*)"$`, got[1].Pattern)
}

func TestRegexExtractorIgnoresPlainCode(t *testing.T) {
	got := RegexExtractor{}.Extract([]byte(`const x = step(1); // @Given without call`))
	assert.Empty(t, got)
}
