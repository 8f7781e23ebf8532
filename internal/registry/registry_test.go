package registry

import (
	"errors"
	"io"
	"reflect"
	"regexp"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingContext struct {
	exprs    []string
	handlers []interface{}
}

func (r *recordingContext) Step(expr, stepFunc interface{}) {
	r.exprs = append(r.exprs, expr.(*regexp.Regexp).String())
	r.handlers = append(r.handlers, stepFunc)
}

func TestRegisterAndStats(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("/steps/a.ts", []Declaration{
		{Keyword: "Given", Pattern: "I open the app"},
		{Keyword: "When", Pattern: "I click {string}"},
	}))
	require.NoError(t, reg.Register("/steps/b.ts", []Declaration{
		{Keyword: "When", Pattern: "I click {string}", Handler: func(string) error { return nil }},
	}))
	reg.MarkFileLoaded("/steps/a.ts")
	reg.MarkFileLoaded("/steps/b.ts")
	reg.MarkFileLoaded("/steps/../steps/b.ts")

	stats := reg.Stats()
	assert.Equal(t, Stats{TotalSteps: 3, Patterns: 2, LoadedFiles: 2}, stats)
	assert.Equal(t, []string{"/steps/a.ts", "/steps/b.ts"}, reg.LoadedFiles())
	assert.Equal(t, "/steps/a.ts", reg.Declarations()[0].File)

	reg.Reset()
	assert.Equal(t, Stats{}, reg.Stats())
}

func TestRegisterRejectsInvalidDeclarations(t *testing.T) {
	reg := New()
	err := reg.Register("/a.ts", []Declaration{{Pattern: "ok"}, {Pattern: ""}})
	require.Error(t, err)
	err = reg.Register("/a.ts", []Declaration{{Pattern: "x", Handler: "not a func"}})
	require.Error(t, err)
	assert.Equal(t, 0, reg.Stats().TotalSteps)
}

func TestBindDeduplicatesAndBuildsPendingHandlers(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("/a.ts", []Declaration{
		{Pattern: "I enter {string} into {word} field"},
		{Pattern: "I enter {string} into {word} field"},
		{Pattern: `^broken (regex$`},
	}))

	sc := &recordingContext{}
	err := reg.Bind(sc)
	require.Error(t, err)
	require.Len(t, sc.exprs, 1)
	assert.Equal(t, `(?i)^I enter "([^"]*)" into (\S+) field$`, sc.exprs[0])

	fn := reflect.ValueOf(sc.handlers[0])
	require.Equal(t, 2, fn.Type().NumIn())
	out := fn.Call([]reflect.Value{reflect.ValueOf("admin"), reflect.ValueOf("username")})
	assert.True(t, errors.Is(out[0].Interface().(error), godog.ErrPending))
}

func TestBindRunsGodogScenarios(t *testing.T) {
	var entered, field string
	clicks := 0
	reg := New()
	require.NoError(t, reg.Register("/steps/login.go", []Declaration{
		{Keyword: "When", Pattern: "I enter {string} into {word} field", Handler: func(value, name string) error {
			entered, field = value, name
			return nil
		}},
		{Keyword: "Then", Pattern: "I click {int} times", Handler: func(n int) error {
			clicks = n
			return nil
		}},
	}))

	suite := godog.TestSuite{
		Name: "registry-bind",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			assert.NoError(t, reg.Bind(sc), "bind")
		},
		Options: &godog.Options{
			Format: "progress",
			Output: io.Discard,
			Strict: true,
			FeatureContents: []godog.Feature{{
				Name: "login.feature",
				Contents: []byte(`Feature: Login
  Scenario: Enter credentials
    When I enter "admin" into username field
    Then I click 3 times
`),
			}},
		},
	}
	require.Equal(t, 0, suite.Run())
	assert.Equal(t, "admin", entered)
	assert.Equal(t, "username", field)
	assert.Equal(t, 3, clicks)
}

func TestBindPendingStepsFailStrictRuns(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("/steps/scan.ts", []Declaration{{Pattern: "I open the {word} page"}}))

	suite := godog.TestSuite{
		Name: "registry-pending",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			_ = reg.Bind(sc)
		},
		Options: &godog.Options{
			Format: "progress",
			Output: io.Discard,
			Strict: true,
			FeatureContents: []godog.Feature{{
				Name:     "pending.feature",
				Contents: []byte("Feature: Pending\n  Scenario: Open\n    Given I open the admin page\n"),
			}},
		},
	}
	assert.NotEqual(t, 0, suite.Run())
}
