package cucumber

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredStepsDeduplicatesArgumentValues(t *testing.T) {
	path := writeFeature(t, t.TempDir(), "login.feature", loginFeature)
	feature, err := ParseFeatureFile(path)
	require.NoError(t, err)

	set := RequiredSteps([]Feature{feature}, TagFilter{})
	assert.Equal(t, []string{
		`I click "{string}" button`,
		`I enter "{string}" into username field`,
		`I navigate to the login page`,
		`I should see the error "{string}"`,
		`I should see {int} widgets`,
	}, set.Keys())
}

func TestRequiredStepsKeepsEveryRawVariant(t *testing.T) {
	path := writeFeature(t, t.TempDir(), "login.feature", loginFeature)
	feature, err := ParseFeatureFile(path)
	require.NoError(t, err)

	set := RequiredSteps([]Feature{feature}, TagFilter{})
	assert.Equal(t, []string{
		`I enter "admin" into username field`,
		`I enter "bob" into username field`,
		`I enter "alice" into username field`,
	}, set.Variants(`I enter "{string}" into username field`))
	assert.Equal(t, []string{"I navigate to the login page"}, set.Variants("I navigate to the login page"))
	assert.Empty(t, set.Variants("I am not a step"))
}

func TestRequiredStepSetIgnoresDuplicateText(t *testing.T) {
	set := NewRequiredStepSet()
	set.Add("I wait 5 seconds")
	set.Add("  I wait 5 seconds ")
	set.Add("I wait 10 seconds")
	set.Add("   ")

	assert.Equal(t, 1, set.Len())
	assert.Equal(t, []string{"I wait 5 seconds", "I wait 10 seconds"}, set.Variants("I wait {int} seconds"))

	var empty *RequiredStepSet
	assert.Zero(t, empty.Len())
	assert.Nil(t, empty.Variants("I wait {int} seconds"))
}

func TestRequiredStepsHonoursTags(t *testing.T) {
	path := writeFeature(t, t.TempDir(), "login.feature", loginFeature)
	feature, err := ParseFeatureFile(path)
	require.NoError(t, err)

	smoke := RequiredSteps([]Feature{feature}, ParseTagFilter([]string{"smoke"}))
	assert.Equal(t, 4, smoke.Len(), "smoke steps: %v", smoke.Keys())
	notWip := RequiredSteps([]Feature{feature}, ParseTagFilter([]string{"~@wip"}))
	assert.Equal(t, smoke.Keys(), notWip.Keys())
}

func TestParseTagFilter(t *testing.T) {
	filter := ParseTagFilter([]string{" smoke", "@Login", "~wip", ""})
	assert.True(t, filter.Matches([]string{"@smoke", "@login"}))
	assert.False(t, filter.Matches([]string{"@smoke", "@login", "@WIP"}), "@wip is excluded")
	assert.False(t, filter.Matches([]string{"@smoke"}), "@login is required")
	assert.True(t, TagFilter{}.Empty())
}

func TestParseFeatureFilesCollectsFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFeature(t, dir, "good.feature", loginFeature)
	bad := filepath.Join(dir, "missing.feature")

	features, failures := ParseFeatureFiles([]string{good, bad})
	assert.Len(t, features, 1)
	require.Len(t, failures, 1)
	assert.Contains(t, failures, bad)
}
