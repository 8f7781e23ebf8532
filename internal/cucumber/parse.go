package cucumber

import (
	"fmt"
	"os"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
)

// Feature is a parsed feature file with outlines expanded into scenarios.
type Feature struct {
	Path      string
	Name      string
	Scenarios []Scenario
}

// Scenario is one executable scenario (an outline contributes one per
// examples row).
type Scenario struct {
	Name  string
	Line  int
	Tags  []string
	Steps []Step
}

// Step is a single step with arguments already substituted.
type Step struct {
	Type string
	Text string
}

// ParseFeatureFile parses a feature file into executable scenarios.
func ParseFeatureFile(path string) (Feature, error) {
	file, err := os.Open(path)
	if err != nil {
		return Feature{}, fmt.Errorf("read feature: %w", err)
	}
	defer file.Close()

	ids := &messages.Incrementing{}
	doc, err := gherkin.ParseGherkinDocument(file, ids.NewId)
	if err != nil {
		return Feature{}, fmt.Errorf("parse feature %s: %w", path, err)
	}
	if doc.Feature == nil {
		return Feature{}, fmt.Errorf("missing feature in %s", path)
	}

	lines := astLines(doc.Feature)
	pickles := gherkin.Pickles(*doc, path, ids.NewId)
	feature := Feature{
		Path:      path,
		Name:      strings.TrimSpace(doc.Feature.Name),
		Scenarios: make([]Scenario, 0, len(pickles)),
	}
	for _, pickle := range pickles {
		if pickle == nil {
			continue
		}
		scenario := Scenario{
			Name:  pickle.Name,
			Line:  pickleLine(pickle, lines),
			Tags:  make([]string, 0, len(pickle.Tags)),
			Steps: make([]Step, 0, len(pickle.Steps)),
		}
		for _, tag := range pickle.Tags {
			if tag == nil {
				continue
			}
			scenario.Tags = append(scenario.Tags, strings.TrimSpace(tag.Name))
		}
		for _, step := range pickle.Steps {
			if step == nil {
				continue
			}
			scenario.Steps = append(scenario.Steps, Step{Type: string(step.Type), Text: step.Text})
		}
		feature.Scenarios = append(feature.Scenarios, scenario)
	}
	return feature, nil
}

// astLines maps scenario and example-row node ids to their line numbers.
func astLines(feature *messages.Feature) map[string]int {
	lines := make(map[string]int)
	for _, scenario := range collectScenarios(feature) {
		lines[scenario.Id] = lineFromLocation(scenario.Location)
		for _, exampleSet := range scenario.Examples {
			if exampleSet == nil {
				continue
			}
			for _, row := range exampleSet.TableBody {
				if row == nil {
					continue
				}
				lines[row.Id] = lineFromLocation(row.Location)
			}
		}
	}
	return lines
}

// pickleLine prefers the examples row line over the scenario line.
func pickleLine(pickle *messages.Pickle, lines map[string]int) int {
	line := 0
	for _, id := range pickle.AstNodeIds {
		if l, ok := lines[id]; ok && l > 0 {
			line = l
		}
	}
	return line
}

// collectScenarios flattens scenarios from a feature and its rules.
func collectScenarios(feature *messages.Feature) []*messages.Scenario {
	if feature == nil {
		return nil
	}
	scenarios := make([]*messages.Scenario, 0)
	for _, child := range feature.Children {
		if child == nil {
			continue
		}
		if child.Scenario != nil {
			scenarios = append(scenarios, child.Scenario)
		}
		if child.Rule != nil {
			for _, ruleChild := range child.Rule.Children {
				if ruleChild == nil {
					continue
				}
				if ruleChild.Scenario != nil {
					scenarios = append(scenarios, ruleChild.Scenario)
				}
			}
		}
	}
	return scenarios
}

// lineFromLocation extracts the line number from a Gherkin location.
func lineFromLocation(location *messages.Location) int {
	if location == nil {
		return 0
	}
	return int(location.Line)
}
