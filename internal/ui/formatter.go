package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"itd/internal/config"
	"itd/internal/domain"
	"itd/internal/parser"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to stdout
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{config: cfg, out: color.Output}
}

// NewFormatterTo creates a new Formatter writing to w
func NewFormatterTo(cfg *config.Config, w io.Writer) *Formatter {
	return &Formatter{config: cfg, out: w}
}

// classGroup is one class and its listed tests, in listing order
type classGroup struct {
	name  string
	tests []domain.ListedTest
}

func groupByClass(tests []domain.ListedTest) []classGroup {
	var groups []classGroup
	byName := make(map[string]int)
	for _, test := range tests {
		class, _ := parser.SplitKey(test.Key)
		i, ok := byName[class]
		if !ok {
			i = len(groups)
			byName[class] = i
			groups = append(groups, classGroup{name: class})
		}
		groups[i].tests = append(groups[i].tests, test)
	}
	return groups
}

// PrintTestList prints the listed tests as a tree grouped by class, with the
// dispatch index in front of every method. failedKeys is optional; if set,
// tests in this set are marked with [F] in red (from last run).
func (f *Formatter) PrintTestList(tests []domain.ListedTest, showDescriptions bool, failedKeys map[string]struct{}) error {
	groups := groupByClass(tests)
	fmt.Fprintln(f.out, color.GreenString("Found %d test(s) in %d class(es):\n", len(tests), len(groups)))

	for i, group := range groups {
		isLastClass := i == len(groups)-1
		if isLastClass {
			fmt.Fprintln(f.out, color.CyanString("└── %s", group.name))
		} else {
			fmt.Fprintln(f.out, color.CyanString("├── %s", group.name))
		}

		for j, test := range group.tests {
			isLastCase := j == len(group.tests)-1

			var prefix string
			if isLastClass {
				if isLastCase {
					prefix = "    └── "
				} else {
					prefix = "    ├── "
				}
			} else {
				if isLastCase {
					prefix = "│   └── "
				} else {
					prefix = "│   ├── "
				}
			}

			_, method := parser.SplitKey(test.Key)
			line := fmt.Sprintf("%s%s %s", prefix, color.WhiteString("[%d]", test.Index), color.YellowString(method))
			if showDescriptions && test.Description != "" {
				line += " " + color.HiBlackString("(%s)", test.Description)
			}
			if _, ok := failedKeys[test.Key]; ok {
				line += " " + color.RedString("[F]")
			}
			fmt.Fprintln(f.out, line)
		}
	}

	return nil
}

// PrintMetaStats displays meta statistics of a run
func (f *Formatter) PrintMetaStats(output *domain.TestResultsOutput) error {
	if output == nil {
		return fmt.Errorf("no results to display")
	}
	meta := output.Meta

	// Print header
	fmt.Fprint(f.out, "\n")
	fmt.Fprintln(f.out, color.CyanString("╔═══════════════════════════════════════════════════════════════╗"))
	fmt.Fprintln(f.out, color.CyanString("║                    Test Dispatch Statistics                   ║"))
	fmt.Fprintln(f.out, color.CyanString("╚═══════════════════════════════════════════════════════════════╝\n"))

	rows := []struct {
		label string
		value string
		paint func(format string, a ...interface{}) string
	}{
		{"Total Tests", fmt.Sprint(meta.TotalTests), color.WhiteString},
		{"Passed Tests", fmt.Sprint(meta.PassedTests), color.GreenString},
		{"Failed Tests", fmt.Sprint(meta.FailedTests), color.RedString},
		{"Timed Out", fmt.Sprint(meta.TimedOutTests), color.RedString},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), color.WhiteString},
		{"Workers", fmt.Sprint(meta.Workers), color.WhiteString},
		{"Run ID", meta.RunID, color.WhiteString},
		{"Timestamp", meta.Timestamp, color.WhiteString},
	}

	fmt.Fprintln(f.out, "┌─────────────────────────────────┬──────────────────────────────────────┐")
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-31s │ %s │\n", row.label, row.paint("%-36s", row.value))
		if i < len(rows)-1 {
			fmt.Fprintln(f.out, "├─────────────────────────────────┼──────────────────────────────────────┤")
		}
	}
	fmt.Fprintln(f.out, "└─────────────────────────────────┴──────────────────────────────────────┘")

	// Print summary line
	fmt.Fprintln(f.out)
	if meta.FailedTests == 0 {
		fmt.Fprintln(f.out, color.GreenString("✓ All tests passed!"))
		return nil
	}

	fmt.Fprintln(f.out, color.RedString("✗ %d test(s) failed", meta.FailedTests))
	fmt.Fprintln(f.out)
	f.printFailedTests(output.Details)
	return nil
}

// printFailedTests prints failed tests grouped by class
func (f *Formatter) printFailedTests(failures []domain.TestFailure) {
	byClass := make(map[string][]domain.TestFailure)
	for _, failure := range failures {
		class, _ := parser.SplitKey(failure.Key)
		byClass[class] = append(byClass[class], failure)
	}

	classes := make([]string, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		fmt.Fprintln(f.out, color.YellowString(class))
		for _, failure := range byClass[class] {
			_, method := parser.SplitKey(failure.Key)
			fmt.Fprintln(f.out, color.RedString("  |_ [%d] %s", failure.Index, method))
			for _, msg := range failure.Messages {
				fmt.Fprintf(f.out, "       %s\n", strings.TrimSpace(msg))
			}
		}
	}
}

// Warn prints a warning line on stderr
func Warn(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString(format, args...))
}
