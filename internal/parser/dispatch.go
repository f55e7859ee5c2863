package parser

import (
	"fmt"
	"strings"
	"time"

	"itd/internal/domain"
)

// descriptionSeparator separates an optional description from the key in list output
const descriptionSeparator = " - "

// DispatchParser parses the plain text a dispatcher writes to stdout
type DispatchParser struct{}

var _ Parser = (*DispatchParser)(nil)

// NewDispatchParser creates a new DispatchParser
func NewDispatchParser() *DispatchParser {
	return &DispatchParser{}
}

// ParseListing turns list-mode output into tests, numbered in output order.
// Blank lines are ignored; \r\n and \r line endings are accepted.
func (p *DispatchParser) ParseListing(output string) []domain.ListedTest {
	var tests []domain.ListedTest
	for _, line := range splitLines(output) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		test := domain.ListedTest{Index: len(tests), Key: line}
		// Keys never contain the separator, so the last one ends the description.
		if i := strings.LastIndex(line, descriptionSeparator); i >= 0 {
			test.Description = line[:i]
			test.Key = line[i+len(descriptionSeparator):]
		}
		tests = append(tests, test)
	}
	return tests
}

// CheckCount compares the listing with the list-mode exit status, which only
// carries the count modulo 256.
func (p *DispatchParser) CheckCount(tests []domain.ListedTest, exitCode int) error {
	if len(tests)%256 != exitCode%256 {
		return fmt.Errorf("dispatcher listed %d test(s) but exited with %d", len(tests), exitCode)
	}
	return nil
}

// ParseTestCounts returns (passed, failed) for a single dispatched test
func (p *DispatchParser) ParseTestCounts(result domain.TestResult) (passed, failed int) {
	if result.Success {
		return 1, 0
	}
	return 0, 1
}

// ParseFailure converts a failed run into a stored failure. Run-mode stdout
// holds one failure description per line.
func (p *DispatchParser) ParseFailure(result domain.TestResult) []domain.TestFailure {
	if result.Success {
		return nil
	}

	messages := []string{}
	for _, line := range splitLines(result.Output) {
		if strings.TrimSpace(line) != "" {
			messages = append(messages, line)
		}
	}

	switch {
	case result.TimedOut:
		messages = append(messages, fmt.Sprintf("timed out after %s", result.Duration.Round(time.Millisecond)))
	case result.Error != nil:
		messages = append(messages, result.Error.Error())
	case len(messages) == 0:
		messages = append(messages, fmt.Sprintf("dispatcher exited with status %d", result.ExitCode))
	}

	return []domain.TestFailure{{
		Index:       result.Test.Index,
		Key:         result.Test.Key,
		Description: result.Test.Description,
		Messages:    messages,
		ExitCode:    result.ExitCode,
		TimedOut:    result.TimedOut,
		Stderr:      strings.TrimSpace(result.Stderr),
	}}
}

// SplitKey splits a composite key into class and method. Classes are
// qualified names, so the method starts after the first separator that
// follows the last '.' or '/'.
func SplitKey(key string) (class, method string) {
	start := strings.LastIndexAny(key, "./") + 1
	i := strings.Index(key[start:], domain.KeySeparator)
	if i < 0 {
		return key, ""
	}
	return key[:start+i], key[start+i+len(domain.KeySeparator):]
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
