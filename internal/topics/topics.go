// Package topics generates candidate run topics and prompts the user
// to pick one.
package topics

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"futurecast/internal/llm"
	"futurecast/internal/logging"
	"futurecast/internal/scenario"

	"github.com/charmbracelet/lipgloss"
)

// DefaultCount is the number of candidate topics generated when the
// user does not supply one.
const DefaultCount = 10

func topicsPrompt(count int) string {
	return fmt.Sprintf("Generate %d diverse and interesting future scenario topics. Each topic should be a brief phrase or sentence.", count)
}

type topicListEnvelope struct {
	Topics []string `json:"topics"`
}

// Generate asks the model for count candidate topics.
func Generate(ctx context.Context, client llm.Client, count int) ([]string, error) {
	if count < 1 {
		count = DefaultCount
	}

	format := llm.SchemaFormat("topic_list", scenario.TopicListSchema())
	raw, err := client.Generate(ctx, topicsPrompt(count), format)
	if err != nil {
		return nil, llm.Generation("topic_list", err)
	}

	var env topicListEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, llm.Generation("topic_list", fmt.Errorf("failed to decode topic list: %w", err))
	}
	if len(env.Topics) == 0 {
		return nil, llm.Generation("topic_list", fmt.Errorf("model returned zero topics"))
	}

	logging.Topics("generated %d candidate topics", len(env.Topics))
	return env.Topics, nil
}

var (
	indexStyle = lipgloss.NewStyle().Bold(true)
	topicStyle = lipgloss.NewStyle().Faint(false)
)

// Selector prompts the user to choose a topic from a numbered list.
type Selector struct {
	Reader *bufio.Reader
	Writer io.Writer
}

// DefaultSelector reads from stdin and writes to stdout.
func DefaultSelector() Selector {
	return Selector{
		Reader: bufio.NewReader(os.Stdin),
		Writer: os.Stdout,
	}
}

// Select displays the topics and reads a selection index. An
// out-of-range or non-numeric selection falls back to the first topic
// without failing.
func (s Selector) Select(topics []string) (string, error) {
	if len(topics) == 0 {
		return "", fmt.Errorf("no topics to select from")
	}

	fmt.Fprintf(s.Writer, "Select a topic by entering its number (0-%d):\n", len(topics)-1)
	for i, topic := range topics {
		fmt.Fprintf(s.Writer, "%s %s\n", indexStyle.Render(fmt.Sprintf("%d:", i)), topicStyle.Render(topic))
	}
	fmt.Fprint(s.Writer, "Your selection: ")

	input, err := s.Reader.ReadString('\n')
	if err != nil && input == "" {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}

	idx := ParseSelection(input, len(topics))
	if idx == 0 && strings.TrimSpace(input) != "0" {
		fmt.Fprintln(s.Writer, "Invalid selection. Using the first topic.")
	}
	logging.Topics("selected topic %d: %s", idx, topics[idx])
	return topics[idx], nil
}

// ParseSelection parses a selection index for a list of n topics.
// Anything out of range or non-numeric maps to 0.
func ParseSelection(input string, n int) int {
	idx, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || idx < 0 || idx >= n {
		return 0
	}
	return idx
}
