package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"eduroom/internal/model"
)

const (
	discoverSystemPrompt = "You label educational material. Given a document, " +
		"reply with a JSON array of 3 to 8 short topic names (1-3 words each) " +
		"covering the document's main themes. Reply with the JSON array only."

	classifySystemPrompt = "You route student questions to topics. Given a " +
		"question and a list of known topics, reply with exactly one topic " +
		"name from the list that best matches the question. Reply with the " +
		"topic name only, no punctuation."
)

// TopicClassifier derives a topic list from a document at ingestion time and
// maps incoming questions to one of those topics at query time. Both entry
// points share one chat model.
type TopicClassifier struct {
	client    *ChatClient
	cfg       ChatConfig
	maxTopics int
}

func NewTopicClassifier(client *ChatClient, cfg ChatConfig, maxTopics int) *TopicClassifier {
	if maxTopics <= 0 {
		maxTopics = 8
	}
	return &TopicClassifier{client: client, cfg: cfg, maxTopics: maxTopics}
}

// DiscoverTopics returns an ordered set of distinct, sanitized topic names
// for the document text.
func (t *TopicClassifier) DiscoverTopics(ctx context.Context, text string) ([]string, error) {
	messages := []ChatMessage{
		{Role: "system", Content: discoverSystemPrompt},
		{Role: "user", Content: text},
	}
	reply, err := t.client.Complete(ctx, t.cfg, messages)
	if err != nil {
		return nil, fmt.Errorf("discover topics: %w", err)
	}

	names, err := parseTopicList(reply)
	if err != nil {
		return nil, fmt.Errorf("discover topics: %w", err)
	}

	seen := make(map[string]bool, len(names))
	topics := make([]string, 0, len(names))
	for _, name := range names {
		key := model.SanitizeTopic(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		topics = append(topics, key)
		if len(topics) == t.maxTopics {
			break
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("discover topics: model returned no usable names in %q", reply)
	}
	return topics, nil
}

// ClassifyQuery returns the single sanitized topic the query belongs to. The
// result is usually drawn from topics, but a well-formed label outside the
// list is passed through: the counter map is append-friendly.
func (t *TopicClassifier) ClassifyQuery(ctx context.Context, query string, topics []string) (string, error) {
	prompt := fmt.Sprintf("Known topics: %s\n\nQuestion: %s", strings.Join(topics, ", "), query)
	messages := []ChatMessage{
		{Role: "system", Content: classifySystemPrompt},
		{Role: "user", Content: prompt},
	}
	reply, err := t.client.Complete(ctx, t.cfg, messages)
	if err != nil {
		return "", fmt.Errorf("classify query: %w", err)
	}

	topic := model.SanitizeTopic(strings.Trim(reply, "\"'` \n"))
	if topic == "" {
		return "", fmt.Errorf("classify query: model returned no usable topic in %q", reply)
	}
	return topic, nil
}

// parseTopicList pulls a JSON string array out of a chat reply, tolerating
// code fences and surrounding prose.
func parseTopicList(reply string) ([]string, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in reply %q", reply)
	}

	var names []string
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &names); err != nil {
		return nil, fmt.Errorf("parse topic array failed: %w", err)
	}
	return names, nil
}
