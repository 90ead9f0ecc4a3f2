// Package conversation generates agent dialogue and descriptions
// through a language model, deduplicated by the dialogue cache. Every
// model call goes through the cache first; a hit never touches the
// model.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/generativefiction/fortuna-engine/internal/services"
	"github.com/generativefiction/fortuna-engine/pkg/dialogue"
	"github.com/generativefiction/fortuna-engine/pkg/world"
)

// ErrRetryExhausted is returned when the model keeps producing empty
// completions for a query that requires one.
var ErrRetryExhausted = errors.New("conversation: retries exhausted without usable completion")

const (
	defaultMaxAttempts = 5
	defaultBaseBackoff = 500 * time.Millisecond
)

// Service answers conversational queries against one model and one
// cache backend.
type Service struct {
	llm    services.LLMService
	cache  dialogue.Cache
	logger *slog.Logger

	maxAttempts int
	baseBackoff time.Duration
}

var _ world.Converser = (*Service)(nil)

// NewService wires a conversation service. A nil cache falls back to
// an in-process one.
func NewService(llm services.LLMService, cache dialogue.Cache, logger *slog.Logger) *Service {
	if cache == nil {
		cache = dialogue.NewMemoryCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		llm:         llm,
		cache:       cache,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
	}
}

// Converse answers the player's statement in the agent's voice. The
// priming exchange keeps the model in character; generation retries
// until the completion is non-empty.
func (s *Service) Converse(ctx context.Context, agent *world.Agent, statement string) (string, error) {
	name := agent.Name()
	contextText := s.profileContext(agent) +
		fmt.Sprintf("%s: What is your name?\n", world.PlayerName) +
		fmt.Sprintf("%s: My name is %s.\n", name, name)
	question := fmt.Sprintf("%s: %s\n%s:", world.PlayerName, statement, name)

	record := s.record(&name, contextText+question, question, []string{world.PlayerName + ":", "\n"})
	answer, err := s.ask(ctx, record, acceptNonEmpty)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// CheckIfMoreFriendly probes whether the statement lands well with the
// agent, one sentiment question at a time. The first "yes" wins. Raw
// answers are cached so repeated statements cost no model calls.
func (s *Service) CheckIfMoreFriendly(ctx context.Context, agent *world.Agent, statement string) (bool, error) {
	name := agent.Name()
	contextText := "Answer each question with yes or no.\n" +
		"Question: If someone says \"I brought you chocolate\", would that person be pleased? Answer: yes\n" +
		"Question: If someone says \"I stole your chocolate\", would that person be pleased? Answer: no\n"

	for _, friendQuestion := range agent.Spec.FriendQuestions {
		question := fmt.Sprintf("Question: If someone says \"%s\" to %s, %s Answer:", statement, name, friendQuestion)
		record := s.record(&name, contextText+question, question, []string{"?", "\n\n"})
		answer, err := s.ask(ctx, record, acceptYesNo)
		if err != nil {
			return false, err
		}
		if strings.Contains(strings.ToLower(answer), "yes") {
			return true, nil
		}
	}
	return false, nil
}

// DescribeCharacter produces a player-facing description of an agent
// from the public slice of its profile.
func (s *Service) DescribeCharacter(ctx context.Context, agent *world.Agent) (string, error) {
	name := agent.Name()
	profile := agent.Spec.Profile.PlayerVisible()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Describe the appearance of %s, a", name)
	if profile.Age != nil {
		fmt.Fprintf(&sb, " %d year old", *profile.Age)
	}
	if profile.Gender != nil {
		fmt.Fprintf(&sb, " %s", *profile.Gender)
	}
	fmt.Fprintf(&sb, " %s", profile.Race)
	if len(profile.Appearance) > 0 {
		fmt.Fprintf(&sb, ", known for: %s", strings.Join(profile.Appearance, "; "))
	}
	sb.WriteString(".\n")
	question := sb.String()

	record := s.record(&name, question, question, nil)
	answer, err := s.ask(ctx, record, acceptNonEmpty)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// ImproviseScenery invents a description for an object the content
// never defined, grounded in the room's own text. No character is
// attached and the first completion is accepted as-is, empty included.
func (s *Service) ImproviseScenery(ctx context.Context, objectName, roomTitle, roomText string) (string, error) {
	contextText := fmt.Sprintf("The scene is %s. %s\n", roomTitle, roomText)
	question := fmt.Sprintf("Describe the %s in one or two sentences:", objectName)

	record := s.record(nil, contextText+question, question, []string{"\n\n"})
	answer, err := s.ask(ctx, record, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// profileContext flattens the agent's full profile (private attributes
// included) into the prompt preamble that keeps the model in character.
func (s *Service) profileContext(agent *world.Agent) string {
	p := agent.Spec.Profile
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s is a", p.Name)
	if p.Age != nil {
		fmt.Fprintf(&sb, " %d year old", *p.Age)
	}
	if p.Gender != nil {
		fmt.Fprintf(&sb, " %s", *p.Gender)
	}
	fmt.Fprintf(&sb, " %s", p.Race)
	if p.Occupation != nil {
		fmt.Fprintf(&sb, " working as a %s", *p.Occupation)
	}
	sb.WriteString(".\n")

	writeList := func(label string, items []string) {
		if len(items) > 0 {
			fmt.Fprintf(&sb, "%s: %s.\n", label, strings.Join(items, "; "))
		}
	}
	writeList("Personality", p.Personality)
	writeList("Backstory", p.Backstory)
	writeList("Appearance", p.Appearance)
	writeList("Hobbies", p.Hobbies)
	writeList("Goals", p.Goals)
	writeList("Notes", agent.Spec.Notes)

	return sb.String()
}

// record builds a cache record. The full prompt is the context field
// so the fingerprint covers everything the model sees.
func (s *Service) record(characterName *string, prompt, question string, stops []string) *dialogue.Dialogue {
	return &dialogue.Dialogue{
		CharacterName: characterName,
		ModelVersion:  s.llm.ModelName(),
		Question:      question,
		Context:       prompt,
		StopWords:     dialogue.JoinStops(stops),
	}
}

func acceptNonEmpty(answer string) bool {
	return strings.TrimSpace(answer) != ""
}

// acceptYesNo requires an unambiguous verdict: exactly one of the two
// substrings. "Yes and no" answers are re-polled.
func acceptYesNo(answer string) bool {
	lower := strings.ToLower(answer)
	return strings.Contains(lower, "yes") != strings.Contains(lower, "no")
}

// ask resolves one record: cache lookup, then bounded, backed-off
// generation on a miss. A cache failure on either side aborts the
// command; proceeding without the cache would duplicate model calls or
// lose answers. A nil accept takes the first completion as-is.
func (s *Service) ask(ctx context.Context, record *dialogue.Dialogue, accept func(string) bool) (string, error) {
	answer, ok, err := s.cache.Get(ctx, record)
	if err != nil {
		return "", fmt.Errorf("dialogue cache read failed: %w", err)
	}
	if ok {
		return answer, nil
	}

	answer, err = s.complete(ctx, record, accept)
	if err != nil {
		return "", err
	}

	if err := s.cache.Put(ctx, record.WithAnswer(answer)); err != nil {
		return "", fmt.Errorf("dialogue cache write failed: %w", err)
	}
	return answer, nil
}

func (s *Service) complete(ctx context.Context, record *dialogue.Dialogue, accept func(string) bool) (string, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := s.baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		answer, err := s.llm.Complete(ctx, record.Context, record.StopList())
		if err != nil {
			lastErr = err
			s.logger.Warn("Completion failed", "attempt", attempt+1, "error", err)
			continue
		}
		if accept == nil || accept(answer) {
			return answer, nil
		}
		lastErr = nil
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
	}
	return "", ErrRetryExhausted
}
