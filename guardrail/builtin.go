// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package guardrail

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"

	"github.com/ryichk/agentloop/agenterr"
	"github.com/ryichk/agentloop/interfaces"
	"github.com/ryichk/agentloop/item"
)

// BannedWordsInfo is the OutputInfo of the banned words guardrails.
type BannedWordsInfo struct {
	Words []string `json:"words"`
}

// BannedWords trips when a user message contains any of words. Matching is
// case-insensitive and on whole words.
func BannedWords(words ...string) InputGuardrail {
	banned := wordSet(words)
	return NewTextInputGuardrail("banned_words", "Rejects input containing banned words",
		func(ctx context.Context, text string) (Output, error) {
			return matchWords(text, banned), nil
		})
}

// BannedOutputWords trips when the final output contains any of words.
func BannedOutputWords(words ...string) OutputGuardrail {
	banned := wordSet(words)
	return NewTextOutputGuardrail("banned_output_words", "Rejects output containing banned words",
		func(ctx context.Context, text string) (Output, error) {
			return matchWords(text, banned), nil
		})
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return set
}

func matchWords(text string, banned map[string]bool) Output {
	var found []string
	seen := map[string]bool{}
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for _, tok := range tokens {
		if banned[tok] && !seen[tok] {
			seen[tok] = true
			found = append(found, tok)
		}
	}
	if len(found) == 0 {
		return Output{}
	}
	return Output{OutputInfo: BannedWordsInfo{Words: found}, TripwireTriggered: true}
}

var languages = map[string]whatlanggo.Lang{
	"en": whatlanggo.Eng,
	"es": whatlanggo.Spa,
	"fr": whatlanggo.Fra,
	"de": whatlanggo.Deu,
	"it": whatlanggo.Ita,
	"ja": whatlanggo.Jpn,
}

// LanguageInfo is the OutputInfo of the Language guardrail.
type LanguageInfo struct {
	Detected   string  `json:"detected"`
	Confidence float64 `json:"confidence"`
}

// Language trips when the user input is confidently detected to be in a
// language other than the allowed ones. Codes are ISO 639-1: en, es, fr, de,
// it and ja are recognized.
func Language(allowed ...string) (InputGuardrail, error) {
	accept := make(map[whatlanggo.Lang]bool, len(allowed))
	for _, code := range allowed {
		lang, ok := languages[code]
		if !ok {
			return nil, agenterr.NewUserError("unsupported language code %q", code)
		}
		accept[lang] = true
	}

	return NewTextInputGuardrail("language", "Rejects input written in other languages",
		func(ctx context.Context, text string) (Output, error) {
			if strings.TrimSpace(text) == "" {
				return Output{}, nil
			}
			info := whatlanggo.Detect(text)
			detected := LanguageInfo{Detected: languageCode(info.Lang), Confidence: info.Confidence}
			if info.Confidence > 0.5 && !accept[info.Lang] {
				return Output{OutputInfo: detected, TripwireTriggered: true}, nil
			}
			return Output{OutputInfo: detected}, nil
		}), nil
}

func languageCode(lang whatlanggo.Lang) string {
	for code, l := range languages {
		if l == lang {
			return code
		}
	}
	return "unknown"
}

// AgentVerdict turns the result of a guardrail agent run into a guardrail
// Output.
type AgentVerdict func(result interfaces.RunResult) (Output, error)

// NewAgentInputGuardrail delegates the check to another agent. The guardrail
// agent runs on its own history holding the user text of the input, and
// verdict decides whether its result trips the wire.
func NewAgentInputGuardrail(name string, guard interfaces.Agent, runner interfaces.Runner, verdict AgentVerdict) (InputGuardrail, error) {
	if guard == nil || runner == nil || verdict == nil {
		return nil, agenterr.NewUserError("guardrail %s needs an agent, a runner and a verdict", name)
	}
	return NewInputGuardrail(name, guard.GetDescription(),
		func(ctx context.Context, _ interfaces.Agent, input []item.Item) (Output, error) {
			res, err := runner.Run(ctx, guard, InputText(input))
			if err != nil {
				return Output{}, fmt.Errorf("guardrail agent %s: %w", guard.GetName(), err)
			}
			runResult, ok := res.(interfaces.RunResult)
			if !ok {
				return Output{}, fmt.Errorf("guardrail agent %s returned %T", guard.GetName(), res)
			}
			return verdict(runResult)
		}), nil
}
