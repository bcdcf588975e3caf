// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package handoff

// RecommendedPromptPrefix explains handoffs to the model. Put it in front of
// the instructions of agents that use handoffs.
const RecommendedPromptPrefix = "# System context\n" +
	"You are part of a multi-agent system designed to make agent coordination and execution easy. " +
	"It uses two primary abstractions: **Agents** and **Handoffs**. " +
	"An agent encompasses instructions and tools and can hand off a conversation to another agent when appropriate. " +
	"Handoffs are achieved by calling a handoff function, generally named `transfer_to_<agent_name>`. " +
	"Transfers between agents are handled seamlessly in the background; " +
	"do not mention or draw attention to these transfers in your conversation with the user.\n"

// PromptWithHandoffInstructions prefixes prompt with RecommendedPromptPrefix.
func PromptWithHandoffInstructions(prompt string) string {
	return RecommendedPromptPrefix + "\n\n" + prompt
}
