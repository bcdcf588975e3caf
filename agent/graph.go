// Copyright (c) 2025 ryichk
// Licensed under the MIT License.
// This is a Go implementation inspired by OpenAI's Agents SDK for Python.

package agent

import (
	"fmt"
	"strings"

	"github.com/ryichk/agentloop/handoff"
)

// Graph renders the agent, its tools and everything reachable through its
// handoffs as a Graphviz DOT document. Handoffs created with handoff.To are
// resolved through reg, which may be nil; unresolved targets are drawn as
// leaf agents.
func Graph(root *Agent, reg *handoff.Registry) string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  graph [splines=true];\n")
	b.WriteString("  node [fontname=\"Arial\"];\n")
	b.WriteString("  edge [penwidth=1.5];\n")
	b.WriteString("  \"__start__\" [label=\"__start__\", shape=ellipse, style=filled, fillcolor=lightblue, width=0.5, height=0.3];\n")
	b.WriteString("  \"__end__\" [label=\"__end__\", shape=ellipse, style=filled, fillcolor=lightblue, width=0.5, height=0.3];\n")
	fmt.Fprintf(&b, "  \"__start__\" -> %q;\n", root.Name)

	visited := map[string]bool{}
	var walk func(a *Agent)
	walk = func(a *Agent) {
		if visited[a.Name] {
			return
		}
		visited[a.Name] = true
		fmt.Fprintf(&b, "  %q [label=%q, shape=box, style=filled, fillcolor=lightyellow, width=1.5, height=0.8];\n", a.Name, a.Name)

		for _, t := range a.Tools {
			fmt.Fprintf(&b, "  %q [label=%q, shape=ellipse, style=filled, fillcolor=lightgreen, width=0.5, height=0.3];\n", t.Name(), t.Name())
			fmt.Fprintf(&b, "  %q -> %q [style=dotted, penwidth=1.5];\n", a.Name, t.Name())
			fmt.Fprintf(&b, "  %q -> %q [style=dotted, penwidth=1.5];\n", t.Name(), a.Name)
		}

		if len(a.Handoffs) == 0 {
			fmt.Fprintf(&b, "  %q -> \"__end__\";\n", a.Name)
			return
		}
		for _, h := range a.Handoffs {
			fmt.Fprintf(&b, "  %q -> %q;\n", a.Name, h.TargetName())
			target, err := h.Target(reg)
			if err != nil {
				if !visited[h.TargetName()] {
					visited[h.TargetName()] = true
					fmt.Fprintf(&b, "  %q [label=%q, shape=box, style=\"filled,dashed\", fillcolor=lightyellow];\n", h.TargetName(), h.TargetName())
				}
				continue
			}
			if next, ok := target.(*Agent); ok {
				walk(next)
			}
		}
	}
	walk(root)

	b.WriteString("}\n")
	return b.String()
}
