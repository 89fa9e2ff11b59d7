// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/tracescope/services/trace/diff"
	"github.com/AleutianAI/tracescope/services/trace/nav"
	"github.com/AleutianAI/tracescope/services/trace/value"
)

const (
	headerHeight = 2
	footerHeight = 1
)

// =============================================================================
// Header / Footer
// =============================================================================

func (m Model) renderHeader() string {
	var parts []string

	parts = append(parts, fmt.Sprintf(" State %d/%d",
		m.session.Current()+1, m.session.StateCount()))

	if m.session.AutoExpand() {
		parts = append(parts, "[auto-expand]")
	}

	if m.session.FilterActive() {
		parts = append(parts, fmt.Sprintf("[filter: %s → %d matches]",
			m.session.FilterText(), len(m.session.FilterMatches())))
	}

	total := len(m.session.VisibleNodes())
	if m.ready && total > m.viewport.Height {
		first := m.viewport.YOffset + 1
		last := m.viewport.YOffset + m.viewport.Height
		if last > total {
			last = total
		}
		parts = append(parts, fmt.Sprintf("[%d-%d/%d]", first, last, total))
	}

	if m.statusMsg != "" {
		parts = append(parts, statusStyle.Render(m.statusMsg))
	}

	return headerStyle.Render(strings.Join(parts, " ") + " ")
}

func (m Model) renderFooter() string {
	if m.editingFilter {
		return m.filterInput.View()
	}
	keys := []string{
		"←/→ state", "↑/↓ cursor", "Enter toggle", "e/c expand/collapse",
		"a auto", "/ filter", "x clear", "q quit",
	}
	return footerStyle.Render(strings.Join(keys, "  "))
}

// =============================================================================
// Tree Rendering
// =============================================================================

func (m Model) renderTree() string {
	nodes := m.session.VisibleNodes()
	cursor := m.session.CursorPos()

	var b strings.Builder
	for i, node := range nodes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderLine(node, i == cursor))
	}
	return b.String()
}

// renderLine draws one tree line: indentation, expansion glyph, diff
// symbol, label, preview, and the changed-within marker.
func renderLine(node nav.VisibleNode, selected bool) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", node.Depth))

	switch {
	case !node.Expandable:
		b.WriteString("  ")
	case node.Expanded:
		b.WriteString("▼ ")
	default:
		b.WriteString("▶ ")
	}

	b.WriteString(diffSymbol(node.Diff.Kind))
	b.WriteString(node.Label)
	b.WriteString(": ")
	b.WriteString(value.Preview(node.Value))

	if node.Diff.ChangedWithin {
		b.WriteString(" ⚡")
	}

	style := diffStyle(node.Diff.Kind)
	if selected {
		style = style.Background(lipgloss.Color("238"))
	}
	return style.Render(b.String())
}

func diffSymbol(k diff.Kind) string {
	switch k {
	case diff.Added:
		return "+ "
	case diff.Removed:
		return "- "
	case diff.Modified:
		return "~ "
	default:
		return ""
	}
}

func diffStyle(k diff.Kind) lipgloss.Style {
	switch k {
	case diff.Added:
		return addedStyle
	case diff.Removed:
		return removedStyle
	case diff.Modified:
		return modifiedStyle
	default:
		return plainStyle
	}
}

// =============================================================================
// Styles
// =============================================================================

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("56"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	addedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	removedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	modifiedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	plainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))
)
