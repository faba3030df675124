// Package markup renders the tutor's math markup for terminals.
// Replies may contain $inline$ and $$display$$ math with TeX-style
// sub/superscripts; full layout is out of scope, so spans are mapped
// to unicode where possible and styled, never reflowed.
package markup

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var mathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true)

// symbols replaces the TeX commands the tutor actually emits. Longer
// commands come before their prefixes so \leq never decays to ≤q.
var symbols = strings.NewReplacer(
	`\rightarrow`, "→",
	`\approx`, "≈",
	`\degree`, "°",
	`\lambda`, "λ",
	`\infty`, "∞",
	`\times`, "×",
	`\Delta`, "Δ",
	`\delta`, "δ",
	`\alpha`, "α",
	`\gamma`, "γ",
	`\theta`, "θ",
	`\sigma`, "σ",
	`\omega`, "ω",
	`\sqrt`, "√",
	`\cdot`, "·",
	`\beta`, "β",
	`\leq`, "≤",
	`\geq`, "≥",
	`\neq`, "≠",
	`\div`, "÷",
	`\sum`, "Σ",
	`\int`, "∫",
	`\le`, "≤",
	`\ge`, "≥",
	`\ne`, "≠",
	`\pm`, "±",
	`\to`, "→",
	`\mu`, "μ",
	`\pi`, "π",
	`\,`, " ",
	`\ `, " ",
	`\$`, "$",
)

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾',
	'n': 'ⁿ', 'i': 'ⁱ', 'x': 'ˣ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'+': '₊', '-': '₋', '=': '₌', '(': '₍', ')': '₎',
	'a': 'ₐ', 'e': 'ₑ', 'i': 'ᵢ', 'n': 'ₙ', 'x': 'ₓ',
}

// Render converts math markup in text to terminal form. Math spans are
// styled; text outside spans passes through untouched.
func Render(text string) string {
	return render(text, true)
}

// RenderPlain converts math markup without ANSI styling, for piped or
// non-TTY output.
func RenderPlain(text string) string {
	return render(text, false)
}

func render(text string, styled bool) string {
	var out strings.Builder
	rest := text
	for {
		start, end, body := nextSpan(rest)
		if start < 0 {
			out.WriteString(rest)
			return out.String()
		}
		out.WriteString(rest[:start])
		math := Math(body)
		if styled {
			math = mathStyle.Render(math)
		}
		out.WriteString(math)
		rest = rest[end:]
	}
}

// nextSpan finds the next $...$ or $$...$$ span. Returns the start
// offset, the offset past the closing delimiter, and the span body, or
// start -1 when none remains.
func nextSpan(s string) (int, int, string) {
	start := strings.IndexByte(s, '$')
	for start >= 0 {
		if start == 0 || s[start-1] != '\\' {
			break
		}
		next := strings.IndexByte(s[start+1:], '$')
		if next < 0 {
			return -1, 0, ""
		}
		start += 1 + next
	}
	if start < 0 {
		return -1, 0, ""
	}

	delim := "$"
	if strings.HasPrefix(s[start:], "$$") {
		delim = "$$"
	}
	bodyStart := start + len(delim)
	stop := strings.Index(s[bodyStart:], delim)
	if stop < 0 {
		return -1, 0, ""
	}
	return start, bodyStart + stop + len(delim), s[bodyStart : bodyStart+stop]
}

// Math converts one span body: TeX symbol commands, then ^ and _
// scripts. Characters without a unicode script form keep their
// original ^x / _x spelling.
func Math(body string) string {
	body = symbols.Replace(body)

	var out strings.Builder
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r != '^' && r != '_') || i+1 >= len(runes) {
			out.WriteRune(r)
			continue
		}
		arg, next := scriptArg(runes, i+1)
		if converted, ok := convertScript(arg, r == '^'); ok {
			out.WriteString(converted)
			i = next - 1
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// scriptArg reads the argument after ^ or _: either one character or a
// {...} group. Returns the argument and the index past it.
func scriptArg(runes []rune, i int) (string, int) {
	if runes[i] != '{' {
		return string(runes[i]), i + 1
	}
	for j := i + 1; j < len(runes); j++ {
		if runes[j] == '}' {
			return string(runes[i+1 : j]), j + 1
		}
	}
	return string(runes[i]), i + 1
}

func convertScript(arg string, super bool) (string, bool) {
	table := subscripts
	if super {
		table = superscripts
	}
	var out strings.Builder
	for _, r := range arg {
		mapped, ok := table[r]
		if !ok {
			return "", false
		}
		out.WriteRune(mapped)
	}
	return out.String(), out.Len() > 0
}
