package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/sagehq/sage/internal/api"
	"github.com/sagehq/sage/internal/markup"
)

// Renderer formats API payloads for the terminal.
type Renderer struct {
	pretty bool
}

// New creates a renderer. pretty enables color and layout; plain form
// is stable for piping.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Sessions formats the session directory, marking the selected one.
func (r *Renderer) Sessions(sessions []api.Session, selected api.SessionID) string {
	if len(sessions) == 0 {
		return "No sessions yet. Start one with: sage session new"
	}

	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Sessions\n"))
		sb.WriteString(strings.Repeat("─", 48) + "\n")
	}

	for _, s := range sessions {
		marker := " "
		if s.ID == selected {
			marker = "*"
		}
		if r.pretty {
			id := color.HiBlackString("[%s]", s.ID)
			title := s.Title
			if s.ID == selected {
				title = color.GreenString(title)
			}
			fmt.Fprintf(&sb, "%s %s %s\n", marker, id, title)
		} else {
			fmt.Fprintf(&sb, "%s\t%s\t%s\n", marker, s.ID, s.Title)
		}
	}

	return sb.String()
}

// Thread formats a conversation history, rendering math markup in the
// tutor's replies.
func (r *Renderer) Thread(msgs []api.Message) string {
	if len(msgs) == 0 {
		return "No messages in this session"
	}

	var sb strings.Builder
	for _, m := range msgs {
		r.formatMessage(&sb, m)
	}
	return sb.String()
}

func (r *Renderer) formatMessage(sb *strings.Builder, m api.Message) {
	text := m.Text
	if m.Sender == api.SenderAI {
		if r.pretty {
			text = markup.Render(text)
		} else {
			text = markup.RenderPlain(text)
		}
	}

	label := "you"
	if m.Sender == api.SenderAI {
		label = "tutor"
	}

	if r.pretty {
		name := color.GreenString("you")
		if m.Sender == api.SenderAI {
			name = color.CyanString("tutor")
		}
		fmt.Fprintf(sb, "%s %s\n", name, color.HiBlackString(m.Timestamp))
		for _, line := range strings.Split(text, "\n") {
			fmt.Fprintf(sb, "  %s\n", line)
		}
		sb.WriteString("\n")
	} else {
		fmt.Fprintf(sb, "[%s] %s\n", label, strings.ReplaceAll(text, "\n", "\n    "))
	}
}

// Progress formats the subject-level progress view.
func (r *Renderer) Progress(p *api.Progress) string {
	if p == nil || len(p.Subjects) == 0 {
		return "No progress tracked yet"
	}

	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Learning Progress\n"))
		sb.WriteString(strings.Repeat("─", 48) + "\n")
	}

	for _, s := range p.Subjects {
		if r.pretty {
			fmt.Fprintf(&sb, "%s  %s %s\n",
				color.New(color.Bold).Sprint(s.Subject),
				bar(s.LearningSkill, 20),
				delta(s.LearningDelta))
		} else {
			fmt.Fprintf(&sb, "%s\t%.2f\t%+.2f\n", s.Subject, s.LearningSkill, s.LearningDelta)
		}

		for _, c := range s.Concepts {
			if r.pretty {
				fmt.Fprintf(&sb, "  %-28s %-8s %s\n",
					Truncate(c.Name, 28), c.Confidence, delta(c.ConfidenceDelta))
			} else {
				fmt.Fprintf(&sb, "  %s\t%s\t%+.2f\n", c.Name, c.Confidence, c.ConfidenceDelta)
			}
		}
	}

	return sb.String()
}

// Reflection formats reflection signals grouped as a flat dated list.
func (r *Renderer) Reflection(ref *api.Reflection) string {
	if ref == nil || len(ref.Signals) == 0 {
		return "No reflection signals in this window"
	}

	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Reflection\n"))
		sb.WriteString(strings.Repeat("─", 48) + "\n")
	}

	for _, sig := range ref.Signals {
		if r.pretty {
			fmt.Fprintf(&sb, "%s %s %s/%s\n",
				color.HiBlackString(sig.Date), kindIcon(sig.Kind), sig.Subject, sig.Concept)
			if sig.Note != "" {
				fmt.Fprintf(&sb, "    %s\n", sig.Note)
			}
		} else {
			fmt.Fprintf(&sb, "[%s] %s %s/%s %s\n", sig.Date, sig.Kind, sig.Subject, sig.Concept, sig.Note)
		}
	}

	return sb.String()
}

// Status formats the whoami view.
func (r *Renderer) Status(authenticated bool, apiURL, clientID string) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("sage\n"))
		sb.WriteString(strings.Repeat("─", 32) + "\n")
		if authenticated {
			fmt.Fprintf(&sb, "  Credential: %s\n", color.GreenString("present"))
		} else {
			fmt.Fprintf(&sb, "  Credential: %s\n", color.RedString("not logged in"))
		}
		fmt.Fprintf(&sb, "  API:        %s\n", apiURL)
		if clientID != "" {
			fmt.Fprintf(&sb, "  Install:    %s\n", clientID)
		}
	} else {
		fmt.Fprintf(&sb, "authenticated=%v api=%s install=%s\n", authenticated, apiURL, clientID)
	}

	return sb.String()
}

// bar renders a fixed-width gauge for a 0..1 score.
func bar(score float64, width int) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	filled := int(score*float64(width) + 0.5)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func delta(d float64) string {
	switch {
	case d > 0:
		return color.GreenString("▲%.2f", d)
	case d < 0:
		return color.RedString("▼%.2f", -d)
	default:
		return color.HiBlackString("·")
	}
}

func kindIcon(kind string) string {
	switch kind {
	case "improved":
		return color.GreenString("▲")
	case "slipped":
		return color.RedString("▼")
	case "stale":
		return color.YellowString("!")
	default:
		return "•"
	}
}
