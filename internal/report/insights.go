package report

import (
	"fmt"
	"regexp"
	"strings"
)

// NoInsights is shown when the insight generator fails or has nothing to say.
const NoInsights = "No recommendations available."

// NotEnoughData is shown when the report has nothing to analyse.
const NotEnoughData = "Not enough data to generate recommendations."

type Insights struct {
	Available       bool     `json:"available"`
	Message         string   `json:"message,omitempty"`
	Text            string   `json:"text,omitempty"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

// Unavailable builds the placeholder used when no insight text exists.
func Unavailable(message string) Insights {
	return Insights{
		Message:         message,
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
	}
}

var sectionHeader = regexp.MustCompile(`(?i)\*\*(strengths|weaknesses|recommendations)\*\*`)

// ParseInsights splits generated markdown into its three bulleted sections.
// Text before the first header is ignored. A repeated header keeps the first
// occurrence.
func ParseInsights(text string) Insights {
	out := Unavailable("")
	out.Text = text
	matches := sectionHeader.FindAllStringSubmatchIndex(text, -1)
	seen := map[string]bool{}
	for i, m := range matches {
		name := strings.ToLower(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		items := bullets(text[m[1]:end])
		switch name {
		case "strengths":
			out.Strengths = items
		case "weaknesses":
			out.Weaknesses = items
		case "recommendations":
			out.Recommendations = items
		}
	}
	out.Available = len(out.Strengths)+len(out.Weaknesses)+len(out.Recommendations) > 0
	if !out.Available {
		out.Message = NoInsights
	}
	return out
}

func bullets(section string) []string {
	items := []string{}
	for _, line := range strings.Split(strings.TrimSpace(section), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "* ")
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// HasInsightData reports whether r carries any tag or question statistics.
func HasInsightData(r Report) bool {
	return len(r.BySkill) > 0 || len(r.ByTechnology) > 0 || len(r.ToughestQuestions) > 0
}

// InsightsPrompt asks for a short strengths, weaknesses and recommendations analysis.
func InsightsPrompt(title string, r Report) string {
	competencyPct := 0.0
	if r.Competency != nil {
		competencyPct = r.Competency.Percentage
	}

	strongest := "N/A"
	if n := len(r.BySkill); n > 0 {
		top := make([]string, 0, 3)
		for i := n - 1; i >= 0 && len(top) < 3; i-- {
			top = append(top, tagSummary(r.BySkill[i]))
		}
		strongest = strings.Join(top, ", ")
	}
	weakest := "N/A"
	if len(r.BySkill) > 0 {
		low := make([]string, 0, 3)
		for i := 0; i < len(r.BySkill) && i < 3; i++ {
			low = append(low, tagSummary(r.BySkill[i]))
		}
		weakest = strings.Join(low, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert instructional designer analyzing quiz results for the quiz titled %q.\n", title)
	b.WriteString("Based on the provided performance data, generate a concise analysis with three distinct sections: Strengths, Weaknesses, and Recommendations.\n\n")
	b.WriteString("- For **Strengths**, identify 1-2 topics or skills where participants performed exceptionally well.\n")
	b.WriteString("- For **Weaknesses**, identify 1-2 topics or skills that need the most improvement.\n")
	b.WriteString("- For **Recommendations**, provide 2-3 actionable suggestions for the quiz organizer to improve learner outcomes.\n\n")
	b.WriteString("Format the entire response using Markdown with the following headings exactly:\n**Strengths**\n**Weaknesses**\n**Recommendations**\n\n")
	b.WriteString("Under each heading, use bullet points starting with '* '.\n\n")
	b.WriteString("**Performance Data Summary:**\n")
	fmt.Fprintf(&b, "* Competency Rate: %.0f%%\n", competencyPct)
	fmt.Fprintf(&b, "* Strongest Skills: %s\n", strongest)
	fmt.Fprintf(&b, "* Skills needing review: %s\n", weakest)
	return b.String()
}

func tagSummary(t TagPerformance) string {
	return fmt.Sprintf("%s (%.0f%%)", t.Tag, t.Percentage)
}
