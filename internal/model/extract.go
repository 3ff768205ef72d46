package model

import (
	"regexp"
	"strings"

	"github.com/Iron-Ham/triad/internal/debate"
)

// codeBlockRe captures the body of the first fenced code block.
var codeBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\n(.*?)```")

// issuesHeadingRe locates the issues section of a critique.
var issuesHeadingRe = regexp.MustCompile(`(?im)^#*\s*issues\s*:?\s*$`)

// strengthsHeadingRe locates the strengths section of a critique.
var strengthsHeadingRe = regexp.MustCompile(`(?im)^#*\s*strengths\s*:?\s*$`)

// anyHeadingRe matches any heading-style line, used to find where a
// critique section ends.
var anyHeadingRe = regexp.MustCompile(`(?im)^(?:#+\s*[a-z][a-z ]*|[a-z][a-z ]*\s*:)\s*$`)

// Extract populates the role-specific structured field of a response from
// its raw content. Extraction is best effort; a response that yields no
// structure is still valid.
func Extract(resp *debate.ModelResponse) {
	if resp == nil || resp.Failed() || strings.TrimSpace(resp.Content) == "" {
		return
	}

	switch resp.Role {
	case debate.RoleProposer:
		resp.Solution = resp.Content
	case debate.RoleCritic:
		resp.Critique = extractCritique(resp.Content)
	case debate.RoleRefiner:
		resp.Refinement = extractRefinement(resp.Content)
	}
}

// extractCritique pulls the issue and strength lists out of a critic
// response. Each list holds the bulleted lines following its heading,
// up to the next heading; without an "Issues" heading, all bulleted
// lines count as issues.
func extractCritique(content string) *debate.Critique {
	c := &debate.Critique{Summary: firstLine(content)}

	if section, ok := sectionAfter(content, issuesHeadingRe); ok {
		c.Issues = bulletItems(section)
	} else {
		fallback := content
		if loc := strengthsHeadingRe.FindStringIndex(content); loc != nil {
			fallback = content[:loc[0]]
		}
		c.Issues = bulletItems(fallback)
	}
	if section, ok := sectionAfter(content, strengthsHeadingRe); ok {
		c.Strengths = bulletItems(section)
	}

	return c
}

// sectionAfter returns the text between the first match of heading and the
// next heading-style line (or the end of content).
func sectionAfter(content string, heading *regexp.Regexp) (string, bool) {
	loc := heading.FindStringIndex(content)
	if loc == nil {
		return "", false
	}
	section := content[loc[1]:]
	if next := anyHeadingRe.FindStringIndex(section); next != nil {
		section = section[:next[0]]
	}
	return section, true
}

// bulletItems collects the trimmed bodies of "-" and "*" bullet lines.
func bulletItems(section string) []string {
	var items []string
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if item, ok := strings.CutPrefix(trimmed, "- "); ok {
			items = append(items, strings.TrimSpace(item))
			continue
		}
		if item, ok := strings.CutPrefix(trimmed, "* "); ok {
			items = append(items, strings.TrimSpace(item))
		}
	}
	return items
}

// extractRefinement pulls the final code block out of a refiner response.
func extractRefinement(content string) *debate.Refinement {
	r := &debate.Refinement{Summary: firstLine(content)}
	if m := codeBlockRe.FindStringSubmatch(content); m != nil {
		r.FinalCode = m[1]
	}
	return r
}

// firstLine returns the first non-empty line of text, for use as a summary.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
