// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/toolscout/pkg/types"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	yesStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	noStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

const ruleWidth = 60

// renderRecord writes a human-readable report of rec to w.
func renderRecord(w io.Writer, rec types.ResultRecord) {
	fmt.Fprintln(w, titleStyle.Render("Results for: "+rec.Query))
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))

	if len(rec.Companies) == 0 {
		fmt.Fprintln(w, labelStyle.Render("No tools could be researched."))
	}
	for i, c := range rec.Companies {
		renderProfile(w, i+1, c)
	}

	if rec.Analysis != "" {
		fmt.Fprintln(w, sectionStyle.Render("Developer Recommendations"))
		fmt.Fprintln(w, strings.Repeat("-", 40))
		fmt.Fprintln(w, renderMarkdown(rec.Analysis))
	}
}

func renderProfile(w io.Writer, n int, c types.CompanyProfile) {
	fmt.Fprintf(w, "\n%d. %s\n", n, nameStyle.Render(c.Name))
	field(w, "Website", orDash(c.Website))
	field(w, "Pricing", c.PricingModel)
	field(w, "Open source", triState(c.IsOpenSource))

	if len(c.TechStack) > 0 {
		field(w, "Tech stack", strings.Join(c.TechStack, ", "))
	}
	if len(c.IntegrationCapabilities) > 0 {
		field(w, "Integrations", strings.Join(c.IntegrationCapabilities, ", "))
	}
	if len(c.LanguageSupport) > 0 {
		field(w, "Languages", strings.Join(c.LanguageSupport, ", "))
	}
	if c.APIAvailable.Known() {
		field(w, "API", triState(c.APIAvailable))
	}
	if c.DeveloperExperienceRating != "" {
		field(w, "Developer experience", c.DeveloperExperienceRating)
	}
	if c.Description != "" {
		field(w, "Description", c.Description)
	}
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "   %s %s\n", labelStyle.Render(label+":"), value)
}

func triState(t types.TriState) string {
	switch t {
	case types.True:
		return yesStyle.Render(t.String())
	case types.False:
		return noStyle.Render(t.String())
	default:
		return labelStyle.Render(t.String())
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// renderMarkdown formats model output for the terminal, returning the text
// unchanged if rendering fails.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
