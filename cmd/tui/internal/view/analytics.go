package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/gridshare/internal/analytics"
)

const barWidth = 30

// AnalyticsModel shows trading figures for the signed-in participant.
type AnalyticsModel struct {
	CommonModel
	summarize func() analytics.Summary

	summary analytics.Summary
}

func NewAnalyticsModel(summarize func() analytics.Summary) AnalyticsModel {
	return AnalyticsModel{summarize: summarize}
}

func (m AnalyticsModel) Title() string     { return "Analytics" }
func (m AnalyticsModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m AnalyticsModel) Init() tea.Cmd {
	return m.loadCmd()
}

type summaryMsg struct {
	summary analytics.Summary
}

func (m AnalyticsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return summaryMsg{summary: m.summarize()}
	}
}

func (m AnalyticsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryMsg:
		m.summary = msg.summary
		return m, nil
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m AnalyticsModel) View() string {
	s := m.summary

	card := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 2).
		Width(22)

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card.Render("Earnings\n"+successStyle.Render(FormatMoney(s.Earnings))),
		card.Render("Spending\n"+activeStyle(FormatMoney(s.Spending))),
		card.Render("Traded\n"+FormatKwh(s.KwhTraded)),
		card.Render("Avg price\n"+FormatPrice(s.AveragePrice)+"/kWh"),
	)

	stats := fmt.Sprintf("Success rate: %d%%   Trades in the last 30 days: %d", s.SuccessRate, s.Recent)

	var b strings.Builder

	b.WriteString("Energy by source\n\n")

	for _, share := range s.BySource {
		fmt.Fprintf(&b, "%-6s %s %s\n", share.Source, bar(share.Kwh, s.KwhTraded), FormatKwh(share.Kwh))
	}

	b.WriteString("\nMonthly\n\n")

	if len(s.Monthly) == 0 {
		b.WriteString(faintStyle.Render("No trades yet.") + "\n")
	}

	for _, month := range s.Monthly {
		fmt.Fprintf(&b, "%s  spent %10s  earned %10s\n", month.Month, FormatMoney(month.Spending), FormatMoney(month.Earnings))
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, cards, "", stats, "", b.String()),
	)
}

// bar draws part as a share of whole.
func bar(part, whole decimal.Decimal) string {
	n := 0
	if whole.IsPositive() {
		n = int(part.Div(whole).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
	}

	return activeStyle(strings.Repeat("█", n)) + strings.Repeat("░", barWidth-n)
}
