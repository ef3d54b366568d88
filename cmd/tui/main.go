package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/gridshare/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/gridshare/internal/analytics"
	"github.com/MrJamesThe3rd/gridshare/internal/app"
	"github.com/MrJamesThe3rd/gridshare/internal/config"
	"github.com/MrJamesThe3rd/gridshare/internal/identity"
)

const logFile = "gridshare-tui.log"

type model struct {
	app  *app.App
	me   identity.Identity
	name string

	currentView View
	width       int
	height      int

	listView      view.ListModel
	txView        view.TransactionsModel
	analyticsView view.AnalyticsModel
	importView    view.ImportModel
	exportView    view.ExportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewList      View = 1
	ViewLedger    View = 2
	ViewAnalytics View = 3
	ViewImport    View = 4
	ViewExport    View = 5
)

func initialModel(a *app.App, cfg *config.Config) model {
	me := identity.Identity{ID: cfg.User.ID, Name: cfg.User.Name}

	return model{
		app:         a,
		me:          me,
		name:        cfg.App.Name,
		currentView: ViewMenu,
	}
}

func (m model) analyticsSummary() analytics.Summary {
	return m.app.Summary(m.me.ID)
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.app.Engine)

				return m, tea.Batch(m.listView.Init(), view.Resize(m.width, m.height))
			case "2":
				m.currentView = ViewLedger
				m.txView = view.NewTransactionsModel(m.app.Engine, m.me)

				return m, tea.Batch(m.txView.Init(), view.Resize(m.width, m.height))
			case "3":
				m.currentView = ViewAnalytics
				m.analyticsView = view.NewAnalyticsModel(m.analyticsSummary)

				return m, tea.Batch(m.analyticsView.Init(), view.Resize(m.width, m.height))
			case "4":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.app.Imports)

				return m, tea.Batch(m.importView.Init(), view.Resize(m.width, m.height))
			case "5":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.app.Exports, m.me, m.app.Engine.Now)

				return m, tea.Batch(m.exportView.Init(), view.Resize(m.width, m.height))
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.txView.Update(msg)
		m.txView = newModel.(view.TransactionsModel)
	case ViewAnalytics:
		var newModel tea.Model
		newModel, cmd = m.analyticsView.Update(msg)
		m.analyticsView = newModel.(view.AnalyticsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		who := "not signed in (browsing only)"
		if m.me.ID != "" {
			who = "signed in as " + m.me.Name
		}

		return lipgloss.NewStyle().Padding(2).Render(
			m.name + " TUI\n" +
				lipgloss.NewStyle().Faint(true).Render(who) + "\n\n" +
				"1. Marketplace\n" +
				"2. Ledger\n" +
				"3. Analytics\n" +
				"4. Import Listings\n" +
				"5. Export Statement\n\n" +
				"q. Quit",
		)
	case ViewList:
		return m.listView.View()
	case ViewLedger:
		return m.txView.View()
	case ViewAnalytics:
		return m.analyticsView.View()
	case ViewImport:
		return m.importView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	f, err := tea.LogToFile(logFile, "")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ids := identity.Static{ID: cfg.User.ID, Name: cfg.User.Name}

	a, err := app.Open(context.Background(), cfg, ids, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open market: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	p := tea.NewProgram(initialModel(a, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
