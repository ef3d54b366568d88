package view

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

type txState int

const (
	txStateTimeframe txState = iota
	txStateList
	txStateDetail
)

// txItem wraps a transaction to implement list.Item.
type txItem struct {
	tx market.Transaction
	me string
}

func (i txItem) Title() string {
	status := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("[%s]", i.tx.Status))

	side := fmt.Sprintf("%s -> %s", i.tx.SellerName, i.tx.BuyerName)

	switch i.me {
	case i.tx.BuyerID:
		side = "bought from " + i.tx.SellerName
	case i.tx.SellerID:
		side = "sold to " + i.tx.BuyerName
	}

	return fmt.Sprintf("%s  %s  %s  %s  %s",
		FormatDateTime(i.tx.Timestamp), FormatKwh(i.tx.EnergyAmount), FormatMoney(i.tx.TotalAmount), status, side)
}

func (i txItem) Description() string {
	return fmt.Sprintf("%s @ %s/kWh  block #%d", i.tx.EnergySource, FormatPrice(i.tx.PricePerKwh), i.tx.BlockNumber)
}

func (i txItem) FilterValue() string {
	return i.tx.SellerName + " " + i.tx.BuyerName + " " + string(i.tx.EnergySource)
}

// TransactionsModel browses the trade ledger.
type TransactionsModel struct {
	CommonModel
	engine *market.Engine
	me     identity.Identity

	state           txState
	timeframePicker TimeframePicker
	list            list.Model
	txs             []market.Transaction
	selectedTx      *market.Transaction

	startDate time.Time
	endDate   time.Time
	allTime   bool
	mineOnly  bool
}

func NewTransactionsModel(engine *market.Engine, me identity.Identity) TransactionsModel {
	l := list.New([]list.Item{}, txItemDelegate{}, 0, 0)
	l.Title = "Ledger"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return TransactionsModel{
		engine:          engine,
		me:              me,
		timeframePicker: NewTimeframePicker(TimeframeToday, engine.Now),
		list:            l,
		mineOnly:        me.ID != "",
	}
}

func (m TransactionsModel) Title() string { return "Ledger" }

func (m TransactionsModel) ShortHelp() string {
	switch m.state {
	case txStateTimeframe:
		return "Esc: back | Enter: select"
	case txStateList:
		return "Esc: back | Enter: details | m: mine/all | /: filter"
	case txStateDetail:
		return "Esc: close"
	}

	return ""
}

func (m TransactionsModel) Init() tea.Cmd {
	return nil
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.startDate = msg.Start
		m.endDate = msg.End
		m.allTime = msg.All
		m.state = txStateList

		return m, m.loadTxsCmd()

	case loadTxsMsg:
		m.txs = msg.txs
		m.refreshListItems()

		m.status = ""
		if len(msg.txs) == 0 {
			m.status = "No transactions found."
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg)
		m.list.SetSize(m.width-4, m.height-8)

		return m, nil
	}

	switch m.state {
	case txStateTimeframe:
		return m.updateTimeframe(msg)
	case txStateList:
		return m.updateList(msg)
	case txStateDetail:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			m.state = txStateList
			m.selectedTx = nil
		}

		return m, nil
	}

	return m, nil
}

func (m TransactionsModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m TransactionsModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "enter":
			selected, ok := m.list.SelectedItem().(txItem)
			if !ok {
				return m, nil
			}

			m.selectedTx = &selected.tx
			m.state = txStateDetail

			return m, nil
		case "m":
			if m.me.ID == "" {
				m.status = "No signed-in participant; showing the whole ledger."
				return m, nil
			}

			m.mineOnly = !m.mineOnly

			return m, m.loadTxsCmd()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m TransactionsModel) View() string {
	switch m.state {
	case txStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case txStateList:
		scope := "All trades"
		if m.mineOnly {
			scope = "My trades"
		}

		header := activeStyle(scope) + "\n" + m.statusLine()

		return lipgloss.NewStyle().Padding(1).Render(header + m.list.View())

	case txStateDetail:
		return lipgloss.NewStyle().Padding(1).Render(m.txInfoView())
	}

	return ""
}

func (m TransactionsModel) txInfoView() string {
	if m.selectedTx == nil {
		return ""
	}

	tx := m.selectedTx

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(fmt.Sprintf(
			"Trade %s  [%s]\n\nSeller: %s\nBuyer:  %s\nEnergy: %s of %s at %s/kWh\nTotal:  %s\nTime:   %s\n\nHash:  %s\nBlock: %d",
			tx.ID, tx.Status,
			tx.SellerName,
			tx.BuyerName,
			FormatKwh(tx.EnergyAmount), tx.EnergySource, FormatPrice(tx.PricePerKwh),
			FormatMoney(tx.TotalAmount),
			FormatDateTime(tx.Timestamp),
			tx.TransactionHash,
			tx.BlockNumber,
		))
}

func (m *TransactionsModel) refreshListItems() {
	items := make([]list.Item, len(m.txs))
	for i, tx := range m.txs {
		items[i] = txItem{tx: tx, me: m.me.ID}
	}

	m.list.SetItems(items)
}

// Messages

type loadTxsMsg struct {
	txs []market.Transaction
}

func (m TransactionsModel) loadTxsCmd() tea.Cmd {
	start, end := m.startDate, m.endDate
	all, mine, me := m.allTime, m.mineOnly, m.me.ID

	return func() tea.Msg {
		var txs []market.Transaction

		for _, tx := range m.engine.SnapshotTransactions() {
			if !all && (tx.Timestamp.Before(start) || !tx.Timestamp.Before(end)) {
				continue
			}

			if mine && tx.BuyerID != me && tx.SellerID != me {
				continue
			}

			txs = append(txs, tx)
		}

		return loadTxsMsg{txs: txs}
	}
}

// txItemDelegate renders items in the list.
type txItemDelegate struct{}

func (d txItemDelegate) Height() int                             { return 2 }
func (d txItemDelegate) Spacing() int                            { return 0 }
func (d txItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d txItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(txItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "    %s\n", faintStyle.Render(i.Description()))
}
