package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateBuy
	listStateCreate
	listStateSearch
)

var (
	sourceFilters = append([]market.Source{""}, market.Sources...)
	sortOrders    = []market.SortOrder{market.SortNewest, market.SortPrice, market.SortAmount}
	statusFilters = []market.ListingStatus{market.ListingAvailable, market.StatusAny}
)

// ListModel is the marketplace: a table of listings with buy and sell forms.
type ListModel struct {
	CommonModel
	engine *market.Engine

	state    listState
	table    table.Model
	listings []market.Listing
	form     *huh.Form

	sourceIdx int
	sortIdx   int
	statusIdx int
	search    string

	fields *listFields
}

// listFields holds form bindings. huh keeps their addresses across model
// copies, so the model only carries a pointer.
type listFields struct {
	amount   string
	price    string
	source   market.Source
	hours    string
	location string
	search   string
}

func NewListModel(engine *market.Engine) ListModel {
	columns := []table.Column{
		{Title: "Seller", Width: 20},
		{Title: "Source", Width: 7},
		{Title: "Available", Width: 14},
		{Title: "Price/kWh", Width: 10},
		{Title: "Until", Width: 17},
		{Title: "Location", Width: 20},
		{Title: "Status", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		engine: engine,
		table:  t,
	}
}

func (m ListModel) Title() string { return "Marketplace" }

func (m ListModel) ShortHelp() string {
	switch m.state {
	case listStateBuy, listStateCreate:
		return "Navigate form | Esc: cancel"
	case listStateSearch:
		return "Enter: apply | Esc: cancel"
	}

	return "Esc: back | b: buy | n: new listing | /: search | s: source | o: sort | a: status | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ListModel) query() market.ListingQuery {
	return market.ListingQuery{
		Search: m.search,
		Source: sourceFilters[m.sourceIdx],
		Status: statusFilters[m.statusIdx],
		Sort:   sortOrders[m.sortIdx],
	}
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.listings = msg.listings
		m.refreshTable()

		return m, nil

	case listSaveMsg:
		m.status = msg.text
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.resize(msg)
		m.table.SetHeight(m.height - 10)

		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateBuy, listStateCreate, listStateSearch:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			return m, m.reloadCmd()
		case "b":
			return m.enterBuyMode()
		case "n":
			return m.enterCreateMode()
		case "/":
			return m.enterSearchMode()
		case "s":
			m.sourceIdx = (m.sourceIdx + 1) % len(sourceFilters)
			return m, m.loadCmd()
		case "o":
			m.sortIdx = (m.sortIdx + 1) % len(sortOrders)
			return m, m.loadCmd()
		case "a":
			m.statusIdx = (m.statusIdx + 1) % len(statusFilters)
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) selected() (market.Listing, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.listings) {
		return market.Listing{}, false
	}

	return m.listings[idx], true
}

func positiveDecimal(label string) func(string) error {
	return func(s string) error {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a number", label)
		}

		if !d.IsPositive() {
			return fmt.Errorf("%s must be positive", label)
		}

		return nil
	}
}

func (m ListModel) enterBuyMode() (tea.Model, tea.Cmd) {
	l, ok := m.selected()
	if !ok {
		return m, nil
	}

	m.fields = &listFields{amount: l.EnergyAmount.String()}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Amount (kWh)").
				Description(fmt.Sprintf("Up to %s at %s", FormatKwh(l.EnergyAmount), FormatPrice(l.PricePerKwh))).
				Value(&m.fields.amount).
				Validate(positiveDecimal("amount")),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateBuy
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) enterCreateMode() (tea.Model, tea.Cmd) {
	m.fields = &listFields{source: market.SourceSolar, hours: "24"}

	options := make([]huh.Option[market.Source], 0, len(market.Sources))
	for _, s := range market.Sources {
		options = append(options, huh.NewOption(string(s), s))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Energy (kWh)").
				Value(&m.fields.amount).
				Validate(positiveDecimal("energy")),
			huh.NewInput().
				Key("price").
				Title("Price per kWh").
				Value(&m.fields.price).
				Validate(positiveDecimal("price")),
			huh.NewSelect[market.Source]().
				Key("source").
				Title("Source").
				Options(options...).
				Value(&m.fields.source),
			huh.NewInput().
				Key("hours").
				Title("Available for (hours)").
				Value(&m.fields.hours).
				Validate(func(s string) error {
					h, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || h <= 0 {
						return errors.New("hours must be a positive whole number")
					}

					return nil
				}),
			huh.NewInput().
				Key("location").
				Title("Location").
				Value(&m.fields.location),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateCreate
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) enterSearchMode() (tea.Model, tea.Cmd) {
	m.fields = &listFields{search: m.search}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("search").
				Title("Search seller or location").
				Value(&m.fields.search),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateSearch
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.state {
	case listStateBuy:
		return m, m.buyCmd()
	case listStateCreate:
		return m, m.createCmd()
	}

	m.search = strings.TrimSpace(m.fields.search)
	m.state = listStateBrowse
	m.form = nil
	m.table.Focus()

	return m, m.loadCmd()
}

func (m ListModel) View() string {
	if m.engine.IsLoading() {
		return lipgloss.NewStyle().Padding(2).Render("Loading marketplace...")
	}

	sourceLabel := "All"
	if s := sourceFilters[m.sourceIdx]; s != "" {
		sourceLabel = string(s)
	}

	header := fmt.Sprintf(
		"Filter: [s] Source: %s | [o] Sort: %s | [a] Status: %s | [/] Search: %s",
		activeStyle(sourceLabel),
		activeStyle(string(sortOrders[m.sortIdx])),
		activeStyle(string(statusFilters[m.statusIdx])),
		activeStyle(m.search),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != listStateBrowse && m.form != nil {
		title := "Search"

		switch m.state {
		case listStateBuy:
			title = "Buy Energy"
			if l, ok := m.selected(); ok {
				title = fmt.Sprintf("Buy Energy\n\nFrom: %s (%s)", l.SellerName, l.Location)
			}
		case listStateCreate:
			title = "New Listing"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("%s\n\n%s", title, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	content = m.statusLine() + content

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ListModel) refreshTable() {
	now := m.engine.Now()

	rows := make([]table.Row, 0, len(m.listings))
	for _, l := range m.listings {
		rows = append(rows, table.Row{
			l.SellerName,
			string(l.EnergySource),
			FormatKwh(l.EnergyAmount),
			FormatPrice(l.PricePerKwh),
			FormatDateTime(l.AvailableUntil),
			l.Location,
			string(l.EffectiveStatus(now)),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	listings []market.Listing
}

func (m ListModel) loadCmd() tea.Cmd {
	q := m.query()

	return func() tea.Msg {
		return loadListMsg{listings: m.engine.QueryListings(q)}
	}
}

// reloadCmd picks up writes made by other processes sharing the store.
func (m ListModel) reloadCmd() tea.Cmd {
	q := m.query()

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		if err := m.engine.Reload(ctx); err != nil {
			return listSaveMsg{text: fmt.Sprintf("Reload failed: %v", err)}
		}

		return loadListMsg{listings: m.engine.QueryListings(q)}
	}
}

type listSaveMsg struct {
	text string
}

func (m ListModel) buyCmd() tea.Cmd {
	l, ok := m.selected()
	if !ok {
		return nil
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(m.fields.amount))
	if err != nil {
		return func() tea.Msg { return listSaveMsg{text: fmt.Sprintf("Error: %v", err)} }
	}

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		if err := m.engine.PurchaseEnergy(ctx, l.ID, amount); err != nil {
			return listSaveMsg{text: purchaseFailure(err)}
		}

		return listSaveMsg{text: fmt.Sprintf("Bought %s from %s.", FormatKwh(market.RoundQuantity(amount)), l.SellerName)}
	}
}

func purchaseFailure(err error) string {
	switch {
	case errors.Is(err, market.ErrInsufficientQuantity):
		return "Not enough energy left on this listing."
	case errors.Is(err, market.ErrListingUnavailable):
		return "This listing is no longer available."
	case errors.Is(err, market.ErrStaleState):
		return "The market changed elsewhere and has been refreshed. Try again."
	}

	return fmt.Sprintf("Purchase failed: %v", err)
}

func (m ListModel) createCmd() tea.Cmd {
	amount, errAmount := decimal.NewFromString(strings.TrimSpace(m.fields.amount))
	price, errPrice := decimal.NewFromString(strings.TrimSpace(m.fields.price))
	hours, errHours := strconv.Atoi(strings.TrimSpace(m.fields.hours))

	if err := errors.Join(errAmount, errPrice, errHours); err != nil {
		return func() tea.Msg { return listSaveMsg{text: fmt.Sprintf("Error: %v", err)} }
	}

	spec := market.ListingSpec{
		EnergyAmount:   amount,
		PricePerKwh:    price,
		EnergySource:   m.fields.source,
		AvailableUntil: m.engine.Now().Add(time.Duration(hours) * time.Hour),
		Location:       strings.TrimSpace(m.fields.location),
	}

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		l, err := m.engine.CreateListing(ctx, spec)
		if err != nil {
			return listSaveMsg{text: fmt.Sprintf("Could not create listing: %v", err)}
		}

		return listSaveMsg{text: fmt.Sprintf("Listed %s at %s.", FormatKwh(l.EnergyAmount), FormatPrice(l.PricePerKwh))}
	}
}
