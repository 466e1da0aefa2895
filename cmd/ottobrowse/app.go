package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hammamikhairi/ottobrowse/internal/conversation"
	"github.com/hammamikhairi/ottobrowse/internal/display"
	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/engine"
	"github.com/hammamikhairi/ottobrowse/internal/facet"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
	"github.com/hammamikhairi/ottobrowse/internal/metrics"
	"github.com/hammamikhairi/ottobrowse/internal/results"
)

// screen is the output side of the terminal UI.
type screen interface {
	Println(a ...interface{})
	PrintHint(text string)
	ShowView(v results.View)
	PrintChips(chips []facet.Chip, msgs *results.Messages)
}

// runBrowser starts the interactive browser and blocks until it quits.
func runBrowser(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p, closeProvider, err := openProvider(cfg.Provider, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	eng := newEngine(ctx, p, metrics.NewCollector())
	defer eng.Close()

	ui := display.NewUI(eng)
	eng.OnChange(ui.Listen)
	eng.StartRefresher(ctx, cfg.Browse.RefreshInterval)

	app := &cliApp{
		engine:   eng,
		parser:   conversation.NewKeywordParser(log.Named("parser")),
		notifier: conversation.NewCLINotifier(log, ui.Printf),
		screen:   ui,
		log:      log,
	}

	fmt.Println(display.RenderBanner("Type 'help' for commands, Tab to search, 'quit' to exit."))

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx, ui.InputChan())
		ui.Quit()
	}()

	// Bubble Tea owns the terminal and blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
		return err
	}
	return nil
}

type cliApp struct {
	engine   *engine.Engine
	parser   domain.CommandParser
	notifier domain.Notifier
	screen   screen
	log      *logger.Logger
}

func (a *cliApp) run(ctx context.Context, input <-chan string) {
	if !a.engine.HasAnyFacet() {
		a.screen.PrintHint(a.engine.Messages().NoFilters())
	}

	for {
		var line string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case line, ok = <-input:
			if !ok {
				return
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, err := a.parser.Parse(ctx, line)
		if err != nil {
			a.urgent(ctx, err.Error())
			continue
		}

		a.log.Debug("command: %s (facet=%q value=%q)", cmd.Type, cmd.Facet, cmd.Value)
		if !a.handleCommand(ctx, cmd) {
			return
		}
	}
}

// handleCommand applies one command. It returns false when the user quits.
func (a *cliApp) handleCommand(ctx context.Context, cmd *domain.Command) bool {
	var err error

	switch cmd.Type {
	case domain.CommandAddFacet:
		if cmd.Value == "" {
			a.screen.PrintHint(fmt.Sprintf("Usage: %s <value>", cmd.Facet))
			return true
		}
		err = a.engine.SetFacet(cmd.Facet, cmd.Value)
	case domain.CommandRemoveFacet:
		if cmd.Facet.IsMulti() && cmd.Value == "" {
			a.screen.PrintHint(fmt.Sprintf("Usage: rm %s <value>", cmd.Facet))
			return true
		}
		err = a.engine.RemoveFacet(cmd.Facet, cmd.Value)
	case domain.CommandSearch:
		// A submitted line is already settled text.
		err = a.engine.SetFacet(domain.FacetTitle, cmd.Value)
	case domain.CommandSort:
		err = a.engine.SetSort(cmd.Value)
	case domain.CommandReset:
		err = a.engine.ResetAll()
	case domain.CommandMore:
		err = a.engine.LoadMore()
		if errors.Is(err, engine.ErrNothingToLoad) {
			a.screen.PrintHint("Nothing more to load.")
			return true
		}
	case domain.CommandRefresh:
		err = a.engine.Refresh()
	case domain.CommandChips:
		a.screen.PrintChips(a.engine.Chips(), a.engine.Messages())
	case domain.CommandCategories:
		a.listValues(ctx, cmd.Facet)
	case domain.CommandShow:
		a.screen.ShowView(a.engine.View())
	case domain.CommandHelp:
		a.screen.Println(conversation.HelpText)
	case domain.CommandQuit:
		return false
	default:
		a.screen.PrintHint(fmt.Sprintf("Unknown command %q. Type 'help' for commands.", cmd.Value))
	}

	if err != nil {
		a.urgent(ctx, err.Error())
	}
	return true
}

func (a *cliApp) listValues(ctx context.Context, key domain.FacetKey) {
	list := a.engine.Categories
	if key == domain.FacetTags {
		list = a.engine.Tags
	}
	vals, err := list(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrNoCatalog) {
			a.screen.PrintHint("This recipe source cannot list values.")
			return
		}
		a.urgent(ctx, err.Error())
		return
	}
	if err := a.notifier.Notify(ctx, strings.Join(vals, ", ")); err != nil {
		a.log.Debug("notify: %v", err)
	}
}

func (a *cliApp) urgent(ctx context.Context, msg string) {
	if err := a.notifier.NotifyUrgent(ctx, msg); err != nil {
		a.log.Debug("notify: %v", err)
	}
}
