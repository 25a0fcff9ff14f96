// Package tui is the terminal chat client built on tview.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/hrchat/internal/bus"
	"github.com/matheus3301/hrchat/internal/chat"
	"github.com/matheus3301/hrchat/internal/client"
	"github.com/matheus3301/hrchat/internal/directory"
	"github.com/matheus3301/hrchat/internal/status"
	"github.com/matheus3301/hrchat/internal/tui/keys"
	"github.com/matheus3301/hrchat/internal/tui/model"
	"github.com/matheus3301/hrchat/internal/tui/ui"
	"github.com/matheus3301/hrchat/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	pagePeers   = "peers"
	pageThread  = "thread"
	pageSearch  = "search"
	pageDetails = "details"
	pageHelp    = "help"
)

// Options are the collaborators of the terminal app.
type Options struct {
	Profile   string
	RelayURL  string
	Self      directory.Self
	Session   *chat.Session
	Transport *client.Transport
	Bus       *bus.Bus
	Searcher  model.Searcher
	Directory *directory.Client
	Logger    *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app    *tview.Application
	screen tcell.Screen
	opts   Options
	theme  *ui.Theme
	vm     *model.ViewModel
	keys   *keys.Registry

	layout   *tview.Flex
	body     *tview.Flex
	pages    *ui.Pages
	prompt   *ui.Prompt
	flash    *ui.FlashModel
	flashBar *ui.FlashBar
	crumbs   *ui.Crumbs
	menu     *ui.Menu
	info     *ui.ProfileInfo

	peers   *views.PeerList
	thread  *views.MessageThread
	search  *views.SearchView
	details *views.PeerInfo
	help    *views.HelpView

	started   time.Time
	connected atomic.Bool
	dirty     atomic.Bool
	promptOn  bool
	detailsOf string
}

// NewApp builds the widget tree. Nothing is drawn until Run.
func NewApp(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	theme := ui.DefaultTheme()
	a := &App{
		app:      tview.NewApplication(),
		opts:     opts,
		theme:    theme,
		vm:       model.NewViewModel(opts.Session, opts.Searcher),
		keys:     keys.NewRegistry(),
		pages:    ui.NewPages(),
		prompt:   ui.NewPrompt(theme),
		flash:    ui.NewFlashModel(),
		flashBar: ui.NewFlashBar(theme),
		crumbs:   ui.NewCrumbs(theme),
		menu:     ui.NewMenu(theme),
		info:     ui.NewProfileInfo(theme),
		peers:    views.NewPeerList(theme),
		thread:   views.NewMessageThread(theme),
		search:   views.NewSearchView(theme),
		details:  views.NewPeerInfo(theme),
		help:     views.NewHelpView(theme),
		started:  time.Now(),
	}

	a.search.SetPeerNames(opts.Session.UserID(), a.vm.PeerName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) component(page string) ui.Component {
	switch page {
	case pageThread:
		return a.thread
	case pageSearch:
		return a.search
	case pageDetails:
		return a.details
	case pageHelp:
		return a.help
	}
	return a.peers
}

func (a *App) setupBindings() {
	a.keys.AddGlobal("quit", &keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Handler: func() {
			if a.pages.Depth() > 1 {
				a.back()
				return
			}
			a.app.Stop()
		},
	})
	a.keys.AddGlobal("help", &keys.Action{
		Key: tcell.KeyRune, Rune: '?',
		Handler: func() { a.show(pageHelp) },
	})
	a.keys.AddGlobal("command", &keys.Action{
		Key: tcell.KeyRune, Rune: ':',
		Handler: func() { a.openPrompt(ui.PromptCommand) },
	})

	a.keys.AddView(pagePeers, "filter", &keys.Action{
		Key: tcell.KeyRune, Rune: '/',
		Handler: func() { a.openPrompt(ui.PromptFilter) },
	})
	a.keys.AddView(pagePeers, "details", &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Handler: func() { a.showDetails(a.peers.SelectedPeer()) },
	})
	a.keys.AddView(pagePeers, "reload", &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Handler: func() { go a.loadDirectory(context.Background()) },
	})
	for n := 1; n <= 9; n++ {
		a.keys.AddView(pagePeers, fmt.Sprintf("jump%d", n), &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n),
			Handler: func() {
				if id := a.peers.PeerByIndex(n); id != "" {
					a.openChat(id)
				}
			},
		})
	}

	a.keys.AddView(pageThread, "compose", &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.keys.AddView(pageThread, "delete", &keys.Action{
		Key: tcell.KeyRune, Rune: 'x',
		Handler: a.deleteSelected,
	})
	a.keys.AddView(pageThread, "details", &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Handler: func() { a.showDetails(a.thread.PeerID()) },
	})
	a.keys.AddView(pageDetails, "open", &keys.Action{
		Key: tcell.KeyEnter,
		Handler: func() {
			if a.detailsOf != "" {
				a.openChat(a.detailsOf)
			}
		},
	})
	a.keys.AddView(pageSearch, "results", &keys.Action{
		Key:     tcell.KeyTab,
		Handler: func() { a.app.SetFocus(a.search.Results()) },
	})
}

func (a *App) setupCallbacks() {
	a.peers.SetSelectedFunc(func(row, _ int) {
		if id := a.peers.PeerByIndex(row); id != "" {
			a.openChat(id)
		}
	})

	a.thread.SetOnSend(func(text string) {
		peer := a.thread.PeerID()
		if peer == "" {
			return
		}
		m, err := a.opts.Session.Send(peer, text)
		switch {
		case err != nil:
			a.flash.Err(err)
		case !a.connected.Load():
			a.flash.Warn("Offline: message queued until the relay is back")
		case m.Status == status.Pending:
			a.flash.Info(a.vm.PeerName(peer) + " is offline, message will be sent when they join")
		}
		a.refresh()
	})

	a.search.SetOnQuery(func(q string) {
		ref, query := ParseSearch(q)
		if query == "" {
			return
		}
		peer := ""
		if ref != "" {
			if peer = a.resolvePeer(ref); peer == "" {
				a.flash.Warn("No peer matches " + ref)
				a.refresh()
				return
			}
		}
		results, err := a.vm.Search(query, peer)
		if err != nil {
			a.flash.Err(err)
			a.refresh()
			return
		}
		a.search.Update(results)
		a.app.SetFocus(a.search.Results())
	})
	a.search.Results().SetSelectedFunc(func(_, _ int) {
		if peer, _ := a.search.SelectedResult(); peer != "" {
			a.openChat(peer)
		}
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.closePrompt()
		switch mode {
		case ui.PromptFilter:
			a.peers.SetFilter(text)
			a.refresh()
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(a.closePrompt)

	a.pages.SetOnChange(a.onPageChange)
	a.crumbs.SetLabeler(func(page string) string {
		if page == pageThread {
			return a.thread.Name()
		}
		return a.component(page).Name()
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage(pagePeers, a.peers, true, false)
	a.pages.AddPage(pageThread, a.thread, true, false)
	a.pages.AddPage(pageSearch, a.search, true, false)
	a.pages.AddPage(pageDetails, a.details, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)

	header := tview.NewFlex().
		AddItem(a.info, 0, 2, false).
		AddItem(a.menu, 0, 2, false).
		AddItem(ui.NewLogo(a.theme, "profile "+a.opts.Profile), 24, 0, false)

	a.body = tview.NewFlex().SetDirection(tview.FlexRow)
	a.body.AddItem(a.pages, 0, 1, true)

	footer := tview.NewFlex().
		AddItem(a.crumbs, 0, 1, false).
		AddItem(a.flashBar, 0, 2, false)

	a.layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 7, 0, false).
		AddItem(a.body, 0, 1, true).
		AddItem(footer, 1, 0, false)
	a.app.SetRoot(a.layout, true)

	a.pages.Reset(pagePeers)
	a.app.SetInputCapture(a.capture)
}

func (a *App) capture(ev *tcell.EventKey) *tcell.EventKey {
	if a.promptOn {
		return ev
	}
	page := a.pages.Current()

	if input, ok := a.app.GetFocus().(*tview.InputField); ok {
		if ev.Key() == tcell.KeyEscape {
			switch input {
			case a.thread.Composer():
				a.app.SetFocus(a.thread.Messages())
			default:
				a.back()
			}
			return nil
		}
		return ev
	}

	if ev.Key() == tcell.KeyEscape {
		switch {
		case page == pagePeers && a.peers.Filter() != "":
			a.peers.SetFilter("")
			a.refresh()
		case a.pages.Depth() > 1:
			a.back()
		}
		return nil
	}

	if a.keys.HandleEvent(page, ev) {
		return nil
	}
	return ev
}

func (a *App) openPrompt(mode ui.PromptMode) {
	if a.promptOn {
		return
	}
	a.promptOn = true
	a.prompt.Activate(mode)
	a.body.Clear()
	a.body.AddItem(a.prompt, 3, 0, true)
	a.body.AddItem(a.pages, 0, 1, false)
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	if !a.promptOn {
		return
	}
	a.promptOn = false
	a.body.Clear()
	a.body.AddItem(a.pages, 0, 1, true)
	a.focusPage()
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.app.Stop()
	case "help":
		a.show(pageHelp)
	case "chat":
		if id := a.resolvePeer(cmd.Args); id != "" {
			a.openChat(id)
		} else {
			a.flash.Warn("No peer matches " + cmd.Args)
		}
	case "search":
		a.show(pageSearch)
		if cmd.Args != "" {
			a.search.Submit(cmd.Args)
		}
	case "delete":
		a.deleteSelected()
	case "reload":
		go a.loadDirectory(context.Background())
	default:
		a.flash.Warn("Unknown command: " + cmd.Name)
	}
	a.refresh()
}

// resolvePeer matches ref against ids, then names, then name prefixes.
func (a *App) resolvePeer(ref string) string {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return ""
	}
	peers := a.vm.Peers("")
	for _, p := range peers {
		if strings.ToLower(p.ID) == ref {
			return p.ID
		}
	}
	for _, p := range peers {
		if strings.ToLower(p.Name) == ref {
			return p.ID
		}
	}
	for _, p := range peers {
		if strings.HasPrefix(strings.ToLower(p.Name), ref) {
			return p.ID
		}
	}
	return ""
}

func (a *App) show(page string) {
	a.pages.Push(page)
	a.focusPage()
	a.refresh()
}

func (a *App) back() {
	a.pages.Pop()
	a.focusPage()
	a.refresh()
}

func (a *App) focusPage() {
	switch a.pages.Current() {
	case pageThread:
		a.app.SetFocus(a.thread.Messages())
	case pageSearch:
		a.app.SetFocus(a.search.Input())
	case pageDetails:
		a.app.SetFocus(a.details)
	case pageHelp:
		a.app.SetFocus(a.help)
	default:
		a.app.SetFocus(a.peers)
	}
}

// onPageChange keeps the session's notion of focus in step with what is on
// screen: the open conversation counts as focused only while its page is on top.
func (a *App) onPageChange(stack []string) {
	s := a.opts.Session
	top := stack[len(stack)-1]
	switch {
	case top == pageThread:
		s.SetWindowFocus(true)
	case containsPage(stack, pageThread):
		s.SetWindowFocus(false)
	default:
		s.CloseConversation()
		s.SetWindowFocus(true)
	}
	a.crumbs.Update(stack)
}

func containsPage(stack []string, page string) bool {
	for _, p := range stack {
		if p == page {
			return true
		}
	}
	return false
}

func (a *App) openChat(peer string) {
	a.pages.Reset(pagePeers)
	a.thread.SetPeer(peer, a.vm.PeerName(peer), a.opts.Session.Online(peer))
	a.opts.Session.OpenConversation(peer)
	a.show(pageThread)
}

func (a *App) showDetails(peer string) {
	if peer == "" {
		return
	}
	a.detailsOf = peer
	a.show(pageDetails)
}

func (a *App) deleteSelected() {
	if a.pages.Current() != pageThread {
		return
	}
	line, ok := a.thread.SelectedMessage()
	if !ok {
		return
	}
	err := a.opts.Session.RequestDelete(line.ID)
	switch {
	case err == nil:
		a.flash.Info("Delete requested")
	case errors.Is(err, chat.ErrNotOwner):
		a.flash.Warn("You can only delete your own messages")
	case errors.Is(err, chat.ErrAlreadyRead):
		a.flash.Warn("Already read, cannot delete")
	case errors.Is(err, chat.ErrCannotDelete):
		a.flash.Warn("The recipient refused to delete this message")
	case errors.Is(err, chat.ErrDeleteInFlight):
		a.flash.Info("Delete already in progress")
	default:
		a.flash.Err(err)
	}
	a.refresh()
}

// refresh re-renders every view from the session. It must run on the UI goroutine.
func (a *App) refresh() {
	a.peers.Update(a.vm.Peers(a.peers.Filter()))

	if peer := a.thread.PeerID(); peer != "" {
		a.thread.SetPeer(peer, a.vm.PeerName(peer), a.opts.Session.Online(peer))
		a.thread.Update(a.vm.Thread(peer))
	}
	if a.detailsOf != "" {
		a.details.Update(a.peerRow(a.detailsOf), len(a.opts.Session.Conversation(a.detailsOf)))
	}

	a.info.Update(&ui.ProfileData{
		Profile:   a.opts.Profile,
		User:      a.vm.PeerName(a.opts.Session.UserID()),
		Relay:     a.opts.RelayURL,
		Connected: a.connected.Load(),
		Online:    len(a.opts.Session.OnlineUsers()),
		Unread:    a.vm.TotalUnread(),
		Messages:  a.vm.MessageCount(),
		Uptime:    time.Since(a.started),
	})
	a.menu.Update(a.component(a.pages.Current()).Hints())
	a.flashBar.Update(a.flash.Current())
}

func (a *App) peerRow(id string) model.Peer {
	for _, p := range a.vm.Peers("") {
		if p.ID == id {
			return p
		}
	}
	return model.Peer{ID: id, Name: a.vm.PeerName(id)}
}

// scheduleRefresh coalesces redraw requests from background goroutines.
func (a *App) scheduleRefresh() {
	if a.dirty.Swap(true) {
		return
	}
	a.app.QueueUpdateDraw(func() {
		a.dirty.Store(false)
		a.refresh()
	})
}

func (a *App) watch(ctx context.Context) {
	events, unsub := a.opts.Bus.Subscribe("", 256)
	defer unsub()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.scheduleRefresh()
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.handleEvent(evt)
			a.scheduleRefresh()
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case KindAlert:
		if a.screen != nil {
			_ = a.screen.Beep()
		}
	case KindMessage:
		if n, ok := evt.Payload.(chat.Notification); ok {
			a.flash.Incoming(n.FromName, n.Text)
		}
	case client.KindConnection:
		if c, ok := evt.Payload.(client.ConnectionChanged); ok {
			was := a.connected.Swap(c.Connected)
			switch {
			case c.Connected && !was:
				a.flash.Info("Connected to relay")
			case !c.Connected && was:
				a.flash.Warn("Disconnected from relay, reconnecting")
			}
		}
	case chat.KindDeleteRejected:
		a.flash.Warn("The recipient refused to delete a message")
	}
}

func (a *App) loadDirectory(ctx context.Context) {
	d := a.opts.Directory
	if d == nil {
		return
	}
	if cached, err := d.Cached(a.opts.Self.ID); err == nil && len(cached) > 0 {
		a.vm.SetContacts(cached)
		a.scheduleRefresh()
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	contacts, err := d.All(ctx, a.opts.Self)
	if err != nil {
		a.opts.Logger.Warn("load directory", zap.Error(err))
		a.flash.Warn("Directory unavailable, showing cached and online users")
		a.scheduleRefresh()
		return
	}
	a.vm.SetContacts(contacts)
	a.scheduleRefresh()
}

// Run draws the UI until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	a.screen = screen
	a.app.SetScreen(screen)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.watch(ctx)
	go a.loadDirectory(ctx)
	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()

	a.connected.Store(a.opts.Transport != nil && a.opts.Transport.Connected())
	a.refresh()
	return a.app.Run()
}
