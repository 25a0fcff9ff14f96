package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matheus3301/hrchat/internal/chat"
	"github.com/matheus3301/hrchat/internal/client"
	"github.com/matheus3301/hrchat/internal/config"
	"github.com/matheus3301/hrchat/internal/local"
	"github.com/matheus3301/hrchat/internal/store"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", "", "config file (default ~/.hrchat/config.toml)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	limitFlag := flag.Int("n", 20, "maximum rows for history and search")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	config.LoadDotEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	env, err := local.Open(ctx, local.Options{
		Profile:    *profileFlag,
		ConfigPath: *configFlag,
		Component:  "chatctl",
		Lock:       args[0] == "send",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = env.Close() }()

	switch args[0] {
	case "whoami":
		cmdWhoami(env, *jsonFlag)
	case "roster":
		cmdRoster(ctx, env, *jsonFlag)
	case "contacts":
		refresh := len(args) >= 2 && args[1] == "--refresh"
		cmdContacts(ctx, env, refresh, *jsonFlag)
	case "unread":
		cmdUnread(env, *jsonFlag)
	case "history":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: chatctl history <peer>")
			os.Exit(1)
		}
		cmdHistory(env, args[1], *limitFlag, *jsonFlag)
	case "search":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: chatctl search [@peer] <text>")
			os.Exit(1)
		}
		cmdSearch(env, strings.Join(args[1:], " "), *limitFlag, *jsonFlag)
	case "send":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: chatctl send <peer> <text>")
			os.Exit(1)
		}
		cmdSend(ctx, env, args[1], strings.Join(args[2:], " "), *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatctl [--profile <name>] [--json] [-n <rows>] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  whoami                 Show the local identity")
	fmt.Fprintln(os.Stderr, "  roster                 List users online on the relay")
	fmt.Fprintln(os.Stderr, "  contacts [--refresh]   List directory contacts")
	fmt.Fprintln(os.Stderr, "  unread                 Show unread counts per peer")
	fmt.Fprintln(os.Stderr, "  history <peer>         Show the latest messages with a peer")
	fmt.Fprintln(os.Stderr, "  search [@peer] <text>  Search local history")
	fmt.Fprintln(os.Stderr, "  send <peer> <text>     Send a message")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func cmdWhoami(env *local.Env, jsonOut bool) {
	out := map[string]string{
		"profile": env.Profile,
		"id":      env.Self.ID,
		"name":    env.Config.Client.DisplayName(),
		"relay":   env.Config.Client.RelayURL,
	}
	if jsonOut {
		outputJSON(out)
		return
	}
	fmt.Printf("Profile: %s\n", out["profile"])
	fmt.Printf("User:    %s (%s)\n", out["name"], out["id"])
	fmt.Printf("Relay:   %s\n", out["relay"])
}

func cmdRoster(ctx context.Context, env *local.Env, jsonOut bool) {
	roster, err := client.FetchRoster(ctx, nil, env.Config.Client.RelayURL)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(roster)
		return
	}
	if len(roster) == 0 {
		fmt.Println("Nobody is online.")
		return
	}
	for _, e := range roster {
		marker := ""
		if e.ID == env.Self.ID {
			marker = " (you)"
		}
		fmt.Printf("%-30s %s%s\n", e.ID, e.Name, marker)
	}
}

func cmdContacts(ctx context.Context, env *local.Env, refresh bool, jsonOut bool) {
	var (
		contacts []store.Contact
		err      error
	)
	switch {
	case refresh && env.Directory == nil:
		fail(fmt.Errorf("client.directory_url is not configured"))
	case refresh:
		contacts, err = env.Directory.All(ctx, env.Self)
	default:
		contacts, err = env.DB.ListContacts(env.Self.ID)
	}
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(contacts)
		return
	}
	if len(contacts) == 0 {
		fmt.Println("No contacts cached. Use contacts --refresh.")
		return
	}
	for _, c := range contacts {
		fmt.Printf("%-30s %-24s %s\n", c.ID, c.Name, c.Email)
	}
}

func cmdUnread(env *local.Env, jsonOut bool) {
	counts := env.Session.UnreadCounts()
	if jsonOut {
		outputJSON(counts)
		return
	}
	if len(counts) == 0 {
		fmt.Println("No unread messages.")
		return
	}
	for peer, n := range counts {
		fmt.Printf("%-30s %d\n", peer, n)
	}
}

func cmdHistory(env *local.Env, peer string, limit int, jsonOut bool) {
	msgs, err := env.DB.ListConversation(env.Self.ID, peer, limit)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(msgs)
		return
	}
	if len(msgs) == 0 {
		fmt.Printf("No messages with %s.\n", peer)
		return
	}
	for _, m := range msgs {
		fmt.Printf("%s  %-20s %-9s %s\n", formatTime(m.Time), m.From, m.Status, m.Text)
	}
}

func cmdSearch(env *local.Env, query string, limit int, jsonOut bool) {
	var peer string
	if strings.HasPrefix(query, "@") {
		peer, query, _ = strings.Cut(query[1:], " ")
	}
	results, err := env.DB.SearchMessages(env.Self.ID, strings.TrimSpace(query), peer, limit)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, r := range results {
		fmt.Printf("%s  %-20s %s\n", formatTime(r.Message.Time), r.Message.Peer(env.Self.ID), r.Snippet)
	}
}

// cmdSend joins the relay long enough to see one roster, then sends. An
// offline recipient leaves the message pending in history; the next
// chattui session delivers it.
func cmdSend(ctx context.Context, env *local.Env, peer, text string, jsonOut bool) {
	presence, unsubscribe := env.Bus.Subscribe(chat.KindPresenceChanged, 8)
	defer unsubscribe()

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- env.Transport.RunOnce(runCtx, env.Session) }()

	joined := false
	for !joined {
		select {
		case <-presence:
			joined = env.Transport.Connected()
		case err := <-done:
			stop()
			fail(fmt.Errorf("relay: %w", err))
		case <-ctx.Done():
			stop()
			fail(ctx.Err())
		}
	}

	m, err := env.Session.Send(peer, text)
	stop()
	<-done
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(m)
		return
	}
	fmt.Printf("%s %s to %s\n", m.ID, m.Status, peer)
}

func formatTime(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
