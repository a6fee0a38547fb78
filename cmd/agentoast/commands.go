package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"agentoast/internal/config"
	"agentoast/internal/notification"
	"agentoast/internal/producer"
	"agentoast/internal/storage"
	logx "agentoast/pkg/logx"
)

// metaFlag collects repeated --meta KEY=VALUE flags.
type metaFlag []string

func (m *metaFlag) String() string     { return strings.Join(*m, ",") }
func (m *metaFlag) Set(v string) error { *m = append(*m, v); return nil }

// loadSettings resolves settings for the short-lived commands. A broken
// config file falls back to defaults so hooks keep working.
func loadSettings(log logx.Logger) (config.Settings, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return config.Settings{}, err
	}
	cfg, err := config.NewConfigManager(env.ConfigFile()).Load()
	if err == nil {
		s, rerr := config.Resolve(cfg, env)
		if rerr == nil {
			return s, nil
		}
		err = rerr
	}
	log.Warn("config unusable; using defaults", logx.String("path", env.ConfigFile()), logx.Err(err))
	return config.Resolve(nil, env)
}

func storeConfig(s config.Settings) storage.Config {
	return storage.Config{Path: s.DBPath, BusyTimeout: s.BusyTimeout}
}

func runSend(ctx context.Context, args []string) int {
	log := logx.NewConsole("warn").With(logx.String("comp", "send"))

	var (
		opts producer.Options
		meta metaFlag
	)
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.StringVar(&opts.Badge, "badge", "", "badge text, e.g. Stop")
	fs.StringVar(&opts.Body, "body", "", "notification body")
	fs.StringVar(&opts.BadgeColor, "badge-color", "gray", "green, blue, red or gray")
	fs.StringVar(&opts.Icon, "icon", "agentoast", "agentoast, claude-code, codex or opencode")
	fs.StringVar(&opts.Group, "group", "", "group key (defaults to the git repository name)")
	fs.StringVar(&opts.Channel, "channel", "", "tmux pane id (defaults to $TMUX_PANE)")
	fs.StringVar(&opts.TerminalID, "terminal", "", "terminal bundle id (defaults to $__CFBundleIdentifier)")
	fs.BoolVar(&opts.Focus, "focus", false, "switch to the originating pane instead of only showing a toast")
	fs.Var(&meta, "meta", "KEY=VALUE metadata (repeatable)")
	noGit := fs.Bool("no-git", false, "skip git repository detection")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	opts.Meta = meta

	fail := func(err error) int {
		fmt.Println(producer.Result{Error: err.Error()}.JSON())
		return 1
	}

	env, err := producer.LoadEnv()
	if err != nil {
		return fail(err)
	}
	if wd, err := os.Getwd(); err == nil {
		opts.Dir = wd
	}
	var git producer.Git = producer.ExecGit{}
	if *noGit {
		git = nil
	}
	in, warns, err := producer.Prepare(ctx, opts, env, git)
	if err != nil {
		return fail(err)
	}

	settings, err := loadSettings(log)
	if err != nil {
		return fail(err)
	}
	store, err := storage.OpenProducer(ctx, storeConfig(settings), log)
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	res := producer.Send(ctx, store, in)
	res.Warnings = warns
	fmt.Println(res.JSON())
	if !res.Success {
		return 1
	}
	return 0
}

func runList(ctx context.Context, args []string) int {
	log := logx.NewConsole("warn").With(logx.String("comp", "list"))

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("limit", storage.DefaultListLimit, "maximum notifications to read")
	groupLimit := fs.Int("group-limit", 0, "items shown per group (0 uses panel.group_limit)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	settings, err := loadSettings(log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	store, err := storage.OpenReader(ctx, storeConfig(settings), log)
	if errors.Is(err, storage.ErrNotInitialized) {
		fmt.Println("No notifications.")
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer store.Close()

	ns, err := store.List(ctx, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if len(ns) == 0 {
		fmt.Println("No notifications.")
		return 0
	}

	gl := *groupLimit
	if gl <= 0 {
		gl = settings.GroupLimit
	}
	now := time.Now()
	for _, g := range notification.GroupByKey(ns, gl) {
		key := g.Key
		if key == "" {
			key = "(ungrouped)"
		}
		fmt.Println(key)
		for _, n := range g.Items {
			fmt.Println("  " + notification.Line(n, now))
		}
		if g.Hidden > 0 {
			fmt.Printf("  ... %d more\n", g.Hidden)
		}
	}
	return 0
}

func runClear(ctx context.Context, args []string) int {
	log := logx.NewConsole("warn").With(logx.String("comp", "clear"))

	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	channel := fs.String("channel", "", "only delete the notification for this tmux pane")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	settings, err := loadSettings(log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	store, err := storage.OpenReader(ctx, storeConfig(settings), log)
	if errors.Is(err, storage.ErrNotInitialized) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer store.Close()

	if *channel != "" {
		latest, err := store.LatestByChannel(ctx, *channel)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		n, err := store.DeleteByChannel(ctx, *channel)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		if latest != nil {
			fmt.Println("  " + notification.Line(*latest, time.Now()))
		}
		fmt.Printf("Deleted %d notification(s).\n", n)
		return 0
	}
	if err := store.DeleteAll(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	fmt.Println("All notifications deleted.")
	return 0
}

// runConfig writes the default config when missing and opens it in the
// configured editor.
func runConfig(ctx context.Context, args []string) int {
	log := logx.NewConsole("warn").With(logx.String("comp", "config"))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	cfgPath := fs.String("config", env.ConfigFile(), "path to config yaml or json")
	printPath := fs.Bool("path", false, "print the config path instead of opening it")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if created, err := config.EnsureFile(*cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	} else if created {
		fmt.Println("wrote default config to", *cfgPath)
	}
	if *printPath {
		fmt.Println(*cfgPath)
		return 0
	}

	settings, err := loadSettings(log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	// The editor setting may carry arguments ("code -w"), so it goes through the shell.
	cmd := exec.CommandContext(ctx, "sh", "-c", settings.Editor+` "$1"`, "sh", *cfgPath)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to launch editor %q: %v\n", settings.Editor, err)
		return 1
	}
	return 0
}
