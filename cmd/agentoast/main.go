package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentoast/internal/app"
	"agentoast/internal/config"
	logx "agentoast/pkg/logx"
	"agentoast/pkg/systemd"
)

const usage = `usage: agentoast <command> [flags]

commands:
  daemon   run the notification watcher and toast queue
  send     store a notification (prints a JSON result)
  list     print stored notifications grouped by repository
  clear    delete notifications
  config   open the config file in $EDITOR (created when missing)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var code int
	switch cmd {
	case "daemon":
		code = runDaemon(ctx, args)
	case "send":
		code = runSend(ctx, args)
	case "list":
		code = runList(ctx, args)
	case "clear":
		code = runClear(ctx, args)
	case "config":
		code = runConfig(ctx, args)
	case "-h", "--help", "help":
		fmt.Fprint(logx.Stdout(), usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		code = 2
	}
	cancel()
	os.Exit(code)
}

func runDaemon(ctx context.Context, args []string) int {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Println("fatal:", err)
		return 1
	}
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	cfgPath := fs.String("config", env.ConfigFile(), "path to config yaml or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if created, err := config.EnsureFile(*cfgPath); err != nil {
		fmt.Println("warning: could not write default config:", err)
	} else if created {
		fmt.Println("wrote default config to", *cfgPath)
	}

	a, err := app.New(ctx, *cfgPath, env)
	if err != nil {
		fmt.Println("fatal:", err)
		return 1
	}
	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(stopCtx)
		return 1
	}
	_, _ = systemd.Ready()
	_, _ = systemd.Status("watching " + a.Settings().DBPath)

	select {
	case <-ctx.Done():
	case <-a.Done():
	}
	_, _ = systemd.Stopping()

	fatal := a.Err()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil && !errors.Is(err, context.Canceled) && fatal == nil {
		fatal = err
	}
	if fatal != nil {
		fmt.Println("fatal:", fatal)
		return 1
	}
	return 0
}
