// overlayctl drives a running overlay through its control API.
// Usage: overlayctl [-addr http://localhost:8090] [-token T] <command> [args]
//
// Commands:
//
//	hide                      end the event on screen
//	reconnect                 force a relay reconnect
//	duration <ms>             set the display duration
//	panel show|hide|toggle    change the status panel
//	ready                     print the transport ready state
//	status                    print the monitor snapshot
//	health                    print the display server health
//	watch [url...]            poll the health of one or more overlays until interrupted
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rickgao/overlay-monitor/internal/api"
	"github.com/rickgao/overlay-monitor/internal/poller"
)

func main() {
	addr := flag.String("addr", "http://localhost:8090", "overlay display server URL")
	token := flag.String("token", os.Getenv("OVERLAY_TOKEN"), "control API token (default $OVERLAY_TOKEN)")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	interval := flag.Duration("interval", 5*time.Second, "watch poll interval")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	if flag.Arg(0) == "watch" {
		addrs := flag.Args()[1:]
		if len(addrs) == 0 {
			addrs = []string{*addr}
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := watch(ctx, addrs, *token, *interval, *timeout); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
			os.Exit(1)
		}
		return
	}

	client := api.NewClient(*addr, *token, api.WithTimeout(*timeout))

	ctx, cancel := context.WithTimeout(context.Background(), 3**timeout)
	defer cancel()

	if err := run(ctx, client, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: overlayctl [flags] hide|reconnect|duration <ms>|panel show|hide|toggle|ready|status|health|watch [url...]\n")
	flag.PrintDefaults()
}

func run(ctx context.Context, c *api.Client, args []string) error {
	switch cmd := args[0]; cmd {
	case "hide":
		if err := c.HideEvent(ctx); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("event hidden"))

	case "reconnect":
		if err := c.Reconnect(ctx); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("reconnect requested"))

	case "duration":
		if len(args) != 2 {
			return fmt.Errorf("duration needs a value in milliseconds")
		}
		ms, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || ms <= 0 {
			return fmt.Errorf("invalid duration %q", args[1])
		}
		if err := c.SetDisplayDuration(ctx, time.Duration(ms)*time.Millisecond); err != nil {
			return err
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("display duration set to %dms", ms)))

	case "panel":
		if len(args) != 2 {
			return fmt.Errorf("panel needs show, hide or toggle")
		}
		var err error
		switch args[1] {
		case "show":
			err = c.SetStatusPanel(ctx, true)
		case "hide":
			err = c.SetStatusPanel(ctx, false)
		case "toggle":
			err = c.ToggleStatusPanel(ctx)
		default:
			return fmt.Errorf("unknown panel action %q", args[1])
		}
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render("status panel: " + args[1]))

	case "ready":
		rs, err := c.ReadyState(ctx)
		if err != nil {
			return err
		}
		fmt.Println(readyLine(rs))

	case "status":
		s, err := c.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderStatus(s))

	case "health":
		h, err := c.Health(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderHealth(h))

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// watch prints one health line per overlay every interval until ctx ends.
func watch(ctx context.Context, addrs []string, token string, interval, timeout time.Duration) error {
	targets := make([]poller.Target, len(addrs))
	for i, a := range addrs {
		targets[i] = poller.Target{
			Name:   a,
			Client: api.NewClient(a, token, api.WithTimeout(timeout), api.WithRetries(0, 0)),
		}
	}

	p := poller.New(poller.Config{
		Interval:    interval,
		Concurrency: len(targets),
		Timeout:     timeout,
	}, targets, poller.ResultHandlerFunc(func(r poller.Result) error {
		fmt.Println(resultLine(r))
		return nil
	}), slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.Stop(stopCtx)
}
