package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/samvad-hq/locinfo/internal/app"
	"github.com/samvad-hq/locinfo/internal/config"
	"github.com/samvad-hq/locinfo/internal/logger"
	"github.com/samvad-hq/locinfo/internal/render"
)

const topNews = 3

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "locinfo: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	flags := pflag.NewFlagSet("locinfo", pflag.ContinueOnError)
	location := flags.StringP("location", "l", "", "country, capital or alternate name to look up")
	refresh := flags.Bool("refresh", false, "refresh stale caches before answering")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *refresh {
		collector, err := app.NewCollector(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("init collector: %w", err)
		}
		runErr := collector.RunOnce(ctx)
		_ = collector.Close()
		if runErr != nil {
			// Stale data is still worth showing.
			log.WarnObj("refresh incomplete", "error", runErr.Error())
		}
	}

	query := strings.TrimSpace(*location)
	if query == "" {
		if query, err = prompt(in, out); err != nil {
			return err
		}
	}

	q, err := app.NewQuery(cfg, log)
	if err != nil {
		return fmt.Errorf("init query: %w", err)
	}
	info, err := q.Find(ctx, query)
	if err != nil {
		return err
	}

	heading := color.New(color.FgCyan, color.Bold)
	if info == nil {
		color.New(color.FgYellow).Fprintln(out, "No information available.")
		return nil
	}

	heading.Fprintln(out, "Location report:")
	if err := render.Report(out, info, time.Now()); err != nil {
		return err
	}
	fmt.Fprintln(out)

	heading.Fprintln(out, "Latest news:")
	n, err := render.TopNews(out, info.News, topNews)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(out, "No news for this country.")
	}
	return nil
}

func prompt(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Location: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read location: %w", err)
	}
	return strings.TrimSpace(line), nil
}
