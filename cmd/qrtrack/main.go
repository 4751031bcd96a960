// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command qrtrack serves tracked QR code links and manages them from
// the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/unixdj/qrtrack"
	"github.com/unixdj/qrtrack/internal/analytics"
	"github.com/unixdj/qrtrack/internal/api"
	"github.com/unixdj/qrtrack/internal/config"
	"github.com/unixdj/qrtrack/internal/link"
	"github.com/unixdj/qrtrack/internal/store"
)

func main() {
	log.SetFlags(0)
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "qrtrack",
		Usage:   "tracked QR code links",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
				Value:   "qrtrack.conf.json",
				EnvVars: []string{"QRTRACK_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve redirects and the admin API",
				Action: serve,
			},
			{
				Name:      "add",
				Usage:     "add a link",
				ArgsUsage: "SLUG URL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "display name [slug]"},
					&cli.StringFlag{Name: "description"},
					&cli.BoolFlag{Name: "inactive", Usage: "do not redirect yet"},
				},
				Action: add,
			},
			{
				Name:  "list",
				Usage: "list links, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: store.DefaultLimit},
					&cli.IntFlag{Name: "offset"},
				},
				Action: list,
			},
			{
				Name:      "delete",
				Usage:     "delete a link and its clicks",
				ArgsUsage: "ID",
				Action:    remove,
			},
			{
				Name:      "svg",
				Usage:     "write a link's QR code as SVG",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"},
						Usage: "write to `FILE` instead of standard output"},
					&cli.IntFlag{Name: "size", Usage: "width in pixels [download size]"},
				},
				Action: writeSVG,
			},
			{
				Name:  "stats",
				Usage: "show click statistics",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "link", Usage: "report on link `ID` only"},
					&cli.IntFlag{Name: "days", Value: 30, Usage: "report period"},
					&cli.IntFlag{Name: "top", Value: 10, Usage: "number of top links"},
				},
				Action: stats,
			},
		},
	}
}

// open loads the configuration and opens the store.
func open(c *cli.Context) (config.Config, *store.Store, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, nil, err
	}
	st, err := store.Open(cfg.DataFile)
	return cfg, st, err
}

func argID(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, cli.Exit("expected a link ID", 2)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, cli.Exit(fmt.Sprintf("%q: bad link ID", c.Args().First()), 2)
	}
	return id, nil
}

func serve(c *cli.Context) error {
	cfg, st, err := open(c)
	if err != nil {
		return err
	}
	defer st.Close()
	lg := cfg.Logger()
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.New(cfg, st, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	lg.Infof("listening on %s, base URL %s", cfg.Addr, cfg.BaseURL)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	lg.Infof("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func add(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("expected SLUG and URL", 2)
	}
	cfg, st, err := open(c)
	if err != nil {
		return err
	}
	defer st.Close()
	l := link.Link{
		Name:           c.String("name"),
		Slug:           c.Args().Get(0),
		DestinationURL: c.Args().Get(1),
		Description:    c.String("description"),
		Active:         !c.Bool("inactive"),
	}
	if l.Name == "" {
		l.Name = l.Slug
	}
	if err := st.Create(&l); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d\t%s\n", l.ID, link.QRURL(cfg.BaseURL, l.Slug))
	return nil
}

func list(c *cli.Context) error {
	cfg, st, err := open(c)
	if err != nil {
		return err
	}
	defer st.Close()
	tw := tabwriter.NewWriter(c.App.Writer, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tACTIVE\tCREATED\tQR URL\tDESTINATION")
	for _, l := range st.List(c.Int("limit"), c.Int("offset")) {
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\t%s\t%s\n", l.ID, l.Slug, l.Active,
			l.CreatedAt.Format(time.DateOnly),
			link.QRURL(cfg.BaseURL, l.Slug), l.DestinationURL)
	}
	return tw.Flush()
}

func remove(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	_, st, err := open(c)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Delete(id)
}

func writeSVG(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, st, err := open(c)
	if err != nil {
		return err
	}
	defer st.Close()
	l, err := st.Get(id)
	if err != nil {
		return err
	}
	o := cfg.DownloadOptions()
	if c.IsSet("size") {
		o.Size = c.Int("size")
	}
	svg, err := qr.EncodeSVG(link.QRURL(cfg.BaseURL, l.Slug), o)
	if err != nil {
		return err
	}
	if fn := c.String("output"); fn != "" && fn != "-" {
		return os.WriteFile(fn, svg, 0666)
	}
	_, err = c.App.Writer.Write(svg)
	return err
}

func stats(c *cli.Context) error {
	_, st, err := open(c)
	if err != nil {
		return err
	}
	defer st.Close()
	id := c.Int64("link")
	links := st.Links()
	if id != 0 {
		l, err := st.Get(id)
		if err != nil {
			return err
		}
		links = []link.Link{l}
	}
	now := time.Now().UTC()
	f := analytics.DayRange(id, now.AddDate(0, 0, -c.Int("days")), now)
	r := analytics.NewReport(f, links, st.Clicks(f))
	printReport(c.App.Writer, r)
	if id == 0 {
		fmt.Fprintln(c.App.Writer, "\nTop links:")
		tw := tabwriter.NewWriter(c.App.Writer, 0, 8, 2, ' ', 0)
		for _, lc := range analytics.Top(links, st.Clicks(analytics.Filter{}), c.Int("top")) {
			fmt.Fprintf(tw, "  %d\t%s\t%d\n", lc.ID, lc.Slug, lc.Clicks)
		}
		tw.Flush()
	}
	return nil
}

func printReport(w io.Writer, r *analytics.Report) {
	fmt.Fprintf(w, "%s to %s\n", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	fmt.Fprintf(w, "codes %d (%d active), clicks %d, unique visitors %d\n",
		r.Totals.Codes, r.Totals.Active, r.Totals.Clicks, r.Totals.Visitors)
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, sec := range []struct {
		title  string
		counts []analytics.Count
	}{
		{"By day", r.ByDay},
		{"By device", r.ByDevice},
		{"By country", r.ByCountry},
		{"By browser", r.ByBrowser},
	} {
		if len(sec.counts) == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s:\n", sec.title)
		for _, n := range sec.counts {
			key := n.Key
			if key == "" {
				key = analytics.Unknown
			}
			fmt.Fprintf(tw, "  %s\t%d\n", key, n.Clicks)
		}
	}
	tw.Flush()
}
