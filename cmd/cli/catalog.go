package main

import (
	"flag"
	"fmt"
	"strings"

	"seriesjp/pkg/models"
)

func (a *app) handleCatalog(kind, sub string, args []string) {
	name := "movies"
	if kind == models.KindSeries {
		name = "series"
	}

	switch sub {
	case "popular":
		fs := flag.NewFlagSet(name+" popular", flag.ExitOnError)
		page := fs.Int("page", 1, "page number")
		asJSON := fs.Bool("json", false, "print raw JSON")
		_ = fs.Parse(args)

		ctx, cancel := a.timeout()
		defer cancel()
		feed, err := a.catalog.Popular(ctx, kind, *page)
		if err != nil {
			a.log.Fatalf("popular failed: %v", err)
		}
		if *asJSON {
			printJSON(feed)
			return
		}
		if feed.Stale {
			fmt.Println("(catalog unreachable, showing the last list we had)")
		}
		printTitles(feed.Results)
		fmt.Printf("page %d/%d\n", feed.Page.Page, feed.TotalPages)
	case "search":
		fs := flag.NewFlagSet(name+" search", flag.ExitOnError)
		query := fs.String("q", "", "search query (empty shows popular)")
		page := fs.Int("page", 1, "page number")
		asJSON := fs.Bool("json", false, "print raw JSON")
		_ = fs.Parse(args)

		ctx, cancel := a.timeout()
		defer cancel()
		feed, err := a.catalog.Search(ctx, kind, *query, *page)
		if err != nil {
			a.log.Fatalf("search failed: %v", err)
		}
		if *asJSON {
			printJSON(feed)
			return
		}
		printTitles(feed.Results)
	case "show":
		id := a.idArg(name+" show", args)
		ctx, cancel := a.timeout()
		defer cancel()
		t, err := a.api.Details(ctx, kind, id)
		if err != nil {
			a.log.Fatalf("show failed: %v", err)
		}
		printJSON(t)
	case "recommend":
		id := a.idArg(name+" recommend", args)
		ctx, cancel := a.timeout()
		defer cancel()
		page, err := a.catalog.Recommendations(ctx, kind, id)
		if err != nil {
			a.log.Fatalf("recommendations failed: %v", err)
		}
		printTitles(page.Results)
	case "providers":
		fs := flag.NewFlagSet(name+" providers", flag.ExitOnError)
		id := fs.Int64("id", 0, "title id")
		region := fs.String("region", "", "ISO country code (server default when empty)")
		_ = fs.Parse(args)

		if *id <= 0 {
			a.log.Fatal("id is required")
		}
		ctx, cancel := a.timeout()
		defer cancel()
		rp, err := a.catalog.Providers(ctx, kind, *id, *region)
		if err != nil {
			a.log.Fatalf("providers failed: %v", err)
		}
		if len(rp.Flatrate) == 0 {
			fmt.Printf("not on any subscription service in %s\n", rp.Region)
			return
		}
		names := make([]string, 0, len(rp.Flatrate))
		for _, p := range rp.Flatrate {
			names = append(names, p.Name)
		}
		fmt.Printf("%s: %s\n", rp.Region, strings.Join(names, ", "))
	default:
		a.log.Fatalf("usage: seriesjp %s <popular|search|show|recommend|providers>", name)
	}
}

// idArg reads -id from a one-flag subcommand.
func (a *app) idArg(name string, args []string) int64 {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	id := fs.Int64("id", 0, "title id")
	_ = fs.Parse(args)
	if *id <= 0 {
		a.log.Fatal("id is required")
	}
	return *id
}

func printTitles(items []models.Title) {
	for _, t := range items {
		year := ""
		if len(t.ReleaseDate) >= 4 {
			year = " (" + t.ReleaseDate[:4] + ")"
		}
		fmt.Printf("%8d  %s%s  %.1f\n", t.ID, t.Title, year, t.VoteAverage)
	}
}
