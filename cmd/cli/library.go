package main

import (
	"errors"
	"flag"
	"fmt"
	"sort"
	"strconv"

	"seriesjp/internal/session"
	"seriesjp/pkg/models"
)

func (a *app) handleWatchlist(sub string, args []string) {
	switch sub {
	case "add":
		fs := flag.NewFlagSet("watchlist add", flag.ExitOnError)
		kindFlag := fs.String("kind", "", "movie or series")
		id := fs.Int64("id", 0, "title id")
		_ = fs.Parse(args)

		kind, err := kindArg(*kindFlag)
		if err != nil {
			a.log.Fatal(err)
		}
		if *id <= 0 {
			a.log.Fatal("id is required")
		}
		a.requireLogin()

		ctx, cancel := a.timeout()
		defer cancel()
		// snapshot the title as the catalog shows it right now
		t, err := a.api.Details(ctx, kind, *id)
		if err != nil {
			a.log.Fatalf("lookup title: %v", err)
		}
		e, err := a.api.AddToWatchlist(ctx, *t)
		if err != nil {
			a.fatalAPI("add failed", err)
		}
		fmt.Printf("added %s to your list\n", e.Title.Title)
	case "remove":
		kind, id := a.titleArgs("watchlist remove", args)
		a.requireLogin()
		ctx, cancel := a.timeout()
		defer cancel()
		if err := a.api.RemoveFromWatchlist(ctx, kind, id); err != nil {
			a.log.Fatalf("remove failed: %v", err)
		}
		fmt.Println("removed")
	case "list":
		fs := flag.NewFlagSet("watchlist list", flag.ExitOnError)
		kindFlag := fs.String("kind", "", "movie or series (both when empty)")
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		kind := ""
		if *kindFlag != "" {
			var err error
			if kind, err = kindArg(*kindFlag); err != nil {
				a.log.Fatal(err)
			}
		}
		a.requireLogin()
		ctx, cancel := a.timeout()
		defer cancel()
		page, err := a.api.Watchlist(ctx, kind, *limit, *offset)
		if err != nil {
			a.log.Fatalf("list failed: %v", err)
		}
		for _, e := range page.Items {
			fmt.Printf("%-6s %8d  %s\n", e.Kind, e.ID, e.Title.Title)
		}
		fmt.Printf("%d of %d\n", len(page.Items), page.Total)
	default:
		a.log.Fatal("usage: seriesjp watchlist <add|remove|list>")
	}
}

func (a *app) handleFavorites(sub string, args []string) {
	switch sub {
	case "add":
		fs := flag.NewFlagSet("favorites add", flag.ExitOnError)
		kindFlag := fs.String("kind", "", "movie or series")
		id := fs.Int64("id", 0, "title id")
		_ = fs.Parse(args)

		kind, err := kindArg(*kindFlag)
		if err != nil {
			a.log.Fatal(err)
		}
		if *id <= 0 {
			a.log.Fatal("id is required")
		}
		a.requireLogin()

		ctx, cancel := a.timeout()
		defer cancel()
		t, err := a.api.Details(ctx, kind, *id)
		if err != nil {
			a.log.Fatalf("lookup title: %v", err)
		}
		fav, err := a.api.PutFavorite(ctx, models.FavoriteFromTitle(*t))
		if err != nil {
			a.fatalAPI("favorite failed", err)
		}
		fmt.Printf("%s is now a favorite\n", fav.Title)
	case "remove":
		fs := flag.NewFlagSet("favorites remove", flag.ExitOnError)
		id := fs.Int64("id", 0, "title id")
		_ = fs.Parse(args)
		if *id <= 0 {
			a.log.Fatal("id is required")
		}
		a.requireLogin()
		ctx, cancel := a.timeout()
		defer cancel()
		if err := a.api.RemoveFavorite(ctx, fmt.Sprint(*id)); err != nil {
			a.log.Fatalf("remove failed: %v", err)
		}
		fmt.Println("removed")
	case "list":
		a.requireLogin()
		ctx, cancel := a.timeout()
		defer cancel()
		items, err := a.api.Favorites(ctx)
		if err != nil {
			a.log.Fatalf("list failed: %v", err)
		}
		for _, f := range items {
			fmt.Printf("%-8s %8s  %s\n", f.Type, f.ID, f.Title)
		}
	default:
		a.log.Fatal("usage: seriesjp favorites <add|remove|list>")
	}
}

func (a *app) handleRate(sub string, args []string) {
	switch sub {
	case "set":
		fs := flag.NewFlagSet("rate set", flag.ExitOnError)
		kindFlag := fs.String("kind", "", "movie or series")
		id := fs.Int64("id", 0, "title id")
		score := fs.Int("score", 0, "score from 1 to 10")
		_ = fs.Parse(args)

		kind, err := kindArg(*kindFlag)
		if err != nil {
			a.log.Fatal(err)
		}
		if *id <= 0 {
			a.log.Fatal("id is required")
		}
		if *score < models.MinScore || *score > models.MaxScore {
			a.log.Fatalf("score must be between %d and %d", models.MinScore, models.MaxScore)
		}
		a.requireLogin()

		ctx, cancel := a.timeout()
		defer cancel()
		if err := a.api.SetRating(ctx, kind, *id, *score); err != nil {
			a.fatalAPI("rate failed", err)
		}
		if err := a.sess.SetRating(kind, *id, *score); err != nil {
			a.log.WithError(err).Warn("rating saved remotely but not cached")
		}
		fmt.Printf("rated %d/10\n", *score)
	case "get":
		kind, id := a.titleArgs("rate get", args)

		var score int
		_, err := a.login()
		switch {
		case errors.Is(err, session.ErrUnreachable):
			a.log.WithError(err).Debug("server unreachable, using cached rating")
			score = a.sess.Rating(kind, id)
		case err != nil:
			a.log.Fatal("not signed in, run: seriesjp auth login")
		default:
			ctx, cancel := a.timeout()
			defer cancel()
			score, err = a.api.Rating(ctx, kind, id)
			if err != nil {
				a.log.WithError(err).Debug("remote rating unavailable, using cache")
				score = a.sess.Rating(kind, id)
			} else if score > 0 {
				_ = a.sess.SetRating(kind, id, score)
			}
		}
		if score == 0 {
			fmt.Println("not rated")
			return
		}
		fmt.Printf("%d/10\n", score)
	case "list":
		fs := flag.NewFlagSet("rate list", flag.ExitOnError)
		kindFlag := fs.String("kind", "", "movie or series")
		_ = fs.Parse(args)

		kind, err := kindArg(*kindFlag)
		if err != nil {
			a.log.Fatal(err)
		}
		a.requireLogin()

		ctx, cancel := a.timeout()
		defer cancel()
		ratings, err := a.api.Ratings(ctx, kind)
		if err != nil {
			a.fatalAPI("list ratings failed", err)
		}
		ids := make([]string, 0, len(ratings))
		for id := range ratings {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, key := range ids {
			fmt.Printf("%8s  %d/10\n", key, ratings[key])
			// refresh the offline cache while we have the values
			if id, err := strconv.ParseInt(key, 10, 64); err == nil {
				_ = a.sess.SetRating(kind, id, ratings[key])
			}
		}
	default:
		a.log.Fatal("usage: seriesjp rate <set|get|list>")
	}
}

// titleArgs reads -kind and -id.
func (a *app) titleArgs(name string, args []string) (string, int64) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	kindFlag := fs.String("kind", "", "movie or series")
	id := fs.Int64("id", 0, "title id")
	_ = fs.Parse(args)

	kind, err := kindArg(*kindFlag)
	if err != nil {
		a.log.Fatal(err)
	}
	if *id <= 0 {
		a.log.Fatal("id is required")
	}
	return kind, *id
}
