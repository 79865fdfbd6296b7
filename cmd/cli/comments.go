package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/gorilla/websocket"

	"seriesjp/pkg/models"
)

func (a *app) handleComments(sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("comments list", flag.ExitOnError)
		kindFlag := fs.String("kind", "", "movie or series")
		id := fs.Int64("id", 0, "title id")
		limit := fs.Int("limit", 50, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		kind, err := kindArg(*kindFlag)
		if err != nil {
			a.log.Fatal(err)
		}
		if *id <= 0 {
			a.log.Fatal("id is required")
		}
		ctx, cancel := a.timeout()
		defer cancel()
		page, err := a.api.Comments(ctx, kind, *id, *limit, *offset)
		if err != nil {
			a.log.Fatalf("comments failed: %v", err)
		}
		for _, c := range page.Items {
			printComment(c)
		}
		if page.Total == 0 {
			fmt.Println("no comments yet")
		}
	case "add":
		fs := flag.NewFlagSet("comments add", flag.ExitOnError)
		kindFlag := fs.String("kind", "", "movie or series")
		id := fs.Int64("id", 0, "title id")
		name := fs.String("name", "", "display name (account name when empty)")
		score := fs.Int("score", 0, "score from 1 to 10")
		text := fs.String("text", "", "comment text")
		_ = fs.Parse(args)

		kind, err := kindArg(*kindFlag)
		if err != nil {
			a.log.Fatal(err)
		}
		if *id <= 0 || *text == "" {
			a.log.Fatal("id and text are required")
		}
		a.requireLogin()
		ctx, cancel := a.timeout()
		defer cancel()
		c, err := a.api.AddComment(ctx, kind, *id, *name, *score, *text)
		if err != nil {
			a.fatalAPI("comment failed", err)
		}
		printComment(*c)
	case "live":
		kind, id := a.titleArgs("comments live", args)
		endpoint, err := a.api.LiveCommentsURL(kind, id)
		if err != nil {
			a.log.Fatalf("ws url: %v", err)
		}
		if err := runLiveComments(endpoint); err != nil {
			a.log.Fatalf("live comments: %v", err)
		}
	default:
		a.log.Fatal("usage: seriesjp comments <list|add|live>")
	}
}

func runLiveComments(endpoint string) error {
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var c models.Comment
		if err := json.Unmarshal(msg, &c); err != nil || c.ID == "" {
			fmt.Println(string(msg))
			continue
		}
		printComment(c)
	}
}

func printComment(c models.Comment) {
	fmt.Printf("[%s] %s (%d/10): %s\n", c.Date, c.Username, c.Score, c.Text)
}
