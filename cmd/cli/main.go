package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"seriesjp/internal/client"
	"seriesjp/internal/grpcserver"
	"seriesjp/internal/logger"
	"seriesjp/internal/session"
	"seriesjp/pkg/models"
	"seriesjp/pkg/utils"
)

// app is what every subcommand needs: the API, the local session and a logger.
type app struct {
	ctx  context.Context
	api     *client.Client
	catalog catalogAPI
	sess    *session.Store
	log  *logrus.Entry
}

func main() {
	global := flag.NewFlagSet("seriesjp", flag.ExitOnError)
	baseURL := global.String("api", envOr("SERIESJP_API_URL", client.DefaultBaseURL), "API base URL")
	grpcAddr := global.String("grpc", os.Getenv("SERIESJP_GRPC_ADDR"), "gRPC address for catalog reads (HTTP when empty)")
	sessionPath := global.String("session", session.DefaultPath(), "local session store path")
	verbose := global.Bool("v", false, "debug logging")
	if err := global.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Init(utils.LogConfig{LogLevel: level})
	log := logger.Component("cli")

	sess, err := session.Open(*sessionPath, logger.Component("session"))
	if err != nil {
		log.Fatalf("open session store: %v", err)
	}
	defer sess.Close()

	a := &app{
		ctx:  context.Background(),
		api:  client.New(*baseURL, ""),
		sess: sess,
		log:  log,
	}
	a.catalog = a.api
	if *grpcAddr != "" {
		conn, err := grpcserver.Dial(*grpcAddr)
		if err != nil {
			log.Fatalf("dial grpc %s: %v", *grpcAddr, err)
		}
		defer conn.Close()
		a.catalog = grpcCatalog{c: grpcserver.NewClient(conn, "")}
	}

	cmd := args[0]
	sub := ""
	rest := []string{}
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	switch cmd {
	case "auth":
		a.handleAuth(sub, rest)
	case "movies":
		a.handleCatalog(models.KindMovie, sub, rest)
	case "series":
		a.handleCatalog(models.KindSeries, sub, rest)
	case "watchlist":
		a.handleWatchlist(sub, rest)
	case "favorites":
		a.handleFavorites(sub, rest)
	case "rate":
		a.handleRate(sub, rest)
	case "comments":
		a.handleComments(sub, rest)
	case "sync":
		a.handleSync(sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

// requireLogin runs the auto-login check and puts the stored token on the client.
func (a *app) requireLogin() string {
	userID, err := a.login()
	switch {
	case errors.Is(err, session.ErrUnreachable):
		a.log.Fatalf("cannot reach %s, try again later", a.api.BaseURL)
	case err != nil:
		a.log.Fatal("not signed in, run: seriesjp auth login")
	}
	return userID
}

// login is requireLogin without the exit, for commands that can work offline.
func (a *app) login() (string, error) {
	userID, err := a.sess.CheckAutoLogin(a.ctx, a.api.WhoAmI, session.DefaultAutoLoginTimeout)
	if err != nil {
		return "", err
	}
	tok, err := a.sess.Token()
	if err != nil {
		return "", err
	}
	a.api.Token = tok
	return userID, nil
}

func (a *app) timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.ctx, 20*time.Second)
}

// kindArg accepts movie/series and the Spanish spellings.
func kindArg(s string) (string, error) {
	kind := models.NormalizeKind(s)
	if kind == "" {
		return "", fmt.Errorf("kind must be movie or series, got %q", s)
	}
	return kind, nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Component("cli").Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printUsage() {
	fmt.Println("seriesjp [-api URL] [-grpc ADDR] [-session PATH] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth register|login|google|logout|status|password|delete")
	fmt.Println("  movies popular|search|show|recommend|providers")
	fmt.Println("  series popular|search|show|recommend|providers")
	fmt.Println("  watchlist add|remove|list")
	fmt.Println("  favorites add|remove|list")
	fmt.Println("  rate set|get|list")
	fmt.Println("  comments list|add|live")
	fmt.Println("  sync listen")
}
