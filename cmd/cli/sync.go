package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func (a *app) handleSync(sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("sync listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP sync server address")
		useWS := fs.Bool("ws", false, "use the /ws endpoint of the API instead of TCP")
		mine := fs.Bool("mine", false, "only my events (needs a session)")
		_ = fs.Parse(args)

		userID := ""
		if *mine {
			userID = a.requireLogin()
		}

		if *useWS {
			endpoint, err := a.api.WebsocketURL("/ws")
			if err != nil {
				a.log.Fatalf("ws url: %v", err)
			}
			if err := a.runSyncWS(endpoint, userID); err != nil {
				a.log.Fatalf("sync ws: %v", err)
			}
			return
		}
		for {
			if err := a.runSyncTCP(*addr, userID); err != nil {
				a.log.WithError(err).Warn("sync disconnected")
			}
			time.Sleep(1 * time.Second)
		}
	default:
		a.log.Fatal("usage: seriesjp sync listen")
	}
}

func (a *app) runSyncTCP(addr, userID string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	a.log.WithField("addr", addr).Info("sync connected")
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		printEvent(reader.Bytes(), userID)
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func (a *app) runSyncWS(endpoint, userID string) error {
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	a.log.WithField("url", endpoint).Info("sync connected")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		printEvent(msg, userID)
	}
}

func printEvent(line []byte, userID string) {
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		fmt.Println(string(line))
		return
	}
	if userID != "" {
		if uid, ok := obj["user_id"].(string); ok && uid != userID {
			return
		}
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Println(string(b))
}
