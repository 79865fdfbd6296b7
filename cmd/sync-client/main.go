package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"seriesjp/internal/logger"
	synchub "seriesjp/internal/sync"
	"seriesjp/pkg/utils"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	user := flag.String("user", "", "only show events for this user id")
	flag.Parse()

	logger.Init(utils.LogConfig{LogLevel: "info"})
	log := logger.Component("sync-client")

	for {
		if err := run(*addr, *pretty, *user); err != nil {
			log.WithError(err).Warn("disconnected")
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, pretty bool, user string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	logger.Component("sync-client").WithField("addr", addr).Info("connected")

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		var ev synchub.Event
		if err := json.Unmarshal(line, &ev); err != nil || ev.Type == "" || ev.Type == "welcome" {
			// welcome banner or something we do not know
			fmt.Println(string(line))
			continue
		}
		if user != "" && ev.UserID != user {
			continue
		}

		if !pretty {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(ev, "", "  ")
		fmt.Println(string(b))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}
