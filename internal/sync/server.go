package sync

import (
	"bufio"
	"context"
	"errors"
	"net"

	"github.com/sirupsen/logrus"
)

// Server accepts newline-delimited JSON subscribers over plain TCP.
type Server struct {
	Addr string
	Hub  *Hub
	Log  *logrus.Entry
}

func NewServer(addr string, hub *Hub, log *logrus.Entry) *Server {
	return &Server{Addr: addr, Hub: hub, Log: log}
}

// Run listens on Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	err = s.Serve(ln)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) Serve(ln net.Listener) error {
	s.Log.WithField("addr", ln.Addr().String()).Info("tcp sync listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.Log.WithError(err).Warn("accept failed")
			continue
		}

		s.Hub.Welcome(conn)
		s.Hub.Add(conn)
		s.Log.WithField("remote", conn.RemoteAddr().String()).Info("client connected")

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.Log.WithField("remote", c.RemoteAddr().String()).Info("client disconnected")
			}()

			// subscribers never send anything meaningful; drain until EOF
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}
