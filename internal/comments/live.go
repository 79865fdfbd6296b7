package comments

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"seriesjp/pkg/models"
)

const defaultReplay = 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Live keeps one websocket room per title and pushes new comments into it.
type Live struct {
	mu     sync.Mutex
	rooms  map[string]map[*websocket.Conn]struct{}
	replay int
	log    *logrus.Entry
}

func NewLive(replay int, log *logrus.Entry) *Live {
	if replay <= 0 {
		replay = defaultReplay
	}
	return &Live{
		rooms:  make(map[string]map[*websocket.Conn]struct{}),
		replay: replay,
		log:    log,
	}
}

// Join loads the backlog, replays it to ws and registers ws under one lock.
// Post takes the same lock, so every comment reaches ws exactly once: either
// in the backlog or as a broadcast.
func (l *Live) Join(room string, ws *websocket.Conn, backlog func(n int) ([]models.Comment, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := backlog(l.replay)
	if err != nil {
		return err
	}
	for _, c := range items {
		_ = ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := ws.WriteJSON(c); err != nil {
			return err
		}
	}
	conns, ok := l.rooms[room]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		l.rooms[room] = conns
	}
	conns[ws] = struct{}{}
	return nil
}

// Post stores a comment through save and broadcasts it before any Join can
// read the history again.
func (l *Live) Post(save func() (*models.Comment, error)) (*models.Comment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	saved, err := save()
	if err != nil {
		return nil, err
	}
	l.broadcast(*saved)
	return saved, nil
}

func (l *Live) Leave(room string, ws *websocket.Conn) {
	l.mu.Lock()
	if conns, ok := l.rooms[room]; ok {
		delete(conns, ws)
		if len(conns) == 0 {
			delete(l.rooms, room)
		}
	}
	l.mu.Unlock()
	_ = ws.Close()
}

func (l *Live) broadcast(c models.Comment) {
	room := models.TitleKey(c.Kind, c.TitleID)
	for ws := range l.rooms[room] {
		_ = ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := ws.WriteJSON(c); err != nil {
			l.log.WithField("room", room).Debug("dropping live comment subscriber")
			_ = ws.Close()
			delete(l.rooms[room], ws)
		}
	}
}

func (l *Live) Listeners(room string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms[room])
}
