package server

import (
	"github.com/gorilla/websocket"
	"github.com/zucenko/pathfinder/model"
	"sync"
	"time"
)

// SearchServer hosts one grid and one controller and streams grid changes
// to websocket watchers. The watcher list is owned by Loop.
type SearchServer struct {
	Config     Config
	Grid       *model.Grid
	Controller *SearchController
	Upgrader   *websocket.Upgrader

	Joins    chan *WatchSession
	Leaves   chan *WatchSession
	Statuses chan model.Status

	watchers []*WatchSession
	quit     chan struct{}

	pendingMu    sync.Mutex
	pending      []model.CellChange
	pendingReset bool
}

type SearchState int

const (
	SS_IDLE SearchState = iota
	SS_RUNNING
)

type WatchSessionState int

const (
	WS_NEW WatchSessionState = iota + 1
	WS_WATCH
	WS_RESYNC
	WS_OVER
)

type WatchSession struct {
	State  WatchSessionState
	Id     string
	Server *SearchServer
	Conn   *websocket.Conn
	Over   chan struct{}

	MessagesToSend chan model.ServerMessage

	overOnce sync.Once

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
}
