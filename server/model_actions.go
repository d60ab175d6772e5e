package server

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/pathfinder/model"
	"io"
	"net/http"
	"strconv"
	"time"
)

func NewSearchServer(cfg Config, grid *model.Grid, controller *SearchController) *SearchServer {
	s := &SearchServer{
		Config:     cfg,
		Grid:       grid,
		Controller: controller,
		Upgrader:   &websocket.Upgrader{},
		Joins:      make(chan *WatchSession),
		Leaves:     make(chan *WatchSession),
		Statuses:   make(chan model.Status, 16),
		quit:       make(chan struct{}),
	}
	grid.SetListener(s.queue)
	controller.OnComplete(func(o Outcome) { s.publish(o.Status()) })
	return s
}

// queue runs under the grid lock and only appends to the pending batch.
func (s *SearchServer) queue(ev model.GridEvent) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if ev.Reset || len(s.pending)+len(ev.Changes) > maxPending {
		s.pendingReset = true
		s.pending = s.pending[:0]
		return
	}
	if !s.pendingReset {
		s.pending = append(s.pending, ev.Changes...)
	}
}

func (s *SearchServer) takePending() ([]model.CellChange, bool) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	changes, reset := s.pending, s.pendingReset
	s.pending, s.pendingReset = nil, false
	return changes, reset
}

func (s *SearchServer) publish(st model.Status) {
	select {
	case s.Statuses <- st:
	default:
		log.Warnf("SearchServer.publish dropping status of run %s, Statuses FULL", st.RunID)
	}
}

// Loop owns the watcher list: it registers joins and leaves, forwards run
// statuses and flushes queued grid changes every Config.FlushInterval.
func (s *SearchServer) Loop(ctx context.Context) error {
	log.Printf("SearchServer.Loop starting")
	ticker := time.NewTicker(s.Config.FlushInterval)
	defer ticker.Stop()
	defer close(s.quit)
	for {
		select {
		case <-ctx.Done():
			log.Printf("SearchServer.Loop stopping, %d watchers", len(s.watchers))
			for _, ws := range s.watchers {
				ws.over()
			}
			s.watchers = nil
			watchersConnected.Set(0)
			return nil
		case ws := <-s.Joins:
			log.WithField("watcher", ws.Id).Info("SearchServer.Loop watcher joined")
			ws.State = WS_WATCH
			s.watchers = append(s.watchers, ws)
			watchersConnected.Inc()
			s.deliver(ws, s.setupMessage())
		case ws := <-s.Leaves:
			for i, w := range s.watchers {
				if w == ws {
					s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
					watchersConnected.Dec()
					log.WithField("watcher", ws.Id).Info("SearchServer.Loop watcher left")
					break
				}
			}
			ws.State = WS_OVER
		case st := <-s.Statuses:
			for _, ws := range s.watchers {
				s.deliver(ws, model.ServerMessage{Status: []model.Status{st}})
			}
		case <-ticker.C:
			s.flush()
		}
	}
}

func (s *SearchServer) flush() {
	changes, reset := s.takePending()
	var setup *model.ServerMessage
	setupMessage := func() model.ServerMessage {
		if setup == nil {
			m := s.setupMessage()
			setup = &m
		}
		return *setup
	}
	for _, ws := range s.watchers {
		switch {
		case reset || ws.State == WS_RESYNC:
			s.deliver(ws, setupMessage())
		case len(changes) > 0:
			s.deliver(ws, model.ServerMessage{Changes: changes})
		}
	}
}

// deliver never blocks the loop; a watcher that cannot keep up gets a full
// snapshot on the next flush instead.
func (s *SearchServer) deliver(ws *WatchSession, mes model.ServerMessage) {
	select {
	case ws.MessagesToSend <- mes:
		if len(mes.Setup) > 0 {
			ws.State = WS_WATCH
		}
	default:
		if ws.State != WS_RESYNC {
			log.Warnf("watcher %s MessagesToSend FULL, resync on next flush", ws.Id)
		}
		ws.State = WS_RESYNC
	}
}

func (s *SearchServer) setupMessage() model.ServerMessage {
	cells := s.Grid.Snapshot()
	cols := 0
	if len(cells) > 0 {
		cols = len(cells[0])
	}
	return model.ServerMessage{
		Setup: []model.Setup{{
			Rows:    len(cells),
			Cols:    cols,
			Tiles:   s.Grid.Tiles(),
			Start:   s.Grid.Start(),
			End:     s.Grid.End(),
			Cells:   cells,
			Running: s.Controller.IsRunning(),
		}},
	}
}

func (s *SearchServer) fail(w http.ResponseWriter, err error) {
	code := errorCode(err)
	log.Warnf("request failed %d: %v", code, err)
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("writeJSON %v", err)
	}
}

func (s *SearchServer) HandleGetMap() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(s.Grid.Dump()))
	}
}

// HandlePutMap replaces the grid with the map in the request body. A bad map
// leaves the previous grid in place.
func (s *SearchServer) HandlePutMap() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMapBytes))
		if err != nil {
			http.Error(w, err.Error(), HTTP_BAD_REQUEST)
			return
		}
		err = s.Controller.Exclusive(func() error { return s.Grid.Load(bytes.NewReader(body)) })
		if err != nil {
			s.fail(w, err)
			return
		}
		log.Infof("HandlePutMap loaded %dx%d", s.Grid.Rows(), s.Grid.Columns())
		w.WriteHeader(HTTP_SUCCESS)
	}
}

func (s *SearchServer) HandleDeleteMap() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = s.Controller.Exclusive(func() error {
			s.Grid.Clear()
			return nil
		})
		w.WriteHeader(HTTP_SUCCESS)
	}
}

func (s *SearchServer) HandlePutCell() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, errRow := strconv.Atoi(way.Param(r.Context(), "row"))
		col, errCol := strconv.Atoi(way.Param(r.Context(), "col"))
		if errRow != nil || errCol != nil {
			http.Error(w, "row and col must be integers", HTTP_BAD_REQUEST)
			return
		}
		state, err := model.ParseCellState(way.Param(r.Context(), "state"))
		if err != nil {
			http.Error(w, err.Error(), HTTP_BAD_REQUEST)
			return
		}
		if err := s.setCell(row, col, state); err != nil {
			s.fail(w, err)
			return
		}
		w.WriteHeader(HTTP_SUCCESS)
	}
}

// setCell edits the grid unless a search is running.
func (s *SearchServer) setCell(row, col int, state model.CellState) error {
	return s.Controller.WhileIdle(func() error {
		return s.Grid.SetCell(row, col, state)
	})
}

func (s *SearchServer) startSearch() (string, error) {
	runID, err := s.Controller.StartSearch(s.Grid.Start(), s.Grid.End())
	if err != nil {
		return "", err
	}
	s.publish(model.Status{RunID: runID, Running: true})
	return runID, nil
}

func (s *SearchServer) HandleStartSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, err := s.startSearch()
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, HTTP_ACCEPTED, searchResponse{
			RunID:   runID,
			Running: true,
			State:   SS_RUNNING.Name(),
		})
	}
}

func (s *SearchServer) HandleStopSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Controller.StopSearch()
		w.WriteHeader(HTTP_SUCCESS)
	}
}

func (s *SearchServer) HandleGetSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.Controller.State()
		resp := searchResponse{
			RunID:   s.Controller.RunID(),
			Running: state == SS_RUNNING,
			State:   state.Name(),
		}
		if last, ok := s.Controller.Last(); ok {
			st := last.Status()
			resp.Last = &st
		}
		writeJSON(w, HTTP_SUCCESS, resp)
	}
}

// HandleWatch upgrades to a websocket and streams grid changes until the
// watcher goes away.
func (s *SearchServer) HandleWatch() http.HandlerFunc {
	timeout := 200 * time.Millisecond
	return func(w http.ResponseWriter, r *http.Request) {
		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("HandleWatch websocket upgrade err %v", err)
			return
		}
		defer con.Close()

		ws := &WatchSession{
			State:          WS_NEW,
			Id:             uuid.NewString(),
			Server:         s,
			Conn:           con,
			Over:           make(chan struct{}),
			MessagesToSend: make(chan model.ServerMessage, s.Config.WatchBuffer),
		}
		go ws.LoopChannelRead()
		go ws.LoopChannelWrite()

		select {
		case s.Joins <- ws:
		case <-time.After(timeout):
			log.Warn("HandleWatch Joins TIMEOUTED")
			ws.over()
			return
		}
		<-ws.Over
		select {
		case s.Leaves <- ws:
		case <-s.quit:
		}
	}
}

func (ws *WatchSession) over() {
	ws.overOnce.Do(func() { close(ws.Over) })
}

func (ws *WatchSession) LoopChannelRead() {
	log.Printf("LoopChannelRead STARTED %s", ws.Id)
loop:
	for {
		_, r, err := ws.Conn.NextReader()
		if err != nil {
			log.Printf("LoopChannelRead %s reading: %v", ws.Id, err)
			break loop
		}
		cm := &model.ClientMessage{}
		if err := gob.NewDecoder(r).Decode(cm); err != nil {
			log.Warnf("LoopChannelRead %s cant decode %v", ws.Id, err)
			break loop
		}
		ws.DebugLastMessage = time.Now()
		ws.DebugInMessages++
		ws.Server.apply(ws, cm)
	}
	ws.over()
	log.Printf("LoopChannelRead ENDED %s", ws.Id)
}

func (s *SearchServer) apply(ws *WatchSession, cm *model.ClientMessage) {
	var err error
	switch cm.Action {
	case model.ACTION_SET_CELL:
		err = s.setCell(cm.Row, cm.Col, cm.State)
	case model.ACTION_START:
		_, err = s.startSearch()
	case model.ACTION_STOP:
		s.Controller.StopSearch()
	default:
		log.Warnf("watcher %s unknown action %d", ws.Id, cm.Action)
		return
	}
	if err != nil {
		log.Warnf("watcher %s action %d failed: %v", ws.Id, cm.Action, err)
		s.publish(model.Status{Error: err.Error(), Running: s.Controller.IsRunning()})
	}
}

// this function only consumes. no worries about full buffer stuck
func (ws *WatchSession) LoopChannelWrite() {
	log.Printf("WatchSession.LoopChannelWrite STARTED %s", ws.Id)
loop:
	for {
		select {
		case <-ws.Over:
			break loop
		case mes := <-ws.MessagesToSend:
			w, err := ws.Conn.NextWriter(websocket.BinaryMessage)
			if err != nil {
				log.Warnf("WatchSession.LoopChannelWrite cant get writer %v", err)
				break loop
			}
			if err := gob.NewEncoder(w).Encode(mes); err != nil {
				log.Warnf("WatchSession.LoopChannelWrite cant encode %v", err)
				break loop
			}
			if err := w.Close(); err != nil {
				log.Warnf("WatchSession.LoopChannelWrite cant close writer %v", err)
				break loop
			}
			ws.DebugOutMessages++
		}
	}
	ws.over()
	log.Printf("WatchSession.LoopChannelWrite ENDED %s", ws.Id)
}
