package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-engine/internal/game"
	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/repository"
)

const (
	msgSnapshot        = "snapshot"
	msgTick            = "tick"
	msgWon             = "won"
	msgLost            = "lost"
	msgPlacementFailed = "placement_failed"
	msgError           = "error"
)

type message struct {
	Type    string          `json:"type"`
	GameID  string          `json:"game_id,omitempty"`
	Board   *mines.Snapshot `json:"board,omitempty"`
	Elapsed int             `json:"elapsed"`
	Time    string          `json:"time"`
	Pending bool            `json:"placement_pending,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// outbound is either a controller event or a command error.
type outbound struct {
	event *game.Event
	err   error
}

// outbox is an unbounded queue between the controller, which must never
// block while notifying, and the connection writer.
type outbox struct {
	mu     sync.Mutex
	items  []outbound
	notify chan struct{}
}

func newOutbox() *outbox {
	return &outbox{notify: make(chan struct{}, 1)}
}

func (o *outbox) push(item outbound) {
	o.mu.Lock()
	o.items = append(o.items, item)
	o.mu.Unlock()
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *outbox) drain() []outbound {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := o.items
	o.items = nil
	return items
}

func (o *outbox) Notify(e game.Event) {
	o.push(outbound{event: &e})
}

type session struct {
	app    *App
	logger *slog.Logger
	conn   *websocket.Conn
	ctrl   *game.Controller
	out    *outbox
	wg     sync.WaitGroup // records in flight
}

func (app *App) handlePlay(w http.ResponseWriter, r *http.Request) {
	cfg, err := decodeConfig(r.URL.Query())
	if err != nil {
		app.badRequest(w, err.Error())
		return
	}

	conn, err := app.ws.Upgrader.Upgrade(w, r, nil) // headers sent here
	if err != nil {
		app.logger.Error("unable to upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	logger := app.logger.With(slog.String("remote_addr", r.RemoteAddr))
	logger.Debug("established WS connection")

	s := &session{
		app:    app,
		logger: logger,
		conn:   conn,
		ctrl:   app.newController(logger),
		out:    newOutbox(),
	}
	defer s.ctrl.Close()
	defer s.wg.Wait()
	s.ctrl.Subscribe(s.out)

	if cfg != nil {
		// validated by decodeConfig
		_ = s.ctrl.StartNewGame(*cfg)
	} else {
		v := s.ctrl.Snapshot()
		s.out.Notify(game.Event{Kind: game.EventNewGame, GameID: v.GameID, View: v})
	}

	if err := s.run(r.Context()); err != nil {
		logger.Warn("error in ws loop", slog.Any("error", err))
		return
	}
	logger.Debug("closed WS connection")
}

func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return s.readLoop()
	})
	g.Go(func() error {
		// unblocks the reader when the writer gives up
		defer s.conn.Close()
		return s.writeLoop(ctx)
	})
	return g.Wait()
}

func (s *session) readLoop() error {
	ws := s.app.ws
	s.conn.SetReadLimit(ws.ReadLimit)
	s.conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	})

	for {
		mt, buf, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if mt != websocket.TextMessage {
			return nil
		}

		text := strings.TrimSpace(string(buf))
		s.logger.Debug("\t> " + text)
		for _, line := range iterBySep(text, "\n") {
			cmd, err := parseCommand(line)
			if err == nil {
				err = cmd.execute(s.ctrl)
			}
			if err != nil {
				s.logger.Debug("unable to process command",
					slog.String("command", line), slog.Any("error", err))
				s.out.push(outbound{err: err})
			}
		}
	}
}

func (s *session) writeLoop(ctx context.Context) error {
	ws := s.app.ws
	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(ws.WriteWait),
			)
			return nil
		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(ws.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-s.out.notify:
			for _, item := range s.out.drain() {
				if item.event != nil && item.event.Terminal() {
					e := *item.event
					s.wg.Add(1)
					go func() {
						defer s.wg.Done()
						s.record(ctx, e)
					}()
				}
				s.conn.SetWriteDeadline(time.Now().Add(ws.WriteWait))
				if err := s.conn.WriteJSON(render(item)); err != nil {
					return err
				}
			}
		}
	}
}

// render describes the game as it was when the event fired.
func render(item outbound) message {
	if item.event == nil {
		return message{Type: msgError, Error: item.err.Error()}
	}

	e := item.event
	if e.Kind == game.EventTick {
		return message{
			Type:    msgTick,
			GameID:  e.GameID,
			Elapsed: e.Elapsed,
			Time:    game.FormatElapsed(e.Elapsed),
		}
	}

	v := e.View
	msg := message{
		Type:    msgSnapshot,
		GameID:  v.GameID,
		Board:   &v.Board,
		Elapsed: v.Elapsed,
		Time:    v.Time,
		Pending: v.Pending,
	}
	switch e.Kind {
	case game.EventWon:
		msg.Type = msgWon
	case game.EventLost:
		msg.Type = msgLost
	case game.EventPlacementFailed:
		msg.Type = msgPlacementFailed
		if e.Err != nil {
			msg.Error = e.Err.Error()
		}
	}
	return msg
}

func (s *session) record(ctx context.Context, e game.Event) {
	store := s.app.store
	if store == nil {
		return
	}
	gameID, err := uuid.Parse(e.GameID)
	if err != nil {
		s.logger.Error("malformed game id", slog.String("game_id", e.GameID))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	record, err := store.CreateGameRecord(ctx, repository.CreateGameRecordParams{
		GameId:         gameID,
		Width:          e.Config.Width,
		Height:         e.Config.Height,
		MineCount:      e.Config.MineCount,
		Won:            e.Kind == game.EventWon,
		ElapsedSeconds: e.Elapsed,
	})
	if errors.Is(err, repository.ErrDuplicateRecord) {
		record, err = store.FetchGameRecord(ctx, gameID)
		if err == nil {
			s.logger.Warn("game already recorded",
				slog.String("game_id", e.GameID),
				slog.Int64("record_id", record.GameRecordId),
				slog.Bool("won", record.Won),
				slog.Time("created_at", record.CreatedAt.Time))
			return
		}
	}
	if err != nil {
		s.logger.Error("failed to record game",
			slog.String("game_id", e.GameID), slog.Any("error", err))
		return
	}
	s.logger.Debug("recorded game",
		slog.String("game_id", e.GameID),
		slog.Int64("record_id", record.GameRecordId),
		slog.Bool("won", record.Won))
}
