package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/codeGROOVE-dev/retry"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/models"
)

// Board server actions.
const (
	ActionAuth          = "AUTH"
	ActionSubscribeTeam = "SUBSCRIBE_TEAM"
	ActionUpdateMember  = "UPDATE_MEMBER"
	ActionUpdateBlock   = "UPDATE_BLOCK"
)

// FeedMessage is one frame of the board server's websocket protocol. Only
// the fields of the actions the watcher uses are decoded.
type FeedMessage struct {
	Action string              `json:"action"`
	Token  string              `json:"token,omitempty"`
	TeamID string              `json:"teamId,omitempty"`
	Member *models.BoardMember `json:"member,omitempty"`
	Block  *models.Block       `json:"block,omitempty"`
}

// FeedConfig configures a Feed.
type FeedConfig struct {
	URL        string
	Token      string
	TeamID     string
	BatchDelay time.Duration

	// DialAttempts bounds each reconnect cycle; Run returns when a whole
	// cycle fails.
	DialAttempts uint
	DialDelay    time.Duration
	DialMaxDelay time.Duration
}

// MembersListener receives one batch of membership updates.
type MembersListener func(ctx context.Context, members []models.BoardMember)

// BlocksListener receives one batch of block updates.
type BlocksListener func(ctx context.Context, blocks []models.Block)

// Feed subscribes to a team on the board server and delivers the pushed
// membership and block updates in batches.
//
// Updates arriving within BatchDelay of the first pending one are delivered
// together. All listeners run on a single goroutine, one batch at a time,
// so a listener never races another listener.
type Feed struct {
	cfg    FeedConfig
	dialer *websocket.Dialer
	clock  clock.Clock
	log    *zap.Logger

	mu              sync.Mutex
	nextID          int
	memberListeners map[int]MembersListener
	blockListeners  map[int]BlocksListener
	connectHooks    map[int]func(ctx context.Context)

	incoming chan feedItem
}

type feedItem struct {
	member    *models.BoardMember
	block     *models.Block
	connected bool
}

// NewFeed creates a feed; nothing is dialed until Run.
func NewFeed(cfg FeedConfig, clk clock.Clock, log *zap.Logger) *Feed {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 100 * time.Millisecond
	}
	if cfg.DialAttempts == 0 {
		cfg.DialAttempts = 10
	}
	if cfg.DialDelay <= 0 {
		cfg.DialDelay = time.Second
	}
	if cfg.DialMaxDelay <= 0 {
		cfg.DialMaxDelay = time.Minute
	}
	return &Feed{
		cfg:             cfg,
		dialer:          &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		clock:           clk,
		log:             log.Named("feed"),
		memberListeners: make(map[int]MembersListener),
		blockListeners:  make(map[int]BlocksListener),
		connectHooks:    make(map[int]func(ctx context.Context)),
		incoming:        make(chan feedItem, 256),
	}
}

// ─── Listener registration ───

// OnBoardMembers registers fn for membership batches. The returned func
// removes it.
func (f *Feed) OnBoardMembers(fn MembersListener) (remove func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.memberListeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.memberListeners, id)
	}
}

// OnBlocks registers fn for block batches. The returned func removes it.
func (f *Feed) OnBlocks(fn BlocksListener) (remove func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.blockListeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.blockListeners, id)
	}
}

// OnConnect registers fn to run after every successful (re)subscription,
// on the dispatch goroutine. The returned func removes it.
func (f *Feed) OnConnect(fn func(ctx context.Context)) (remove func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.connectHooks[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.connectHooks, id)
	}
}

// ─── Run loop ───

// Run connects, subscribes and reads until ctx is done. A dropped
// connection is redialed; Run returns an error only when a full round of
// dial attempts fails. Pending updates are delivered before Run returns.
// A Feed runs once.
func (f *Feed) Run(ctx context.Context) error {
	dispatchDone := make(chan struct{})
	readCtx, stopReading := context.WithCancel(ctx)
	defer func() {
		stopReading()
		close(f.incoming)
		<-dispatchDone
	}()

	go func() {
		defer close(dispatchDone)
		// Listeners finish the last batch even when ctx is already done.
		f.dispatch(context.WithoutCancel(ctx))
	}()

	for {
		conn, err := f.connect(readCtx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		f.incoming <- feedItem{connected: true}
		err = f.read(readCtx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return nil
		}
		f.log.Warn("connection lost, reconnecting", zap.Error(err))
	}
}

// connect dials and subscribes, retrying with backoff.
func (f *Feed) connect(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn

	err := retry.Do(
		func() error {
			c, resp, err := f.dialer.DialContext(ctx, f.cfg.URL, nil)
			if err != nil {
				if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
					return retry.Unrecoverable(fmt.Errorf("dial %s: HTTP %d", f.cfg.URL, resp.StatusCode))
				}
				return fmt.Errorf("dial %s: %w", f.cfg.URL, err)
			}

			if err := f.subscribe(c); err != nil {
				c.Close()
				return err
			}
			conn = c
			return nil
		},
		retry.Attempts(f.cfg.DialAttempts),
		retry.Delay(f.cfg.DialDelay),
		retry.MaxDelay(f.cfg.DialMaxDelay),
		retry.MaxJitter(f.cfg.DialDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			f.log.Info("retrying connect", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to board server: %w", err)
	}

	f.log.Info("subscribed", zap.String("team_id", f.cfg.TeamID))
	return conn, nil
}

func (f *Feed) subscribe(conn *websocket.Conn) error {
	deadline := f.clock.Now().Add(writeWait)
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if f.cfg.Token != "" {
		if err := conn.WriteJSON(FeedMessage{Action: ActionAuth, Token: f.cfg.Token}); err != nil {
			return fmt.Errorf("send %s: %w", ActionAuth, err)
		}
	}
	if err := conn.WriteJSON(FeedMessage{Action: ActionSubscribeTeam, TeamID: f.cfg.TeamID}); err != nil {
		return fmt.Errorf("send %s: %w", ActionSubscribeTeam, err)
	}
	return nil
}

// read decodes frames until the connection fails or ctx is done.
func (f *Feed) read(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg FeedMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			f.log.Debug("undecodable frame", zap.Error(err))
			continue
		}

		var item feedItem
		switch {
		case msg.Action == ActionUpdateMember && msg.Member != nil:
			item.member = msg.Member
		case msg.Action == ActionUpdateBlock && msg.Block != nil:
			item.block = msg.Block
		default:
			continue
		}

		select {
		case f.incoming <- item:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ─── Batching & dispatch ───

// dispatch owns the pending batches. It returns once incoming is closed,
// after flushing what is left.
func (f *Feed) dispatch(ctx context.Context) {
	var (
		members []models.BoardMember
		blocks  []models.Block
		timer   *clock.Timer
		fire    <-chan time.Time
	)

	flush := func() {
		if timer != nil {
			timer.Stop()
			timer, fire = nil, nil
		}
		if len(members) > 0 {
			batch := members
			members = nil
			for _, fn := range f.snapshotMembers() {
				f.safeCall(func() { fn(ctx, batch) })
			}
		}
		if len(blocks) > 0 {
			batch := blocks
			blocks = nil
			for _, fn := range f.snapshotBlocks() {
				f.safeCall(func() { fn(ctx, batch) })
			}
		}
	}

	for {
		select {
		case item, ok := <-f.incoming:
			if !ok {
				flush()
				return
			}
			switch {
			case item.connected:
				for _, fn := range f.snapshotConnectHooks() {
					f.safeCall(func() { fn(ctx) })
				}
				continue
			case item.member != nil:
				members = append(members, *item.member)
			case item.block != nil:
				blocks = append(blocks, *item.block)
			}
			if timer == nil {
				timer = f.clock.Timer(f.cfg.BatchDelay)
				fire = timer.C
			}

		case <-fire:
			timer, fire = nil, nil
			flush()
		}
	}
}

// safeCall keeps one failing listener from killing the dispatch loop.
func (f *Feed) safeCall(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			f.log.Error("listener panicked", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()
	fn()
}

func (f *Feed) snapshotMembers() []MembersListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]MembersListener, 0, len(f.memberListeners))
	for id := 0; id < f.nextID; id++ {
		if fn, ok := f.memberListeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (f *Feed) snapshotBlocks() []BlocksListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]BlocksListener, 0, len(f.blockListeners))
	for id := 0; id < f.nextID; id++ {
		if fn, ok := f.blockListeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (f *Feed) snapshotConnectHooks() []func(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]func(ctx context.Context), 0, len(f.connectHooks))
	for id := 0; id < f.nextID; id++ {
		if fn, ok := f.connectHooks[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
