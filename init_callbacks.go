package main

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/config"
	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/ws"
)

// pruneInterval is how often expired tracker and cooldown entries are
// dropped.
const pruneInterval = time.Minute

// initFeed creates the board server feed and connects it to the watcher.
//
// Every (re)connect reseeds the membership baseline and reconciles the
// inbox, so updates missed while disconnected do not notify as new.
func initFeed(cfg *config.Config, svcs *Services, clk clock.Clock, log *zap.Logger) *ws.Feed {
	feed := ws.NewFeed(ws.FeedConfig{
		URL:        cfg.Board.WSURL,
		Token:      cfg.Board.Token,
		TeamID:     cfg.Board.TeamID,
		BatchDelay: cfg.Watch.BatchDelay,
	}, clk, log)

	watch := svcs.Watch
	feed.OnConnect(func(ctx context.Context) {
		if _, err := watch.LoadMemberships(ctx); err != nil {
			log.Warn("membership reload failed", zap.Error(err))
		}
		if _, err := watch.LoadNotifications(ctx); err != nil {
			log.Warn("notification reload failed", zap.Error(err))
		}
	})
	feed.OnBoardMembers(func(ctx context.Context, members []models.BoardMember) {
		watch.HandleBoardMembers(ctx, members)
	})
	feed.OnBlocks(func(ctx context.Context, blocks []models.Block) {
		watch.HandleBlocks(ctx, blocks)
	})

	return feed
}

// initHubCallbacks greets every new UI session with the inbox snapshot.
func initHubCallbacks(hub *ws.Hub, svcs *Services) {
	if svcs.Inbox == nil {
		return
	}
	hub.OnConnect(func(c *ws.Client) {
		c.Send(ws.Event{Op: ws.OpReady, Data: svcs.Inbox.Snapshot()})
	})
}

// runPruner drops expired tracker and cooldown entries until ctx is done.
func runPruner(ctx context.Context, repos *Repositories, svcs *Services, clk clock.Clock, log *zap.Logger) {
	ticker := clk.Ticker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := 0
			if svcs.Memberships != nil {
				dropped += svcs.Memberships.Prune()
				dropped += svcs.Assignments.Prune()
			}
			if repos.memoryCooldown != nil {
				dropped += repos.memoryCooldown.Prune()
			}
			if dropped > 0 {
				log.Debug("expired entries pruned", zap.Int("count", dropped))
			}
		}
	}
}
