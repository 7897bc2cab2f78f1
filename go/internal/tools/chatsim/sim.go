package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/fantasymatch/go/clients"
	"github.com/mcdev12/fantasymatch/go/internal/chat"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
)

// printer serializes timeline output from the session's goroutines
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) message(m chat.Message) {
	label := string(m.Sender)
	if m.Sender == chat.SenderSystem {
		label = "***"
	}
	p.printf("[%s] %-6s %s\n", chat.FormatElapsed(m.CumulativeSeconds), label, m.Content)
}

func sessionConfig(cfg *Config, p *printer) chat.Config {
	sc := chat.DefaultConfig()
	sc.TickInterval = cfg.tickInterval()
	sc.CheckEvery = cfg.checkEvery
	sc.Policy = unlock.Policy{Interval: cfg.interval, MaxStep: cfg.maxStep}
	if cfg.quickReplies {
		sc.QuickReplies = chat.DefaultQuickReplies()
		sc.ReplyMinDelay = sc.TickInterval
		sc.ReplyMaxDelay = 3 * sc.TickInterval
	}
	sc.OnMessage = p.message
	return sc
}

func simulate(ctx context.Context, cfg *Config, out io.Writer) error {
	userID := uuid.MustParse(cfg.user)
	client := clients.NewFantasyMatchClient(cfg.server)
	p := &printer{out: out}

	sel, err := client.SelectMatch(ctx, userID)
	if err != nil {
		return err
	}
	verb := "joined existing"
	if sel.Created {
		verb = "created"
	}
	p.printf("%s match %s (step %d)\n", verb, sel.Match.ID, sel.Match.UnlockedStep)

	session, err := chat.NewSession(sel.Match, userID, client, client, sessionConfig(cfg, p), clockwork.NewRealClock())
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go session.Run(runCtx)

	target := int(cfg.duration / time.Second)
	sayEvery := int(cfg.sayEvery / time.Second)
	nextLine, lastSaid := 0, 0

	watch := time.NewTicker(cfg.tickInterval())
	defer watch.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-watch.C:
		}

		elapsed := session.Elapsed()
		if elapsed >= target {
			break loop
		}
		if sayEvery > 0 && len(cfg.lines) > 0 && elapsed-lastSaid >= sayEvery {
			lastSaid = elapsed
			if _, err := session.Send(ctx, cfg.lines[nextLine%len(cfg.lines)]); err != nil {
				p.printf("send failed: %v\n", err)
			}
			nextLine++
		}
		if cfg.verbose && elapsed%60 == 0 {
			if in, ok := session.NextUnlockIn(); ok {
				p.printf("[%s] step %d, next unlock in %s\n", chat.FormatElapsed(elapsed), session.Step(), chat.FormatElapsed(in))
			}
		}
	}

	cancel()
	summary := session.End()
	p.printf("session ended at %s: step %d, %d messages\n",
		chat.FormatElapsed(summary.Elapsed), summary.Step, summary.Messages)
	return nil
}
