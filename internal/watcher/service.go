package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"shopwatch/internal/catalog"
	"shopwatch/internal/discord"
	logx "shopwatch/pkg/logx"
)

const defaultInterval = 60 * time.Second

// Fetcher yields the current catalog sections.
type Fetcher interface {
	Fetch(ctx context.Context) ([]catalog.RawSection, error)
}

// Store persists the snapshot between cycles.
type Store interface {
	Load(ctx context.Context) (catalog.Snapshot, error)
	Save(ctx context.Context, snap catalog.Snapshot) error
}

// Dispatcher delivers one formatted notification.
type Dispatcher interface {
	Send(ctx context.Context, e discord.Embed) error
}

// Service drives the poll loop: fetch, normalize, diff, notify, persist.
//
// Exactly one cycle runs at a time. For interval schedules the next wait is
// armed only after the whole cycle completes, every dispatch included, so a
// slow webhook stretches the spacing instead of overlapping cycles. Cron
// schedules get the same guarantee from SkipIfStillRunning.
type Service struct {
	log        logx.Logger
	fetcher    Fetcher
	store      Store
	dispatcher Dispatcher
	spec       ParsedSpec
}

func New(spec ParsedSpec, fetcher Fetcher, store Store, dispatcher Dispatcher, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:        log,
		fetcher:    fetcher,
		store:      store,
		dispatcher: dispatcher,
		spec:       spec,
	}
}

// Run executes cycles until ctx is done. The first cycle starts immediately.
func (s *Service) Run(ctx context.Context) error {
	if s.spec.Kind == SpecCron {
		return s.runCron(ctx)
	}
	return s.runInterval(ctx)
}

func (s *Service) runInterval(ctx context.Context) error {
	every := s.spec.Every
	if every <= 0 {
		every = defaultInterval
	}
	s.log.Info("watcher started", logx.Duration("interval", every))

	for {
		s.RunCycle(ctx)
		if ctx.Err() != nil {
			return nil
		}

		s.log.Debug("sleeping until next check", logx.Duration("interval", every))
		t := time.NewTimer(every)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (s *Service) runCron(ctx context.Context) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.spec.Cron, func() { s.RunCycle(ctx) }); err != nil {
		return err
	}
	s.log.Info("watcher started", logx.String("cron", s.spec.Cron))

	s.RunCycle(ctx)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunCycle performs one fetch-diff-notify-persist pass. Every failure mode
// degrades to "skip this cycle's side effect, try again next interval".
func (s *Service) RunCycle(ctx context.Context) {
	start := time.Now()
	s.log.Info("fetching shop data")

	sections, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.log.Error("cycle aborted", logx.Err(err))
		return
	}

	old, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn("snapshot load failed; treating as empty", logx.Err(err))
		old = catalog.Snapshot{}
	}

	s.log.Info("processing shop sections", logx.Int("sections", len(sections)))

	next := make(catalog.Snapshot, len(sections))
	var wg sync.WaitGroup
	notified := 0
	for _, sec := range sections {
		id := sec.ID()
		norm := catalog.Normalize(sec)
		next[id] = norm

		var prev *catalog.NormalizedSection
		if p, ok := old[id]; ok {
			prev = &p
		}
		if !catalog.Changed(prev, norm) {
			continue
		}

		s.log.Info("new or updated section detected",
			logx.String("name", norm.DisplayName), logx.String("id", id))
		e := discord.BuildEmbed(sec, norm)
		notified++
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Dispatch failures are independent and already logged by the sink.
			_ = s.dispatcher.Send(ctx, e)
		}()
	}

	// Persist only after every notification attempt has completed, so a crash
	// mid-dispatch can't leave the snapshot advanced past messages that never
	// went out.
	wg.Wait()

	if catalog.SnapshotChanged(old, next) {
		if err := s.store.Save(ctx, next); err != nil {
			s.log.Error("failed to save shop data", logx.Err(err))
		} else {
			s.log.Info("updated shop data saved")
		}
	} else {
		s.log.Info("no changes detected in shop data")
	}

	s.log.Debug("cycle finished",
		logx.Int("notified", notified),
		logx.Duration("took", time.Since(start)))
}
