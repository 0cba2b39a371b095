package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"m3u-stream-harvester/checker"
	"m3u-stream-harvester/config"
	"m3u-stream-harvester/logger"
	"m3u-stream-harvester/organizer"
	"m3u-stream-harvester/progress"
	"m3u-stream-harvester/sourceproc"
)

// Pipeline is the two-stage orchestrator: a bounded pool of playlist
// fetchers feeding a bounded pool of stream probers. Each playlist's probe
// wave drains completely before the playlist is marked complete, which keeps
// in-flight work bounded and gives the checkpointer a clean commit point.
type Pipeline struct {
	cfg     *config.Config
	log     logger.Logger
	fetcher *sourceproc.Fetcher
	filter  *sourceproc.Filter
	prober  *checker.Prober
	store   *progress.Store
	acc     *organizer.Accumulator
	ckpt    *progress.Checkpointer
	stats   *Stats

	proberSem *semaphore.Weighted
}

func New(cfg *config.Config, log logger.Logger, backend checker.Backend, store *progress.Store) (*Pipeline, error) {
	acc, err := organizer.NewAccumulator()
	if err != nil {
		return nil, fmt.Errorf("init accumulator: %w", err)
	}

	ckpt := progress.NewCheckpointer(store, cfg.StreamProgressFile, cfg.PlaylistProgressFile, log)

	p := &Pipeline{
		cfg:     cfg,
		log:     log,
		fetcher: sourceproc.NewFetcher(cfg.Timeout, log),
		filter: sourceproc.NewFilter(sourceproc.FilterOptions{
			Disabled:     cfg.NoFilters,
			IncludeAdult: cfg.IncludeAdult,
			IncludeRadio: cfg.IncludeRadio,
		}),
		prober:    checker.NewProber(backend, store, cfg.Timeout, cfg.ExtendedTimeout(), cfg.ReprocessStreams, log),
		store:     store,
		acc:       acc,
		ckpt:      ckpt,
		stats:     NewStats(0),
		proberSem: semaphore.NewWeighted(int64(cfg.StreamWorkers)),
	}

	ckpt.SetOutputWriter(p.materializeOutput)
	return p, nil
}

// WorkingCount is how many working streams the accumulator holds.
func (p *Pipeline) WorkingCount() int {
	return p.acc.Count()
}

func (p *Pipeline) Stats() Snapshot {
	return p.stats.Snapshot()
}

type fetchResult struct {
	url     string
	streams []*sourceproc.StreamRef
	elapsed time.Duration
}

// Run processes every pending URL. On context cancellation it stops issuing
// work, lets in-flight tasks wind down, and returns; the final flush is the
// caller's responsibility.
func (p *Pipeline) Run(ctx context.Context, urls []string) error {
	pending := urls
	if !p.cfg.ReprocessPlaylists {
		pending = pending[:0:0]
		for _, url := range urls {
			if !p.store.HasPlaylist(url) {
				pending = append(pending, url)
			}
		}
		if skipped := len(urls) - len(pending); skipped > 0 {
			p.log.Logf("Skipping %d already processed playlists, %d remaining", skipped, len(pending))
		}
	}

	p.stats = NewStats(len(pending))

	if len(pending) == 0 {
		p.log.Log("All playlists already processed")
		return nil
	}

	if err := p.ckpt.Start(p.cfg.SaveInterval); err != nil {
		return err
	}
	defer p.ckpt.Stop()

	p.log.Logf("Processing %d playlists: %d playlist workers, %d stream workers",
		len(pending), p.cfg.PlaylistWorkers, p.cfg.StreamWorkers)

	chunkSize := p.cfg.ChunkSize()
	for start := 0; start < len(pending); start += chunkSize {
		if ctx.Err() != nil {
			break
		}

		end := start + chunkSize
		if end > len(pending) {
			end = len(pending)
		}

		results := make(chan *fetchResult, end-start)

		var g errgroup.Group
		g.SetLimit(p.cfg.PlaylistWorkers)
		for _, url := range pending[start:end] {
			url := url
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				streams, elapsed := p.fetcher.Fetch(ctx, url)
				results <- &fetchResult{url: url, streams: streams, elapsed: elapsed}
				return nil
			})
		}
		go func() {
			_ = g.Wait()
			close(results)
		}()

		// Consume fetches in completion order. Each playlist's probe wave
		// drains before the next fetch is taken up.
		for fr := range results {
			if ctx.Err() != nil {
				continue
			}
			p.processPlaylist(ctx, fr)
		}
	}

	return ctx.Err()
}

func (p *Pipeline) processPlaylist(ctx context.Context, fr *fetchResult) {
	now := time.Now().Format("2006-01-02 15:04:05")
	found := len(fr.streams)
	p.stats.AddStreams(found)

	snap := p.stats.Snapshot()

	if found == 0 {
		p.stats.MarkPlaylist(false)
		p.store.PutPlaylist(fr.url, progress.PlaylistRecord{
			Status:    progress.StatusInvalid,
			Timestamp: now,
			Reason:    "no_streams",
		})
		p.log.Logf("[%d/%d] Empty or timeout (%.1fs)", snap.Processed+1, snap.TotalM3U, fr.elapsed.Seconds())
		p.flush()
		return
	}

	p.stats.MarkPlaylist(true)

	candidates := make([]*sourceproc.StreamRef, 0, found)
	filtered := 0
	for _, s := range fr.streams {
		if p.filter.ShouldExclude(s.Info.ChannelName, s.Info.GroupTitle) {
			filtered++
		} else {
			candidates = append(candidates, s)
		}
	}
	p.stats.AddFiltered(filtered)

	if len(candidates) == 0 {
		p.store.PutPlaylist(fr.url, progress.PlaylistRecord{
			Status:          progress.StatusAllFiltered,
			Timestamp:       now,
			StreamsFound:    found,
			StreamsFiltered: filtered,
			Reason:          fmt.Sprintf("all %d streams filtered", found),
		})
		p.log.Logf("[%d/%d] All %d streams filtered out (%.1fs)", snap.Processed+1, snap.TotalM3U, found, fr.elapsed.Seconds())
		p.flush()
		return
	}

	p.log.Logf("[%d/%d] Found %d streams (filtered %d/%d) (%.1fs)",
		snap.Processed+1, snap.TotalM3U, len(candidates), filtered, found, fr.elapsed.Seconds())

	checked, working := p.runWave(ctx, candidates)

	if ctx.Err() != nil {
		// Interrupted mid-wave: leave the playlist unrecorded so the next
		// run picks it up again. Memoized probes are not repeated.
		return
	}

	p.store.PutPlaylist(fr.url, progress.PlaylistRecord{
		Status:          progress.StatusCompleted,
		Timestamp:       now,
		StreamsFound:    found,
		StreamsFiltered: filtered,
		StreamsChecked:  int(checked),
		WorkingStreams:  int(working),
	})

	snap = p.stats.Snapshot()
	p.log.Logf("Playlist %d/%d complete: %d checked, %d working", snap.Processed, snap.TotalM3U, checked, working)
	p.flush()
}

// runWave probes every candidate from one playlist through the shared prober
// pool and waits for all of them.
func (p *Pipeline) runWave(ctx context.Context, candidates []*sourceproc.StreamRef) (int64, int64) {
	var wg sync.WaitGroup
	var checked, working int64

	for _, ref := range candidates {
		if err := p.proberSem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(ref *sourceproc.StreamRef) {
			defer wg.Done()
			defer p.proberSem.Release(1)

			result := p.prober.Check(ctx, ref)
			p.stats.RecordResult(result.Working())
			atomic.AddInt64(&checked, 1)

			if result.Working() {
				atomic.AddInt64(&working, 1)
				if err := p.acc.Add(result); err != nil {
					p.log.Warnf("Accumulator insert failed: %v", err)
				}
			}
		}(ref)
	}

	wg.Wait()
	return atomic.LoadInt64(&checked), atomic.LoadInt64(&working)
}

// Flush forces one checkpoint. Used by the signal handler for the final
// synchronous save before exit.
func (p *Pipeline) Flush() error {
	return p.ckpt.Flush()
}

func (p *Pipeline) flush() {
	if err := p.ckpt.Flush(); err != nil {
		p.log.Warnf("Checkpoint failed: %v", err)
	}
}

func (p *Pipeline) materializeOutput() error {
	if p.acc.Count() == 0 {
		return nil
	}
	results, err := p.acc.All()
	if err != nil {
		return err
	}
	return organizer.WriteFile(p.cfg.OutputFile, organizer.Organize(results))
}

// LogSummary prints the end-of-run totals, including per-country counts.
func (p *Pipeline) LogSummary() {
	snap := p.stats.Snapshot()

	p.log.Log("Processing complete")
	p.log.Logf("Playlists: %d total, %d valid, %d invalid", snap.TotalM3U, snap.ValidM3U, snap.InvalidM3U)
	p.log.Logf("Streams: %d found, %d checked, %d working, %d failed, %d filtered",
		snap.TotalStreams, snap.Checked, snap.Working, snap.Failed, snap.Filtered)
	p.log.Logf("Elapsed: %s", snap.Elapsed.Round(time.Second))
	if snap.Elapsed > 0 && snap.Checked > 0 {
		p.log.Logf("Average speed: %.1f streams/s", float64(snap.Checked)/snap.Elapsed.Seconds())
	}

	results, err := p.acc.All()
	if err != nil || len(results) == 0 {
		return
	}
	organized := organizer.Organize(results)
	countries := make([]string, 0, len(organized))
	for c := range organized {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	p.log.Log("Streams by country:")
	for _, c := range countries {
		p.log.Logf("  %s: %d streams", c, len(organized[c]))
	}
}
