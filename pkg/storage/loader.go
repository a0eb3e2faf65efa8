package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// DefaultQueries is the built-in search coverage for the Roblox development space. The list
// is an operational choice, not a constraint; `fleet queue --queries` replaces it wholesale.
var DefaultQueries = []string{
	// Scripting fundamentals
	"roblox scripting tutorial",
	"roblox lua tutorial",
	"how to script roblox",
	"roblox studio scripting beginner",
	"learn roblox coding",
	"roblox programming tutorial",

	// Specific topics
	"roblox datastore tutorial",
	"roblox remote event tutorial",
	"roblox module script tutorial",
	"roblox tween service tutorial",
	"roblox gui tutorial",
	"roblox animation script tutorial",
	"roblox pathfinding tutorial",
	"roblox raycast tutorial",
	"roblox touched event tutorial",
	"roblox player data save",
	"roblox inventory system tutorial",
	"roblox combat system tutorial",
	"roblox round system tutorial",
	"roblox leaderboard tutorial",
	"roblox shop system tutorial",
	"roblox npc tutorial",
	"roblox ai tutorial",
	"roblox oop tutorial",
	"roblox metatables tutorial",

	// Building
	"roblox building tutorial",
	"roblox studio tutorial",
	"roblox terrain tutorial",
	"roblox lighting tutorial",
	"roblox blender tutorial",
	"roblox mesh tutorial",
	"roblox ui design tutorial",
	"roblox particle effects tutorial",

	// Game genres
	"how to make roblox obby",
	"how to make roblox simulator",
	"how to make roblox tycoon",
	"roblox fps game tutorial",
	"roblox rpg tutorial",
	"roblox horror game tutorial",
	"roblox fighting game tutorial",

	// Monetization
	"roblox gamepass tutorial",
	"roblox dev product tutorial",
	"how to make robux",
	"roblox monetization",

	// Problems/Pain points
	"roblox script not working fix",
	"roblox datastore not saving fix",
	"roblox remote event not working",
	"roblox animation not playing fix",
	"roblox lag fix optimization",
	"roblox studio crash fix",
	"roblox filtering enabled explained",

	// Years for freshness
	"roblox tutorial 2024",
	"roblox tutorial 2025",
	"roblox scripting 2024",
	"roblox scripting 2025",
}

// LoadOptions configures a queue-loading run.
type LoadOptions struct {
	// Count is the target number of videos to queue.
	Count int
	// MinViews filters out low-traffic videos.
	MinViews int64
	// PerQuery is the number of search results requested per query.
	PerQuery int
	// Queries overrides DefaultQueries when non-empty.
	Queries []string
	// Pause is the wait between searches, rate limiting against YouTube.
	Pause time.Duration
}

// Loader searches for candidate videos and queues them as jobs.
type Loader struct {
	searcher Searcher
	queue    Enqueuer
	out      io.Writer
}

func NewLoader(searcher Searcher, queue Enqueuer, out io.Writer) *Loader {
	return &Loader{
		searcher: searcher,
		queue:    queue,
		out:      out,
	}
}

// Run searches each query in turn, deduplicates video ids across queries, filters by view
// count and enqueues jobs until the target count is reached or the queries are exhausted.
// Returns the number of jobs queued.
func (l *Loader) Run(ctx context.Context, opts LoadOptions) (int, error) {
	queries := opts.Queries
	if len(queries) == 0 {
		queries = DefaultQueries
	}

	// Widen coverage with query variants when the target outruns the base list.
	if opts.Count > len(queries)*opts.PerQuery {
		base := queries
		n := min(len(base), 20)
		for _, q := range base[:n] {
			queries = append(queries, q+" beginner", q+" advanced", q+" full guide")
		}
	}

	seen := map[string]bool{}
	queued := 0

	for i, query := range queries {
		if queued >= opts.Count {
			break
		}

		if i > 0 && opts.Pause > 0 {
			select {
			case <-ctx.Done():
				return queued, ctx.Err()
			case <-time.After(opts.Pause):
			}
		}

		videos, err := l.searcher.Search(ctx, query, opts.PerQuery)
		if err != nil {
			// a single failed search is not fatal to the run; the original tooling
			// logged and moved on to the next query
			fmt.Fprintf(l.out, "search failed for %q: %v\n", query, err)
			continue
		}

		for _, video := range videos {
			if queued >= opts.Count {
				break
			}

			if video.ID == "" || seen[video.ID] || video.Views < opts.MinViews {
				continue
			}

			if err := l.queue.Enqueue(ctx, Job{VideoID: video.ID, Query: query}); err != nil {
				return queued, err
			}
			seen[video.ID] = true
			queued++
		}
	}

	return queued, nil
}
