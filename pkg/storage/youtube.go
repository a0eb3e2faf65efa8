package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/devscraper/fleet/pkg/exec"
)

// Video is one search result candidate for the job queue.
type Video struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Views int64  `json:"view_count"`
}

// Searcher finds candidate videos for a search query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Video, error)
}

// ytdlpSearcher shells out to yt-dlp for YouTube search, the same way the worker image
// resolves video metadata.
type ytdlpSearcher struct {
	runner exec.CommandRunner
}

func NewYouTubeSearcher(runner exec.CommandRunner) Searcher {
	return &ytdlpSearcher{runner: runner}
}

func (s *ytdlpSearcher) Search(ctx context.Context, query string, maxResults int) ([]Video, error) {
	runArgs := exec.NewRunArgs(
		"yt-dlp",
		fmt.Sprintf("ytsearch%d:%s", maxResults, query),
		"--dump-json",
		"--flat-playlist",
		"--no-download",
		"--ignore-errors",
		"--quiet",
	)

	res, err := s.runner.Run(ctx, runArgs)
	if err != nil {
		return nil, fmt.Errorf("searching '%s': %w", query, err)
	}

	var videos []Video
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if line == "" {
			continue
		}

		var v Video
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			// yt-dlp interleaves warnings with JSON output when --ignore-errors is set
			log.Printf("skipping unparsable yt-dlp line: %v", err)
			continue
		}

		if v.ID != "" {
			videos = append(videos, v)
		}
	}

	return videos, nil
}
