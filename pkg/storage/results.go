package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// ResultsService downloads scrape output from the results blob container.
type ResultsService struct {
	client    *azblob.Client
	container string
}

func NewResultsService(connectionString string, container string) (*ResultsService, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}

	return &ResultsService{
		client:    client,
		container: container,
	}, nil
}

// Download fetches every blob under prefix into outDir, preserving the blob paths as
// relative file paths. Returns the number of blobs downloaded.
func (s *ResultsService) Download(ctx context.Context, prefix string, outDir string, out io.Writer) (int, error) {
	downloaded := 0

	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return downloaded, fmt.Errorf("listing blobs under %s: %w", prefix, err)
		}

		for _, item := range page.Segment.BlobItems {
			name := *item.Name
			if err := s.downloadBlob(ctx, name, filepath.Join(outDir, filepath.FromSlash(name))); err != nil {
				return downloaded, err
			}

			downloaded++
			if downloaded%100 == 0 {
				fmt.Fprintf(out, "Downloaded %d blobs...\n", downloaded)
			}
		}
	}

	return downloaded, nil
}

func (s *ResultsService) downloadBlob(ctx context.Context, name string, localPath string) error {
	res, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", name, err)
	}
	defer res.Body.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, res.Body); err != nil {
		return fmt.Errorf("writing %s: %w", localPath, err)
	}

	return nil
}

// Summary is the aggregate view over downloaded results.
type Summary struct {
	TotalFiles     int
	WithTranscript int
	TotalViews     int64
	BySource       map[string]int
}

// resultRecord is the subset of a worker's output document the summary cares about.
type resultRecord struct {
	Source     string `json:"source"`
	Views      int64  `json:"views"`
	Transcript string `json:"transcript"`
}

// Summarize walks the downloaded JSON documents under dir and aggregates basic stats.
// Unparsable files are skipped, since partial results from interrupted workers are expected.
func Summarize(dir string) (Summary, error) {
	summary := Summary{BySource: map[string]int{}}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var record resultRecord
		if err := json.Unmarshal(body, &record); err != nil {
			return nil
		}

		summary.TotalFiles++
		summary.TotalViews += record.Views
		if record.Transcript != "" {
			summary.WithTranscript++
		}

		source := record.Source
		if source == "" {
			// workers lay results out as <kind>/<source>/<id>.json
			rel, relErr := filepath.Rel(dir, path)
			if relErr == nil {
				parts := strings.Split(filepath.ToSlash(rel), "/")
				if len(parts) >= 2 {
					source = parts[len(parts)-2]
				}
			}
		}
		if source != "" {
			summary.BySource[source]++
		}

		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing %s: %w", dir, err)
	}

	return summary, nil
}
