// Package storage holds the data-plane services the fleet commands use: the job queue the
// workers drain and the blob container their results land in.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// Job is one unit of work for a queue-driven worker: a YouTube video to scrape and the
// search query that surfaced it. The JSON shape is what the worker image expects.
type Job struct {
	VideoID string `json:"video_id"`
	Query   string `json:"query"`
}

// Enqueuer posts jobs to the work queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// QueueService enqueues jobs into the Azure Storage queue the workers consume.
type QueueService struct {
	client *azqueue.QueueClient
}

func NewQueueService(connectionString string, queueName string) (*QueueService, error) {
	client, err := azqueue.NewQueueClientFromConnectionString(connectionString, queueName, nil)
	if err != nil {
		return nil, fmt.Errorf("creating queue client for %s: %w", queueName, err)
	}

	return &QueueService{client: client}, nil
}

func (s *QueueService) Enqueue(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}

	_, err = s.client.EnqueueMessage(ctx, string(body), nil)
	if err != nil {
		return fmt.Errorf("enqueueing job %s: %w", job.VideoID, err)
	}

	return nil
}
