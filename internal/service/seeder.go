package service

import (
	"context"
	"sync"

	"github.com/markwave/liveservices/internal/domain"
)

// TaskError accumulates the individual failures produced during bulk seeding.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BulkSeeder pushes catalog datasets into the graph using a bounded worker
// pool. A failing product does not stop the rest of the batch; all failures
// are collected and reported together.
type BulkSeeder struct {
	catalog *CatalogService
	workers int
}

// NewBulkSeeder creates a BulkSeeder with the provided concurrency.
func NewBulkSeeder(catalog *CatalogService, workers int) *BulkSeeder {
	if workers <= 0 {
		workers = 4
	}
	return &BulkSeeder{
		catalog: catalog,
		workers: workers,
	}
}

// SeedProducts merges the provided products concurrently.
func (bs *BulkSeeder) SeedProducts(ctx context.Context, products []domain.Product) error {
	jobs := make(chan domain.Product)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		taskErrs TaskError
	)

	for i := 0; i < bs.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for product := range jobs {
				if err := bs.catalog.Seed(ctx, product); err != nil {
					mu.Lock()
					taskErrs.append(err)
					mu.Unlock()
				}
			}
		}()
	}

	for _, product := range products {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			mu.Lock()
			taskErrs.append(ctx.Err())
			mu.Unlock()
			return taskErrs.asError()
		case jobs <- product:
		}
	}
	close(jobs)
	wg.Wait()

	return taskErrs.asError()
}
