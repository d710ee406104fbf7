package checkrun

import (
	"context"

	"lintcheck/internal/annotate"
)

// Updater sends a partial batch of annotations.
type Updater interface {
	Update(ctx context.Context, annotations []annotate.Annotation) error
}

// Batcher buffers annotations and sends them through an Updater whenever a
// full batch has accumulated. Whatever is left is returned by Outstanding for
// the completing call.
type Batcher struct {
	updater     Updater
	size        int
	outstanding []annotate.Annotation
	sent        int
}

func NewBatcher(u Updater, size int) *Batcher {
	if size <= 0 || size > MaxAnnotationsPerRequest {
		size = MaxAnnotationsPerRequest
	}
	return &Batcher{updater: u, size: size}
}

func (b *Batcher) Add(ctx context.Context, a annotate.Annotation) error {
	b.outstanding = append(b.outstanding, a)
	if len(b.outstanding) < b.size {
		return nil
	}
	return b.Flush(ctx)
}

// Flush sends all outstanding annotations, if any.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.outstanding) == 0 {
		return nil
	}
	batch := b.outstanding
	b.outstanding = nil
	if err := b.updater.Update(ctx, batch); err != nil {
		return err
	}
	b.sent += len(batch)
	return nil
}

func (b *Batcher) Outstanding() []annotate.Annotation {
	return b.outstanding
}

// Sent is the number of annotations handed to the Updater so far.
func (b *Batcher) Sent() int { return b.sent }
