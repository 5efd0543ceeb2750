package player

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/llehouerou/ncstream/internal/errmsg"
)

// streamConsumer writes chunks to a Sink in real time. The blocking Write
// is what paces the whole pipeline.
type streamConsumer struct {
	queue  *FrameQueue
	sink   Sink
	played func(epoch uint64, frame int)
}

func (c *streamConsumer) run(ctx context.Context) error {
	for {
		chunk, err := c.queue.Take(ctx)
		if errors.Is(err, io.EOF) {
			reopened, err := c.drain(ctx)
			if err != nil {
				return err
			}
			if reopened {
				continue
			}
			return nil
		}
		if err != nil {
			return err
		}
		if !c.queue.isCurrent(chunk) {
			continue
		}
		if err := c.sink.Write(ctx, chunk.epoch, chunk.Data); err != nil {
			return deviceError(ctx, errmsg.OpWriteAudio, err)
		}
		c.played(chunk.epoch, chunk.Start+chunk.Frames)
	}
}

// drain plays out the sink after the end-of-stream marker. It reports true
// when a seek reopened the queue meanwhile, in which case the caller goes
// back to taking chunks.
func (c *streamConsumer) drain(ctx context.Context) (bool, error) {
	reopened := c.queue.reopened()
	drainCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-reopened:
			cancel()
		case <-drainCtx.Done():
		}
	}()

	err := c.sink.Drain(drainCtx)
	select {
	case <-reopened:
		return true, nil
	default:
	}
	if err != nil {
		return false, deviceError(ctx, errmsg.OpDrain, err)
	}
	return false, nil
}

// clipConsumer collects the whole track, loads it into a Clip and then
// reports progress at chunk granularity until the clip ends.
type clipConsumer struct {
	queue  *FrameQueue
	clip   Clip
	seeks  <-chan seekRequest
	period time.Duration
	played func(frame int)
}

func (c *clipConsumer) run(ctx context.Context) error {
	var buf bytes.Buffer
	for {
		chunk, err := c.queue.Take(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		buf.Write(chunk.Data)
	}

	if err := c.clip.Load(buf.Bytes()); err != nil {
		return deviceError(ctx, errmsg.OpOpenDevice, err)
	}

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clip.Done():
			c.played(c.clip.FrameLength())
			return nil
		case req := <-c.seeks:
			frame := int(req.fraction * float64(c.clip.FrameLength()))
			c.clip.SetFramePosition(frame)
			c.played(frame)
			last = frame
		case <-ticker.C:
			if pos := c.clip.FramePosition(); pos != last {
				c.played(pos)
				last = pos
			}
		}
	}
}

func deviceError(ctx context.Context, op errmsg.Op, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return newError(ErrDevice, op, err)
}
