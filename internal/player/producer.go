package player

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/llehouerou/ncstream/internal/errmsg"
)

// seekRequest asks the stage owning positioning to jump. For the streaming
// pipeline frame and epoch are used; the clip consumer uses fraction.
type seekRequest struct {
	frame    int
	fraction float64
	epoch    uint64
}

// producer decodes frames and pushes PCM chunks onto the queue. It is the
// only goroutine touching the decoder, so seeks are funnelled through it.
type producer struct {
	dec      Decoder
	queue    *FrameQueue
	seeks    <-chan seekRequest
	channels int
	logger   zerolog.Logger

	pos   int
	epoch uint64
}

func newProducer(dec Decoder, q *FrameQueue, seeks <-chan seekRequest, logger zerolog.Logger) *producer {
	return &producer{
		dec:      dec,
		queue:    q,
		seeks:    seeks,
		channels: dec.Format().NumChannels,
		logger:   logger,
		epoch:    q.Epoch(),
	}
}

// run returns nil when cancelled and a *Error on decoder failure. On every
// exit path other than a clean end of stream it still tries to queue the
// end-of-stream marker so the consumer can terminate.
func (p *producer) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.offerEnd()
			return nil
		case req := <-p.seeks:
			p.seek(req)
		default:
		}

		frame, err := p.dec.Next()
		if errors.Is(err, io.EOF) {
			if !p.waitAfterEnd(ctx) {
				return nil
			}
			continue
		}
		if err != nil {
			p.offerEnd()
			return newError(ErrDecode, errmsg.OpDecode, err)
		}
		if frame.Kind != FrameAudio {
			continue
		}

		c := Chunk{
			Data:   EncodePCM(frame.Samples, p.channels),
			Start:  p.pos,
			Frames: len(frame.Samples),
			epoch:  p.epoch,
		}
		p.pos += c.Frames
		if err := p.queue.put(ctx, entry{chunk: c, epoch: c.epoch}); err != nil {
			p.offerEnd()
			return nil
		}
	}
}

// waitAfterEnd queues the marker, then parks until a seek revives decoding
// (true) or the session ends (false).
func (p *producer) waitAfterEnd(ctx context.Context) bool {
	if err := p.queue.put(ctx, entry{eos: true, epoch: p.epoch}); err != nil {
		return false
	}
	p.logger.Debug().Int("frames", p.pos).Msg("Decoder reached end of stream")
	select {
	case <-ctx.Done():
		return false
	case req := <-p.seeks:
		p.seek(req)
		return true
	}
}

func (p *producer) seek(req seekRequest) {
	p.epoch = req.epoch
	if err := p.dec.Seek(req.frame); err != nil {
		p.logger.Warn().Err(err).Int("frame", req.frame).Msg("Seek failed, continuing from current position")
		return
	}
	p.pos = req.frame
}

func (p *producer) offerEnd() {
	p.queue.offer(entry{eos: true, epoch: p.epoch})
}
