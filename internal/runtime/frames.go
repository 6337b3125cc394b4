package runtime

import (
	"bytes"
	"context"
	"time"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/scenario"
	"github.com/aretw0/vemulator/pkg/wire/hex"
	"github.com/aretw0/vemulator/pkg/wire/text"
)

// sendText generates one value per text field (untimed mode) and writes the
// text blocks for the current store contents.
func (e *Engine) sendText(ctx context.Context) {
	if e.arithmeticOnly() {
		// Derived fields alone have nothing new to report.
		return
	}
	if !e.settings.Timed {
		for _, k := range e.textKeys {
			e.generate(k)
		}
	}

	pairs := make([]text.Pair, 0, len(e.textKeys))
	for _, k := range e.textKeys {
		v, ok := e.store.Get(k.DisplayName())
		if !ok || v.IsNone() {
			continue
		}
		pairs = append(pairs, text.Pair{Key: k.Name, Value: v.String()})
	}
	if len(pairs) == 0 {
		return
	}

	for _, block := range text.Split(pairs) {
		msg := text.Encode(block)
		flipped := 0
		if e.settings.BitErrorRate > 0 && !e.settings.BitErrorChecksum {
			msg, flipped = e.injectBitErrors(msg)
		}
		e.print(ctx, domain.FrameText, text.AddChecksum(msg), flipped)
	}
}

// arithmeticOnly reports whether every queued text scenario is Arithmetic.
func (e *Engine) arithmeticOnly() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, k := range e.textKeys {
		for _, s := range e.queues[k] {
			if s.Kind() != scenario.KindArithmetic {
				return false
			}
		}
	}
	return true
}

func (e *Engine) injectBitErrors(msg []byte) ([]byte, int) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	return text.InjectBitErrors(msg, e.settings.BitErrorRate, e.rng), text.Flips(e.settings.BitErrorRate, len(msg))
}

// print hands a frame to the output. With checksum corruption enabled the bit
// errors are applied here, after the checksum was computed.
func (e *Engine) print(ctx context.Context, kind domain.FrameKind, frame []byte, flipped int) {
	if e.settings.BitErrorRate > 0 && e.settings.BitErrorChecksum {
		var n int
		frame, n = e.injectBitErrors(frame)
		flipped += n
	}
	e.logger.Debug("frame", "kind", string(kind), "data", string(frame))

	dropped := false
	switch {
	case !e.output.Available():
		e.logger.Error("could not write frame, output not available", "kind", string(kind))
		dropped = true
	default:
		e.outMu.Lock()
		_, err := e.output.Write(frame)
		e.outMu.Unlock()
		if err != nil {
			e.logger.Warn("could not write frame", "kind", string(kind), "err", err)
			dropped = true
		}
	}

	if e.hooks.OnFrame != nil {
		e.hooks.OnFrame(ctx, &domain.FrameEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFrameSent},
			Kind:      kind,
			Size:      len(frame),
			Flipped:   flipped,
			Dropped:   dropped,
		})
	}
}

// reply frames and prints a hex response.
func (e *Engine) reply(ctx context.Context, kind domain.FrameKind, cmd hex.Command, payload string) {
	frame, err := hex.Frame(cmd, payload)
	if err != nil {
		e.logger.Error("could not build hex frame", "command", cmd.String(), "payload", payload, "err", err)
		return
	}
	e.print(ctx, kind, frame, 0)
}

// readInput answers every complete hex frame waiting on the input.
func (e *Engine) readInput(ctx context.Context) {
	if e.input == nil {
		return
	}
	if !e.input.Available() {
		e.logger.Debug("input not available")
		return
	}
	for e.input.HasData() {
		line, err := e.input.ReadLine()
		if err != nil {
			e.logger.Warn("could not read input", "err", err)
			return
		}
		line = bytes.ReplaceAll(line, []byte{0}, nil)
		if len(line) == 0 || line[0] != ':' {
			continue
		}
		e.logger.Debug("hex frame received", "data", string(bytes.TrimSpace(line)))
		e.handleHex(ctx, line)
	}
}

// sendAsyncIntervals emits the async frame of every hex field whose interval
// divides the elapsed run time.
func (e *Engine) sendAsyncIntervals(ctx context.Context) {
	for _, k := range e.hexKeys {
		e.mu.Lock()
		head, ok := e.headLocked(k)
		e.mu.Unlock()
		if !ok {
			continue
		}
		interval, ok := head.AsyncInterval()
		if !ok || e.runTime%interval != 0 {
			continue
		}
		if !e.settings.Timed {
			e.generate(k)
		}
		if h, ok := e.store.GetHex(k.ID); ok && h != "" {
			e.sendAsync(ctx, k.ID, h)
		}
	}
}

// flushChanges emits the async frame of every changed hex field that asks
// for change notifications.
func (e *Engine) flushChanges(ctx context.Context) {
	if e.changes == nil {
		return
	}
	for _, ev := range e.changes.Drain() {
		if !ev.Changed() || ev.Hex == "" {
			continue
		}
		s, ok := e.current(ev.Key)
		if !ok || !s.AsyncChange() {
			continue
		}
		e.sendAsync(ctx, ev.Key.ID, ev.Hex)
	}
}

func (e *Engine) sendAsync(ctx context.Context, id uint16, value string) {
	e.reply(ctx, domain.FrameAsync, hex.CmdAsync, hex.IDToHex(id)+hex.StatusOK+value)
}
