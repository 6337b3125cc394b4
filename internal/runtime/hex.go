package runtime

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/scenario"
	"github.com/aretw0/vemulator/pkg/wire/hex"
)

// handleHex answers one inbound hex frame.
func (e *Engine) handleHex(ctx context.Context, line []byte) {
	ev := &domain.CommandEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCommandHandled},
	}
	defer func() {
		if e.hooks.OnCommand != nil {
			e.hooks.OnCommand(ctx, ev)
		}
	}()

	msg, err := hex.Decode(line)
	if err != nil {
		e.logger.Warn("bad hex frame", "data", string(line), "err", err)
		ev.Command = "invalid"
		ev.BadFrame = true
		ev.HasReplied = true
		e.reply(ctx, domain.FrameHex, hex.RespError, hex.ChecksumErrorPayload)
		return
	}
	ev.Command = msg.Command.String()
	payload := msg.Payload()

	switch msg.Command {
	case hex.CmdEnterBoot:
		e.reply(ctx, domain.FrameHex, hex.RespError, "0000")
	case hex.CmdPing:
		e.reply(ctx, domain.FrameHex, hex.RespPing, hex.IntToHex(int64(e.device.Version), 2))
	case hex.CmdAppVersion:
		e.reply(ctx, domain.FrameHex, hex.RespDone, hex.IntToHex(int64(e.device.Version), 2))
	case hex.CmdProductID:
		e.reply(ctx, domain.FrameHex, hex.RespDone, hex.IntToHex(int64(e.device.ProductID), 2))
	case hex.CmdRestart, hex.CmdAsync:
		// Neither gets an answer from a real device.
		return
	case hex.CmdGet:
		ev.Status = e.handleGet(ctx, payload)
	case hex.CmdSet:
		ev.Status = e.handleSet(ctx, payload)
	default:
		e.reply(ctx, domain.FrameHex, hex.RespUnknown, "0"+string(rune(msg.Command))+"00")
	}
	ev.HasReplied = true
}

// splitID returns the id digits as received and the decoded id.
func splitID(payload string) (string, uint16, bool) {
	if len(payload) < 4 {
		return payload, 0, false
	}
	id, err := hex.ParseID(payload[:4])
	if err != nil {
		return payload[:4], 0, false
	}
	return payload[:4], id, true
}

func (e *Engine) handleGet(ctx context.Context, payload string) string {
	raw, id, ok := splitID(payload)
	key := domain.HexKey(id)

	var value string
	if ok {
		value, ok = e.hexValue(key)
	}
	if !ok {
		e.reply(ctx, domain.FrameHex, hex.CmdGet, raw+hex.StatusUnknownID)
		return hex.StatusUnknownID
	}
	e.reply(ctx, domain.FrameHex, hex.CmdGet, raw+hex.StatusOK+value)
	return hex.StatusOK
}

// hexValue generates (untimed mode) or reads (timed mode) the wire value of key.
func (e *Engine) hexValue(key domain.FieldKey) (string, bool) {
	if e.settings.Timed {
		e.mu.Lock()
		_, known := e.headLocked(key)
		e.mu.Unlock()
		if !known {
			return "", false
		}
	} else if v, ok := e.generate(key); !ok || v.IsNone() {
		return "", false
	}
	h, ok := e.store.GetHex(key.ID)
	return h, ok && h != ""
}

func (e *Engine) handleSet(ctx context.Context, payload string) string {
	raw, id, ok := splitID(payload)
	key := domain.HexKey(id)

	var head scenario.Scenario
	if ok {
		e.mu.Lock()
		head, ok = e.headLocked(key)
		e.mu.Unlock()
	}
	if !ok {
		e.reply(ctx, domain.FrameHex, hex.CmdSet, raw+hex.StatusUnknownID)
		return hex.StatusUnknownID
	}

	value := ""
	if len(payload) > 6 {
		value = payload[6:]
	}

	status := hex.StatusOK
	switch {
	case !head.Writable():
		status = hex.StatusNotWritable
	case head.Bits() > 0 && head.Bits() < len(value)*4:
		status = hex.StatusTooLarge
	}
	if status != hex.StatusOK {
		if !e.settings.Timed {
			e.generate(key)
		}
		current, _ := e.store.GetHex(id)
		e.reply(ctx, domain.FrameHex, hex.CmdSet, raw+status+current)
		return status
	}

	n, canonical, err := setValue(head, value)
	if err != nil {
		e.logger.Warn("set payload rejected", "key", key.String(), "value", value, "err", err)
		current, _ := e.store.GetHex(id)
		e.reply(ctx, domain.FrameHex, hex.CmdSet, raw+hex.StatusTooLarge+current)
		return hex.StatusTooLarge
	}
	e.store.PutHex(id, canonical)
	e.store.Put(key, domain.Int(n))
	e.logger.Info("field set", "key", key.String(), "value", value)
	e.reply(ctx, domain.FrameHex, hex.CmdSet, raw+hex.StatusOK+value)
	return hex.StatusOK
}

// setValue decodes a written value the way head encodes it and returns the
// integer together with its canonical wire form at the field's width.
func setValue(head scenario.Scenario, value string) (int64, string, error) {
	if len(value)%2 == 1 {
		value = "0" + value
	}
	size := hex.ByteSize(head.Bits())
	if size == 0 {
		size = len(value) / 2
	}
	if head.Kind() == scenario.KindBitBuffer {
		n, err := strconv.ParseUint(value, 16, 64)
		if err != nil {
			return 0, "", fmt.Errorf("%w: %v", hex.ErrBadPayload, err)
		}
		return int64(n), hex.BigEndianHex(n, size), nil
	}
	if len(value) < 2*size {
		value += strings.Repeat("0", 2*size-len(value))
	}
	n, err := hex.DecodeLittleEndian(value, head.Signed())
	if err != nil {
		return 0, "", err
	}
	return n, hex.IntToHex(n, size), nil
}
