package protocol

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/netpad-project/netpad/internal/model"
)

// The codec is a compact, self-describing binary encoding: a tag byte for
// the variant followed by its payload fields. Integers are big-endian,
// floats are IEEE-754 bits, strings and maps carry a u16 length prefix.
// Encoding never fails; decoding never fails either - malformed, truncated
// or over-long input degrades to the message set's Err sentinel.

// EncodeControl serializes a ControlMessage.
func EncodeControl(m ControlMessage) []byte {
	e := newEncoder()
	e.u8(uint8(m.Kind))
	switch m.Kind {
	case ControlMsg:
		e.str(m.Text)
	case ControlPressed, ControlReleased:
		e.u8(m.Key)
	case ControlAxis:
		e.u8(m.Key)
		e.f64(m.Value)
	case ControlDir:
		e.u8(m.Key)
		e.f64(m.X)
		e.f64(m.Y)
	}
	return e.bytes()
}

// DecodeControl deserializes a ControlMessage, degrading to the Err
// sentinel on any malformed input.
func DecodeControl(b []byte) ControlMessage {
	d := newDecoder(b)
	m := ControlMessage{Kind: ControlKind(d.u8())}
	switch m.Kind {
	case ControlMsg:
		m.Text = d.str()
	case ControlPressed, ControlReleased:
		m.Key = d.u8()
	case ControlAxis:
		m.Key = d.u8()
		m.Value = d.f64()
	case ControlDir:
		m.Key = d.u8()
		m.X = d.f64()
		m.Y = d.f64()
	case ControlExit, ControlErr, ControlEnd:
	default:
		return ControlErrMessage()
	}
	if !d.done() {
		return ControlErrMessage()
	}
	return m
}

// EncodeGame serializes a GameMessage.
func EncodeGame(m GameMessage) []byte {
	e := newEncoder()
	e.u8(uint8(m.Kind))
	switch m.Kind {
	case GameEventTrigger:
		e.u8(m.Key)
	case GameMsg:
		e.str(m.Text)
	case GameLetExit:
		e.u8(uint8(m.Reason))
	}
	return e.bytes()
}

// DecodeGame deserializes a GameMessage.
func DecodeGame(b []byte) GameMessage {
	d := newDecoder(b)
	m := GameMessage{Kind: GameKind(d.u8())}
	switch m.Kind {
	case GameEventTrigger:
		m.Key = d.u8()
	case GameMsg:
		m.Text = d.str()
	case GameLetExit:
		m.Reason = ExitReason(d.u8())
		if m.Reason > ReasonErr {
			return GameErrMessage()
		}
	case GameErr, GameEnd:
	default:
		return GameErrMessage()
	}
	if !d.done() {
		return GameErrMessage()
	}
	return m
}

// EncodeConnection serializes a ConnectionMessage.
func EncodeConnection(m ConnectionMessage) []byte {
	e := newEncoder()
	e.u8(uint8(m.Kind))
	if m.Kind == ConnJoin {
		e.player(m.Player)
	}
	return e.bytes()
}

// DecodeConnection deserializes a ConnectionMessage.
func DecodeConnection(b []byte) ConnectionMessage {
	d := newDecoder(b)
	m := ConnectionMessage{Kind: ConnectionKind(d.u8())}
	switch m.Kind {
	case ConnJoin:
		m.Player = d.player()
	case ConnRequestGameInfos, ConnRequestLayoutConfigure, ConnRequestSkinPackage, ConnReady, ConnErr:
	default:
		return ConnectionErrMessage()
	}
	if !d.done() {
		return ConnectionErrMessage()
	}
	return m
}

// EncodeResponse serializes a ConnectionResponse.
func EncodeResponse(m ConnectionResponse) []byte {
	e := newEncoder()
	e.u8(uint8(m.Kind))
	switch m.Kind {
	case RespGameInfos:
		e.infos(m.Infos)
	case RespDeny, RespFail:
		e.u8(uint8(m.Refusal))
	}
	return e.bytes()
}

// DecodeResponse deserializes a ConnectionResponse.
func DecodeResponse(b []byte) ConnectionResponse {
	d := newDecoder(b)
	m := ConnectionResponse{Kind: ResponseKind(d.u8())}
	switch m.Kind {
	case RespGameInfos:
		m.Infos = d.infos()
	case RespDeny, RespFail:
		m.Refusal = JoinRefusal(d.u8())
		if m.Refusal > RefusalUnknown {
			return ResponseErrMessage()
		}
	case RespOk, RespWelcome, RespErr:
	default:
		return ResponseErrMessage()
	}
	if !d.done() {
		return ResponseErrMessage()
	}
	return m
}

// encoder accumulates the wire form. Strings beyond the u16 length range
// are truncated rather than failing; encoding has no error path.
type encoder struct {
	buf []byte
}

func newEncoder() *encoder {
	return &encoder{buf: make([]byte, 0, 32)}
}

func (e *encoder) bytes() []byte { return e.buf }

func (e *encoder) u8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) u16(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

func (e *encoder) f64(v float64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(v))
}

func (e *encoder) str(s string) {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	e.u16(uint16(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) player(p model.Player) {
	e.str(string(p.Account.ID))
	e.str(p.Account.Hash)
	if p.Customize == nil {
		e.u8(0)
		return
	}
	e.u8(1)
	e.str(p.Customize.Nickname)
	e.u16(uint16(p.Customize.Hue))
	e.f64(p.Customize.Saturation)
	e.f64(p.Customize.Value)
}

// infos writes a string map with sorted keys so encoding is deterministic.
func (e *encoder) infos(m model.GameInfo) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > math.MaxUint16 {
		keys = keys[:math.MaxUint16]
	}
	e.u16(uint16(len(keys)))
	for _, k := range keys {
		e.str(k)
		e.str(m[k])
	}
}

// decoder walks the wire form, latching a failure flag instead of
// returning errors field by field.
type decoder struct {
	buf    []byte
	pos    int
	failed bool
}

func newDecoder(b []byte) *decoder {
	return &decoder{buf: b}
}

// done reports a clean decode: no failure and every byte consumed.
func (d *decoder) done() bool {
	return !d.failed && d.pos == len(d.buf)
}

func (d *decoder) fail() {
	d.failed = true
}

func (d *decoder) u8() uint8 {
	if d.failed || d.pos+1 > len(d.buf) {
		d.fail()
		return 0
	}
	v := d.buf[d.pos]
	d.pos++
	return v
}

func (d *decoder) u16() uint16 {
	if d.failed || d.pos+2 > len(d.buf) {
		d.fail()
		return 0
	}
	v := binary.BigEndian.Uint16(d.buf[d.pos:])
	d.pos += 2
	return v
}

func (d *decoder) f64() float64 {
	if d.failed || d.pos+8 > len(d.buf) {
		d.fail()
		return 0
	}
	v := math.Float64frombits(binary.BigEndian.Uint64(d.buf[d.pos:]))
	d.pos += 8
	return v
}

func (d *decoder) str() string {
	n := int(d.u16())
	if d.failed || d.pos+n > len(d.buf) {
		d.fail()
		return ""
	}
	s := string(d.buf[d.pos : d.pos+n])
	d.pos += n
	return s
}

func (d *decoder) player() model.Player {
	p := model.Player{
		Account: model.Account{
			ID:   model.AccountID(d.str()),
			Hash: d.str(),
		},
	}
	switch d.u8() {
	case 0:
	case 1:
		p.Customize = &model.Customization{
			Nickname:   d.str(),
			Hue:        int(d.u16()),
			Saturation: d.f64(),
			Value:      d.f64(),
		}
	default:
		d.fail()
	}
	return p
}

func (d *decoder) infos() model.GameInfo {
	n := int(d.u16())
	m := make(model.GameInfo, n)
	for i := 0; i < n; i++ {
		k := d.str()
		v := d.str()
		if d.failed {
			return nil
		}
		m[k] = v
	}
	return m
}
