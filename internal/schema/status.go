package schema

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Status is the payload of KRPC.GetStatus, a health/version snapshot of
// the running server. Only the fields this client surfaces are kept;
// the full kRPC status message carries many more performance counters.
type Status struct {
	Version                string
	BytesRead              uint64
	BytesWritten           uint64
	RPCsExecuted           uint64
	RPCRate                float32
	CurrentGameScene       uint32
	MaxTimePerUpdate       int32
	AdaptiveRateControl    bool
	BlockingRecv           bool
}

func (s *Status) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, s.Version)
	buf = appendVarintField(buf, 2, s.BytesRead)
	buf = appendVarintField(buf, 3, s.BytesWritten)
	buf = appendVarintField(buf, 4, s.RPCsExecuted)
	buf = appendFixed32Field(buf, 5, math.Float32bits(s.RPCRate))
	buf = appendVarintField(buf, 6, uint64(s.CurrentGameScene))
	buf = appendVarintField(buf, 7, uint64(int64(s.MaxTimePerUpdate)))
	buf = appendBoolField(buf, 8, s.AdaptiveRateControl)
	buf = appendBoolField(buf, 9, s.BlockingRecv)
	return buf, nil
}

func (s *Status) Unmarshal(buf []byte) error {
	*s = Status{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Status.version", n)
			}
			s.Version = string(v)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("Status.bytes_read", n)
			}
			s.BytesRead = v
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("Status.bytes_written", n)
			}
			s.BytesWritten = v
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("Status.rpcs_executed", n)
			}
			s.RPCsExecuted = v
			return n, nil
		case num == 5 && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(raw)
			if n < 0 {
				return 0, errMalformed("Status.rpc_rate", n)
			}
			s.RPCRate = math.Float32frombits(v)
			return n, nil
		case num == 6 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("Status.current_game_scene", n)
			}
			s.CurrentGameScene = uint32(v)
			return n, nil
		case num == 7 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("Status.max_time_per_update", n)
			}
			s.MaxTimePerUpdate = int32(int64(v))
			return n, nil
		case num == 8 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("Status.adaptive_rate_control", n)
			}
			s.AdaptiveRateControl = v != 0
			return n, nil
		case num == 9 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("Status.blocking_recv", n)
			}
			s.BlockingRecv = v != 0
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

func appendFixed32Field(buf []byte, num protowire.Number, v uint32) []byte {
	buf = protowire.AppendTag(buf, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(buf, v)
}

func appendBoolField(buf []byte, num protowire.Number, v bool) []byte {
	if !v {
		return buf
	}
	return appendVarintField(buf, num, 1)
}
