package record

import (
	"github.com/danmuck/uniondec/internal/protocol"
	"github.com/danmuck/uniondec/internal/union"
)

// BindField reads one optional union field of msg into a typed sum. A
// field absent from msg yields the empty Optional without consulting s.
func BindField[U any](msg *protocol.Message, id uint16, s *union.Schema[U]) (union.Optional[U], error) {
	field, ok := msg.Field(id)
	if !ok {
		return union.None[U](), nil
	}
	raw, err := protocol.DecodeValue(field)
	if err != nil {
		return union.None[U](), err
	}
	return union.Bind(s, raw)
}
