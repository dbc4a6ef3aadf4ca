package codec

import (
	"github.com/shy-share/rocketmq-connect/internal/xjson"
)

// JSONConverter encodes broadcast signals as JSON. Struct field order is
// fixed by the type definition, so encoding is deterministic.
type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) Encode(v interface{}) ([]byte, error) {
	return xjson.Marshal(v)
}
