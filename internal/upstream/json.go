package upstream

import (
	"bytes"
	"io"

	"github.com/bytedance/sonic"
)

func jsonMarshal(v any) ([]byte, error) { return sonic.Marshal(v) }

func newBodyReader(body []byte) io.Reader { return bytes.NewReader(body) }
