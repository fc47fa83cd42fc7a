package orchestrator

import "github.com/bytedance/sonic"

func jsonUnmarshal(data []byte, v any) error { return sonic.Unmarshal(data, v) }
