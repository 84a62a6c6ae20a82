package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"carcassonne/internal/domain"
)

func TestRpcDebugConfigs(t *testing.T) {
	out, err := rpcDebugConfigs(context.Background(), noopLogger{}, nil, nil, "")
	if err != nil {
		t.Fatalf("rpcDebugConfigs: %v", err)
	}
	var resp DebugConfigsResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Names) == 0 {
		t.Fatal("no debug configs listed")
	}
	for _, name := range resp.Names {
		if _, err := domain.NewDebugGame(name); err != nil {
			t.Errorf("listed config %q does not build: %v", name, err)
		}
	}
}
