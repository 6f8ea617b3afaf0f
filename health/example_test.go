package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonwraymond/plugkit/health"
	"github.com/jonwraymond/plugkit/plugin"
)

type queue struct {
	*plugin.Base[struct{}, struct{}]
}

func (q *queue) InitApp(reg *plugin.Registry, cfg any) error { return q.Bind(reg, q, cfg) }

func (q *queue) Health(ctx context.Context) (map[string]any, error) {
	return nil, errors.New("boom")
}

type cache struct {
	*plugin.Base[struct{}, struct{}]
}

func (c *cache) InitApp(reg *plugin.Registry, cfg any) error { return c.Bind(reg, c, cfg) }

func (c *cache) Health(ctx context.Context) (map[string]any, error) {
	return map[string]any{"ping": "pong"}, nil
}

func ExampleController_Health() {
	reg := plugin.NewRegistry()
	_ = (&cache{plugin.NewBase[struct{}, struct{}]("cache", nil, plugin.Hooks[struct{}, struct{}]{})}).InitApp(reg, nil)
	_ = (&queue{plugin.NewBase[struct{}, struct{}]("queue", nil, plugin.Hooks[struct{}, struct{}]{})}).InitApp(reg, nil)

	report, _ := health.NewController(reg).Health(context.Background())
	out, _ := json.Marshal(report)
	fmt.Println(string(out))
	// Output:
	// {"status":false,"checks":[{"name":"cache","status":true,"details":{"ping":"pong"}},{"name":"queue","status":false,"details":{"error":"boom"}}]}
}
