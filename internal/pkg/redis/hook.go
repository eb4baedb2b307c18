package redis

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var (
	commandCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repairshop",
			Name:      "redis_commands_total",
			Help:      "Redis 命令次数",
		},
		[]string{"command", "prefix", "status"},
	)
	commandDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "repairshop",
			Name:       "redis_command_duration_seconds",
			Help:       "Redis 命令耗时",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"command", "prefix"},
	)
	pipelineCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repairshop",
			Name:      "redis_pipelines_total",
			Help:      "Redis 管道执行次数",
		},
		[]string{"status"},
	)
	dialCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repairshop",
			Name:      "redis_dials_total",
			Help:      "Redis 建立连接的次数",
		},
		[]string{"status"},
	)
	registerOnce sync.Once
)

func register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(commandCounter, commandDuration, pipelineCounter, dialCounter)
	})
}

// Hook 同时记录指标和链路，限流脚本和意图缓存的 key 前缀作为标签
type Hook struct {
	tracer trace.Tracer
}

func NewHook() *Hook {
	register()
	return &Hook{tracer: otel.Tracer("repairshop-notification/redis")}
}

func (h *Hook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		name, prefix := cmd.Name(), keyPrefix(cmd)
		ctx, span := h.tracer.Start(ctx, "redis."+name, trace.WithSpanKind(trace.SpanKindClient))
		span.SetAttributes(attribute.String("db.system", "redis"), attribute.String("redis.key_prefix", prefix))
		defer span.End()

		start := time.Now()
		err := next(ctx, cmd)
		commandDuration.WithLabelValues(name, prefix).Observe(time.Since(start).Seconds())

		status := statusSuccess
		if err != nil && !errors.Is(err, goredis.Nil) {
			status = statusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		commandCounter.WithLabelValues(name, prefix, status).Inc()
		return err
	}
}

func (h *Hook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		ctx, span := h.tracer.Start(ctx, "redis.pipeline", trace.WithSpanKind(trace.SpanKindClient))
		span.SetAttributes(attribute.Int("redis.cmds", len(cmds)))
		defer span.End()

		err := next(ctx, cmds)
		status := statusSuccess
		if err != nil && !errors.Is(err, goredis.Nil) {
			status = statusError
			span.SetStatus(codes.Error, err.Error())
		}
		pipelineCounter.WithLabelValues(status).Inc()
		return err
	}
}

func (h *Hook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		status := statusSuccess
		if err != nil {
			status = statusError
		}
		dialCounter.WithLabelValues(status).Inc()
		return conn, err
	}
}

// keyPrefix 取 key 第一个冒号之前的部分，EVAL 类命令的 key 在第三个参数
func keyPrefix(cmd goredis.Cmder) string {
	args := cmd.Args()
	idx := 1
	switch strings.ToLower(cmd.Name()) {
	case "eval", "evalsha", "eval_ro", "evalsha_ro":
		idx = 3
	}
	if len(args) <= idx {
		return ""
	}
	key, ok := args[idx].(string)
	if !ok {
		return ""
	}
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// WithObservability 给客户端加上指标和链路
func WithObservability(client *goredis.Client) *goredis.Client {
	client.AddHook(NewHook())
	return client
}
