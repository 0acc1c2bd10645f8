package tracing

import (
	"fmt"
	"vrz_bot/pkg/logger"

	"github.com/opentracing/opentracing-go"
	jCfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

var (
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

type Config struct {
	Host string
	Port int
	// SampleRate in (0,1) samples probabilistically, anything else keeps every span.
	SampleRate float64
}

func (c Config) sampler() *jCfg.SamplerConfig {
	if c.SampleRate > 0 && c.SampleRate < 1 {
		return &jCfg.SamplerConfig{Type: "probabilistic", Param: c.SampleRate}
	}
	return &jCfg.SamplerConfig{Type: "const", Param: 1}
}

// InitTracer installs a jaeger tracer as the global opentracing tracer.
// The returned func flushes and closes it.
func InitTracer(conf Config) (opentracing.Tracer, func(), error) {
	cfg := &jCfg.Configuration{
		ServiceName: serviceName,
		Sampler:     conf.sampler(),
		Reporter: &jCfg.ReporterConfig{
			LocalAgentHostPort: fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		},
	}

	tracer, closer, err := cfg.NewTracer(
		jCfg.Metrics(metrics.NullFactory),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("jaeger tracer: %w", err)
	}

	opentracing.SetGlobalTracer(tracer)
	logger.Info("tracing %s to %s:%d", serviceName, conf.Host, conf.Port)
	return tracer, func() {
		if err := closer.Close(); err != nil {
			logger.Error("close jaeger tracer: %v", err)
		}
	}, nil
}
