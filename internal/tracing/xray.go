// Package tracing provides AWS X-Ray segments for long-running operations.
package tracing

import (
	"context"
	"fmt"

	"github.com/aws/aws-xray-sdk-go/strategy/ctxmissing"
	"github.com/aws/aws-xray-sdk-go/strategy/sampling"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/aws/aws-xray-sdk-go/xraylog"
	"github.com/sirupsen/logrus"
)

// Config contains X-Ray configuration.
type Config struct {
	ServiceName  string
	Enabled      bool
	SamplingRate float64
	DaemonAddr   string
}

// Logger adapter for X-Ray SDK.
type xrayLoggerAdapter struct {
	logger *logrus.Logger
}

func (l *xrayLoggerAdapter) Log(level xraylog.LogLevel, msg fmt.Stringer) {
	switch level {
	case xraylog.LogLevelDebug:
		l.logger.Debug(msg.String())
	case xraylog.LogLevelInfo:
		l.logger.Info(msg.String())
	case xraylog.LogLevelWarn:
		l.logger.Warn(msg.String())
	case xraylog.LogLevelError:
		l.logger.Error(msg.String())
	}
}

// Tracer opens segments when tracing is enabled. A nil or disabled Tracer is a no-op.
type Tracer struct {
	service string
	enabled bool
}

// samplingRules builds a localized rule set with one default rule at rate
func samplingRules(rate float64) []byte {
	return []byte(fmt.Sprintf(`{"version":2,"default":{"fixed_target":1,"rate":%g},"rules":[]}`, rate))
}

// Initialize configures the X-Ray SDK and returns a tracer.
func Initialize(cfg Config, logger *logrus.Logger) (*Tracer, error) {
	if !cfg.Enabled {
		return &Tracer{service: cfg.ServiceName}, nil
	}

	xray.SetLogger(&xrayLoggerAdapter{logger: logger})

	strategy, err := sampling.NewLocalizedStrategyFromJSONBytes(samplingRules(cfg.SamplingRate))
	if err != nil {
		return nil, fmt.Errorf("invalid sampling rate %v: %w", cfg.SamplingRate, err)
	}

	if err := xray.Configure(xray.Config{
		DaemonAddr:             cfg.DaemonAddr,
		SamplingStrategy:       strategy,
		ContextMissingStrategy: ctxmissing.NewDefaultIgnoreErrorStrategy(),
	}); err != nil {
		return nil, fmt.Errorf("failed to configure X-Ray: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"daemon_addr":   cfg.DaemonAddr,
		"sampling_rate": cfg.SamplingRate,
		"service_name":  cfg.ServiceName,
	}).Info("AWS X-Ray initialized")

	return &Tracer{service: cfg.ServiceName, enabled: true}, nil
}

// Enabled reports whether segments are emitted
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled
}

// Start opens a segment named service/name. The returned func closes it,
// recording err when non-nil.
func (t *Tracer) Start(ctx context.Context, name string) (context.Context, func(error)) {
	if !t.Enabled() {
		return ctx, func(error) {}
	}
	if t.service != "" {
		name = t.service + "/" + name
	}
	ctx, seg := xray.BeginSegment(ctx, name)
	return ctx, func(err error) { seg.Close(err) }
}

// StartSubsegment opens a subsegment under the current segment, if any.
func StartSubsegment(ctx context.Context, name string) (context.Context, func(error)) {
	if xray.GetSegment(ctx) == nil {
		return ctx, func(error) {}
	}
	ctx, seg := xray.BeginSubsegment(ctx, name)
	return ctx, func(err error) { seg.Close(err) }
}

// AddAnnotation adds an annotation to the current segment.
func AddAnnotation(ctx context.Context, key string, value interface{}) {
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddAnnotation(key, value)
	}
}

// AddMetadata adds metadata to the current segment.
func AddMetadata(ctx context.Context, key string, value interface{}) {
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddMetadata(key, value)
	}
}
