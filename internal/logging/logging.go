package logging

import (
	"context"

	easylogging "github.com/KonishchevDmitry/go-easy-logging"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/KonishchevDmitry/storage-harness/internal/metrics"
)

const encoderName = "custom"

func init() {
	if err := zap.RegisterEncoder(encoderName, func(config zapcore.EncoderConfig) (zapcore.Encoder, error) {
		return newEncoder(zapcore.NewConsoleEncoder(config)), nil
	}); err != nil {
		panic(err)
	}
}

func Configure(develMode bool) (*zap.SugaredLogger, error) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	encoderConfig.LevelKey = ""

	var loggerConfig zap.Config
	if develMode {
		loggerConfig = zap.NewDevelopmentConfig()
	} else {
		loggerConfig = zap.NewProductionConfig()
	}

	loggerConfig.DisableCaller = true
	loggerConfig.DisableStacktrace = true

	loggerConfig.Encoding = encoderName
	loggerConfig.EncoderConfig = encoderConfig

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// Component returns a context with the logger named after the harness component it's passed to.
func Component(ctx context.Context, name string) context.Context {
	return easylogging.WithLogger(ctx, easylogging.L(ctx).Named(name))
}

type encoder struct {
	zapcore.Encoder
}

func newEncoder(impl zapcore.Encoder) zapcore.Encoder {
	return encoder{impl}
}

func (e encoder) Clone() zapcore.Encoder {
	return newEncoder(e.Encoder.Clone())
}

func (e encoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if entry.Level >= zapcore.WarnLevel {
		metrics.ErrorsMetric.Inc()
	}
	return e.Encoder.EncodeEntry(entry, fields)
}
