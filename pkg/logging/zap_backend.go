package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ZapConfig defines the diagnostic stream backend
type ZapConfig struct {
	Level  Level
	Format string    // "console" or "json"
	Output io.Writer // defaults to os.Stderr
	Caller bool
}

// DefaultZapConfig returns human-readable info-level output on stderr
func DefaultZapConfig() ZapConfig {
	return ZapConfig{
		Level:  LevelInfo,
		Format: FormatConsole,
		Output: os.Stderr,
	}
}

// ZapBackend owns the zap logger behind a Logger
type ZapBackend struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

// NewZapBackend builds a zap logger from config
func NewZapBackend(config ZapConfig) *ZapBackend {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.LevelKey = "level"

	var encoder zapcore.Encoder
	switch config.Format {
	case FormatJSON:
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	writeSyncer := zapcore.Lock(zapcore.AddSync(output))

	core := zapcore.NewCore(encoder, writeSyncer, toZapLevel(config.Level))

	opts := []zap.Option{}
	if config.Caller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(2))
	}

	zapLogger := zap.New(core, opts...)
	return &ZapBackend{
		logger: zapLogger,
		sugar:  zapLogger.Sugar(),
	}
}

// LogFuncs exposes the backend for NewLogger
func (z *ZapBackend) LogFuncs() LogFuncs {
	return LogFuncs{
		Debugf: z.sugar.Debugf,
		Infof:  z.sugar.Infof,
		Warnf:  z.sugar.Warnf,
		Errorf: z.sugar.Errorf,
	}
}

// Sync flushes any buffered log entries
func (z *ZapBackend) Sync() error {
	return z.logger.Sync()
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
