package observability

import (
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// NewLogger creates a structured zap.Logger at the given level. Unknown
// level names fall back to info. Output is JSON on stdout so the server's
// logs are machine-readable out of the box.
func NewLogger(levelName string) (*zap.Logger, error) {
    level := zapcore.InfoLevel
    if err := level.Set(strings.ToLower(levelName)); err != nil {
        level = zapcore.InfoLevel
    }

    zapCfg := zap.Config{
        Level:    zap.NewAtomicLevelAt(level),
        Encoding: "json",
        EncoderConfig: zapcore.EncoderConfig{
            MessageKey: "message",
            LevelKey:   "level",
            TimeKey:    "ts",
            EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
                enc.AppendString(l.String())
            },
            EncodeTime: zapcore.ISO8601TimeEncoder,
        },
        OutputPaths:      []string{"stdout"},
        ErrorOutputPaths: []string{"stderr"},
    }
    return zapCfg.Build()
}
