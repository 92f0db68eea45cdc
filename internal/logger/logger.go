package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log 전역 로거 인스턴스 (main에서만 사용, 나머지는 주입)
	Log *zap.Logger
)

// Options 로거 설정
type Options struct {
	Level       string // debug | info | warn | error
	Development bool   // true면 콘솔 인코더, false면 JSON
}

// Init 로거 초기화
func Init(opts Options) error {
	// 인코더 설정
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if opts.Development {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(os.Stdout),
		ParseLevel(opts.Level),
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return nil
}

// ParseLevel 문자열 레벨 변환 (알 수 없는 값은 info)
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetLogger 이름이 지정된 로거 반환
func GetLogger(name string) *zap.SugaredLogger {
	if Log == nil {
		_ = Init(Options{Level: "info", Development: true})
	}
	return Log.Named(name).Sugar()
}

// Nop 테스트용 무출력 로거
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Sync 로거 버퍼 플러시
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
