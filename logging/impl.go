package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used by every package in this module. It mirrors the
// `zap.SugaredLogger` leveled methods so callers can be handed either.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
	Fatalw(msg string, keysAndValues ...interface{})

	SetLevel(level Level)
	GetLevel() Level
	Sublogger(subname string) Logger
	AddAppender(appender Appender)
	Sync() error
}

type (
	impl struct {
		name  string
		level AtomicLevel
		inUTC bool

		appenders []Appender
	}

	// LogEntry embeds a zapcore Entry and slice of Fields.
	LogEntry struct {
		zapcore.Entry
		fields []zapcore.Field
	}
)

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var errs error
	for _, appender := range imp.appenders {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}

func (imp *impl) Debug(args ...interface{}) { imp.emit(DEBUG, "", args, nil) }

func (imp *impl) Debugf(template string, args ...interface{}) { imp.emit(DEBUG, template, args, nil) }

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.emit(DEBUG, msg, nil, keysAndValues)
}

func (imp *impl) Info(args ...interface{}) { imp.emit(INFO, "", args, nil) }

func (imp *impl) Infof(template string, args ...interface{}) { imp.emit(INFO, template, args, nil) }

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.emit(INFO, msg, nil, keysAndValues)
}

func (imp *impl) Warn(args ...interface{}) { imp.emit(WARN, "", args, nil) }

func (imp *impl) Warnf(template string, args ...interface{}) { imp.emit(WARN, template, args, nil) }

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.emit(WARN, msg, nil, keysAndValues)
}

func (imp *impl) Error(args ...interface{}) { imp.emit(ERROR, "", args, nil) }

func (imp *impl) Errorf(template string, args ...interface{}) { imp.emit(ERROR, template, args, nil) }

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.emit(ERROR, msg, nil, keysAndValues)
}

// Fatal variants log at ERROR and exit the process.
func (imp *impl) Fatal(args ...interface{}) {
	imp.emit(ERROR, "", args, nil)
	os.Exit(1)
}

func (imp *impl) Fatalf(template string, args ...interface{}) {
	imp.emit(ERROR, template, args, nil)
	os.Exit(1)
}

func (imp *impl) Fatalw(msg string, keysAndValues ...interface{}) {
	imp.emit(ERROR, msg, nil, keysAndValues)
	os.Exit(1)
}

// emit builds an entry and hands it to every appender. It must be called directly from the public
// leveled methods so the caller lookup lands on user code.
func (imp *impl) emit(level Level, template string, fmtArgs, keysAndValues []interface{}) {
	if level < imp.level.Get() {
		return
	}
	entry := imp.newEntry(level)
	switch {
	case template == "":
		entry.Message = fmt.Sprint(fmtArgs...)
	case len(fmtArgs) > 0:
		entry.Message = fmt.Sprintf(template, fmtArgs...)
	default:
		entry.Message = template
	}
	entry.fields = toFields(keysAndValues)
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}

	for _, appender := range imp.appenders {
		if err := appender.Write(entry.Entry, entry.fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

func (imp *impl) newEntry(level Level) *LogEntry {
	entry := &LogEntry{}
	entry.Time = time.Now()
	entry.Level = level.AsZap()
	entry.LoggerName = imp.name
	entry.Caller = getCaller()
	return entry
}

// toFields pairs up keys and values. A trailing key without a value is kept with an error value
// so the mistake shows up in the output.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
		}
	}
	return fields
}

// getCaller returns the frame that called the public logging method, e.g.
// "synthesis/engine.go:120" once formatted.
func getCaller() zapcore.EntryCaller {
	// getCaller <- newEntry <- emit <- Info <- user code.
	const skipToLogCaller = 4
	var entryCaller zapcore.EntryCaller
	var ok bool
	entryCaller.PC, entryCaller.File, entryCaller.Line, ok = runtime.Caller(skipToLogCaller)
	if !ok {
		return entryCaller
	}
	entryCaller.Defined = true
	if fn := runtime.FuncForPC(entryCaller.PC); fn != nil {
		entryCaller.Function = fn.Name()
	}
	return entryCaller
}
