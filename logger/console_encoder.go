package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
)

// palette is one console color theme. Slots are named by role rather
// than by color so themes can disagree about hue.
type palette struct {
	text      string // message body
	timestamp string
	component string // logger name, odd hash
	altAccent string // logger name, even hash
	id        string // uuids, task ids, addresses
	number    string // counts, durations
	good      string // online/paired/completed markers
	warn      string
	warnBg    string
	bad       string
	badBg     string
}

// Two bundled themes. Everforest leans green to make host-online and
// pair-success lines pop; gruvbox is the warmer fallback.
var palettes = map[string]palette{
	"everforest": {
		text:      "\x1b[38;5;223m",
		timestamp: "\x1b[38;5;107m",
		component: "\x1b[38;5;108m",
		altAccent: "\x1b[38;5;208m",
		id:        "\x1b[38;5;109m",
		number:    "\x1b[38;5;108m",
		good:      "\x1b[38;5;108m",
		warn:      "\x1b[38;5;179m",
		warnBg:    "\x1b[48;5;58m",
		bad:       "\x1b[38;5;167m",
		badBg:     "\x1b[48;5;52m",
	},
	"gruvbox": {
		text:      "\x1b[38;5;223m",
		timestamp: "\x1b[38;5;108m",
		component: "\x1b[38;5;208m",
		altAccent: "\x1b[38;5;214m",
		id:        "\x1b[38;5;109m",
		number:    "\x1b[38;5;175m",
		good:      "\x1b[38;5;142m",
		warn:      "\x1b[38;5;214m",
		warnBg:    "\x1b[48;5;58m",
		bad:       "\x1b[38;5;167m",
		badBg:     "\x1b[48;5;88m",
	},
}

var currentTheme = "everforest"

// SetTheme selects the console palette. Unknown names are ignored so a
// typo in HOSTCORE_LOG_THEME degrades to the default rather than a
// colorless or broken console.
func SetTheme(theme string) {
	if _, ok := palettes[theme]; ok {
		currentTheme = theme
	}
}

func theme() palette {
	return palettes[currentTheme]
}

// goodWords are message substrings rendered in the theme's success
// color: the states an operator scans for.
var goodWords = []string{"online", "paired", "discovered", "completed", "saved"}

// consoleEncoder renders calm single-line output:
//
//	14:52:07  [pair]  registry  host online  7c2f...a1 192.168.1.50:47989
//
// Symbol tag first, abbreviated component, message, then field values.
type consoleEncoder struct {
	zapcore.Encoder // base encoder, only for Clone plumbing
}

func newConsoleEncoder() *consoleEncoder {
	return &consoleEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	p := theme()
	out := buffer.NewPool().Get()

	out.AppendString(p.timestamp)
	out.AppendString(ent.Time.Format("15:04:05"))
	out.AppendString(ansiReset)

	if tag := levelTag(ent.Level, p); tag != "" {
		out.AppendString("  ")
		out.AppendString(tag)
	}

	// The component symbol ([disc], [pair], ...) renders ahead of the
	// message; it is pulled out of the field list so it isn't repeated
	// in the key=value tail.
	rest := fields
	if sym, others := splitSymbol(fields); sym != "" {
		out.AppendString("  ")
		out.AppendString(p.altAccent)
		out.AppendString("[" + sym + "]")
		out.AppendString(ansiReset)
		rest = others
	}

	if ent.LoggerName != "" {
		out.AppendString("  ")
		out.AppendString(componentColor(ent.LoggerName, p))
		out.AppendString(shortName(ent.LoggerName))
		out.AppendString(ansiReset)
	}

	out.AppendString("  ")
	out.AppendString(renderMessage(ent.Message, p))

	if tail := renderFields(rest, p); tail != "" {
		out.AppendString("  ")
		out.AppendString(tail)
	}

	out.AppendString("\n")
	return out, nil
}

func levelTag(level zapcore.Level, p palette) string {
	switch level {
	case zapcore.WarnLevel:
		return ansiBold + p.warnBg + p.warn + "WARN" + ansiReset
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return ansiBold + p.badBg + p.bad + level.CapitalString() + ansiReset
	default:
		return ""
	}
}

// splitSymbol removes the "symbol" field and returns its value plus the
// remaining fields in their original order.
func splitSymbol(fields []zapcore.Field) (string, []zapcore.Field) {
	for i, f := range fields {
		if f.Key == FieldSymbol && f.Type == zapcore.StringType {
			rest := make([]zapcore.Field, 0, len(fields)-1)
			rest = append(rest, fields[:i]...)
			rest = append(rest, fields[i+1:]...)
			return f.String, rest
		}
	}
	return "", fields
}

// componentColor alternates two accents by name hash so neighboring
// components stay visually distinct in interleaved output.
func componentColor(name string, p palette) string {
	var h int
	for _, c := range name {
		h += int(c)
	}
	if h%2 == 0 {
		return p.component
	}
	return p.altAccent
}

// shortName abbreviates dotted logger names: registry.save -> r.save.
func shortName(name string) string {
	i := strings.IndexByte(name, '.')
	if i <= 0 {
		return name
	}
	return name[:1] + name[i:]
}

// renderMessage colors state words an operator scans for and leaves the
// rest in the body color.
func renderMessage(msg string, p palette) string {
	lower := strings.ToLower(msg)
	for _, w := range goodWords {
		if strings.Contains(lower, w) {
			return p.good + msg + ansiReset
		}
	}
	if strings.Contains(lower, "offline") || strings.Contains(lower, "failed") {
		return p.bad + msg + ansiReset
	}
	return p.text + msg + ansiReset
}

// idKeys render value-only in the id color; every other field renders
// key=value. No field is ever dropped: anything zap can carry is
// stringified through a map encoder.
var idKeys = map[string]bool{
	"uuid":      true,
	"host_uuid": true,
	"task_id":   true,
	"app_id":    true,
	"addr":      true,
	"address":   true,
}

func renderFields(fields []zapcore.Field, p palette) string {
	var parts []string
	for _, f := range fields {
		if f.Type == zapcore.SkipType {
			continue // e.g. zap.Error(nil)
		}
		val := fieldString(f)
		if val == "" && (f.Key == "" || f.Type == zapcore.ErrorType) {
			continue
		}
		switch {
		case idKeys[f.Key]:
			parts = append(parts, p.id+val+ansiReset)
		case f.Key == "duration_ms":
			parts = append(parts, p.number+val+ansiReset+"ms")
		default:
			parts = append(parts, p.text+f.Key+"="+val+ansiReset)
		}
	}
	return strings.Join(parts, " ")
}

// fieldString stringifies any zap field by round-tripping it through a
// map encoder, so exotic types (arrays, durations, byte strings) still
// surface in the console.
func fieldString(f zapcore.Field) string {
	m := zapcore.NewMapObjectEncoder()
	f.AddTo(m)
	v, ok := m.Fields[f.Key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
