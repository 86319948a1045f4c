package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// ColoredFormatter writes "time LEVEL message key=value ..." lines.
type ColoredFormatter struct {
	TimestampFormat string
	DisableColors   bool
}

func NewColoredFormatter() *ColoredFormatter {
	return &ColoredFormatter{TimestampFormat: time.RFC3339}
}

func (f *ColoredFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	levelColor := f.paint(levelColor(entry.Level))
	b.WriteString(f.paint(color.New(color.FgYellow)).Sprint(entry.Time.Format(f.TimestampFormat)))
	b.WriteByte(' ')
	b.WriteString(levelColor.Sprintf("%-7s", strings.ToUpper(entry.Level.String())))
	b.WriteByte(' ')
	b.WriteString(levelColor.Sprint(entry.Message))

	for _, k := range sortedKeys(entry.Data) {
		keyColor := color.New(color.FgCyan)
		if isImportantField(k) {
			keyColor = color.New(color.FgGreen)
		}
		b.WriteByte(' ')
		b.WriteString(f.paint(keyColor).Sprintf("%s=", k))
		b.WriteString(formatValue(entry.Data[k]))
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *ColoredFormatter) paint(c *color.Color) *color.Color {
	if f.DisableColors {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		if strings.ContainsAny(v, " \t\"=") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case error:
		return fmt.Sprintf("%q", v.Error())
	case fmt.Stringer:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func levelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return color.New(color.FgBlue)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel:
		return color.New(color.FgRed)
	case logrus.FatalLevel, logrus.PanicLevel:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

var priorityFields = map[string]int{
	"run_id":         1,
	"attempt":        2,
	"outcome":        3,
	"found":          4,
	"appointment_id": 5,
	logrus.ErrorKey:  6,
}

func isImportantField(k string) bool {
	return k == "found" || k == "outcome" || k == logrus.ErrorKey
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := priorityFields[keys[i]], priorityFields[keys[j]]
		switch {
		case pi != 0 && pj != 0:
			return pi < pj
		case pi != 0:
			return true
		case pj != 0:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
