package clog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
)

// TextHandler is a human oriented slog handler for the terminal. Request
// attributes (method, path, status) are printed as columns, everything else
// as indented key=value lines.
type TextHandler struct {
	cfg   TextHandlerConfig
	attrs []slog.Attr
	group string
	mu    *sync.Mutex
	w     io.Writer
}

type TextHandlerConfig struct {
	Color bool
	Level slog.Leveler
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Color = c
	}
}

func WithLevel(level slog.Leveler) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Level = level
	}
}

func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	cfg := TextHandlerConfig{
		Color: true,
		Level: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{
		cfg: cfg,
		mu:  &sync.Mutex{},
		w:   w,
	}
}

func (h *TextHandler) clone() *TextHandler {
	nh := *h
	nh.attrs = make([]slog.Attr, len(h.attrs))
	copy(nh.attrs, h.attrs)
	return &nh
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.cfg.Level.Level()
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := h.clone()
	for _, attr := range attrs {
		nh.attrs = append(nh.attrs, slog.Attr{Key: h.key(attr.Key), Value: attr.Value})
	}
	return nh
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := h.clone()
	if nh.group != "" {
		nh.group += "."
	}
	nh.group += name
	return nh
}

func (h *TextHandler) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if h.cfg.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	buf := &bytes.Buffer{}

	h.paint(color.Faint).Fprintf(buf, "%s ", record.Time.Format(time.TimeOnly))
	h.levelColor(record.Level).Fprintf(buf, "%-5s ", record.Level)

	kv := map[string]slog.Value{}
	for _, attr := range h.attrs {
		kv[attr.Key] = attr.Value
	}
	record.Attrs(func(attr slog.Attr) bool {
		kv[h.key(attr.Key)] = attr.Value
		return true
	})
	plain := h.paint()
	for _, key := range []string{"method", "path", "status"} {
		if v, ok := kv[key]; ok {
			plain.Fprintf(buf, "%s ", v)
			delete(kv, key)
		}
	}

	h.paint(color.FgGreen).Fprint(buf, record.Message)
	if e, ok := kv[ErrorAttributeKey]; ok {
		delete(kv, ErrorAttributeKey)
		h.paint(color.FgRed).Fprintf(buf, " %s", e)
	}
	buf.WriteByte('\n')

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		plain.Fprintf(buf, "    %s=%s\n", k, kv[k])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("can't write log record: %w", err)
	}
	return nil
}

func (h *TextHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

func (h *TextHandler) levelColor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return h.paint(color.FgRed)
	case level >= slog.LevelWarn:
		return h.paint(color.FgYellow)
	case level >= slog.LevelInfo:
		return h.paint(color.FgBlue)
	default:
		return h.paint(color.FgCyan)
	}
}
