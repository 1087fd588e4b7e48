package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type store[T any] struct {
	path  string
	sep   string
	codec Codec[T]
}

// Option customizes a store.
type Option func(*options)

type options struct {
	sep string
}

// WithSeparator overrides DefaultSeparator.
func WithSeparator(sep string) Option {
	return func(o *options) {
		if sep != "" {
			o.sep = sep
		}
	}
}

// ProvideStore returns a Repository backed by the file at path. The file is
// created lazily on the first write.
func ProvideStore[T any](path string, codec Codec[T], opts ...Option) Repository[T] {
	o := options{sep: DefaultSeparator}
	for _, opt := range opts {
		opt(&o)
	}
	return &store[T]{path: path, sep: o.sep, codec: codec}
}

func (r *store[T]) Path() string {
	return r.path
}

func (r *store[T]) Find(ctx context.Context, filter func(*T) bool) ([]*T, error) {
	var result []*T
	err := r.scan(ctx, func(record *T) bool {
		if filter == nil || filter(record) {
			result = append(result, record)
		}
		return true
	})
	return result, err
}

// FindOne returns the first matching record, or nil when nothing matches.
func (r *store[T]) FindOne(ctx context.Context, filter func(*T) bool) (*T, error) {
	var found *T
	err := r.scan(ctx, func(record *T) bool {
		if filter == nil || filter(record) {
			found = record
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.BatchCreate(ctx, []*T{resource})
}

// BatchCreate appends every resource with a single write followed by fsync.
func (r *store[T]) BatchCreate(ctx context.Context, resources []*T) error {
	if len(resources) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf strings.Builder
	for _, resource := range resources {
		if resource == nil {
			return ErrNilRecord
		}
		buf.WriteString(r.join(r.codec.Encode(resource)))
		buf.WriteByte('\n')
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	payload := buf.String()
	if info.Size() == 0 {
		payload = r.join(r.codec.Header()) + "\n" + payload
	}

	if _, err := f.WriteString(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (r *store[T]) scan(ctx context.Context, visit func(*T) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	header := r.codec.Header()
	lineNo := 0
	first := true
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}
		if line != "" {
			lineNo++
			trimmed := strings.TrimRight(line, "\r\n")
			if strings.TrimSpace(trimmed) != "" {
				fields := r.split(trimmed)
				if first && isHeader(fields, header) {
					first = false
				} else {
					first = false
					record, err := r.codec.Decode(fields)
					if err != nil {
						return fmt.Errorf("%w: %s line %d: %w", ErrCorruptRow, filepath.Base(r.path), lineNo, err)
					}
					if !visit(record) {
						return nil
					}
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
	}
}

func (r *store[T]) split(line string) []string {
	fields := strings.Split(line, r.sep)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

var fieldSanitizer = strings.NewReplacer("|", " ", "\r", " ", "\n", " ")

func (r *store[T]) join(fields []string) string {
	clean := make([]string, len(fields))
	for i, field := range fields {
		clean[i] = fieldSanitizer.Replace(field)
		if r.sep != "|" {
			clean[i] = strings.ReplaceAll(clean[i], r.sep, " ")
		}
	}
	return strings.Join(clean, r.sep)
}

func isHeader(fields, header []string) bool {
	if len(fields) == 0 || len(header) == 0 {
		return false
	}
	return strings.EqualFold(fields[0], header[0])
}
