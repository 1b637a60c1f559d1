package streamds

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/km3net/km3db-go/pkg/tsv"
)

const catalogPath = "streamds"

// Database is the gateway surface the catalog needs. km3db.Client
// implements it.
type Database interface {
	Get(ctx context.Context, path string) string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger assigns the logger used for degradation messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFormat overrides the default "txt" retrieval format.
func WithFormat(format string) Option {
	return func(c *Client) {
		if format != "" {
			c.format = format
		}
	}
}

// Client holds the stream catalog. The descriptor map is immutable after
// construction; Update re-fetches it explicitly.
type Client struct {
	db      Database
	logger  *slog.Logger
	format  string
	streams map[string]Descriptor
	names   []string
}

// New fetches the stream directory and builds the catalog. Construction
// fails when the directory cannot be fetched or parsed.
func New(ctx context.Context, db Database, opts ...Option) (*Client, error) {
	c := &Client{
		db:     db,
		logger: slog.Default(),
		format: "txt",
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Update(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Update re-fetches the stream directory, replacing the catalog.
func (c *Client) Update(ctx context.Context) error {
	content := c.db.Get(ctx, catalogPath)
	if content == "" {
		return ErrEmptyCatalog
	}

	records, err := tsv.Records(content)
	if err != nil {
		return fmt.Errorf("streamds: parse catalog: %w", err)
	}

	streams := make(map[string]Descriptor, len(records))
	for _, rec := range records {
		desc, err := descriptorFromRecord(rec)
		if err != nil {
			return err
		}
		streams[desc.Name] = desc
	}

	names := make([]string, 0, len(streams))
	for name := range streams {
		names = append(names, name)
	}
	sort.Strings(names)

	c.streams = streams
	c.names = names
	return nil
}

// Streams enumerates the catalog, sorted by stream name regardless of the
// order the server listed them in.
func (c *Client) Streams() []Descriptor {
	out := make([]Descriptor, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.streams[name])
	}
	return out
}

// Descriptor looks up a single stream descriptor.
func (c *Client) Descriptor(name string) (Descriptor, bool) {
	desc, ok := c.streams[strings.ToLower(name)]
	return desc, ok
}

// Stream returns the bound operation for a catalog stream, or
// ErrUnknownStream for any name the server did not list.
func (c *Client) Stream(name string) (*Operation, error) {
	desc, ok := c.streams[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStream, name)
	}
	return &Operation{client: c, desc: desc}, nil
}

// Get retrieves a stream as raw text in the client's default format. An
// empty response and a server-reported error both degrade to an empty
// result with a log record.
func (c *Client) Get(ctx context.Context, stream string, sel ...Selector) string {
	return c.GetFormat(ctx, stream, c.format, sel...)
}

// GetFormat is Get with an explicit retrieval format.
func (c *Client) GetFormat(ctx context.Context, stream, format string, sel ...Selector) string {
	path := streamPath(stream, format, sel)
	data := c.db.Get(ctx, path)
	if data == "" {
		c.logger.Error("no data found at URL", "url", path)
		return ""
	}
	if strings.HasPrefix(data, "ERROR") {
		c.logger.Error(strings.TrimSpace(data), "url", path)
		return ""
	}
	return data
}

// GetRecords retrieves a stream decoded into records. A degraded (empty)
// result yields nil records and no error; a malformed payload is a hard
// decode failure.
func (c *Client) GetRecords(ctx context.Context, stream string, sel ...Selector) ([]tsv.Record, error) {
	data := c.Get(ctx, stream, sel...)
	if data == "" {
		return nil, nil
	}
	return tsv.Records(data)
}

// GetFrame retrieves a stream decoded into a rectangular frame.
func (c *Client) GetFrame(ctx context.Context, stream string, sel ...Selector) (*tsv.Frame, error) {
	data := c.Get(ctx, stream, sel...)
	if data == "" {
		return nil, nil
	}
	return tsv.Parse(data)
}

// Describe writes per-stream help text for every stream in the catalog.
func (c *Client) Describe(w io.Writer) {
	for _, desc := range c.Streams() {
		fmt.Fprintln(w, desc.Name)
		fmt.Fprintln(w, strings.Repeat("-", len(desc.Name)))
		fmt.Fprintln(w, desc.Description)
		fmt.Fprintf(w, "  available formats:   %s\n", joinList(desc.Formats))
		fmt.Fprintf(w, "  mandatory selectors: %s\n", joinList(desc.MandatorySelectors))
		fmt.Fprintf(w, "  optional selectors:  %s\n", joinList(desc.OptionalSelectors))
		fmt.Fprintln(w)
	}
}

// streamPath builds "streamds/{name}.{format}?{k=v&...}" with the
// selectors in argument order. Values are passed through as-is; the
// caller is responsible for valid values.
func streamPath(stream, format string, sel []Selector) string {
	var b strings.Builder
	fmt.Fprintf(&b, "streamds/%s.%s?", strings.ToLower(stream), format)
	for i, s := range sel {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(s.Name)
		b.WriteByte('=')
		b.WriteString(s.Value)
	}
	return b.String()
}

func joinList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

// Operation is a stream bound to its descriptor, the runtime-discovered
// equivalent of a generated API method.
type Operation struct {
	client *Client
	desc   Descriptor
}

// Descriptor returns the stream metadata backing the operation.
func (op *Operation) Descriptor() Descriptor {
	return op.desc
}

// Mandatory lists the selectors the server requires for this stream.
// Supplying fewer is not rejected client-side; the server reports it.
func (op *Operation) Mandatory() []string {
	return op.desc.MandatorySelectors
}

// Optional lists the selectors the server accepts for this stream.
func (op *Operation) Optional() []string {
	return op.desc.OptionalSelectors
}

// Call retrieves the stream as raw text.
func (op *Operation) Call(ctx context.Context, sel ...Selector) string {
	return op.client.Get(ctx, op.desc.Name, sel...)
}

// Records retrieves the stream decoded into records.
func (op *Operation) Records(ctx context.Context, sel ...Selector) ([]tsv.Record, error) {
	return op.client.GetRecords(ctx, op.desc.Name, sel...)
}
