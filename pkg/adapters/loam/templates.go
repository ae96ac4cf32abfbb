package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

var (
	_ ports.TemplateLibrary = (*Library)(nil)
	_ ports.Watchable       = (*Library)(nil)
)

// Library adapts a Loam repository of template files to ports.TemplateLibrary.
// Each Markdown, JSON or YAML document holds one template in its metadata.
type Library struct {
	Repo *loam.TypedRepository[TemplateMetadata]
}

// New creates a new Loam template library.
func New(repo *loam.TypedRepository[TemplateMetadata]) *Library {
	return &Library{
		Repo: repo,
	}
}

// Entry is a decoded template together with its palette metadata.
type Entry struct {
	Name        string
	Label       string
	Description string
	Category    string
	Root        *domain.Node
}

// Template implements ports.TemplateLibrary.
func (l *Library) Template(ctx context.Context, name string) (*domain.Node, error) {
	entries, err := l.index(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, name)
	}
	return e.Root, nil
}

// Templates implements ports.TemplateLibrary.
func (l *Library) Templates(ctx context.Context) ([]string, error) {
	entries, err := l.index(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Entries returns every template with its metadata, sorted by name.
func (l *Library) Entries(ctx context.Context) ([]Entry, error) {
	entries, err := l.index(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// index reads the repository on every call so edits on disk are picked up
// without a restart. Every returned root is freshly decoded.
func (l *Library) index(ctx context.Context) (map[string]Entry, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	entries := make(map[string]Entry, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		name := trimExtension(rawID)

		if existingPath, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: template '%s' is defined in both '%s' and '%s'", name, existingPath, doc.ID)
		}
		seen[name] = doc.ID

		root, err := decodeRoot(doc.Data.Root)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}

		description := doc.Data.Description
		if description == "" {
			description = strings.TrimSpace(doc.Content)
		}
		entries[name] = Entry{
			Name:        name,
			Label:       doc.Data.Label,
			Description: description,
			Category:    doc.Data.Category,
			Root:        root,
		}
	}
	return entries, nil
}

func decodeRoot(raw map[string]any) (*domain.Node, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing root")
	}

	var root domain.Node
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &root,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(normalize(raw)); err != nil {
		return nil, fmt.Errorf("failed to decode root: %w", err)
	}
	if root.Type == "" {
		return nil, fmt.Errorf("root missing type")
	}
	fill(&root)
	return &root, nil
}

// normalize converts YAML-style map[any]any values into map[string]any,
// recursively, so props look the same as after a JSON round trip.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = normalize(sub)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = normalize(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = normalize(sub)
		}
		return out
	default:
		return val
	}
}

// fill gives every node a props map and containers a children list, like domain.NewNode.
func fill(n *domain.Node) {
	if n.Props == nil {
		n.Props = map[string]any{}
	}
	if n.Type.IsContainer() && n.Children == nil {
		n.Children = []*domain.Node{}
	}
	for _, c := range n.Children {
		fill(c)
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Library) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
