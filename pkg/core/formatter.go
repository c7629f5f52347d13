package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v2"

	"github.com/violetcereza/djtag-sync/pkg/model"
)

const (
	noChanges   = "No changes detected"
	trackMarker = "♫"
)

// Formatter renders diffs for humans.
//
// Colors are carried by the formatter itself: nothing is set globally.
type Formatter struct {
	// Color enables ANSI colors
	Color bool

	// Unified appends a unified diff of the tags to each changed track
	Unified bool

	// Context is the number of context lines of unified diffs. It defaults to 3
	Context int
}

type palette struct {
	add, del, mod, title *color.Color
}

func (f Formatter) palette() palette {
	p := palette{
		add:   color.New(color.FgGreen),
		del:   color.New(color.FgRed),
		mod:   color.New(color.FgYellow),
		title: color.New(color.FgMagenta, color.Bold),
	}
	for _, c := range []*color.Color{p.add, p.del, p.mod, p.title} {
		if f.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Tokens summarizes a structural diff: "+item" for additions, "-item" for removals, "~key" for modifications
func (f Formatter) Tokens(d model.StructuralDiff) string {
	p := f.palette()
	tokens := make([]string, 0, d.Len())
	for _, c := range d.Changes {
		switch c.Kind {
		case model.ChangeAdded:
			tokens = append(tokens, p.add.Sprint("+"+c.Key))
		case model.ChangeCollectionAdded:
			tokens = append(tokens, p.add.Sprint("+"+c.Item))
		case model.ChangeRemoved:
			tokens = append(tokens, p.del.Sprint("-"+c.Key))
		case model.ChangeCollectionRemoved:
			tokens = append(tokens, p.del.Sprint("-"+c.Item))
		case model.ChangeChanged:
			tokens = append(tokens, p.mod.Sprint("~"+c.Key))
		}
	}
	return strings.Join(tokens, " ")
}

// FormatEntry renders the changes of a single track
func (f Formatter) FormatEntry(w io.Writer, entry LibraryDiffEntry) error {
	label := entry.Path
	if entry.New != nil {
		label = entry.New.Label()
	}
	if _, err := fmt.Fprintf(w, "%s %s // %s\n", trackMarker, label, f.Tokens(entry.Diff)); err != nil {
		return err
	}
	if !f.Unified {
		return nil
	}
	patch, err := f.unified(entry)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, patch)
	return err
}

// FormatLibraryDiff renders all the changes of a library
func (f Formatter) FormatLibraryDiff(w io.Writer, ld LibraryDiff) error {
	if ld.IsEmpty() && !ld.HasTrackSetChanges() {
		_, err := fmt.Fprintln(w, noChanges)
		return err
	}
	p := f.palette()
	for _, pth := range ld.Paths() {
		if err := f.FormatEntry(w, ld.Entries[pth]); err != nil {
			return err
		}
	}
	for _, pth := range ld.AddedPaths {
		if _, err := fmt.Fprintf(w, "%s %s // %s\n", trackMarker, pth, p.add.Sprint("new track")); err != nil {
			return err
		}
	}
	for _, pth := range ld.RemovedPaths {
		if _, err := fmt.Fprintf(w, "%s %s // %s\n", trackMarker, pth, p.del.Sprint("removed track")); err != nil {
			return err
		}
	}
	return nil
}

// FormatTitle renders a section title
func (f Formatter) FormatTitle(w io.Writer, title string) error {
	_, err := fmt.Fprintln(w, f.palette().title.Sprint(title))
	return err
}

func (f Formatter) unified(entry LibraryDiffEntry) (string, error) {
	var older, newer model.Tags
	if entry.Old != nil {
		older = entry.Old.Tags
	}
	if entry.New != nil {
		newer = entry.New.Tags
	}
	a, err := yaml.Marshal(older)
	if err != nil {
		return "", err
	}
	b, err := yaml.Marshal(newer)
	if err != nil {
		return "", err
	}

	ctx := f.Context
	if ctx <= 0 {
		ctx = 3
	}
	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: entry.Path + " (committed)",
		ToFile:   entry.Path + " (current)",
		Context:  ctx,
	})
	if err != nil {
		return "", err
	}

	p := f.palette()
	lines := strings.SplitAfter(patch, "\n")
	var sb strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			sb.WriteString(line)
		case strings.HasPrefix(line, "+"):
			sb.WriteString(p.add.Sprint(line))
		case strings.HasPrefix(line, "-"):
			sb.WriteString(p.del.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			sb.WriteString(p.mod.Sprint(line))
		default:
			sb.WriteString(line)
		}
	}
	return sb.String(), nil
}
