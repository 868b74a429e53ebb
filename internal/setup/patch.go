// ABOUTME: Structured in-place patching of single scalars in the YAML config file
// ABOUTME: Locates the value via the yaml.v3 node tree and splices only its byte span

package setup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/2389/agent-chat/internal/config"
)

// Patch errors
var (
	ErrFieldNotFound      = errors.New("field not present in config file")
	ErrInvalidValue       = errors.New("invalid value")
	ErrUnsupportedLayout  = errors.New("field layout cannot be patched in place")
	errPatchVerifyFailure = errors.New("patched config did not round-trip")
)

type fieldKind int

const (
	stringField fieldKind = iota
	boolField
)

type field struct {
	path     []string
	kind     fieldKind
	validate func(string) error
}

func validColor(v string) error {
	if !config.ValidColor(v) {
		return fmt.Errorf("%w: %q is not one of %s or #rrggbb", ErrInvalidValue, v, strings.Join(config.PaletteNames(), ", "))
	}
	return nil
}

func validButton(v string) error {
	if !config.ValidButtonVariant(v) {
		return fmt.Errorf("%w: %q is not one of %s", ErrInvalidValue, v, strings.Join(config.ButtonVariants, ", "))
	}
	return nil
}

// patchableFields is the closed set of fields setup may edit.
var patchableFields = map[string]field{
	"ui.app_name":                 {path: []string{"ui", "app_name"}, kind: stringField},
	"ui.app_description":          {path: []string{"ui", "app_description"}, kind: stringField},
	"ui.colors.primary":           {path: []string{"ui", "colors", "primary"}, kind: stringField, validate: validColor},
	"ui.colors.secondary":         {path: []string{"ui", "colors", "secondary"}, kind: stringField, validate: validColor},
	"ui.colors.accent":            {path: []string{"ui", "colors", "accent"}, kind: stringField, validate: validColor},
	"ui.buttons.primary_button":   {path: []string{"ui", "buttons", "primary_button"}, kind: stringField, validate: validButton},
	"ui.buttons.secondary_button": {path: []string{"ui", "buttons", "secondary_button"}, kind: stringField, validate: validButton},
	"ui.buttons.cancel_button":    {path: []string{"ui", "buttons", "cancel_button"}, kind: stringField, validate: validButton},
	"auth.require_auth":           {path: []string{"auth", "require_auth"}, kind: boolField},
}

// PatchableFields returns the dotted names accepted by PatchConfig.
func PatchableFields() []string {
	names := make([]string, 0, len(patchableFields))
	for name := range patchableFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PatchConfig sets one scalar field in YAML config content.
//
// Only the bytes of the existing value are replaced; everything else,
// including comments and formatting, is returned unchanged. The result is
// re-parsed and must decode to the requested value. Fields outside
// PatchableFields are ignored: content is returned as-is with changed=false.
func PatchConfig(content []byte, name, value string) (out []byte, changed bool, err error) {
	f, ok := patchableFields[name]
	if !ok {
		return content, false, nil
	}

	if strings.ContainsAny(value, "\r\n") {
		return nil, false, fmt.Errorf("%w: %s must fit on one line", ErrInvalidValue, name)
	}
	if f.kind == boolField {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s expects true or false, got %q", ErrInvalidValue, name, value)
		}
		value = strconv.FormatBool(b)
	}
	if f.validate != nil {
		if err := f.validate(value); err != nil {
			return nil, false, fmt.Errorf("%s: %w", name, err)
		}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, false, fmt.Errorf("parsing config: %w", err)
	}

	node, inFlow := lookup(&doc, f.path)
	if node == nil {
		return nil, false, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	if node.Kind != yaml.ScalarNode {
		return nil, false, fmt.Errorf("%w: %s is not a scalar", ErrUnsupportedLayout, name)
	}

	start, end, err := scalarSpan(content, node, inFlow)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", name, err)
	}

	replacement := renderScalar(node.Style, f.kind, value, inFlow)
	if string(content[start:end]) == replacement {
		return content, false, nil
	}

	out = make([]byte, 0, len(content)-(end-start)+len(replacement))
	out = append(out, content[:start]...)
	out = append(out, replacement...)
	out = append(out, content[end:]...)

	if err := verify(out, f, value); err != nil {
		return nil, false, fmt.Errorf("%s: %w", name, err)
	}
	return out, true, nil
}

// PatchConfigFile applies PatchConfig to the file at path, writing it back
// only when the content changed. The file mode is preserved.
func PatchConfigFile(path, name, value string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	out, changed, err := PatchConfig(content, name, value)
	if err != nil || !changed {
		return false, err
	}

	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// lookup walks mapping keys along path. It reports whether the final value
// sits inside a flow-style mapping.
func lookup(doc *yaml.Node, path []string) (*yaml.Node, bool) {
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, false
		}
		node = node.Content[0]
	}

	inFlow := false
	for _, key := range path {
		if node.Kind != yaml.MappingNode {
			return nil, false
		}
		inFlow = inFlow || node.Style&yaml.FlowStyle != 0
		var next *yaml.Node
		// Last duplicate wins, matching how yaml.v3 decodes.
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
			}
		}
		if next == nil {
			return nil, false
		}
		node = next
	}
	return node, inFlow
}

// scalarSpan returns the byte range of a single-line scalar's source text.
func scalarSpan(content []byte, node *yaml.Node, inFlow bool) (int, int, error) {
	lineStart, lineEnd, ok := lineBounds(content, node.Line)
	if !ok {
		return 0, 0, fmt.Errorf("%w: line %d out of range", ErrUnsupportedLayout, node.Line)
	}

	start := lineStart + runeOffset(content[lineStart:lineEnd], node.Column-1)
	if start >= lineEnd && node.Value != "" {
		return 0, 0, fmt.Errorf("%w: value not on its key line", ErrUnsupportedLayout)
	}

	switch {
	case node.Style&yaml.DoubleQuotedStyle != 0:
		for i := start + 1; i < lineEnd; i++ {
			switch content[i] {
			case '\\':
				i++
			case '"':
				return start, i + 1, nil
			}
		}
		return 0, 0, fmt.Errorf("%w: multi-line quoted value", ErrUnsupportedLayout)

	case node.Style&yaml.SingleQuotedStyle != 0:
		for i := start + 1; i < lineEnd; i++ {
			if content[i] != '\'' {
				continue
			}
			if i+1 < lineEnd && content[i+1] == '\'' {
				i++
				continue
			}
			return start, i + 1, nil
		}
		return 0, 0, fmt.Errorf("%w: multi-line quoted value", ErrUnsupportedLayout)

	case node.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		return 0, 0, fmt.Errorf("%w: block scalar", ErrUnsupportedLayout)
	}

	// Plain scalar: runs to a comment, the end of line, or a flow separator.
	end := lineEnd
	for i := start; i < lineEnd; i++ {
		c := content[i]
		if c == '#' && i > start && (content[i-1] == ' ' || content[i-1] == '\t') {
			end = i
			break
		}
		if inFlow && (c == ',' || c == '}' || c == ']') {
			end = i
			break
		}
	}
	for end > start && (content[end-1] == ' ' || content[end-1] == '\t' || content[end-1] == '\r') {
		end--
	}
	return start, end, nil
}

// lineBounds returns the byte range of the 1-based line n, excluding '\n'.
func lineBounds(content []byte, n int) (int, int, bool) {
	if n < 1 {
		return 0, 0, false
	}
	start := 0
	for line := 1; line < n; line++ {
		idx := bytes.IndexByte(content[start:], '\n')
		if idx < 0 {
			return 0, 0, false
		}
		start += idx + 1
	}
	end := len(content)
	if idx := bytes.IndexByte(content[start:], '\n'); idx >= 0 {
		end = start + idx
	}
	return start, end, true
}

// runeOffset converts a character column into a byte offset within line.
func runeOffset(line []byte, col int) int {
	off := 0
	for i := 0; i < col && off < len(line); i++ {
		_, size := utf8.DecodeRune(line[off:])
		off += size
	}
	return off
}

// renderScalar formats value in the style of the scalar it replaces.
func renderScalar(style yaml.Style, kind fieldKind, value string, inFlow bool) string {
	if kind == boolField {
		return value
	}
	switch {
	case style&yaml.DoubleQuotedStyle != 0:
		return strconv.Quote(value)
	case style&yaml.SingleQuotedStyle != 0:
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	}
	if inFlow {
		return strconv.Quote(value)
	}
	// Let yaml.v3 decide whether the plain form needs quoting, but keep
	// printable runes literal: its emitter escapes characters like emoji.
	data, err := yaml.Marshal(value)
	if err != nil {
		return strconv.Quote(value)
	}
	rendered := strings.TrimSuffix(string(data), "\n")
	if strings.HasPrefix(rendered, `"`) {
		return strconv.Quote(value)
	}
	return rendered
}

// verify re-parses patched content and checks the field decodes to value.
func verify(content []byte, f field, value string) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("%w: %v", errPatchVerifyFailure, err)
	}
	node, _ := lookup(&doc, f.path)
	if node == nil || node.Kind != yaml.ScalarNode {
		return errPatchVerifyFailure
	}
	if node.Value != value {
		return fmt.Errorf("%w: got %q", errPatchVerifyFailure, node.Value)
	}
	if _, err := config.Parse(content); err != nil {
		return fmt.Errorf("%w: %v", errPatchVerifyFailure, err)
	}
	return nil
}
