// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package forge

import (
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/sceneforge/sceneforge/internal/value"
)

// FormatValue renders a property value the way the editor shows it: bare
// scalars, quoted strings, bracketed vectors, and summaries for containers.
func FormatValue(v value.Value) string {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case value.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(int64(i), 10)
	case value.KindInt64:
		i, _ := v.AsInt64()
		return strconv.FormatInt(i, 10)
	case value.KindDouble:
		f, _ := v.AsDouble()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case value.KindString:
		s, _ := v.AsString()
		return strconv.Quote(s)
	case value.KindRef:
		id, _ := v.AsRef()
		if id == (ulid.ULID{}) {
			return "<none>"
		}
		return id.String()
	case value.KindVec2f, value.KindVec3f, value.KindVec4f:
		fs, _ := v.FloatVec()
		parts := make([]string, len(fs))
		for i, f := range fs {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.KindVec2i, value.KindVec3i, value.KindVec4i:
		is, _ := v.IntVec()
		parts := make([]string, len(is))
		for i, n := range is {
			parts[i] = strconv.FormatInt(int64(n), 10)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.KindArray:
		return "[" + Plural(len(v.Children()), "element") + "]"
	case value.KindStruct, value.KindTable:
		return "{" + Plural(len(v.Children()), "property") + "}"
	}
	return "<unknown>"
}

// Plural renders a count with its noun, appending "s" or replacing a
// trailing "y" for counts other than one.
func Plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		noun = noun[:len(noun)-1] + "ie"
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// List renders items as indented bullet lines.
func List(items []string) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  - "+item)
	}
	return strings.Join(lines, "\n")
}

// Pairs renders label/value rows with the labels padded to a common width.
func Pairs(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}

	var lines []string
	for _, p := range pairs {
		lines = append(lines, padRight(p[0]+":", width+1)+" "+p[1])
	}
	return strings.Join(lines, "\n")
}

// Table renders rows under optional headers with columns padded to the
// widest cell. Short rows leave trailing cells blank.
func Table(headers []string, rows [][]string) string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return ""
	}

	widths := make([]int, colCount)
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < colCount && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var lines []string

	if len(headers) > 0 {
		var headerCells []string
		for i, h := range headers {
			headerCells = append(headerCells, padRight(h, widths[i]))
		}
		lines = append(lines, strings.Join(headerCells, "  "))

		var sepCells []string
		for i := 0; i < colCount; i++ {
			sepCells = append(sepCells, strings.Repeat("-", widths[i]))
		}
		lines = append(lines, strings.Join(sepCells, "  "))
	}

	for _, row := range rows {
		var rowCells []string
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			rowCells = append(rowCells, padRight(cell, widths[i]))
		}
		lines = append(lines, strings.Join(rowCells, "  "))
	}

	return strings.Join(lines, "\n")
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
