// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/buffer.go
// Summary: Contiguous row-major cell grid with bounds-checked access.
// Notes: Row operations are flat copies so scrolling and line edits stay cheap.

package vterm

// Buffer is a fixed-size grid of cells stored row-major in a single slice.
// Every row always holds exactly Cols cells. All accessors are
// bounds-checked; out-of-range reads return the zero Cell and out-of-range
// writes are dropped.
type Buffer struct {
	cols  int
	rows  int
	cells []Cell
}

// NewBuffer allocates a grid of the given size with every cell set to fill.
// Dimensions below 1 are raised to 1.
func NewBuffer(cols, rows int, fill Cell) *Buffer {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	b := &Buffer{cols: cols, rows: rows, cells: make([]Cell, cols*rows)}
	b.Fill(fill)
	return b
}

// Cols returns the grid width.
func (b *Buffer) Cols() int { return b.cols }

// Rows returns the grid height.
func (b *Buffer) Rows() int { return b.rows }

// At returns the cell at (x, y), or the zero Cell when out of bounds.
func (b *Buffer) At(x, y int) Cell {
	if x < 0 || x >= b.cols || y < 0 || y >= b.rows {
		return Cell{}
	}
	return b.cells[y*b.cols+x]
}

// Set stores a cell at (x, y). Out-of-bounds writes are dropped.
func (b *Buffer) Set(x, y int, c Cell) {
	if x < 0 || x >= b.cols || y < 0 || y >= b.rows {
		return
	}
	b.cells[y*b.cols+x] = c
}

// Row returns the cells of row y as a slice view into the grid. The view
// stays valid until the buffer is resized. Returns nil when out of bounds.
func (b *Buffer) Row(y int) []Cell {
	if y < 0 || y >= b.rows {
		return nil
	}
	return b.cells[y*b.cols : (y+1)*b.cols]
}

// Fill sets every cell in the grid to c.
func (b *Buffer) Fill(c Cell) {
	for i := range b.cells {
		b.cells[i] = c
	}
}

// FillRow sets every cell of row y to c.
func (b *Buffer) FillRow(y int, c Cell) {
	row := b.Row(y)
	for i := range row {
		row[i] = c
	}
}

// FillSpan sets cells [x0, x1] of row y to c, clamping the span to the row.
func (b *Buffer) FillSpan(y, x0, x1 int, c Cell) {
	row := b.Row(y)
	if row == nil {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 >= b.cols {
		x1 = b.cols - 1
	}
	for x := x0; x <= x1; x++ {
		row[x] = c
	}
}

// CopyRow copies row src onto row dst. Out-of-bounds rows are ignored.
func (b *Buffer) CopyRow(dst, src int) {
	d, s := b.Row(dst), b.Row(src)
	if d == nil || s == nil {
		return
	}
	copy(d, s)
}

// Clone returns a deep copy of the grid.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{cols: b.cols, rows: b.rows, cells: make([]Cell, len(b.cells))}
	copy(out.cells, b.cells)
	return out
}

// CopyFrom copies the overlapping top-left rectangle of src into b. Cells
// outside the overlap keep their current value.
func (b *Buffer) CopyFrom(src *Buffer) {
	rows := b.rows
	if src.rows < rows {
		rows = src.rows
	}
	cols := b.cols
	if src.cols < cols {
		cols = src.cols
	}
	for y := 0; y < rows; y++ {
		copy(b.Row(y)[:cols], src.Row(y)[:cols])
	}
}
