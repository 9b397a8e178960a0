package checkout

import "strings"

// LineDraft is one product line as the customer typed it
type LineDraft struct {
	Key       int    `json:"key"`
	ProductID string `json:"product_id"`
	Quantity  string `json:"quantity"`
}

// Blank reports whether no product was chosen on this line
func (l LineDraft) Blank() bool {
	return strings.TrimSpace(l.ProductID) == ""
}

// LineList is the editable list of product lines on the entry form.
// Keys are never reused, so a removed line cannot be confused with a later one.
type LineList struct {
	Lines   []LineDraft `json:"lines"`
	NextKey int         `json:"next_key"`
}

// NewLineList returns a list holding one blank line
func NewLineList() LineList {
	var l LineList
	l.Add()
	return l
}

// Add appends a blank line and returns it
func (l *LineList) Add() LineDraft {
	line := LineDraft{Key: l.NextKey}
	l.NextKey++
	l.Lines = append(l.Lines, line)
	return line
}

// Append adds a line under an explicit key, keeping NextKey ahead of it
func (l *LineList) Append(line LineDraft) {
	l.Lines = append(l.Lines, line)
	if line.Key >= l.NextKey {
		l.NextKey = line.Key + 1
	}
}

// Remove deletes the line with key. Unknown keys are ignored.
func (l *LineList) Remove(key int) bool {
	for i, line := range l.Lines {
		if line.Key == key {
			l.Lines = append(l.Lines[:i], l.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// Len is the number of lines, blank ones included
func (l LineList) Len() int {
	return len(l.Lines)
}

// Compact returns the lines that name a product, in order, with a blank quantity
// defaulted. Keys are preserved.
func (l LineList) Compact() LineList {
	out := LineList{NextKey: l.NextKey}
	for _, line := range l.Lines {
		if line.Blank() {
			continue
		}
		line.ProductID = strings.TrimSpace(line.ProductID)
		line.Quantity = strings.TrimSpace(line.Quantity)
		if line.Quantity == "" {
			line.Quantity = defaultQuantity
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}
