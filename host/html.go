package host

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/cellquery/sqlitefn/refs"
)

// HTMLResolver resolves named tables to <table> elements in a single parsed
// HTML document, keyed by the table's id attribute if present, else by its
// 1-based document order ("table1", "table2", …).
type HTMLResolver struct {
	tables map[string][][]string // name -> rows (row 0 is the header iff headers requested)
}

// NewHTMLResolver parses doc once and indexes every <table> element it
// contains.
func NewHTMLResolver(doc *html.Node) *HTMLResolver {
	r := &HTMLResolver{tables: map[string][][]string{}}
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			count++
			name := tableID(n)
			if name == "" {
				name = "table" + strconv.Itoa(count)
			}
			r.tables[name] = extractRows(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return r
}

func (h *HTMLResolver) Resolve(ctx context.Context, ref refs.TableReference, headers bool) (*Table, error) {
	if !ref.IsTable() {
		return nil, rangeResolutionErr(ref, "HTML resolver only resolves named tables")
	}
	rows, ok := h.tables[ref.Table]
	if !ok {
		return nil, rangeResolutionErr(ref, "no <table> named "+ref.Table)
	}
	if len(rows) == 0 {
		return nil, emptyRangeErr(ref)
	}

	var cols []string
	dataRows := rows
	if headers {
		cols = rows[0]
		dataRows = rows[1:]
	}
	width := len(cols)
	for _, r := range dataRows {
		if len(r) > width {
			width = len(r)
		}
	}
	if !headers {
		cols = positionalHeaders(width)
	}

	out := make([][]any, len(dataRows))
	for i, r := range dataRows {
		row := make([]any, width)
		for c := 0; c < width && c < len(r); c++ {
			row[c] = coerceCell(r[c])
		}
		out[i] = row
	}
	return &Table{Columns: cols, Rows: out}, nil
}

func tableID(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "id" {
			return attr.Val
		}
	}
	return ""
}

func extractRows(table *html.Node) [][]string {
	var rows [][]string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, extractText(c))
				}
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "table" {
				continue
			}
			visit(c)
		}
	}
	visit(table)
	return rows
}

func extractText(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return strings.TrimSpace(sb.String())
}
