package htmlutil

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// RawRow is an untyped table row: normalized column name -> trimmed cell
// text. the column set depends on the page it was scraped from, so
// consumers probe for the columns they need.
type RawRow map[string]string

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeColumn lowercases a header cell and collapses runs of
// non-alphanumeric characters into a single underscore.
func NormalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = nonAlnumRuns.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// ExtractTable reads a <table> selection into rows. the first row carrying
// <th> cells provides the column names; every subsequent row must have
// exactly as many <td> cells as there are columns or it is discarded.
func ExtractTable(table *goquery.Selection) []RawRow {
	var columns []string
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		ths := tr.Find("th")
		if ths.Length() == 0 {
			return true
		}
		ths.Each(func(_ int, th *goquery.Selection) {
			columns = append(columns, NormalizeColumn(th.Text()))
		})
		return false
	})
	if len(columns) == 0 {
		return nil
	}

	var rows []RawRow
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() != len(columns) {
			return
		}
		row := make(RawRow, len(columns))
		tds.Each(func(i int, td *goquery.Selection) {
			row[columns[i]] = strings.TrimSpace(td.Text())
		})
		rows = append(rows, row)
	})
	return rows
}
