// Package ui describes what the directory page shows for a derived view and
// keeps the per-client state of a live listing.
//
// Render is declarative: every change produces a whole new Page, there is no
// diffing against the previous one.
package ui

import (
	"fmt"
	"strconv"

	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/view"
)

// Mode is the layout of the listing.
type Mode string

const (
	ModeGrid  Mode = "grid"
	ModeTable Mode = "table"
)

// DefaultMode is the layout of a fresh listing.
const DefaultMode = ModeGrid

// EmptyText is shown instead of the listing when nothing matches.
const EmptyText = "No employees found"

// TableColumns are the headers of the table layout.
var TableColumns = []string{"ID", "Name", "Email", "Department", "Role", "Actions"}

// ParseMode maps s to a Mode. ok is false for anything but grid or table.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeGrid, ModeTable:
		return m, true
	default:
		return DefaultMode, false
	}
}

// Item is one employee as shown by either layout.
type Item struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	EditURL    string `json:"editUrl"`
	DeleteURL  string `json:"deleteUrl"`
}

type Table struct {
	Columns []string `json:"columns"`
	Rows    []Item   `json:"rows"`
}

type PageLink struct {
	Number int  `json:"number"`
	Active bool `json:"active"`
}

type Pagination struct {
	Current int        `json:"current"`
	Pages   []PageLink `json:"pages"`
}

// Page is the full description of the directory listing.
type Page struct {
	Mode         Mode        `json:"mode"`
	Cards        []Item      `json:"cards,omitempty"`
	Table        *Table      `json:"table,omitempty"`
	Pagination   *Pagination `json:"pagination,omitempty"`
	ResultText   string      `json:"resultText"`
	Empty        string      `json:"empty,omitempty"`
	TotalMatches int         `json:"totalMatches"`
	Message      string      `json:"message,omitempty"`

	// Params is set on pages emitted by a Session.
	Params *domain.ViewParams `json:"params,omitempty"`
}

// EditURL is the address of the edit form of employee id.
func EditURL(id int64) string {
	return "/employees/" + strconv.FormatInt(id, 10) + "/edit"
}

// DeleteURL is the API address that deletes employee id.
func DeleteURL(id int64) string {
	return "/api/employees/" + strconv.FormatInt(id, 10)
}

// ResultText returns "Showing a-b of n" for v.
func ResultText(v domain.View) string {
	return fmt.Sprintf("Showing %d-%d of %d", v.Start(), v.End(), v.TotalMatches)
}

// Render describes v in the given layout.
func Render(v domain.View, mode Mode) Page {
	if _, ok := ParseMode(string(mode)); !ok {
		mode = DefaultMode
	}
	p := Page{
		Mode:         mode,
		ResultText:   ResultText(v),
		TotalMatches: v.TotalMatches,
	}
	if v.TotalMatches == 0 {
		p.Empty = EmptyText
		return p
	}

	items := make([]Item, 0, len(v.Items))
	for _, e := range v.Items {
		items = append(items, Item{
			ID:         e.ID,
			Name:       e.FullName(),
			Email:      e.Email,
			Department: e.Department,
			Role:       e.Role,
			EditURL:    EditURL(e.ID),
			DeleteURL:  DeleteURL(e.ID),
		})
	}
	if mode == ModeTable {
		p.Table = &Table{Columns: TableColumns, Rows: items}
	} else {
		p.Cards = items
	}

	if pages := view.PageCount(v.TotalMatches, v.PageSize); pages > 1 {
		links := make([]PageLink, 0, pages)
		for i := 1; i <= pages; i++ {
			links = append(links, PageLink{Number: i, Active: i == v.Page})
		}
		p.Pagination = &Pagination{Current: v.Page, Pages: links}
	}
	return p
}
