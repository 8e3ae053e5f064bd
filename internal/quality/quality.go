// Package quality holds the map quality tools (chisels) and the text check
// telling whether a tool already did its job on an item.
package quality

import (
	"fmt"

	"github.com/vietdungdev/mapcrafter/internal/currency"
	"github.com/vietdungdev/mapcrafter/internal/item"
	"github.com/vietdungdev/mapcrafter/internal/pattern"
)

// Tool indexes the chisel list shown in the settings combo, the order is part
// of the saved configuration.
type Tool int

const (
	Cartographer Tool = iota
	Proliferation
	Procurement
	Scarabs
	Divination
	Avarice
)

// fallbackPattern is checked for any index outside the table.
const fallbackPattern = `Quality:*.*([2-9].|1..)%`

type definition struct {
	name     string
	currency string
	// label is the quality line prefix the tool produces on the item text.
	label   string
	pattern string
}

var tools = [...]definition{
	Cartographer:  {"Cartographer", currency.CartographersChisel, "Quality", `lity:.*([2-9].|1..)%`},
	Proliferation: {"Proliferation", currency.ChiselOfProliferation, "Quality (Pack Size)", `ze\).*([2-9].|1..)%`},
	Procurement:   {"Procurement", currency.ChiselOfProcurement, "Quality (Item Quantity)", `ty\).*([2-9].|1..)%`},
	Scarabs:       {"Scarabs", currency.ChiselOfScarabs, "Quality (more scarabs)", `sca.*([2-9].|1..)%`},
	Divination:    {"Divination", currency.ChiselOfDivination, "Quality (more divination cards)", `div.*([2-9].|1..)%`},
	Avarice:       {"Avarice", currency.ChiselOfAvarice, "Quality (more currency)", `urr.*([2-9].|1..)%`},
}

// Tools lists every tool in index order.
func Tools() []Tool {
	out := make([]Tool, len(tools))
	for i := range tools {
		out[i] = Tool(i)
	}
	return out
}

func (t Tool) Valid() bool {
	return t >= 0 && int(t) < len(tools)
}

func (t Tool) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return tools[t].name
}

// Currency is the consumable applied for this tool, empty for invalid tools.
func (t Tool) Currency() string {
	if !t.Valid() {
		return ""
	}
	return tools[t].currency
}

// Label is the prefix of the quality line written on the item by this tool.
func (t Tool) Label() string {
	if !t.Valid() {
		return "Quality"
	}
	return tools[t].label
}

// Pattern is the text check backing Precondition.
func (t Tool) Pattern() string {
	if !t.Valid() {
		return fallbackPattern
	}
	return tools[t].pattern
}

// Precondition reports whether the item already carries at least 20% of the
// quality granted by the tool.
func Precondition(it item.Item, t Tool) bool {
	return pattern.MatchesPattern(it.Text, t.Pattern())
}
