package currency

// Tab is the stash tab section a currency is kept in.
type Tab int

const (
	TabNone Tab = iota
	TabGeneral
	TabExotic
)

const (
	ChaosOrb              = "Chaos Orb"
	OrbOfScouring         = "Orb of Scouring"
	OrbOfAlchemy          = "Orb of Alchemy"
	CartographersChisel   = "Cartographer's Chisel"
	ExaltedOrb            = "Exalted Orb"
	DivineOrb             = "Divine Orb"
	ScrollOfWisdom        = "Scroll of Wisdom"
	ChiselOfAvarice       = "Maven's Chisel of Avarice"
	ChiselOfDivination    = "Maven's Chisel of Divination"
	ChiselOfProcurement   = "Maven's Chisel of Procurement"
	ChiselOfScarabs       = "Maven's Chisel of Scarabs"
	ChiselOfProliferation = "Maven's Chisel of Proliferation"
)

var tabs = map[string]Tab{
	ChaosOrb:              TabGeneral,
	OrbOfScouring:         TabGeneral,
	OrbOfAlchemy:          TabGeneral,
	CartographersChisel:   TabGeneral,
	ExaltedOrb:            TabGeneral,
	DivineOrb:             TabGeneral,
	ScrollOfWisdom:        TabGeneral,
	ChiselOfAvarice:       TabExotic,
	ChiselOfDivination:    TabExotic,
	ChiselOfProcurement:   TabExotic,
	ChiselOfScarabs:       TabExotic,
	ChiselOfProliferation: TabExotic,
}

// TabOf returns the stash section holding the given currency, TabNone when unknown.
func TabOf(name string) Tab {
	return tabs[name]
}

func Known(name string) bool {
	_, found := tabs[name]
	return found
}

func (t Tab) String() string {
	switch t {
	case TabGeneral:
		return "general"
	case TabExotic:
		return "exotic"
	default:
		return "none"
	}
}
