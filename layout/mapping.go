package layout

// Mapping is the bidirectional per-position correspondence between the
// English and Russian tables.
type Mapping struct {
	enToRu map[rune]rune
	ruToEn map[rune]rune
}

// NewMapping pairs characters that share a row/column in both tables. Only
// columns present in both rows are paired.
func NewMapping(en, ru Table) *Mapping {
	m := &Mapping{
		enToRu: make(map[rune]rune),
		ruToEn: make(map[rune]rune),
	}

	rows := min(len(en), len(ru))
	for r := range rows {
		cols := min(len(en[r]), len(ru[r]))
		for c := range cols {
			m.enToRu[en[r][c]] = ru[r][c]
			m.ruToEn[ru[r][c]] = en[r][c]
		}
	}

	return m
}

// Counterpart returns the character at the same position in the other layout.
func (m *Mapping) Counterpart(ch rune, from Name) (rune, bool) {
	var (
		v  rune
		ok bool
	)

	if from == Russian {
		v, ok = m.ruToEn[ch]
	} else {
		v, ok = m.enToRu[ch]
	}

	if !ok || v == ch {
		return 0, false
	}

	return v, true
}

// Lookup decides whether the on-screen key ch of the active layout should show
// as pressed. The input backend may report characters from the other layout,
// so when ch itself is absent its counterpart is checked. A direct hit always
// wins over the cross-layout one.
func (m *Mapping) Lookup(pressed map[rune]float64, ch rune, active Name) (float64, bool) {
	if v, ok := pressed[ch]; ok {
		return v, true
	}

	other, ok := m.Counterpart(ch, active)
	if !ok {
		return 0, false
	}

	v, ok := pressed[other]

	return v, ok
}
