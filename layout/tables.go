package layout

// Name identifies one of the built-in keyboard layouts.
type Name string

const (
	English Name = "en"
	Russian Name = "ru"
)

// ParseName maps an arbitrary layout identifier onto a known Name. Anything
// unrecognised is treated as English.
func ParseName(s string) Name {
	if Name(s) == Russian {
		return Russian
	}

	return English
}

// Other returns the opposite layout.
func (n Name) Other() Name {
	if n == Russian {
		return English
	}

	return Russian
}

// Table is an ordered set of rows of single characters.
type Table [][]rune

func table(rows ...string) Table {
	t := make(Table, 0, len(rows))
	for _, r := range rows {
		t = append(t, []rune(r))
	}

	return t
}

var englishTable = table(
	"`1234567890-=",
	"qwertyuiop[]\\",
	"asdfghjkl;'",
	"zxcvbnm,./",
)

var russianTable = table(
	"ё1234567890-=",
	"йцукенгшщзхъ\\",
	"фывапролджэ",
	"ячсмитьбю.",
)

// Rows returns a copy of the table so callers can't mutate the built-ins.
func (t Table) Rows() Table {
	out := make(Table, len(t))
	for i, row := range t {
		out[i] = append([]rune(nil), row...)
	}

	return out
}

// At returns the character at row/col, or false if the position is out of range.
func (t Table) At(row, col int) (rune, bool) {
	if row < 0 || row >= len(t) {
		return 0, false
	}

	if col < 0 || col >= len(t[row]) {
		return 0, false
	}

	return t[row][col], true
}

// Tables holds both built-in layouts and the mapping between them.
type Tables struct {
	English Table
	Russian Table
	Mapping *Mapping
}

func DefaultTables() *Tables {
	return &Tables{
		English: englishTable.Rows(),
		Russian: russianTable.Rows(),
		Mapping: NewMapping(englishTable, russianTable),
	}
}

// For returns the table that should be displayed for the given layout.
func (t *Tables) For(n Name) Table {
	if n == Russian {
		return t.Russian
	}

	return t.English
}
