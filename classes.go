package foodprep

import "strconv"

// ClassTable maps class ids to class names. The position of a name is its class id.
//
// A ClassTable is immutable once constructed and safe to share between goroutines.
type ClassTable struct {
	names []string
}

// DefaultClassTable is the class list of the food dataset.
var DefaultClassTable = NewClassTable(
	"chicken", "daal", "mixsweet", "naan", "rice", "roti", "salad", "yogurt",
)

// NewClassTable returns a table holding a copy of names.
func NewClassTable(names ...string) ClassTable {
	return ClassTable{names: append([]string(nil), names...)}
}

// Name returns the name for class id, or the decimal id if it is out of range.
func (t ClassTable) Name(id int) string {
	if id >= 0 && id < len(t.names) {
		return t.names[id]
	}
	return strconv.Itoa(id)
}

// Len is the number of classes.
func (t ClassTable) Len() int {
	return len(t.names)
}

// Names returns a copy of the class names in id order.
func (t ClassTable) Names() []string {
	return append([]string(nil), t.names...)
}
