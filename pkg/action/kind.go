package action

// Kind identifies one of the CRUD actions that can be registered for a
// resource
type Kind int

// Kinds are listed in the order they are registered for a resource
const (
	KindReadItem Kind = iota
	KindReadCollection
	KindCreateItem
	KindUpdateItem
	KindDeleteItem
)

// Kinds returns every Kind in registration order
func Kinds() []Kind {
	return []Kind{KindReadItem, KindReadCollection, KindCreateItem, KindUpdateItem, KindDeleteItem}
}

// String returns the configuration key for the kind
func (k Kind) String() string {
	switch k {
	case KindReadItem:
		return "readItem"
	case KindReadCollection:
		return "readCollection"
	case KindCreateItem:
		return "createItem"
	case KindUpdateItem:
		return "updateItem"
	case KindDeleteItem:
		return "deleteItem"
	default:
		return "unknown"
	}
}

// Method is the HTTP method a kind is served on
func (k Kind) Method() string {
	switch k {
	case KindReadItem, KindReadCollection:
		return "GET"
	case KindCreateItem:
		return "POST"
	case KindUpdateItem:
		return "PATCH"
	case KindDeleteItem:
		return "DELETE"
	default:
		return ""
	}
}

// ItemScoped reports whether the kind addresses a single row, and so needs
// the resource's primary keys to build its path
func (k Kind) ItemScoped() bool {
	return k == KindReadItem || k == KindUpdateItem || k == KindDeleteItem
}
