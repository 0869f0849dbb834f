package wishlist

// ListState tracks resolution of the server-side favorites list.
type ListState string

const (
	ListUnresolved ListState = "unresolved"
	ListResolving  ListState = "resolving"
	ListResolved   ListState = "resolved"
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusToggling Status = "toggling"
)

// Snapshot is a copy of the wishlist state for rendering.
type Snapshot struct {
	ProductIDs []int64   `json:"product_ids"`
	ListID     int64     `json:"list_id,omitempty"`
	ListState  ListState `json:"list_state"`
	Status     Status    `json:"status"`
	Err        error     `json:"-"`
}

func (s Snapshot) Contains(productID int64) bool {
	for _, id := range s.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// ToggleResult reports the membership after a successful toggle.
type ToggleResult struct {
	ProductID  int64 `json:"product_id"`
	InWishlist bool  `json:"in_wishlist"`
}
