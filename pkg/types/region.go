package types

// Role is the semantic role of a Region, drawn from a closed set.
type Role string

const (
	RoleLink     Role = "link"
	RoleButton   Role = "button"
	RoleInput    Role = "input"
	RoleTextarea Role = "textarea"
	RoleSelect   Role = "select"
	RoleCheckbox Role = "checkbox"
	RoleRadio    Role = "radio"
	RoleOther    Role = "other"
)

// BoundingBox is a region's position and size in page coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Region is an addressable interactive element found by a single scan.
//
// Identity is fresh per scan and written onto the DOM node itself as a
// custom attribute; it is the only way to target the element afterwards.
// Regions never outlive the scan cycle that produced them.
type Region struct {
	Identity   string      `json:"identity"`
	Label      string      `json:"label"`
	Role       Role        `json:"role"`
	BBox       BoundingBox `json:"bbox"`
	Confidence float64     `json:"confidence"`
	Href       string      `json:"href,omitempty"`
}
